package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"backdrop/internal/adapter/repo"
	"backdrop/internal/genai"
	"backdrop/internal/generation"
	"backdrop/internal/http/handlers"
	httpapi "backdrop/internal/http/httpapi"
	"backdrop/internal/imageproc"
	"backdrop/internal/infra"
	"backdrop/internal/infra/credentials"
	"backdrop/internal/infra/geoip"
	"backdrop/internal/middleware"
	"backdrop/internal/usage"
)

func main() {
	// Muat .env (opsional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	sqlRunner := infra.NewSQLRunner(dbpool, logger)
	profiles := repo.NewProfileRepository(sqlRunner)
	accountant := usage.NewAccountant(sqlRunner, logger)
	systemKeys := credentials.NewStore(sqlRunner)

	keyResolver := &generation.KeyResolver{
		Local:  handlers.ContextKeyStore{},
		EnvKey: cfg.GeminiAPIKey,
		Global: systemKeys,
		Logger: logger,
	}

	modelClient := genai.NewClient(genai.Options{
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Logger:  logger,
	})

	optimizer := imageproc.NewOptimizer(cfg.ReferenceImageEdge, logger)

	generator := generation.NewService(
		profiles,
		keyResolver,
		modelClient,
		optimizer,
		accountant,
		cfg.GenerationTimeout,
		logger,
	)

	// GeoIP database is optional; without it country enrichment falls back
	// to request headers.
	var countryLookup middleware.CountryLookup
	if resolver, err := geoip.NewResolver(cfg.GeoIPDBPath); err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	app := &handlers.App{
		Cfg:       cfg,
		Log:       logger,
		Generator: generator,
		Profiles:  profiles,
		Usage:     accountant,
		SystemKey: systemKeys,
	}

	allowedOrigins := splitOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))
	router := httpapi.NewRouter(app, countryLookup, allowedOrigins)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func splitOrigins(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
