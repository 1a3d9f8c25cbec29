package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"backdrop/internal/http/handlers"
	"backdrop/internal/middleware"
)

// NewRouter builds the full API surface. countryLookup may be nil when no
// GeoIP database is configured.
func NewRouter(app *handlers.App, countryLookup middleware.CountryLookup, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(app.Log),
		middleware.CORS(allowedOrigins),
		middleware.I18N("en", countryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.AuthJWT(app.Cfg.JWTSecret),
			middleware.UserAPIKey,
		)

		r.With(middleware.RateLimit(app.Cfg.RateLimitPerMin, time.Minute)).
			Post("/v1/generate", app.Generate)

		r.Get("/v1/keys/status", app.KeyStatus)

		r.Get("/v1/usage", app.UsageSummary)
		r.Get("/v1/usage/logs", app.UsageLogs)
		r.Delete("/v1/usage", app.UsageReset)

		r.Get("/v1/admin/users", app.AdminListUsers)
		r.Put("/v1/admin/users/{id}/limit", app.AdminUpdateImageLimit)
		r.Post("/v1/admin/users/{id}/reset-usage", app.AdminResetUsage)
		r.Put("/v1/admin/users/{id}/system-key-access", app.AdminUpdateSystemKeyAccess)
		r.Get("/v1/admin/system-key", app.AdminSystemKeyStatus)
		r.Put("/v1/admin/system-key", app.AdminSetSystemKey)
	})

	return r
}
