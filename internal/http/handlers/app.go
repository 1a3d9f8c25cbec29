package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"backdrop/internal/domain"
	"backdrop/internal/generation"
	"backdrop/internal/infra"
	"backdrop/internal/middleware"
)

// Generator runs the image generation pipeline.
type Generator interface {
	Generate(ctx context.Context, in generation.GenerateInput) (*generation.GenerateOutput, error)
	Available(ctx context.Context, userID string) (bool, error)
}

// ProfileDirectory is the profile storage surface the handlers need.
type ProfileDirectory interface {
	ProfileByID(ctx context.Context, id string) (domain.Profile, error)
	AllProfiles(ctx context.Context) ([]domain.Profile, error)
	UpdateImageLimit(ctx context.Context, id string, limit int) error
	ResetUsageCounter(ctx context.Context, id string) error
	UpdateSystemKeyAccess(ctx context.Context, id string, allowed bool) error
}

// UsageLedger is the billing-log surface the handlers need.
type UsageLedger interface {
	Logs(ctx context.Context, userID string) ([]domain.UsageRecord, error)
	Summarize(ctx context.Context, userID string) (domain.UsageSummary, error)
	Reset(ctx context.Context, userID string) error
}

// SystemKeyStore reads and writes the shared model credential.
type SystemKeyStore interface {
	GlobalKey(ctx context.Context) (string, error)
	SetGlobalKey(ctx context.Context, key string) error
}

type App struct {
	Cfg       *infra.Config
	Log       zerolog.Logger
	Generator Generator
	Profiles  ProfileDirectory
	Usage     UsageLedger
	SystemKey SystemKeyStore
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, tag, message string) {
	a.json(w, code, map[string]string{"error": tag, "message": message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// currentProfile loads the authenticated caller's profile, writing the error
// response itself on failure.
func (a *App) currentProfile(w http.ResponseWriter, r *http.Request) (domain.Profile, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return domain.Profile{}, false
	}
	profile, err := a.Profiles.ProfileByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusUnauthorized, "unauthorized", "unknown user")
			return domain.Profile{}, false
		}
		a.Log.Error().Err(err).Str("user_id", userID).Msg("handlers: profile lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load profile")
		return domain.Profile{}, false
	}
	return profile, true
}

// ContextKeyStore feeds the caller-supplied credential header into the key
// resolver. It satisfies generation.LocalKeyStore.
type ContextKeyStore struct{}

func (ContextKeyStore) Key(ctx context.Context) (string, error) {
	return middleware.UserAPIKeyFromContext(ctx), nil
}
