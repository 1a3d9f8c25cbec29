package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"backdrop/internal/domain"
)

type profileResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	ImageLimit       int       `json:"image_limit"`
	ImagesGenerated  int       `json:"images_generated"`
	AllowedSystemKey bool      `json:"allowed_system_key"`
	CreatedAt        time.Time `json:"created_at"`
}

// requireAdmin loads the caller's profile and rejects non-admins, writing the
// error response itself on failure.
func (a *App) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return false
	}
	if !profile.IsAdmin() {
		a.error(w, http.StatusForbidden, "forbidden", "admin role required")
		return false
	}
	return true
}

func (a *App) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	profiles, err := a.Profiles.AllProfiles(r.Context())
	if err != nil {
		a.Log.Error().Err(err).Msg("handlers: list users failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list users")
		return
	}
	out := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileResponse(p))
	}
	a.json(w, http.StatusOK, map[string]any{"users": out})
}

func (a *App) AdminUpdateImageLimit(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	var req struct {
		ImageLimit int `json:"image_limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageLimit < 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "image_limit must be a non-negative integer")
		return
	}
	targetID := chi.URLParam(r, "id")
	if err := a.Profiles.UpdateImageLimit(r.Context(), targetID, req.ImageLimit); err != nil {
		a.writeAdminUpdateError(w, err, "failed to update image limit")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (a *App) AdminResetUsage(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	targetID := chi.URLParam(r, "id")
	if err := a.Profiles.ResetUsageCounter(r.Context(), targetID); err != nil {
		a.writeAdminUpdateError(w, err, "failed to reset usage counter")
		return
	}
	if err := a.Usage.Reset(r.Context(), targetID); err != nil {
		a.Log.Error().Err(err).Str("user_id", targetID).Msg("handlers: usage history reset failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to reset usage history")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (a *App) AdminUpdateSystemKeyAccess(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	var req struct {
		Allowed bool `json:"allowed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	targetID := chi.URLParam(r, "id")
	if err := a.Profiles.UpdateSystemKeyAccess(r.Context(), targetID, req.Allowed); err != nil {
		a.writeAdminUpdateError(w, err, "failed to update system key access")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "updated"})
}

// AdminSystemKeyStatus reports whether a shared key is stored without ever
// returning the key itself.
func (a *App) AdminSystemKeyStatus(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	key, err := a.SystemKey.GlobalKey(r.Context())
	if err != nil {
		a.Log.Error().Err(err).Msg("handlers: system key read failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to read system key")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"configured": key != "",
		"hint":       maskKey(key),
	})
}

func (a *App) AdminSetSystemKey(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "key must not be empty")
		return
	}
	if err := a.SystemKey.SetGlobalKey(r.Context(), req.Key); err != nil {
		a.Log.Error().Err(err).Msg("handlers: system key write failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store system key")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "stored"})
}

func (a *App) writeAdminUpdateError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	a.Log.Error().Err(err).Msg("handlers: admin update failed")
	a.error(w, http.StatusInternalServerError, "internal", message)
}

func toProfileResponse(p domain.Profile) profileResponse {
	return profileResponse{
		ID:               p.ID,
		Email:            p.Email,
		Role:             string(p.Role),
		ImageLimit:       p.ImageLimit,
		ImagesGenerated:  p.ImagesGenerated,
		AllowedSystemKey: p.AllowedSystemKey,
		CreatedAt:        p.CreatedAt,
	}
}

func maskKey(key string) string {
	if len(key) <= 8 {
		if key == "" {
			return ""
		}
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
