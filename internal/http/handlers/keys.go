package handlers

import "net/http"

// KeyStatus reports whether a credential is available for the caller. The UI
// gates the generate button on this.
func (a *App) KeyStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	available, err := a.Generator.Available(r.Context(), userID)
	if err != nil {
		a.Log.Error().Err(err).Str("user_id", userID).Msg("handlers: key status failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to check key status")
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"available": available})
}
