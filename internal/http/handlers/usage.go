package handlers

import (
	"net/http"
	"time"

	"backdrop/internal/domain"
)

type usageLogEntry struct {
	ID           string    `json:"id"`
	Action       string    `json:"action"`
	Resolution   string    `json:"resolution"`
	TokensInput  int       `json:"tokens_input"`
	TokensOutput int       `json:"tokens_output"`
	Cost         float64   `json:"cost"`
	Country      string    `json:"country,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *App) UsageSummary(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	summary, err := a.Usage.Summarize(r.Context(), userID)
	if err != nil {
		a.Log.Error().Err(err).Str("user_id", userID).Msg("handlers: usage summary failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load usage")
		return
	}
	a.json(w, http.StatusOK, summary)
}

func (a *App) UsageLogs(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	logs, err := a.Usage.Logs(r.Context(), userID)
	if err != nil {
		a.Log.Error().Err(err).Str("user_id", userID).Msg("handlers: usage logs failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load usage logs")
		return
	}
	entries := make([]usageLogEntry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, toLogEntry(l))
	}
	a.json(w, http.StatusOK, map[string]any{"logs": entries})
}

func (a *App) UsageReset(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if err := a.Usage.Reset(r.Context(), userID); err != nil {
		a.Log.Error().Err(err).Str("user_id", userID).Msg("handlers: usage reset failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to reset usage")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "reset"})
}

func toLogEntry(l domain.UsageRecord) usageLogEntry {
	return usageLogEntry{
		ID:           l.ID,
		Action:       string(l.Action),
		Resolution:   string(l.Resolution),
		TokensInput:  l.TokensInput,
		TokensOutput: l.TokensOutput,
		Cost:         l.Cost,
		Country:      l.Country,
		CreatedAt:    l.CreatedAt,
	}
}
