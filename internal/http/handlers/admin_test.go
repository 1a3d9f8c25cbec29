package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"backdrop/internal/domain"
	"backdrop/internal/middleware"
)

type stubProfiles struct {
	profiles   map[string]domain.Profile
	limits     map[string]int
	resets     []string
	keyAccess  map[string]bool
	missing    bool
	lastTarget string
}

func (s *stubProfiles) ProfileByID(ctx context.Context, id string) (domain.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *stubProfiles) AllProfiles(ctx context.Context) ([]domain.Profile, error) {
	out := make([]domain.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProfiles) UpdateImageLimit(ctx context.Context, id string, limit int) error {
	if s.missing {
		return domain.ErrNotFound
	}
	if s.limits == nil {
		s.limits = map[string]int{}
	}
	s.limits[id] = limit
	s.lastTarget = id
	return nil
}

func (s *stubProfiles) ResetUsageCounter(ctx context.Context, id string) error {
	if s.missing {
		return domain.ErrNotFound
	}
	s.resets = append(s.resets, id)
	return nil
}

func (s *stubProfiles) UpdateSystemKeyAccess(ctx context.Context, id string, allowed bool) error {
	if s.missing {
		return domain.ErrNotFound
	}
	if s.keyAccess == nil {
		s.keyAccess = map[string]bool{}
	}
	s.keyAccess[id] = allowed
	return nil
}

type stubUsage struct {
	summary domain.UsageSummary
	logs    []domain.UsageRecord
	resets  []string
}

func (s *stubUsage) Logs(ctx context.Context, userID string) ([]domain.UsageRecord, error) {
	return s.logs, nil
}

func (s *stubUsage) Summarize(ctx context.Context, userID string) (domain.UsageSummary, error) {
	return s.summary, nil
}

func (s *stubUsage) Reset(ctx context.Context, userID string) error {
	s.resets = append(s.resets, userID)
	return nil
}

type stubSystemKey struct {
	key    string
	stored string
}

func (s *stubSystemKey) GlobalKey(ctx context.Context) (string, error) { return s.key, nil }

func (s *stubSystemKey) SetGlobalKey(ctx context.Context, key string) error {
	s.stored = key
	return nil
}

func adminApp(profiles *stubProfiles, usage *stubUsage, keys *stubSystemKey) *App {
	if profiles.profiles == nil {
		profiles.profiles = map[string]domain.Profile{}
	}
	profiles.profiles["admin-1"] = domain.Profile{ID: "admin-1", Role: domain.UserRoleAdmin, ImageLimit: 100}
	profiles.profiles["user-2"] = domain.Profile{ID: "user-2", Role: domain.UserRoleUser, ImageLimit: 10}
	return &App{
		Log:       zerolog.Nop(),
		Profiles:  profiles,
		Usage:     usage,
		SystemKey: keys,
	}
}

func requestAs(userID, method, path string, body []byte, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	ctx := middleware.ContextWithUserID(req.Context(), userID)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func TestAdminEndpointsRejectNonAdmins(t *testing.T) {
	app := adminApp(&stubProfiles{}, &stubUsage{}, &stubSystemKey{})
	rec := httptest.NewRecorder()

	app.AdminListUsers(rec, requestAs("user-2", http.MethodGet, "/v1/admin/users", nil, nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestAdminListUsers(t *testing.T) {
	app := adminApp(&stubProfiles{}, &stubUsage{}, &stubSystemKey{})
	rec := httptest.NewRecorder()

	app.AdminListUsers(rec, requestAs("admin-1", http.MethodGet, "/v1/admin/users", nil, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Users []profileResponse `json:"users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Users) != 2 {
		t.Fatalf("users = %d, want 2", len(resp.Users))
	}
}

func TestAdminUpdateImageLimit(t *testing.T) {
	profiles := &stubProfiles{}
	app := adminApp(profiles, &stubUsage{}, &stubSystemKey{})
	body, _ := json.Marshal(map[string]int{"image_limit": 50})
	rec := httptest.NewRecorder()

	app.AdminUpdateImageLimit(rec, requestAs("admin-1", http.MethodPut, "/v1/admin/users/user-2/limit", body, map[string]string{"id": "user-2"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if profiles.limits["user-2"] != 50 {
		t.Fatalf("limit = %d, want 50", profiles.limits["user-2"])
	}
}

func TestAdminUpdateImageLimitRejectsNegative(t *testing.T) {
	app := adminApp(&stubProfiles{}, &stubUsage{}, &stubSystemKey{})
	body, _ := json.Marshal(map[string]int{"image_limit": -1})
	rec := httptest.NewRecorder()

	app.AdminUpdateImageLimit(rec, requestAs("admin-1", http.MethodPut, "/v1/admin/users/user-2/limit", body, map[string]string{"id": "user-2"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAdminResetUsageClearsCounterAndHistory(t *testing.T) {
	profiles := &stubProfiles{}
	usage := &stubUsage{}
	app := adminApp(profiles, usage, &stubSystemKey{})
	rec := httptest.NewRecorder()

	app.AdminResetUsage(rec, requestAs("admin-1", http.MethodPost, "/v1/admin/users/user-2/reset-usage", nil, map[string]string{"id": "user-2"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(profiles.resets) != 1 || profiles.resets[0] != "user-2" {
		t.Fatalf("counter resets = %v", profiles.resets)
	}
	if len(usage.resets) != 1 || usage.resets[0] != "user-2" {
		t.Fatalf("history resets = %v", usage.resets)
	}
}

func TestAdminUpdateLimitUnknownUser(t *testing.T) {
	app := adminApp(&stubProfiles{missing: true}, &stubUsage{}, &stubSystemKey{})
	body, _ := json.Marshal(map[string]int{"image_limit": 50})
	rec := httptest.NewRecorder()

	app.AdminUpdateImageLimit(rec, requestAs("admin-1", http.MethodPut, "/v1/admin/users/ghost/limit", body, map[string]string{"id": "ghost"}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAdminSystemKeyStatusMasksKey(t *testing.T) {
	app := adminApp(&stubProfiles{}, &stubUsage{}, &stubSystemKey{key: "sk-abcdef123456"})
	rec := httptest.NewRecorder()

	app.AdminSystemKeyStatus(rec, requestAs("admin-1", http.MethodGet, "/v1/admin/system-key", nil, nil))
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["configured"] != true {
		t.Fatal("configured = false, want true")
	}
	hint, _ := resp["hint"].(string)
	if hint != "sk-a...3456" {
		t.Fatalf("hint = %q", hint)
	}
}

func TestAdminSetSystemKey(t *testing.T) {
	keys := &stubSystemKey{}
	app := adminApp(&stubProfiles{}, &stubUsage{}, keys)
	body, _ := json.Marshal(map[string]string{"key": "sk-new"})
	rec := httptest.NewRecorder()

	app.AdminSetSystemKey(rec, requestAs("admin-1", http.MethodPut, "/v1/admin/system-key", body, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if keys.stored != "sk-new" {
		t.Fatalf("stored = %q", keys.stored)
	}
}

func TestUsageSummaryHandler(t *testing.T) {
	usage := &stubUsage{summary: domain.UsageSummary{UserID: "user-2", Generations: 3, TotalCost: 2.01}}
	app := adminApp(&stubProfiles{}, usage, &stubSystemKey{})
	rec := httptest.NewRecorder()

	app.UsageSummary(rec, requestAs("user-2", http.MethodGet, "/v1/usage", nil, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp domain.UsageSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Generations != 3 {
		t.Fatalf("generations = %d, want 3", resp.Generations)
	}
}

func TestUsageResetHandler(t *testing.T) {
	usage := &stubUsage{}
	app := adminApp(&stubProfiles{}, usage, &stubSystemKey{})
	rec := httptest.NewRecorder()

	app.UsageReset(rec, requestAs("user-2", http.MethodDelete, "/v1/usage", nil, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(usage.resets) != 1 || usage.resets[0] != "user-2" {
		t.Fatalf("resets = %v", usage.resets)
	}
}
