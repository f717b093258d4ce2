// Package api_test runs HTTP-level smoke tests using net/http/httptest.
// These tests do NOT require a PostgreSQL database — they verify:
//   - Gin router routing and middleware wiring
//   - Request validation error responses (400)
//   - JWT auth middleware (401 without token, 401 with bad token)
//   - Response format consistency (success/error envelope)
//   - CORS preflight handling
package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/predyx/exchange/internal/admin"
	"github.com/predyx/exchange/internal/api"
	"github.com/predyx/exchange/internal/config"
	"github.com/predyx/exchange/internal/domain"
	"github.com/predyx/exchange/internal/service"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

func testCfg() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Env:  "development",
			Port: "8800",
		},
		JWT: config.JWTConfig{
			Secret: "test-secret-abcdefghijklmnopqrstuv",
			TTL:    time.Hour,
		},
	}
}

// buildTestRouter creates a Gin engine with a real AuthService (no DB needed
// for token issue/parse) and nil for everything that requires a DB.
func buildTestRouter(t *testing.T) (http.Handler, *service.AuthService) {
	t.Helper()
	cfg := testCfg()
	authSvc := service.NewAuthService(nil, nil, nil, cfg)

	r := api.SetupRouter(api.RouterDeps{
		AuthSvc:    authSvc,
		EventSvc:   nil,
		QuoteSvc:   nil,
		WagerSvc:   nil,
		WalletRepo: nil,
		Hub:        nil,
		Cfg:        cfg,
	})
	admin.Mount(r, admin.AdminDeps{
		AuthSvc:       authSvc,
		EventSvc:      nil,
		ResolutionSvc: nil,
		Cfg:           cfg,
	})
	return r, authSvc
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("response is not valid JSON: %v — body: %s", err, rr.Body.String())
	}
	return m
}

// ── /health ───────────────────────────────────────────────────────────────────

func TestHealthEndpoint(t *testing.T) {
	h, _ := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rr.Code)
	}
}

// ── Quotes — validation layer ─────────────────────────────────────────────────

func TestQuote_MissingFields(t *testing.T) {
	h, _ := buildTestRouter(t)
	rr := do(t, h, http.MethodPost, "/quotes", `{}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("POST /quotes empty body = %d, want 400", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["success"] != false {
		t.Errorf("response.success should be false on error, got %v", body["success"])
	}
	if body["code"] == nil {
		t.Errorf("error envelope missing 'code', got: %v", body)
	}
}

func TestQuote_NoToken_IsNot401(t *testing.T) {
	h, _ := buildTestRouter(t)
	// Malformed body so the handler rejects before touching the nil service.
	rr := do(t, h, http.MethodPost, "/quotes", `{}`, nil)
	if rr.Code == http.StatusUnauthorized {
		t.Error("POST /quotes should not require a token")
	}
}

// ── JWT auth middleware (no token → 401) ──────────────────────────────────────

func TestPlaceWager_NoToken_Returns401(t *testing.T) {
	h, _ := buildTestRouter(t)
	payload := `{"event_id":"11111111-1111-1111-1111-111111111111","event_outcome_id":"22222222-2222-2222-2222-222222222222","pledge":"100","leverage":"1"}`
	rr := do(t, h, http.MethodPost, "/wagers", payload, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("POST /wagers without token = %d, want 401", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["error"] != "Unauthorized" {
		t.Errorf("401 body.error = %v, want Unauthorized", body["error"])
	}
}

func TestEventPositions_NoToken_Returns401(t *testing.T) {
	h, _ := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/wagers/events/EVT-000001", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("GET /wagers/events/:ref without token = %d, want 401", rr.Code)
	}
}

func TestDashboard_NoToken_Returns401(t *testing.T) {
	h, _ := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/dashboard/wager-position-events?status=active", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("GET /dashboard/wager-position-events without token = %d, want 401", rr.Code)
	}
}

func TestWallets_NoToken_Returns401(t *testing.T) {
	h, _ := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/wallets", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("GET /wallets without token = %d, want 401", rr.Code)
	}
}

// ── JWT auth middleware (invalid token → 401) ─────────────────────────────────

func TestWallets_InvalidToken_Returns401(t *testing.T) {
	h, _ := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/wallets", "", map[string]string{
		"Authorization": "Bearer not.a.valid.jwt",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("GET /wallets with bad JWT = %d, want 401", rr.Code)
	}
}

func TestPlaceWager_InvalidToken_Returns401(t *testing.T) {
	h, _ := buildTestRouter(t)
	payload := `{"event_id":"11111111-1111-1111-1111-111111111111","event_outcome_id":"22222222-2222-2222-2222-222222222222","pledge":"100","leverage":"1"}`
	// Well-formed JWT shape but wrong signature → ParseToken rejects it
	fakeJWT := "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9" +
		".eyJzdWIiOiIxMjM0NTY3ODkwIiwicm9sZSI6InVzZXIifQ" +
		".BADSIG"
	rr := do(t, h, http.MethodPost, "/wagers", payload, map[string]string{
		"Authorization": "Bearer " + fakeJWT,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("POST /wagers with invalid JWT = %d, want 401", rr.Code)
	}
}

// ── Admin routes — role gate ──────────────────────────────────────────────────

func TestAdmin_NoToken_Returns401(t *testing.T) {
	h, _ := buildTestRouter(t)
	rr := do(t, h, http.MethodPost, "/admin/events", `{}`, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("POST /admin/events without token = %d, want 401", rr.Code)
	}
}

func TestAdmin_UserToken_Returns403(t *testing.T) {
	h, authSvc := buildTestRouter(t)
	token, err := authSvc.IssueToken(uuid.New(), domain.RoleUser)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	rr := do(t, h, http.MethodPost, "/admin/events", `{}`, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if rr.Code != http.StatusForbidden {
		t.Errorf("POST /admin/events with user token = %d, want 403", rr.Code)
	}
}

func TestAdmin_AdminToken_PassesGate(t *testing.T) {
	h, authSvc := buildTestRouter(t)
	token, err := authSvc.IssueToken(uuid.New(), domain.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	// Empty body fails binding → 400, which proves the auth gate let us in.
	rr := do(t, h, http.MethodPost, "/admin/events", `{}`, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if rr.Code == http.StatusUnauthorized || rr.Code == http.StatusForbidden {
		t.Errorf("POST /admin/events with admin token = %d, want past the gate", rr.Code)
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("POST /admin/events empty body = %d, want 400", rr.Code)
	}
}

func TestAdminResolve_MissingEndsAt_Returns400(t *testing.T) {
	h, authSvc := buildTestRouter(t)
	token, err := authSvc.IssueToken(uuid.New(), domain.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	// ends_at is required on resolve; binding rejects before the service runs.
	body := `{"event_outcome_id":"` + uuid.NewString() + `"}`
	rr := do(t, h, http.MethodPost, "/admin/events/BTC100K/resolve", body, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("resolve without ends_at = %d, want 400", rr.Code)
	}
}

// ── Error envelope format ─────────────────────────────────────────────────────

func TestErrorEnvelope_HasRequiredFields(t *testing.T) {
	h, _ := buildTestRouter(t)
	rr := do(t, h, http.MethodPost, "/quotes", `{}`, nil)
	body := decodeBody(t, rr)

	for _, field := range []string{"success", "error", "code"} {
		if _, ok := body[field]; !ok {
			t.Errorf("error envelope missing field %q, got: %v", field, body)
		}
	}
	if body["success"] != false {
		t.Errorf("error envelope.success = %v, want false", body["success"])
	}
}

// ── CORS headers ──────────────────────────────────────────────────────────────

func TestCORSOptionsRequest(t *testing.T) {
	h, _ := buildTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/quotes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	// OPTIONS should return 204 (no content) in dev mode
	if rr.Code != http.StatusNoContent && rr.Code != http.StatusOK {
		t.Errorf("OPTIONS /quotes = %d, want 204 or 200", rr.Code)
	}
	allow := rr.Header().Get("Access-Control-Allow-Methods")
	if !strings.Contains(allow, "POST") {
		t.Errorf("Access-Control-Allow-Methods missing POST, got %q", allow)
	}
}

func TestCORSAllowOrigin_Dev(t *testing.T) {
	h, _ := buildTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	// In dev mode, CORS origin should be wildcard
	origin := rr.Header().Get("Access-Control-Allow-Origin")
	if origin != "*" {
		t.Errorf("Dev CORS origin = %q, want *", origin)
	}
}
