package leavehandler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/leave"
	"hrms/internal/transport/http/middleware"
)

const testSecret = "handler-test-secret"

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	r.Use(middleware.Auth(testSecret))
	// Validation and authorization both run before the service is touched,
	// so a nil service is fine for these cases.
	h := NewHandler(&leave.Service{}, nil, nil)
	h.RegisterRoutes(r)
	return r
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := auth.GenerateToken(testSecret, auth.Claims{UserID: "user-1", Role: role, SessionID: "sess-1"}, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return tok
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	router := newTestRouter(t)

	body := `{"type":"SABBATICAL","startDate":"2026-03-10","endDate":"2026-03-02"}`
	req := httptest.NewRequest(http.MethodPost, "/leave/requests", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token(t, auth.RoleEmployee))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []struct {
					Field string `json:"field"`
				} `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Code != "validation_error" {
		t.Fatalf("error code = %q, want validation_error", resp.Error.Code)
	}
	fields := make(map[string]bool)
	for _, issue := range resp.Error.Details.Fields {
		fields[issue.Field] = true
	}
	if !fields["type"] {
		t.Error("expected an issue for field type")
	}
	if !fields["startDate"] && !fields["endDate"] {
		t.Error("expected an issue for the inverted date range")
	}
}

func TestRoutesRequireAuthentication(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/leave/requests", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestApproveRequiresHRRole(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/leave/requests/abc/approve", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, auth.RoleEmployee))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestAdjustRequiresHRRole(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/leave/balances/emp-1/adjust", strings.NewReader(`{"casualDelta":2}`))
	req.Header.Set("Authorization", "Bearer "+token(t, auth.RoleEmployee))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
