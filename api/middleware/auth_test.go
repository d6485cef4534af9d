package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/aminufarouk/kiosa-backend/pkg/auth"
	"github.com/aminufarouk/kiosa-backend/pkg/config"
	"github.com/aminufarouk/kiosa-backend/pkg/enums"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
	"github.com/aminufarouk/kiosa-backend/pkg/types"
)

var authTestJWT = config.JWTConfig{
	Secret:            "middleware-test-secret",
	Issuer:            "kiosa-test",
	ExpirationMinutes: 30,
}

type fakeSessionChecker struct {
	activeJTI string
	err       error
}

func (f *fakeSessionChecker) IsActive(ctx context.Context, staffID, jti string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return jti == f.activeJTI, nil
}

func middlewareTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "middleware-test", Level: logger.ParseLevel("error")})
}

func mintTestToken(t *testing.T, staffID uuid.UUID, role enums.StaffRole, jti string) string {
	t.Helper()
	token, err := pkgauth.MintStaffToken(authTestJWT, time.Now(), pkgauth.StaffTokenPayload{
		StaffID: staffID,
		Email:   "ops@kiosa.ng",
		Role:    role,
		JTI:     jti,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func decodeErrorCode(t *testing.T, body []byte) string {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Code
}

func staffEchoHandler(captured *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = StaffIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestStaffAuthAcceptsActiveSession(t *testing.T) {
	staffID := uuid.New()
	jti := uuid.NewString()
	sessions := &fakeSessionChecker{activeJTI: jti}

	var seenStaffID string
	handler := StaffAuth(authTestJWT, sessions, middlewareTestLogger())(staffEchoHandler(&seenStaffID))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, staffID, enums.StaffRoleSupport, jti))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}
	if seenStaffID != staffID.String() {
		t.Fatalf("staff id in context = %q, want %q", seenStaffID, staffID)
	}
}

func TestStaffAuthRejectsMissingToken(t *testing.T) {
	var seenStaffID string
	handler := StaffAuth(authTestJWT, &fakeSessionChecker{}, middlewareTestLogger())(staffEchoHandler(&seenStaffID))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
	if code := decodeErrorCode(t, resp.Body.Bytes()); code != "UNAUTHORIZED" {
		t.Fatalf("error code = %q", code)
	}
}

func TestStaffAuthRejectsGarbageToken(t *testing.T) {
	var seenStaffID string
	handler := StaffAuth(authTestJWT, &fakeSessionChecker{}, middlewareTestLogger())(staffEchoHandler(&seenStaffID))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestStaffAuthRejectsDisplacedSession(t *testing.T) {
	// The register holds a newer jti: the older token must stop working.
	staffID := uuid.New()
	sessions := &fakeSessionChecker{activeJTI: uuid.NewString()}

	var seenStaffID string
	handler := StaffAuth(authTestJWT, sessions, middlewareTestLogger())(staffEchoHandler(&seenStaffID))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, staffID, enums.StaffRoleSupport, uuid.NewString()))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
	if seenStaffID != "" {
		t.Fatal("displaced session must not reach the handler")
	}
}

func TestStaffAuthSessionStoreFailure(t *testing.T) {
	staffID := uuid.New()
	sessions := &fakeSessionChecker{err: errors.New("redis down")}

	var seenStaffID string
	handler := StaffAuth(authTestJWT, sessions, middlewareTestLogger())(staffEchoHandler(&seenStaffID))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, staffID, enums.StaffRoleSupport, uuid.NewString()))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.Code)
	}
}

func TestRequireRoleBlocksOtherRoles(t *testing.T) {
	handler := RequireRole(string(enums.StaffRoleAdmin), middlewareTestLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/staff", nil)
	req = req.WithContext(WithStaff(req.Context(), uuid.NewString(), string(enums.StaffRoleSupport), "ops@kiosa.ng"))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/staff", nil)
	req = req.WithContext(WithStaff(req.Context(), uuid.NewString(), string(enums.StaffRoleAdmin), "admin@kiosa.ng"))
	resp = httptest.NewRecorder()

	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 for admin", resp.Code)
	}
}
