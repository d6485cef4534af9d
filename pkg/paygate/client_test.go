package paygate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aminufarouk/kiosa-backend/pkg/config"
	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "paygate-test", Level: logger.ParseLevel("error")})
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), config.GatewayConfig{
		BaseURL:   srv.URL,
		SecretKey: "sk_test_123",
		Timeout:   2 * time.Second,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client, srv
}

func TestCheckStatusSuccess(t *testing.T) {
	var gotAuth, gotRef string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRef = r.URL.Query().Get("reference")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"reference":"KS-260829-A1B2C3","status":"success","amount":"1500.00","currency":"NGN"}}`))
	}))

	status, err := client.CheckStatus(context.Background(), "KS-260829-A1B2C3")
	if err != nil {
		t.Fatalf("CheckStatus returned error: %v", err)
	}
	if gotAuth != "Bearer sk_test_123" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotRef != "KS-260829-A1B2C3" {
		t.Fatalf("unexpected reference %q", gotRef)
	}
	if status.Status != "success" {
		t.Fatalf("unexpected status %q", status.Status)
	}
	if status.Amount.StringFixed(2) != "1500.00" {
		t.Fatalf("unexpected amount %s", status.Amount)
	}
}

func TestCheckStatusNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.CheckStatus(context.Background(), "KS-000000-MISSING")
	if err == nil {
		t.Fatal("expected error for unknown reference")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected CodeNotFound, got %v", err)
	}
}

func TestCheckStatusGatewayFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.CheckStatus(context.Background(), "KS-260829-A1B2C3")
	if err == nil {
		t.Fatal("expected error for gateway failure")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected CodeDependency, got %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GatewayConfig{SecretKey: "sk"}, testLogger()); err == nil {
		t.Fatal("expected error for missing base url")
	}
	if _, err := NewClient(context.Background(), config.GatewayConfig{BaseURL: "https://pay.example.com"}, testLogger()); err == nil {
		t.Fatal("expected error for missing secret key")
	}
	if _, err := NewClient(context.Background(), config.GatewayConfig{BaseURL: "https://pay.example.com", SecretKey: "sk"}, nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}
