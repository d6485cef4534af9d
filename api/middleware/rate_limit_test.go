package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeLimiterStore struct {
	counts map[string]int64
	err    error
	scopes []string
}

func newFakeLimiterStore() *fakeLimiterStore {
	return &fakeLimiterStore{counts: map[string]int64{}}
}

func (f *fakeLimiterStore) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.scopes = append(f.scopes, scope)
	f.counts[scope]++
	count := f.counts[scope]
	return count <= limit, count, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func limitedRequest(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", nil)
	req.RemoteAddr = ip + ":51234"
	return req
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	store := newFakeLimiterStore()
	policy := NewRateLimitPolicy("callback", time.Minute, 2)
	handler := RateLimit(policy, store, middlewareTestLogger())(okHandler())

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, limitedRequest("10.0.0.9"))
		if resp.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d, want 204", i+1, resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, limitedRequest("10.0.0.9"))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.Code)
	}
	if got := resp.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("Retry-After = %q, want window length in seconds", got)
	}
}

func TestRateLimitScopesPerClientIP(t *testing.T) {
	store := newFakeLimiterStore()
	policy := NewRateLimitPolicy("callback", time.Minute, 1)
	handler := RateLimit(policy, store, middlewareTestLogger())(okHandler())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, limitedRequest("10.0.0.9"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, limitedRequest("10.0.0.10"))

	if first.Code != http.StatusNoContent || second.Code != http.StatusNoContent {
		t.Fatalf("distinct IPs share a window: %d, %d", first.Code, second.Code)
	}
	if store.scopes[0] == store.scopes[1] {
		t.Fatalf("scopes must differ per IP, both %q", store.scopes[0])
	}
}

func TestRateLimitHonorsForwardedFor(t *testing.T) {
	store := newFakeLimiterStore()
	policy := NewRateLimitPolicy("callback", time.Minute, 1)
	handler := RateLimit(policy, store, middlewareTestLogger())(okHandler())

	req := limitedRequest("10.0.0.9")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.9")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if store.scopes[0] != "callback:203.0.113.7" {
		t.Fatalf("scope = %q, want first forwarded hop", store.scopes[0])
	}
}

func TestRateLimitFailsOpenOnStoreError(t *testing.T) {
	store := newFakeLimiterStore()
	store.err = errors.New("redis down")
	policy := NewRateLimitPolicy("callback", time.Minute, 1)
	handler := RateLimit(policy, store, middlewareTestLogger())(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, limitedRequest("10.0.0.9"))

	if resp.Code != http.StatusNoContent {
		t.Fatalf("limiter outage must not block traffic, status = %d", resp.Code)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := newFakeLimiterStore()
	handler := RateLimit(NewRateLimitPolicy("callback", 0, 0), store, middlewareTestLogger())(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, limitedRequest("10.0.0.9"))

	if resp.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.Code)
	}
	if len(store.scopes) != 0 {
		t.Fatal("disabled policy must not consult the store")
	}
}
