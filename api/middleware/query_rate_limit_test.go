package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeLimiterStore struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiterStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[key]++
	return f.counts[key], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestQueryRateLimitAllowsUnderLimit(t *testing.T) {
	policy := NewQueryRateLimitPolicy("query", time.Minute, 2)
	store := &fakeLimiterStore{}
	handler := QueryRateLimit(policy, store, nil)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tracker/query", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.Code)
		}
	}
}

func TestQueryRateLimitBlocksOverLimit(t *testing.T) {
	policy := NewQueryRateLimitPolicy("query", time.Minute, 1)
	store := &fakeLimiterStore{}
	handler := QueryRateLimit(policy, store, nil)(okHandler())

	first := httptest.NewRequest(http.MethodPost, "/api/v1/tracker/query", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, first)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", resp.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/tracker/query", nil)
	second.RemoteAddr = "10.0.0.1:1234"
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, second)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
}

func TestQueryRateLimitSeparatesClients(t *testing.T) {
	policy := NewQueryRateLimitPolicy("query", time.Minute, 1)
	store := &fakeLimiterStore{}
	handler := QueryRateLimit(policy, store, nil)(okHandler())

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tracker/query", nil)
		req.RemoteAddr = addr
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("client %s: expected 200, got %d", addr, resp.Code)
		}
	}
}

func TestQueryRateLimitHonorsForwardedFor(t *testing.T) {
	policy := NewQueryRateLimitPolicy("query", time.Minute, 1)
	store := &fakeLimiterStore{}
	handler := QueryRateLimit(policy, store, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tracker/query", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if _, ok := store.counts["rl:ip:query:203.0.113.7"]; !ok {
		t.Fatalf("expected counter keyed by forwarded ip, got %v", store.counts)
	}
}

func TestQueryRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	policy := NewQueryRateLimitPolicy("query", 0, 0)
	store := &fakeLimiterStore{}
	handler := QueryRateLimit(policy, store, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tracker/query", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if len(store.counts) != 0 {
		t.Fatalf("expected no counters, got %v", store.counts)
	}
}
