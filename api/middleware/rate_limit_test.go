package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubLimiter struct {
	allowed bool
	count   int64
	err     error
	scopes  []string
}

func (s *stubLimiter) FixedWindowAllow(_ context.Context, scope string, _ int64, _ time.Duration) (bool, int64, error) {
	s.scopes = append(s.scopes, scope)
	return s.allowed, s.count, s.err
}

func testPolicy() RateLimitPolicy {
	return RateLimitPolicy{Name: "api", Limit: 10, Window: time.Minute}
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	limiter := &stubLimiter{allowed: true, count: 3}
	handler := RateLimit(testPolicy(), limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(WithUserID(req.Context(), "buyer-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(limiter.scopes) != 1 || limiter.scopes[0] != "api:buyer-1" {
		t.Fatalf("scopes = %v, want [api:buyer-1]", limiter.scopes)
	}
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	limiter := &stubLimiter{allowed: false, count: 11}
	handler := RateLimit(testPolicy(), limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(WithUserID(req.Context(), "buyer-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}

func TestRateLimitFailsOpenOnLimiterError(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}
	handler := RateLimit(testPolicy(), limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(WithUserID(req.Context(), "buyer-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	limiter := &stubLimiter{allowed: false}
	handler := RateLimit(RateLimitPolicy{Name: "api"}, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(limiter.scopes) != 0 {
		t.Fatalf("limiter consulted %d times, want 0", len(limiter.scopes))
	}
}
