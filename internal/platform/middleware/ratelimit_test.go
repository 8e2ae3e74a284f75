package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newLimitedHandler(cfg RateLimitConfig) echo.HandlerFunc {
	return RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	e := echo.New()
	handler := newLimitedHandler(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/chat", nil), rec)

		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	e := echo.New()
	handler := newLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	for i := 0; i < 2; i++ {
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/chat", nil), httptest.NewRecorder())
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/chat", nil), rec)
	err := handler(c)
	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}

	retry, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if convErr != nil || retry < 1 {
		t.Errorf("expected Retry-After >= 1, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_PerSessionIsolation(t *testing.T) {
	e := echo.New()
	handler := newLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	send := func(patient string) error {
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/chat", nil), httptest.NewRecorder())
		c.Set("session_patient_id", patient)
		return handler(c)
	}

	if err := send("P001"); err != nil {
		t.Fatalf("P001 first request: %v", err)
	}
	if err := send("P001"); err == nil {
		t.Fatal("P001 second request: expected rate limit error")
	}
	if err := send("P002"); err != nil {
		t.Fatalf("P002 first request: expected separate limiter, got %v", err)
	}
}

func TestRateLimit_ZeroRateDisables(t *testing.T) {
	e := echo.New()
	handler := newLimitedHandler(RateLimitConfig{})
	for i := 0; i < 50; i++ {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no limiting, got %v", i+1, err)
		}
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 5 || cfg.BurstSize != 20 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLimiterStore_ReusesAndEvicts(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	store.now = func() time.Time { return now }

	a := store.get("a")
	if store.get("a") != a {
		t.Error("expected same limiter for same key")
	}
	if store.get("b") == a {
		t.Error("expected different limiter for different key")
	}

	now = now.Add(2 * time.Minute)
	store.get("c")
	if store.size() != 1 {
		t.Errorf("expected idle limiters to be swept, have %d", store.size())
	}
}
