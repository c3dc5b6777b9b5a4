package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
)

func newLimitedHandler(cfg RateLimitConfig) (echo.HandlerFunc, *echo.Echo) {
	e := echo.New()
	handler := RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return handler, e
}

func doRequest(e *echo.Echo, handler echo.HandlerFunc, userID string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
	}
	return rec, handler(c)
}

func TestRateLimit_WithinBurst(t *testing.T) {
	handler, e := newLimitedHandler(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	for i := 0; i < 5; i++ {
		rec, err := doRequest(e, handler, "")
		if err != nil {
			t.Fatalf("request %d: unexpected error: %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_RejectsBeyondBurst(t *testing.T) {
	handler, e := newLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	for i := 0; i < 2; i++ {
		if _, err := doRequest(e, handler, ""); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i+1, err)
		}
	}

	_, err := doRequest(e, handler, "")
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
}

func TestRateLimit_RetryAfterHeader(t *testing.T) {
	handler, e := newLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	if _, err := doRequest(e, handler, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := doRequest(e, handler, "")
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	retryAfter, parseErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if parseErr != nil {
		t.Fatalf("Retry-After is not an integer: %q", rec.Header().Get("Retry-After"))
	}
	if retryAfter < 1 {
		t.Errorf("expected Retry-After >= 1, got %d", retryAfter)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", got)
	}
}

func TestRateLimit_PerUserIsolation(t *testing.T) {
	handler, e := newLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	if _, err := doRequest(e, handler, "user-a"); err != nil {
		t.Fatalf("user-a first request: unexpected error: %v", err)
	}
	if _, err := doRequest(e, handler, "user-a"); err == nil {
		t.Fatal("user-a second request: expected rate limit error")
	}
	// A different user from the same IP gets a separate bucket.
	if _, err := doRequest(e, handler, "user-b"); err != nil {
		t.Fatalf("user-b first request: unexpected error: %v", err)
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 100 {
		t.Errorf("expected RequestsPerSecond 100, got %f", cfg.RequestsPerSecond)
	}
	if cfg.BurstSize != 200 {
		t.Errorf("expected BurstSize 200, got %d", cfg.BurstSize)
	}
}

func TestLimiter_TakeWithZeroRate(t *testing.T) {
	lim := newLimiter(RateLimitConfig{RequestsPerSecond: 0, BurstSize: 1})

	if ok, _ := lim.take("k"); !ok {
		t.Fatal("expected the burst token to be granted")
	}
	ok, wait := lim.take("k")
	if ok {
		t.Fatal("expected an empty bucket with zero refill rate to reject")
	}
	if wait != 1 {
		t.Errorf("expected wait of 1s for zero rate, got %d", wait)
	}
}

func TestLimiter_IndependentKeys(t *testing.T) {
	lim := newLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	if ok, _ := lim.take("key1"); !ok {
		t.Fatal("key1 first take should succeed")
	}
	if ok, _ := lim.take("key1"); ok {
		t.Fatal("key1 second take should be rejected")
	}
	if ok, _ := lim.take("key2"); !ok {
		t.Error("key2 should have its own full bucket")
	}
}
