package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Strob0t/EventBoard/internal/config"
)

func newLimiter(rps float64, burst int) *RateLimiter {
	return NewRateLimiter(config.Rate{RequestsPerSecond: rps, Burst: burst})
}

func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	h := newLimiter(10, 10).Handler(okHandler)

	for i := range 10 {
		if rec := hit(h, "192.168.1.1"); rec.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	h := newLimiter(10, 5).Handler(okHandler)

	for range 5 {
		hit(h, "10.0.0.1")
	}
	rec := hit(h, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// Other clients are unaffected.
	if rec := hit(h, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("other IP got %d", rec.Code)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := newLimiter(1, 1)
	now := time.Now()
	rl.now = func() time.Time { return now }
	h := rl.Handler(okHandler)

	if rec := hit(h, "10.0.0.3"); rec.Code != http.StatusOK {
		t.Fatalf("first: %d", rec.Code)
	}
	if rec := hit(h, "10.0.0.3"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second: %d", rec.Code)
	}
	now = now.Add(time.Second)
	if rec := hit(h, "10.0.0.3"); rec.Code != http.StatusOK {
		t.Fatalf("after refill: %d", rec.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := newLimiter(10, 10)
	now := time.Now()
	rl.now = func() time.Time { return now }
	h := rl.Handler(okHandler)

	hit(h, "10.0.0.4")
	hit(h, "10.0.0.5")
	if rl.Len() != 2 {
		t.Fatalf("len = %d", rl.Len())
	}

	now = now.Add(time.Hour)
	rl.cleanup(time.Minute)
	if rl.Len() != 0 {
		t.Fatalf("len after cleanup = %d", rl.Len())
	}
}
