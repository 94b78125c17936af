package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(rps, burst int) (*Limiter, *time.Time) {
	rl := NewLimiter(Config{RequestsPerSecond: rps, Burst: burst, CleanupInterval: time.Hour})
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func TestLimiter_Allow(t *testing.T) {
	rl, _ := newTestLimiter(10, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be within burst", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("request beyond burst should be rejected")
	}

	// A different client has its own bucket
	if !rl.Allow("5.6.7.8") {
		t.Error("second client should not share the first client's bucket")
	}
}

func TestLimiter_Refill(t *testing.T) {
	rl, clock := newTestLimiter(10, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		rl.Allow("1.2.3.4")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("bucket should be empty")
	}

	// 100ms at 10 rps refills one token
	*clock = clock.Add(100 * time.Millisecond)
	if !rl.Allow("1.2.3.4") {
		t.Error("one token should have been refilled")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("only one token should have been refilled")
	}

	// Long idle refills to burst, not beyond
	*clock = clock.Add(time.Hour)
	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed after refill to burst", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("refill must cap at burst")
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	rl, clock := newTestLimiter(10, 3)
	defer rl.Stop()

	rl.Allow("1.2.3.4")
	rl.Allow("5.6.7.8")
	if got := rl.ActiveClients(); got != 2 {
		t.Fatalf("ActiveClients() = %d, want 2", got)
	}

	*clock = clock.Add(11 * time.Minute)
	rl.cleanupStaleEntries()
	if got := rl.ActiveClients(); got != 0 {
		t.Errorf("ActiveClients() after cleanup = %d, want 0", got)
	}
}

func TestLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(10, 1)
	defer rl.Stop()

	handler := rl.Middleware(func(r *http.Request) string { return "1.2.3.4" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response should carry a Retry-After header")
	}

	metrics := rl.GetMetrics()
	if metrics.LimitedHits != 1 {
		t.Errorf("LimitedHits = %d, want 1", metrics.LimitedHits)
	}
}
