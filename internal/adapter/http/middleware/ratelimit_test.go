package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterThrottlesPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.Wrap(next)

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}

	// A different client keeps its own budget.
	req3 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req3.RemoteAddr = "5.6.7.8:1234"
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, req3)
	if rec3.Code != http.StatusOK {
		t.Fatalf("expected other client to succeed, got %d", rec3.Code)
	}
}

func TestRateLimiterCleanupDropsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	rl.limiterFor("1.2.3.4:1234")
	rl.limiterFor("5.6.7.8:1234")

	time.Sleep(time.Millisecond)
	rl.Cleanup(0)

	rl.mu.Lock()
	remaining := len(rl.visitors)
	rl.mu.Unlock()

	if remaining != 0 {
		t.Fatalf("expected idle visitors to be dropped, got %d", remaining)
	}
}

func TestRateLimiterCleanupKeepsActiveVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	rl.limiterFor("1.2.3.4:1234")

	rl.Cleanup(time.Hour)

	rl.mu.Lock()
	remaining := len(rl.visitors)
	rl.mu.Unlock()

	if remaining != 1 {
		t.Fatalf("expected active visitor to be kept, got %d", remaining)
	}
}
