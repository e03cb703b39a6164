package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestAllowWindow(t *testing.T) {
	c := &clock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: 3, Now: c.now})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatalf("fourth request in the window should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatalf("other clients are limited independently")
	}

	// Rejected requests must not extend the window.
	c.advance(30 * time.Second)
	if rl.Allow("1.2.3.4") {
		t.Fatalf("still inside the window")
	}
	c.advance(30 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatalf("new window should allow again")
	}
	if rl.ActiveClients() != 2 {
		t.Fatalf("active clients = %d", rl.ActiveClients())
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	c := &clock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: 1, Now: c.now})
	defer rl.Stop()

	rl.Allow("a")
	c.advance(11 * time.Minute)
	rl.Allow("b")
	rl.cleanupStaleEntries()
	if rl.ActiveClients() != 1 {
		t.Fatalf("stale client should be removed, have %d", rl.ActiveClients())
	}
}

func TestMiddlewareSetsRetryAfter(t *testing.T) {
	c := &clock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: 1, Now: c.now})
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "client" }, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("first request status = %d", rr.Code)
	}

	c.advance(20 * time.Second)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "40" {
		t.Fatalf("Retry-After = %q, want 40", got)
	}
}
