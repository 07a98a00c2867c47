package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.1.1.1") || !rl.Allow("1.1.1.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.1.1.1") {
		t.Fatal("third request in the window should be rejected")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatal("clients are limited independently")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("1.1.1.1") {
		t.Fatal("a new window should reset the count")
	}
	if rl.Rejected() != 1 {
		t.Fatalf("expected 1 rejection, got %d", rl.Rejected())
	}

	now = now.Add(11 * time.Minute)
	rl.cleanupStaleEntries()
	if rl.ActiveClients() != 0 {
		t.Fatalf("stale clients should be dropped, got %d", rl.ActiveClients())
	}
}

func TestMiddlewareOnlyLimitsMutations(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()
	rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodPost, http.StatusTooManyRequests},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodDelete, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/v1/groups/g/movements", nil))
		if rec.Code != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.method, tt.want, rec.Code)
		}
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "60" {
			t.Fatal("Retry-After header missing")
		}
	}
}
