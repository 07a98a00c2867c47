package trace

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clarify/internal/log"
	"clarify/internal/metrics"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: log.FormatJSON, Output: &buf})
	m := NewMiddleware(logger, metrics.New(), func(*http.Request) string { return "203.0.113.7" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		if log.FromContext(r.Context()).Component() != log.ComponentTrace {
			t.Error("request logger not stored in context")
		}
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/auth/register", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("unexpected request id %q", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Fatal("response header should echo the request id")
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if line[log.FieldStatusCode] != float64(http.StatusCreated) || line[log.FieldClientIP] != "203.0.113.7" {
		t.Fatalf("unexpected log line %v", line)
	}
}

func TestMiddlewareKeepsUpstreamRequestID(t *testing.T) {
	m := NewMiddleware(log.New(log.Config{Output: &bytes.Buffer{}}), nil, nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		header string
		keep   bool
	}{
		{"abc-123", true},
		{"has space", false},
		{strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/healthz", nil)
		req.Header.Set(RequestIDHeader, tt.header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get(RequestIDHeader) == tt.header; got != tt.keep {
			t.Fatalf("header %q: keep=%v, got %v", tt.header, tt.keep, got)
		}
	}
}
