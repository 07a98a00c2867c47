package security

import (
	"bytes"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clarify/internal/log"
)

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/me", nil))
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatal("API responses must not be cached")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("nosniff missing")
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must only be sent over TLS")
	}

	req := httptest.NewRequest("GET", "/api/v1/me", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("unexpected HSTS header %q", got)
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		userAgent  string
		suspicious bool
	}{
		{"plain api call", "GET", "/api/v1/groups/g1/dashboard", "curl/8.0", false},
		{"path traversal", "GET", "/api/v1/../../etc/passwd", "", true},
		{"dotenv probe", "GET", "/.env", "", true},
		{"sql injection in query", "GET", "/api/v1/badges?q=1%20union%20select", "", true},
		{"scanner agent", "GET", "/", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			req := httptest.NewRequest(tt.method, tt.target, nil)
			req.Header.Set("User-Agent", tt.userAgent)
			got, reason := d.DetectSuspiciousRequest(req)
			if got != tt.suspicious {
				t.Fatalf("expected %v, got %v (%s)", tt.suspicious, got, reason)
			}
		})
	}
}

func TestMiddlewareBlocksDiagnosticMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: log.FormatJSON, Output: &buf})
	d := NewDetector()
	reached := 0
	h := d.Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached++ }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("TRACE", "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/.git/config", nil))
	if reached != 1 {
		t.Fatalf("suspicious GET should still be served, reached=%d", reached)
	}

	m := d.GetMetrics()
	if m.SuspiciousRequests != 2 || m.BlockedRequests != 1 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if !strings.Contains(buf.String(), "Suspicious request") {
		t.Fatalf("expected a warning, got %q", buf.String())
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.5")
	if got := d.ExtractClientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected forwarded ip, got %s", got)
	}

	req.RemoteAddr = "198.51.100.1:1234"
	if got := d.ExtractClientIP(req); got != "198.51.100.1" {
		t.Fatalf("untrusted peer must not set client ip, got %s", got)
	}

	if err := d.AddTrustedProxy("198.51.100.0/24"); err != nil {
		t.Fatal(err)
	}
	if got := d.ExtractClientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected forwarded ip after trusting proxy, got %s", got)
	}
	if err := d.AddTrustedProxy("nonsense"); err == nil {
		t.Fatal("expected error for invalid CIDR")
	}
}
