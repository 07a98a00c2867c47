package http

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clarify/internal/core"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"valid", `{"amount":"12.30"}`, nil},
		{"bare number", `{"amount":12.3}`, nil},
		{"unknown field", `{"amount":"1","extra":true}`, errBadRequest},
		{"trailing data", `{"amount":"1"}{}`, errBadRequest},
		{"not json", `amount=1`, errBadRequest},
		{"bad amount", `{"amount":"abc"}`, core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst amountRequest
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			err := decodeJSON(httptest.NewRecorder(), r, &dst)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if dst.Amount.String() != "12.30" {
					t.Fatalf("unexpected amount %s", dst.Amount)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseMonthParam(t *testing.T) {
	now := time.Date(2024, 7, 3, 10, 0, 0, 0, time.UTC)

	m, err := ParseMonthParam(httptest.NewRequest("GET", "/", nil), now)
	if err != nil || m.String() != "2024-07" {
		t.Fatalf("default month = %v, %v", m, err)
	}
	m, err = ParseMonthParam(httptest.NewRequest("GET", "/?month=2023-12", nil), now)
	if err != nil || m.String() != "2023-12" {
		t.Fatalf("explicit month = %v, %v", m, err)
	}
	if _, err := ParseMonthParam(httptest.NewRequest("GET", "/?month=2023-13", nil), now); err == nil {
		t.Fatal("expected error for invalid month")
	}
}

func TestParseLimitParam(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 100, false},
		{"?limit=5", 5, false},
		{"?limit=9999", 500, false},
		{"?limit=0", 0, true},
		{"?limit=ten", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLimitParam(httptest.NewRequest("GET", "/"+tt.query, nil), 100, 500)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("%q: got %d, %v", tt.query, got, err)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Rent\x00\x07 June\t "); got != "Rent June" {
		t.Fatalf("unexpected %q", got)
	}
}
