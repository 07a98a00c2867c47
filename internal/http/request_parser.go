// Package http provides the JSON API server and its handlers.
//
// This file implements helpers for decoding request bodies and query
// parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clarify/internal/core"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("invalid request body")

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrInvalidDate) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errBadRequest)
	}
	return nil
}

// writeDecodeError renders a decodeJSON failure as 400.
func writeDecodeError(w http.ResponseWriter, err error) {
	BadRequestError(err.Error()).Write(w)
}

// ParseMonthParam reads ?month=YYYY-MM, defaulting to the month containing now.
func ParseMonthParam(r *http.Request, now time.Time) (core.Month, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.MonthOf(now), nil
	}
	return core.ParseMonth(v)
}

// ParseLimitParam reads ?limit=N, returning def when absent and capping at max.
func ParseLimitParam(r *http.Request, def, max int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit %q", v)
	}
	if n > max {
		n = max
	}
	return n, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
