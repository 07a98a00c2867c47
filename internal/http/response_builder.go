// Package http provides the JSON API server and its handlers.
//
// This file implements a small builder for JSON responses and the single
// place where service errors become HTTP statuses.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"clarify/internal/auth"
	"clarify/internal/core"
	"clarify/internal/log"
	"clarify/internal/services"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		http.Error(w, `{"detail":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
}

// errorBody is the shape of every error response.
type errorBody struct {
	Detail string `json:"detail"`
}

// ErrorResponse creates a standard {"detail": message} error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Detail: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidType,
	core.ErrInvalidWindow,
	core.ErrInvalidDate,
	core.ErrEmptyDescription,
	core.ErrDescriptionLength,
	core.ErrEmptyTitle,
	core.ErrInsufficientFunds,
	core.ErrMissingResponsible,
	core.ErrInvalidRole,
	core.ErrInvalidPriority,
	core.ErrInvalidEmail,
	auth.ErrWeakPassword,
}

// statusFor maps service errors to a status code and client message.
// Unknown errors are reported as 500 without leaking their text.
func statusFor(err error) (int, string) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, err.Error()
		}
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, core.ErrNotMember):
		return http.StatusForbidden, "not a member of this group"
	case errors.Is(err, core.ErrPremiumRequired):
		return http.StatusForbidden, "premium required"
	case errors.Is(err, core.ErrEmailTaken),
		errors.Is(err, core.ErrGoalNotActive),
		errors.Is(err, core.ErrAlreadyPaid),
		errors.Is(err, core.ErrAlreadyResolved):
		return http.StatusConflict, err.Error()
	case errors.Is(err, core.ErrAIQuotaExceeded):
		return http.StatusTooManyRequests, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrAIUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeServiceError renders err and logs the ones that are server faults.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	ErrorResponse(status, msg).Write(w)
}
