// Package services holds the application operations behind the HTTP handlers
// and workers. Services own transactions; storage owns SQL.
package services

import (
	"context"
	"errors"

	"clarify/internal/log"
)

// ErrAIUnavailable is returned when no movement parser is configured.
var ErrAIUnavailable = errors.New("AI-assisted entry is not configured")

func componentLogger(l *log.Logger, component string) *log.Logger {
	if l == nil {
		l = log.FromContext(context.Background())
	}
	return l.WithComponent(component)
}
