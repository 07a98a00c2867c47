package memory

import (
	"context"
	"fmt"
	"sync"

	"clarify/internal/core"
	ports "clarify/internal/export"
)

// Store keeps exported badges in process memory. It backs local development
// and tests when no spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	rows [][]string
}

var _ ports.BadgeWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendBadge stores the badge row and returns a synthetic row reference.
func (s *Store) AppendBadge(_ context.Context, b core.Badge) (string, error) {
	if err := b.Tier.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, ports.Row(b))
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of the exported rows in append order.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
