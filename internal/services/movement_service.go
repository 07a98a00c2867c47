package services

import (
	"context"
	"fmt"
	"strings"

	"clarify/internal/core"
	"clarify/internal/log"
	"clarify/internal/storage"
)

// defaultListLimit caps movement listings when the caller passes no limit.
const defaultListLimit = 500

// MovementService records earnings, expenses and investments entered by group
// members and keeps the month summary cache in step with writes.
type MovementService struct {
	store  *storage.SQLiteRepository
	ledger *LedgerAggregator
	logger *log.Logger
}

func NewMovementService(store *storage.SQLiteRepository, ledger *LedgerAggregator, logger *log.Logger) *MovementService {
	return &MovementService{
		store:  store,
		ledger: ledger,
		logger: componentLogger(logger, log.ComponentLedger),
	}
}

// Create validates and stores a movement. The responsible user must belong
// to the movement's group.
func (s *MovementService) Create(ctx context.Context, m core.Movement) (core.Movement, error) {
	m.Description = strings.TrimSpace(m.Description)
	if err := m.Validate(); err != nil {
		return core.Movement{}, err
	}
	if err := s.checkResponsible(ctx, m.GroupID, m.ResponsibleID); err != nil {
		return core.Movement{}, err
	}

	created, err := s.store.CreateMovement(ctx, m)
	if err != nil {
		return core.Movement{}, fmt.Errorf("create movement: %w", err)
	}
	s.ledger.Invalidate(created.GroupID, created.Date)

	s.logger.InfoContext(ctx, "Movement created",
		log.FieldGroupID, created.GroupID,
		log.FieldMovementType, string(created.Type),
		log.FieldAmount, created.Amount.String())
	return created, nil
}

// ListMonth returns the group's movements dated in month, newest first.
func (s *MovementService) ListMonth(ctx context.Context, groupID string, month core.Month, limit int) ([]core.Movement, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.store.ListMovements(ctx, groupID, core.MonthWindow(month), limit)
}

// Recent returns the group's latest n movements regardless of date.
func (s *MovementService) Recent(ctx context.Context, groupID string, n int) ([]core.Movement, error) {
	return s.store.ListMovements(ctx, groupID, core.Lifetime(), n)
}

// Update replaces the editable fields of a movement of groupID.
func (s *MovementService) Update(ctx context.Context, m core.Movement) (core.Movement, error) {
	m.Description = strings.TrimSpace(m.Description)
	if err := m.Validate(); err != nil {
		return core.Movement{}, err
	}
	existing, err := s.get(ctx, m.GroupID, m.ID)
	if err != nil {
		return core.Movement{}, err
	}
	if err := s.checkResponsible(ctx, m.GroupID, m.ResponsibleID); err != nil {
		return core.Movement{}, err
	}
	if err := s.store.UpdateMovement(ctx, m); err != nil {
		return core.Movement{}, err
	}

	s.ledger.Invalidate(m.GroupID, existing.Date)
	s.ledger.Invalidate(m.GroupID, m.Date)
	m.CreatedAt = existing.CreatedAt
	return m, nil
}

func (s *MovementService) Delete(ctx context.Context, groupID, id string) error {
	existing, err := s.get(ctx, groupID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteMovement(ctx, id); err != nil {
		return err
	}
	s.ledger.Invalidate(groupID, existing.Date)
	return nil
}

func (s *MovementService) get(ctx context.Context, groupID, id string) (core.Movement, error) {
	m, err := s.store.GetMovement(ctx, id)
	if err != nil {
		return core.Movement{}, err
	}
	if m.GroupID != groupID {
		return core.Movement{}, core.ErrNotFound
	}
	return m, nil
}

func (s *MovementService) checkResponsible(ctx context.Context, groupID, userID string) error {
	ok, err := s.store.IsMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return core.ErrNotMember
	}
	return nil
}
