package services

import (
	"context"
	"strings"
	"time"

	"clarify/internal/core"
	"clarify/internal/storage"
)

// PaymentService manages scheduled payments, a premium-only feature.
type PaymentService struct {
	store *storage.SQLiteRepository
	plans *PlanService
	now   func() time.Time
}

func NewPaymentService(store *storage.SQLiteRepository, plans *PlanService) *PaymentService {
	return &PaymentService{store: store, plans: plans, now: time.Now}
}

func (s *PaymentService) List(ctx context.Context, groupID string) ([]core.ScheduledPayment, error) {
	if err := s.plans.RequirePremium(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListScheduledPayments(ctx, groupID)
}

func (s *PaymentService) Create(ctx context.Context, p core.ScheduledPayment) (core.ScheduledPayment, error) {
	if err := s.plans.RequirePremium(ctx, p.GroupID); err != nil {
		return core.ScheduledPayment{}, err
	}
	p.Description = strings.TrimSpace(p.Description)
	p.Status = core.PaymentPending
	if err := p.Validate(); err != nil {
		return core.ScheduledPayment{}, err
	}
	return s.store.CreateScheduledPayment(ctx, p)
}

func (s *PaymentService) MarkPaid(ctx context.Context, groupID, id string) (core.ScheduledPayment, error) {
	if err := s.plans.RequirePremium(ctx, groupID); err != nil {
		return core.ScheduledPayment{}, err
	}
	p, err := s.get(ctx, groupID, id)
	if err != nil {
		return core.ScheduledPayment{}, err
	}
	now := s.now().UTC()
	if err := s.store.MarkScheduledPaymentPaid(ctx, id, now); err != nil {
		return core.ScheduledPayment{}, err
	}
	p.Status = core.PaymentPaid
	p.PaidAt = now
	return p, nil
}

func (s *PaymentService) Delete(ctx context.Context, groupID, id string) error {
	if err := s.plans.RequirePremium(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.get(ctx, groupID, id); err != nil {
		return err
	}
	return s.store.DeleteScheduledPayment(ctx, id)
}

func (s *PaymentService) get(ctx context.Context, groupID, id string) (core.ScheduledPayment, error) {
	p, err := s.store.GetScheduledPayment(ctx, id)
	if err != nil {
		return core.ScheduledPayment{}, err
	}
	if p.GroupID != groupID {
		return core.ScheduledPayment{}, core.ErrNotFound
	}
	return p, nil
}
