package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clarify/internal/core"
	"clarify/internal/log"
	"clarify/internal/storage"
)

const subscriptionActive = "active"

// PlanService answers premium questions and grants premium time.
type PlanService struct {
	store  *storage.SQLiteRepository
	logger *log.Logger
	now    func() time.Time
}

func NewPlanService(store *storage.SQLiteRepository, logger *log.Logger) *PlanService {
	return &PlanService{
		store:  store,
		logger: componentLogger(logger, log.ComponentApp),
		now:    time.Now,
	}
}

// IsPremium reports whether the group has a subscription running now. A group
// that never subscribed is free.
func (s *PlanService) IsPremium(ctx context.Context, groupID string) (bool, error) {
	sub, err := s.store.GetSubscription(ctx, groupID)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load subscription: %w", err)
	}
	return sub.IsPremium(s.now()), nil
}

// RequirePremium returns core.ErrPremiumRequired for free groups.
func (s *PlanService) RequirePremium(ctx context.Context, groupID string) error {
	premium, err := s.IsPremium(ctx, groupID)
	if err != nil {
		return err
	}
	if !premium {
		return core.ErrPremiumRequired
	}
	return nil
}

// GrantPremium adds months of premium to a group, extending a live
// subscription from its expiry.
func (s *PlanService) GrantPremium(ctx context.Context, groupID string, months int) (core.Subscription, error) {
	if months < 1 {
		return core.Subscription{}, fmt.Errorf("%w: months must be positive", core.ErrInvalidAmount)
	}
	now := s.now().UTC()
	var out core.Subscription

	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetGroup(ctx, groupID); err != nil {
			return err
		}
		current, err := q.GetSubscription(ctx, groupID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("load subscription: %w", err)
		}
		out = core.Subscription{
			GroupID:   groupID,
			Status:    subscriptionActive,
			ExpiresAt: core.ExtendPremium(current, now, months),
		}
		if err := q.UpsertSubscription(ctx, out); err != nil {
			return err
		}
		return q.SetGroupPlan(ctx, groupID, core.PlanPremium)
	})
	if err != nil {
		return core.Subscription{}, err
	}

	s.logger.InfoContext(ctx, "Premium granted",
		log.FieldGroupID, groupID,
		"months", months,
		"expires_at", out.ExpiresAt.Format(time.RFC3339))
	return out, nil
}
