package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"clarify/internal/core"
)

func TestPaymentsRequirePremium(t *testing.T) {
	store := newTestStore(t)
	_, g := seedGroup(t, store, "free@example.com")
	payments := NewPaymentService(store, NewPlanService(store, nil))

	_, err := payments.Create(context.Background(), core.ScheduledPayment{
		GroupID:     g.ID,
		Description: "Rent",
		Amount:      core.MoneyFromInt(900),
		DueDate:     core.NewDate(2024, 2, 1),
	})
	if !errors.Is(err, core.ErrPremiumRequired) {
		t.Fatalf("expected ErrPremiumRequired, got %v", err)
	}
	if _, err := payments.List(context.Background(), g.ID); !errors.Is(err, core.ErrPremiumRequired) {
		t.Fatalf("expected ErrPremiumRequired on list, got %v", err)
	}
}

func TestPaymentLifecycle(t *testing.T) {
	store := newTestStore(t)
	_, g := seedGroup(t, store, "premium@example.com")
	_, other := seedGroup(t, store, "other@example.com")
	ctx := context.Background()
	plans := NewPlanService(store, nil)
	if _, err := plans.GrantPremium(ctx, g.ID, 1); err != nil {
		t.Fatalf("grant: %v", err)
	}
	payments := NewPaymentService(store, plans)
	paidAt := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	payments.now = fixedClock(paidAt)

	p, err := payments.Create(ctx, core.ScheduledPayment{
		GroupID:     g.ID,
		Description: "  Rent  ",
		Amount:      core.MoneyFromInt(900),
		DueDate:     core.NewDate(2024, 2, 1),
		Status:      core.PaymentPaid,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != core.PaymentPending || p.Description != "Rent" {
		t.Fatalf("unexpected payment %+v", p)
	}

	if _, err := payments.MarkPaid(ctx, other.ID, p.ID); !errors.Is(err, core.ErrPremiumRequired) {
		t.Fatalf("free group must not reach another group's payment, got %v", err)
	}

	paid, err := payments.MarkPaid(ctx, g.ID, p.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != core.PaymentPaid || !paid.PaidAt.Equal(paidAt) {
		t.Fatalf("unexpected paid payment %+v", paid)
	}
	if _, err := payments.MarkPaid(ctx, g.ID, p.ID); !errors.Is(err, core.ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}

	if err := payments.Delete(ctx, g.ID, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, err := payments.List(ctx, g.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no payments, got %d", len(list))
	}
}

func TestPaymentFromAnotherGroupIsNotFound(t *testing.T) {
	store := newTestStore(t)
	_, a := seedGroup(t, store, "a@example.com")
	_, b := seedGroup(t, store, "b@example.com")
	ctx := context.Background()
	plans := NewPlanService(store, nil)
	for _, id := range []string{a.ID, b.ID} {
		if _, err := plans.GrantPremium(ctx, id, 1); err != nil {
			t.Fatalf("grant: %v", err)
		}
	}
	payments := NewPaymentService(store, plans)

	p, err := payments.Create(ctx, core.ScheduledPayment{
		GroupID:     a.ID,
		Description: "Internet",
		Amount:      core.MoneyFromInt(40),
		DueDate:     core.NewDate(2024, 3, 10),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := payments.Delete(ctx, b.ID, p.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
