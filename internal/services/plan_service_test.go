package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"clarify/internal/core"
)

func TestGrantPremiumExtendsLiveSubscription(t *testing.T) {
	store := newTestStore(t)
	_, g := seedGroup(t, store, "a@example.com")
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	plans := NewPlanService(store, nil)
	plans.now = fixedClock(now)

	if premium, _ := plans.IsPremium(ctx, g.ID); premium {
		t.Fatal("new group should be free")
	}

	first, err := plans.GrantPremium(ctx, g.ID, 1)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !first.ExpiresAt.Equal(now.AddDate(0, 1, 0)) {
		t.Fatalf("unexpected expiry %v", first.ExpiresAt)
	}
	second, _ := plans.GrantPremium(ctx, g.ID, 2)
	if !second.ExpiresAt.Equal(now.AddDate(0, 3, 0)) {
		t.Fatalf("grant should extend from current expiry, got %v", second.ExpiresAt)
	}

	group, _ := store.GetGroup(ctx, g.ID)
	if group.Plan != core.PlanPremium {
		t.Fatalf("plan should be premium, got %s", group.Plan)
	}

	plans.now = fixedClock(now.AddDate(0, 4, 0))
	if premium, _ := plans.IsPremium(ctx, g.ID); premium {
		t.Fatal("expired subscription is not premium")
	}

	if _, err := plans.GrantPremium(ctx, "missing", 1); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := plans.GrantPremium(ctx, g.ID, 0); err == nil {
		t.Fatal("zero months must be rejected")
	}
}

func TestScheduledPaymentsRequirePremium(t *testing.T) {
	store := newTestStore(t)
	_, g := seedGroup(t, store, "a@example.com")
	ctx := context.Background()
	plans := NewPlanService(store, nil)
	payments := NewPaymentService(store, plans)

	p := core.ScheduledPayment{
		GroupID: g.ID, Description: "Rent", Amount: core.MoneyFromInt(900), DueDate: core.NewDate(2030, 1, 5),
	}
	if _, err := payments.Create(ctx, p); !errors.Is(err, core.ErrPremiumRequired) {
		t.Fatalf("expected ErrPremiumRequired, got %v", err)
	}
	if _, err := plans.GrantPremium(ctx, g.ID, 1); err != nil {
		t.Fatalf("grant: %v", err)
	}

	created, err := payments.Create(ctx, p)
	if err != nil || created.Status != core.PaymentPending {
		t.Fatalf("create: %+v %v", created, err)
	}
	paid, err := payments.MarkPaid(ctx, g.ID, created.ID)
	if err != nil || paid.Status != core.PaymentPaid {
		t.Fatalf("mark paid: %+v %v", paid, err)
	}
	if _, err := payments.MarkPaid(ctx, g.ID, created.ID); !errors.Is(err, core.ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}
	if err := payments.Delete(ctx, g.ID, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := payments.List(ctx, g.ID)
	if len(list) != 0 {
		t.Fatalf("expected no payments, got %+v", list)
	}
}
