package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMovementValidate(t *testing.T) {
	good := Movement{
		GroupID:       "g1",
		ResponsibleID: "u1",
		Type:          Expense,
		Description:   "groceries",
		Amount:        MoneyFromCents(1999),
		Date:          NewDate(2024, 6, 3),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Movement)
		want   error
	}{
		{"bad type", func(m *Movement) { m.Type = "ganho" }, ErrInvalidType},
		{"empty description", func(m *Movement) { m.Description = "  " }, ErrEmptyDescription},
		{"long description", func(m *Movement) { m.Description = strings.Repeat("a", 201) }, ErrDescriptionLength},
		{"zero amount", func(m *Movement) { m.Amount = Zero }, ErrInvalidAmount},
		{"negative amount", func(m *Movement) { m.Amount = MoneyFromCents(-1) }, ErrInvalidAmount},
		{"no date", func(m *Movement) { m.Date = Date{} }, nil},
		{"no responsible", func(m *Movement) { m.ResponsibleID = "" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := good
			tt.mutate(&m)
			err := m.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGoalDeposit(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	g := Goal{Title: "Trip", Target: MoneyFromInt(1000), Current: MoneyFromInt(900), Status: GoalActive}

	partial, completed, err := g.Deposit(MoneyFromInt(50), now)
	if err != nil || completed {
		t.Fatalf("partial deposit: completed=%v err=%v", completed, err)
	}
	if partial.Status != GoalActive || !partial.Current.Equal(MoneyFromInt(950)) {
		t.Fatalf("unexpected goal after partial deposit: %+v", partial)
	}

	done, completed, err := partial.Deposit(MoneyFromInt(100), now)
	if err != nil || !completed {
		t.Fatalf("final deposit: completed=%v err=%v", completed, err)
	}
	if done.Status != GoalCompleted || !done.CompletedAt.Equal(now) {
		t.Fatalf("goal should be completed at now: %+v", done)
	}

	if _, _, err := done.Deposit(MoneyFromInt(1), now); !errors.Is(err, ErrGoalNotActive) {
		t.Fatalf("deposit on completed goal should fail with ErrGoalNotActive, got %v", err)
	}
}

func TestGoalWithdraw(t *testing.T) {
	g := Goal{Title: "Car", Target: MoneyFromInt(5000), Current: MoneyFromInt(300), Status: GoalActive}
	if _, err := g.Withdraw(MoneyFromInt(301)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	after, err := g.Withdraw(MoneyFromInt(300))
	if err != nil {
		t.Fatal(err)
	}
	if !after.Current.IsZero() {
		t.Fatalf("expected empty goal, got %s", after.Current)
	}
	g.Status = GoalCancelled
	if _, err := g.Withdraw(MoneyFromInt(1)); !errors.Is(err, ErrGoalNotActive) {
		t.Fatalf("expected ErrGoalNotActive, got %v", err)
	}
}

func TestSubscriptionPremium(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	live := Subscription{ExpiresAt: now.AddDate(0, 0, 5)}
	expired := Subscription{ExpiresAt: now.AddDate(0, 0, -5)}
	exact := Subscription{ExpiresAt: now}

	if !live.IsPremium(now) || expired.IsPremium(now) || exact.IsPremium(now) {
		t.Fatal("premium must require expiry strictly after now")
	}

	if got := ExtendPremium(live, now, 1); !got.Equal(live.ExpiresAt.AddDate(0, 1, 0)) {
		t.Fatalf("live subscription should extend from expiry, got %v", got)
	}
	if got := ExtendPremium(expired, now, 1); !got.Equal(now.AddDate(0, 1, 0)) {
		t.Fatalf("expired subscription should extend from now, got %v", got)
	}

	jan31 := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	if got := ExtendPremium(Subscription{}, jan31, 1); !got.Equal(time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("one month from 31 January should end on 29 February, got %v", got)
	}
}
