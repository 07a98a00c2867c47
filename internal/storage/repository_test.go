package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"clarify/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "clarify.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedGroup(t *testing.T, repo *SQLiteRepository) (core.User, core.Group) {
	t.Helper()
	ctx := context.Background()
	u, err := repo.CreateUser(ctx, core.User{Name: "Ana", Email: "Ana@Example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	g, err := repo.CreateGroup(ctx, core.Group{Name: "Home"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := repo.AddMember(ctx, g.ID, u.ID, core.RoleOwner); err != nil {
		t.Fatalf("add member: %v", err)
	}
	return u, g
}

func TestUsersAndMembership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u, g := seedGroup(t, repo)

	got, err := repo.GetUserByEmail(ctx, " ana@example.COM ")
	if err != nil || got.ID != u.ID {
		t.Fatalf("lookup by email: %+v, %v", got, err)
	}
	if _, err := repo.CreateUser(ctx, core.User{Name: "Dup", Email: "ana@example.com", PasswordHash: "y"}); !errors.Is(err, core.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := repo.GetUser(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ok, err := repo.IsMember(ctx, g.ID, u.ID)
	if err != nil || !ok {
		t.Fatalf("expected membership, got %v %v", ok, err)
	}
	members, err := repo.ListMembers(ctx, g.ID)
	if err != nil || len(members) != 1 || members[0].Role != core.RoleOwner {
		t.Fatalf("unexpected members %+v, %v", members, err)
	}
}

func TestSumMovementsWindows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u, g := seedGroup(t, repo)

	add := func(typ core.MovementType, cents int64, d core.Date) {
		t.Helper()
		_, err := repo.CreateMovement(ctx, core.Movement{
			GroupID: g.ID, ResponsibleID: u.ID, Type: typ, Description: "m",
			Amount: core.MoneyFromCents(cents), Date: d,
		})
		if err != nil {
			t.Fatalf("create movement: %v", err)
		}
	}
	add(core.Earning, 500000, core.NewDate(2024, 5, 31))
	add(core.Earning, 300000, core.NewDate(2024, 6, 1))
	add(core.Earning, 10, core.NewDate(2024, 6, 30))
	add(core.Expense, 1999, core.NewDate(2024, 7, 1))

	tests := []struct {
		name string
		typ  core.MovementType
		w    core.Window
		want string
	}{
		{"lifetime earnings", core.Earning, core.Lifetime(), "8000.10"},
		{"june earnings", core.Earning, core.MonthWindow(core.Month{Year: 2024, Month: time.June}), "3000.10"},
		{"june expenses are zero", core.Expense, core.MonthWindow(core.Month{Year: 2024, Month: time.June}), "0.00"},
		{"inclusive range", core.Earning, core.DateRange(core.NewDate(2024, 5, 31), core.NewDate(2024, 6, 1)), "8000.00"},
		{"no investments", core.Investment, core.Lifetime(), "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.SumMovements(ctx, g.ID, tt.typ, tt.w)
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}

	recent, err := repo.ListMovements(ctx, g.ID, core.Lifetime(), 2)
	if err != nil || len(recent) != 2 || recent[0].Date != core.NewDate(2024, 7, 1) {
		t.Fatalf("unexpected recent movements %+v, %v", recent, err)
	}
}

func TestGroupStateRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, g := seedGroup(t, repo)

	st, err := repo.GetGroupState(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if st.ConsecutivePositiveMonths != 0 || !st.LastEvaluatedMonth.IsZero() {
		t.Fatalf("fresh group should have empty state, got %+v", st)
	}

	st.ConsecutivePositiveMonths = 2
	st.LastEvaluatedMonth = core.Month{Year: 2024, Month: time.June}
	if err := repo.UpdateGroupState(ctx, st); err != nil {
		t.Fatal(err)
	}
	again, err := repo.GetGroupState(ctx, g.ID)
	if err != nil || again != st {
		t.Fatalf("expected %+v, got %+v (%v)", st, again, err)
	}
}

func TestInTxRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, g := seedGroup(t, repo)

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(q *Queries) error {
		if _, err := q.InsertBadge(ctx, core.Badge{GroupID: g.ID, Tier: core.Bronze, Description: "d", IssuedAt: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	badges, err := repo.ListBadges(ctx, g.ID)
	if err != nil || len(badges) != 0 {
		t.Fatalf("badge should have been rolled back, got %+v (%v)", badges, err)
	}
}

func TestBadgesIssuedAfterAndExport(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, g := seedGroup(t, repo)
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	old, err := repo.InsertBadge(ctx, core.Badge{GroupID: g.ID, Tier: core.Bronze, Description: "old", IssuedAt: now.AddDate(0, -4, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.InsertBadge(ctx, core.Badge{GroupID: g.ID, Tier: core.Silver, Description: "new", IssuedAt: now.AddDate(0, -1, 0)}); err != nil {
		t.Fatal(err)
	}

	recent, err := repo.ListBadgesIssuedAfter(ctx, g.ID, core.CooldownCutoff(now, 3))
	if err != nil || len(recent) != 1 || recent[0].Tier != core.Silver {
		t.Fatalf("unexpected recent badges %+v (%v)", recent, err)
	}

	if err := repo.MarkBadgeExported(ctx, old.ID, now); err != nil {
		t.Fatal(err)
	}
	pending, err := repo.ListUnexportedBadges(ctx, 10)
	if err != nil || len(pending) != 1 || pending[0].Description != "new" {
		t.Fatalf("unexpected pending badges %+v (%v)", pending, err)
	}
	if err := repo.MarkBadgeExported(ctx, old.ID, now); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second export mark should match nothing, got %v", err)
	}
}

func TestGoalProgressOnlyWhileActive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, g := seedGroup(t, repo)

	goal, err := repo.CreateGoal(ctx, core.Goal{GroupID: g.ID, Title: "Trip", Target: core.MoneyFromInt(100)})
	if err != nil {
		t.Fatal(err)
	}
	done, completed, err := goal.Deposit(core.MoneyFromInt(100), time.Now())
	if err != nil || !completed {
		t.Fatalf("deposit: %v %v", completed, err)
	}
	if err := repo.UpdateGoalProgress(ctx, done); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateGoalProgress(ctx, done); !errors.Is(err, core.ErrGoalNotActive) {
		t.Fatalf("completed goal must not be updated twice, got %v", err)
	}
	stored, err := repo.GetGoal(ctx, goal.ID)
	if err != nil || stored.Status != core.GoalCompleted || stored.CompletedAt.IsZero() {
		t.Fatalf("unexpected stored goal %+v (%v)", stored, err)
	}
}
