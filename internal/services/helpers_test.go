package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"clarify/internal/cache"
	"clarify/internal/core"
	"clarify/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "clarify.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedGroup(t *testing.T, store *storage.SQLiteRepository, email string) (core.User, core.Group) {
	t.Helper()
	ctx := context.Background()
	u, err := store.CreateUser(ctx, core.User{Name: "Member", Email: email, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	g, err := store.CreateGroup(ctx, core.Group{Name: "Household"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := store.AddMember(ctx, g.ID, u.ID, core.RoleOwner); err != nil {
		t.Fatalf("add member: %v", err)
	}
	return u, g
}

func addMovement(t *testing.T, store *storage.SQLiteRepository, groupID, userID string, typ core.MovementType, units int64, d core.Date) {
	t.Helper()
	_, err := store.CreateMovement(context.Background(), core.Movement{
		GroupID:       groupID,
		ResponsibleID: userID,
		Type:          typ,
		Description:   string(typ),
		Amount:        core.MoneyFromInt(units),
		Date:          d,
	})
	if err != nil {
		t.Fatalf("create movement: %v", err)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type recordingPublisher struct {
	mu      sync.Mutex
	badges  []core.Badge
	sources []string
	err     error
}

func (p *recordingPublisher) PublishBadgeAwarded(_ context.Context, b core.Badge, source string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.badges = append(p.badges, b)
	p.sources = append(p.sources, source)
	return p.err
}

func newTestLedger(store *storage.SQLiteRepository) *LedgerAggregator {
	return NewLedgerAggregator(store, cache.NewLRUCache[core.MonthSummary](16, time.Minute))
}

func newTestEvaluator(store *storage.SQLiteRepository, pub BadgePublisher, now time.Time) *AchievementEvaluator {
	e := NewAchievementEvaluator(store, pub, nil, nil, core.DefaultCooldownMonths)
	e.SetClock(fixedClock(now))
	return e
}
