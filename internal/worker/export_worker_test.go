package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"clarify/internal/amqp"
	"clarify/internal/core"
	"clarify/internal/export/memory"
	"clarify/internal/storage"
)

type failingWriter struct{}

func (failingWriter) AppendBadge(context.Context, core.Badge) (string, error) {
	return "", errors.New("sheets unavailable")
}

func setup(t *testing.T) (*storage.SQLiteRepository, core.Group) {
	t.Helper()
	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "clarify.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	g, err := store.CreateGroup(context.Background(), core.Group{Name: "Home"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return store, g
}

func insertBadge(t *testing.T, store *storage.SQLiteRepository, groupID string, tier core.BadgeTier, at time.Time) core.Badge {
	t.Helper()
	b, err := store.InsertBadge(context.Background(), core.Badge{GroupID: groupID, Tier: tier, Description: "test", IssuedAt: at})
	if err != nil {
		t.Fatalf("insert badge: %v", err)
	}
	return b
}

func TestHandleBadgeMessageExportsOnce(t *testing.T) {
	store, g := setup(t)
	sink := memory.New()
	w := NewExportWorker(store, sink, 10, nil, nil)
	ctx := context.Background()

	b := insertBadge(t, store, g.ID, core.Bronze, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	msg := amqp.NewBadgeAwardedMessage(b, amqp.SourceMonthly)

	for i := 0; i < 2; i++ {
		if err := w.HandleBadgeMessage(ctx, msg); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}
	if rows := sink.Rows(); len(rows) != 1 || rows[0][1] != b.ID {
		t.Fatalf("expected a single exported row, got %v", rows)
	}
	if exported, _ := store.IsBadgeExported(ctx, b.ID); !exported {
		t.Fatal("badge should be marked exported")
	}

	unknown := amqp.NewBadgeAwardedMessage(core.Badge{ID: "missing", GroupID: g.ID, Tier: core.Gold}, amqp.SourceGoal)
	if err := w.HandleBadgeMessage(ctx, unknown); err != nil {
		t.Fatalf("unknown badge should be dropped, got %v", err)
	}
}

func TestExportPending(t *testing.T) {
	store, g := setup(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, tier := range []core.BadgeTier{core.Bronze, core.Silver, core.Gold} {
		insertBadge(t, store, g.ID, tier, base.AddDate(0, i, 0))
	}

	failing := NewExportWorker(store, failingWriter{}, 2, nil, nil)
	n, err := failing.ExportPending(ctx)
	if err != nil || n != 0 {
		t.Fatalf("failing sink: %d %v", n, err)
	}

	sink := memory.New()
	w := NewExportWorker(store, sink, 2, nil, nil)
	if n, err := w.ExportPending(ctx); err != nil || n != 2 {
		t.Fatalf("first batch: %d %v", n, err)
	}
	if err := w.StartupExportCheck(ctx); err != nil {
		t.Fatalf("startup check: %v", err)
	}
	rows := sink.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][3] != "bronze" || rows[2][3] != "gold" {
		t.Fatalf("badges should export oldest first: %v", rows)
	}
	if n, _ := w.ExportPending(ctx); n != 0 {
		t.Fatalf("nothing should remain, exported %d", n)
	}
}
