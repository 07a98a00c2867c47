package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clarify/internal/amqp"
	"clarify/internal/core"
	"clarify/internal/export"
	"clarify/internal/log"
	"clarify/internal/metrics"
	"clarify/internal/storage"
)

// ExportWorker copies awarded badges from SQLite to the export sink. Badge
// events drive it; ExportPending sweeps whatever the events missed.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	writer    export.BadgeWriter
	batchSize int
	metrics   *metrics.Metrics
	logger    *log.Logger
	now       func() time.Time
}

func NewExportWorker(storage *storage.SQLiteRepository, writer export.BadgeWriter, batchSize int, m *metrics.Metrics, logger *log.Logger) *ExportWorker {
	if batchSize < 1 {
		batchSize = 50
	}
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &ExportWorker{
		storage:   storage,
		writer:    writer,
		batchSize: batchSize,
		metrics:   m,
		logger:    logger.WithComponent(log.ComponentExport),
		now:       time.Now,
	}
}

// HandleBadgeMessage exports the badge named by a badge-awarded event.
// Already exported badges are acknowledged without writing a second row.
func (w *ExportWorker) HandleBadgeMessage(ctx context.Context, msg *amqp.BadgeAwardedMessage) error {
	w.logger.InfoContext(ctx, "Processing badge awarded message",
		log.FieldBadgeID, msg.BadgeID,
		log.FieldGroupID, msg.GroupID,
		log.FieldTier, msg.Tier,
		"source", msg.Source)

	exported, err := w.storage.IsBadgeExported(ctx, msg.BadgeID)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "Badge from message not found, dropping", log.FieldBadgeID, msg.BadgeID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("check export state: %w", err)
	}
	if exported {
		w.logger.DebugContext(ctx, "Badge already exported", log.FieldBadgeID, msg.BadgeID)
		return nil
	}

	return w.exportBadge(ctx, msg.Badge())
}

// ExportPending exports up to one batch of badges never marked exported and
// returns how many were written.
func (w *ExportWorker) ExportPending(ctx context.Context) (int, error) {
	return w.exportPending(ctx, w.batchSize)
}

// StartupExportCheck runs a larger sweep to recover from worker downtime.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	n, err := w.exportPending(ctx, w.batchSize*5)
	if err != nil {
		return err
	}
	if n == 0 {
		w.logger.InfoContext(ctx, "No pending badges found on startup")
	}
	return nil
}

func (w *ExportWorker) exportPending(ctx context.Context, limit int) (int, error) {
	pending, err := w.storage.ListUnexportedBadges(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending badges: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending badges", "count", len(pending))

	exported, failed := 0, 0
	for _, b := range pending {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		if err := w.exportBadge(ctx, b); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export badge", log.FieldBadgeID, b.ID, log.FieldError, err)
			failed++
			continue
		}
		exported++
	}

	w.logger.InfoContext(ctx, "Pending badge export completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)
	return exported, nil
}

func (w *ExportWorker) exportBadge(ctx context.Context, b core.Badge) error {
	ref, err := w.writer.AppendBadge(ctx, b)
	w.metrics.BadgeExported(err)
	if err != nil {
		return fmt.Errorf("append badge: %w", err)
	}

	// The row is written; a failed mark only means a duplicate row on the next sweep.
	if err := w.storage.MarkBadgeExported(ctx, b.ID, w.now().UTC()); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark badge exported", log.FieldBadgeID, b.ID, log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Badge exported",
		log.FieldBadgeID, b.ID,
		log.FieldGroupID, b.GroupID,
		log.FieldExportRef, ref)
	return nil
}
