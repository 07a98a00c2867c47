// Command clarify-worker exports awarded badges to the configured sink. It
// consumes badge events from AMQP and periodically re-exports badges that
// were never marked exported.
package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"clarify/internal/amqp"
	"clarify/internal/cli"
	"clarify/internal/config"
	"clarify/internal/export"
	gsheet "clarify/internal/export/google"
	"clarify/internal/export/memory"
	"clarify/internal/log"
	"clarify/internal/metrics"
	"clarify/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting clarify-worker")

	cfg := cli.LoadAndValidateConfig(logger, nil)
	store := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer store.Close()

	writer, err := newBadgeWriter(context.Background(), cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize export backend", err)
	}
	logger.Info("Export backend initialized", "backend", cfg.ExportBackend)

	m := metrics.New()
	exporter := worker.NewExportWorker(store, writer, cfg.ExportBatchSize, m, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Performing startup export check...")
	if err := exporter.StartupExportCheck(ctx); err != nil {
		logger.Error("Failed startup export check", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize AMQP client", err)
		}
		defer client.Close()

		g.Go(func() error {
			err := client.ConsumeBadgeAwarded(gctx, exporter.HandleBadgeMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled - relying on periodic export only")
	}

	g.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := exporter.ExportPending(gctx)
				if err != nil {
					logger.Error("Periodic export failed", log.FieldError, err)
					continue
				}
				if n > 0 {
					logger.Info("Periodic export complete", "exported", n)
				}
			}
		}
	})

	metricsSrv := &http.Server{Addr: ":" + cfg.WorkerMetricsPort, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
	g.Go(func() error {
		logger.Info("Serving worker metrics", "port", cfg.WorkerMetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
	}
	if ctx.Err() != nil {
		cli.WaitForShutdown(ctx, done)
	}
	logger.Info("Worker stopped")
}

func newBadgeWriter(ctx context.Context, cfg *config.Config) (export.BadgeWriter, error) {
	switch cfg.ExportBackend {
	case "sheets":
		return gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			Sheet:           cfg.GoogleAchievementsSheet,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
		})
	default:
		return memory.New(), nil
	}
}
