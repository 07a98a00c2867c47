// Command achievements-worker runs the monthly badge evaluation on a ticker.
// With -once it evaluates a single month and exits; -month selects an
// explicit YYYY-MM month for backfills.
package main

import (
	"context"
	"flag"
	"time"

	"clarify/internal/cli"
	"clarify/internal/core"
	"clarify/internal/log"
	"clarify/internal/services"
)

func main() {
	once := flag.Bool("once", false, "evaluate one month and exit")
	monthFlag := flag.String("month", "", "month to evaluate (YYYY-MM); defaults to the previous month")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentAchievements)

	var month core.Month
	if *monthFlag != "" {
		m, err := core.ParseMonth(*monthFlag)
		if err != nil {
			cli.Fatal(logger, "Invalid -month flag", err)
		}
		month = m
	}

	cfg := cli.LoadAndValidateConfig(logger, nil)
	store := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer store.Close()

	amqpClient := cli.ConnectAMQP(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	evaluator := services.NewAchievementEvaluator(store, cli.Publisher(amqpClient), nil, logger, cfg.CooldownMonths)

	run := func(ctx context.Context) {
		var (
			res services.MonthlyResult
			err error
		)
		if month.IsZero() {
			res, err = evaluator.RunMonthly(ctx)
		} else {
			res, err = evaluator.EvaluateMonth(ctx, month)
		}
		if err != nil {
			logger.Error("Monthly evaluation failed", log.FieldError, err)
			return
		}
		logger.Info("Monthly evaluation finished",
			log.FieldMonth, res.Month.String(),
			"checked", res.Checked,
			"awarded_bronze", res.AwardedBronze,
			"awarded_silver", res.AwardedSilver,
			"failed", res.Failed)
	}

	if *once || !month.IsZero() {
		run(context.Background())
		return
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Achievement scheduler started", "interval", cfg.EvaluationInterval)
	run(ctx)

	ticker := time.NewTicker(cfg.EvaluationInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			cli.WaitForShutdown(ctx, done)
			return
		case <-ticker.C:
			run(ctx)
		}
	}
}
