package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"clarify/internal/ai/gemini"
	"clarify/internal/auth"
	"clarify/internal/cache"
	"clarify/internal/cli"
	"clarify/internal/config"
	"clarify/internal/core"
	apphttp "clarify/internal/http"
	"clarify/internal/log"
	"clarify/internal/metrics"
	"clarify/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateAPI)
	store := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer store.Close()

	m := metrics.New()

	summaries := cache.NewLRUCache[core.MonthSummary](500, 5*time.Minute)
	m.RegisterCache("month_summary", summaries.Stats)
	caches := cache.NewManager()
	caches.Register(summaries)
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	amqpClient := cli.ConnectAMQP(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	var parser services.MovementParser
	if cfg.GeminiAPIKey != "" {
		p, err := gemini.NewParser(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Failed to initialize Gemini parser, AI entry disabled", log.FieldError, err)
		} else {
			parser = p
			logger.Info("Gemini parser initialized", "model", cfg.GeminiModel)
		}
	} else {
		logger.Info("GEMINI_API_KEY not set - AI entry disabled")
	}

	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	ledger := services.NewLedgerAggregator(store, summaries)
	plans := services.NewPlanService(store, logger)
	evaluator := services.NewAchievementEvaluator(store, cli.Publisher(amqpClient), m, logger, cfg.CooldownMonths)

	svc := apphttp.Services{
		Accounts:  services.NewAccountService(store, tokens, ledger, plans, logger),
		Ledger:    ledger,
		Movements: services.NewMovementService(store, ledger, logger),
		Goals:     services.NewGoalService(store, evaluator, ledger, logger),
		Evaluator: evaluator,
		Plans:     plans,
		Payments:  services.NewPaymentService(store, plans),
		AI:        services.NewAIService(store, plans, parser, cfg.FreeAIDailyLimit, m, logger),
		Support:   services.NewSupportService(store, tokens, logger),
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		TaskSecret:         cfg.TaskSecretKey,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, svc, store, tokens, m, logger)
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	if cfg.TaskSecretKey == "" {
		logger.Warn("TASK_SECRET_KEY not set - scheduled task endpoints will refuse every call")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting clarify server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
