package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/joshijeet02/Career-huntin/internal/compliance"
	"github.com/joshijeet02/Career-huntin/internal/config"
	"github.com/joshijeet02/Career-huntin/internal/database"
	"github.com/joshijeet02/Career-huntin/internal/discovery"
	"github.com/joshijeet02/Career-huntin/internal/drafting"
	"github.com/joshijeet02/Career-huntin/internal/execution"
	"github.com/joshijeet02/Career-huntin/internal/followup"
	"github.com/joshijeet02/Career-huntin/internal/metrics"
	"github.com/joshijeet02/Career-huntin/internal/orchestrator"
	"github.com/joshijeet02/Career-huntin/internal/review"
	"github.com/joshijeet02/Career-huntin/internal/storage"
	"github.com/joshijeet02/Career-huntin/internal/tasks"
	"github.com/joshijeet02/Career-huntin/internal/tracking"
	"github.com/joshijeet02/Career-huntin/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready for worker")

	var uploader tracking.Uploader
	if cfg.Snapshot.Upload {
		storageClient, err := storage.NewClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("init storage client: %v", err)
		}
		uploader = storageClient
	}

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	asynqClient := asynq.NewClient(redisOpt)
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()

	discoveryEngine := discovery.NewEngine(db, discovery.FixtureSource{}, cfg.Pipeline, logger)
	draftingEngine := drafting.NewEngine(db, logger)
	reviewEngine := review.NewEngine(db)
	gate := compliance.NewGate(db, cfg.Pipeline)
	executionEngine := execution.NewEngine(db, gate, execution.MockConnector{}, cfg.Pipeline, logger)
	followupScheduler := followup.NewScheduler(db, asynqClient, logger)
	exporter := tracking.NewExporter(db, cfg.Snapshot, uploader, logger)
	pipelineOrchestrator := orchestrator.New(
		db, discoveryEngine, draftingEngine, reviewEngine, executionEngine,
		followupScheduler, exporter, cfg.Pipeline, cfg.Snapshot, logger,
	)

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
	})

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeFollowUpDue, worker.NewFollowUpHandler(db, logger))
	mux.Handle(tasks.TypeDailyCycle, worker.NewCycleHandler(pipelineOrchestrator, logger))

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
	if _, err := scheduler.Register(cfg.Worker.CycleCron, tasks.NewDailyCycleTask()); err != nil {
		log.Fatalf("register daily cycle schedule: %v", err)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("scheduler stopped", slog.Any("error", err))
		}
	}()

	logger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.String("cycle_cron", cfg.Worker.CycleCron),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
