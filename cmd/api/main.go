package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/joshijeet02/Career-huntin/internal/api"
	"github.com/joshijeet02/Career-huntin/internal/compliance"
	"github.com/joshijeet02/Career-huntin/internal/config"
	"github.com/joshijeet02/Career-huntin/internal/database"
	"github.com/joshijeet02/Career-huntin/internal/discovery"
	"github.com/joshijeet02/Career-huntin/internal/drafting"
	"github.com/joshijeet02/Career-huntin/internal/execution"
	"github.com/joshijeet02/Career-huntin/internal/followup"
	"github.com/joshijeet02/Career-huntin/internal/orchestrator"
	"github.com/joshijeet02/Career-huntin/internal/review"
	"github.com/joshijeet02/Career-huntin/internal/storage"
	"github.com/joshijeet02/Career-huntin/internal/tracking"
)

func main() {
	cfg := config.MustLoad()
	holder := config.NewHolder(cfg)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	logger.Info("database ready")

	var uploader tracking.Uploader
	if cfg.Snapshot.Upload {
		storageClient, err := storage.NewClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("init storage client: %v", err)
		}
		uploader = storageClient
		logger.Info("snapshot uploads enabled", slog.String("bucket", cfg.MinIO.Bucket))
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
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

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, db, holder, discoveryEngine, draftingEngine,
		reviewEngine, executionEngine, pipelineOrchestrator, cfg.Snapshot)

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address))
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
