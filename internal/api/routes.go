package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/config"
	"github.com/joshijeet02/Career-huntin/internal/discovery"
	"github.com/joshijeet02/Career-huntin/internal/drafting"
	"github.com/joshijeet02/Career-huntin/internal/execution"
	"github.com/joshijeet02/Career-huntin/internal/orchestrator"
	"github.com/joshijeet02/Career-huntin/internal/profiles"
	"github.com/joshijeet02/Career-huntin/internal/review"
)

// RegisterRoutes wires the pipeline endpoints under /v1.
func RegisterRoutes(
	router *gin.Engine,
	db *gorm.DB,
	holder *config.Holder,
	discoveryEngine *discovery.Engine,
	draftingEngine *drafting.Engine,
	reviewEngine *review.Engine,
	executionEngine *execution.Engine,
	pipelineOrchestrator *orchestrator.Orchestrator,
	snapshotCfg config.SnapshotConfig,
) {
	profileHandler := NewProfileHandler(profiles.NewService(db))
	jobsHandler := NewJobsHandler(db, discoveryEngine, draftingEngine)
	reviewHandler := NewReviewHandler(reviewEngine, executionEngine)
	executionHandler := NewExecutionHandler(executionEngine)
	analyticsHandler := NewAnalyticsHandler(db)
	orchestratorHandler := NewOrchestratorHandler(pipelineOrchestrator)
	trackingHandler := NewTrackingHandler(snapshotCfg)
	configHandler := NewConfigHandler(holder)

	v1 := router.Group("/v1")
	{
		v1.POST("/profile/ingest", profileHandler.Ingest)

		jobsGroup := v1.Group("/jobs")
		{
			jobsGroup.POST("/discover", jobsHandler.Discover)
			jobsGroup.GET("/queue", jobsHandler.Queue)
		}

		reviewGroup := v1.Group("/review")
		{
			reviewGroup.POST("/batches/:id/decision", reviewHandler.DecideBatch)
			reviewGroup.POST("/items/:id/quick-apply", reviewHandler.QuickApply)
		}

		v1.POST("/execution/plans/:id/run", executionHandler.RunPlan)
		v1.GET("/analytics/funnel", analyticsHandler.Funnel)
		v1.POST("/orchestrator/run-daily", orchestratorHandler.RunDaily)
		v1.GET("/tracking/snapshot", trackingHandler.Snapshot)
		v1.GET("/dashboard/data", analyticsHandler.DashboardData)
		v1.POST("/config/reload", configHandler.Reload)
	}
}
