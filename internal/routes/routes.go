package routes

import (
	"github.com/gin-gonic/gin"

	handler "tabular-reconciliation-backend/internal/handlers"
	service "tabular-reconciliation-backend/internal/services/reconciliation"
)

func RegisterRoutes(r *gin.Engine, reconService *service.ReconciliationService, maxUploadBytes int64) {
	reconHandler := handler.NewReconciliationHandler(reconService, maxUploadBytes)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Column discovery for a single upload
	api.POST("/tables/inspect", reconHandler.Inspect)

	// Reconciliation runs
	recon := api.Group("/reconciliation")
	recon.POST("/run", reconHandler.Run)
	recon.GET("/:runId", reconHandler.GetResult)
	recon.GET("/:runId/download", reconHandler.Download)

	// Run history
	runs := api.Group("/runs")
	{
		runs.GET("", reconHandler.ListRuns)
		runs.GET("/:id", reconHandler.GetRun)
	}
}
