// Package router sets up the HTTP routing for the application.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/dgi-compliance/backend/internal/integration/entrypoint/controller"
	"github.com/dgi-compliance/backend/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine                *gin.Engine
	healthController      *controller.HealthController
	batchController       *controller.BatchController
	workflowController    *controller.WorkflowController
	declarationController *controller.DeclarationController
	rulesController       *controller.RulesController
	matchingController    *controller.MatchingController
	apiRateLimiter        *middleware.RateLimiter
	authMiddleware        *middleware.AuthMiddleware
}

// NewRouter creates a new router instance with all dependencies.
func NewRouter(
	healthController *controller.HealthController,
	batchController *controller.BatchController,
	workflowController *controller.WorkflowController,
	declarationController *controller.DeclarationController,
	rulesController *controller.RulesController,
	matchingController *controller.MatchingController,
	apiRateLimiter *middleware.RateLimiter,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		healthController:      healthController,
		batchController:       batchController,
		workflowController:    workflowController,
		declarationController: declarationController,
		rulesController:       rulesController,
		matchingController:    matchingController,
		apiRateLimiter:        apiRateLimiter,
		authMiddleware:        authMiddleware,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if environment == "test" {
		gin.SetMode(gin.TestMode)
	}

	// Create router with default middleware (logger and recovery)
	r.engine = gin.Default()

	// Setup routes
	r.setupHealthRoutes()
	r.setupAPIRoutes()

	return r.engine
}

// setupHealthRoutes configures health check endpoints.
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.healthController.Check)
}

// setupAPIRoutes configures the main API routes. Every /v1 route requires a
// Bearer token; mutating routes additionally pass the rate limiter.
func (r *Router) setupAPIRoutes() {
	if r.authMiddleware == nil {
		return
	}

	v1 := r.engine.Group("/v1")
	v1.Use(r.authMiddleware.Authenticate())
	{
		// Batch routes (only setup if batch controller is available)
		if r.batchController != nil && r.apiRateLimiter != nil {
			batches := v1.Group("/batches")
			{
				batches.POST("", r.apiRateLimiter.Middleware(), r.batchController.Create)
				batches.GET("/:id", r.batchController.Get)
				batches.GET("/:id/results", r.batchController.GetResults)
				batches.DELETE("/:id", r.apiRateLimiter.Middleware(), r.batchController.Delete)
				batches.POST("/:id/upload/invoices", r.apiRateLimiter.Middleware(), r.batchController.UploadInvoices)
				batches.POST("/:id/upload/payments", r.apiRateLimiter.Middleware(), r.batchController.UploadPayments)
				batches.GET("/:id/audit-log", r.batchController.GetAuditLog)
				batches.GET("/:id/documents/:docID/pdf", r.batchController.GetDocumentPDF)
			}

			users := v1.Group("/users")
			{
				users.GET("/:id/batches", r.batchController.ListForUser)
			}
		}

		// Workflow routes (processing, corrections, validation)
		if r.workflowController != nil && r.apiRateLimiter != nil {
			batches := v1.Group("/batches")
			{
				batches.POST("/:id/process", r.apiRateLimiter.Middleware(), r.workflowController.Process)
				batches.POST("/:id/process/invoices", r.apiRateLimiter.Middleware(), r.workflowController.ProcessInvoices)
				batches.POST("/:id/process/complete", r.apiRateLimiter.Middleware(), r.workflowController.ProcessComplete)
				batches.GET("/:id/status", r.workflowController.GetStatus)
				batches.PATCH("/:id", r.apiRateLimiter.Middleware(), r.workflowController.ApplyCorrections)
				batches.POST("/:id/recalculate", r.apiRateLimiter.Middleware(), r.workflowController.Recalculate)
				batches.POST("/:id/validate", r.apiRateLimiter.Middleware(), r.workflowController.Validate)
			}
		}

		// Declaration routes (export, DGI declaration, alerts report)
		if r.declarationController != nil {
			batches := v1.Group("/batches")
			{
				batches.GET("/:id/export/csv", r.declarationController.ExportCSV)
				batches.GET("/:id/declaration", r.declarationController.GetDeclaration)
				batches.GET("/:id/alerts-report", r.declarationController.GetAlertsReport)
			}
		}

		// Standalone rule computation routes
		if r.rulesController != nil && r.apiRateLimiter != nil {
			rules := v1.Group("/rules")
			{
				rules.POST("/compute", r.apiRateLimiter.Middleware(), r.rulesController.Compute)
				rules.POST("/compute/batch", r.apiRateLimiter.Middleware(), r.rulesController.ComputeBatch)
			}
		}

		// Standalone matching routes
		if r.matchingController != nil && r.apiRateLimiter != nil {
			matching := v1.Group("/matching")
			{
				matching.POST("/run", r.apiRateLimiter.Middleware(), r.matchingController.Run)
			}
		}
	}
}

// Engine returns the underlying Gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
