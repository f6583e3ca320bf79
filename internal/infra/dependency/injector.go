// Package dependency provides dependency injection for the application.
package dependency

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/dgi-compliance/backend/config"
	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/application/usecase/batch"
	"github.com/dgi-compliance/backend/internal/application/usecase/declaration"
	"github.com/dgi-compliance/backend/internal/application/usecase/matching"
	"github.com/dgi-compliance/backend/internal/application/usecase/rules"
	"github.com/dgi-compliance/backend/internal/application/usecase/workflow"
	domaindeclaration "github.com/dgi-compliance/backend/internal/domain/declaration"
	domainmatching "github.com/dgi-compliance/backend/internal/domain/matching"
	domainrules "github.com/dgi-compliance/backend/internal/domain/rules"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
	"github.com/dgi-compliance/backend/internal/infra/server/router"
	"github.com/dgi-compliance/backend/internal/integration/adapters"
	"github.com/dgi-compliance/backend/internal/integration/entrypoint/controller"
	"github.com/dgi-compliance/backend/internal/integration/entrypoint/middleware"
	"github.com/dgi-compliance/backend/internal/integration/notification"
	"github.com/dgi-compliance/backend/internal/integration/notification/templates"
	"github.com/dgi-compliance/backend/internal/integration/persistence"
)

// Injector holds all application dependencies.
type Injector struct {
	Config *config.Config
	DB     *gorm.DB
	Router *router.Router

	// Worker delivers queued notification emails. The caller decides
	// whether to start it.
	Worker *notification.Worker
}

// NewInjector creates a new dependency injector with all dependencies wired.
func NewInjector(cfg *config.Config, db *gorm.DB) (*Injector, error) {
	// Create repositories
	batchRepo := persistence.NewBatchRepository(db)
	documentRepo := persistence.NewDocumentRepository(db)
	invoiceRepo := persistence.NewInvoiceRepository(db)
	paymentRepo := persistence.NewPaymentRepository(db)
	resultRepo := persistence.NewResultRepository(db)
	auditRepo := persistence.NewAuditRepository(db)
	notificationQueueRepo := persistence.NewNotificationQueueRepository(db)

	// Create domain engines
	rulesEngine, err := domainrules.NewEngine(rulesConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("rules engine: %w", err)
	}
	matchingEngine, err := domainmatching.NewEngine(matchingConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("matching engine: %w", err)
	}
	formatter := domaindeclaration.NewFormatter()
	exporter := domaindeclaration.NewExporter()

	// Create adapters/services
	fileStore, err := newFileStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	ocrService := adapters.NewVisionOCRService(cfg.OCR.CredentialsJSON, cfg.OCR.Timeout)
	extractor := newExtractor(cfg, fileStore)
	tokenService := adapters.NewTokenService(cfg.Auth.JWTSecret)
	tracker, err := newProcessingTracker(cfg)
	if err != nil {
		return nil, fmt.Errorf("processing tracker: %w", err)
	}

	// Create notification pipeline
	notificationService := notification.NewService(notificationQueueRepo, cfg.Notifications.AppBaseURL)
	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("notification templates: %w", err)
	}
	var sender adapter.NotificationSender
	if cfg.Notifications.ResendAPIKey != "" {
		sender = notification.NewResendClient(cfg.Notifications.ResendAPIKey, cfg.Notifications.FromName, cfg.Notifications.FromEmail)
	} else {
		sender = notification.NewMockNotificationSender()
	}
	worker := notification.NewWorker(notificationQueueRepo, sender, renderer, notification.WorkerConfig{
		PollInterval:  cfg.Notifications.PollInterval,
		BatchSize:     cfg.Notifications.BatchSize,
		RetentionDays: cfg.Notifications.RetentionDays,
	})

	// Create batch use cases
	createBatchUseCase := batch.NewCreateBatchUseCase(batchRepo)
	getBatchUseCase := batch.NewGetBatchUseCase(batchRepo, documentRepo, resultRepo)
	listBatchesUseCase := batch.NewListBatchesUseCase(batchRepo)
	deleteBatchUseCase := batch.NewDeleteBatchUseCase(batchRepo, documentRepo, fileStore)
	uploadDocumentsUseCase := batch.NewUploadDocumentsUseCase(batchRepo, documentRepo, auditRepo, fileStore)
	getResultsUseCase := batch.NewGetResultsUseCase(batchRepo, invoiceRepo, resultRepo)
	getAuditLogUseCase := batch.NewGetAuditLogUseCase(batchRepo, auditRepo)
	getDocumentUseCase := batch.NewGetDocumentUseCase(batchRepo, documentRepo, fileStore)

	// Create workflow use cases
	processBatchUseCase := workflow.NewProcessBatchUseCase(
		batchRepo,
		documentRepo,
		invoiceRepo,
		paymentRepo,
		resultRepo,
		auditRepo,
		ocrService,
		extractor,
		fileStore,
		matchingEngine,
		rulesEngine,
		tracker,
		notificationService,
	)
	getStatusUseCase := workflow.NewGetStatusUseCase(batchRepo, tracker)
	applyValidationUseCase := workflow.NewApplyValidationUseCase(
		batchRepo,
		invoiceRepo,
		paymentRepo,
		resultRepo,
		auditRepo,
		matchingEngine,
		rulesEngine,
		tracker,
	)
	recalculateUseCase := workflow.NewRecalculateUseCase(
		batchRepo,
		invoiceRepo,
		paymentRepo,
		resultRepo,
		auditRepo,
		matchingEngine,
		rulesEngine,
		tracker,
	)
	validateBatchUseCase := workflow.NewValidateBatchUseCase(batchRepo, auditRepo, tracker)

	// Create declaration use cases
	getDeclarationUseCase := declaration.NewGetDeclarationUseCase(batchRepo, invoiceRepo, resultRepo, formatter)
	exportCSVUseCase := declaration.NewExportCSVUseCase(
		batchRepo,
		invoiceRepo,
		resultRepo,
		auditRepo,
		formatter,
		exporter,
		notificationService,
	)
	alertsReportUseCase := declaration.NewGetAlertsReportUseCase(batchRepo, invoiceRepo, resultRepo, formatter, exporter)

	// Create rules and matching use cases
	computeUseCase := rules.NewComputeUseCase(rulesEngine)
	computeBatchUseCase := rules.NewComputeBatchUseCase(rulesEngine)
	runMatchingUseCase := matching.NewRunMatchingUseCase(matchingEngine)

	// Create controllers
	healthController := controller.NewHealthController(func() bool {
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	})

	batchController := controller.NewBatchController(
		createBatchUseCase,
		getBatchUseCase,
		listBatchesUseCase,
		deleteBatchUseCase,
		uploadDocumentsUseCase,
		getResultsUseCase,
		getAuditLogUseCase,
		getDocumentUseCase,
	)

	workflowController := controller.NewWorkflowController(
		processBatchUseCase,
		getStatusUseCase,
		applyValidationUseCase,
		recalculateUseCase,
		validateBatchUseCase,
	)

	declarationController := controller.NewDeclarationController(
		exportCSVUseCase,
		getDeclarationUseCase,
		alertsReportUseCase,
	)

	rulesController := controller.NewRulesController(computeUseCase, computeBatchUseCase)

	matchingController := controller.NewMatchingController(runMatchingUseCase)

	// Create middleware
	// Use higher rate limits for E2E/test environments to prevent flaky tests
	var apiRateLimiter *middleware.RateLimiter
	if cfg.Server.Environment == "e2e" || cfg.Server.Environment == "test" {
		apiRateLimiter = middleware.NewRateLimiterWithConfig(1000, 1*time.Minute)
	} else {
		apiRateLimiter = middleware.NewRateLimiter()
	}
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Create router
	r := router.NewRouter(healthController, batchController, workflowController, declarationController, rulesController, matchingController, apiRateLimiter, authMiddleware)

	return &Injector{
		Config: cfg,
		DB:     db,
		Router: r,
		Worker: worker,
	}, nil
}

// rulesConfig maps the environment configuration onto the rules engine
// parameters, starting from the engine defaults.
func rulesConfig(cfg *config.Config) valueobject.RulesConfig {
	rc := valueobject.DefaultRulesConfig()
	rc.DefaultDelayDays = cfg.Rules.DefaultDelayDays
	rc.MaxDelayDays = cfg.Rules.MaxDelayDays
	rc.PenaltyBaseRatePercent = cfg.Rules.PenaltyBaseRate
	rc.PenaltyMonthlyIncrementPercent = cfg.Rules.PenaltyMonthlyIncrement
	rc.MovableHolidays = cfg.Rules.MovableHolidays
	return rc
}

// matchingConfig maps the environment configuration onto the matching engine
// parameters. Rule weights keep their defaults.
func matchingConfig(cfg *config.Config) valueobject.MatchingConfig {
	mc := valueobject.DefaultMatchingConfig()
	mc.AmountTolerance = cfg.Matching.AmountTolerance
	mc.MinConfidenceScore = cfg.Matching.MinConfidenceScore
	return mc
}

// newFileStore selects the document storage backend.
func newFileStore(cfg *config.Config) (adapter.FileStore, error) {
	if cfg.Storage.Driver == "s3" {
		return adapters.NewS3FileStore(adapters.S3Config{
			Bucket:    cfg.Storage.S3Bucket,
			Region:    cfg.Storage.S3Region,
			Endpoint:  cfg.Storage.S3Endpoint,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
		})
	}
	return adapters.NewLocalFileStore(cfg.Storage.LocalRoot)
}

// newExtractor selects the field extraction backend. Document AI keeps a
// Gemini extractor as fallback for payment documents, which have no
// dedicated processor.
func newExtractor(cfg *config.Config, fileStore adapter.FileStore) adapter.ExtractionProvider {
	gemini := adapters.NewGeminiExtractor(cfg.Extraction.GeminiAPIKey, cfg.Extraction.GeminiModel)
	if cfg.Extraction.Provider == "documentai" {
		return adapters.NewDocumentAIExtractor(
			cfg.Extraction.DocumentAIProject,
			cfg.Extraction.DocumentAILocation,
			cfg.Extraction.DocumentAIProcessor,
			cfg.OCR.CredentialsJSON,
			fileStore,
			gemini,
		)
	}
	return gemini
}

// newProcessingTracker selects the single-active-run tracker backend.
func newProcessingTracker(cfg *config.Config) (adapter.ProcessingTracker, error) {
	if cfg.Workflow.TrackerDriver != "redis" {
		return workflow.NewInMemoryProcessingTracker(), nil
	}
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return adapters.NewRedisProcessingTracker(redis.NewClient(opts), cfg.Redis.TrackerTTL), nil
}
