// Package workflow contains workflow-related use cases.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/domain/matching"
	"github.com/dgi-compliance/backend/internal/domain/rules"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

const (
	// PipelineTimeout bounds one whole background processing run.
	PipelineTimeout = 10 * time.Minute

	// OCRTimeout is the per-document budget for text recognition.
	OCRTimeout = 60 * time.Second

	// ExtractionTimeout is the per-document budget for field extraction.
	ExtractionTimeout = 45 * time.Second
)

// ProcessingMode selects which phase of the pipeline a run covers.
type ProcessingMode string

const (
	// ModeFull processes invoice and payment documents in one run and
	// finishes with computed results.
	ModeFull ProcessingMode = "full"

	// ModeInvoicesOnly runs OCR and extraction for the uploaded documents
	// and stops at extraction_done, leaving the batch waiting for payment
	// documents.
	ModeInvoicesOnly ProcessingMode = "invoices_only"

	// ModeComplete resumes an extraction_done batch, processes the pending
	// documents and finishes with computed results.
	ModeComplete ProcessingMode = "complete"
)

// ParseProcessingMode converts a raw string into a ProcessingMode. An empty
// string selects ModeFull.
func ParseProcessingMode(s string) (ProcessingMode, bool) {
	if s == "" {
		return ModeFull, true
	}
	mode := ProcessingMode(s)
	switch mode {
	case ModeFull, ModeInvoicesOnly, ModeComplete:
		return mode, true
	}
	return "", false
}

// ProcessBatchInput contains the data needed to start a processing run.
type ProcessBatchInput struct {
	BatchID uuid.UUID
	UserID  uuid.UUID
	Mode    ProcessingMode

	// AsOf is the reference date delays are computed against. Nil means
	// the current date.
	AsOf *time.Time

	// Procedure690ICEs lists suppliers under an Article 690 collective
	// procedure; their penalties are suspended.
	Procedure690ICEs []string

	// RecipientEmail and RecipientName address the outcome notification.
	// Notifications are skipped when the email is empty.
	RecipientEmail string
	RecipientName  string
}

// ProcessBatchOutput represents the immediate response of a started run.
type ProcessBatchOutput struct {
	BatchID uuid.UUID
	Status  entity.BatchStatus
	Message string
}

// ProcessBatchUseCase handles running the document pipeline of a batch in
// the background: OCR, field extraction, matching and legal computation.
type ProcessBatchUseCase struct {
	recompute    *recomputer
	documentRepo adapter.DocumentRepository
	ocr          adapter.OCRProvider
	extractor    adapter.ExtractionProvider
	fileStore    adapter.FileStore
	tracker      adapter.ProcessingTracker
	notifier     adapter.NotificationService
}

// NewProcessBatchUseCase creates a new ProcessBatchUseCase.
func NewProcessBatchUseCase(
	batchRepo adapter.BatchRepository,
	documentRepo adapter.DocumentRepository,
	invoiceRepo adapter.InvoiceRepository,
	paymentRepo adapter.PaymentRepository,
	resultRepo adapter.ResultRepository,
	auditRepo adapter.AuditRepository,
	ocr adapter.OCRProvider,
	extractor adapter.ExtractionProvider,
	fileStore adapter.FileStore,
	matcher *matching.Engine,
	rulesEngine *rules.Engine,
	tracker adapter.ProcessingTracker,
	notifier adapter.NotificationService,
) *ProcessBatchUseCase {
	return &ProcessBatchUseCase{
		recompute: &recomputer{
			batchRepo:   batchRepo,
			invoiceRepo: invoiceRepo,
			paymentRepo: paymentRepo,
			resultRepo:  resultRepo,
			auditRepo:   auditRepo,
			matcher:     matcher,
			rules:       rulesEngine,
		},
		documentRepo: documentRepo,
		ocr:          ocr,
		extractor:    extractor,
		fileStore:    fileStore,
		tracker:      tracker,
		notifier:     notifier,
	}
}

// Execute validates the run preconditions, moves the batch to ocr_processing
// and starts the pipeline in the background.
func (uc *ProcessBatchUseCase) Execute(ctx context.Context, input ProcessBatchInput) (*ProcessBatchOutput, error) {
	switch input.Mode {
	case ModeFull, ModeInvoicesOnly, ModeComplete:
	default:
		return nil, domainerror.NewBatchError(
			domainerror.ErrCodeInvalidProcessingMode,
			fmt.Sprintf("unknown processing mode %q", input.Mode),
			domainerror.ErrInvalidProcessingMode,
		)
	}

	batch, err := findOwnedBatch(ctx, uc.recompute.batchRepo, input.BatchID, input.UserID)
	if err != nil {
		return nil, err
	}

	// Uploading payment documents moves the batch back to uploading, so a
	// complete run is accepted from either status as long as the invoice
	// extraction already happened.
	if input.Mode == ModeComplete {
		if batch.Status != entity.BatchStatusExtractionDone && batch.Status != entity.BatchStatusUploading {
			return nil, domainerror.NewBatchError(
				domainerror.ErrCodeInvalidBatchTransition,
				fmt.Sprintf("batch in status %q cannot complete, invoices must be extracted first", batch.Status),
				domainerror.ErrInvalidBatchTransition,
			)
		}
		invoices, err := uc.recompute.invoiceRepo.FindByBatch(ctx, input.BatchID)
		if err != nil {
			return nil, fmt.Errorf("failed to find batch invoices: %w", err)
		}
		if len(invoices) == 0 {
			return nil, domainerror.NewBatchError(
				domainerror.ErrCodeBatchHasNoInvoices,
				"invoices must be extracted before completing the batch",
				domainerror.ErrBatchHasNoInvoices,
			)
		}
	}
	if !batch.CanTransitionTo(entity.BatchStatusOCRProcessing) {
		return nil, domainerror.NewBatchError(
			domainerror.ErrCodeInvalidBatchTransition,
			fmt.Sprintf("batch in status %q cannot start processing", batch.Status),
			domainerror.ErrInvalidBatchTransition,
		)
	}

	if err := uc.checkDocuments(ctx, input.BatchID, input.Mode); err != nil {
		return nil, err
	}

	acquired, err := uc.tracker.StartProcessing(ctx, input.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire processing slot: %w", err)
	}
	if !acquired {
		return nil, domainerror.NewBatchError(
			domainerror.ErrCodeBatchAlreadyProcessing,
			"batch is already being processed",
			domainerror.ErrBatchAlreadyProcessing,
		)
	}

	detail := fmt.Sprintf("processing run started, mode %s", input.Mode)
	if err := uc.recompute.transition(ctx, batch, entity.BatchStatusOCRProcessing, stepOCR, detail, &input.UserID); err != nil {
		uc.tracker.ClearProcessing(ctx, input.BatchID)
		return nil, err
	}

	asOf := time.Now().UTC()
	if input.AsOf != nil {
		asOf = *input.AsOf
	}

	go uc.runPipeline(batch, pipelineParams{
		Mode:           input.Mode,
		ActorID:        input.UserID,
		AsOf:           asOf,
		Procedure690:   procedure690Set(input.Procedure690ICEs),
		RecipientEmail: input.RecipientEmail,
		RecipientName:  input.RecipientName,
	})

	return &ProcessBatchOutput{
		BatchID: batch.ID,
		Status:  batch.Status,
		Message: "Le traitement a démarré en arrière-plan",
	}, nil
}

// checkDocuments verifies the batch holds the documents its mode needs.
func (uc *ProcessBatchUseCase) checkDocuments(ctx context.Context, batchID uuid.UUID, mode ProcessingMode) error {
	invoiceDocs, err := uc.documentRepo.FindByBatchAndKind(ctx, batchID, entity.DocumentKindInvoice)
	if err != nil {
		return fmt.Errorf("failed to find invoice documents: %w", err)
	}
	if len(invoiceDocs) == 0 {
		return domainerror.NewBatchError(
			domainerror.ErrCodeBatchHasNoInvoices,
			"batch has no invoice documents",
			domainerror.ErrBatchHasNoInvoices,
		)
	}

	if mode == ModeComplete {
		paymentDocs, err := uc.documentRepo.FindByBatchAndKind(ctx, batchID, entity.DocumentKindPayment)
		if err != nil {
			return fmt.Errorf("failed to find payment documents: %w", err)
		}
		if len(paymentDocs) == 0 {
			return domainerror.NewBatchError(
				domainerror.ErrCodeBatchHasNoPayments,
				"batch has no payment documents",
				domainerror.ErrBatchHasNoPayments,
			)
		}
	}

	return nil
}

// pipelineParams carries the parameters of one background run.
type pipelineParams struct {
	Mode           ProcessingMode
	ActorID        uuid.UUID
	AsOf           time.Time
	Procedure690   map[string]struct{}
	RecipientEmail string
	RecipientName  string
}

// runPipeline executes the pipeline in the background and releases the
// processing slot when it finishes, whatever the outcome.
func (uc *ProcessBatchUseCase) runPipeline(batch *entity.Batch, params pipelineParams) {
	ctx, cancel := context.WithTimeout(context.Background(), PipelineTimeout)
	defer cancel()

	startTime := time.Now()
	logger := slog.Default().With("batchID", batch.ID.String(), "mode", string(params.Mode))

	logger.Info("Starting batch processing pipeline")

	defer func() {
		if err := uc.tracker.ClearProcessing(context.Background(), batch.ID); err != nil {
			logger.Error("Failed to release processing slot", "error", err.Error())
		}
		logger.Info("Batch processing pipeline finished",
			"status", string(batch.Status),
			"duration", time.Since(startTime).String(),
		)
	}()

	if err := uc.pipeline(ctx, logger, batch, params); err != nil {
		logger.Error("Batch processing failed", "error", err.Error())
		uc.failBatch(batch, params, err)
	}
}

// pipeline runs OCR, extraction and, unless the run stops after extraction,
// the shared matching and rules tail.
func (uc *ProcessBatchUseCase) pipeline(ctx context.Context, logger *slog.Logger, batch *entity.Batch, params pipelineParams) error {
	batch.ResetRunState()

	documents, err := uc.documentRepo.FindByBatch(ctx, batch.ID)
	if err != nil {
		return fmt.Errorf("failed to find batch documents: %w", err)
	}

	// Documents extracted in a previous run keep their results; failed and
	// fresh documents are (re)processed.
	pending := make([]*entity.Document, 0, len(documents))
	for _, document := range documents {
		if document.Status != entity.DocumentStatusExtracted {
			pending = append(pending, document)
		}
	}
	logger.Info("Collected pipeline documents", "total", len(documents), "pending", len(pending))

	recognized := uc.ocrStep(ctx, logger, batch, pending)
	extracted := uc.extractionStep(ctx, logger, batch, recognized)

	invoices, err := uc.recompute.invoiceRepo.FindByBatch(ctx, batch.ID)
	if err != nil {
		return fmt.Errorf("failed to find batch invoices: %w", err)
	}
	if len(invoices) == 0 {
		return errors.New("no invoices could be extracted")
	}

	detail := fmt.Sprintf("extracted %d of %d pending documents", extracted, len(pending))
	if len(batch.FailedDocuments) > 0 {
		detail = fmt.Sprintf("%s, %d failed", detail, len(batch.FailedDocuments))
	}
	if err := uc.recompute.transition(ctx, batch, entity.BatchStatusExtractionDone, stepExtraction, detail, &params.ActorID); err != nil {
		return err
	}

	if params.Mode == ModeInvoicesOnly {
		batch.InvoiceCount = len(invoices)
		batch.SetProgress(batch.ProgressPercent, "Factures extraites - En attente des paiements")
		if err := uc.recompute.batchRepo.Update(ctx, batch); err != nil {
			return fmt.Errorf("failed to update batch: %w", err)
		}
		return nil
	}

	outcome, err := uc.recompute.computeAndStore(ctx, batch, recomputeParams{
		ActorID:      &params.ActorID,
		AsOf:         params.AsOf,
		Procedure690: params.Procedure690,
	})
	if err != nil {
		return err
	}

	uc.notifyOutcome(logger, batch, params, outcome)
	return nil
}

// ocrStep runs text recognition over the pending documents and returns the
// ones that passed. Failures are recorded on the batch and skipped.
func (uc *ProcessBatchUseCase) ocrStep(ctx context.Context, logger *slog.Logger, batch *entity.Batch, pending []*entity.Document) []*entity.Document {
	recognized := make([]*entity.Document, 0, len(pending))

	for i, document := range pending {
		batch.SetProgress(10+(40*(i+1))/len(pending), stepOCR)
		if err := uc.recompute.batchRepo.Update(ctx, batch); err != nil {
			logger.Error("Failed to update batch progress", "error", err.Error())
		}

		ocrCtx, ocrCancel := context.WithTimeout(ctx, OCRTimeout)
		err := uc.recognizeDocument(ocrCtx, document)
		ocrCancel()

		if err != nil {
			logger.Warn("Text recognition failed for document",
				"documentID", document.ID.String(),
				"fileName", document.FileName,
				"error", err.Error(),
			)
			uc.failDocument(ctx, logger, batch, document, err)
			continue
		}

		if err := uc.documentRepo.Update(ctx, document); err != nil {
			logger.Error("Failed to update document", "documentID", document.ID.String(), "error", err.Error())
			continue
		}
		recognized = append(recognized, document)
	}

	return recognized
}

// recognizeDocument loads the stored file and runs OCR over it.
func (uc *ProcessBatchUseCase) recognizeDocument(ctx context.Context, document *entity.Document) error {
	content, err := uc.fileStore.Load(ctx, document.StoragePath)
	if err != nil {
		return fmt.Errorf("failed to load stored file: %w", err)
	}

	result, err := uc.ocr.ExtractText(ctx, content, document.ContentType)
	if err != nil {
		return fmt.Errorf("%w: %s", domainerror.ErrOCRFailed, err)
	}

	document.MarkOCRDone(result.Text, result.Confidence, result.PageCount)
	return nil
}

// extractionStep turns the recognized text of each document into a structured
// invoice or payment. Returns the number of documents extracted.
func (uc *ProcessBatchUseCase) extractionStep(ctx context.Context, logger *slog.Logger, batch *entity.Batch, recognized []*entity.Document) int {
	extracted := 0

	for i, document := range recognized {
		batch.SetProgress(50+(10*(i+1))/len(recognized), stepExtraction)
		if err := uc.recompute.batchRepo.Update(ctx, batch); err != nil {
			logger.Error("Failed to update batch progress", "error", err.Error())
		}

		extractCtx, extractCancel := context.WithTimeout(ctx, ExtractionTimeout)
		err := uc.extractDocument(extractCtx, document)
		extractCancel()

		if err != nil {
			logger.Warn("Field extraction failed for document",
				"documentID", document.ID.String(),
				"fileName", document.FileName,
				"error", err.Error(),
			)
			uc.failDocument(ctx, logger, batch, document, err)
			continue
		}

		if err := uc.documentRepo.Update(ctx, document); err != nil {
			logger.Error("Failed to update document", "documentID", document.ID.String(), "error", err.Error())
			continue
		}
		extracted++
	}

	return extracted
}

// extractDocument parses the recognized text of one document into its
// structured record and persists it.
func (uc *ProcessBatchUseCase) extractDocument(ctx context.Context, document *entity.Document) error {
	switch document.Kind {
	case entity.DocumentKindInvoice:
		invoice, err := uc.extractor.ExtractInvoice(ctx, document, document.OCRText)
		if err != nil {
			return fmt.Errorf("%w: %s", domainerror.ErrExtractionFailed, err)
		}
		invoice.SupplierICE = valueobject.NormalizeICE(invoice.SupplierICE)
		invoice.ClientICE = valueobject.NormalizeICE(invoice.ClientICE)
		invoice.RecomputeMissingFields()
		if err := uc.recompute.invoiceRepo.Create(ctx, invoice); err != nil {
			return fmt.Errorf("failed to create extracted invoice: %w", err)
		}

	case entity.DocumentKindPayment:
		payment, err := uc.extractor.ExtractPayment(ctx, document, document.OCRText)
		if err != nil {
			return fmt.Errorf("%w: %s", domainerror.ErrExtractionFailed, err)
		}
		if err := uc.recompute.paymentRepo.Create(ctx, payment); err != nil {
			return fmt.Errorf("failed to create extracted payment: %w", err)
		}
	}

	document.MarkExtracted()
	return nil
}

// failDocument records a per-document failure without aborting the run.
func (uc *ProcessBatchUseCase) failDocument(ctx context.Context, logger *slog.Logger, batch *entity.Batch, document *entity.Document, cause error) {
	document.MarkFailed(cause.Error())
	if err := uc.documentRepo.Update(ctx, document); err != nil {
		logger.Error("Failed to update failed document", "documentID", document.ID.String(), "error", err.Error())
	}

	batch.AddFailedDocument(document.ID, document.FileName, cause.Error())
	if err := uc.recompute.batchRepo.Update(ctx, batch); err != nil {
		logger.Error("Failed to update batch", "error", err.Error())
	}
}

// failBatch moves the batch to failed and queues the failure notification.
func (uc *ProcessBatchUseCase) failBatch(batch *entity.Batch, params pipelineParams, cause error) {
	// The pipeline context may already be done; state still has to land.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	previous := batch.Status
	batch.MarkFailed(cause.Error())
	if err := uc.recompute.batchRepo.Update(ctx, batch); err != nil {
		slog.Default().Error("Failed to persist failed batch", "batchID", batch.ID.String(), "error", err.Error())
		return
	}

	entry := entity.NewAuditEntry(batch.ID, previous, entity.BatchStatusFailed, cause.Error(), &params.ActorID)
	if err := uc.recompute.auditRepo.Create(ctx, entry); err != nil {
		slog.Default().Error("Failed to create audit entry", "batchID", batch.ID.String(), "error", err.Error())
	}

	if params.RecipientEmail == "" {
		return
	}
	err := uc.notifier.QueueBatchFailedNotification(ctx, adapter.QueueBatchFailedInput{
		RecipientEmail: params.RecipientEmail,
		RecipientName:  params.RecipientName,
		BatchID:        batch.ID,
		BatchName:      batch.Name,
		Reason:         cause.Error(),
	})
	if err != nil {
		slog.Default().Error("Failed to queue failure notification", "batchID", batch.ID.String(), "error", err.Error())
	}
}

// notifyOutcome queues the notification matching the final batch status.
func (uc *ProcessBatchUseCase) notifyOutcome(logger *slog.Logger, batch *entity.Batch, params pipelineParams, outcome gateOutcome) {
	if params.RecipientEmail == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	if outcome.Required {
		err = uc.notifier.QueueValidationRequiredNotification(ctx, adapter.QueueValidationRequiredInput{
			RecipientEmail: params.RecipientEmail,
			RecipientName:  params.RecipientName,
			BatchID:        batch.ID,
			BatchName:      batch.Name,
			Reasons:        strings.Join(outcome.Reasons, ", "),
			ReviewCount:    len(outcome.Reasons),
		})
	} else {
		err = uc.notifier.QueueBatchProcessedNotification(ctx, adapter.QueueBatchProcessedInput{
			RecipientEmail: params.RecipientEmail,
			RecipientName:  params.RecipientName,
			BatchID:        batch.ID,
			BatchName:      batch.Name,
			FiscalYear:     batch.FiscalYear,
			InvoiceCount:   batch.InvoiceCount,
			PaymentCount:   batch.PaymentCount,
		})
	}
	if err != nil {
		logger.Error("Failed to queue outcome notification", "error", err.Error())
	}
}
