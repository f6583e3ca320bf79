// Package workflow contains workflow-related use cases.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/domain/matching"
	"github.com/dgi-compliance/backend/internal/domain/rules"
)

// RecalculateInput contains the parameters of a recalculation run.
type RecalculateInput struct {
	BatchID uuid.UUID
	UserID  uuid.UUID

	// AsOf is the reference date delays are computed against. Nil means
	// the current date.
	AsOf *time.Time

	// Procedure690ICEs lists suppliers under an Article 690 collective
	// procedure; their penalties are suspended.
	Procedure690ICEs []string
}

// RecalculateOutput represents the state of the batch after recalculation.
type RecalculateOutput struct {
	Batch       *entity.Batch
	ResultCount int

	RequiresValidation bool
	Reasons            []string
}

// RecalculateUseCase handles recomputing matching and legal results for a
// batch from its stored invoices and payments, typically against a different
// reference date.
type RecalculateUseCase struct {
	recompute *recomputer
	tracker   adapter.ProcessingTracker
}

// NewRecalculateUseCase creates a new RecalculateUseCase.
func NewRecalculateUseCase(
	batchRepo adapter.BatchRepository,
	invoiceRepo adapter.InvoiceRepository,
	paymentRepo adapter.PaymentRepository,
	resultRepo adapter.ResultRepository,
	auditRepo adapter.AuditRepository,
	matcher *matching.Engine,
	rulesEngine *rules.Engine,
	tracker adapter.ProcessingTracker,
) *RecalculateUseCase {
	return &RecalculateUseCase{
		recompute: &recomputer{
			batchRepo:   batchRepo,
			invoiceRepo: invoiceRepo,
			paymentRepo: paymentRepo,
			resultRepo:  resultRepo,
			auditRepo:   auditRepo,
			matcher:     matcher,
			rules:       rulesEngine,
		},
		tracker: tracker,
	}
}

// Execute replaces the stored results of the batch with freshly computed
// ones. The validation gate is re-evaluated, so a previously validated batch
// may come back requiring review.
func (uc *RecalculateUseCase) Execute(ctx context.Context, input RecalculateInput) (*RecalculateOutput, error) {
	batch, err := findOwnedBatch(ctx, uc.recompute.batchRepo, input.BatchID, input.UserID)
	if err != nil {
		return nil, err
	}

	if !batch.CanTransitionTo(entity.BatchStatusMatchingDone) {
		return nil, domainerror.NewBatchError(
			domainerror.ErrCodeInvalidBatchTransition,
			fmt.Sprintf("batch in status %q cannot be recalculated", batch.Status),
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
			"batch has no extracted invoices to recalculate",
			domainerror.ErrBatchHasNoInvoices,
		)
	}

	stored, err := uc.recompute.resultRepo.FindByBatch(ctx, input.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to find batch results: %w", err)
	}
	if len(stored) == 0 {
		return nil, domainerror.NewDeclarationError(
			domainerror.ErrCodeDeclarationNotAvailable,
			"batch has no computed results to recalculate",
			domainerror.ErrDeclarationNotAvailable,
		)
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
	defer func() {
		if err := uc.tracker.ClearProcessing(ctx, input.BatchID); err != nil {
			slog.Default().Error("Failed to release processing slot", "batchID", input.BatchID.String(), "error", err.Error())
		}
	}()

	asOf := time.Now().UTC()
	if input.AsOf != nil {
		asOf = *input.AsOf
	}

	detail := fmt.Sprintf("recalculation started, as of %s", asOf.Format("2006-01-02"))
	entry := entity.NewAuditEntry(batch.ID, batch.Status, batch.Status, detail, &input.UserID)
	if err := uc.recompute.auditRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create audit entry: %w", err)
	}

	outcome, err := uc.recompute.computeAndStore(ctx, batch, recomputeParams{
		ActorID:      &input.UserID,
		AsOf:         asOf,
		Procedure690: procedure690Set(input.Procedure690ICEs),
	})
	if err != nil {
		return nil, err
	}

	return &RecalculateOutput{
		Batch:              batch,
		ResultCount:        len(invoices),
		RequiresValidation: outcome.Required,
		Reasons:            outcome.Reasons,
	}, nil
}
