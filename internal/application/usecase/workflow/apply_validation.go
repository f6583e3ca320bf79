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
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// ApplyValidationInput contains the reviewer corrections for a batch.
type ApplyValidationInput struct {
	BatchID     uuid.UUID
	UserID      uuid.UUID
	Corrections []valueobject.CorrectionSet

	// AsOf is the reference date for the recomputation. Nil keeps the date
	// of the previous run.
	AsOf *time.Time

	// Procedure690ICEs lists suppliers under an Article 690 collective
	// procedure for the recomputation.
	Procedure690ICEs []string
}

// ApplyValidationOutput represents the state of the batch after the
// corrections were applied and the results recomputed.
type ApplyValidationOutput struct {
	Batch             *entity.Batch
	CorrectedInvoices int

	// RequiresValidation reports whether the recomputed results still need
	// review; Reasons explains why.
	RequiresValidation bool
	Reasons            []string
}

// ApplyValidationUseCase handles applying reviewer corrections to the
// extracted invoices and recomputing the batch results from them.
type ApplyValidationUseCase struct {
	recompute *recomputer
	tracker   adapter.ProcessingTracker
}

// NewApplyValidationUseCase creates a new ApplyValidationUseCase.
func NewApplyValidationUseCase(
	batchRepo adapter.BatchRepository,
	invoiceRepo adapter.InvoiceRepository,
	paymentRepo adapter.PaymentRepository,
	resultRepo adapter.ResultRepository,
	auditRepo adapter.AuditRepository,
	matcher *matching.Engine,
	rulesEngine *rules.Engine,
	tracker adapter.ProcessingTracker,
) *ApplyValidationUseCase {
	return &ApplyValidationUseCase{
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

// Execute applies the corrections and recomputes matching, legal results and
// the validation gate. The gate decides again whether review is still needed;
// corrections never force-validate a batch.
func (uc *ApplyValidationUseCase) Execute(ctx context.Context, input ApplyValidationInput) (*ApplyValidationOutput, error) {
	batch, err := findOwnedBatch(ctx, uc.recompute.batchRepo, input.BatchID, input.UserID)
	if err != nil {
		return nil, err
	}

	if batch.Status != entity.BatchStatusRulesCalculated && batch.Status != entity.BatchStatusValidationPending {
		return nil, domainerror.NewBatchError(
			domainerror.ErrCodeBatchNotReadyValidate,
			fmt.Sprintf("batch in status %q cannot take corrections", batch.Status),
			domainerror.ErrBatchNotReadyForValidation,
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

	corrected, err := uc.applyCorrections(ctx, input.BatchID, input.Corrections)
	if err != nil {
		return nil, err
	}

	if corrected > 0 {
		detail := fmt.Sprintf("applied corrections to %d invoices", corrected)
		entry := entity.NewAuditEntry(batch.ID, batch.Status, batch.Status, detail, &input.UserID)
		if err := uc.recompute.auditRepo.Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to create audit entry: %w", err)
		}
	}

	asOf := time.Now().UTC()
	if input.AsOf != nil {
		asOf = *input.AsOf
	} else if batch.AsOfDate != nil {
		asOf = *batch.AsOfDate
	}

	outcome, err := uc.recompute.computeAndStore(ctx, batch, recomputeParams{
		ActorID:      &input.UserID,
		AsOf:         asOf,
		Procedure690: procedure690Set(input.Procedure690ICEs),
	})
	if err != nil {
		return nil, err
	}

	return &ApplyValidationOutput{
		Batch:              batch,
		CorrectedInvoices:  corrected,
		RequiresValidation: outcome.Required,
		Reasons:            outcome.Reasons,
	}, nil
}

// applyCorrections merges and applies each correction set to its invoice.
// Returns the number of invoices changed.
func (uc *ApplyValidationUseCase) applyCorrections(ctx context.Context, batchID uuid.UUID, sets []valueobject.CorrectionSet) (int, error) {
	if len(sets) == 0 {
		return 0, nil
	}

	invoices, err := uc.recompute.invoiceRepo.FindByBatch(ctx, batchID)
	if err != nil {
		return 0, fmt.Errorf("failed to find batch invoices: %w", err)
	}
	byID := make(map[uuid.UUID]*entity.ExtractedInvoice, len(invoices))
	for _, invoice := range invoices {
		byID[invoice.ID] = invoice
	}

	corrected := 0
	for _, set := range sets {
		invoiceID, err := uuid.Parse(set.InvoiceID)
		if err != nil {
			return 0, domainerror.NewBatchError(
				domainerror.ErrCodeInvalidCorrection,
				fmt.Sprintf("correction references malformed invoice id %q", set.InvoiceID),
				domainerror.ErrInvalidCorrection,
			)
		}
		invoice, ok := byID[invoiceID]
		if !ok {
			return 0, domainerror.NewBatchError(
				domainerror.ErrCodeInvalidCorrection,
				fmt.Sprintf("correction references unknown invoice %s", invoiceID),
				domainerror.ErrInvalidCorrection,
			)
		}

		merged, err := valueobject.MergeCorrections(set.Corrections)
		if err != nil {
			return 0, domainerror.NewBatchError(
				domainerror.ErrCodeInvalidCorrection,
				err.Error(),
				domainerror.ErrInvalidCorrection,
			)
		}
		if len(merged) == 0 {
			continue
		}

		invoice.ApplyCorrections(merged)
		if err := uc.recompute.invoiceRepo.Update(ctx, invoice); err != nil {
			return 0, fmt.Errorf("failed to update invoice: %w", err)
		}
		corrected++
	}

	return corrected, nil
}
