// Package workflow contains workflow-related use cases.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
)

// ValidateBatchInput contains the data needed to sign off a reviewed batch.
type ValidateBatchInput struct {
	BatchID uuid.UUID
	UserID  uuid.UUID

	// Note is an optional reviewer comment recorded in the audit trail.
	Note string
}

// ValidateBatchOutput represents the validated batch.
type ValidateBatchOutput struct {
	Batch *entity.Batch
}

// ValidateBatchUseCase handles the reviewer sign-off that releases a batch
// held by the validation gate.
type ValidateBatchUseCase struct {
	batchRepo adapter.BatchRepository
	auditRepo adapter.AuditRepository
	tracker   adapter.ProcessingTracker
}

// NewValidateBatchUseCase creates a new ValidateBatchUseCase.
func NewValidateBatchUseCase(
	batchRepo adapter.BatchRepository,
	auditRepo adapter.AuditRepository,
	tracker adapter.ProcessingTracker,
) *ValidateBatchUseCase {
	return &ValidateBatchUseCase{
		batchRepo: batchRepo,
		auditRepo: auditRepo,
		tracker:   tracker,
	}
}

// Execute marks a validation_pending batch as validated by the caller.
func (uc *ValidateBatchUseCase) Execute(ctx context.Context, input ValidateBatchInput) (*ValidateBatchOutput, error) {
	batch, err := findOwnedBatch(ctx, uc.batchRepo, input.BatchID, input.UserID)
	if err != nil {
		return nil, err
	}

	if batch.Status != entity.BatchStatusValidationPending {
		return nil, domainerror.NewBatchError(
			domainerror.ErrCodeBatchNotReadyValidate,
			fmt.Sprintf("batch in status %q is not awaiting validation", batch.Status),
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

	previous := batch.Status
	batch.TransitionTo(entity.BatchStatusValidated, stepValidated)
	batch.ValidatedBy = &input.UserID
	if err := uc.batchRepo.Update(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to update batch: %w", err)
	}

	detail := "validated"
	if input.Note != "" {
		detail = fmt.Sprintf("validated: %s", input.Note)
	}
	entry := entity.NewAuditEntry(batch.ID, previous, batch.Status, detail, &input.UserID)
	if err := uc.auditRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create audit entry: %w", err)
	}

	return &ValidateBatchOutput{Batch: batch}, nil
}
