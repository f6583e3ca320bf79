// Package workflow contains workflow-related use cases.
package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// GetStatusInput contains the data needed to poll the processing state of a batch.
type GetStatusInput struct {
	BatchID uuid.UUID
	UserID  uuid.UUID
}

// GetStatusOutput represents the current processing state of a batch.
type GetStatusOutput struct {
	Batch *entity.Batch

	// Processing reports whether a workflow task is active right now. It can
	// be true while the status already shows a settled value, for example
	// during a synchronous recalculation.
	Processing bool
}

// GetStatusUseCase handles polling the workflow state of a batch.
type GetStatusUseCase struct {
	batchRepo adapter.BatchRepository
	tracker   adapter.ProcessingTracker
}

// NewGetStatusUseCase creates a new GetStatusUseCase.
func NewGetStatusUseCase(batchRepo adapter.BatchRepository, tracker adapter.ProcessingTracker) *GetStatusUseCase {
	return &GetStatusUseCase{
		batchRepo: batchRepo,
		tracker:   tracker,
	}
}

// Execute returns the batch with its live processing flag.
func (uc *GetStatusUseCase) Execute(ctx context.Context, input GetStatusInput) (*GetStatusOutput, error) {
	batch, err := findOwnedBatch(ctx, uc.batchRepo, input.BatchID, input.UserID)
	if err != nil {
		return nil, err
	}

	processing, err := uc.tracker.IsProcessing(ctx, input.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to check processing state: %w", err)
	}

	return &GetStatusOutput{
		Batch:      batch,
		Processing: processing,
	}, nil
}
