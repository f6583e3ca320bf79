// Package batch contains batch-related use cases.
package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// GetBatchInput represents the input for getting a batch.
type GetBatchInput struct {
	BatchID uuid.UUID
	UserID  uuid.UUID
}

// GetBatchOutput represents the output of getting a batch. Results is empty
// until the rules step of a processing run has completed.
type GetBatchOutput struct {
	Batch     *entity.Batch
	Documents []*entity.Document
	Results   []adapter.InvoiceResult
}

// GetBatchUseCase handles getting a batch with its documents and results.
type GetBatchUseCase struct {
	batchRepo    adapter.BatchRepository
	documentRepo adapter.DocumentRepository
	resultRepo   adapter.ResultRepository
}

// NewGetBatchUseCase creates a new GetBatchUseCase instance.
func NewGetBatchUseCase(
	batchRepo adapter.BatchRepository,
	documentRepo adapter.DocumentRepository,
	resultRepo adapter.ResultRepository,
) *GetBatchUseCase {
	return &GetBatchUseCase{
		batchRepo:    batchRepo,
		documentRepo: documentRepo,
		resultRepo:   resultRepo,
	}
}

// Execute performs the batch retrieval.
func (uc *GetBatchUseCase) Execute(ctx context.Context, input GetBatchInput) (*GetBatchOutput, error) {
	batch, err := findOwnedBatch(ctx, uc.batchRepo, input.BatchID, input.UserID)
	if err != nil {
		return nil, err
	}

	documents, err := uc.documentRepo.FindByBatch(ctx, input.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch documents: %w", err)
	}

	results, err := uc.resultRepo.FindByBatch(ctx, input.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch results: %w", err)
	}

	return &GetBatchOutput{
		Batch:     batch,
		Documents: documents,
		Results:   results,
	}, nil
}
