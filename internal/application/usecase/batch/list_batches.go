// Package batch contains batch-related use cases.
package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// ListBatchesInput represents the input for listing a user's batches.
type ListBatchesInput struct {
	UserID uuid.UUID
}

// ListBatchesOutput represents the output of listing batches, newest first.
type ListBatchesOutput struct {
	Batches []*entity.Batch
}

// ListBatchesUseCase handles listing the batches of a user.
type ListBatchesUseCase struct {
	batchRepo adapter.BatchRepository
}

// NewListBatchesUseCase creates a new ListBatchesUseCase instance.
func NewListBatchesUseCase(batchRepo adapter.BatchRepository) *ListBatchesUseCase {
	return &ListBatchesUseCase{
		batchRepo: batchRepo,
	}
}

// Execute performs the batch listing.
func (uc *ListBatchesUseCase) Execute(ctx context.Context, input ListBatchesInput) (*ListBatchesOutput, error) {
	batches, err := uc.batchRepo.FindByUser(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	return &ListBatchesOutput{Batches: batches}, nil
}
