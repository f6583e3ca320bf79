// Package batch contains batch-related use cases.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
)

// findOwnedBatch loads a batch and checks that the caller owns it.
func findOwnedBatch(ctx context.Context, repo adapter.BatchRepository, batchID, userID uuid.UUID) (*entity.Batch, error) {
	batch, err := repo.FindByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, domainerror.ErrBatchNotFound) {
			return nil, domainerror.NewBatchError(
				domainerror.ErrCodeBatchNotFound,
				"batch not found",
				domainerror.ErrBatchNotFound,
			)
		}
		return nil, fmt.Errorf("failed to find batch: %w", err)
	}

	if batch.UserID != userID {
		return nil, domainerror.NewBatchError(
			domainerror.ErrCodeNotAuthorizedBatch,
			"not authorized to access this batch",
			domainerror.ErrNotAuthorizedToAccessBatch,
		)
	}

	return batch, nil
}
