// Package batch contains batch-related use cases.
package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
)

// DeleteBatchInput represents the input for deleting a batch.
type DeleteBatchInput struct {
	BatchID uuid.UUID
	UserID  uuid.UUID
}

// DeleteBatchOutput represents the output of deleting a batch.
type DeleteBatchOutput struct {
	DeletedFiles int
}

// DeleteBatchUseCase handles batch deletion, including stored files.
type DeleteBatchUseCase struct {
	batchRepo    adapter.BatchRepository
	documentRepo adapter.DocumentRepository
	fileStore    adapter.FileStore
}

// NewDeleteBatchUseCase creates a new DeleteBatchUseCase instance.
func NewDeleteBatchUseCase(
	batchRepo adapter.BatchRepository,
	documentRepo adapter.DocumentRepository,
	fileStore adapter.FileStore,
) *DeleteBatchUseCase {
	return &DeleteBatchUseCase{
		batchRepo:    batchRepo,
		documentRepo: documentRepo,
		fileStore:    fileStore,
	}
}

// Execute performs the batch deletion. Validated and exported batches are
// part of the declaration audit trail and cannot be deleted.
func (uc *DeleteBatchUseCase) Execute(ctx context.Context, input DeleteBatchInput) (*DeleteBatchOutput, error) {
	batch, err := findOwnedBatch(ctx, uc.batchRepo, input.BatchID, input.UserID)
	if err != nil {
		return nil, err
	}

	if !batch.IsDeletable() {
		return nil, domainerror.NewBatchError(
			domainerror.ErrCodeBatchNotDeletable,
			fmt.Sprintf("batch in status %q can no longer be deleted", batch.Status),
			domainerror.ErrBatchNotDeletable,
		)
	}

	documents, err := uc.documentRepo.FindByBatch(ctx, input.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch documents: %w", err)
	}

	// Stored files are removed best-effort; a leftover file must not block
	// the deletion of the batch records.
	deleted := 0
	for _, document := range documents {
		if document.StoragePath == "" {
			continue
		}
		if err := uc.fileStore.Delete(ctx, document.StoragePath); err != nil {
			slog.Warn("Failed to delete stored document file",
				"batchID", input.BatchID.String(),
				"documentID", document.ID.String(),
				"path", document.StoragePath,
				"error", err.Error(),
			)
			continue
		}
		deleted++
	}

	if err := uc.batchRepo.Delete(ctx, input.BatchID); err != nil {
		return nil, fmt.Errorf("failed to delete batch: %w", err)
	}

	return &DeleteBatchOutput{DeletedFiles: deleted}, nil
}
