// Package batch contains batch-related use cases.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
)

// GetDocumentInput contains the data needed to download a stored document.
type GetDocumentInput struct {
	BatchID    uuid.UUID
	DocumentID uuid.UUID
	UserID     uuid.UUID
}

// GetDocumentOutput contains the stored file and the metadata needed to serve it.
type GetDocumentOutput struct {
	FileName    string
	ContentType string
	Content     []byte
}

// GetDocumentUseCase handles serving a stored document file back to its owner.
type GetDocumentUseCase struct {
	batchRepo    adapter.BatchRepository
	documentRepo adapter.DocumentRepository
	fileStore    adapter.FileStore
}

// NewGetDocumentUseCase creates a new GetDocumentUseCase.
func NewGetDocumentUseCase(
	batchRepo adapter.BatchRepository,
	documentRepo adapter.DocumentRepository,
	fileStore adapter.FileStore,
) *GetDocumentUseCase {
	return &GetDocumentUseCase{
		batchRepo:    batchRepo,
		documentRepo: documentRepo,
		fileStore:    fileStore,
	}
}

// Execute loads the stored file of a document belonging to the batch.
func (uc *GetDocumentUseCase) Execute(ctx context.Context, input GetDocumentInput) (*GetDocumentOutput, error) {
	if _, err := findOwnedBatch(ctx, uc.batchRepo, input.BatchID, input.UserID); err != nil {
		return nil, err
	}

	document, err := uc.documentRepo.FindByID(ctx, input.DocumentID)
	if err != nil {
		if errors.Is(err, domainerror.ErrDocumentNotFound) {
			return nil, domainerror.NewDocumentError(
				domainerror.ErrCodeDocumentNotFound,
				"document not found",
				domainerror.ErrDocumentNotFound,
			)
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	if document.BatchID != input.BatchID {
		return nil, domainerror.NewDocumentError(
			domainerror.ErrCodeDocumentNotFound,
			"document does not belong to this batch",
			domainerror.ErrDocumentNotFound,
		)
	}

	content, err := uc.fileStore.Load(ctx, document.StoragePath)
	if err != nil {
		return nil, domainerror.NewDocumentError(
			domainerror.ErrCodeStorageFailed,
			fmt.Sprintf("failed to load stored file for document %s", document.ID),
			err,
		)
	}

	return &GetDocumentOutput{
		FileName:    document.FileName,
		ContentType: document.ContentType,
		Content:     content,
	}, nil
}
