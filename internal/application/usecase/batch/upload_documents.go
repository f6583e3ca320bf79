// Package batch contains batch-related use cases.
package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
)

const (
	// MaxUploadSizeBytes is the maximum size of a single uploaded file.
	MaxUploadSizeBytes = 20 << 20

	// MaxDocumentsPerBatch caps the total number of documents a batch accepts.
	MaxDocumentsPerBatch = 200
)

// fileExtensions maps the accepted content types to the extension stored
// files are saved under.
var fileExtensions = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// UploadFile is a single file of an upload request.
type UploadFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// UploadDocumentsInput contains the data needed to attach documents to a batch.
type UploadDocumentsInput struct {
	BatchID uuid.UUID
	UserID  uuid.UUID
	Kind    entity.DocumentKind
	Files   []UploadFile
}

// UploadDocumentsOutput contains the created document records.
type UploadDocumentsOutput struct {
	Documents []*entity.Document
}

// UploadDocumentsUseCase handles storing uploaded invoice and payment files.
type UploadDocumentsUseCase struct {
	batchRepo    adapter.BatchRepository
	documentRepo adapter.DocumentRepository
	auditRepo    adapter.AuditRepository
	fileStore    adapter.FileStore
}

// NewUploadDocumentsUseCase creates a new UploadDocumentsUseCase.
func NewUploadDocumentsUseCase(
	batchRepo adapter.BatchRepository,
	documentRepo adapter.DocumentRepository,
	auditRepo adapter.AuditRepository,
	fileStore adapter.FileStore,
) *UploadDocumentsUseCase {
	return &UploadDocumentsUseCase{
		batchRepo:    batchRepo,
		documentRepo: documentRepo,
		auditRepo:    auditRepo,
		fileStore:    fileStore,
	}
}

// Execute stores the uploaded files and creates a document record per file.
// The whole upload is rejected before anything is stored when any file fails
// validation, so a request never half-succeeds.
func (uc *UploadDocumentsUseCase) Execute(ctx context.Context, input UploadDocumentsInput) (*UploadDocumentsOutput, error) {
	if len(input.Files) == 0 {
		return nil, domainerror.NewDocumentError(
			domainerror.ErrCodeEmptyUpload,
			"upload request contains no files",
			domainerror.ErrEmptyUpload,
		)
	}

	batch, err := findOwnedBatch(ctx, uc.batchRepo, input.BatchID, input.UserID)
	if err != nil {
		return nil, err
	}

	if !batch.CanTransitionTo(entity.BatchStatusUploading) {
		return nil, domainerror.NewBatchError(
			domainerror.ErrCodeInvalidBatchTransition,
			fmt.Sprintf("batch in status %q no longer accepts documents", batch.Status),
			domainerror.ErrInvalidBatchTransition,
		)
	}

	existing, err := uc.documentRepo.FindByBatch(ctx, input.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to count batch documents: %w", err)
	}
	if len(existing)+len(input.Files) > MaxDocumentsPerBatch {
		return nil, domainerror.NewDocumentError(
			domainerror.ErrCodeTooManyDocuments,
			fmt.Sprintf("batch cannot hold more than %d documents", MaxDocumentsPerBatch),
			domainerror.ErrTooManyDocuments,
		)
	}

	for _, file := range input.Files {
		if _, ok := fileExtensions[file.ContentType]; !ok {
			return nil, domainerror.NewDocumentError(
				domainerror.ErrCodeUnsupportedFileType,
				fmt.Sprintf("file %q has unsupported type %q, expected PDF, JPEG or PNG", file.FileName, file.ContentType),
				domainerror.ErrUnsupportedFileType,
			)
		}
		if int64(len(file.Content)) > MaxUploadSizeBytes {
			return nil, domainerror.NewDocumentError(
				domainerror.ErrCodeFileTooLarge,
				fmt.Sprintf("file %q exceeds the %d MB limit", file.FileName, MaxUploadSizeBytes>>20),
				domainerror.ErrFileTooLarge,
			)
		}
	}

	documents := make([]*entity.Document, 0, len(input.Files))
	for _, file := range input.Files {
		key := fmt.Sprintf("%s/%s%s", input.BatchID, uuid.New(), fileExtensions[file.ContentType])

		path, err := uc.fileStore.Save(ctx, key, file.Content, file.ContentType)
		if err != nil {
			return nil, domainerror.NewDocumentError(
				domainerror.ErrCodeStorageFailed,
				fmt.Sprintf("failed to store file %q", file.FileName),
				err,
			)
		}

		document := entity.NewDocument(input.BatchID, input.Kind, file.FileName, path, file.ContentType, int64(len(file.Content)))
		if err := uc.documentRepo.Create(ctx, document); err != nil {
			return nil, fmt.Errorf("failed to create document record: %w", err)
		}
		documents = append(documents, document)
	}

	previous := batch.Status
	batch.TransitionTo(entity.BatchStatusUploading, "documents uploaded")
	kindCount := len(documents)
	for _, doc := range existing {
		if doc.Kind == input.Kind {
			kindCount++
		}
	}
	switch input.Kind {
	case entity.DocumentKindInvoice:
		batch.InvoiceCount = kindCount
	case entity.DocumentKindPayment:
		batch.PaymentCount = kindCount
	}
	if err := uc.batchRepo.Update(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to update batch: %w", err)
	}

	entry := entity.NewAuditEntry(
		batch.ID,
		previous,
		batch.Status,
		fmt.Sprintf("uploaded %d %s document(s)", len(documents), input.Kind),
		&input.UserID,
	)
	if err := uc.auditRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create audit entry: %w", err)
	}

	return &UploadDocumentsOutput{Documents: documents}, nil
}
