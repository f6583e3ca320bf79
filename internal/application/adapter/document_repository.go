// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// DocumentRepository defines the interface for document persistence operations.
type DocumentRepository interface {
	// Create creates a new document record.
	Create(ctx context.Context, document *entity.Document) error

	// FindByID retrieves a document by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)

	// FindByBatch retrieves all documents of a batch in upload order.
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*entity.Document, error)

	// FindByBatchAndKind retrieves the documents of a batch filtered by kind.
	FindByBatchAndKind(ctx context.Context, batchID uuid.UUID, kind entity.DocumentKind) ([]*entity.Document, error)

	// Update saves changes to a document.
	Update(ctx context.Context, document *entity.Document) error

	// DeleteByBatch removes all documents of a batch.
	DeleteByBatch(ctx context.Context, batchID uuid.UUID) error
}
