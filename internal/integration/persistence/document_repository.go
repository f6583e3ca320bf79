// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/integration/persistence/model"
)

// documentRepository implements the adapter.DocumentRepository interface.
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository instance.
func NewDocumentRepository(db *gorm.DB) adapter.DocumentRepository {
	return &documentRepository{
		db: db,
	}
}

// Create creates a new document record.
func (r *documentRepository) Create(ctx context.Context, document *entity.Document) error {
	documentModel := model.DocumentFromEntity(document)
	result := r.db.WithContext(ctx).Create(documentModel)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// FindByID retrieves a document by its ID.
func (r *documentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	var documentModel model.DocumentModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&documentModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrDocumentNotFound
		}
		return nil, result.Error
	}
	return documentModel.ToEntity(), nil
}

// FindByBatch retrieves all documents of a batch in upload order.
func (r *documentRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*entity.Document, error) {
	var models []model.DocumentModel
	result := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC, id ASC").
		Find(&models)

	if result.Error != nil {
		return nil, result.Error
	}

	documents := make([]*entity.Document, len(models))
	for i, m := range models {
		documents[i] = m.ToEntity()
	}

	return documents, nil
}

// FindByBatchAndKind retrieves the documents of a batch filtered by kind.
func (r *documentRepository) FindByBatchAndKind(ctx context.Context, batchID uuid.UUID, kind entity.DocumentKind) ([]*entity.Document, error) {
	var models []model.DocumentModel
	result := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Where("kind = ?", string(kind)).
		Order("created_at ASC, id ASC").
		Find(&models)

	if result.Error != nil {
		return nil, result.Error
	}

	documents := make([]*entity.Document, len(models))
	for i, m := range models {
		documents[i] = m.ToEntity()
	}

	return documents, nil
}

// Update saves changes to a document.
func (r *documentRepository) Update(ctx context.Context, document *entity.Document) error {
	documentModel := model.DocumentFromEntity(document)
	result := r.db.WithContext(ctx).Save(documentModel)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// DeleteByBatch removes all documents of a batch.
func (r *documentRepository) DeleteByBatch(ctx context.Context, batchID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.DocumentModel{}, "batch_id = ?", batchID)
	if result.Error != nil {
		return result.Error
	}
	return nil
}
