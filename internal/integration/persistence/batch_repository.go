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

// batchRepository implements the adapter.BatchRepository interface.
type batchRepository struct {
	db *gorm.DB
}

// NewBatchRepository creates a new batch repository instance.
func NewBatchRepository(db *gorm.DB) adapter.BatchRepository {
	return &batchRepository{
		db: db,
	}
}

// Create creates a new batch in the database.
func (r *batchRepository) Create(ctx context.Context, batch *entity.Batch) error {
	batchModel := model.BatchFromEntity(batch)
	result := r.db.WithContext(ctx).Create(batchModel)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// FindByID retrieves a batch by its ID.
func (r *batchRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Batch, error) {
	var batchModel model.BatchModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&batchModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrBatchNotFound
		}
		return nil, result.Error
	}
	return batchModel.ToEntity(), nil
}

// FindByUser retrieves all batches for a given user, newest first.
func (r *batchRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Batch, error) {
	var models []model.BatchModel
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models)

	if result.Error != nil {
		return nil, result.Error
	}

	batches := make([]*entity.Batch, len(models))
	for i, m := range models {
		batches[i] = m.ToEntity()
	}

	return batches, nil
}

// Update saves changes to a batch.
func (r *batchRepository) Update(ctx context.Context, batch *entity.Batch) error {
	batchModel := model.BatchFromEntity(batch)
	result := r.db.WithContext(ctx).Save(batchModel)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// Delete removes a batch together with its documents, extracted structures,
// results and audit trail.
func (r *batchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch_id = ?", id).Delete(&model.BatchResultModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("batch_id = ?", id).Delete(&model.InvoiceModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("batch_id = ?", id).Delete(&model.PaymentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("batch_id = ?", id).Delete(&model.DocumentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("batch_id = ?", id).Delete(&model.AuditEntryModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.BatchModel{}, "id = ?", id).Error
	})
}
