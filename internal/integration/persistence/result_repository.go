// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/integration/persistence/model"
)

// resultRepository implements the adapter.ResultRepository interface.
type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository creates a new batch result repository instance.
func NewResultRepository(db *gorm.DB) adapter.ResultRepository {
	return &resultRepository{
		db: db,
	}
}

// ReplaceForBatch replaces all stored results of a batch wholesale.
func (r *resultRepository) ReplaceForBatch(ctx context.Context, batchID uuid.UUID, results []adapter.InvoiceResult) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch_id = ?", batchID).Delete(&model.BatchResultModel{}).Error; err != nil {
			return err
		}
		if len(results) == 0 {
			return nil
		}

		models := make([]*model.BatchResultModel, len(results))
		for i, result := range results {
			models[i] = model.BatchResultFromComputation(batchID, result.InvoiceID, i, result.Matching, result.Legal)
		}
		return tx.Create(models).Error
	})
}

// FindByBatch retrieves the stored results of a batch in invoice order.
func (r *resultRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]adapter.InvoiceResult, error) {
	var models []model.BatchResultModel
	result := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("position ASC").
		Find(&models)

	if result.Error != nil {
		return nil, result.Error
	}

	results := make([]adapter.InvoiceResult, len(models))
	for i, m := range models {
		results[i] = adapter.InvoiceResult{
			InvoiceID: m.InvoiceID,
			Matching:  m.MatchingResult(),
			Legal:     m.LegalResult(),
		}
	}

	return results, nil
}

// DeleteByBatch removes all stored results of a batch.
func (r *resultRepository) DeleteByBatch(ctx context.Context, batchID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.BatchResultModel{}, "batch_id = ?", batchID)
	if result.Error != nil {
		return result.Error
	}
	return nil
}
