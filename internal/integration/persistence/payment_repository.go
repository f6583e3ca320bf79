// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	"github.com/dgi-compliance/backend/internal/integration/persistence/model"
)

// paymentRepository implements the adapter.PaymentRepository interface.
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new extracted-payment repository instance.
func NewPaymentRepository(db *gorm.DB) adapter.PaymentRepository {
	return &paymentRepository{
		db: db,
	}
}

// Create creates a new extracted payment.
func (r *paymentRepository) Create(ctx context.Context, payment *entity.ExtractedPayment) error {
	paymentModel := model.PaymentFromEntity(payment)
	result := r.db.WithContext(ctx).Create(paymentModel)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// FindByBatch retrieves all extracted payments of a batch in extraction order.
func (r *paymentRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*entity.ExtractedPayment, error) {
	var models []model.PaymentModel
	result := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC, id ASC").
		Find(&models)

	if result.Error != nil {
		return nil, result.Error
	}

	payments := make([]*entity.ExtractedPayment, len(models))
	for i, m := range models {
		payments[i] = m.ToEntity()
	}

	return payments, nil
}

// DeleteByBatch removes all extracted payments of a batch.
func (r *paymentRepository) DeleteByBatch(ctx context.Context, batchID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.PaymentModel{}, "batch_id = ?", batchID)
	if result.Error != nil {
		return result.Error
	}
	return nil
}
