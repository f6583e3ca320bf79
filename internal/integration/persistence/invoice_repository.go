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

// invoiceRepository implements the adapter.InvoiceRepository interface.
type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new extracted-invoice repository instance.
func NewInvoiceRepository(db *gorm.DB) adapter.InvoiceRepository {
	return &invoiceRepository{
		db: db,
	}
}

// Create creates a new extracted invoice.
func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.ExtractedInvoice) error {
	invoiceModel := model.InvoiceFromEntity(invoice)
	result := r.db.WithContext(ctx).Create(invoiceModel)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// FindByID retrieves an extracted invoice by its ID.
func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ExtractedInvoice, error) {
	var invoiceModel model.InvoiceModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&invoiceModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrInvoiceNotFound
		}
		return nil, result.Error
	}
	return invoiceModel.ToEntity(), nil
}

// FindByBatch retrieves all extracted invoices of a batch in extraction order.
func (r *invoiceRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*entity.ExtractedInvoice, error) {
	var models []model.InvoiceModel
	result := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC, id ASC").
		Find(&models)

	if result.Error != nil {
		return nil, result.Error
	}

	invoices := make([]*entity.ExtractedInvoice, len(models))
	for i, m := range models {
		invoices[i] = m.ToEntity()
	}

	return invoices, nil
}

// Update saves changes to an extracted invoice.
func (r *invoiceRepository) Update(ctx context.Context, invoice *entity.ExtractedInvoice) error {
	invoiceModel := model.InvoiceFromEntity(invoice)
	result := r.db.WithContext(ctx).Save(invoiceModel)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// DeleteByBatch removes all extracted invoices of a batch.
func (r *invoiceRepository) DeleteByBatch(ctx context.Context, batchID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.InvoiceModel{}, "batch_id = ?", batchID)
	if result.Error != nil {
		return result.Error
	}
	return nil
}
