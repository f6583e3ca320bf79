// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// InvoiceRepository defines the interface for extracted-invoice persistence operations.
type InvoiceRepository interface {
	// Create creates a new extracted invoice.
	Create(ctx context.Context, invoice *entity.ExtractedInvoice) error

	// FindByID retrieves an extracted invoice by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ExtractedInvoice, error)

	// FindByBatch retrieves all extracted invoices of a batch in extraction order.
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*entity.ExtractedInvoice, error)

	// Update saves changes to an extracted invoice.
	Update(ctx context.Context, invoice *entity.ExtractedInvoice) error

	// DeleteByBatch removes all extracted invoices of a batch.
	DeleteByBatch(ctx context.Context, batchID uuid.UUID) error
}
