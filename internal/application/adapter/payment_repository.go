// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// PaymentRepository defines the interface for extracted-payment persistence operations.
type PaymentRepository interface {
	// Create creates a new extracted payment.
	Create(ctx context.Context, payment *entity.ExtractedPayment) error

	// FindByBatch retrieves all extracted payments of a batch in extraction order.
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*entity.ExtractedPayment, error)

	// DeleteByBatch removes all extracted payments of a batch.
	DeleteByBatch(ctx context.Context, batchID uuid.UUID) error
}
