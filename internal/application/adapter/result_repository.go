// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// InvoiceResult pairs one invoice with its matching outcome and its legal
// computation.
type InvoiceResult struct {
	InvoiceID uuid.UUID
	Matching  valueobject.MatchingResult
	Legal     valueobject.LegalResult
}

// ResultRepository defines the interface for persisting computed batch results.
type ResultRepository interface {
	// ReplaceForBatch replaces all stored results of a batch wholesale.
	// Recomputation never merges into previous results.
	ReplaceForBatch(ctx context.Context, batchID uuid.UUID, results []InvoiceResult) error

	// FindByBatch retrieves the stored results of a batch in invoice order.
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]InvoiceResult, error)

	// DeleteByBatch removes all stored results of a batch.
	DeleteByBatch(ctx context.Context, batchID uuid.UUID) error
}
