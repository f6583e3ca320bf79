// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// BatchRepository defines the interface for batch persistence operations.
type BatchRepository interface {
	// Create creates a new batch in the database.
	Create(ctx context.Context, batch *entity.Batch) error

	// FindByID retrieves a batch by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Batch, error)

	// FindByUser retrieves all batches for a given user, newest first.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Batch, error)

	// Update saves changes to a batch.
	Update(ctx context.Context, batch *entity.Batch) error

	// Delete removes a batch. Documents, extracted structures and results
	// belonging to the batch are removed by the persistence layer.
	Delete(ctx context.Context, id uuid.UUID) error
}
