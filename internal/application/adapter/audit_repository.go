// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// AuditRepository defines the interface for the append-only batch audit trail.
type AuditRepository interface {
	// Create appends an audit entry. Entries are never updated or deleted
	// while their batch exists.
	Create(ctx context.Context, entry *entity.AuditEntry) error

	// FindByBatch retrieves the audit trail of a batch, oldest first.
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*entity.AuditEntry, error)

	// DeleteByBatch removes the audit trail of a deleted batch.
	DeleteByBatch(ctx context.Context, batchID uuid.UUID) error
}
