// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"
)

// ProcessingTracker enforces the single-active-task invariant for batch
// workflow steps: at most one processing attempt runs per batch at a time.
type ProcessingTracker interface {
	// StartProcessing atomically marks a batch as having an active workflow
	// task. Returns false when the batch already has one.
	StartProcessing(ctx context.Context, batchID uuid.UUID) (bool, error)

	// ClearProcessing releases the active task marker of a batch.
	ClearProcessing(ctx context.Context, batchID uuid.UUID) error

	// IsProcessing reports whether a batch has an active workflow task.
	IsProcessing(ctx context.Context, batchID uuid.UUID) (bool, error)
}
