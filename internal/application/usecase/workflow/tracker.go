// Package workflow contains workflow-related use cases.
package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryProcessingTracker is a process-local implementation of
// adapter.ProcessingTracker. It guarantees at most one active workflow task
// per batch within a single instance; multi-instance deployments use the
// Redis tracker instead.
type InMemoryProcessingTracker struct {
	mu         sync.RWMutex
	processing map[uuid.UUID]time.Time
}

// NewInMemoryProcessingTracker creates a new in-memory processing tracker.
func NewInMemoryProcessingTracker() *InMemoryProcessingTracker {
	return &InMemoryProcessingTracker{
		processing: make(map[uuid.UUID]time.Time),
	}
}

// StartProcessing marks a batch as having an active task. The check and the
// set happen under one lock so two concurrent callers can never both win.
func (t *InMemoryProcessingTracker) StartProcessing(_ context.Context, batchID uuid.UUID) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.processing[batchID]; ok {
		return false, nil
	}
	t.processing[batchID] = time.Now().UTC()
	return true, nil
}

// ClearProcessing releases the active task marker of a batch.
func (t *InMemoryProcessingTracker) ClearProcessing(_ context.Context, batchID uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.processing, batchID)
	return nil
}

// IsProcessing checks whether a batch has an active workflow task.
func (t *InMemoryProcessingTracker) IsProcessing(_ context.Context, batchID uuid.UUID) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.processing[batchID]
	return ok, nil
}
