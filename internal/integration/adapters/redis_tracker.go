// Package adapters provides implementations for external service integrations.
package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dgi-compliance/backend/internal/application/adapter"
)

// DefaultProcessingTTL bounds how long a processing marker survives without
// being cleared. A worker that crashes mid-run would otherwise lock its batch
// forever.
const DefaultProcessingTTL = 30 * time.Minute

// RedisProcessingTracker enforces the single-active-task rule across multiple
// API instances by claiming a per-batch key with SET NX.
type RedisProcessingTracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProcessingTracker creates a Redis-backed processing tracker. A zero
// or negative ttl falls back to DefaultProcessingTTL.
func NewRedisProcessingTracker(client *redis.Client, ttl time.Duration) adapter.ProcessingTracker {
	if ttl <= 0 {
		ttl = DefaultProcessingTTL
	}
	return &RedisProcessingTracker{
		client: client,
		ttl:    ttl,
	}
}

func processingKey(batchID uuid.UUID) string {
	return "batch:processing:" + batchID.String()
}

// StartProcessing atomically claims the processing marker for a batch.
// Returns false when another task already holds it.
func (t *RedisProcessingTracker) StartProcessing(ctx context.Context, batchID uuid.UUID) (bool, error) {
	won, err := t.client.SetNX(ctx, processingKey(batchID), time.Now().UTC().Format(time.RFC3339), t.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim processing marker: %w", err)
	}
	return won, nil
}

// ClearProcessing releases the processing marker of a batch.
func (t *RedisProcessingTracker) ClearProcessing(ctx context.Context, batchID uuid.UUID) error {
	if err := t.client.Del(ctx, processingKey(batchID)).Err(); err != nil {
		return fmt.Errorf("failed to release processing marker: %w", err)
	}
	return nil
}

// IsProcessing checks whether a batch currently holds a processing marker.
func (t *RedisProcessingTracker) IsProcessing(ctx context.Context, batchID uuid.UUID) (bool, error) {
	count, err := t.client.Exists(ctx, processingKey(batchID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check processing marker: %w", err)
	}
	return count > 0, nil
}
