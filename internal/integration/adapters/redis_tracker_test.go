// Package adapters provides implementations for external service integrations.
package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestRedisTracker(t *testing.T, ttl time.Duration) (*RedisProcessingTracker, *miniredis.Miniredis) {
	t.Helper()

	miniRedis, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(miniRedis.Close)

	client := redis.NewClient(&redis.Options{Addr: miniRedis.Addr()})
	t.Cleanup(func() { client.Close() })

	tracker := NewRedisProcessingTracker(client, ttl).(*RedisProcessingTracker)
	return tracker, miniRedis
}

func TestRedisProcessingTracker(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestRedisTracker(t, time.Minute)
	batchID := uuid.New()

	t.Run("IsProcessing returns false for unknown batch", func(t *testing.T) {
		processing, err := tracker.IsProcessing(ctx, batchID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if processing {
			t.Error("expected IsProcessing to return false for unknown batch")
		}
	})

	t.Run("StartProcessing acquires the marker", func(t *testing.T) {
		ok, err := tracker.StartProcessing(ctx, batchID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Error("expected StartProcessing to succeed for idle batch")
		}

		processing, err := tracker.IsProcessing(ctx, batchID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !processing {
			t.Error("expected IsProcessing to return true after StartProcessing")
		}
	})

	t.Run("StartProcessing refuses a second task for the same batch", func(t *testing.T) {
		ok, err := tracker.StartProcessing(ctx, batchID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected StartProcessing to refuse while a task is active")
		}
	})

	t.Run("tracking is batch-specific", func(t *testing.T) {
		otherID := uuid.New()
		ok, err := tracker.StartProcessing(ctx, otherID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Error("expected StartProcessing to succeed for a different batch")
		}
	})

	t.Run("ClearProcessing releases the marker", func(t *testing.T) {
		if err := tracker.ClearProcessing(ctx, batchID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		processing, err := tracker.IsProcessing(ctx, batchID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if processing {
			t.Error("expected IsProcessing to return false after ClearProcessing")
		}

		ok, err := tracker.StartProcessing(ctx, batchID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Error("expected StartProcessing to succeed after ClearProcessing")
		}
	})

	t.Run("ClearProcessing on unknown batch does not fail", func(t *testing.T) {
		if err := tracker.ClearProcessing(ctx, uuid.New()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestRedisProcessingTracker_MarkerExpires(t *testing.T) {
	ctx := context.Background()
	ttl := 5 * time.Minute
	tracker, miniRedis := newTestRedisTracker(t, ttl)
	batchID := uuid.New()

	ok, err := tracker.StartProcessing(ctx, batchID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected StartProcessing to succeed for idle batch")
	}

	// A crashed worker never calls ClearProcessing; the TTL must free the
	// batch on its own.
	miniRedis.FastForward(ttl + time.Second)

	processing, err := tracker.IsProcessing(ctx, batchID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processing {
		t.Error("expected marker to expire after the TTL")
	}

	ok, err = tracker.StartProcessing(ctx, batchID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected StartProcessing to succeed after the marker expired")
	}
}

func TestNewRedisProcessingTracker_DefaultTTL(t *testing.T) {
	tracker, _ := newTestRedisTracker(t, 0)
	if tracker.ttl != DefaultProcessingTTL {
		t.Errorf("expected default TTL %v, got %v", DefaultProcessingTTL, tracker.ttl)
	}
}
