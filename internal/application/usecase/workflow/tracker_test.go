// Package workflow contains workflow-related use cases.
package workflow

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
)

func TestInMemoryProcessingTracker(t *testing.T) {
	ctx := context.Background()
	tracker := NewInMemoryProcessingTracker()
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
		if err := tracker.ClearProcessing(ctx, otherID); err != nil {
			t.Fatalf("unexpected error: %v", err)
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

func TestInMemoryProcessingTracker_SingleWinner(t *testing.T) {
	ctx := context.Background()
	tracker := NewInMemoryProcessingTracker()
	batchID := uuid.New()

	const goroutines = 50

	var wins int64
	var wg sync.WaitGroup
	wg.Add(goroutines)

	// All goroutines race for the same batch; exactly one may win.
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			ok, err := tracker.StartProcessing(ctx, batchID)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}

	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly 1 winner, got %d", wins)
	}
}

func TestInMemoryProcessingTracker_ThreadSafety(t *testing.T) {
	ctx := context.Background()
	tracker := NewInMemoryProcessingTracker()
	batchIDs := make([]uuid.UUID, 10)
	for i := range batchIDs {
		batchIDs[i] = uuid.New()
	}

	const goroutines = 100
	const iterations = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	// Run concurrent operations to verify no race conditions.
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()

			batchID := batchIDs[id%len(batchIDs)]

			for j := 0; j < iterations; j++ {
				switch j % 3 {
				case 0:
					tracker.StartProcessing(ctx, batchID)
				case 1:
					tracker.IsProcessing(ctx, batchID)
				case 2:
					tracker.ClearProcessing(ctx, batchID)
				}
			}
		}(i)
	}

	wg.Wait()
	// If we reach here without data race panic, the test passes.
}
