// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// NotificationQueueRepository defines the interface for notification queue persistence.
type NotificationQueueRepository interface {
	// Create adds a new notification job to the queue.
	Create(ctx context.Context, job *entity.NotificationJob) error

	// GetPendingJobs retrieves jobs ready to be processed, ordered by scheduled_at.
	GetPendingJobs(ctx context.Context, limit int) ([]*entity.NotificationJob, error)

	// Update saves changes to a notification job.
	Update(ctx context.Context, job *entity.NotificationJob) error

	// DeleteOldSentJobs removes sent jobs older than the given number of days
	// and reports how many rows went away.
	DeleteOldSentJobs(ctx context.Context, olderThanDays int) (int64, error)
}
