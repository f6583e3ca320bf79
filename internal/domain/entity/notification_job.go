package entity

import (
	"time"

	"github.com/google/uuid"
)

// NotificationStatus represents the status of a notification in the queue.
type NotificationStatus string

const (
	NotificationStatusPending    NotificationStatus = "pending"
	NotificationStatusProcessing NotificationStatus = "processing"
	NotificationStatusSent       NotificationStatus = "sent"
	NotificationStatusFailed     NotificationStatus = "failed"
)

// NotificationTemplateType identifies the email template used for a
// notification.
type NotificationTemplateType string

const (
	TemplateBatchProcessed      NotificationTemplateType = "batch_processed"
	TemplateValidationRequired  NotificationTemplateType = "validation_required"
	TemplateBatchFailed         NotificationTemplateType = "batch_failed"
	TemplateDeclarationExported NotificationTemplateType = "declaration_exported"
)

// NotificationJob represents an email notification waiting in the queue.
type NotificationJob struct {
	ID             uuid.UUID
	BatchID        *uuid.UUID
	TemplateType   NotificationTemplateType
	RecipientEmail string
	RecipientName  string
	Subject        string
	TemplateData   map[string]interface{}
	Status         NotificationStatus
	Attempts       int
	MaxAttempts    int
	LastError      string
	ProviderID     string
	CreatedAt      time.Time
	ScheduledAt    time.Time
	ProcessedAt    *time.Time
}

// NewNotificationJob creates a new NotificationJob with default values.
func NewNotificationJob(templateType NotificationTemplateType, batchID *uuid.UUID, recipientEmail, recipientName, subject string, data map[string]interface{}) *NotificationJob {
	now := time.Now().UTC()
	return &NotificationJob{
		ID:             uuid.New(),
		BatchID:        batchID,
		TemplateType:   templateType,
		RecipientEmail: recipientEmail,
		RecipientName:  recipientName,
		Subject:        subject,
		TemplateData:   data,
		Status:         NotificationStatusPending,
		Attempts:       0,
		MaxAttempts:    3,
		CreatedAt:      now,
		ScheduledAt:    now,
	}
}

// MarkProcessing marks the notification as currently being processed.
func (n *NotificationJob) MarkProcessing() {
	n.Status = NotificationStatusProcessing
}

// MarkSent marks the notification as successfully sent.
func (n *NotificationJob) MarkSent(providerID string) {
	n.Status = NotificationStatusSent
	n.ProviderID = providerID
	now := time.Now().UTC()
	n.ProcessedAt = &now
}

// MarkFailed marks the notification as failed and schedules a retry if
// attempts remain.
func (n *NotificationJob) MarkFailed(err error, permanent bool) {
	n.Attempts++
	n.LastError = err.Error()

	if permanent || n.Attempts >= n.MaxAttempts {
		n.Status = NotificationStatusFailed
		now := time.Now().UTC()
		n.ProcessedAt = &now
		return
	}
	n.Status = NotificationStatusPending
	n.ScheduledAt = n.nextRetryAt()
}

// nextRetryAt backs off one minute after the first failure and five minutes
// after that.
func (n *NotificationJob) nextRetryAt() time.Time {
	backoff := 5 * time.Minute
	if n.Attempts <= 1 {
		backoff = time.Minute
	}
	return time.Now().UTC().Add(backoff)
}

// CanRetry returns true if the notification can be retried.
func (n *NotificationJob) CanRetry() bool {
	return n.Attempts < n.MaxAttempts
}

// IsReadyToProcess returns true if the notification is ready to be sent.
func (n *NotificationJob) IsReadyToProcess() bool {
	return n.Status == NotificationStatusPending && time.Now().UTC().After(n.ScheduledAt)
}
