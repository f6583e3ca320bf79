// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"
)

// NotificationService defines the interface for queueing batch event notifications.
type NotificationService interface {
	// QueueBatchProcessedNotification queues a notification that processing finished.
	QueueBatchProcessedNotification(ctx context.Context, input QueueBatchProcessedInput) error

	// QueueValidationRequiredNotification queues a notification that a batch
	// needs manual review before it can be declared.
	QueueValidationRequiredNotification(ctx context.Context, input QueueValidationRequiredInput) error

	// QueueBatchFailedNotification queues a notification that processing failed.
	QueueBatchFailedNotification(ctx context.Context, input QueueBatchFailedInput) error

	// QueueDeclarationExportedNotification queues a notification that the
	// declaration was exported.
	QueueDeclarationExportedNotification(ctx context.Context, input QueueDeclarationExportedInput) error
}

// QueueBatchProcessedInput represents the input for a processing-finished notification.
type QueueBatchProcessedInput struct {
	RecipientEmail string
	RecipientName  string
	BatchID        uuid.UUID
	BatchName      string
	FiscalYear     int
	InvoiceCount   int
	PaymentCount   int
}

// QueueValidationRequiredInput represents the input for a review-needed notification.
type QueueValidationRequiredInput struct {
	RecipientEmail string
	RecipientName  string
	BatchID        uuid.UUID
	BatchName      string
	Reasons        string
	ReviewCount    int
}

// QueueBatchFailedInput represents the input for a processing-failed notification.
type QueueBatchFailedInput struct {
	RecipientEmail string
	RecipientName  string
	BatchID        uuid.UUID
	BatchName      string
	Reason         string
}

// QueueDeclarationExportedInput represents the input for an export notification.
type QueueDeclarationExportedInput struct {
	RecipientEmail string
	RecipientName  string
	BatchID        uuid.UUID
	BatchName      string
	FiscalYear     int
	TotalInvoices  int
	TotalPenalties string
}
