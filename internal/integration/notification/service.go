// Package notification provides batch event notification functionality.
package notification

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
)

// Service handles notification queueing operations.
type Service struct {
	queue      adapter.NotificationQueueRepository
	appBaseURL string
}

// NewService creates a new notification service.
func NewService(queue adapter.NotificationQueueRepository, appBaseURL string) *Service {
	return &Service{
		queue:      queue,
		appBaseURL: appBaseURL,
	}
}

// batchURL builds the frontend link of a batch.
func (s *Service) batchURL(batchID uuid.UUID) string {
	return fmt.Sprintf("%s/batches/%s", s.appBaseURL, batchID)
}

// QueueBatchProcessedNotification queues a processing-finished notification.
func (s *Service) QueueBatchProcessedNotification(ctx context.Context, input adapter.QueueBatchProcessedInput) error {
	subject := fmt.Sprintf("Traitement terminé: %s - DGI Conformité", input.BatchName)

	// Template data survives a JSONB round trip, so everything is stored as
	// strings.
	templateData := map[string]interface{}{
		"batch_name":    input.BatchName,
		"batch_url":     s.batchURL(input.BatchID),
		"fiscal_year":   strconv.Itoa(input.FiscalYear),
		"invoice_count": strconv.Itoa(input.InvoiceCount),
		"payment_count": strconv.Itoa(input.PaymentCount),
	}

	job := entity.NewNotificationJob(
		entity.TemplateBatchProcessed,
		&input.BatchID,
		input.RecipientEmail,
		input.RecipientName,
		subject,
		templateData,
	)

	if err := s.queue.Create(ctx, job); err != nil {
		return domainerror.NewNotificationError(
			domainerror.ErrCodeNotificationQueueFailed,
			"failed to queue batch processed notification",
			err,
		)
	}

	return nil
}

// QueueValidationRequiredNotification queues a review-needed notification.
func (s *Service) QueueValidationRequiredNotification(ctx context.Context, input adapter.QueueValidationRequiredInput) error {
	subject := fmt.Sprintf("Validation requise: %s - DGI Conformité", input.BatchName)

	templateData := map[string]interface{}{
		"batch_name":   input.BatchName,
		"batch_url":    s.batchURL(input.BatchID),
		"reasons":      input.Reasons,
		"review_count": strconv.Itoa(input.ReviewCount),
	}

	job := entity.NewNotificationJob(
		entity.TemplateValidationRequired,
		&input.BatchID,
		input.RecipientEmail,
		input.RecipientName,
		subject,
		templateData,
	)

	if err := s.queue.Create(ctx, job); err != nil {
		return domainerror.NewNotificationError(
			domainerror.ErrCodeNotificationQueueFailed,
			"failed to queue validation required notification",
			err,
		)
	}

	return nil
}

// QueueBatchFailedNotification queues a processing-failed notification.
func (s *Service) QueueBatchFailedNotification(ctx context.Context, input adapter.QueueBatchFailedInput) error {
	subject := fmt.Sprintf("Échec du traitement: %s - DGI Conformité", input.BatchName)

	templateData := map[string]interface{}{
		"batch_name": input.BatchName,
		"batch_url":  s.batchURL(input.BatchID),
		"reason":     input.Reason,
	}

	job := entity.NewNotificationJob(
		entity.TemplateBatchFailed,
		&input.BatchID,
		input.RecipientEmail,
		input.RecipientName,
		subject,
		templateData,
	)

	if err := s.queue.Create(ctx, job); err != nil {
		return domainerror.NewNotificationError(
			domainerror.ErrCodeNotificationQueueFailed,
			"failed to queue batch failed notification",
			err,
		)
	}

	return nil
}

// QueueDeclarationExportedNotification queues an export notification.
func (s *Service) QueueDeclarationExportedNotification(ctx context.Context, input adapter.QueueDeclarationExportedInput) error {
	subject := fmt.Sprintf("Déclaration exportée: %s - DGI Conformité", input.BatchName)

	templateData := map[string]interface{}{
		"batch_name":      input.BatchName,
		"batch_url":       s.batchURL(input.BatchID),
		"fiscal_year":     strconv.Itoa(input.FiscalYear),
		"total_invoices":  strconv.Itoa(input.TotalInvoices),
		"total_penalties": input.TotalPenalties,
	}

	job := entity.NewNotificationJob(
		entity.TemplateDeclarationExported,
		&input.BatchID,
		input.RecipientEmail,
		input.RecipientName,
		subject,
		templateData,
	)

	if err := s.queue.Create(ctx, job); err != nil {
		return domainerror.NewNotificationError(
			domainerror.ErrCodeNotificationQueueFailed,
			"failed to queue declaration exported notification",
			err,
		)
	}

	return nil
}

// Ensure Service implements adapter.NotificationService.
var _ adapter.NotificationService = (*Service)(nil)
