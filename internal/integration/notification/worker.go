// Package notification provides batch event notification functionality.
package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/integration/notification/templates"
)

// retentionSweepEvery spaces out queue purges; they do not need to run on
// every poll.
const retentionSweepEvery = time.Hour

// WorkerConfig holds configuration for the notification worker.
type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// RetentionDays bounds how long sent jobs stay in the queue table.
	// Zero or negative disables the purge.
	RetentionDays int
}

// DefaultWorkerConfig returns the default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval:  5 * time.Second,
		BatchSize:     10,
		RetentionDays: 30,
	}
}

// Worker drains the notification queue and delivers emails through the
// configured sender. Jobs that fail transiently are rescheduled by the
// entity's retry policy; permanent failures are parked as failed.
type Worker struct {
	queue     adapter.NotificationQueueRepository
	sender    adapter.NotificationSender
	renderer  *templates.Renderer
	cfg       WorkerConfig
	lastSweep time.Time
}

// NewWorker creates a new notification worker.
func NewWorker(queue adapter.NotificationQueueRepository, sender adapter.NotificationSender, renderer *templates.Renderer, config WorkerConfig) *Worker {
	return &Worker{
		queue:    queue,
		sender:   sender,
		renderer: renderer,
		cfg:      config,
	}
}

// Start runs the polling loop. The first drain happens immediately, then on
// every tick. Blocks until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("Notification worker started",
		"poll_interval", w.cfg.PollInterval,
		"batch_size", w.cfg.BatchSize,
	)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		w.drainQueue(ctx)
		w.sweepOldJobs(ctx)

		select {
		case <-ctx.Done():
			slog.Info("Notification worker shutting down")
			return
		case <-ticker.C:
		}
	}
}

// sweepOldJobs purges sent jobs past the retention window, at most once per
// retentionSweepEvery.
func (w *Worker) sweepOldJobs(ctx context.Context) {
	if w.cfg.RetentionDays <= 0 || time.Since(w.lastSweep) < retentionSweepEvery {
		return
	}
	w.lastSweep = time.Now()

	purged, err := w.queue.DeleteOldSentJobs(ctx, w.cfg.RetentionDays)
	if err != nil {
		slog.Error("Failed to purge old notifications", "error", err)
		return
	}
	if purged > 0 {
		slog.Info("Purged old notifications", "count", purged, "retention_days", w.cfg.RetentionDays)
	}
}

// ProcessNow drains pending notifications once, without waiting for the next
// poll. Used by tests and by callers that just queued something urgent.
func (w *Worker) ProcessNow(ctx context.Context) {
	w.drainQueue(ctx)
}

func (w *Worker) drainQueue(ctx context.Context) {
	jobs, err := w.queue.GetPendingJobs(ctx, w.cfg.BatchSize)
	if err != nil {
		slog.Error("Failed to get pending notification jobs", "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	slog.Debug("Processing notification batch", "count", len(jobs))
	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		w.handle(ctx, job)
	}
}

func (w *Worker) handle(ctx context.Context, job *entity.NotificationJob) {
	log := slog.With(
		"job_id", job.ID,
		"template", job.TemplateType,
		"recipient", job.RecipientEmail,
	)

	job.MarkProcessing()
	if err := w.queue.Update(ctx, job); err != nil {
		log.Error("Failed to mark notification as processing", "error", err)
		return
	}

	html, text, err := w.composeBody(job)
	if err != nil {
		// Rendering never recovers on retry.
		log.Error("Failed to render notification template", "error", err)
		w.recordFailure(ctx, job, err, true)
		return
	}

	result, err := w.sender.Send(ctx, adapter.SendEmailInput{
		To:      job.RecipientEmail,
		Name:    job.RecipientName,
		Subject: job.Subject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		log.Error("Failed to send notification", "error", err)
		w.recordFailure(ctx, job, err, isPermanentSendError(err))
		return
	}

	job.MarkSent(result.ResendID)
	if err := w.queue.Update(ctx, job); err != nil {
		log.Error("Failed to mark notification as sent", "error", err)
		return
	}
	log.Info("Notification sent successfully", "resend_id", result.ResendID)
}

// composeBody resolves the template payload for the job and renders both the
// HTML and plain-text variants.
func (w *Worker) composeBody(job *entity.NotificationJob) (html string, text string, err error) {
	payload, err := templatePayload(job)
	if err != nil {
		return "", "", err
	}
	return w.renderer.Render(string(job.TemplateType), payload)
}

func templatePayload(job *entity.NotificationJob) (interface{}, error) {
	field := func(key string) string {
		s, _ := job.TemplateData[key].(string)
		return s
	}

	switch job.TemplateType {
	case entity.TemplateBatchProcessed:
		return templates.BatchProcessedData{
			BatchName:    field("batch_name"),
			BatchURL:     field("batch_url"),
			FiscalYear:   field("fiscal_year"),
			InvoiceCount: field("invoice_count"),
			PaymentCount: field("payment_count"),
		}, nil
	case entity.TemplateValidationRequired:
		return templates.ValidationRequiredData{
			BatchName:   field("batch_name"),
			BatchURL:    field("batch_url"),
			Reasons:     field("reasons"),
			ReviewCount: field("review_count"),
		}, nil
	case entity.TemplateBatchFailed:
		return templates.BatchFailedData{
			BatchName: field("batch_name"),
			BatchURL:  field("batch_url"),
			Reason:    field("reason"),
		}, nil
	case entity.TemplateDeclarationExported:
		return templates.DeclarationExportedData{
			BatchName:      field("batch_name"),
			BatchURL:       field("batch_url"),
			FiscalYear:     field("fiscal_year"),
			TotalInvoices:  field("total_invoices"),
			TotalPenalties: field("total_penalties"),
		}, nil
	default:
		return nil, domainerror.NewNotificationError(
			domainerror.ErrCodeInvalidTemplate,
			"unknown template type",
			domainerror.ErrInvalidTemplate,
		)
	}
}

func isPermanentSendError(err error) bool {
	var notificationErr *domainerror.NotificationError
	return errors.As(err, &notificationErr) && notificationErr.Code == domainerror.ErrCodePermanentSendFailure
}

func (w *Worker) recordFailure(ctx context.Context, job *entity.NotificationJob, cause error, permanent bool) {
	job.MarkFailed(cause, permanent)

	if err := w.queue.Update(ctx, job); err != nil {
		slog.Error("Failed to update notification after failure",
			"job_id", job.ID,
			"error", err,
		)
	}

	if job.Status == entity.NotificationStatusFailed {
		slog.Warn("Notification permanently failed",
			"job_id", job.ID,
			"attempts", job.Attempts,
			"last_error", job.LastError,
		)
		return
	}
	slog.Info("Notification scheduled for retry",
		"job_id", job.ID,
		"attempts", job.Attempts,
		"scheduled_at", job.ScheduledAt,
	)
}
