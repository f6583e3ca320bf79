// Package declaration contains declaration-related use cases.
package declaration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	domaindeclaration "github.com/dgi-compliance/backend/internal/domain/declaration"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
)

// CSVContentType is the content type declaration files are served with.
const CSVContentType = "text/csv; charset=utf-8"

// ExportCSVInput contains the data needed to export a declaration.
type ExportCSVInput struct {
	BatchID uuid.UUID
	UserID  uuid.UUID

	// RecipientEmail and RecipientName address the export notification.
	// Notifications are skipped when the email is empty.
	RecipientEmail string
	RecipientName  string
}

// ExportCSVOutput contains the export file and its metadata.
type ExportCSVOutput struct {
	FileName    string
	ContentType string
	Content     []byte
	Declaration *entity.Declaration
}

// ExportCSVUseCase handles exporting the validated declaration of a batch as
// the DGI CSV file.
type ExportCSVUseCase struct {
	builder   declarationBuilder
	exporter  *domaindeclaration.Exporter
	auditRepo adapter.AuditRepository
	notifier  adapter.NotificationService
}

// NewExportCSVUseCase creates a new ExportCSVUseCase.
func NewExportCSVUseCase(
	batchRepo adapter.BatchRepository,
	invoiceRepo adapter.InvoiceRepository,
	resultRepo adapter.ResultRepository,
	auditRepo adapter.AuditRepository,
	formatter *domaindeclaration.Formatter,
	exporter *domaindeclaration.Exporter,
	notifier adapter.NotificationService,
) *ExportCSVUseCase {
	return &ExportCSVUseCase{
		builder: declarationBuilder{
			batchRepo:   batchRepo,
			invoiceRepo: invoiceRepo,
			resultRepo:  resultRepo,
			formatter:   formatter,
		},
		exporter:  exporter,
		auditRepo: auditRepo,
		notifier:  notifier,
	}
}

// Execute exports the declaration CSV and marks the batch as exported. A
// batch may be exported again; each export refreshes the export timestamp.
func (uc *ExportCSVUseCase) Execute(ctx context.Context, input ExportCSVInput) (*ExportCSVOutput, error) {
	batch, decl, err := uc.builder.build(ctx, input.BatchID, input.UserID)
	if err != nil {
		return nil, err
	}

	if batch.Status != entity.BatchStatusValidated && batch.Status != entity.BatchStatusExported {
		return nil, domainerror.NewBatchError(
			domainerror.ErrCodeBatchNotReadyExport,
			fmt.Sprintf("batch in status %q must be validated before export", batch.Status),
			domainerror.ErrBatchNotReadyForExport,
		)
	}

	exportedAt := time.Now().UTC()

	content, err := uc.exporter.ExportCSV(decl, exportedAt)
	if err != nil {
		return nil, domainerror.NewDeclarationError(
			domainerror.ErrCodeExportFailed,
			"failed to render declaration CSV",
			err,
		)
	}

	previous := batch.Status
	if batch.Status == entity.BatchStatusValidated {
		batch.TransitionTo(entity.BatchStatusExported, "Déclaration exportée")
	}
	batch.ExportedAt = &exportedAt
	if err := uc.builder.batchRepo.Update(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to update batch: %w", err)
	}

	detail := fmt.Sprintf("exported declaration CSV, %d lines", len(decl.Lines))
	entry := entity.NewAuditEntry(batch.ID, previous, batch.Status, detail, &input.UserID)
	if err := uc.auditRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create audit entry: %w", err)
	}

	uc.notifyExported(ctx, batch, decl, input)

	return &ExportCSVOutput{
		FileName:    fmt.Sprintf("DGI_Declaration_%s_%s.csv", batch.CompanyICE, exportedAt.Format("20060102")),
		ContentType: CSVContentType,
		Content:     content,
		Declaration: decl,
	}, nil
}

// notifyExported queues the export notification. Failures are logged, not
// returned; the export itself already succeeded.
func (uc *ExportCSVUseCase) notifyExported(ctx context.Context, batch *entity.Batch, decl *entity.Declaration, input ExportCSVInput) {
	if input.RecipientEmail == "" {
		return
	}

	err := uc.notifier.QueueDeclarationExportedNotification(ctx, adapter.QueueDeclarationExportedInput{
		RecipientEmail: input.RecipientEmail,
		RecipientName:  input.RecipientName,
		BatchID:        batch.ID,
		BatchName:      batch.Name,
		FiscalYear:     batch.FiscalYear,
		TotalInvoices:  decl.TotalInvoices,
		TotalPenalties: decl.TotalPenaltyAmount.StringFixed(2),
	})
	if err != nil {
		slog.Default().Error("Failed to queue export notification", "batchID", batch.ID.String(), "error", err.Error())
	}
}
