// Package declaration contains declaration-related use cases.
package declaration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	domaindeclaration "github.com/dgi-compliance/backend/internal/domain/declaration"
)

// GetAlertsReportInput contains the data needed to build the alerts report.
type GetAlertsReportInput struct {
	BatchID uuid.UUID
	UserID  uuid.UUID
}

// GetAlertsReportOutput contains the plain-text alerts report.
type GetAlertsReportOutput struct {
	Report string
}

// GetAlertsReportUseCase handles building the human-readable alerts report
// that accompanies a declaration review.
type GetAlertsReportUseCase struct {
	builder  declarationBuilder
	exporter *domaindeclaration.Exporter
}

// NewGetAlertsReportUseCase creates a new GetAlertsReportUseCase.
func NewGetAlertsReportUseCase(
	batchRepo adapter.BatchRepository,
	invoiceRepo adapter.InvoiceRepository,
	resultRepo adapter.ResultRepository,
	formatter *domaindeclaration.Formatter,
	exporter *domaindeclaration.Exporter,
) *GetAlertsReportUseCase {
	return &GetAlertsReportUseCase{
		builder: declarationBuilder{
			batchRepo:   batchRepo,
			invoiceRepo: invoiceRepo,
			resultRepo:  resultRepo,
			formatter:   formatter,
		},
		exporter: exporter,
	}
}

// Execute builds the alerts report from the stored batch results.
func (uc *GetAlertsReportUseCase) Execute(ctx context.Context, input GetAlertsReportInput) (*GetAlertsReportOutput, error) {
	_, decl, err := uc.builder.build(ctx, input.BatchID, input.UserID)
	if err != nil {
		return nil, err
	}

	report := uc.exporter.ExportAlertsReport(decl, time.Now().UTC())
	return &GetAlertsReportOutput{Report: report}, nil
}
