// Package batch contains batch-related use cases.
package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// GetResultsInput contains the data needed to read the computed results of a batch.
type GetResultsInput struct {
	BatchID uuid.UUID
	UserID  uuid.UUID
}

// ResultItem pairs one extracted invoice with its matching outcome and legal
// computation.
type ResultItem struct {
	Invoice  *entity.ExtractedInvoice
	Matching valueobject.MatchingResult
	Legal    valueobject.LegalResult
}

// GetResultsOutput contains the per-invoice results of the last computation run.
type GetResultsOutput struct {
	Batch   *entity.Batch
	Results []ResultItem
}

// GetResultsUseCase handles reading the stored per-invoice results of a batch.
type GetResultsUseCase struct {
	batchRepo   adapter.BatchRepository
	invoiceRepo adapter.InvoiceRepository
	resultRepo  adapter.ResultRepository
}

// NewGetResultsUseCase creates a new GetResultsUseCase.
func NewGetResultsUseCase(
	batchRepo adapter.BatchRepository,
	invoiceRepo adapter.InvoiceRepository,
	resultRepo adapter.ResultRepository,
) *GetResultsUseCase {
	return &GetResultsUseCase{
		batchRepo:   batchRepo,
		invoiceRepo: invoiceRepo,
		resultRepo:  resultRepo,
	}
}

// Execute returns the stored results of the batch, one item per invoice.
func (uc *GetResultsUseCase) Execute(ctx context.Context, input GetResultsInput) (*GetResultsOutput, error) {
	batch, err := findOwnedBatch(ctx, uc.batchRepo, input.BatchID, input.UserID)
	if err != nil {
		return nil, err
	}

	stored, err := uc.resultRepo.FindByBatch(ctx, input.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to find batch results: %w", err)
	}
	if len(stored) == 0 {
		return nil, domainerror.NewDeclarationError(
			domainerror.ErrCodeDeclarationNotAvailable,
			"batch has no computed results yet",
			domainerror.ErrDeclarationNotAvailable,
		)
	}

	invoices, err := uc.invoiceRepo.FindByBatch(ctx, input.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to find batch invoices: %w", err)
	}
	byID := make(map[uuid.UUID]*entity.ExtractedInvoice, len(invoices))
	for _, invoice := range invoices {
		byID[invoice.ID] = invoice
	}

	results := make([]ResultItem, 0, len(stored))
	for _, result := range stored {
		invoice, ok := byID[result.InvoiceID]
		if !ok {
			// Results are replaced wholesale with the invoices they were
			// computed from, so a dangling invoice ID means corrupt state.
			return nil, fmt.Errorf("stored result references unknown invoice %s", result.InvoiceID)
		}
		results = append(results, ResultItem{
			Invoice:  invoice,
			Matching: result.Matching,
			Legal:    result.Legal,
		})
	}

	return &GetResultsOutput{Batch: batch, Results: results}, nil
}
