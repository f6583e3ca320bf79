// Package declaration contains declaration-related use cases.
package declaration

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	domaindeclaration "github.com/dgi-compliance/backend/internal/domain/declaration"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// declarationBuilder assembles the DGI declaration of a batch from its
// stored invoices and results. Preview, export and the alerts report all
// build through it so they can never disagree.
type declarationBuilder struct {
	batchRepo   adapter.BatchRepository
	invoiceRepo adapter.InvoiceRepository
	resultRepo  adapter.ResultRepository
	formatter   *domaindeclaration.Formatter
}

// build loads the batch data and formats the declaration.
func (b *declarationBuilder) build(ctx context.Context, batchID, userID uuid.UUID) (*entity.Batch, *entity.Declaration, error) {
	batch, err := findOwnedBatch(ctx, b.batchRepo, batchID, userID)
	if err != nil {
		return nil, nil, err
	}

	if batch.CompanyName == "" || !valueobject.IsValidICE(batch.CompanyICE) {
		return nil, nil, domainerror.NewDeclarationError(
			domainerror.ErrCodeMissingCompanyIdentity,
			"batch is missing the declaring company name or a valid ICE",
			domainerror.ErrMissingCompanyIdentity,
		)
	}

	stored, err := b.resultRepo.FindByBatch(ctx, batchID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find batch results: %w", err)
	}
	if len(stored) == 0 {
		return nil, nil, domainerror.NewDeclarationError(
			domainerror.ErrCodeDeclarationNotAvailable,
			"batch has no computed results yet",
			domainerror.ErrDeclarationNotAvailable,
		)
	}

	invoices, err := b.invoiceRepo.FindByBatch(ctx, batchID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find batch invoices: %w", err)
	}
	byID := make(map[uuid.UUID]*entity.ExtractedInvoice, len(invoices))
	for _, invoice := range invoices {
		byID[invoice.ID] = invoice
	}

	input := domaindeclaration.FormatInput{
		Invoices:        make([]*entity.ExtractedInvoice, 0, len(stored)),
		MatchingResults: make([]valueobject.MatchingResult, 0, len(stored)),
		LegalResults:    make([]valueobject.LegalResult, 0, len(stored)),

		CompanyICE:       batch.CompanyICE,
		CompanyName:      batch.CompanyName,
		CompanyRC:        batch.CompanyRC,
		DeclarationYear:  batch.FiscalYear,
		DeclarationMonth: batch.DeclarationMonth,
		ActivitySector:   batch.ActivitySector,
	}
	for _, result := range stored {
		invoice, ok := byID[result.InvoiceID]
		if !ok {
			return nil, nil, fmt.Errorf("stored result references unknown invoice %s", result.InvoiceID)
		}
		input.Invoices = append(input.Invoices, invoice)
		input.MatchingResults = append(input.MatchingResults, result.Matching)
		input.LegalResults = append(input.LegalResults, result.Legal)
	}

	decl, err := b.formatter.FormatDeclaration(input)
	if err != nil {
		return nil, nil, err
	}

	return batch, decl, nil
}
