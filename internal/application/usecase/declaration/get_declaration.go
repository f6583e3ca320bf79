// Package declaration contains declaration-related use cases.
package declaration

import (
	"context"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	domaindeclaration "github.com/dgi-compliance/backend/internal/domain/declaration"
	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// GetDeclarationInput contains the data needed to build a declaration preview.
type GetDeclarationInput struct {
	BatchID uuid.UUID
	UserID  uuid.UUID
}

// GetDeclarationOutput contains the formatted declaration.
type GetDeclarationOutput struct {
	Batch       *entity.Batch
	Declaration *entity.Declaration
}

// GetDeclarationUseCase handles building the declaration of a batch without
// exporting it. The batch status is untouched.
type GetDeclarationUseCase struct {
	builder declarationBuilder
}

// NewGetDeclarationUseCase creates a new GetDeclarationUseCase.
func NewGetDeclarationUseCase(
	batchRepo adapter.BatchRepository,
	invoiceRepo adapter.InvoiceRepository,
	resultRepo adapter.ResultRepository,
	formatter *domaindeclaration.Formatter,
) *GetDeclarationUseCase {
	return &GetDeclarationUseCase{
		builder: declarationBuilder{
			batchRepo:   batchRepo,
			invoiceRepo: invoiceRepo,
			resultRepo:  resultRepo,
			formatter:   formatter,
		},
	}
}

// Execute builds the declaration from the stored batch results.
func (uc *GetDeclarationUseCase) Execute(ctx context.Context, input GetDeclarationInput) (*GetDeclarationOutput, error) {
	batch, decl, err := uc.builder.build(ctx, input.BatchID, input.UserID)
	if err != nil {
		return nil, err
	}

	return &GetDeclarationOutput{Batch: batch, Declaration: decl}, nil
}
