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

const (
	// MaxBatchNameLength is the maximum allowed length for batch names.
	MaxBatchNameLength = 255
	// MinFiscalYear is the earliest accepted declaration year. Loi 69-21
	// introduced the payment-delay declaration regime in 2023.
	MinFiscalYear = 2023
	// MaxFiscalYear bounds the declaration year against typos.
	MaxFiscalYear = 2100
)

// CreateBatchInput represents the input for batch creation.
type CreateBatchInput struct {
	UserID           uuid.UUID
	Name             string
	CompanyName      string
	CompanyICE       string
	CompanyRC        string
	ActivitySector   string
	FiscalYear       int
	DeclarationMonth *int
}

// CreateBatchOutput represents the output of batch creation.
type CreateBatchOutput struct {
	Batch *entity.Batch
}

// CreateBatchUseCase handles batch creation logic.
type CreateBatchUseCase struct {
	batchRepo adapter.BatchRepository
}

// NewCreateBatchUseCase creates a new CreateBatchUseCase instance.
func NewCreateBatchUseCase(batchRepo adapter.BatchRepository) *CreateBatchUseCase {
	return &CreateBatchUseCase{
		batchRepo: batchRepo,
	}
}

// Execute performs the batch creation.
func (uc *CreateBatchUseCase) Execute(ctx context.Context, input CreateBatchInput) (*CreateBatchOutput, error) {
	if len(input.Name) > MaxBatchNameLength {
		return nil, domainerror.NewBatchError(
			domainerror.ErrCodeBatchNameTooLong,
			fmt.Sprintf("batch name must not exceed %d characters", MaxBatchNameLength),
			domainerror.ErrBatchNameTooLong,
		)
	}

	if input.FiscalYear < MinFiscalYear || input.FiscalYear > MaxFiscalYear {
		return nil, domainerror.NewBatchError(
			domainerror.ErrCodeInvalidFiscalYear,
			fmt.Sprintf("fiscal year must be between %d and %d", MinFiscalYear, MaxFiscalYear),
			domainerror.ErrInvalidFiscalYear,
		)
	}

	if input.DeclarationMonth != nil && (*input.DeclarationMonth < 1 || *input.DeclarationMonth > 12) {
		return nil, domainerror.NewBatchError(
			domainerror.ErrCodeInvalidDeclarationMonth,
			"declaration month must be between 1 and 12",
			domainerror.ErrInvalidDeclarationMonth,
		)
	}

	if input.CompanyName == "" || !valueobject.IsValidICE(input.CompanyICE) {
		return nil, domainerror.NewDeclarationError(
			domainerror.ErrCodeMissingCompanyIdentity,
			"company name and a 15-digit ICE are required",
			domainerror.ErrMissingCompanyIdentity,
		)
	}

	name := input.Name
	if name == "" {
		name = fmt.Sprintf("Déclaration %d", input.FiscalYear)
	}

	batch := entity.NewBatch(
		input.UserID,
		name,
		input.CompanyName,
		valueobject.NormalizeICE(input.CompanyICE),
		input.CompanyRC,
		input.FiscalYear,
		input.DeclarationMonth,
	)

	if input.ActivitySector != "" {
		batch.ActivitySector = input.ActivitySector
	}

	if err := uc.batchRepo.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}

	return &CreateBatchOutput{Batch: batch}, nil
}
