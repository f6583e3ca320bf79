// Package rules contains rules-calculation use cases.
package rules

import (
	"context"
	"time"

	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainrules "github.com/dgi-compliance/backend/internal/domain/rules"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// ComputeBatchInput contains aligned invoices and matching results for a
// standalone batch computation.
type ComputeBatchInput struct {
	Invoices []*entity.ExtractedInvoice
	Matching []valueobject.MatchingResult

	// Procedure690ICEs lists suppliers under an Article 690 collective
	// procedure; their penalties are suspended.
	Procedure690ICEs []string

	// AsOf is the reference date delays are computed against. Nil means
	// the current date.
	AsOf *time.Time
}

// ComputeBatchOutput contains one legal result per input invoice, in order.
type ComputeBatchOutput struct {
	Results []valueobject.LegalResult
}

// ComputeBatchUseCase handles the stateless multi-invoice legal computation.
type ComputeBatchUseCase struct {
	engine *domainrules.Engine
}

// NewComputeBatchUseCase creates a new ComputeBatchUseCase.
func NewComputeBatchUseCase(engine *domainrules.Engine) *ComputeBatchUseCase {
	return &ComputeBatchUseCase{engine: engine}
}

// Execute computes the legal result for every invoice.
func (uc *ComputeBatchUseCase) Execute(_ context.Context, input ComputeBatchInput) (*ComputeBatchOutput, error) {
	asOf := time.Now().UTC()
	if input.AsOf != nil {
		asOf = *input.AsOf
	}

	procedure690 := make(map[string]struct{}, len(input.Procedure690ICEs))
	for _, ice := range input.Procedure690ICEs {
		normalized := valueobject.NormalizeICE(ice)
		if normalized == "" {
			continue
		}
		procedure690[normalized] = struct{}{}
	}

	results, err := uc.engine.ComputeBatch(domainrules.BatchComputeInput{
		Invoices:              input.Invoices,
		Matching:              input.Matching,
		Procedure690Suppliers: procedure690,
		AsOf:                  asOf,
	})
	if err != nil {
		return nil, err
	}

	return &ComputeBatchOutput{Results: results}, nil
}
