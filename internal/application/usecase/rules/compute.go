// Package rules contains rules-calculation use cases.
package rules

import (
	"context"
	"time"

	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainrules "github.com/dgi-compliance/backend/internal/domain/rules"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// ComputeInput contains one invoice and its payment situation for a
// standalone legal computation.
type ComputeInput struct {
	Invoice        *entity.ExtractedInvoice
	Matching       valueobject.MatchingResult
	IsProcedure690 bool

	// AsOf is the reference date delays are computed against. Nil means
	// the current date.
	AsOf *time.Time
}

// ComputeOutput contains the legal result of the invoice.
type ComputeOutput struct {
	Result valueobject.LegalResult
}

// ComputeUseCase handles the stateless single-invoice legal computation.
// It does not touch any batch; callers bring their own data.
type ComputeUseCase struct {
	engine *domainrules.Engine
}

// NewComputeUseCase creates a new ComputeUseCase.
func NewComputeUseCase(engine *domainrules.Engine) *ComputeUseCase {
	return &ComputeUseCase{engine: engine}
}

// Execute computes the legal result for the invoice.
func (uc *ComputeUseCase) Execute(_ context.Context, input ComputeInput) (*ComputeOutput, error) {
	asOf := time.Now().UTC()
	if input.AsOf != nil {
		asOf = *input.AsOf
	}

	result, err := uc.engine.ComputeLegalResult(domainrules.ComputeInput{
		Invoice:        input.Invoice,
		Matching:       input.Matching,
		IsProcedure690: input.IsProcedure690,
		AsOf:           asOf,
	})
	if err != nil {
		return nil, err
	}

	return &ComputeOutput{Result: result}, nil
}
