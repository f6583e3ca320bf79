// Package matching contains invoice-payment matching use cases.
package matching

import (
	"context"

	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	domainmatching "github.com/dgi-compliance/backend/internal/domain/matching"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// RunMatchingInput contains the invoices and payments to match. The data is
// caller-supplied; nothing is read from or written to a batch.
type RunMatchingInput struct {
	Invoices []*entity.ExtractedInvoice
	Payments []*entity.ExtractedPayment
}

// RunMatchingOutput contains one matching result per input invoice, in order.
type RunMatchingOutput struct {
	Results []valueobject.MatchingResult
}

// RunMatchingUseCase handles the stateless invoice-payment matching run.
type RunMatchingUseCase struct {
	engine *domainmatching.Engine
}

// NewRunMatchingUseCase creates a new RunMatchingUseCase.
func NewRunMatchingUseCase(engine *domainmatching.Engine) *RunMatchingUseCase {
	return &RunMatchingUseCase{engine: engine}
}

// Execute matches every invoice against the payment list.
func (uc *RunMatchingUseCase) Execute(_ context.Context, input RunMatchingInput) (*RunMatchingOutput, error) {
	if len(input.Invoices) == 0 {
		return nil, domainerror.NewMatchingError(
			domainerror.ErrCodeNoInvoicesToMatch,
			"at least one invoice is required",
			domainerror.ErrNoInvoicesToMatch,
		)
	}

	results := uc.engine.MatchBatch(input.Invoices, input.Payments)
	return &RunMatchingOutput{Results: results}, nil
}
