package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/entity"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// MatchPayload represents a single invoice-payment match.
type MatchPayload struct {
	PaymentID       string   `json:"payment_id"`
	MatchedAmount   string   `json:"matched_amount"`
	ConfidenceScore float64  `json:"confidence_score"`
	Reasons         []string `json:"reasons,omitempty"`
}

// MatchingResultPayload represents the matching outcome of one invoice. It is
// returned by the matching endpoints and accepted back by the rule-computation
// endpoints, so clients can pipe one into the other unchanged.
type MatchingResultPayload struct {
	InvoiceID       string         `json:"invoice_id"`
	Matches         []MatchPayload `json:"matches,omitempty"`
	PaymentStatus   string         `json:"payment_status" binding:"omitempty,oneof=PAID PARTIALLY_PAID UNPAID"`
	TotalPaid       string         `json:"total_paid"`
	RemainingAmount string         `json:"remaining_amount"`
	PaymentDates    []string       `json:"payment_dates,omitempty"`
}

// PaymentPayload represents a payment record submitted to the stateless
// matching endpoint.
type PaymentPayload struct {
	PaymentID       string  `json:"payment_id" binding:"omitempty,uuid"`
	Reference       string  `json:"reference" binding:"omitempty,max=100"`
	BeneficiaryName string  `json:"beneficiary_name" binding:"omitempty,max=255"`
	PaymentDate     *string `json:"payment_date"`
	Amount          string  `json:"amount" binding:"required"`
	Currency        string  `json:"currency" binding:"omitempty,len=3"`
	Method          string  `json:"method" binding:"omitempty,oneof=virement cheque especes effet inconnu"`
}

// RunMatchingRequest represents the request body for a stateless matching run.
type RunMatchingRequest struct {
	Invoices []InvoicePayload `json:"invoices" binding:"required,min=1,dive"`
	Payments []PaymentPayload `json:"payments" binding:"omitempty,dive"`
}

// RunMatchingResponse represents the response of a stateless matching run.
// Results come back in the order the invoices were submitted.
type RunMatchingResponse struct {
	Results []MatchingResultPayload `json:"results"`
	Total   int                     `json:"total"`
}

// ToEntity converts the payload to a domain payment. A missing payment ID is
// replaced with a fresh one so matching results can reference it.
func (p PaymentPayload) ToEntity() (*entity.ExtractedPayment, error) {
	id := uuid.New()
	if p.PaymentID != "" {
		parsed, err := uuid.Parse(p.PaymentID)
		if err != nil {
			return nil, fmt.Errorf("invalid payment_id %q", p.PaymentID)
		}
		id = parsed
	}

	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", p.Amount)
	}

	var paymentDate *time.Time
	if p.PaymentDate != nil && *p.PaymentDate != "" {
		d, err := parseDate(*p.PaymentDate)
		if err != nil {
			return nil, fmt.Errorf("invalid payment_date %q, use YYYY-MM-DD", *p.PaymentDate)
		}
		paymentDate = &d
	}

	method := entity.PaymentMethodUnknown
	if p.Method != "" {
		method = entity.PaymentMethod(p.Method)
	}

	return &entity.ExtractedPayment{
		ID:              id,
		Reference:       p.Reference,
		BeneficiaryName: p.BeneficiaryName,
		PaymentDate:     paymentDate,
		Amount:          amount,
		Currency:        p.Currency,
		Method:          method,
	}, nil
}

// ToValueObject converts the payload back to a domain matching result.
func (p MatchingResultPayload) ToValueObject() (valueobject.MatchingResult, error) {
	result := valueobject.MatchingResult{
		InvoiceID:       p.InvoiceID,
		PaymentStatus:   valueobject.PaymentStatusUnpaid,
		TotalPaid:       decimal.Zero,
		RemainingAmount: decimal.Zero,
	}

	if p.PaymentStatus != "" {
		result.PaymentStatus = valueobject.PaymentStatus(p.PaymentStatus)
	}

	if p.TotalPaid != "" {
		paid, err := decimal.NewFromString(p.TotalPaid)
		if err != nil {
			return valueobject.MatchingResult{}, fmt.Errorf("invalid total_paid %q", p.TotalPaid)
		}
		result.TotalPaid = paid
	}

	if p.RemainingAmount != "" {
		remaining, err := decimal.NewFromString(p.RemainingAmount)
		if err != nil {
			return valueobject.MatchingResult{}, fmt.Errorf("invalid remaining_amount %q", p.RemainingAmount)
		}
		result.RemainingAmount = remaining
	}

	for _, dateStr := range p.PaymentDates {
		d, err := parseDate(dateStr)
		if err != nil {
			return valueobject.MatchingResult{}, fmt.Errorf("invalid payment date %q, use YYYY-MM-DD", dateStr)
		}
		result.PaymentDates = append(result.PaymentDates, d)
	}

	for _, m := range p.Matches {
		amount := decimal.Zero
		if m.MatchedAmount != "" {
			parsed, err := decimal.NewFromString(m.MatchedAmount)
			if err != nil {
				return valueobject.MatchingResult{}, fmt.Errorf("invalid matched_amount %q", m.MatchedAmount)
			}
			amount = parsed
		}
		result.Matches = append(result.Matches, valueobject.Match{
			PaymentID:       m.PaymentID,
			MatchedAmount:   amount,
			ConfidenceScore: m.ConfidenceScore,
			Reasons:         m.Reasons,
		})
	}

	return result, nil
}

// ToMatchingResultPayload converts a domain matching result to its payload.
func ToMatchingResultPayload(result valueobject.MatchingResult) MatchingResultPayload {
	payload := MatchingResultPayload{
		InvoiceID:       result.InvoiceID,
		PaymentStatus:   string(result.PaymentStatus),
		TotalPaid:       result.TotalPaid.String(),
		RemainingAmount: result.RemainingAmount.String(),
	}

	for _, m := range result.Matches {
		payload.Matches = append(payload.Matches, MatchPayload{
			PaymentID:       m.PaymentID,
			MatchedAmount:   m.MatchedAmount.String(),
			ConfidenceScore: m.ConfidenceScore,
			Reasons:         m.Reasons,
		})
	}

	for _, d := range result.PaymentDates {
		payload.PaymentDates = append(payload.PaymentDates, d.Format(dateLayout))
	}

	return payload
}

// ToRunMatchingResponse converts matching results to the response DTO.
func ToRunMatchingResponse(results []valueobject.MatchingResult) RunMatchingResponse {
	response := RunMatchingResponse{
		Results: make([]MatchingResultPayload, 0, len(results)),
		Total:   len(results),
	}
	for _, r := range results {
		response.Results = append(response.Results, ToMatchingResultPayload(r))
	}
	return response
}
