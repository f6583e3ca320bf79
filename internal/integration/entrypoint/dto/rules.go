package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/entity"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// InvoicePayload represents an invoice submitted to the stateless matching
// and rule-computation endpoints. Amounts are decimal strings.
type InvoicePayload struct {
	InvoiceID            string  `json:"invoice_id" binding:"omitempty,uuid"`
	InvoiceNumber        string  `json:"invoice_number" binding:"omitempty,max=100"`
	SupplierName         string  `json:"supplier_name" binding:"omitempty,max=255"`
	SupplierICE          string  `json:"supplier_ice" binding:"omitempty,max=30"`
	IssueDate            *string `json:"issue_date"`
	DeliveryDate         *string `json:"delivery_date"`
	AmountHT             string  `json:"amount_ht"`
	VATAmount            string  `json:"vat_amount"`
	AmountTTC            string  `json:"amount_ttc" binding:"required"`
	Currency             string  `json:"currency" binding:"omitempty,len=3"`
	ContractualDelayDays *int    `json:"contractual_delay_days" binding:"omitempty,min=0"`
	IsDisputed           bool    `json:"is_disputed"`
	DisputeReason        string  `json:"dispute_reason" binding:"omitempty,max=500"`
	IsCreditNote         bool    `json:"is_credit_note"`
	ExtractionConfidence float64 `json:"extraction_confidence" binding:"omitempty,min=0,max=1"`
}

// ComputeRuleRequest represents the request body for a single-invoice legal
// computation.
type ComputeRuleRequest struct {
	Invoice        InvoicePayload        `json:"invoice" binding:"required"`
	Matching       MatchingResultPayload `json:"matching"`
	IsProcedure690 bool                  `json:"is_procedure_690"`
	AsOfDate       *string               `json:"as_of_date"`
}

// ComputeRuleResponse represents the response of a single-invoice legal
// computation.
type ComputeRuleResponse struct {
	Result LegalResultResponse `json:"result"`
}

// ComputeBatchRuleRequest represents the request body for a multi-invoice
// legal computation. Matching results are positional: entry i belongs to
// invoice i.
type ComputeBatchRuleRequest struct {
	Invoices         []InvoicePayload        `json:"invoices" binding:"required,min=1,dive"`
	Matching         []MatchingResultPayload `json:"matching" binding:"required,dive"`
	Procedure690ICEs []string                `json:"procedure_690_ices"`
	AsOfDate         *string                 `json:"as_of_date"`
}

// ComputeBatchRuleResponse represents the response of a multi-invoice legal
// computation, one result per input invoice in order.
type ComputeBatchRuleResponse struct {
	Results []LegalResultResponse `json:"results"`
	Total   int                   `json:"total"`
}

// AlertResponse represents a single computation alert.
type AlertResponse struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// MonthRateResponse represents the penalty rate of one delay month.
type MonthRateResponse struct {
	Month   int    `json:"month"`
	Rate    string `json:"rate"`
	Applied bool   `json:"applied"`
}

// DelayStepResponse details how the payment delay was measured.
type DelayStepResponse struct {
	Label         string  `json:"label"`
	DueDate       *string `json:"due_date,omitempty"`
	PaymentDate   *string `json:"payment_date,omitempty"`
	DaysOverdue   int     `json:"days_overdue"`
	MonthsOfDelay int     `json:"months_of_delay"`
	Formula       string  `json:"formula"`
}

// RateStepResponse details how the penalty rate was derived.
type RateStepResponse struct {
	Label       string `json:"label"`
	BaseRate    string `json:"base_rate"`
	Months      int    `json:"months"`
	Increment   string `json:"increment"`
	PenaltyRate string `json:"penalty_rate"`
	Formula     string `json:"formula"`
}

// AmountStepResponse details how the penalty amount was derived.
type AmountStepResponse struct {
	Label        string `json:"label"`
	UnpaidAmount string `json:"unpaid_amount"`
	PenaltyRate  string `json:"penalty_rate"`
	BasePenalty  string `json:"base_penalty"`
	Formula      string `json:"formula"`
}

// StatusStepResponse details how the legal status affected the penalty.
type StatusStepResponse struct {
	Label            string `json:"label"`
	LegalStatus      string `json:"legal_status"`
	PenaltySuspended bool   `json:"penalty_suspended"`
	FinalPenalty     string `json:"final_penalty"`
	Formula          string `json:"formula"`
}

// CalculationStepsResponse represents the four explanation steps of a
// penalty computation.
type CalculationStepsResponse struct {
	Delay  DelayStepResponse  `json:"delay"`
	Rate   RateStepResponse   `json:"rate"`
	Amount AmountStepResponse `json:"amount"`
	Status StatusStepResponse `json:"status"`
}

// CalculationBreakdownResponse represents the full penalty calculation trace.
type CalculationBreakdownResponse struct {
	BaseRatePercent         string                   `json:"base_rate_percent"`
	MonthlyIncrementPercent string                   `json:"monthly_increment_percent"`
	MonthsBreakdown         []MonthRateResponse      `json:"months_breakdown,omitempty"`
	Steps                   CalculationStepsResponse `json:"steps"`
}

// LegalResultResponse represents the legal outcome of one invoice.
type LegalResultResponse struct {
	InvoiceID             string                        `json:"invoice_id"`
	LegalStartDate        *string                       `json:"legal_start_date,omitempty"`
	LegalDueDate          *string                       `json:"legal_due_date,omitempty"`
	ContractualDelayDays  *int                          `json:"contractual_delay_days,omitempty"`
	AppliedLegalDelayDays int                           `json:"applied_legal_delay_days"`
	ActualPaymentDate     *string                       `json:"actual_payment_date,omitempty"`
	DaysOverdue           int                           `json:"days_overdue"`
	MonthsOfDelay         int                           `json:"months_of_delay"`
	PenaltyRate           string                        `json:"penalty_rate"`
	PenaltyAmount         string                        `json:"penalty_amount"`
	PenaltySuspended      bool                          `json:"penalty_suspended"`
	LegalStatus           string                        `json:"legal_status"`
	InvoiceAmountTTC      string                        `json:"invoice_amount_ttc"`
	PaidAmount            string                        `json:"paid_amount"`
	UnpaidAmount          string                        `json:"unpaid_amount"`
	Alerts                []AlertResponse               `json:"alerts,omitempty"`
	ComputationNotes      []string                      `json:"computation_notes,omitempty"`
	Breakdown             *CalculationBreakdownResponse `json:"breakdown,omitempty"`
	RequiresManualReview  bool                          `json:"requires_manual_review"`
	IsCalculable          bool                          `json:"is_calculable"`
}

// ToEntity converts the payload to a domain invoice. A missing invoice ID is
// replaced with a fresh one so results can reference it.
func (p InvoicePayload) ToEntity() (*entity.ExtractedInvoice, error) {
	id := uuid.New()
	if p.InvoiceID != "" {
		parsed, err := uuid.Parse(p.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("invalid invoice_id %q", p.InvoiceID)
		}
		id = parsed
	}

	amountTTC, err := decimal.NewFromString(p.AmountTTC)
	if err != nil {
		return nil, fmt.Errorf("invalid amount_ttc %q", p.AmountTTC)
	}

	amountHT := decimal.Zero
	if p.AmountHT != "" {
		amountHT, err = decimal.NewFromString(p.AmountHT)
		if err != nil {
			return nil, fmt.Errorf("invalid amount_ht %q", p.AmountHT)
		}
	}

	vatAmount := decimal.Zero
	if p.VATAmount != "" {
		vatAmount, err = decimal.NewFromString(p.VATAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid vat_amount %q", p.VATAmount)
		}
	}

	var issueDate *time.Time
	if p.IssueDate != nil && *p.IssueDate != "" {
		d, err := parseDate(*p.IssueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid issue_date %q, use YYYY-MM-DD", *p.IssueDate)
		}
		issueDate = &d
	}

	var deliveryDate *time.Time
	if p.DeliveryDate != nil && *p.DeliveryDate != "" {
		d, err := parseDate(*p.DeliveryDate)
		if err != nil {
			return nil, fmt.Errorf("invalid delivery_date %q, use YYYY-MM-DD", *p.DeliveryDate)
		}
		deliveryDate = &d
	}

	return &entity.ExtractedInvoice{
		ID:                   id,
		InvoiceNumber:        p.InvoiceNumber,
		SupplierName:         p.SupplierName,
		SupplierICE:          p.SupplierICE,
		IssueDate:            issueDate,
		DeliveryDate:         deliveryDate,
		AmountHT:             amountHT,
		VATAmount:            vatAmount,
		AmountTTC:            amountTTC,
		Currency:             p.Currency,
		ContractualDelayDays: p.ContractualDelayDays,
		IsDisputed:           p.IsDisputed,
		DisputeReason:        p.DisputeReason,
		IsCreditNote:         p.IsCreditNote,
		ExtractionConfidence: p.ExtractionConfidence,
	}, nil
}

// ToLegalResultResponse converts a domain legal result to its response DTO.
func ToLegalResultResponse(result valueobject.LegalResult) LegalResultResponse {
	response := LegalResultResponse{
		InvoiceID:             result.InvoiceID,
		LegalStartDate:        formatDate(result.LegalStartDate),
		LegalDueDate:          formatDate(result.LegalDueDate),
		ContractualDelayDays:  result.ContractualDelayDays,
		AppliedLegalDelayDays: result.AppliedLegalDelayDays,
		ActualPaymentDate:     formatDate(result.ActualPaymentDate),
		DaysOverdue:           result.DaysOverdue,
		MonthsOfDelay:         result.MonthsOfDelay,
		PenaltyRate:           result.PenaltyRate.String(),
		PenaltyAmount:         result.PenaltyAmount.String(),
		PenaltySuspended:      result.PenaltySuspended,
		LegalStatus:           string(result.LegalStatus),
		InvoiceAmountTTC:      result.InvoiceAmountTTC.String(),
		PaidAmount:            result.PaidAmount.String(),
		UnpaidAmount:          result.UnpaidAmount.String(),
		ComputationNotes:      result.ComputationNotes,
		RequiresManualReview:  result.RequiresManualReview,
		IsCalculable:          result.IsCalculable,
	}

	for _, alert := range result.Alerts {
		response.Alerts = append(response.Alerts, AlertResponse{
			Code:     string(alert.Code),
			Severity: string(alert.Severity),
			Message:  alert.Message,
			Field:    alert.Field,
		})
	}

	if result.Breakdown != nil {
		response.Breakdown = toCalculationBreakdownResponse(result.Breakdown)
	}

	return response
}

func toCalculationBreakdownResponse(b *valueobject.CalculationBreakdown) *CalculationBreakdownResponse {
	response := &CalculationBreakdownResponse{
		BaseRatePercent:         b.BaseRatePercent.String(),
		MonthlyIncrementPercent: b.MonthlyIncrementPercent.String(),
		Steps: CalculationStepsResponse{
			Delay: DelayStepResponse{
				Label:         b.Steps.Delay.Label,
				DueDate:       formatDate(b.Steps.Delay.DueDate),
				PaymentDate:   formatDate(b.Steps.Delay.PaymentDate),
				DaysOverdue:   b.Steps.Delay.DaysOverdue,
				MonthsOfDelay: b.Steps.Delay.MonthsOfDelay,
				Formula:       b.Steps.Delay.Formula,
			},
			Rate: RateStepResponse{
				Label:       b.Steps.Rate.Label,
				BaseRate:    b.Steps.Rate.BaseRate.String(),
				Months:      b.Steps.Rate.Months,
				Increment:   b.Steps.Rate.Increment.String(),
				PenaltyRate: b.Steps.Rate.PenaltyRate.String(),
				Formula:     b.Steps.Rate.Formula,
			},
			Amount: AmountStepResponse{
				Label:        b.Steps.Amount.Label,
				UnpaidAmount: b.Steps.Amount.UnpaidAmount.String(),
				PenaltyRate:  b.Steps.Amount.PenaltyRate.String(),
				BasePenalty:  b.Steps.Amount.BasePenalty.String(),
				Formula:      b.Steps.Amount.Formula,
			},
			Status: StatusStepResponse{
				Label:            b.Steps.Status.Label,
				LegalStatus:      string(b.Steps.Status.LegalStatus),
				PenaltySuspended: b.Steps.Status.PenaltySuspended,
				FinalPenalty:     b.Steps.Status.FinalPenalty.String(),
				Formula:          b.Steps.Status.Formula,
			},
		},
	}

	for _, m := range b.MonthsBreakdown {
		response.MonthsBreakdown = append(response.MonthsBreakdown, MonthRateResponse{
			Month:   m.Month,
			Rate:    m.Rate.String(),
			Applied: m.Applied,
		})
	}

	return response
}

// ToComputeBatchRuleResponse converts legal results to the batch response DTO.
func ToComputeBatchRuleResponse(results []valueobject.LegalResult) ComputeBatchRuleResponse {
	response := ComputeBatchRuleResponse{
		Results: make([]LegalResultResponse, 0, len(results)),
		Total:   len(results),
	}
	for _, r := range results {
		response.Results = append(response.Results, ToLegalResultResponse(r))
	}
	return response
}
