package valueobject

import (
	"time"

	"github.com/shopspring/decimal"
)

// Match links one payment to an invoice with an explainable confidence score.
type Match struct {
	PaymentID       string
	MatchedAmount   decimal.Decimal
	ConfidenceScore float64
	Reasons         []string
}

// MatchingResult is the complete matching outcome for a single invoice.
// Matches are ordered by confidence, highest first.
type MatchingResult struct {
	InvoiceID       string
	Matches         []Match
	PaymentStatus   PaymentStatus
	TotalPaid       decimal.Decimal
	RemainingAmount decimal.Decimal
	PaymentDates    []time.Time
}

// BestConfidence returns the confidence of the strongest match, 0 when unmatched.
func (r MatchingResult) BestConfidence() float64 {
	if len(r.Matches) == 0 {
		return 0
	}
	return r.Matches[0].ConfidenceScore
}

// FirstPaymentDate returns the earliest retained payment date, nil when unpaid.
func (r MatchingResult) FirstPaymentDate() *time.Time {
	if len(r.PaymentDates) == 0 {
		return nil
	}
	d := r.PaymentDates[0]
	return &d
}

// IsPaid reports whether the invoice is settled within rounding tolerance.
func (r MatchingResult) IsPaid() bool {
	return r.PaymentStatus == PaymentStatusPaid
}
