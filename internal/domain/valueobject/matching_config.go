// Package valueobject contains domain value objects for the DGI compliance system.
package valueobject

import "github.com/shopspring/decimal"

// MatchingConfig contains the configuration for invoice-to-payment matching.
// Scores are additive; a pair is retained once it reaches MinConfidenceScore.
type MatchingConfig struct {
	// Amount tolerance as a fraction of the invoice total (0.01 = 1%)
	AmountTolerance decimal.Decimal

	// Minimum confidence for a match to be retained (0-100)
	MinConfidenceScore float64

	// Rule weights
	ExactAmountPoints    float64 // amount within tolerance
	CloseAmountPoints    float64 // amount within 5%
	PartialAmountPoints  float64 // payment smaller than invoice
	DateCoherencePoints  float64 // payment on or after issue date
	StrongNamePoints     float64 // name similarity > 0.9
	WeakNamePoints       float64 // name similarity > 0.7
	ExactReferencePoints float64 // invoice number inside payment reference
	FuzzyReferencePoints float64 // shared digit run
	PaymentWindowPoints  float64 // payment within PaymentWindowDays of issue

	// Payment window considered "reasonable" after the issue date
	PaymentWindowDays int
}

// DefaultMatchingConfig returns the default matching configuration.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		AmountTolerance:      decimal.NewFromFloat(0.01),
		MinConfidenceScore:   60,
		ExactAmountPoints:    40,
		CloseAmountPoints:    30,
		PartialAmountPoints:  20,
		DateCoherencePoints:  20,
		StrongNamePoints:     25,
		WeakNamePoints:       15,
		ExactReferencePoints: 15,
		FuzzyReferencePoints: 10,
		PaymentWindowPoints:  10,
		PaymentWindowDays:    180,
	}
}

// IsWithinTolerance checks if the payment amount matches the invoice amount
// within the configured relative tolerance.
func (c MatchingConfig) IsWithinTolerance(invoiceAmount, paymentAmount decimal.Decimal) bool {
	if invoiceAmount.IsZero() {
		return false
	}
	diff := invoiceAmount.Sub(paymentAmount).Abs()
	relative := diff.Div(invoiceAmount.Abs())
	return relative.LessThanOrEqual(c.AmountTolerance)
}
