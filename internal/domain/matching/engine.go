// Package matching pairs extracted invoices with extracted payments using
// deterministic scoring rules. Every retained match carries the list of
// reasons that produced its score, so results stay explainable and auditable.
package matching

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

var (
	// closeAmountThreshold is the relative difference under which two
	// amounts still count as close (5%) when the exact tolerance misses.
	closeAmountThreshold = decimal.NewFromFloat(0.05)

	// settledTolerance is the residual below which an invoice counts as
	// fully paid (one centime rounding allowance).
	settledTolerance = decimal.NewFromFloat(0.01)

	hundred = decimal.NewFromInt(100)
)

// Engine scores invoice-payment pairs and derives a payment status per
// invoice. Scoring is pure and stateless; one engine can serve concurrent
// batches.
type Engine struct {
	config valueobject.MatchingConfig
}

// NewEngine creates an Engine for the given configuration.
func NewEngine(config valueobject.MatchingConfig) (*Engine, error) {
	if config.AmountTolerance.IsNegative() {
		return nil, domainerror.NewMatchingError(
			domainerror.ErrCodeInvalidMatchingConfig,
			"amount tolerance must not be negative",
			domainerror.ErrInvalidMatchingConfig,
		)
	}
	if config.MinConfidenceScore < 0 || config.MinConfidenceScore > 100 {
		return nil, domainerror.NewMatchingError(
			domainerror.ErrCodeInvalidMatchingConfig,
			fmt.Sprintf("minimum confidence must be within 0-100, got %v", config.MinConfidenceScore),
			domainerror.ErrInvalidMatchingConfig,
		)
	}
	if config.PaymentWindowDays <= 0 {
		return nil, domainerror.NewMatchingError(
			domainerror.ErrCodeInvalidMatchingConfig,
			fmt.Sprintf("payment window must be positive, got %d days", config.PaymentWindowDays),
			domainerror.ErrInvalidMatchingConfig,
		)
	}

	return &Engine{config: config}, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() valueobject.MatchingConfig {
	return e.config
}

// MatchBatch matches every invoice against the full payment list and returns
// one result per invoice, in input order. With no payments supplied every
// invoice gets an explicit unpaid result rather than being skipped.
func (e *Engine) MatchBatch(invoices []*entity.ExtractedInvoice, payments []*entity.ExtractedPayment) []valueobject.MatchingResult {
	results := make([]valueobject.MatchingResult, 0, len(invoices))

	if len(payments) == 0 {
		for _, invoice := range invoices {
			results = append(results, unpaidResult(invoice))
		}
		return results
	}

	for _, invoice := range invoices {
		results = append(results, e.matchOne(invoice, payments))
	}
	return results
}

// matchOne scores every payment against one invoice, keeps those above the
// minimum confidence and derives the invoice's payment status from the sum
// of the matched amounts.
func (e *Engine) matchOne(invoice *entity.ExtractedInvoice, payments []*entity.ExtractedPayment) valueobject.MatchingResult {
	var matches []valueobject.Match
	for _, payment := range payments {
		score, reasons, matchedAmount := e.score(invoice, payment)
		if score >= e.config.MinConfidenceScore {
			matches = append(matches, valueobject.Match{
				PaymentID:       payment.ID.String(),
				MatchedAmount:   matchedAmount,
				ConfidenceScore: score,
				Reasons:         reasons,
			})
		}
	}

	// Highest confidence first; ties keep the original payment order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ConfidenceScore > matches[j].ConfidenceScore
	})

	totalPaid := decimal.Zero
	for _, match := range matches {
		totalPaid = totalPaid.Add(match.MatchedAmount)
	}
	remaining := invoice.AmountTTC.Sub(totalPaid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	var status valueobject.PaymentStatus
	switch {
	case totalPaid.IsZero():
		status = valueobject.PaymentStatusUnpaid
	case remaining.GreaterThan(settledTolerance):
		status = valueobject.PaymentStatusPartiallyPaid
	default:
		status = valueobject.PaymentStatusPaid
	}

	return valueobject.MatchingResult{
		InvoiceID:       invoice.ID.String(),
		Matches:         matches,
		PaymentStatus:   status,
		TotalPaid:       totalPaid,
		RemainingAmount: remaining,
		PaymentDates:    collectPaymentDates(matches, payments),
	}
}

// score evaluates the five matching rules for one invoice-payment pair. The
// rules are independent and their points add up; order does not imply
// priority. Returns the confidence, the reasons behind it, and the amount
// this payment settles on the invoice.
func (e *Engine) score(invoice *entity.ExtractedInvoice, payment *entity.ExtractedPayment) (float64, []string, decimal.Decimal) {
	score := 0.0
	var reasons []string

	invoiceAmount := invoice.AmountTTC
	paymentAmount := payment.Amount
	matchedAmount := paymentAmount
	if invoiceAmount.LessThan(paymentAmount) {
		matchedAmount = invoiceAmount
	}

	// Rule 1: amount matching.
	if invoiceAmount.IsPositive() && paymentAmount.IsPositive() {
		relativeDiff := invoiceAmount.Sub(paymentAmount).Abs().Div(invoiceAmount)
		switch {
		case e.config.IsWithinTolerance(invoiceAmount, paymentAmount):
			score += e.config.ExactAmountPoints
			reasons = append(reasons, fmt.Sprintf("Montant exact: facture %s, paiement %s",
				invoiceAmount.StringFixed(2), paymentAmount.StringFixed(2)))
		case relativeDiff.LessThanOrEqual(closeAmountThreshold):
			score += e.config.CloseAmountPoints
			reasons = append(reasons, fmt.Sprintf("Montant proche: différence de %s%%",
				relativeDiff.Mul(hundred).StringFixed(1)))
		case paymentAmount.LessThan(invoiceAmount):
			score += e.config.PartialAmountPoints
			matchedAmount = paymentAmount
			reasons = append(reasons, fmt.Sprintf("Paiement partiel: %s / %s",
				paymentAmount.StringFixed(2), invoiceAmount.StringFixed(2)))
		}
	}

	// Rule 2: date coherence. A payment dated before the invoice earns no
	// points but the anomaly is kept as an explanation.
	if invoice.IssueDate != nil && payment.PaymentDate != nil {
		issueDate := dateOnly(*invoice.IssueDate)
		paymentDate := dateOnly(*payment.PaymentDate)
		if !paymentDate.Before(issueDate) {
			score += e.config.DateCoherencePoints
			reasons = append(reasons, fmt.Sprintf("Date cohérente: paiement après facture (%s)",
				paymentDate.Format("2006-01-02")))
		} else {
			reasons = append(reasons, fmt.Sprintf("ATTENTION: Paiement avant émission de facture (facture: %s, paiement: %s)",
				issueDate.Format("2006-01-02"), paymentDate.Format("2006-01-02")))
		}
	}

	// Rule 3: supplier and beneficiary name similarity.
	if invoice.SupplierName != "" && payment.BeneficiaryName != "" {
		similarity := NameSimilarity(invoice.SupplierName, payment.BeneficiaryName)
		switch {
		case similarity > 0.9:
			score += e.config.StrongNamePoints
			reasons = append(reasons, fmt.Sprintf("Bénéficiaire identique: %s", payment.BeneficiaryName))
		case similarity > 0.7:
			score += e.config.WeakNamePoints
			reasons = append(reasons, fmt.Sprintf("Bénéficiaire similaire: %s", payment.BeneficiaryName))
		}
	}

	// Rule 4: reference containment, falling back to shared digit runs.
	if invoice.InvoiceNumber != "" && payment.Reference != "" {
		invoiceNumber := strings.ToUpper(invoice.InvoiceNumber)
		paymentReference := strings.ToUpper(payment.Reference)
		switch {
		case strings.Contains(paymentReference, invoiceNumber):
			score += e.config.ExactReferencePoints
			reasons = append(reasons, fmt.Sprintf("Référence trouvée: %s dans %s",
				invoice.InvoiceNumber, payment.Reference))
		case fuzzyReferenceMatch(invoiceNumber, paymentReference):
			score += e.config.FuzzyReferencePoints
			reasons = append(reasons, fmt.Sprintf("Référence partielle: similitude avec %s", payment.Reference))
		}
	}

	// Rule 5: payment within the reasonable window after issue.
	if invoice.IssueDate != nil && payment.PaymentDate != nil {
		windowEnd := dateOnly(*invoice.IssueDate).AddDate(0, 0, e.config.PaymentWindowDays)
		if !dateOnly(*payment.PaymentDate).After(windowEnd) {
			score += e.config.PaymentWindowPoints
			reasons = append(reasons, fmt.Sprintf("Paiement dans un délai raisonnable (≤%dj)", e.config.PaymentWindowDays))
		}
	}

	return score, reasons, matchedAmount
}

// collectPaymentDates gathers the dated payments behind the retained
// matches, earliest first.
func collectPaymentDates(matches []valueobject.Match, payments []*entity.ExtractedPayment) []time.Time {
	var dates []time.Time
	for _, match := range matches {
		for _, payment := range payments {
			if payment.ID.String() != match.PaymentID {
				continue
			}
			if payment.PaymentDate != nil {
				dates = append(dates, *payment.PaymentDate)
			}
			break
		}
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}

// unpaidResult is the explicit outcome for an invoice when no payments are
// available to match against.
func unpaidResult(invoice *entity.ExtractedInvoice) valueobject.MatchingResult {
	return valueobject.MatchingResult{
		InvoiceID:       invoice.ID.String(),
		PaymentStatus:   valueobject.PaymentStatusUnpaid,
		TotalPaid:       decimal.Zero,
		RemainingAmount: invoice.AmountTTC,
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
