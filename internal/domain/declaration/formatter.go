// Package declaration assembles computed batch results into the official
// payment-delay declaration and renders its export formats.
package declaration

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// lowConfidenceRemark is the best-match confidence under which the remarks
// column recommends manual validation.
const lowConfidenceRemark = 80

// Formatter assembles declarations in the layout of the official DGI
// payment-delay form.
type Formatter struct{}

// NewFormatter creates a Formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatInput carries the per-invoice computation results and the identity
// of the declaring company. The three result slices are index-aligned.
type FormatInput struct {
	Invoices        []*entity.ExtractedInvoice
	MatchingResults []valueobject.MatchingResult
	LegalResults    []valueobject.LegalResult

	CompanyICE       string
	CompanyName      string
	CompanyRC        string
	DeclarationYear  int
	DeclarationMonth *int
	ActivitySector   string
}

// FormatDeclaration builds the complete declaration: one line per invoice
// plus financial, penalty, quality and compliance totals.
func (f *Formatter) FormatDeclaration(input FormatInput) (*entity.Declaration, error) {
	if len(input.Invoices) != len(input.MatchingResults) || len(input.Invoices) != len(input.LegalResults) {
		return nil, domainerror.NewDeclarationError(
			domainerror.ErrCodeDeclarationInputMismatch,
			fmt.Sprintf("got %d invoices, %d matching results, %d legal results",
				len(input.Invoices), len(input.MatchingResults), len(input.LegalResults)),
			domainerror.ErrDeclarationInputMismatch,
		)
	}

	lines := make([]entity.DeclarationLine, 0, len(input.Invoices))

	totalInvoiced := decimal.Zero
	totalPaid := decimal.Zero
	totalUnpaid := decimal.Zero
	totalPenalty := decimal.Zero
	totalPenaltySuspended := decimal.Zero

	totalAlerts := 0
	requiringReview := 0

	onTime := 0
	delayed := 0
	unpaid := 0

	for i := range input.Invoices {
		invoice := input.Invoices[i]
		matching := input.MatchingResults[i]
		legal := input.LegalResults[i]

		line := f.buildLine(invoice, matching, legal)
		lines = append(lines, line)

		totalInvoiced = totalInvoiced.Add(line.InvoiceAmountTTC)
		totalPaid = totalPaid.Add(line.PaymentAmount)
		totalUnpaid = totalUnpaid.Add(line.InvoiceAmountTTC.Sub(line.PaymentAmount))

		if legal.PenaltySuspended {
			totalPenaltySuspended = totalPenaltySuspended.Add(legal.PenaltyAmount)
		} else {
			totalPenalty = totalPenalty.Add(legal.PenaltyAmount)
		}

		totalAlerts += len(legal.Alerts)
		if legal.RequiresManualReview {
			requiringReview++
		}

		// A partially paid invoice counts as unpaid for compliance purposes.
		switch {
		case matching.PaymentStatus == valueobject.PaymentStatusPaid && legal.DaysOverdue == 0:
			onTime++
		case matching.PaymentStatus == valueobject.PaymentStatusPaid:
			delayed++
		default:
			unpaid++
		}
	}

	return &entity.Declaration{
		CompanyICE:       input.CompanyICE,
		CompanyName:      input.CompanyName,
		CompanyRC:        input.CompanyRC,
		DeclarationYear:  input.DeclarationYear,
		DeclarationMonth: input.DeclarationMonth,
		ActivitySector:   input.ActivitySector,

		Lines: lines,

		TotalInvoices:           len(lines),
		TotalAmountInvoiced:     totalInvoiced.Round(2),
		TotalAmountPaid:         totalPaid.Round(2),
		TotalAmountUnpaid:       totalUnpaid.Round(2),
		TotalPenaltyAmount:      totalPenalty.Round(2),
		TotalPenaltySuspended:   totalPenaltySuspended.Round(2),
		InvoicesRequiringReview: requiringReview,
		TotalAlerts:             totalAlerts,
		InvoicesOnTime:          onTime,
		InvoicesDelayed:         delayed,
		InvoicesUnpaid:          unpaid,
	}, nil
}

// buildLine maps one invoice and its computation results onto a declaration
// line. Payment date and paid amount come from the legal result, which
// already resolved them against the matching outcome.
func (f *Formatter) buildLine(invoice *entity.ExtractedInvoice, matching valueobject.MatchingResult, legal valueobject.LegalResult) entity.DeclarationLine {
	return entity.DeclarationLine{
		SupplierName:            invoice.SupplierName,
		SupplierICE:             invoice.SupplierICE,
		InvoiceNumber:           invoice.InvoiceNumber,
		InvoiceDate:             invoice.IssueDate,
		LegalStartDate:          legal.LegalStartDate,
		LegalDueDate:            legal.LegalDueDate,
		InvoiceAmountTTC:        legal.InvoiceAmountTTC,
		PaymentDate:             legal.ActualPaymentDate,
		PaymentAmount:           legal.PaidAmount,
		ContractualPaymentDelay: legal.ContractualDelayDays,
		AppliedLegalDelay:       legal.AppliedLegalDelayDays,
		ActualPaymentDelay:      legal.DaysOverdue,
		MonthsOfDelay:           legal.MonthsOfDelay,
		PenaltyRate:             legal.PenaltyRate,
		PenaltyAmount:           legal.PenaltyAmount,
		PenaltySuspended:        legal.PenaltySuspended,
		PaymentStatus:           matching.PaymentStatus,
		LegalStatus:             legal.LegalStatus,
		Remarks:                 f.generateRemarks(invoice, matching, legal),
		RequiresManualReview:    legal.RequiresManualReview,
		AlertCount:              len(legal.Alerts),
	}
}

// generateRemarks builds the audit remarks column of a declaration line.
// Order is fixed: matching confidence, partial payment, legal status,
// penalty, critical alerts, missing fields.
func (f *Formatter) generateRemarks(invoice *entity.ExtractedInvoice, matching valueobject.MatchingResult, legal valueobject.LegalResult) string {
	var remarks []string

	if len(matching.Matches) > 0 {
		best := matching.Matches[0]
		remarks = append(remarks, fmt.Sprintf("Confiance matching: %.0f%%", best.ConfidenceScore))
		if best.ConfidenceScore < lowConfidenceRemark {
			remarks = append(remarks, "⚠ Validation manuelle recommandée")
		}
	}

	if matching.PaymentStatus == valueobject.PaymentStatusPartiallyPaid {
		remarks = append(remarks, fmt.Sprintf("Paiement partiel: %s / %s MAD",
			legal.PaidAmount.StringFixed(2), legal.InvoiceAmountTTC.StringFixed(2)))
	}

	if legal.LegalStatus != valueobject.LegalStatusNormal {
		remarks = append(remarks, fmt.Sprintf("Statut: %s", legal.LegalStatus))
	}

	if legal.PenaltySuspended {
		remarks = append(remarks, fmt.Sprintf("Pénalité suspendue: %s MAD", legal.PenaltyAmount.StringFixed(2)))
	} else if legal.PenaltyAmount.IsPositive() {
		remarks = append(remarks, fmt.Sprintf("Pénalité: %s MAD (%s%%)",
			legal.PenaltyAmount.StringFixed(2), legal.PenaltyRate.StringFixed(2)))
	}

	if critical := legal.Alerts.CriticalCount(); critical > 0 {
		remarks = append(remarks, fmt.Sprintf("⚠ %d alerte(s) critique(s)", critical))
	}

	if len(invoice.MissingFields) > 0 {
		remarks = append(remarks, fmt.Sprintf("Champs manquants: %d", len(invoice.MissingFields)))
	}

	return strings.Join(remarks, " | ")
}
