package declaration

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dptr(t time.Time) *time.Time {
	return &t
}

func testInvoice(number, supplier string, amount string) *entity.ExtractedInvoice {
	invoice := entity.NewExtractedInvoice(uuid.New(), uuid.New())
	invoice.InvoiceNumber = number
	invoice.SupplierName = supplier
	invoice.SupplierICE = "001234567000089"
	invoice.IssueDate = dptr(d(2023, time.July, 20))
	invoice.AmountTTC = dec(amount)
	return invoice
}

func paidMatching(confidence float64, paid string) valueobject.MatchingResult {
	return valueobject.MatchingResult{
		Matches: []valueobject.Match{
			{PaymentID: uuid.NewString(), MatchedAmount: dec(paid), ConfidenceScore: confidence},
		},
		PaymentStatus: valueobject.PaymentStatusPaid,
		TotalPaid:     dec(paid),
	}
}

func TestFormatDeclaration(t *testing.T) {
	onTimeInvoice := testInvoice("FAC-1", "ACME", "10169.50")
	disputedInvoice := testInvoice("FAC-2", "ATLAS", "10169.50")
	partialInvoice := testInvoice("FAC-3", "OMEGA", "10000.00")
	partialInvoice.MissingFields = []string{"supplier_ice", "delivery_date"}
	delayedInvoice := testInvoice("FAC-4", "DELTA", "10169.50")

	invoices := []*entity.ExtractedInvoice{onTimeInvoice, disputedInvoice, partialInvoice, delayedInvoice}

	matching := []valueobject.MatchingResult{
		paidMatching(110, "10169.50"),
		{PaymentStatus: valueobject.PaymentStatusUnpaid, RemainingAmount: dec("10169.50")},
		{
			Matches: []valueobject.Match{
				{PaymentID: uuid.NewString(), MatchedAmount: dec("4000.00"), ConfidenceScore: 75},
			},
			PaymentStatus:   valueobject.PaymentStatusPartiallyPaid,
			TotalPaid:       dec("4000.00"),
			RemainingAmount: dec("6000.00"),
		},
		paidMatching(110, "10169.50"),
	}

	legal := []valueobject.LegalResult{
		{
			LegalStartDate:        dptr(d(2023, time.July, 20)),
			LegalDueDate:          dptr(d(2023, time.September, 18)),
			AppliedLegalDelayDays: 60,
			ActualPaymentDate:     dptr(d(2023, time.September, 10)),
			LegalStatus:           valueobject.LegalStatusNormal,
			InvoiceAmountTTC:      dec("10169.50"),
			PaidAmount:            dec("10169.50"),
			IsCalculable:          true,
		},
		{
			LegalStartDate:        dptr(d(2023, time.July, 20)),
			LegalDueDate:          dptr(d(2023, time.September, 18)),
			AppliedLegalDelayDays: 60,
			DaysOverdue:           58,
			MonthsOfDelay:         2,
			PenaltyRate:           dec("3.85"),
			PenaltyAmount:         dec("391.53"),
			PenaltySuspended:      true,
			LegalStatus:           valueobject.LegalStatusDisputed,
			InvoiceAmountTTC:      dec("10169.50"),
			UnpaidAmount:          dec("10169.50"),
			Alerts: valueobject.Alerts{
				{Code: valueobject.AlertDisputedInvoice, Severity: valueobject.SeverityWarning},
				{Code: valueobject.AlertExcessiveDelay, Severity: valueobject.SeverityError},
			},
			RequiresManualReview: true,
			IsCalculable:         true,
		},
		{
			LegalStartDate:        dptr(d(2023, time.July, 20)),
			LegalDueDate:          dptr(d(2023, time.September, 18)),
			AppliedLegalDelayDays: 60,
			DaysOverdue:           58,
			MonthsOfDelay:         2,
			PenaltyRate:           dec("3.85"),
			PenaltyAmount:         dec("231.00"),
			LegalStatus:           valueobject.LegalStatusNormal,
			InvoiceAmountTTC:      dec("10000.00"),
			PaidAmount:            dec("4000.00"),
			UnpaidAmount:          dec("6000.00"),
			Alerts: valueobject.Alerts{
				{Code: valueobject.AlertLowConfidenceMatch, Severity: valueobject.SeverityWarning},
			},
			RequiresManualReview: true,
			IsCalculable:         true,
		},
		{
			LegalStartDate:        dptr(d(2023, time.July, 20)),
			LegalDueDate:          dptr(d(2023, time.September, 18)),
			AppliedLegalDelayDays: 60,
			ActualPaymentDate:     dptr(d(2023, time.September, 25)),
			DaysOverdue:           7,
			MonthsOfDelay:         1,
			PenaltyRate:           dec("3"),
			PenaltyAmount:         dec("305.09"),
			LegalStatus:           valueobject.LegalStatusNormal,
			InvoiceAmountTTC:      dec("10169.50"),
			PaidAmount:            dec("10169.50"),
			IsCalculable:          true,
		},
	}

	formatter := NewFormatter()
	declaration, err := formatter.FormatDeclaration(FormatInput{
		Invoices:        invoices,
		MatchingResults: matching,
		LegalResults:    legal,
		CompanyICE:      "000012345000078",
		CompanyName:     "MAROC IMPORT SA",
		CompanyRC:       "RC12345",
		DeclarationYear: 2023,
	})
	if err != nil {
		t.Fatalf("FormatDeclaration returned error: %v", err)
	}

	if declaration.TotalInvoices != 4 {
		t.Errorf("expected 4 invoices, got %d", declaration.TotalInvoices)
	}
	if !declaration.TotalAmountInvoiced.Equal(dec("40508.50")) {
		t.Errorf("expected total invoiced 40508.50, got %s", declaration.TotalAmountInvoiced)
	}
	if !declaration.TotalAmountPaid.Equal(dec("24339.00")) {
		t.Errorf("expected total paid 24339.00, got %s", declaration.TotalAmountPaid)
	}
	if !declaration.TotalAmountUnpaid.Equal(dec("16169.50")) {
		t.Errorf("expected total unpaid 16169.50, got %s", declaration.TotalAmountUnpaid)
	}

	// suspended penalties are totaled apart from applied ones
	if !declaration.TotalPenaltyAmount.Equal(dec("536.09")) {
		t.Errorf("expected total penalties 536.09, got %s", declaration.TotalPenaltyAmount)
	}
	if !declaration.TotalPenaltySuspended.Equal(dec("391.53")) {
		t.Errorf("expected suspended penalties 391.53, got %s", declaration.TotalPenaltySuspended)
	}

	if declaration.TotalAlerts != 3 {
		t.Errorf("expected 3 alerts, got %d", declaration.TotalAlerts)
	}
	if declaration.InvoicesRequiringReview != 2 {
		t.Errorf("expected 2 invoices requiring review, got %d", declaration.InvoicesRequiringReview)
	}

	// partially paid counts as unpaid for compliance purposes
	if declaration.InvoicesOnTime != 1 {
		t.Errorf("expected 1 invoice on time, got %d", declaration.InvoicesOnTime)
	}
	if declaration.InvoicesDelayed != 1 {
		t.Errorf("expected 1 delayed invoice, got %d", declaration.InvoicesDelayed)
	}
	if declaration.InvoicesUnpaid != 2 {
		t.Errorf("expected 2 unpaid invoices, got %d", declaration.InvoicesUnpaid)
	}

	// line fields come from the legal result, not from matching
	first := declaration.Lines[0]
	if first.SupplierName != "ACME" || first.InvoiceNumber != "FAC-1" {
		t.Errorf("unexpected identity on first line: %s %s", first.SupplierName, first.InvoiceNumber)
	}
	if first.PaymentDate == nil || !first.PaymentDate.Equal(d(2023, time.September, 10)) {
		t.Errorf("expected payment date 2023-09-10, got %v", first.PaymentDate)
	}
	if first.PaymentStatus != valueobject.PaymentStatusPaid {
		t.Errorf("expected PAID on first line, got %s", first.PaymentStatus)
	}
	if first.LegalStatus != valueobject.LegalStatusNormal {
		t.Errorf("expected NORMAL on first line, got %s", first.LegalStatus)
	}
	if declaration.Lines[1].AlertCount != 2 {
		t.Errorf("expected 2 alerts on disputed line, got %d", declaration.Lines[1].AlertCount)
	}
}

func TestFormatDeclarationInputMismatch(t *testing.T) {
	formatter := NewFormatter()
	_, err := formatter.FormatDeclaration(FormatInput{
		Invoices:        []*entity.ExtractedInvoice{testInvoice("FAC-1", "ACME", "100.00")},
		MatchingResults: []valueobject.MatchingResult{},
		LegalResults:    []valueobject.LegalResult{},
		CompanyICE:      "000012345000078",
		CompanyName:     "MAROC IMPORT SA",
		CompanyRC:       "RC12345",
		DeclarationYear: 2023,
	})
	if !errors.Is(err, domainerror.ErrDeclarationInputMismatch) {
		t.Errorf("expected ErrDeclarationInputMismatch, got %v", err)
	}
}

func TestGenerateRemarks(t *testing.T) {
	formatter := NewFormatter()

	t.Run("full remark chain in fixed order", func(t *testing.T) {
		invoice := testInvoice("FAC-3", "OMEGA", "10000.00")
		invoice.MissingFields = []string{"supplier_ice", "delivery_date"}

		matching := valueobject.MatchingResult{
			Matches: []valueobject.Match{
				{PaymentID: uuid.NewString(), MatchedAmount: dec("4000.00"), ConfidenceScore: 75},
			},
			PaymentStatus: valueobject.PaymentStatusPartiallyPaid,
		}
		legal := valueobject.LegalResult{
			PenaltyRate:      dec("3.85"),
			PenaltyAmount:    dec("231.00"),
			LegalStatus:      valueobject.LegalStatusNormal,
			InvoiceAmountTTC: dec("10000.00"),
			PaidAmount:       dec("4000.00"),
			Alerts: valueobject.Alerts{
				{Code: valueobject.AlertExcessiveDelay, Severity: valueobject.SeverityError},
			},
		}

		want := "Confiance matching: 75% | ⚠ Validation manuelle recommandée | " +
			"Paiement partiel: 4000.00 / 10000.00 MAD | Pénalité: 231.00 MAD (3.85%) | " +
			"⚠ 1 alerte(s) critique(s) | Champs manquants: 2"
		got := formatter.generateRemarks(invoice, matching, legal)
		if got != want {
			t.Errorf("remarks mismatch:\ngot  %q\nwant %q", got, want)
		}
	})

	t.Run("suspended penalty replaces the applied penalty remark", func(t *testing.T) {
		invoice := testInvoice("FAC-2", "ATLAS", "10169.50")
		matching := valueobject.MatchingResult{PaymentStatus: valueobject.PaymentStatusUnpaid}
		legal := valueobject.LegalResult{
			PenaltyRate:      dec("3.85"),
			PenaltyAmount:    dec("391.53"),
			PenaltySuspended: true,
			LegalStatus:      valueobject.LegalStatusDisputed,
			InvoiceAmountTTC: dec("10169.50"),
		}

		want := "Statut: DISPUTED | Pénalité suspendue: 391.53 MAD"
		got := formatter.generateRemarks(invoice, matching, legal)
		if got != want {
			t.Errorf("remarks mismatch:\ngot  %q\nwant %q", got, want)
		}
	})

	t.Run("clean invoice yields empty remarks", func(t *testing.T) {
		invoice := testInvoice("FAC-1", "ACME", "10169.50")
		matching := valueobject.MatchingResult{PaymentStatus: valueobject.PaymentStatusUnpaid}
		legal := valueobject.LegalResult{LegalStatus: valueobject.LegalStatusNormal}

		if got := formatter.generateRemarks(invoice, matching, legal); got != "" {
			t.Errorf("expected empty remarks, got %q", got)
		}
	})
}
