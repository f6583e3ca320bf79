package matching

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dptr(t time.Time) *time.Time {
	return &t
}

func testInvoice(number, supplier, amount string, issueDate *time.Time) *entity.ExtractedInvoice {
	invoice := entity.NewExtractedInvoice(uuid.New(), uuid.New())
	invoice.InvoiceNumber = number
	invoice.SupplierName = supplier
	invoice.AmountTTC = decimal.RequireFromString(amount)
	invoice.IssueDate = issueDate
	return invoice
}

func testPayment(reference, beneficiary, amount string, paymentDate *time.Time) *entity.ExtractedPayment {
	payment := entity.NewExtractedPayment(uuid.New(), uuid.New())
	payment.Reference = reference
	payment.BeneficiaryName = beneficiary
	payment.Amount = decimal.RequireFromString(amount)
	payment.PaymentDate = paymentDate
	return payment
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(valueobject.DefaultMatchingConfig())
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}
	return engine
}

func hasReason(match valueobject.Match, want string) bool {
	for _, reason := range match.Reasons {
		if reason == want {
			return true
		}
	}
	return false
}

func TestMatchBatchExactMatch(t *testing.T) {
	engine := newTestEngine(t)
	invoice := testInvoice("FAC-2023-001", "ACME SARL", "10169.50", dptr(d(2023, time.July, 20)))
	payment := testPayment("VIR FAC-2023-001", "ACME", "10169.50", dptr(d(2023, time.September, 10)))

	results := engine.MatchBatch([]*entity.ExtractedInvoice{invoice}, []*entity.ExtractedPayment{payment})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	result := results[0]

	if result.PaymentStatus != valueobject.PaymentStatusPaid {
		t.Errorf("expected status PAID, got %s", result.PaymentStatus)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}

	// all five rules fire: 40 + 20 + 25 + 15 + 10
	if got := result.Matches[0].ConfidenceScore; got != 110 {
		t.Errorf("expected confidence 110, got %v", got)
	}
	if !result.TotalPaid.Equal(decimal.RequireFromString("10169.50")) {
		t.Errorf("expected total paid 10169.50, got %s", result.TotalPaid)
	}
	if !result.RemainingAmount.IsZero() {
		t.Errorf("expected no remaining amount, got %s", result.RemainingAmount)
	}
	if len(result.PaymentDates) != 1 || !result.PaymentDates[0].Equal(d(2023, time.September, 10)) {
		t.Errorf("expected payment date 2023-09-10, got %v", result.PaymentDates)
	}
}

func TestMatchBatchPartialPayment(t *testing.T) {
	engine := newTestEngine(t)
	invoice := testInvoice("FAC-2023-087", "ATLAS DISTRIBUTION", "10000.00", dptr(d(2023, time.July, 20)))
	payment := testPayment("VIR 2023-087", "ATLAS DISTRIBUTION SARL", "4000.00", dptr(d(2023, time.September, 10)))

	results := engine.MatchBatch([]*entity.ExtractedInvoice{invoice}, []*entity.ExtractedPayment{payment})
	result := results[0]

	if result.PaymentStatus != valueobject.PaymentStatusPartiallyPaid {
		t.Errorf("expected status PARTIALLY_PAID, got %s", result.PaymentStatus)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if !result.Matches[0].MatchedAmount.Equal(decimal.RequireFromString("4000.00")) {
		t.Errorf("expected matched amount 4000.00, got %s", result.Matches[0].MatchedAmount)
	}
	if !result.TotalPaid.Equal(decimal.RequireFromString("4000.00")) {
		t.Errorf("expected total paid 4000.00, got %s", result.TotalPaid)
	}
	if !result.RemainingAmount.Equal(decimal.RequireFromString("6000.00")) {
		t.Errorf("expected remaining 6000.00, got %s", result.RemainingAmount)
	}
	if !hasReason(result.Matches[0], "Paiement partiel: 4000.00 / 10000.00") {
		t.Errorf("expected partial payment reason, got %v", result.Matches[0].Reasons)
	}
}

func TestMatchBatchCloseAmount(t *testing.T) {
	engine := newTestEngine(t)
	invoice := testInvoice("FAC-2023-101", "ACME", "10000.00", dptr(d(2023, time.July, 20)))
	payment := testPayment("VIR 99", "ACME", "9700.00", dptr(d(2023, time.August, 10)))

	results := engine.MatchBatch([]*entity.ExtractedInvoice{invoice}, []*entity.ExtractedPayment{payment})
	result := results[0]

	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if !hasReason(result.Matches[0], "Montant proche: différence de 3.0%") {
		t.Errorf("expected close amount reason, got %v", result.Matches[0].Reasons)
	}

	// a close amount still settles only what was actually paid
	if !result.Matches[0].MatchedAmount.Equal(decimal.RequireFromString("9700.00")) {
		t.Errorf("expected matched amount 9700.00, got %s", result.Matches[0].MatchedAmount)
	}
	if result.PaymentStatus != valueobject.PaymentStatusPartiallyPaid {
		t.Errorf("expected status PARTIALLY_PAID, got %s", result.PaymentStatus)
	}
	if !result.RemainingAmount.Equal(decimal.RequireFromString("300.00")) {
		t.Errorf("expected remaining 300.00, got %s", result.RemainingAmount)
	}
}

func TestMatchBatchNoPayments(t *testing.T) {
	engine := newTestEngine(t)
	invoices := []*entity.ExtractedInvoice{
		testInvoice("FAC-1", "ACME", "1000.00", dptr(d(2023, time.July, 20))),
		testInvoice("FAC-2", "ATLAS", "2500.75", dptr(d(2023, time.August, 3))),
	}

	results := engine.MatchBatch(invoices, nil)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, result := range results {
		if result.PaymentStatus != valueobject.PaymentStatusUnpaid {
			t.Errorf("result %d: expected status UNPAID, got %s", i, result.PaymentStatus)
		}
		if len(result.Matches) != 0 {
			t.Errorf("result %d: expected no matches, got %d", i, len(result.Matches))
		}
		if !result.TotalPaid.IsZero() {
			t.Errorf("result %d: expected zero total paid, got %s", i, result.TotalPaid)
		}
		if !result.RemainingAmount.Equal(invoices[i].AmountTTC) {
			t.Errorf("result %d: expected full remaining amount, got %s", i, result.RemainingAmount)
		}
		if result.FirstPaymentDate() != nil {
			t.Errorf("result %d: expected no payment dates", i)
		}
	}
}

func TestMatchBatchNoInvoices(t *testing.T) {
	engine := newTestEngine(t)
	payments := []*entity.ExtractedPayment{
		testPayment("VIR 1", "ACME", "1000.00", dptr(d(2023, time.September, 1))),
	}

	results := engine.MatchBatch(nil, payments)

	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestMatchBatchBelowMinimumConfidence(t *testing.T) {
	engine := newTestEngine(t)
	invoice := testInvoice("FAC-555", "ACME", "10000.00", dptr(d(2023, time.July, 20)))

	// wrong amount, wrong beneficiary, unrelated reference: only date
	// coherence and the payment window score, 30 points in total
	payment := testPayment("XYZ", "OMEGA TRADING", "20000.00", dptr(d(2023, time.September, 1)))

	results := engine.MatchBatch([]*entity.ExtractedInvoice{invoice}, []*entity.ExtractedPayment{payment})
	result := results[0]

	if len(result.Matches) != 0 {
		t.Fatalf("expected no retained matches, got %d", len(result.Matches))
	}
	if result.PaymentStatus != valueobject.PaymentStatusUnpaid {
		t.Errorf("expected status UNPAID, got %s", result.PaymentStatus)
	}
	if !result.RemainingAmount.Equal(decimal.RequireFromString("10000.00")) {
		t.Errorf("expected full remaining amount, got %s", result.RemainingAmount)
	}
}

func TestMatchBatchOrdersByConfidence(t *testing.T) {
	engine := newTestEngine(t)
	invoice := testInvoice("FAC-100", "ATLAS", "10000.00", dptr(d(2023, time.July, 20)))

	weak := testPayment("CHQ 555888", "ATLAS", "3000.00", dptr(d(2023, time.September, 1)))
	strong := testPayment("REGLEMENT FAC-100", "ATLAS", "10000.00", dptr(d(2023, time.October, 5)))

	results := engine.MatchBatch(
		[]*entity.ExtractedInvoice{invoice},
		[]*entity.ExtractedPayment{weak, strong},
	)
	result := results[0]

	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	if result.Matches[0].PaymentID != strong.ID.String() {
		t.Errorf("expected strongest match first, got payment %s", result.Matches[0].PaymentID)
	}
	if result.Matches[0].ConfidenceScore <= result.Matches[1].ConfidenceScore {
		t.Errorf("expected descending confidence, got %v then %v",
			result.Matches[0].ConfidenceScore, result.Matches[1].ConfidenceScore)
	}

	// payment dates are sorted chronologically, not by confidence
	if len(result.PaymentDates) != 2 || !result.PaymentDates[0].Equal(d(2023, time.September, 1)) {
		t.Errorf("expected earliest payment date first, got %v", result.PaymentDates)
	}
}

func TestMatchBatchTiesKeepPaymentOrder(t *testing.T) {
	engine := newTestEngine(t)
	invoice := testInvoice("FAC-777", "ATLAS NEGOCE", "10000.00", dptr(d(2023, time.July, 20)))

	first := testPayment("VIR A", "ATLAS NEGOCE", "6000.00", dptr(d(2023, time.August, 1)))
	second := testPayment("VIR B", "ATLAS NEGOCE", "4000.00", dptr(d(2023, time.August, 15)))

	results := engine.MatchBatch(
		[]*entity.ExtractedInvoice{invoice},
		[]*entity.ExtractedPayment{first, second},
	)
	result := results[0]

	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	if result.Matches[0].ConfidenceScore != result.Matches[1].ConfidenceScore {
		t.Fatalf("expected equal confidences, got %v and %v",
			result.Matches[0].ConfidenceScore, result.Matches[1].ConfidenceScore)
	}
	if result.Matches[0].PaymentID != first.ID.String() {
		t.Errorf("expected ties to keep payment order, got payment %s first", result.Matches[0].PaymentID)
	}

	// both partial payments together settle the invoice
	if result.PaymentStatus != valueobject.PaymentStatusPaid {
		t.Errorf("expected status PAID, got %s", result.PaymentStatus)
	}
	if !result.RemainingAmount.IsZero() {
		t.Errorf("expected no remaining amount, got %s", result.RemainingAmount)
	}
}

func TestMatchBatchPaymentBeforeInvoice(t *testing.T) {
	engine := newTestEngine(t)
	invoice := testInvoice("FAC-900", "ACME", "5000.00", dptr(d(2023, time.September, 15)))
	payment := testPayment("VIR FAC-900", "ACME", "5000.00", dptr(d(2023, time.September, 1)))

	results := engine.MatchBatch([]*entity.ExtractedInvoice{invoice}, []*entity.ExtractedPayment{payment})
	result := results[0]

	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}

	// no date coherence points: 40 + 25 + 15 + 10
	if got := result.Matches[0].ConfidenceScore; got != 90 {
		t.Errorf("expected confidence 90, got %v", got)
	}

	found := false
	for _, reason := range result.Matches[0].Reasons {
		if strings.HasPrefix(reason, "ATTENTION: Paiement avant émission de facture") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected anomaly reason for early payment, got %v", result.Matches[0].Reasons)
	}
}

func TestNewEngineValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*valueobject.MatchingConfig)
	}{
		{"negative amount tolerance", func(c *valueobject.MatchingConfig) { c.AmountTolerance = decimal.NewFromFloat(-0.01) }},
		{"confidence above range", func(c *valueobject.MatchingConfig) { c.MinConfidenceScore = 150 }},
		{"confidence below range", func(c *valueobject.MatchingConfig) { c.MinConfidenceScore = -1 }},
		{"zero payment window", func(c *valueobject.MatchingConfig) { c.PaymentWindowDays = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valueobject.DefaultMatchingConfig()
			tt.mutate(&config)

			_, err := NewEngine(config)
			if !errors.Is(err, domainerror.ErrInvalidMatchingConfig) {
				t.Errorf("expected ErrInvalidMatchingConfig, got %v", err)
			}
		})
	}

	// the default configuration is valid
	if _, err := NewEngine(valueobject.DefaultMatchingConfig()); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}
