package rules

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

func testInvoice(amount float64, issueDate, deliveryDate *time.Time) *entity.ExtractedInvoice {
	invoice := entity.NewExtractedInvoice(uuid.New(), uuid.New())
	invoice.InvoiceNumber = "FAC-001"
	invoice.SupplierName = "ACME SARL"
	invoice.SupplierICE = "002345678000045"
	invoice.ClientName = "CLIENT SA"
	invoice.AmountTTC = decimal.NewFromFloat(amount)
	invoice.IssueDate = issueDate
	invoice.DeliveryDate = deliveryDate
	return invoice
}

func unpaidMatching(invoiceID string, amount float64) valueobject.MatchingResult {
	return valueobject.MatchingResult{
		InvoiceID:       invoiceID,
		PaymentStatus:   valueobject.PaymentStatusUnpaid,
		TotalPaid:       decimal.Zero,
		RemainingAmount: decimal.NewFromFloat(amount),
	}
}

func paidMatching(invoiceID string, amount, confidence float64, paymentDate time.Time) valueobject.MatchingResult {
	return valueobject.MatchingResult{
		InvoiceID: invoiceID,
		Matches: []valueobject.Match{{
			PaymentID:       uuid.New().String(),
			MatchedAmount:   decimal.NewFromFloat(amount),
			ConfidenceScore: confidence,
			Reasons:         []string{"Montant exact"},
		}},
		PaymentStatus:   valueobject.PaymentStatusPaid,
		TotalPaid:       decimal.NewFromFloat(amount),
		RemainingAmount: decimal.Zero,
		PaymentDates:    []time.Time{paymentDate},
	}
}

// The six official DGI reference cases, computed with the 3% base rate the
// cases were published with.
func TestComputeLegalResultOfficialCases(t *testing.T) {
	engine := newTestEngine(t, 3.0, 0.85)

	tests := []struct {
		name            string
		amount          float64
		deliveryDate    time.Time
		contractualDays *int
		paymentDate     *time.Time
		asOf            time.Time
		wantDueDate     time.Time
		wantDaysOverdue int
		wantMonths      int
		wantRate        string
		wantPenalty     string
	}{
		{
			name:            "paid on time no penalty",
			amount:          10169.50,
			deliveryDate:    d(2023, time.July, 20),
			paymentDate:     dptr(d(2023, time.September, 10)),
			asOf:            d(2023, time.September, 25),
			wantDueDate:     d(2023, time.September, 18),
			wantDaysOverdue: 0,
			wantMonths:      0,
			wantRate:        "0",
			wantPenalty:     "0",
		},
		{
			name:            "one month of delay unpaid",
			amount:          10169.50,
			deliveryDate:    d(2023, time.July, 20),
			asOf:            d(2023, time.September, 25),
			wantDueDate:     d(2023, time.September, 18),
			wantDaysOverdue: 7,
			wantMonths:      1,
			wantRate:        "3",
			wantPenalty:     "305.09",
		},
		{
			name:            "two months of delay unpaid",
			amount:          10169.50,
			deliveryDate:    d(2023, time.July, 20),
			asOf:            d(2023, time.November, 15),
			wantDueDate:     d(2023, time.September, 18),
			wantDaysOverdue: 58,
			wantMonths:      2,
			wantRate:        "3.85",
			wantPenalty:     "391.53",
		},
		{
			name:            "contractual delay 80 days due date on sunday",
			amount:          50847.46,
			deliveryDate:    d(2023, time.July, 20),
			contractualDays: intPtr(80),
			asOf:            d(2023, time.October, 15),
			wantDueDate:     d(2023, time.October, 9),
			wantDaysOverdue: 6,
			wantMonths:      1,
			wantRate:        "3",
			wantPenalty:     "1525.42",
		},
		{
			name:            "two months exact boundary",
			amount:          152542.37,
			deliveryDate:    d(2023, time.July, 20),
			asOf:            d(2023, time.November, 18),
			wantDueDate:     d(2023, time.September, 18),
			wantDaysOverdue: 61,
			wantMonths:      2,
			wantRate:        "3.85",
			wantPenalty:     "5872.88",
		},
		{
			name:            "maximum contractual delay three months late",
			amount:          508474.58,
			deliveryDate:    d(2023, time.July, 20),
			contractualDays: intPtr(120),
			asOf:            d(2024, time.February, 17),
			wantDueDate:     d(2023, time.November, 17),
			wantDaysOverdue: 92,
			wantMonths:      3,
			wantRate:        "4.7",
			wantPenalty:     "23898.31",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoice := testInvoice(tt.amount, dptr(tt.deliveryDate), dptr(tt.deliveryDate))
			invoice.ContractualDelayDays = tt.contractualDays

			var matching valueobject.MatchingResult
			if tt.paymentDate != nil {
				matching = paidMatching(invoice.ID.String(), tt.amount, 100, *tt.paymentDate)
			} else {
				matching = unpaidMatching(invoice.ID.String(), tt.amount)
			}

			result, err := engine.ComputeLegalResult(ComputeInput{
				Invoice:  invoice,
				Matching: matching,
				AsOf:     tt.asOf,
			})
			if err != nil {
				t.Fatalf("ComputeLegalResult: %v", err)
			}

			if result.LegalDueDate == nil || !result.LegalDueDate.Equal(tt.wantDueDate) {
				t.Errorf("due date = %v, want %s", result.LegalDueDate, tt.wantDueDate.Format("2006-01-02"))
			}
			if result.DaysOverdue != tt.wantDaysOverdue {
				t.Errorf("days overdue = %d, want %d", result.DaysOverdue, tt.wantDaysOverdue)
			}
			if result.MonthsOfDelay != tt.wantMonths {
				t.Errorf("months of delay = %d, want %d", result.MonthsOfDelay, tt.wantMonths)
			}
			if result.PenaltyRate.String() != tt.wantRate {
				t.Errorf("penalty rate = %s, want %s", result.PenaltyRate, tt.wantRate)
			}
			if result.PenaltyAmount.String() != tt.wantPenalty {
				t.Errorf("penalty amount = %s, want %s", result.PenaltyAmount, tt.wantPenalty)
			}
			if !result.IsCalculable {
				t.Error("expected result to be calculable")
			}
		})
	}
}

func TestComputeLegalResultStartDateFallback(t *testing.T) {
	engine := newTestEngine(t, 3.0, 0.85)

	t.Run("issue date used when delivery date missing", func(t *testing.T) {
		invoice := testInvoice(1000, dptr(d(2023, time.July, 20)), nil)
		result, err := engine.ComputeLegalResult(ComputeInput{
			Invoice:  invoice,
			Matching: unpaidMatching(invoice.ID.String(), 1000),
			AsOf:     d(2023, time.September, 25),
		})
		if err != nil {
			t.Fatalf("ComputeLegalResult: %v", err)
		}

		if result.LegalStartDate == nil || !result.LegalStartDate.Equal(d(2023, time.July, 20)) {
			t.Errorf("start date = %v, want issue date", result.LegalStartDate)
		}
		if !result.Alerts.HasCode(valueobject.AlertMissingDeliveryDate) {
			t.Error("expected MISSING_DELIVERY_DATE alert")
		}
		if !result.RequiresManualReview {
			t.Error("expected manual review for missing delivery date")
		}
	})

	t.Run("no dates yields incomplete result", func(t *testing.T) {
		invoice := testInvoice(1000, nil, nil)
		result, err := engine.ComputeLegalResult(ComputeInput{
			Invoice:  invoice,
			Matching: unpaidMatching(invoice.ID.String(), 1000),
			AsOf:     d(2023, time.September, 25),
		})
		if err != nil {
			t.Fatalf("ComputeLegalResult: %v", err)
		}

		if result.IsCalculable {
			t.Error("expected incomplete result")
		}
		if !result.Alerts.HasCode(valueobject.AlertMissingIssueDate) {
			t.Error("expected MISSING_ISSUE_DATE alert")
		}
		if result.Alerts.CountBySeverity(valueobject.SeverityCritical) == 0 {
			t.Error("expected a CRITICAL alert")
		}
		if result.AppliedLegalDelayDays != 60 {
			t.Errorf("applied delay = %d, want default 60", result.AppliedLegalDelayDays)
		}
		if !result.PenaltyAmount.IsZero() || result.DaysOverdue != 0 || result.MonthsOfDelay != 0 {
			t.Error("incomplete result must carry zero delays and penalty")
		}
		if !result.RequiresManualReview {
			t.Error("incomplete result must require manual review")
		}
	})
}

func TestComputeLegalResultContractualDelayCap(t *testing.T) {
	engine := newTestEngine(t, 3.0, 0.85)

	invoice := testInvoice(1000, dptr(d(2023, time.July, 20)), dptr(d(2023, time.July, 20)))
	invoice.ContractualDelayDays = intPtr(150)

	result, err := engine.ComputeLegalResult(ComputeInput{
		Invoice:  invoice,
		Matching: unpaidMatching(invoice.ID.String(), 1000),
		AsOf:     d(2023, time.December, 1),
	})
	if err != nil {
		t.Fatalf("ComputeLegalResult: %v", err)
	}

	if result.AppliedLegalDelayDays != 120 {
		t.Errorf("applied delay = %d, want capped 120", result.AppliedLegalDelayDays)
	}
	if !result.Alerts.HasCode(valueobject.AlertContractualDelayExceedsMax) {
		t.Error("expected CONTRACTUAL_DELAY_EXCEEDS_MAX alert")
	}
}

func TestComputeLegalResultStatuses(t *testing.T) {
	engine := newTestEngine(t, 3.0, 0.85)
	delivery := dptr(d(2023, time.July, 20))
	asOf := d(2023, time.December, 1)

	t.Run("credit note cancels the penalty", func(t *testing.T) {
		invoice := testInvoice(-5000, delivery, delivery)
		invoice.IsCreditNote = true

		result, err := engine.ComputeLegalResult(ComputeInput{
			Invoice:  invoice,
			Matching: unpaidMatching(invoice.ID.String(), 0),
			AsOf:     asOf,
		})
		if err != nil {
			t.Fatalf("ComputeLegalResult: %v", err)
		}

		if result.LegalStatus != valueobject.LegalStatusCreditNote {
			t.Errorf("legal status = %s, want CREDIT_NOTE", result.LegalStatus)
		}
		if !result.PenaltyAmount.IsZero() {
			t.Errorf("penalty = %s, want 0", result.PenaltyAmount)
		}
		if result.PenaltySuspended {
			t.Error("credit note penalty is cancelled, not suspended")
		}
		if !result.Alerts.HasCode(valueobject.AlertCreditNote) {
			t.Error("expected CREDIT_NOTE alert")
		}
		if result.RequiresManualReview {
			t.Error("an INFO alert alone must not require review")
		}
	})

	t.Run("disputed invoice suspends the penalty", func(t *testing.T) {
		invoice := testInvoice(10000, delivery, delivery)
		invoice.IsDisputed = true

		result, err := engine.ComputeLegalResult(ComputeInput{
			Invoice:  invoice,
			Matching: unpaidMatching(invoice.ID.String(), 10000),
			AsOf:     asOf,
		})
		if err != nil {
			t.Fatalf("ComputeLegalResult: %v", err)
		}

		if result.LegalStatus != valueobject.LegalStatusDisputed {
			t.Errorf("legal status = %s, want DISPUTED", result.LegalStatus)
		}
		if !result.PenaltyAmount.IsZero() {
			t.Errorf("penalty = %s, want 0 while suspended", result.PenaltyAmount)
		}
		if !result.PenaltySuspended {
			t.Error("expected suspended penalty")
		}
		if !result.RequiresManualReview {
			t.Error("disputed invoice must require review")
		}
		// The base penalty before suspension is preserved in the breakdown.
		if result.Breakdown == nil || !result.Breakdown.Steps.Amount.BasePenalty.IsPositive() {
			t.Error("expected positive base penalty in breakdown")
		}
	})

	t.Run("procedure 690 blocks the penalty", func(t *testing.T) {
		invoice := testInvoice(10000, delivery, delivery)

		result, err := engine.ComputeLegalResult(ComputeInput{
			Invoice:        invoice,
			Matching:       unpaidMatching(invoice.ID.String(), 10000),
			IsProcedure690: true,
			AsOf:           asOf,
		})
		if err != nil {
			t.Fatalf("ComputeLegalResult: %v", err)
		}

		if result.LegalStatus != valueobject.LegalStatusProcedure690 {
			t.Errorf("legal status = %s, want PROCEDURE_690", result.LegalStatus)
		}
		if !result.PenaltyAmount.IsZero() || !result.PenaltySuspended {
			t.Error("expected blocked penalty under procedure 690")
		}
	})
}

func TestComputeLegalResultAlerts(t *testing.T) {
	engine := newTestEngine(t, 3.0, 0.85)
	delivery := dptr(d(2023, time.July, 20))

	t.Run("payment before invoice date", func(t *testing.T) {
		invoice := testInvoice(1000, delivery, delivery)
		matching := paidMatching(invoice.ID.String(), 1000, 95, d(2023, time.July, 10))

		result, err := engine.ComputeLegalResult(ComputeInput{
			Invoice:  invoice,
			Matching: matching,
			AsOf:     d(2023, time.September, 25),
		})
		if err != nil {
			t.Fatalf("ComputeLegalResult: %v", err)
		}

		if !result.Alerts.HasCode(valueobject.AlertPaymentBeforeInvoice) {
			t.Error("expected PAYMENT_BEFORE_INVOICE alert")
		}
		if result.Alerts.CountBySeverity(valueobject.SeverityError) == 0 {
			t.Error("expected an ERROR alert")
		}
	})

	t.Run("excessive delay on unpaid invoice", func(t *testing.T) {
		invoice := testInvoice(1000, delivery, delivery)

		result, err := engine.ComputeLegalResult(ComputeInput{
			Invoice:  invoice,
			Matching: unpaidMatching(invoice.ID.String(), 1000),
			AsOf:     d(2024, time.June, 1),
		})
		if err != nil {
			t.Fatalf("ComputeLegalResult: %v", err)
		}

		if !result.Alerts.HasCode(valueobject.AlertExcessiveDelay) {
			t.Error("expected EXCESSIVE_DELAY alert")
		}
		if result.Alerts.CountBySeverity(valueobject.SeverityError) == 0 {
			t.Error("unpaid excessive delay must be an ERROR")
		}
	})

	t.Run("partial payment detected", func(t *testing.T) {
		invoice := testInvoice(10000, delivery, delivery)
		matching := paidMatching(invoice.ID.String(), 4000, 95, d(2023, time.August, 1))
		matching.PaymentStatus = valueobject.PaymentStatusPartiallyPaid
		matching.RemainingAmount = decimal.NewFromFloat(6000)

		result, err := engine.ComputeLegalResult(ComputeInput{
			Invoice:  invoice,
			Matching: matching,
			AsOf:     d(2023, time.September, 25),
		})
		if err != nil {
			t.Fatalf("ComputeLegalResult: %v", err)
		}

		if !result.Alerts.HasCode(valueobject.AlertPartialPaymentDetected) {
			t.Error("expected PARTIAL_PAYMENT_DETECTED alert")
		}
		if result.UnpaidAmount.String() != "6000" {
			t.Errorf("unpaid = %s, want 6000", result.UnpaidAmount)
		}
	})

	t.Run("low confidence match", func(t *testing.T) {
		invoice := testInvoice(1000, delivery, delivery)
		matching := paidMatching(invoice.ID.String(), 1000, 65, d(2023, time.September, 10))

		result, err := engine.ComputeLegalResult(ComputeInput{
			Invoice:  invoice,
			Matching: matching,
			AsOf:     d(2023, time.September, 25),
		})
		if err != nil {
			t.Fatalf("ComputeLegalResult: %v", err)
		}

		if !result.Alerts.HasCode(valueobject.AlertLowConfidenceMatch) {
			t.Error("expected LOW_CONFIDENCE_MATCH alert")
		}
		if !result.RequiresManualReview {
			t.Error("low confidence must require review")
		}
	})
}

func TestComputeLegalResultBreakdown(t *testing.T) {
	engine := newTestEngine(t, 3.0, 0.85)
	delivery := dptr(d(2023, time.July, 20))

	invoice := testInvoice(10169.50, delivery, delivery)
	result, err := engine.ComputeLegalResult(ComputeInput{
		Invoice:  invoice,
		Matching: unpaidMatching(invoice.ID.String(), 10169.50),
		AsOf:     d(2023, time.November, 15),
	})
	if err != nil {
		t.Fatalf("ComputeLegalResult: %v", err)
	}

	breakdown := result.Breakdown
	if breakdown == nil {
		t.Fatal("expected a calculation breakdown")
	}

	if len(breakdown.MonthsBreakdown) != 2 {
		t.Fatalf("ladder size = %d, want 2", len(breakdown.MonthsBreakdown))
	}
	first := breakdown.MonthsBreakdown[0]
	if first.Month != 1 || first.Rate.String() != "3" || !first.Applied {
		t.Errorf("first rung = %+v, want month 1 rate 3 applied", first)
	}
	second := breakdown.MonthsBreakdown[1]
	if second.Month != 2 || second.Rate.String() != "3.85" || !second.Applied {
		t.Errorf("second rung = %+v, want month 2 rate 3.85 applied", second)
	}

	if breakdown.Steps.Delay.MonthsOfDelay != 2 {
		t.Errorf("delay step months = %d, want 2", breakdown.Steps.Delay.MonthsOfDelay)
	}
	if breakdown.Steps.Rate.PenaltyRate.String() != "3.85" {
		t.Errorf("rate step = %s, want 3.85", breakdown.Steps.Rate.PenaltyRate)
	}
	if breakdown.Steps.Status.FinalPenalty.String() != "391.53" {
		t.Errorf("final penalty = %s, want 391.53", breakdown.Steps.Status.FinalPenalty)
	}
}

func TestComputeBatch(t *testing.T) {
	engine := newTestEngine(t, 3.0, 0.85)
	delivery := dptr(d(2023, time.July, 20))

	t.Run("length mismatch is rejected", func(t *testing.T) {
		invoice := testInvoice(1000, delivery, delivery)
		_, err := engine.ComputeBatch(BatchComputeInput{
			Invoices: []*entity.ExtractedInvoice{invoice},
			Matching: nil,
			AsOf:     d(2023, time.September, 25),
		})
		if err == nil {
			t.Fatal("expected an error")
		}
		if !errors.Is(err, domainerror.ErrRulesInputMismatch) {
			t.Errorf("error = %v, want ErrRulesInputMismatch", err)
		}
	})

	t.Run("procedure 690 suppliers are flagged by ICE", func(t *testing.T) {
		flagged := testInvoice(1000, delivery, delivery)
		flagged.SupplierICE = "002999999000001"
		normal := testInvoice(2000, delivery, delivery)

		results, err := engine.ComputeBatch(BatchComputeInput{
			Invoices: []*entity.ExtractedInvoice{flagged, normal},
			Matching: []valueobject.MatchingResult{
				unpaidMatching(flagged.ID.String(), 1000),
				unpaidMatching(normal.ID.String(), 2000),
			},
			Procedure690Suppliers: map[string]struct{}{"002999999000001": {}},
			AsOf:                  d(2023, time.December, 1),
		})
		if err != nil {
			t.Fatalf("ComputeBatch: %v", err)
		}

		if results[0].LegalStatus != valueobject.LegalStatusProcedure690 {
			t.Errorf("flagged supplier status = %s, want PROCEDURE_690", results[0].LegalStatus)
		}
		if results[1].LegalStatus != valueobject.LegalStatusNormal {
			t.Errorf("normal supplier status = %s, want NORMAL", results[1].LegalStatus)
		}
	})
}

func TestComputeLegalResultRequiresAsOf(t *testing.T) {
	engine := newTestEngine(t, 3.0, 0.85)
	invoice := testInvoice(1000, dptr(d(2023, time.July, 20)), nil)

	_, err := engine.ComputeLegalResult(ComputeInput{
		Invoice:  invoice,
		Matching: unpaidMatching(invoice.ID.String(), 1000),
	})
	if err == nil {
		t.Fatal("expected an error for missing reference date")
	}
	if !errors.Is(err, domainerror.ErrInvalidAsOfDate) {
		t.Errorf("error = %v, want ErrInvalidAsOfDate", err)
	}
}

func TestNewEngineValidation(t *testing.T) {
	cfg := valueobject.DefaultRulesConfig()
	cfg.DefaultDelayDays = 0

	if _, err := NewEngine(cfg); !errors.Is(err, domainerror.ErrInvalidRulesConfig) {
		t.Errorf("error = %v, want ErrInvalidRulesConfig", err)
	}

	cfg = valueobject.DefaultRulesConfig()
	cfg.PenaltyBaseRatePercent = decimal.NewFromFloat(-1)

	if _, err := NewEngine(cfg); !errors.Is(err, domainerror.ErrInvalidRulesConfig) {
		t.Errorf("error = %v, want ErrInvalidRulesConfig", err)
	}
}

func intPtr(v int) *int { return &v }
