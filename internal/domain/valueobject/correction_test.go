package valueobject

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFieldCorrection_Validate(t *testing.T) {
	date := time.Date(2023, 7, 20, 0, 0, 0, 0, time.UTC)
	str := "ACME SARL"
	amount := decimal.NewFromInt(1000)
	days := 90
	flag := true

	tests := []struct {
		name       string
		correction FieldCorrection
		wantErr    bool
	}{
		{"delivery date with date value", FieldCorrection{Field: FieldDeliveryDate, DateValue: &date}, false},
		{"delivery date missing value", FieldCorrection{Field: FieldDeliveryDate, StringValue: &str}, true},
		{"issue date with date value", FieldCorrection{Field: FieldIssueDate, DateValue: &date}, false},
		{"supplier name with string value", FieldCorrection{Field: FieldSupplierName, StringValue: &str}, false},
		{"supplier name missing value", FieldCorrection{Field: FieldSupplierName, DateValue: &date}, true},
		{"amount with decimal value", FieldCorrection{Field: FieldAmountTTC, DecimalValue: &amount}, false},
		{"amount missing value", FieldCorrection{Field: FieldAmountTTC, IntValue: &days}, true},
		{"contractual delay with int value", FieldCorrection{Field: FieldContractualDelay, IntValue: &days}, false},
		{"contractual delay missing value", FieldCorrection{Field: FieldContractualDelay, DecimalValue: &amount}, true},
		{"disputed with bool value", FieldCorrection{Field: FieldDisputed, BoolValue: &flag}, false},
		{"disputed missing value", FieldCorrection{Field: FieldDisputed, StringValue: &str}, true},
		{"unknown field", FieldCorrection{Field: "tax_rate", StringValue: &str}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.correction.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCorrectionBuilders_ProduceValidCorrections(t *testing.T) {
	date := time.Date(2023, 7, 20, 0, 0, 0, 0, time.UTC)
	corrections := []FieldCorrection{
		CorrectDeliveryDate(date),
		CorrectIssueDate(date),
		CorrectSupplierName("ACME SARL"),
		CorrectSupplierICE("001234567000089"),
		CorrectInvoiceNumber("FAC-2023-001"),
		CorrectAmountTTC(decimal.NewFromFloat(10169.50)),
		CorrectContractualDelay(120),
		CorrectDisputed(true),
		CorrectCreditNote(false),
		CorrectDisputeReason("montant contesté"),
	}

	for _, c := range corrections {
		if err := c.Validate(); err != nil {
			t.Errorf("builder for %s produced invalid correction: %v", c.Field, err)
		}
	}
}

func TestMergeCorrections(t *testing.T) {
	t.Run("later correction wins per field", func(t *testing.T) {
		first := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
		second := time.Date(2023, 7, 20, 0, 0, 0, 0, time.UTC)

		merged, err := MergeCorrections([]FieldCorrection{
			CorrectDeliveryDate(first),
			CorrectSupplierName("ACME"),
			CorrectDeliveryDate(second),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(merged) != 2 {
			t.Fatalf("expected 2 merged fields, got %d", len(merged))
		}
		got := merged[FieldDeliveryDate]
		if got.DateValue == nil || !got.DateValue.Equal(second) {
			t.Errorf("expected later delivery date to win, got %v", got.DateValue)
		}
	})

	t.Run("merge is deterministic in input order", func(t *testing.T) {
		a := CorrectSupplierName("A")
		b := CorrectSupplierName("B")

		for i := 0; i < 10; i++ {
			merged, err := MergeCorrections([]FieldCorrection{a, b})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *merged[FieldSupplierName].StringValue != "B" {
				t.Fatal("expected last submitted value to win on every merge")
			}
		}
	})

	t.Run("invalid correction aborts the merge", func(t *testing.T) {
		if _, err := MergeCorrections([]FieldCorrection{
			CorrectSupplierName("ACME"),
			{Field: FieldAmountTTC}, // no value slot populated
		}); err == nil {
			t.Error("expected merge to fail on invalid correction")
		}
	})

	t.Run("empty input merges to empty map", func(t *testing.T) {
		merged, err := MergeCorrections(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(merged) != 0 {
			t.Errorf("expected empty merge, got %d entries", len(merged))
		}
	})
}
