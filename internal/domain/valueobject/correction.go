package valueobject

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CorrectionField enumerates the invoice fields a reviewer may correct
// during validation. The set is closed; anything else is rejected.
type CorrectionField string

const (
	FieldDeliveryDate     CorrectionField = "delivery_date"
	FieldIssueDate        CorrectionField = "issue_date"
	FieldSupplierName     CorrectionField = "supplier_name"
	FieldSupplierICE      CorrectionField = "supplier_ice"
	FieldInvoiceNumber    CorrectionField = "invoice_number"
	FieldAmountTTC        CorrectionField = "amount_ttc"
	FieldContractualDelay CorrectionField = "contractual_delay_days"
	FieldDisputed         CorrectionField = "is_disputed"
	FieldCreditNote       CorrectionField = "is_credit_note"
	FieldDisputeReason    CorrectionField = "dispute_reason"
)

// FieldCorrection is one typed correction to a single invoice field.
// Exactly one value slot is populated, determined by Field.
type FieldCorrection struct {
	Field CorrectionField

	DateValue    *time.Time
	StringValue  *string
	DecimalValue *decimal.Decimal
	IntValue     *int
	BoolValue    *bool
}

// CorrectDeliveryDate builds a delivery-date correction.
func CorrectDeliveryDate(d time.Time) FieldCorrection {
	return FieldCorrection{Field: FieldDeliveryDate, DateValue: &d}
}

// CorrectIssueDate builds an issue-date correction.
func CorrectIssueDate(d time.Time) FieldCorrection {
	return FieldCorrection{Field: FieldIssueDate, DateValue: &d}
}

// CorrectSupplierName builds a supplier-name correction.
func CorrectSupplierName(name string) FieldCorrection {
	return FieldCorrection{Field: FieldSupplierName, StringValue: &name}
}

// CorrectSupplierICE builds a supplier-ICE correction.
func CorrectSupplierICE(ice string) FieldCorrection {
	return FieldCorrection{Field: FieldSupplierICE, StringValue: &ice}
}

// CorrectInvoiceNumber builds an invoice-number correction.
func CorrectInvoiceNumber(number string) FieldCorrection {
	return FieldCorrection{Field: FieldInvoiceNumber, StringValue: &number}
}

// CorrectAmountTTC builds a total-amount correction.
func CorrectAmountTTC(amount decimal.Decimal) FieldCorrection {
	return FieldCorrection{Field: FieldAmountTTC, DecimalValue: &amount}
}

// CorrectContractualDelay builds a contractual-delay correction.
func CorrectContractualDelay(days int) FieldCorrection {
	return FieldCorrection{Field: FieldContractualDelay, IntValue: &days}
}

// CorrectDisputed builds a disputed-flag correction.
func CorrectDisputed(disputed bool) FieldCorrection {
	return FieldCorrection{Field: FieldDisputed, BoolValue: &disputed}
}

// CorrectCreditNote builds a credit-note-flag correction.
func CorrectCreditNote(creditNote bool) FieldCorrection {
	return FieldCorrection{Field: FieldCreditNote, BoolValue: &creditNote}
}

// CorrectDisputeReason builds a dispute-reason correction.
func CorrectDisputeReason(reason string) FieldCorrection {
	return FieldCorrection{Field: FieldDisputeReason, StringValue: &reason}
}

// Validate checks that the populated value slot matches the field kind.
func (c FieldCorrection) Validate() error {
	switch c.Field {
	case FieldDeliveryDate, FieldIssueDate:
		if c.DateValue == nil {
			return fmt.Errorf("correction %s requires a date value", c.Field)
		}
	case FieldSupplierName, FieldSupplierICE, FieldInvoiceNumber, FieldDisputeReason:
		if c.StringValue == nil {
			return fmt.Errorf("correction %s requires a string value", c.Field)
		}
	case FieldAmountTTC:
		if c.DecimalValue == nil {
			return fmt.Errorf("correction %s requires a decimal value", c.Field)
		}
	case FieldContractualDelay:
		if c.IntValue == nil {
			return fmt.Errorf("correction %s requires an integer value", c.Field)
		}
	case FieldDisputed, FieldCreditNote:
		if c.BoolValue == nil {
			return fmt.Errorf("correction %s requires a boolean value", c.Field)
		}
	default:
		return fmt.Errorf("unknown correction field: %q", c.Field)
	}
	return nil
}

// CorrectionSet groups the corrections submitted for one invoice.
type CorrectionSet struct {
	InvoiceID   string
	Corrections []FieldCorrection
}

// MergeCorrections reduces a correction list to at most one correction per
// field. Later entries win, so the merge is deterministic in input order.
// Invalid corrections abort the merge.
func MergeCorrections(corrections []FieldCorrection) (map[CorrectionField]FieldCorrection, error) {
	merged := make(map[CorrectionField]FieldCorrection, len(corrections))
	for _, c := range corrections {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		merged[c.Field] = c
	}
	return merged, nil
}
