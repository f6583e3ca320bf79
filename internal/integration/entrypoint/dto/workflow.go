package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// ProcessBatchRequest represents the optional request body for starting a
// processing run. An empty body starts a full run against the current date.
type ProcessBatchRequest struct {
	Mode             string   `json:"mode" binding:"omitempty,oneof=full invoices_only complete"`
	AsOfDate         *string  `json:"as_of_date"`
	Procedure690ICEs []string `json:"procedure_690_ices"`
	NotifyEmail      string   `json:"notify_email" binding:"omitempty,email"`
	NotifyName       string   `json:"notify_name" binding:"omitempty,max=255"`
}

// ProcessBatchResponse represents the acknowledgement of an asynchronous
// processing run.
type ProcessBatchResponse struct {
	BatchID string `json:"batch_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BatchStatusResponse represents the live processing state of a batch.
type BatchStatusResponse struct {
	Batch      BatchResponse `json:"batch"`
	Processing bool          `json:"processing"`
}

// FieldCorrectionRequest represents one field correction. Exactly one value
// slot must be populated, and it must match the field: dates carry
// date_value, amounts decimal_value, delays int_value, flags bool_value and
// text string_value.
type FieldCorrectionRequest struct {
	Field        string  `json:"field" binding:"required,oneof=delivery_date issue_date supplier_name supplier_ice invoice_number amount_ttc contractual_delay_days is_disputed is_credit_note dispute_reason"`
	DateValue    *string `json:"date_value,omitempty"`
	StringValue  *string `json:"string_value,omitempty"`
	DecimalValue *string `json:"decimal_value,omitempty"`
	IntValue     *int    `json:"int_value,omitempty"`
	BoolValue    *bool   `json:"bool_value,omitempty"`
}

// InvoiceCorrectionsRequest groups the corrections of a single invoice.
type InvoiceCorrectionsRequest struct {
	InvoiceID   string                   `json:"invoice_id" binding:"required,uuid"`
	Corrections []FieldCorrectionRequest `json:"corrections" binding:"required,min=1,dive"`
}

// ApplyCorrectionsRequest represents the request body for correcting
// extracted invoices and rerunning the computation.
type ApplyCorrectionsRequest struct {
	Corrections      []InvoiceCorrectionsRequest `json:"corrections" binding:"required,min=1,dive"`
	AsOfDate         *string                     `json:"as_of_date"`
	Procedure690ICEs []string                    `json:"procedure_690_ices"`
}

// ApplyCorrectionsResponse represents the outcome of a correction run.
type ApplyCorrectionsResponse struct {
	Batch              BatchResponse `json:"batch"`
	CorrectedInvoices  int           `json:"corrected_invoices"`
	RequiresValidation bool          `json:"requires_validation"`
	Reasons            []string      `json:"reasons,omitempty"`
}

// RecalculateRequest represents the request body for rerunning matching and
// rules over already extracted data.
type RecalculateRequest struct {
	AsOfDate         *string  `json:"as_of_date"`
	Procedure690ICEs []string `json:"procedure_690_ices"`
}

// RecalculateResponse represents the outcome of a recalculation run.
type RecalculateResponse struct {
	Batch              BatchResponse `json:"batch"`
	ResultCount        int           `json:"result_count"`
	RequiresValidation bool          `json:"requires_validation"`
	Reasons            []string      `json:"reasons,omitempty"`
}

// ValidateBatchRequest represents the request body for validating a batch.
type ValidateBatchRequest struct {
	Note string `json:"note" binding:"omitempty,max=1000"`
}

// ToFieldCorrection converts the request to a domain field correction. The
// domain validates that the populated slot matches the field.
func (r FieldCorrectionRequest) ToFieldCorrection() (valueobject.FieldCorrection, error) {
	correction := valueobject.FieldCorrection{
		Field:       valueobject.CorrectionField(r.Field),
		StringValue: r.StringValue,
		IntValue:    r.IntValue,
		BoolValue:   r.BoolValue,
	}

	if r.DateValue != nil {
		d, err := parseDate(*r.DateValue)
		if err != nil {
			return valueobject.FieldCorrection{}, fmt.Errorf("field %s: invalid date %q, use YYYY-MM-DD", r.Field, *r.DateValue)
		}
		correction.DateValue = &d
	}

	if r.DecimalValue != nil {
		dec, err := decimal.NewFromString(*r.DecimalValue)
		if err != nil {
			return valueobject.FieldCorrection{}, fmt.Errorf("field %s: invalid decimal %q", r.Field, *r.DecimalValue)
		}
		correction.DecimalValue = &dec
	}

	return correction, nil
}

// ToCorrectionSet converts the request to a domain correction set.
func (r InvoiceCorrectionsRequest) ToCorrectionSet() (valueobject.CorrectionSet, error) {
	set := valueobject.CorrectionSet{
		InvoiceID:   r.InvoiceID,
		Corrections: make([]valueobject.FieldCorrection, 0, len(r.Corrections)),
	}
	for _, c := range r.Corrections {
		correction, err := c.ToFieldCorrection()
		if err != nil {
			return valueobject.CorrectionSet{}, err
		}
		set.Corrections = append(set.Corrections, correction)
	}
	return set, nil
}
