package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// InvoiceLineItem is one line of an extracted invoice.
type InvoiceLineItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// ExtractedInvoice holds the structured fields extracted from an invoice
// document, as later corrected by the reviewer.
type ExtractedInvoice struct {
	ID                   uuid.UUID
	BatchID              uuid.UUID
	DocumentID           uuid.UUID
	InvoiceNumber        string
	SupplierName         string
	SupplierICE          string
	ClientName           string
	ClientICE            string
	IssueDate            *time.Time
	DeliveryDate         *time.Time
	AmountHT             decimal.Decimal
	VATAmount            decimal.Decimal
	AmountTTC            decimal.Decimal
	Currency             string
	ContractualDelayDays *int
	IsDisputed           bool
	DisputeReason        string
	IsCreditNote         bool
	LineItems            []InvoiceLineItem
	ExtractionConfidence float64
	MissingFields        []string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewExtractedInvoice creates an ExtractedInvoice tied to its source document.
func NewExtractedInvoice(batchID, documentID uuid.UUID) *ExtractedInvoice {
	now := time.Now().UTC()

	return &ExtractedInvoice{
		ID:         uuid.New(),
		BatchID:    batchID,
		DocumentID: documentID,
		Currency:   "MAD",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ApplyCorrections applies a merged set of reviewer corrections to the
// invoice. Fields not present in the set are left untouched.
func (i *ExtractedInvoice) ApplyCorrections(merged map[valueobject.CorrectionField]valueobject.FieldCorrection) {
	for field, c := range merged {
		switch field {
		case valueobject.FieldDeliveryDate:
			i.DeliveryDate = c.DateValue
		case valueobject.FieldIssueDate:
			i.IssueDate = c.DateValue
		case valueobject.FieldSupplierName:
			i.SupplierName = *c.StringValue
		case valueobject.FieldSupplierICE:
			i.SupplierICE = valueobject.NormalizeICE(*c.StringValue)
		case valueobject.FieldInvoiceNumber:
			i.InvoiceNumber = *c.StringValue
		case valueobject.FieldAmountTTC:
			i.AmountTTC = *c.DecimalValue
		case valueobject.FieldContractualDelay:
			days := *c.IntValue
			i.ContractualDelayDays = &days
		case valueobject.FieldDisputed:
			i.IsDisputed = *c.BoolValue
		case valueobject.FieldCreditNote:
			i.IsCreditNote = *c.BoolValue
		case valueobject.FieldDisputeReason:
			i.DisputeReason = *c.StringValue
		}
	}
	i.RecomputeMissingFields()
	i.UpdatedAt = time.Now().UTC()
}

// RecomputeMissingFields refreshes the list of fields the extraction could
// not fill in. The list drives the validation gate and the export remarks.
func (i *ExtractedInvoice) RecomputeMissingFields() {
	var missing []string
	if i.SupplierName == "" {
		missing = append(missing, "supplier_name")
	}
	if !valueobject.IsValidICE(i.SupplierICE) {
		missing = append(missing, "supplier_ice")
	}
	if i.InvoiceNumber == "" {
		missing = append(missing, "invoice_number")
	}
	if i.IssueDate == nil {
		missing = append(missing, "issue_date")
	}
	if i.DeliveryDate == nil {
		missing = append(missing, "delivery_date")
	}
	if i.AmountTTC.IsZero() && !i.IsCreditNote {
		missing = append(missing, "amount_ttc")
	}
	i.MissingFields = missing
}
