package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is the instrument used for an extracted payment.
type PaymentMethod string

const (
	PaymentMethodTransfer PaymentMethod = "virement"
	PaymentMethodCheck    PaymentMethod = "cheque"
	PaymentMethodCash     PaymentMethod = "especes"
	PaymentMethodEffet    PaymentMethod = "effet"
	PaymentMethodUnknown  PaymentMethod = "inconnu"
)

// ExtractedPayment holds the structured fields extracted from a payment
// proof document (bank statement line, check stub, transfer order).
type ExtractedPayment struct {
	ID                   uuid.UUID
	BatchID              uuid.UUID
	DocumentID           uuid.UUID
	Reference            string
	BeneficiaryName      string
	PaymentDate          *time.Time
	Amount               decimal.Decimal
	Currency             string
	Method               PaymentMethod
	ExtractionConfidence float64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewExtractedPayment creates an ExtractedPayment tied to its source document.
func NewExtractedPayment(batchID, documentID uuid.UUID) *ExtractedPayment {
	now := time.Now().UTC()

	return &ExtractedPayment{
		ID:         uuid.New(),
		BatchID:    batchID,
		DocumentID: documentID,
		Currency:   "MAD",
		Method:     PaymentMethodUnknown,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
