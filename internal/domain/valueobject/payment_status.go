package valueobject

import "fmt"

// PaymentStatus is the closed set of payment states a matched invoice can be in.
type PaymentStatus string

const (
	PaymentStatusPaid          PaymentStatus = "PAID"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusUnpaid        PaymentStatus = "UNPAID"
)

// ParsePaymentStatus validates a raw status string against the closed set.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentStatusPaid, PaymentStatusPartiallyPaid, PaymentStatusUnpaid:
		return PaymentStatus(s), nil
	}
	return "", fmt.Errorf("unknown payment status: %q", s)
}

// IsValid reports whether the status belongs to the closed set.
func (s PaymentStatus) IsValid() bool {
	_, err := ParsePaymentStatus(string(s))
	return err == nil
}

// LegalStatus is the closed set of legal situations recognised by Article 78.
// Non-normal statuses change how penalties are applied.
type LegalStatus string

const (
	// LegalStatusNormal applies penalties as computed.
	LegalStatusNormal LegalStatus = "NORMAL"
	// LegalStatusDisputed suspends penalties until a court decision.
	LegalStatusDisputed LegalStatus = "DISPUTED"
	// LegalStatusCreditNote exempts the document from penalties entirely.
	LegalStatusCreditNote LegalStatus = "CREDIT_NOTE"
	// LegalStatusProcedure690 blocks payment and suspends penalties for the
	// duration of the collective procedure.
	LegalStatusProcedure690 LegalStatus = "PROCEDURE_690"
)

// ParseLegalStatus validates a raw status string against the closed set.
func ParseLegalStatus(s string) (LegalStatus, error) {
	switch LegalStatus(s) {
	case LegalStatusNormal, LegalStatusDisputed, LegalStatusCreditNote, LegalStatusProcedure690:
		return LegalStatus(s), nil
	}
	return "", fmt.Errorf("unknown legal status: %q", s)
}

// IsValid reports whether the status belongs to the closed set.
func (s LegalStatus) IsValid() bool {
	_, err := ParseLegalStatus(string(s))
	return err == nil
}

// SuspendsPenalty reports whether this status suspends penalty application
// while keeping the computed amount on record.
func (s LegalStatus) SuspendsPenalty() bool {
	return s == LegalStatusDisputed || s == LegalStatusProcedure690
}
