package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// DeclarationLine is one invoice row of the payment-delay declaration,
// carrying the legal computation results alongside the invoice identity.
type DeclarationLine struct {
	SupplierName            string
	SupplierICE             string
	InvoiceNumber           string
	InvoiceDate             *time.Time
	LegalStartDate          *time.Time
	LegalDueDate            *time.Time
	InvoiceAmountTTC        decimal.Decimal
	PaymentDate             *time.Time
	PaymentAmount           decimal.Decimal
	ContractualPaymentDelay *int
	AppliedLegalDelay       int
	ActualPaymentDelay      int
	MonthsOfDelay           int
	PenaltyRate             decimal.Decimal
	PenaltyAmount           decimal.Decimal
	PenaltySuspended        bool
	PaymentStatus           valueobject.PaymentStatus
	LegalStatus             valueobject.LegalStatus
	Remarks                 string
	RequiresManualReview    bool
	AlertCount              int
}

// Declaration is the assembled payment-delay declaration for one company
// and period, ready for export.
type Declaration struct {
	CompanyICE       string
	CompanyName      string
	CompanyRC        string
	DeclarationYear  int
	DeclarationMonth *int
	ActivitySector   string

	Lines []DeclarationLine

	TotalInvoices           int
	TotalAmountInvoiced     decimal.Decimal
	TotalAmountPaid         decimal.Decimal
	TotalAmountUnpaid       decimal.Decimal
	TotalPenaltyAmount      decimal.Decimal
	TotalPenaltySuspended   decimal.Decimal
	InvoicesRequiringReview int
	TotalAlerts             int
	InvoicesOnTime          int
	InvoicesDelayed         int
	InvoicesUnpaid          int
}
