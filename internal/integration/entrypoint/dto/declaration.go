package dto

import (
	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// DeclarationLineResponse represents one line of the DGI declaration annex.
type DeclarationLineResponse struct {
	SupplierName            string  `json:"supplier_name"`
	SupplierICE             string  `json:"supplier_ice"`
	InvoiceNumber           string  `json:"invoice_number"`
	InvoiceDate             *string `json:"invoice_date,omitempty"`
	LegalStartDate          *string `json:"legal_start_date,omitempty"`
	LegalDueDate            *string `json:"legal_due_date,omitempty"`
	InvoiceAmountTTC        string  `json:"invoice_amount_ttc"`
	PaymentDate             *string `json:"payment_date,omitempty"`
	PaymentAmount           string  `json:"payment_amount"`
	ContractualPaymentDelay *int    `json:"contractual_payment_delay,omitempty"`
	AppliedLegalDelay       int     `json:"applied_legal_delay"`
	ActualPaymentDelay      int     `json:"actual_payment_delay"`
	MonthsOfDelay           int     `json:"months_of_delay"`
	PenaltyRate             string  `json:"penalty_rate"`
	PenaltyAmount           string  `json:"penalty_amount"`
	PenaltySuspended        bool    `json:"penalty_suspended"`
	PaymentStatus           string  `json:"payment_status"`
	LegalStatus             string  `json:"legal_status"`
	Remarks                 string  `json:"remarks,omitempty"`
	RequiresManualReview    bool    `json:"requires_manual_review"`
	AlertCount              int     `json:"alert_count"`
}

// DeclarationResponse represents the formatted DGI declaration of a batch.
type DeclarationResponse struct {
	CompanyICE       string `json:"company_ice"`
	CompanyName      string `json:"company_name"`
	CompanyRC        string `json:"company_rc,omitempty"`
	DeclarationYear  int    `json:"declaration_year"`
	DeclarationMonth *int   `json:"declaration_month,omitempty"`
	ActivitySector   string `json:"activity_sector,omitempty"`

	Lines []DeclarationLineResponse `json:"lines"`

	TotalInvoices           int    `json:"total_invoices"`
	TotalAmountInvoiced     string `json:"total_amount_invoiced"`
	TotalAmountPaid         string `json:"total_amount_paid"`
	TotalAmountUnpaid       string `json:"total_amount_unpaid"`
	TotalPenaltyAmount      string `json:"total_penalty_amount"`
	TotalPenaltySuspended   string `json:"total_penalty_suspended"`
	InvoicesRequiringReview int    `json:"invoices_requiring_review"`
	TotalAlerts             int    `json:"total_alerts"`
	InvoicesOnTime          int    `json:"invoices_on_time"`
	InvoicesDelayed         int    `json:"invoices_delayed"`
	InvoicesUnpaid          int    `json:"invoices_unpaid"`
}

// BatchDeclarationResponse represents the declaration together with the batch
// it was built from.
type BatchDeclarationResponse struct {
	Batch       BatchResponse       `json:"batch"`
	Declaration DeclarationResponse `json:"declaration"`
}

// AlertsReportResponse represents the plain-text alerts report of a batch.
type AlertsReportResponse struct {
	Report string `json:"report"`
}

// ToDeclarationResponse converts a domain declaration to its response DTO.
func ToDeclarationResponse(decl *entity.Declaration) DeclarationResponse {
	response := DeclarationResponse{
		CompanyICE:              decl.CompanyICE,
		CompanyName:             decl.CompanyName,
		CompanyRC:               decl.CompanyRC,
		DeclarationYear:         decl.DeclarationYear,
		DeclarationMonth:        decl.DeclarationMonth,
		ActivitySector:          decl.ActivitySector,
		Lines:                   make([]DeclarationLineResponse, 0, len(decl.Lines)),
		TotalInvoices:           decl.TotalInvoices,
		TotalAmountInvoiced:     decl.TotalAmountInvoiced.String(),
		TotalAmountPaid:         decl.TotalAmountPaid.String(),
		TotalAmountUnpaid:       decl.TotalAmountUnpaid.String(),
		TotalPenaltyAmount:      decl.TotalPenaltyAmount.String(),
		TotalPenaltySuspended:   decl.TotalPenaltySuspended.String(),
		InvoicesRequiringReview: decl.InvoicesRequiringReview,
		TotalAlerts:             decl.TotalAlerts,
		InvoicesOnTime:          decl.InvoicesOnTime,
		InvoicesDelayed:         decl.InvoicesDelayed,
		InvoicesUnpaid:          decl.InvoicesUnpaid,
	}

	for _, line := range decl.Lines {
		response.Lines = append(response.Lines, DeclarationLineResponse{
			SupplierName:            line.SupplierName,
			SupplierICE:             line.SupplierICE,
			InvoiceNumber:           line.InvoiceNumber,
			InvoiceDate:             formatDate(line.InvoiceDate),
			LegalStartDate:          formatDate(line.LegalStartDate),
			LegalDueDate:            formatDate(line.LegalDueDate),
			InvoiceAmountTTC:        line.InvoiceAmountTTC.String(),
			PaymentDate:             formatDate(line.PaymentDate),
			PaymentAmount:           line.PaymentAmount.String(),
			ContractualPaymentDelay: line.ContractualPaymentDelay,
			AppliedLegalDelay:       line.AppliedLegalDelay,
			ActualPaymentDelay:      line.ActualPaymentDelay,
			MonthsOfDelay:           line.MonthsOfDelay,
			PenaltyRate:             line.PenaltyRate.String(),
			PenaltyAmount:           line.PenaltyAmount.String(),
			PenaltySuspended:        line.PenaltySuspended,
			PaymentStatus:           string(line.PaymentStatus),
			LegalStatus:             string(line.LegalStatus),
			Remarks:                 line.Remarks,
			RequiresManualReview:    line.RequiresManualReview,
			AlertCount:              line.AlertCount,
		})
	}

	return response
}
