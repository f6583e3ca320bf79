package dto

import (
	"time"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// CreateBatchRequest represents the request body for creating a batch.
type CreateBatchRequest struct {
	Name             string `json:"name" binding:"required,min=1,max=255"`
	CompanyName      string `json:"company_name" binding:"required,min=1,max=255"`
	CompanyICE       string `json:"company_ice" binding:"required"`
	CompanyRC        string `json:"company_rc" binding:"omitempty,max=50"`
	ActivitySector   string `json:"activity_sector" binding:"omitempty,max=255"`
	FiscalYear       int    `json:"fiscal_year" binding:"required,min=2000,max=2100"`
	DeclarationMonth *int   `json:"declaration_month" binding:"omitempty,min=1,max=12"`
}

// FailedDocumentResponse represents a document that failed during processing.
type FailedDocumentResponse struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	Reason     string `json:"reason"`
}

// BatchResponse represents a declaration batch.
type BatchResponse struct {
	ID                  string                   `json:"id"`
	UserID              string                   `json:"user_id"`
	Name                string                   `json:"name"`
	CompanyName         string                   `json:"company_name"`
	CompanyICE          string                   `json:"company_ice"`
	CompanyRC           string                   `json:"company_rc,omitempty"`
	ActivitySector      string                   `json:"activity_sector,omitempty"`
	FiscalYear          int                      `json:"fiscal_year"`
	DeclarationMonth    *int                     `json:"declaration_month,omitempty"`
	Status              string                   `json:"status"`
	CurrentStep         string                   `json:"current_step"`
	ProgressPercent     int                      `json:"progress_percent"`
	InvoiceCount        int                      `json:"invoice_count"`
	PaymentCount        int                      `json:"payment_count"`
	AlertsCount         int                      `json:"alerts_count"`
	CriticalAlertsCount int                      `json:"critical_alerts_count"`
	RequiresValidation  bool                     `json:"requires_validation"`
	ValidationReasons   []string                 `json:"validation_reasons,omitempty"`
	FailedDocuments     []FailedDocumentResponse `json:"failed_documents,omitempty"`
	AsOfDate            *string                  `json:"as_of_date,omitempty"`
	ErrorMessage        string                   `json:"error_message,omitempty"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
	ValidatedAt         *time.Time               `json:"validated_at,omitempty"`
	ExportedAt          *time.Time               `json:"exported_at,omitempty"`
}

// BatchListResponse represents a list of batches.
type BatchListResponse struct {
	Batches []BatchResponse `json:"batches"`
	Total   int             `json:"total"`
}

// DocumentResponse represents an uploaded document. OCR text is omitted, it
// can run to many pages.
type DocumentResponse struct {
	ID            string    `json:"id"`
	BatchID       string    `json:"batch_id"`
	Kind          string    `json:"kind"`
	FileName      string    `json:"file_name"`
	ContentType   string    `json:"content_type"`
	SizeBytes     int64     `json:"size_bytes"`
	PageCount     int       `json:"page_count,omitempty"`
	Status        string    `json:"status"`
	OCRConfidence float64   `json:"ocr_confidence,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// UploadDocumentsResponse represents the result of a document upload.
type UploadDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int                `json:"total"`
}

// InvoiceLineItemResponse represents one line of an extracted invoice.
type InvoiceLineItemResponse struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
}

// InvoiceResponse represents an extracted invoice.
type InvoiceResponse struct {
	ID                   string                    `json:"id"`
	DocumentID           string                    `json:"document_id"`
	InvoiceNumber        string                    `json:"invoice_number"`
	SupplierName         string                    `json:"supplier_name"`
	SupplierICE          string                    `json:"supplier_ice"`
	ClientName           string                    `json:"client_name,omitempty"`
	ClientICE            string                    `json:"client_ice,omitempty"`
	IssueDate            *string                   `json:"issue_date,omitempty"`
	DeliveryDate         *string                   `json:"delivery_date,omitempty"`
	AmountHT             string                    `json:"amount_ht"`
	VATAmount            string                    `json:"vat_amount"`
	AmountTTC            string                    `json:"amount_ttc"`
	Currency             string                    `json:"currency,omitempty"`
	ContractualDelayDays *int                      `json:"contractual_delay_days,omitempty"`
	IsDisputed           bool                      `json:"is_disputed"`
	DisputeReason        string                    `json:"dispute_reason,omitempty"`
	IsCreditNote         bool                      `json:"is_credit_note"`
	LineItems            []InvoiceLineItemResponse `json:"line_items,omitempty"`
	ExtractionConfidence float64                   `json:"extraction_confidence"`
	MissingFields        []string                  `json:"missing_fields,omitempty"`
}

// BatchDetailResponse represents a batch with its documents and, once
// computed, its per-invoice results.
type BatchDetailResponse struct {
	Batch     BatchResponse             `json:"batch"`
	Documents []DocumentResponse        `json:"documents"`
	Results   []InvoiceResultResponse   `json:"results,omitempty"`
}

// InvoiceResultResponse pairs the matching and legal outcome of one invoice.
type InvoiceResultResponse struct {
	InvoiceID string                `json:"invoice_id"`
	Matching  MatchingResultPayload `json:"matching"`
	Legal     LegalResultResponse   `json:"legal"`
}

// BatchResultItemResponse represents the full result of one invoice,
// including the extracted invoice itself.
type BatchResultItemResponse struct {
	Invoice  InvoiceResponse       `json:"invoice"`
	Matching MatchingResultPayload `json:"matching"`
	Legal    LegalResultResponse   `json:"legal"`
}

// BatchResultsResponse represents the computed results of a batch.
type BatchResultsResponse struct {
	Batch   BatchResponse             `json:"batch"`
	Results []BatchResultItemResponse `json:"results"`
	Total   int                       `json:"total"`
}

// AuditEntryResponse represents one audit log entry.
type AuditEntryResponse struct {
	ID         string    `json:"id"`
	BatchID    string    `json:"batch_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Detail     string    `json:"detail,omitempty"`
	ActorID    *string   `json:"actor_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditLogResponse represents the audit trail of a batch.
type AuditLogResponse struct {
	Entries []AuditEntryResponse `json:"entries"`
	Total   int                  `json:"total"`
}

// ToBatchResponse converts a domain batch to its response DTO.
func ToBatchResponse(batch *entity.Batch) BatchResponse {
	response := BatchResponse{
		ID:                  batch.ID.String(),
		UserID:              batch.UserID.String(),
		Name:                batch.Name,
		CompanyName:         batch.CompanyName,
		CompanyICE:          batch.CompanyICE,
		CompanyRC:           batch.CompanyRC,
		ActivitySector:      batch.ActivitySector,
		FiscalYear:          batch.FiscalYear,
		DeclarationMonth:    batch.DeclarationMonth,
		Status:              string(batch.Status),
		CurrentStep:         batch.CurrentStep,
		ProgressPercent:     batch.ProgressPercent,
		InvoiceCount:        batch.InvoiceCount,
		PaymentCount:        batch.PaymentCount,
		AlertsCount:         batch.AlertsCount,
		CriticalAlertsCount: batch.CriticalAlertsCount,
		RequiresValidation:  batch.RequiresValidation,
		ValidationReasons:   batch.ValidationReasons,
		AsOfDate:            formatDate(batch.AsOfDate),
		ErrorMessage:        batch.ErrorMessage,
		CreatedAt:           batch.CreatedAt,
		UpdatedAt:           batch.UpdatedAt,
		ValidatedAt:         batch.ValidatedAt,
		ExportedAt:          batch.ExportedAt,
	}

	for _, failed := range batch.FailedDocuments {
		response.FailedDocuments = append(response.FailedDocuments, FailedDocumentResponse{
			DocumentID: failed.DocumentID.String(),
			FileName:   failed.FileName,
			Reason:     failed.Reason,
		})
	}

	return response
}

// ToBatchListResponse converts a list of domain batches to its response DTO.
func ToBatchListResponse(batches []*entity.Batch) BatchListResponse {
	response := BatchListResponse{
		Batches: make([]BatchResponse, 0, len(batches)),
		Total:   len(batches),
	}
	for _, batch := range batches {
		response.Batches = append(response.Batches, ToBatchResponse(batch))
	}
	return response
}

// ToDocumentResponse converts a domain document to its response DTO.
func ToDocumentResponse(doc *entity.Document) DocumentResponse {
	return DocumentResponse{
		ID:            doc.ID.String(),
		BatchID:       doc.BatchID.String(),
		Kind:          string(doc.Kind),
		FileName:      doc.FileName,
		ContentType:   doc.ContentType,
		SizeBytes:     doc.SizeBytes,
		PageCount:     doc.PageCount,
		Status:        string(doc.Status),
		OCRConfidence: doc.OCRConfidence,
		ErrorMessage:  doc.ErrorMessage,
		CreatedAt:     doc.CreatedAt,
	}
}

// ToInvoiceResponse converts a domain invoice to its response DTO.
func ToInvoiceResponse(invoice *entity.ExtractedInvoice) InvoiceResponse {
	response := InvoiceResponse{
		ID:                   invoice.ID.String(),
		DocumentID:           invoice.DocumentID.String(),
		InvoiceNumber:        invoice.InvoiceNumber,
		SupplierName:         invoice.SupplierName,
		SupplierICE:          invoice.SupplierICE,
		ClientName:           invoice.ClientName,
		ClientICE:            invoice.ClientICE,
		IssueDate:            formatDate(invoice.IssueDate),
		DeliveryDate:         formatDate(invoice.DeliveryDate),
		AmountHT:             invoice.AmountHT.String(),
		VATAmount:            invoice.VATAmount.String(),
		AmountTTC:            invoice.AmountTTC.String(),
		Currency:             invoice.Currency,
		ContractualDelayDays: invoice.ContractualDelayDays,
		IsDisputed:           invoice.IsDisputed,
		DisputeReason:        invoice.DisputeReason,
		IsCreditNote:         invoice.IsCreditNote,
		ExtractionConfidence: invoice.ExtractionConfidence,
		MissingFields:        invoice.MissingFields,
	}

	for _, item := range invoice.LineItems {
		response.LineItems = append(response.LineItems, InvoiceLineItemResponse{
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitPrice:   item.UnitPrice.String(),
			Total:       item.Total.String(),
		})
	}

	return response
}

// ToAuditLogResponse converts domain audit entries to the response DTO.
func ToAuditLogResponse(entries []*entity.AuditEntry) AuditLogResponse {
	response := AuditLogResponse{
		Entries: make([]AuditEntryResponse, 0, len(entries)),
		Total:   len(entries),
	}
	for _, entry := range entries {
		item := AuditEntryResponse{
			ID:         entry.ID.String(),
			BatchID:    entry.BatchID.String(),
			FromStatus: string(entry.FromStatus),
			ToStatus:   string(entry.ToStatus),
			Detail:     entry.Detail,
			CreatedAt:  entry.CreatedAt,
		}
		if entry.ActorID != nil {
			actorID := entry.ActorID.String()
			item.ActorID = &actorID
		}
		response.Entries = append(response.Entries, item)
	}
	return response
}
