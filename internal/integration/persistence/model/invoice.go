// Package model defines database models for persistence layer.
package model

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// invoiceLineItemJSON is the JSONB shape of one invoice line.
type invoiceLineItemJSON struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// InvoiceModel represents the extracted_invoices table in the database.
type InvoiceModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID    uuid.UUID `gorm:"type:uuid;not null;index"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index"`

	InvoiceNumber string `gorm:"type:varchar(100)"`
	SupplierName  string `gorm:"type:varchar(255)"`
	SupplierICE   string `gorm:"type:varchar(15)"`
	ClientName    string `gorm:"type:varchar(255)"`
	ClientICE     string `gorm:"type:varchar(15)"`

	IssueDate    sql.NullTime `gorm:"type:timestamptz"`
	DeliveryDate sql.NullTime `gorm:"type:timestamptz"`

	AmountHT  decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	VATAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	AmountTTC decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Currency  string          `gorm:"type:varchar(3);not null;default:'MAD'"`

	ContractualDelayDays *int
	IsDisputed           bool   `gorm:"not null;default:false"`
	DisputeReason        string `gorm:"type:text"`
	IsCreditNote         bool   `gorm:"not null;default:false"`

	LineItems            string         `gorm:"type:jsonb;not null;default:'[]'"`
	ExtractionConfidence float64        `gorm:"not null;default:0"`
	MissingFields        pq.StringArray `gorm:"type:text[]"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the InvoiceModel.
func (InvoiceModel) TableName() string {
	return "extracted_invoices"
}

// ToEntity converts an InvoiceModel to a domain ExtractedInvoice entity.
func (m *InvoiceModel) ToEntity() *entity.ExtractedInvoice {
	// Parse line items from JSON
	var linesJSON []invoiceLineItemJSON
	if m.LineItems != "" {
		if err := json.Unmarshal([]byte(m.LineItems), &linesJSON); err != nil {
			slog.Warn("Failed to unmarshal invoice line items", "error", err, "id", m.ID)
		}
	}
	var lines []entity.InvoiceLineItem
	for _, l := range linesJSON {
		lines = append(lines, entity.InvoiceLineItem{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Total:       l.Total,
		})
	}

	// Convert sql.NullTime to *time.Time
	var issueDate *time.Time
	if m.IssueDate.Valid {
		issueDate = &m.IssueDate.Time
	}
	var deliveryDate *time.Time
	if m.DeliveryDate.Valid {
		deliveryDate = &m.DeliveryDate.Time
	}

	return &entity.ExtractedInvoice{
		ID:                   m.ID,
		BatchID:              m.BatchID,
		DocumentID:           m.DocumentID,
		InvoiceNumber:        m.InvoiceNumber,
		SupplierName:         m.SupplierName,
		SupplierICE:          m.SupplierICE,
		ClientName:           m.ClientName,
		ClientICE:            m.ClientICE,
		IssueDate:            issueDate,
		DeliveryDate:         deliveryDate,
		AmountHT:             m.AmountHT,
		VATAmount:            m.VATAmount,
		AmountTTC:            m.AmountTTC,
		Currency:             m.Currency,
		ContractualDelayDays: m.ContractualDelayDays,
		IsDisputed:           m.IsDisputed,
		DisputeReason:        m.DisputeReason,
		IsCreditNote:         m.IsCreditNote,
		LineItems:            lines,
		ExtractionConfidence: m.ExtractionConfidence,
		MissingFields:        []string(m.MissingFields),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// InvoiceFromEntity creates an InvoiceModel from a domain ExtractedInvoice entity.
func InvoiceFromEntity(invoice *entity.ExtractedInvoice) *InvoiceModel {
	// Serialize line items to JSON - fallback to empty array on error
	linesJSON := make([]invoiceLineItemJSON, 0, len(invoice.LineItems))
	for _, l := range invoice.LineItems {
		linesJSON = append(linesJSON, invoiceLineItemJSON{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Total:       l.Total,
		})
	}
	linesBytes, err := json.Marshal(linesJSON)
	if err != nil {
		slog.Error("Failed to marshal invoice line items", "error", err, "invoice_id", invoice.ID)
		linesBytes = []byte("[]")
	}

	// Convert *time.Time to sql.NullTime
	var issueDate sql.NullTime
	if invoice.IssueDate != nil {
		issueDate = sql.NullTime{Time: *invoice.IssueDate, Valid: true}
	}
	var deliveryDate sql.NullTime
	if invoice.DeliveryDate != nil {
		deliveryDate = sql.NullTime{Time: *invoice.DeliveryDate, Valid: true}
	}

	return &InvoiceModel{
		ID:                   invoice.ID,
		BatchID:              invoice.BatchID,
		DocumentID:           invoice.DocumentID,
		InvoiceNumber:        invoice.InvoiceNumber,
		SupplierName:         invoice.SupplierName,
		SupplierICE:          invoice.SupplierICE,
		ClientName:           invoice.ClientName,
		ClientICE:            invoice.ClientICE,
		IssueDate:            issueDate,
		DeliveryDate:         deliveryDate,
		AmountHT:             invoice.AmountHT,
		VATAmount:            invoice.VATAmount,
		AmountTTC:            invoice.AmountTTC,
		Currency:             invoice.Currency,
		ContractualDelayDays: invoice.ContractualDelayDays,
		IsDisputed:           invoice.IsDisputed,
		DisputeReason:        invoice.DisputeReason,
		IsCreditNote:         invoice.IsCreditNote,
		LineItems:            string(linesBytes),
		ExtractionConfidence: invoice.ExtractionConfidence,
		MissingFields:        pq.StringArray(invoice.MissingFields),
		CreatedAt:            invoice.CreatedAt,
		UpdatedAt:            invoice.UpdatedAt,
	}
}
