// Package model defines database models for persistence layer.
package model

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// failedDocumentJSON is the JSONB shape of one per-document failure.
type failedDocumentJSON struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	Reason     string `json:"reason"`
}

// BatchModel represents the declaration_batches table in the database.
type BatchModel struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name   string    `gorm:"type:varchar(255);not null"`

	CompanyName    string `gorm:"type:varchar(255);not null"`
	CompanyICE     string `gorm:"type:varchar(15);not null"`
	CompanyRC      string `gorm:"type:varchar(50)"`
	ActivitySector string `gorm:"type:varchar(255)"`

	FiscalYear       int `gorm:"not null"`
	DeclarationMonth *int

	Status          string `gorm:"type:varchar(30);not null;default:'created';index"`
	CurrentStep     string `gorm:"type:varchar(255)"`
	ProgressPercent int    `gorm:"not null;default:0"`

	InvoiceCount        int `gorm:"not null;default:0"`
	PaymentCount        int `gorm:"not null;default:0"`
	AlertsCount         int `gorm:"not null;default:0"`
	CriticalAlertsCount int `gorm:"not null;default:0"`

	RequiresValidation bool   `gorm:"not null;default:false"`
	ValidationReasons  string `gorm:"type:jsonb;not null;default:'[]'"`
	FailedDocuments    string `gorm:"type:jsonb;not null;default:'[]'"`

	AsOfDate     sql.NullTime `gorm:"type:timestamptz"`
	ErrorMessage string       `gorm:"type:text"`

	CreatedAt   time.Time    `gorm:"not null"`
	UpdatedAt   time.Time    `gorm:"not null"`
	ValidatedAt sql.NullTime `gorm:"type:timestamptz"`
	ValidatedBy *uuid.UUID   `gorm:"type:uuid"`
	ExportedAt  sql.NullTime `gorm:"type:timestamptz"`
}

// TableName returns the table name for the BatchModel.
func (BatchModel) TableName() string {
	return "declaration_batches"
}

// ToEntity converts a BatchModel to a domain Batch entity.
func (m *BatchModel) ToEntity() *entity.Batch {
	// Parse validation reasons from JSON
	var reasons []string
	if m.ValidationReasons != "" {
		if err := json.Unmarshal([]byte(m.ValidationReasons), &reasons); err != nil {
			slog.Warn("Failed to unmarshal batch validation reasons", "error", err, "id", m.ID)
		}
	}

	// Parse failed documents from JSON
	var failedJSON []failedDocumentJSON
	if m.FailedDocuments != "" {
		if err := json.Unmarshal([]byte(m.FailedDocuments), &failedJSON); err != nil {
			slog.Warn("Failed to unmarshal batch failed documents", "error", err, "id", m.ID)
		}
	}
	failed := make([]entity.FailedDocument, 0, len(failedJSON))
	for _, f := range failedJSON {
		documentID, err := uuid.Parse(f.DocumentID)
		if err != nil {
			slog.Warn("Failed to parse failed document id", "error", err, "id", m.ID)
			continue
		}
		failed = append(failed, entity.FailedDocument{
			DocumentID: documentID,
			FileName:   f.FileName,
			Reason:     f.Reason,
		})
	}
	if len(failed) == 0 {
		failed = nil
	}

	// Convert sql.NullTime to *time.Time
	var asOfDate *time.Time
	if m.AsOfDate.Valid {
		asOfDate = &m.AsOfDate.Time
	}
	var validatedAt *time.Time
	if m.ValidatedAt.Valid {
		validatedAt = &m.ValidatedAt.Time
	}
	var exportedAt *time.Time
	if m.ExportedAt.Valid {
		exportedAt = &m.ExportedAt.Time
	}

	return &entity.Batch{
		ID:                  m.ID,
		UserID:              m.UserID,
		Name:                m.Name,
		CompanyName:         m.CompanyName,
		CompanyICE:          m.CompanyICE,
		CompanyRC:           m.CompanyRC,
		ActivitySector:      m.ActivitySector,
		FiscalYear:          m.FiscalYear,
		DeclarationMonth:    m.DeclarationMonth,
		Status:              entity.BatchStatus(m.Status),
		CurrentStep:         m.CurrentStep,
		ProgressPercent:     m.ProgressPercent,
		InvoiceCount:        m.InvoiceCount,
		PaymentCount:        m.PaymentCount,
		AlertsCount:         m.AlertsCount,
		CriticalAlertsCount: m.CriticalAlertsCount,
		RequiresValidation:  m.RequiresValidation,
		ValidationReasons:   reasons,
		FailedDocuments:     failed,
		AsOfDate:            asOfDate,
		ErrorMessage:        m.ErrorMessage,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		ValidatedAt:         validatedAt,
		ValidatedBy:         m.ValidatedBy,
		ExportedAt:          exportedAt,
	}
}

// BatchFromEntity creates a BatchModel from a domain Batch entity.
func BatchFromEntity(batch *entity.Batch) *BatchModel {
	// Serialize validation reasons to JSON - fallback to empty array on error
	reasons := batch.ValidationReasons
	if reasons == nil {
		reasons = []string{}
	}
	reasonsJSON, err := json.Marshal(reasons)
	if err != nil {
		slog.Error("Failed to marshal batch validation reasons", "error", err, "batch_id", batch.ID)
		reasonsJSON = []byte("[]")
	}

	// Serialize failed documents to JSON - fallback to empty array on error
	failedJSON := make([]failedDocumentJSON, 0, len(batch.FailedDocuments))
	for _, f := range batch.FailedDocuments {
		failedJSON = append(failedJSON, failedDocumentJSON{
			DocumentID: f.DocumentID.String(),
			FileName:   f.FileName,
			Reason:     f.Reason,
		})
	}
	failedBytes, err := json.Marshal(failedJSON)
	if err != nil {
		slog.Error("Failed to marshal batch failed documents", "error", err, "batch_id", batch.ID)
		failedBytes = []byte("[]")
	}

	// Convert *time.Time to sql.NullTime
	var asOfDate sql.NullTime
	if batch.AsOfDate != nil {
		asOfDate = sql.NullTime{Time: *batch.AsOfDate, Valid: true}
	}
	var validatedAt sql.NullTime
	if batch.ValidatedAt != nil {
		validatedAt = sql.NullTime{Time: *batch.ValidatedAt, Valid: true}
	}
	var exportedAt sql.NullTime
	if batch.ExportedAt != nil {
		exportedAt = sql.NullTime{Time: *batch.ExportedAt, Valid: true}
	}

	return &BatchModel{
		ID:                  batch.ID,
		UserID:              batch.UserID,
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
		ValidationReasons:   string(reasonsJSON),
		FailedDocuments:     string(failedBytes),
		AsOfDate:            asOfDate,
		ErrorMessage:        batch.ErrorMessage,
		CreatedAt:           batch.CreatedAt,
		UpdatedAt:           batch.UpdatedAt,
		ValidatedAt:         validatedAt,
		ValidatedBy:         batch.ValidatedBy,
		ExportedAt:          exportedAt,
	}
}
