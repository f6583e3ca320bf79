// Package model defines database models for persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// DocumentModel represents the batch_documents table in the database.
type DocumentModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind          string    `gorm:"type:varchar(20);not null;index"`
	FileName      string    `gorm:"type:varchar(255);not null"`
	StoragePath   string    `gorm:"type:varchar(512);not null"`
	ContentType   string    `gorm:"type:varchar(100);not null"`
	SizeBytes     int64     `gorm:"not null;default:0"`
	PageCount     int       `gorm:"not null;default:0"`
	Status        string    `gorm:"type:varchar(20);not null;default:'uploaded';index"`
	OCRText       string    `gorm:"type:text"`
	OCRConfidence float64   `gorm:"not null;default:0"`
	ErrorMessage  string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for the DocumentModel.
func (DocumentModel) TableName() string {
	return "batch_documents"
}

// ToEntity converts a DocumentModel to a domain Document entity.
func (m *DocumentModel) ToEntity() *entity.Document {
	return &entity.Document{
		ID:            m.ID,
		BatchID:       m.BatchID,
		Kind:          entity.DocumentKind(m.Kind),
		FileName:      m.FileName,
		StoragePath:   m.StoragePath,
		ContentType:   m.ContentType,
		SizeBytes:     m.SizeBytes,
		PageCount:     m.PageCount,
		Status:        entity.DocumentStatus(m.Status),
		OCRText:       m.OCRText,
		OCRConfidence: m.OCRConfidence,
		ErrorMessage:  m.ErrorMessage,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// DocumentFromEntity creates a DocumentModel from a domain Document entity.
func DocumentFromEntity(document *entity.Document) *DocumentModel {
	return &DocumentModel{
		ID:            document.ID,
		BatchID:       document.BatchID,
		Kind:          string(document.Kind),
		FileName:      document.FileName,
		StoragePath:   document.StoragePath,
		ContentType:   document.ContentType,
		SizeBytes:     document.SizeBytes,
		PageCount:     document.PageCount,
		Status:        string(document.Status),
		OCRText:       document.OCRText,
		OCRConfidence: document.OCRConfidence,
		ErrorMessage:  document.ErrorMessage,
		CreatedAt:     document.CreatedAt,
		UpdatedAt:     document.UpdatedAt,
	}
}
