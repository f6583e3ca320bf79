// Package model defines database models for persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// AuditEntryModel represents the batch_audit_log table in the database.
type AuditEntryModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BatchID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	FromStatus string     `gorm:"type:varchar(30);not null"`
	ToStatus   string     `gorm:"type:varchar(30);not null"`
	Detail     string     `gorm:"type:text"`
	ActorID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt  time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for the AuditEntryModel.
func (AuditEntryModel) TableName() string {
	return "batch_audit_log"
}

// ToEntity converts an AuditEntryModel to a domain AuditEntry entity.
func (m *AuditEntryModel) ToEntity() *entity.AuditEntry {
	return &entity.AuditEntry{
		ID:         m.ID,
		BatchID:    m.BatchID,
		FromStatus: entity.BatchStatus(m.FromStatus),
		ToStatus:   entity.BatchStatus(m.ToStatus),
		Detail:     m.Detail,
		ActorID:    m.ActorID,
		CreatedAt:  m.CreatedAt,
	}
}

// AuditEntryFromEntity creates an AuditEntryModel from a domain AuditEntry entity.
func AuditEntryFromEntity(entry *entity.AuditEntry) *AuditEntryModel {
	return &AuditEntryModel{
		ID:         entry.ID,
		BatchID:    entry.BatchID,
		FromStatus: string(entry.FromStatus),
		ToStatus:   string(entry.ToStatus),
		Detail:     entry.Detail,
		ActorID:    entry.ActorID,
		CreatedAt:  entry.CreatedAt,
	}
}
