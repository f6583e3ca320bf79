// Package model defines database models for persistence layer.
package model

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// BatchResultModel represents the batch_results table in the database.
// One row per invoice holds the matching outcome and the legal computation
// of the batch's last rules run. Rows are replaced wholesale on every run.
type BatchResultModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID   uuid.UUID `gorm:"type:uuid;not null;index"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`
	Position  int       `gorm:"not null;default:0"`
	Matching  string    `gorm:"type:jsonb;not null;default:'{}'"`
	Legal     string    `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the BatchResultModel.
func (BatchResultModel) TableName() string {
	return "batch_results"
}

// MatchingResult deserializes the stored matching outcome.
func (m *BatchResultModel) MatchingResult() valueobject.MatchingResult {
	var matching valueobject.MatchingResult
	if m.Matching != "" {
		if err := json.Unmarshal([]byte(m.Matching), &matching); err != nil {
			slog.Warn("Failed to unmarshal stored matching result", "error", err, "id", m.ID)
		}
	}
	return matching
}

// LegalResult deserializes the stored legal computation.
func (m *BatchResultModel) LegalResult() valueobject.LegalResult {
	var legal valueobject.LegalResult
	if m.Legal != "" {
		if err := json.Unmarshal([]byte(m.Legal), &legal); err != nil {
			slog.Warn("Failed to unmarshal stored legal result", "error", err, "id", m.ID)
		}
	}
	return legal
}

// BatchResultFromComputation creates a BatchResultModel from one invoice's
// computed matching and legal results.
func BatchResultFromComputation(batchID, invoiceID uuid.UUID, position int, matching valueobject.MatchingResult, legal valueobject.LegalResult) *BatchResultModel {
	matchingJSON, err := json.Marshal(matching)
	if err != nil {
		slog.Error("Failed to marshal matching result", "error", err, "invoice_id", invoiceID)
		matchingJSON = []byte("{}")
	}

	legalJSON, err := json.Marshal(legal)
	if err != nil {
		slog.Error("Failed to marshal legal result", "error", err, "invoice_id", invoiceID)
		legalJSON = []byte("{}")
	}

	return &BatchResultModel{
		ID:        uuid.New(),
		BatchID:   batchID,
		InvoiceID: invoiceID,
		Position:  position,
		Matching:  string(matchingJSON),
		Legal:     string(legalJSON),
		CreatedAt: time.Now().UTC(),
	}
}
