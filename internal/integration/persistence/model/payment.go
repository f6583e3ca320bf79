// Package model defines database models for persistence layer.
package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// PaymentModel represents the extracted_payments table in the database.
type PaymentModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID    uuid.UUID `gorm:"type:uuid;not null;index"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index"`

	Reference       string          `gorm:"type:varchar(100)"`
	BeneficiaryName string          `gorm:"type:varchar(255)"`
	PaymentDate     sql.NullTime    `gorm:"type:timestamptz"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Currency        string          `gorm:"type:varchar(3);not null;default:'MAD'"`
	Method          string          `gorm:"type:varchar(20);not null;default:'inconnu'"`

	ExtractionConfidence float64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the PaymentModel.
func (PaymentModel) TableName() string {
	return "extracted_payments"
}

// ToEntity converts a PaymentModel to a domain ExtractedPayment entity.
func (m *PaymentModel) ToEntity() *entity.ExtractedPayment {
	var paymentDate *time.Time
	if m.PaymentDate.Valid {
		paymentDate = &m.PaymentDate.Time
	}

	return &entity.ExtractedPayment{
		ID:                   m.ID,
		BatchID:              m.BatchID,
		DocumentID:           m.DocumentID,
		Reference:            m.Reference,
		BeneficiaryName:      m.BeneficiaryName,
		PaymentDate:          paymentDate,
		Amount:               m.Amount,
		Currency:             m.Currency,
		Method:               entity.PaymentMethod(m.Method),
		ExtractionConfidence: m.ExtractionConfidence,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// PaymentFromEntity creates a PaymentModel from a domain ExtractedPayment entity.
func PaymentFromEntity(payment *entity.ExtractedPayment) *PaymentModel {
	var paymentDate sql.NullTime
	if payment.PaymentDate != nil {
		paymentDate = sql.NullTime{Time: *payment.PaymentDate, Valid: true}
	}

	return &PaymentModel{
		ID:                   payment.ID,
		BatchID:              payment.BatchID,
		DocumentID:           payment.DocumentID,
		Reference:            payment.Reference,
		BeneficiaryName:      payment.BeneficiaryName,
		PaymentDate:          paymentDate,
		Amount:               payment.Amount,
		Currency:             payment.Currency,
		Method:               string(payment.Method),
		ExtractionConfidence: payment.ExtractionConfidence,
		CreatedAt:            payment.CreatedAt,
		UpdatedAt:            payment.UpdatedAt,
	}
}
