// Package batch contains batch-related use cases.
package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// GetAuditLogInput contains the data needed to read the audit trail of a batch.
type GetAuditLogInput struct {
	BatchID uuid.UUID
	UserID  uuid.UUID
}

// GetAuditLogOutput contains the audit entries of the batch, oldest first.
type GetAuditLogOutput struct {
	Entries []*entity.AuditEntry
}

// GetAuditLogUseCase handles reading the status history of a batch.
type GetAuditLogUseCase struct {
	batchRepo adapter.BatchRepository
	auditRepo adapter.AuditRepository
}

// NewGetAuditLogUseCase creates a new GetAuditLogUseCase.
func NewGetAuditLogUseCase(batchRepo adapter.BatchRepository, auditRepo adapter.AuditRepository) *GetAuditLogUseCase {
	return &GetAuditLogUseCase{
		batchRepo: batchRepo,
		auditRepo: auditRepo,
	}
}

// Execute returns the audit trail of the batch.
func (uc *GetAuditLogUseCase) Execute(ctx context.Context, input GetAuditLogInput) (*GetAuditLogOutput, error) {
	if _, err := findOwnedBatch(ctx, uc.batchRepo, input.BatchID, input.UserID); err != nil {
		return nil, err
	}

	entries, err := uc.auditRepo.FindByBatch(ctx, input.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to find audit entries: %w", err)
	}

	return &GetAuditLogOutput{Entries: entries}, nil
}
