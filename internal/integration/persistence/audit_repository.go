// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	"github.com/dgi-compliance/backend/internal/integration/persistence/model"
)

// auditRepository implements the adapter.AuditRepository interface.
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit trail repository instance.
func NewAuditRepository(db *gorm.DB) adapter.AuditRepository {
	return &auditRepository{
		db: db,
	}
}

// Create appends an audit entry.
func (r *auditRepository) Create(ctx context.Context, entry *entity.AuditEntry) error {
	entryModel := model.AuditEntryFromEntity(entry)
	result := r.db.WithContext(ctx).Create(entryModel)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// FindByBatch retrieves the audit trail of a batch, oldest first.
func (r *auditRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*entity.AuditEntry, error) {
	var models []model.AuditEntryModel
	result := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC, id ASC").
		Find(&models)

	if result.Error != nil {
		return nil, result.Error
	}

	entries := make([]*entity.AuditEntry, len(models))
	for i, m := range models {
		entries[i] = m.ToEntity()
	}

	return entries, nil
}

// DeleteByBatch removes the audit trail of a deleted batch.
func (r *auditRepository) DeleteByBatch(ctx context.Context, batchID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.AuditEntryModel{}, "batch_id = ?", batchID)
	if result.Error != nil {
		return result.Error
	}
	return nil
}
