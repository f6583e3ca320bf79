package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry records one status change in a batch's lifecycle. Entries are
// append-only and form the batch's audit trail.
type AuditEntry struct {
	ID         uuid.UUID
	BatchID    uuid.UUID
	FromStatus BatchStatus
	ToStatus   BatchStatus
	Detail     string
	ActorID    *uuid.UUID
	CreatedAt  time.Time
}

// NewAuditEntry creates an audit entry for a batch status change.
func NewAuditEntry(batchID uuid.UUID, from, to BatchStatus, detail string, actorID *uuid.UUID) *AuditEntry {
	return &AuditEntry{
		ID:         uuid.New(),
		BatchID:    batchID,
		FromStatus: from,
		ToStatus:   to,
		Detail:     detail,
		ActorID:    actorID,
		CreatedAt:  time.Now().UTC(),
	}
}
