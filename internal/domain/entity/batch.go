package entity

import (
	"time"

	"github.com/google/uuid"
)

// BatchStatus represents the lifecycle state of a declaration batch.
type BatchStatus string

const (
	BatchStatusCreated           BatchStatus = "created"
	BatchStatusUploading         BatchStatus = "uploading"
	BatchStatusOCRProcessing     BatchStatus = "ocr_processing"
	BatchStatusExtractionDone    BatchStatus = "extraction_done"
	BatchStatusMatchingDone      BatchStatus = "matching_done"
	BatchStatusRulesCalculated   BatchStatus = "rules_calculated"
	BatchStatusValidationPending BatchStatus = "validation_pending"
	BatchStatusValidated         BatchStatus = "validated"
	BatchStatusExported          BatchStatus = "exported"
	BatchStatusFailed            BatchStatus = "failed"
)

// ParseBatchStatus converts a stored string into a BatchStatus.
func ParseBatchStatus(s string) (BatchStatus, bool) {
	status := BatchStatus(s)
	switch status {
	case BatchStatusCreated, BatchStatusUploading, BatchStatusOCRProcessing,
		BatchStatusExtractionDone, BatchStatusMatchingDone, BatchStatusRulesCalculated,
		BatchStatusValidationPending, BatchStatusValidated, BatchStatusExported,
		BatchStatusFailed:
		return status, true
	}
	return "", false
}

// batchTransitions lists the allowed next statuses for each status.
// Every status may additionally move to failed; failed may re-enter the
// pipeline at uploading or ocr_processing when the batch is retried.
var batchTransitions = map[BatchStatus][]BatchStatus{
	BatchStatusCreated:           {BatchStatusUploading},
	BatchStatusUploading:         {BatchStatusUploading, BatchStatusOCRProcessing},
	BatchStatusOCRProcessing:     {BatchStatusExtractionDone},
	BatchStatusExtractionDone:    {BatchStatusUploading, BatchStatusOCRProcessing, BatchStatusMatchingDone},
	BatchStatusMatchingDone:      {BatchStatusRulesCalculated},
	BatchStatusRulesCalculated:   {BatchStatusValidationPending, BatchStatusValidated, BatchStatusMatchingDone},
	BatchStatusValidationPending: {BatchStatusMatchingDone, BatchStatusValidated},
	BatchStatusValidated:         {BatchStatusMatchingDone, BatchStatusExported},
	BatchStatusExported:          {},
	BatchStatusFailed:            {BatchStatusUploading, BatchStatusOCRProcessing},
}

// batchProgress maps each status to the progress percentage reported when
// the batch enters it. Statuses reached mid-pipeline are refined by the
// processing steps themselves.
var batchProgress = map[BatchStatus]int{
	BatchStatusCreated:           0,
	BatchStatusUploading:         5,
	BatchStatusOCRProcessing:     10,
	BatchStatusExtractionDone:    60,
	BatchStatusMatchingDone:      75,
	BatchStatusRulesCalculated:   90,
	BatchStatusValidationPending: 95,
	BatchStatusValidated:         100,
	BatchStatusExported:          100,
}

// FailedDocument records one document that failed OCR or extraction during
// a processing run. Failures never abort the run; they are collected here
// and surfaced on the batch.
type FailedDocument struct {
	DocumentID uuid.UUID
	FileName   string
	Reason     string
}

// Batch represents one declaration batch: the documents uploaded for a
// company and declaration period, and the state of their processing.
type Batch struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Name   string

	// Declaring company identity, carried per batch so one user can file
	// for several companies.
	CompanyName    string
	CompanyICE     string
	CompanyRC      string
	ActivitySector string

	// Declaration period. A nil month means an annual declaration.
	FiscalYear       int
	DeclarationMonth *int

	Status          BatchStatus
	CurrentStep     string
	ProgressPercent int

	InvoiceCount        int
	PaymentCount        int
	AlertsCount         int
	CriticalAlertsCount int

	RequiresValidation bool
	ValidationReasons  []string
	FailedDocuments    []FailedDocument

	// Reference date of the last rules run.
	AsOfDate *time.Time

	ErrorMessage string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ValidatedAt *time.Time
	ValidatedBy *uuid.UUID
	ExportedAt  *time.Time
}

// NewBatch creates a new Batch entity in the created state.
func NewBatch(userID uuid.UUID, name, companyName, companyICE, companyRC string, fiscalYear int, declarationMonth *int) *Batch {
	now := time.Now().UTC()

	return &Batch{
		ID:               uuid.New(),
		UserID:           userID,
		Name:             name,
		CompanyName:      companyName,
		CompanyICE:       companyICE,
		CompanyRC:        companyRC,
		FiscalYear:       fiscalYear,
		DeclarationMonth: declarationMonth,
		Status:           BatchStatusCreated,
		CurrentStep:      "batch created",
		ProgressPercent:  0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// CanTransitionTo reports whether the batch may move to the target status.
func (b *Batch) CanTransitionTo(target BatchStatus) bool {
	if target == BatchStatusFailed {
		return b.Status != BatchStatusExported
	}
	for _, allowed := range batchTransitions[b.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo moves the batch to the target status, updating the progress
// percentage and timestamps. The caller must have checked CanTransitionTo.
func (b *Batch) TransitionTo(target BatchStatus, step string) {
	b.Status = target
	b.CurrentStep = step
	if pct, ok := batchProgress[target]; ok {
		b.ProgressPercent = pct
	}
	b.UpdatedAt = time.Now().UTC()
	switch target {
	case BatchStatusValidated:
		validated := b.UpdatedAt
		b.ValidatedAt = &validated
	case BatchStatusExported:
		exported := b.UpdatedAt
		b.ExportedAt = &exported
	}
}

// MarkFailed moves the batch to failed, recording the failure reason.
func (b *Batch) MarkFailed(reason string) {
	b.Status = BatchStatusFailed
	b.ErrorMessage = reason
	b.CurrentStep = "failed"
	b.UpdatedAt = time.Now().UTC()
}

// SetProgress updates the in-pipeline progress percentage and step label.
func (b *Batch) SetProgress(percent int, step string) {
	b.ProgressPercent = percent
	b.CurrentStep = step
	b.UpdatedAt = time.Now().UTC()
}

// AddFailedDocument records a per-document failure on the batch.
func (b *Batch) AddFailedDocument(documentID uuid.UUID, fileName, reason string) {
	b.FailedDocuments = append(b.FailedDocuments, FailedDocument{
		DocumentID: documentID,
		FileName:   fileName,
		Reason:     reason,
	})
	b.UpdatedAt = time.Now().UTC()
}

// ResetRunState clears the outcome of a previous processing run before a
// new one starts.
func (b *Batch) ResetRunState() {
	b.ErrorMessage = ""
	b.FailedDocuments = nil
	b.ValidationReasons = nil
	b.RequiresValidation = false
	b.AlertsCount = 0
	b.CriticalAlertsCount = 0
	b.UpdatedAt = time.Now().UTC()
}

// IsDeletable reports whether the batch may still be deleted. Batches that
// were validated or exported are part of the declaration audit trail.
func (b *Batch) IsDeletable() bool {
	return b.Status != BatchStatusValidated && b.Status != BatchStatusExported
}

// IsProcessing reports whether a pipeline run is under way.
func (b *Batch) IsProcessing() bool {
	return b.Status == BatchStatusOCRProcessing
}
