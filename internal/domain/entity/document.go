package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentKind distinguishes the two document types a batch accepts.
type DocumentKind string

const (
	DocumentKindInvoice DocumentKind = "invoice"
	DocumentKindPayment DocumentKind = "payment"
)

// ParseDocumentKind converts a stored string into a DocumentKind.
func ParseDocumentKind(s string) (DocumentKind, bool) {
	kind := DocumentKind(s)
	switch kind {
	case DocumentKindInvoice, DocumentKindPayment:
		return kind, true
	}
	return "", false
}

// DocumentStatus tracks how far a document has moved through OCR and
// extraction.
type DocumentStatus string

const (
	DocumentStatusUploaded  DocumentStatus = "uploaded"
	DocumentStatusOCRDone   DocumentStatus = "ocr_done"
	DocumentStatusExtracted DocumentStatus = "extracted"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// Document represents an uploaded file belonging to a batch, together with
// its OCR output.
type Document struct {
	ID            uuid.UUID
	BatchID       uuid.UUID
	Kind          DocumentKind
	FileName      string
	StoragePath   string
	ContentType   string
	SizeBytes     int64
	PageCount     int
	Status        DocumentStatus
	OCRText       string
	OCRConfidence float64
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewDocument creates a new Document entity in the uploaded state.
func NewDocument(batchID uuid.UUID, kind DocumentKind, fileName, storagePath, contentType string, sizeBytes int64) *Document {
	now := time.Now().UTC()

	return &Document{
		ID:          uuid.New(),
		BatchID:     batchID,
		Kind:        kind,
		FileName:    fileName,
		StoragePath: storagePath,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		Status:      DocumentStatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkOCRDone records the OCR output on the document.
func (d *Document) MarkOCRDone(text string, confidence float64, pageCount int) {
	d.OCRText = text
	d.OCRConfidence = confidence
	d.PageCount = pageCount
	d.Status = DocumentStatusOCRDone
	d.UpdatedAt = time.Now().UTC()
}

// MarkExtracted records that structured data was extracted from the document.
func (d *Document) MarkExtracted() {
	d.Status = DocumentStatusExtracted
	d.UpdatedAt = time.Now().UTC()
}

// MarkFailed records a per-document processing failure. A failed document
// does not abort the batch; the failure is surfaced on the batch instead.
func (d *Document) MarkFailed(reason string) {
	d.Status = DocumentStatusFailed
	d.ErrorMessage = reason
	d.UpdatedAt = time.Now().UTC()
}
