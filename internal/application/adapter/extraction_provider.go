// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// ExtractionProvider defines the interface for turning raw OCR text into
// structured invoices and payments. Implementations must populate
// MissingFields on invoices for every key they could not extract.
type ExtractionProvider interface {
	// ExtractInvoice parses invoice fields out of raw document text.
	ExtractInvoice(ctx context.Context, document *entity.Document, rawText string) (*entity.ExtractedInvoice, error)

	// ExtractPayment parses payment fields out of raw document text.
	ExtractPayment(ctx context.Context, document *entity.Document, rawText string) (*entity.ExtractedPayment, error)

	// IsAvailable checks if the provider is configured and usable.
	IsAvailable() bool
}
