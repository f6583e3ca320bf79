// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import "context"

// OCRResult represents the raw text extracted from one document.
type OCRResult struct {
	Text       string
	Confidence float64
	PageCount  int
}

// OCRProvider defines the interface for optical character recognition of
// uploaded documents.
type OCRProvider interface {
	// ExtractText runs OCR over the document content and returns the raw text.
	ExtractText(ctx context.Context, content []byte, contentType string) (*OCRResult, error)

	// IsAvailable checks if the provider is configured and usable.
	IsAvailable() bool
}
