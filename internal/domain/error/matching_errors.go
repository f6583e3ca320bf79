package error

import "errors"

// Matching engine domain errors.
var (
	// ErrNoInvoicesToMatch is returned when matching is requested without invoices.
	ErrNoInvoicesToMatch = errors.New("no invoices to match")

	// ErrInvalidMatchingConfig is returned when the matching thresholds are invalid.
	ErrInvalidMatchingConfig = errors.New("invalid matching configuration")
)

// MatchingErrorCode defines error codes for matching errors.
// Format: MAT-XXYYYY where XX is category and YYYY is specific error.
type MatchingErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeNoInvoicesToMatch     MatchingErrorCode = "MAT-010001"
	ErrCodeInvalidMatchingConfig MatchingErrorCode = "MAT-010002"
)

// MatchingError represents a matching error with code and message.
type MatchingError struct {
	Code    MatchingErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *MatchingError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *MatchingError) Unwrap() error {
	return e.Err
}

// NewMatchingError creates a new MatchingError with the given code and message.
func NewMatchingError(code MatchingErrorCode, message string, err error) *MatchingError {
	return &MatchingError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
