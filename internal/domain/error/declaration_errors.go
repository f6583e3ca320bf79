package error

import "errors"

// Declaration domain errors.
var (
	// ErrDeclarationInputMismatch is returned when invoices, matching results
	// and legal results differ in length.
	ErrDeclarationInputMismatch = errors.New("invoices, matching results and legal results must have the same length")

	// ErrDeclarationNotAvailable is returned when results are requested before
	// the legal computation has run.
	ErrDeclarationNotAvailable = errors.New("declaration results are not available yet")

	// ErrMissingCompanyIdentity is returned when the company ICE or name is absent.
	ErrMissingCompanyIdentity = errors.New("company identity is incomplete")
)

// DeclarationErrorCode defines error codes for declaration errors.
// Format: DCL-XXYYYY where XX is category and YYYY is specific error.
type DeclarationErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeDeclarationInputMismatch DeclarationErrorCode = "DCL-010001"
	ErrCodeDeclarationNotAvailable  DeclarationErrorCode = "DCL-010002"
	ErrCodeMissingCompanyIdentity   DeclarationErrorCode = "DCL-010003"

	// Export errors (02XXXX)
	ErrCodeExportFailed DeclarationErrorCode = "DCL-020001"
)

// DeclarationError represents a declaration error with code and message.
type DeclarationError struct {
	Code    DeclarationErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DeclarationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *DeclarationError) Unwrap() error {
	return e.Err
}

// NewDeclarationError creates a new DeclarationError with the given code and message.
func NewDeclarationError(code DeclarationErrorCode, message string, err error) *DeclarationError {
	return &DeclarationError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
