package error

import "errors"

// Rules engine domain errors.
var (
	// ErrRulesInputMismatch is returned when invoices and matching results differ in length.
	ErrRulesInputMismatch = errors.New("invoices and matching results must have the same length")

	// ErrInvalidRulesConfig is returned when the penalty parameters are invalid.
	ErrInvalidRulesConfig = errors.New("invalid rules configuration")

	// ErrInvalidAsOfDate is returned when the reference date is missing or zero.
	ErrInvalidAsOfDate = errors.New("invalid reference date")
)

// RulesErrorCode defines error codes for rules engine errors.
// Format: RUL-XXYYYY where XX is category and YYYY is specific error.
type RulesErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeRulesInputMismatch RulesErrorCode = "RUL-010001"
	ErrCodeInvalidRulesConfig RulesErrorCode = "RUL-010002"
	ErrCodeInvalidAsOfDate    RulesErrorCode = "RUL-010003"

	// Computation errors (02XXXX)
	ErrCodeRulesComputation RulesErrorCode = "RUL-020001"
)

// RulesError represents a rules engine error with code and message.
type RulesError struct {
	Code    RulesErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RulesError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *RulesError) Unwrap() error {
	return e.Err
}

// NewRulesError creates a new RulesError with the given code and message.
func NewRulesError(code RulesErrorCode, message string, err error) *RulesError {
	return &RulesError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
