// Package error defines domain-specific errors for the DGI compliance application.
package error

import "errors"

// Batch domain errors.
var (
	// ErrBatchNotFound is returned when a batch is not found in the system.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrNotAuthorizedToAccessBatch is returned when the user does not own the batch.
	ErrNotAuthorizedToAccessBatch = errors.New("not authorized to access batch")

	// ErrInvalidBatchTransition is returned when a status transition is not allowed.
	ErrInvalidBatchTransition = errors.New("invalid batch status transition")

	// ErrBatchNotDeletable is returned when deleting a validated or exported batch.
	ErrBatchNotDeletable = errors.New("batch can no longer be deleted")

	// ErrBatchAlreadyProcessing is returned when a processing run is already active.
	ErrBatchAlreadyProcessing = errors.New("batch is already being processed")

	// ErrBatchHasNoInvoices is returned when processing is requested without invoices.
	ErrBatchHasNoInvoices = errors.New("batch has no invoice documents")

	// ErrBatchNotReadyForValidation is returned when validation is submitted too early.
	ErrBatchNotReadyForValidation = errors.New("batch is not awaiting validation")

	// ErrBatchNotReadyForExport is returned when export is requested before validation.
	ErrBatchNotReadyForExport = errors.New("batch results are not ready for export")

	// ErrInvalidFiscalYear is returned when the batch fiscal year is out of range.
	ErrInvalidFiscalYear = errors.New("invalid fiscal year")

	// ErrInvalidDeclarationMonth is returned when the declaration month is out of range.
	ErrInvalidDeclarationMonth = errors.New("invalid declaration month")

	// ErrInvalidCorrection is returned when a validation correction is malformed.
	ErrInvalidCorrection = errors.New("invalid field correction")

	// ErrBatchNameTooLong is returned when the batch name exceeds the length limit.
	ErrBatchNameTooLong = errors.New("batch name too long")

	// ErrInvalidProcessingMode is returned when the processing mode is unknown.
	ErrInvalidProcessingMode = errors.New("invalid processing mode")

	// ErrBatchHasNoPayments is returned when completion is requested without payments.
	ErrBatchHasNoPayments = errors.New("batch has no payment documents")

	// ErrInvoiceNotFound is returned when an extracted invoice is not found.
	ErrInvoiceNotFound = errors.New("extracted invoice not found")
)

// BatchErrorCode defines error codes for batch errors.
// Format: BCH-XXYYYY where XX is category and YYYY is specific error.
type BatchErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeBatchNotFound           BatchErrorCode = "BCH-010001"
	ErrCodeNotAuthorizedBatch      BatchErrorCode = "BCH-010002"
	ErrCodeInvalidBatchTransition  BatchErrorCode = "BCH-010003"
	ErrCodeBatchNotDeletable       BatchErrorCode = "BCH-010004"
	ErrCodeBatchAlreadyProcessing  BatchErrorCode = "BCH-010005"
	ErrCodeBatchHasNoInvoices      BatchErrorCode = "BCH-010006"
	ErrCodeBatchNotReadyValidate   BatchErrorCode = "BCH-010007"
	ErrCodeBatchNotReadyExport     BatchErrorCode = "BCH-010008"
	ErrCodeInvalidFiscalYear       BatchErrorCode = "BCH-010009"
	ErrCodeInvalidDeclarationMonth BatchErrorCode = "BCH-010010"
	ErrCodeInvalidCorrection       BatchErrorCode = "BCH-010011"
	ErrCodeBatchNameTooLong        BatchErrorCode = "BCH-010012"
	ErrCodeInvalidProcessingMode   BatchErrorCode = "BCH-010013"
	ErrCodeBatchHasNoPayments      BatchErrorCode = "BCH-010014"
	ErrCodeInvoiceNotFound         BatchErrorCode = "BCH-010015"

	// Processing errors (02XXXX)
	ErrCodeBatchProcessingFailed BatchErrorCode = "BCH-020001"
)

// BatchError represents a batch error with code and message.
type BatchError struct {
	Code    BatchErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *BatchError) Unwrap() error {
	return e.Err
}

// NewBatchError creates a new BatchError with the given code and message.
func NewBatchError(code BatchErrorCode, message string, err error) *BatchError {
	return &BatchError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
