package error

import "errors"

// Document domain errors.
var (
	// ErrDocumentNotFound is returned when a document is not found in the system.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrUnsupportedFileType is returned when an uploaded file is not a PDF or image.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge is returned when an uploaded file exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum size")

	// ErrEmptyUpload is returned when an upload request carries no files.
	ErrEmptyUpload = errors.New("no files in upload")

	// ErrTooManyDocuments is returned when a batch would exceed the document limit.
	ErrTooManyDocuments = errors.New("too many documents in batch")

	// ErrOCRFailed is returned when text recognition fails for a document.
	ErrOCRFailed = errors.New("text recognition failed")

	// ErrExtractionFailed is returned when structured extraction fails for a document.
	ErrExtractionFailed = errors.New("field extraction failed")

	// ErrStorageFailed is returned when the file store cannot persist or read a file.
	ErrStorageFailed = errors.New("file storage operation failed")
)

// DocumentErrorCode defines error codes for document errors.
// Format: DOC-XXYYYY where XX is category and YYYY is specific error.
type DocumentErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeDocumentNotFound    DocumentErrorCode = "DOC-010001"
	ErrCodeUnsupportedFileType DocumentErrorCode = "DOC-010002"
	ErrCodeFileTooLarge        DocumentErrorCode = "DOC-010003"
	ErrCodeEmptyUpload         DocumentErrorCode = "DOC-010004"
	ErrCodeTooManyDocuments    DocumentErrorCode = "DOC-010005"

	// Processing errors (02XXXX)
	ErrCodeOCRFailed        DocumentErrorCode = "DOC-020001"
	ErrCodeExtractionFailed DocumentErrorCode = "DOC-020002"
	ErrCodeStorageFailed    DocumentErrorCode = "DOC-020003"
)

// DocumentError represents a document error with code and message.
type DocumentError struct {
	Code    DocumentErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *DocumentError) Unwrap() error {
	return e.Err
}

// NewDocumentError creates a new DocumentError with the given code and message.
func NewDocumentError(code DocumentErrorCode, message string, err error) *DocumentError {
	return &DocumentError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
