// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/usecase/batch"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/integration/entrypoint/dto"
	"github.com/dgi-compliance/backend/internal/integration/entrypoint/middleware"
)

// BatchController handles batch and document endpoints.
type BatchController struct {
	createUseCase      *batch.CreateBatchUseCase
	getUseCase         *batch.GetBatchUseCase
	listUseCase        *batch.ListBatchesUseCase
	deleteUseCase      *batch.DeleteBatchUseCase
	uploadUseCase      *batch.UploadDocumentsUseCase
	getResultsUseCase  *batch.GetResultsUseCase
	getAuditLogUseCase *batch.GetAuditLogUseCase
	getDocumentUseCase *batch.GetDocumentUseCase
}

// NewBatchController creates a new batch controller instance.
func NewBatchController(
	createUseCase *batch.CreateBatchUseCase,
	getUseCase *batch.GetBatchUseCase,
	listUseCase *batch.ListBatchesUseCase,
	deleteUseCase *batch.DeleteBatchUseCase,
	uploadUseCase *batch.UploadDocumentsUseCase,
	getResultsUseCase *batch.GetResultsUseCase,
	getAuditLogUseCase *batch.GetAuditLogUseCase,
	getDocumentUseCase *batch.GetDocumentUseCase,
) *BatchController {
	return &BatchController{
		createUseCase:      createUseCase,
		getUseCase:         getUseCase,
		listUseCase:        listUseCase,
		deleteUseCase:      deleteUseCase,
		uploadUseCase:      uploadUseCase,
		getResultsUseCase:  getResultsUseCase,
		getAuditLogUseCase: getAuditLogUseCase,
		getDocumentUseCase: getDocumentUseCase,
	}
}

// Create handles POST /batches requests.
func (c *BatchController) Create(ctx *gin.Context) {
	// Get user ID from context
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "User not authenticated",
			Code:  string(domainerror.ErrCodeMissingToken),
		})
		return
	}

	// Parse request body
	var req dto.CreateBatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	// Build input
	input := batch.CreateBatchInput{
		UserID:           userID,
		Name:             req.Name,
		CompanyName:      req.CompanyName,
		CompanyICE:       req.CompanyICE,
		CompanyRC:        req.CompanyRC,
		ActivitySector:   req.ActivitySector,
		FiscalYear:       req.FiscalYear,
		DeclarationMonth: req.DeclarationMonth,
	}

	// Execute use case
	output, err := c.createUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleBatchError(ctx, err)
		return
	}

	// Build response
	response := dto.ToBatchResponse(output.Batch)
	ctx.JSON(http.StatusCreated, response)
}

// Get handles GET /batches/:id requests.
func (c *BatchController) Get(ctx *gin.Context) {
	// Get user ID from context
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "User not authenticated",
			Code:  string(domainerror.ErrCodeMissingToken),
		})
		return
	}

	// Parse batch ID from URL
	batchID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid batch ID format",
		})
		return
	}

	// Execute use case
	output, err := c.getUseCase.Execute(ctx.Request.Context(), batch.GetBatchInput{
		BatchID: batchID,
		UserID:  userID,
	})
	if err != nil {
		c.handleBatchError(ctx, err)
		return
	}

	// Build response
	response := dto.BatchDetailResponse{
		Batch:     dto.ToBatchResponse(output.Batch),
		Documents: make([]dto.DocumentResponse, 0, len(output.Documents)),
	}
	for _, doc := range output.Documents {
		response.Documents = append(response.Documents, dto.ToDocumentResponse(doc))
	}
	for _, result := range output.Results {
		response.Results = append(response.Results, dto.InvoiceResultResponse{
			InvoiceID: result.InvoiceID.String(),
			Matching:  dto.ToMatchingResultPayload(result.Matching),
			Legal:     dto.ToLegalResultResponse(result.Legal),
		})
	}
	ctx.JSON(http.StatusOK, response)
}

// ListForUser handles GET /users/:id/batches requests.
func (c *BatchController) ListForUser(ctx *gin.Context) {
	// Get user ID from context
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "User not authenticated",
			Code:  string(domainerror.ErrCodeMissingToken),
		})
		return
	}

	// Parse user ID from URL
	pathUserID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid user ID format",
		})
		return
	}

	// Users can only list their own batches
	if pathUserID != userID {
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{
			Error: "Not authorized to list batches of another user",
			Code:  string(domainerror.ErrCodeNotAuthorizedBatch),
		})
		return
	}

	// Execute use case
	output, err := c.listUseCase.Execute(ctx.Request.Context(), batch.ListBatchesInput{
		UserID: userID,
	})
	if err != nil {
		c.handleBatchError(ctx, err)
		return
	}

	// Build response
	response := dto.ToBatchListResponse(output.Batches)
	ctx.JSON(http.StatusOK, response)
}

// Delete handles DELETE /batches/:id requests.
func (c *BatchController) Delete(ctx *gin.Context) {
	// Get user ID from context
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "User not authenticated",
			Code:  string(domainerror.ErrCodeMissingToken),
		})
		return
	}

	// Parse batch ID from URL
	batchID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid batch ID format",
		})
		return
	}

	// Execute use case
	_, err = c.deleteUseCase.Execute(ctx.Request.Context(), batch.DeleteBatchInput{
		BatchID: batchID,
		UserID:  userID,
	})
	if err != nil {
		c.handleBatchError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// UploadInvoices handles POST /batches/:id/upload/invoices requests.
func (c *BatchController) UploadInvoices(ctx *gin.Context) {
	c.uploadDocuments(ctx, entity.DocumentKindInvoice)
}

// UploadPayments handles POST /batches/:id/upload/payments requests.
func (c *BatchController) UploadPayments(ctx *gin.Context) {
	c.uploadDocuments(ctx, entity.DocumentKindPayment)
}

// uploadDocuments reads the multipart form and stores each file under the
// batch with the given document kind.
func (c *BatchController) uploadDocuments(ctx *gin.Context, kind entity.DocumentKind) {
	// Get user ID from context
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "User not authenticated",
			Code:  string(domainerror.ErrCodeMissingToken),
		})
		return
	}

	// Parse batch ID from URL
	batchID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid batch ID format",
		})
		return
	}

	// Parse multipart form
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid multipart form: " + err.Error(),
		})
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "No files provided. Use the files form field",
			Code:  string(domainerror.ErrCodeEmptyUpload),
		})
		return
	}

	// Read file contents
	files := make([]batch.UploadFile, 0, len(fileHeaders))
	for _, fileHeader := range fileHeaders {
		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Failed to read uploaded file: " + fileHeader.Filename,
			})
			return
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Failed to read uploaded file: " + fileHeader.Filename,
			})
			return
		}
		files = append(files, batch.UploadFile{
			FileName:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Content:     content,
		})
	}

	// Execute use case
	output, err := c.uploadUseCase.Execute(ctx.Request.Context(), batch.UploadDocumentsInput{
		BatchID: batchID,
		UserID:  userID,
		Kind:    kind,
		Files:   files,
	})
	if err != nil {
		c.handleBatchError(ctx, err)
		return
	}

	// Build response
	response := dto.UploadDocumentsResponse{
		Documents: make([]dto.DocumentResponse, 0, len(output.Documents)),
		Total:     len(output.Documents),
	}
	for _, doc := range output.Documents {
		response.Documents = append(response.Documents, dto.ToDocumentResponse(doc))
	}
	ctx.JSON(http.StatusCreated, response)
}

// GetResults handles GET /batches/:id/results requests.
func (c *BatchController) GetResults(ctx *gin.Context) {
	// Get user ID from context
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "User not authenticated",
			Code:  string(domainerror.ErrCodeMissingToken),
		})
		return
	}

	// Parse batch ID from URL
	batchID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid batch ID format",
		})
		return
	}

	// Execute use case
	output, err := c.getResultsUseCase.Execute(ctx.Request.Context(), batch.GetResultsInput{
		BatchID: batchID,
		UserID:  userID,
	})
	if err != nil {
		c.handleBatchError(ctx, err)
		return
	}

	// Build response
	response := dto.BatchResultsResponse{
		Batch:   dto.ToBatchResponse(output.Batch),
		Results: make([]dto.BatchResultItemResponse, 0, len(output.Results)),
		Total:   len(output.Results),
	}
	for _, item := range output.Results {
		response.Results = append(response.Results, dto.BatchResultItemResponse{
			Invoice:  dto.ToInvoiceResponse(item.Invoice),
			Matching: dto.ToMatchingResultPayload(item.Matching),
			Legal:    dto.ToLegalResultResponse(item.Legal),
		})
	}
	ctx.JSON(http.StatusOK, response)
}

// GetAuditLog handles GET /batches/:id/audit-log requests.
func (c *BatchController) GetAuditLog(ctx *gin.Context) {
	// Get user ID from context
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "User not authenticated",
			Code:  string(domainerror.ErrCodeMissingToken),
		})
		return
	}

	// Parse batch ID from URL
	batchID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid batch ID format",
		})
		return
	}

	// Execute use case
	output, err := c.getAuditLogUseCase.Execute(ctx.Request.Context(), batch.GetAuditLogInput{
		BatchID: batchID,
		UserID:  userID,
	})
	if err != nil {
		c.handleBatchError(ctx, err)
		return
	}

	// Build response
	response := dto.ToAuditLogResponse(output.Entries)
	ctx.JSON(http.StatusOK, response)
}

// GetDocumentPDF handles GET /batches/:id/documents/:docID/pdf requests.
func (c *BatchController) GetDocumentPDF(ctx *gin.Context) {
	// Get user ID from context
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "User not authenticated",
			Code:  string(domainerror.ErrCodeMissingToken),
		})
		return
	}

	// Parse batch ID from URL
	batchID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid batch ID format",
		})
		return
	}

	// Parse document ID from URL
	documentID, err := uuid.Parse(ctx.Param("docID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid document ID format",
		})
		return
	}

	// Execute use case
	output, err := c.getDocumentUseCase.Execute(ctx.Request.Context(), batch.GetDocumentInput{
		BatchID:    batchID,
		DocumentID: documentID,
		UserID:     userID,
	})
	if err != nil {
		c.handleBatchError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", `inline; filename="`+output.FileName+`"`)
	ctx.Data(http.StatusOK, output.ContentType, output.Content)
}

// handleBatchError handles batch and document errors and returns appropriate
// HTTP responses.
func (c *BatchController) handleBatchError(ctx *gin.Context, err error) {
	var batchErr *domainerror.BatchError
	if errors.As(err, &batchErr) {
		statusCode := c.getStatusCodeForBatchError(batchErr.Code)
		ctx.JSON(statusCode, dto.ErrorResponse{
			Error: batchErr.Message,
			Code:  string(batchErr.Code),
		})
		return
	}

	var docErr *domainerror.DocumentError
	if errors.As(err, &docErr) {
		statusCode := c.getStatusCodeForDocumentError(docErr.Code)
		ctx.JSON(statusCode, dto.ErrorResponse{
			Error: docErr.Message,
			Code:  string(docErr.Code),
		})
		return
	}

	var declErr *domainerror.DeclarationError
	if errors.As(err, &declErr) {
		statusCode := http.StatusInternalServerError
		if declErr.Code == domainerror.ErrCodeMissingCompanyIdentity {
			statusCode = http.StatusBadRequest
		}
		ctx.JSON(statusCode, dto.ErrorResponse{
			Error: declErr.Message,
			Code:  string(declErr.Code),
		})
		return
	}

	// Generic server error
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}

// getStatusCodeForBatchError maps batch error codes to HTTP status codes.
func (c *BatchController) getStatusCodeForBatchError(code domainerror.BatchErrorCode) int {
	switch code {
	case domainerror.ErrCodeBatchNotFound,
		domainerror.ErrCodeInvoiceNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeNotAuthorizedBatch:
		return http.StatusForbidden
	case domainerror.ErrCodeBatchNotDeletable,
		domainerror.ErrCodeBatchAlreadyProcessing,
		domainerror.ErrCodeInvalidBatchTransition,
		domainerror.ErrCodeBatchNotReadyValidate,
		domainerror.ErrCodeBatchNotReadyExport:
		return http.StatusConflict
	case domainerror.ErrCodeBatchHasNoInvoices,
		domainerror.ErrCodeBatchHasNoPayments,
		domainerror.ErrCodeInvalidFiscalYear,
		domainerror.ErrCodeInvalidDeclarationMonth,
		domainerror.ErrCodeInvalidCorrection,
		domainerror.ErrCodeBatchNameTooLong,
		domainerror.ErrCodeInvalidProcessingMode:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// getStatusCodeForDocumentError maps document error codes to HTTP status codes.
func (c *BatchController) getStatusCodeForDocumentError(code domainerror.DocumentErrorCode) int {
	switch code {
	case domainerror.ErrCodeDocumentNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeUnsupportedFileType,
		domainerror.ErrCodeFileTooLarge,
		domainerror.ErrCodeEmptyUpload,
		domainerror.ErrCodeTooManyDocuments:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
