package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/usecase/declaration"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/integration/entrypoint/dto"
	"github.com/dgi-compliance/backend/internal/integration/entrypoint/middleware"
)

// DeclarationController handles declaration and export endpoints.
type DeclarationController struct {
	exportCSVUseCase      *declaration.ExportCSVUseCase
	getDeclarationUseCase *declaration.GetDeclarationUseCase
	alertsReportUseCase   *declaration.GetAlertsReportUseCase
}

// NewDeclarationController creates a new declaration controller instance.
func NewDeclarationController(
	exportCSVUseCase *declaration.ExportCSVUseCase,
	getDeclarationUseCase *declaration.GetDeclarationUseCase,
	alertsReportUseCase *declaration.GetAlertsReportUseCase,
) *DeclarationController {
	return &DeclarationController{
		exportCSVUseCase:      exportCSVUseCase,
		getDeclarationUseCase: getDeclarationUseCase,
		alertsReportUseCase:   alertsReportUseCase,
	}
}

// ExportCSV handles GET /batches/:id/export/csv requests. The batch must be
// validated; the download marks it exported.
func (c *DeclarationController) ExportCSV(ctx *gin.Context) {
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

	// Build input
	input := declaration.ExportCSVInput{
		BatchID:        batchID,
		UserID:         userID,
		RecipientEmail: ctx.Query("notifyEmail"),
		RecipientName:  ctx.Query("notifyName"),
	}

	// Execute use case
	output, err := c.exportCSVUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleDeclarationError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+output.FileName+`"`)
	ctx.Data(http.StatusOK, output.ContentType, output.Content)
}

// GetDeclaration handles GET /batches/:id/declaration requests. It returns
// the formatted declaration without changing the batch status.
func (c *DeclarationController) GetDeclaration(ctx *gin.Context) {
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
	output, err := c.getDeclarationUseCase.Execute(ctx.Request.Context(), declaration.GetDeclarationInput{
		BatchID: batchID,
		UserID:  userID,
	})
	if err != nil {
		c.handleDeclarationError(ctx, err)
		return
	}

	// Build response
	response := dto.BatchDeclarationResponse{
		Batch:       dto.ToBatchResponse(output.Batch),
		Declaration: dto.ToDeclarationResponse(output.Declaration),
	}
	ctx.JSON(http.StatusOK, response)
}

// GetAlertsReport handles GET /batches/:id/alerts-report requests.
func (c *DeclarationController) GetAlertsReport(ctx *gin.Context) {
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
	output, err := c.alertsReportUseCase.Execute(ctx.Request.Context(), declaration.GetAlertsReportInput{
		BatchID: batchID,
		UserID:  userID,
	})
	if err != nil {
		c.handleDeclarationError(ctx, err)
		return
	}

	// Build response
	response := dto.AlertsReportResponse{Report: output.Report}
	ctx.JSON(http.StatusOK, response)
}

// handleDeclarationError handles batch and declaration errors and returns
// appropriate HTTP responses.
func (c *DeclarationController) handleDeclarationError(ctx *gin.Context, err error) {
	var batchErr *domainerror.BatchError
	if errors.As(err, &batchErr) {
		statusCode := c.getStatusCodeForBatchError(batchErr.Code)
		ctx.JSON(statusCode, dto.ErrorResponse{
			Error: batchErr.Message,
			Code:  string(batchErr.Code),
		})
		return
	}

	var declErr *domainerror.DeclarationError
	if errors.As(err, &declErr) {
		statusCode := c.getStatusCodeForDeclarationError(declErr.Code)
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
func (c *DeclarationController) getStatusCodeForBatchError(code domainerror.BatchErrorCode) int {
	switch code {
	case domainerror.ErrCodeBatchNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeNotAuthorizedBatch:
		return http.StatusForbidden
	case domainerror.ErrCodeBatchNotReadyExport,
		domainerror.ErrCodeInvalidBatchTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// getStatusCodeForDeclarationError maps declaration error codes to HTTP
// status codes.
func (c *DeclarationController) getStatusCodeForDeclarationError(code domainerror.DeclarationErrorCode) int {
	switch code {
	case domainerror.ErrCodeDeclarationNotAvailable:
		return http.StatusConflict
	case domainerror.ErrCodeDeclarationInputMismatch,
		domainerror.ErrCodeMissingCompanyIdentity:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
