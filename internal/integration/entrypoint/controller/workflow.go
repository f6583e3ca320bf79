package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/usecase/workflow"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
	"github.com/dgi-compliance/backend/internal/integration/entrypoint/dto"
	"github.com/dgi-compliance/backend/internal/integration/entrypoint/middleware"
)

// WorkflowController handles the processing lifecycle endpoints of a batch.
type WorkflowController struct {
	processUseCase     *workflow.ProcessBatchUseCase
	getStatusUseCase   *workflow.GetStatusUseCase
	applyUseCase       *workflow.ApplyValidationUseCase
	recalculateUseCase *workflow.RecalculateUseCase
	validateUseCase    *workflow.ValidateBatchUseCase
}

// NewWorkflowController creates a new workflow controller instance.
func NewWorkflowController(
	processUseCase *workflow.ProcessBatchUseCase,
	getStatusUseCase *workflow.GetStatusUseCase,
	applyUseCase *workflow.ApplyValidationUseCase,
	recalculateUseCase *workflow.RecalculateUseCase,
	validateUseCase *workflow.ValidateBatchUseCase,
) *WorkflowController {
	return &WorkflowController{
		processUseCase:     processUseCase,
		getStatusUseCase:   getStatusUseCase,
		applyUseCase:       applyUseCase,
		recalculateUseCase: recalculateUseCase,
		validateUseCase:    validateUseCase,
	}
}

// Process handles POST /batches/:id/process requests. The run mode comes
// from the optional request body and defaults to a full run.
func (c *WorkflowController) Process(ctx *gin.Context) {
	c.startProcessing(ctx, nil)
}

// ProcessInvoices handles POST /batches/:id/process/invoices requests.
func (c *WorkflowController) ProcessInvoices(ctx *gin.Context) {
	mode := workflow.ModeInvoicesOnly
	c.startProcessing(ctx, &mode)
}

// ProcessComplete handles POST /batches/:id/process/complete requests.
func (c *WorkflowController) ProcessComplete(ctx *gin.Context) {
	mode := workflow.ModeComplete
	c.startProcessing(ctx, &mode)
}

// startProcessing starts an asynchronous processing run. A forced mode wins
// over the mode carried in the request body.
func (c *WorkflowController) startProcessing(ctx *gin.Context, forcedMode *workflow.ProcessingMode) {
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

	// Parse optional request body
	var req dto.ProcessBatchRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid request body: " + err.Error(),
			})
			return
		}
	}

	// Resolve run mode
	mode, ok := workflow.ParseProcessingMode(req.Mode)
	if !ok {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid processing mode: " + req.Mode,
			Code:  string(domainerror.ErrCodeInvalidProcessingMode),
		})
		return
	}
	if forcedMode != nil {
		mode = *forcedMode
	}

	// Build input
	input := workflow.ProcessBatchInput{
		BatchID:          batchID,
		UserID:           userID,
		Mode:             mode,
		Procedure690ICEs: req.Procedure690ICEs,
		RecipientEmail:   req.NotifyEmail,
		RecipientName:    req.NotifyName,
	}

	// Parse as-of date
	if req.AsOfDate != nil && *req.AsOfDate != "" {
		asOf, err := time.Parse("2006-01-02", *req.AsOfDate)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid as_of_date format. Use YYYY-MM-DD",
				Code:  string(domainerror.ErrCodeInvalidAsOfDate),
			})
			return
		}
		input.AsOf = &asOf
	}

	// Execute use case
	output, err := c.processUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleWorkflowError(ctx, err)
		return
	}

	// Build response
	response := dto.ProcessBatchResponse{
		BatchID: output.BatchID.String(),
		Status:  string(output.Status),
		Message: output.Message,
	}
	ctx.JSON(http.StatusAccepted, response)
}

// GetStatus handles GET /batches/:id/status requests.
func (c *WorkflowController) GetStatus(ctx *gin.Context) {
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
	output, err := c.getStatusUseCase.Execute(ctx.Request.Context(), workflow.GetStatusInput{
		BatchID: batchID,
		UserID:  userID,
	})
	if err != nil {
		c.handleWorkflowError(ctx, err)
		return
	}

	// Build response
	response := dto.BatchStatusResponse{
		Batch:      dto.ToBatchResponse(output.Batch),
		Processing: output.Processing,
	}
	ctx.JSON(http.StatusOK, response)
}

// ApplyCorrections handles PATCH /batches/:id requests. Corrections are
// applied to the extracted invoices and the computation reruns.
func (c *WorkflowController) ApplyCorrections(ctx *gin.Context) {
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

	// Parse request body
	var req dto.ApplyCorrectionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	// Convert corrections
	corrections := make([]valueobject.CorrectionSet, 0, len(req.Corrections))
	for _, invoiceCorrections := range req.Corrections {
		set, err := invoiceCorrections.ToCorrectionSet()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: err.Error(),
				Code:  string(domainerror.ErrCodeInvalidCorrection),
			})
			return
		}
		corrections = append(corrections, set)
	}

	// Build input
	input := workflow.ApplyValidationInput{
		BatchID:          batchID,
		UserID:           userID,
		Corrections:      corrections,
		Procedure690ICEs: req.Procedure690ICEs,
	}

	// Parse as-of date
	if req.AsOfDate != nil && *req.AsOfDate != "" {
		asOf, err := time.Parse("2006-01-02", *req.AsOfDate)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid as_of_date format. Use YYYY-MM-DD",
				Code:  string(domainerror.ErrCodeInvalidAsOfDate),
			})
			return
		}
		input.AsOf = &asOf
	}

	// Execute use case
	output, err := c.applyUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleWorkflowError(ctx, err)
		return
	}

	// Build response
	response := dto.ApplyCorrectionsResponse{
		Batch:              dto.ToBatchResponse(output.Batch),
		CorrectedInvoices:  output.CorrectedInvoices,
		RequiresValidation: output.RequiresValidation,
		Reasons:            output.Reasons,
	}
	ctx.JSON(http.StatusOK, response)
}

// Recalculate handles POST /batches/:id/recalculate requests.
func (c *WorkflowController) Recalculate(ctx *gin.Context) {
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

	// Parse optional request body
	var req dto.RecalculateRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid request body: " + err.Error(),
			})
			return
		}
	}

	// Build input
	input := workflow.RecalculateInput{
		BatchID:          batchID,
		UserID:           userID,
		Procedure690ICEs: req.Procedure690ICEs,
	}

	// Parse as-of date
	if req.AsOfDate != nil && *req.AsOfDate != "" {
		asOf, err := time.Parse("2006-01-02", *req.AsOfDate)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid as_of_date format. Use YYYY-MM-DD",
				Code:  string(domainerror.ErrCodeInvalidAsOfDate),
			})
			return
		}
		input.AsOf = &asOf
	}

	// Execute use case
	output, err := c.recalculateUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleWorkflowError(ctx, err)
		return
	}

	// Build response
	response := dto.RecalculateResponse{
		Batch:              dto.ToBatchResponse(output.Batch),
		ResultCount:        output.ResultCount,
		RequiresValidation: output.RequiresValidation,
		Reasons:            output.Reasons,
	}
	ctx.JSON(http.StatusOK, response)
}

// Validate handles POST /batches/:id/validate requests.
func (c *WorkflowController) Validate(ctx *gin.Context) {
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

	// Parse optional request body
	var req dto.ValidateBatchRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid request body: " + err.Error(),
			})
			return
		}
	}

	// Execute use case
	output, err := c.validateUseCase.Execute(ctx.Request.Context(), workflow.ValidateBatchInput{
		BatchID: batchID,
		UserID:  userID,
		Note:    req.Note,
	})
	if err != nil {
		c.handleWorkflowError(ctx, err)
		return
	}

	// Build response
	response := dto.ToBatchResponse(output.Batch)
	ctx.JSON(http.StatusOK, response)
}

// handleWorkflowError handles batch and rules errors raised by the workflow
// use cases and returns appropriate HTTP responses.
func (c *WorkflowController) handleWorkflowError(ctx *gin.Context, err error) {
	var batchErr *domainerror.BatchError
	if errors.As(err, &batchErr) {
		statusCode := c.getStatusCodeForWorkflowError(batchErr.Code)
		ctx.JSON(statusCode, dto.ErrorResponse{
			Error: batchErr.Message,
			Code:  string(batchErr.Code),
		})
		return
	}

	var rulesErr *domainerror.RulesError
	if errors.As(err, &rulesErr) {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: rulesErr.Message,
			Code:  string(rulesErr.Code),
		})
		return
	}

	// Generic server error
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}

// getStatusCodeForWorkflowError maps batch error codes to HTTP status codes.
func (c *WorkflowController) getStatusCodeForWorkflowError(code domainerror.BatchErrorCode) int {
	switch code {
	case domainerror.ErrCodeBatchNotFound,
		domainerror.ErrCodeInvoiceNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeNotAuthorizedBatch:
		return http.StatusForbidden
	case domainerror.ErrCodeBatchAlreadyProcessing,
		domainerror.ErrCodeInvalidBatchTransition,
		domainerror.ErrCodeBatchNotReadyValidate:
		return http.StatusConflict
	case domainerror.ErrCodeBatchHasNoInvoices,
		domainerror.ErrCodeBatchHasNoPayments,
		domainerror.ErrCodeInvalidProcessingMode,
		domainerror.ErrCodeInvalidCorrection:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
