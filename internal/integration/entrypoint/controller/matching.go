package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dgi-compliance/backend/internal/application/usecase/matching"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/integration/entrypoint/dto"
)

// MatchingController handles the stateless matching endpoint. It takes
// invoice and payment data in the request and touches no batch.
type MatchingController struct {
	runUseCase *matching.RunMatchingUseCase
}

// NewMatchingController creates a new matching controller instance.
func NewMatchingController(runUseCase *matching.RunMatchingUseCase) *MatchingController {
	return &MatchingController{runUseCase: runUseCase}
}

// Run handles POST /matching/run requests.
func (c *MatchingController) Run(ctx *gin.Context) {
	// Parse request body
	var req dto.RunMatchingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	// Convert payloads
	invoices := make([]*entity.ExtractedInvoice, 0, len(req.Invoices))
	for _, payload := range req.Invoices {
		invoice, err := payload.ToEntity()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: err.Error(),
			})
			return
		}
		invoices = append(invoices, invoice)
	}

	payments := make([]*entity.ExtractedPayment, 0, len(req.Payments))
	for _, payload := range req.Payments {
		payment, err := payload.ToEntity()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: err.Error(),
			})
			return
		}
		payments = append(payments, payment)
	}

	// Execute use case
	output, err := c.runUseCase.Execute(ctx.Request.Context(), matching.RunMatchingInput{
		Invoices: invoices,
		Payments: payments,
	})
	if err != nil {
		c.handleMatchingError(ctx, err)
		return
	}

	// Build response
	response := dto.ToRunMatchingResponse(output.Results)
	ctx.JSON(http.StatusOK, response)
}

// handleMatchingError handles matching errors and returns appropriate HTTP
// responses.
func (c *MatchingController) handleMatchingError(ctx *gin.Context, err error) {
	var matchingErr *domainerror.MatchingError
	if errors.As(err, &matchingErr) {
		statusCode := c.getStatusCodeForMatchingError(matchingErr.Code)
		ctx.JSON(statusCode, dto.ErrorResponse{
			Error: matchingErr.Message,
			Code:  string(matchingErr.Code),
		})
		return
	}

	// Generic server error
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}

// getStatusCodeForMatchingError maps matching error codes to HTTP status
// codes.
func (c *MatchingController) getStatusCodeForMatchingError(code domainerror.MatchingErrorCode) int {
	switch code {
	case domainerror.ErrCodeNoInvoicesToMatch,
		domainerror.ErrCodeInvalidMatchingConfig:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
