package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dgi-compliance/backend/internal/application/usecase/rules"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
	"github.com/dgi-compliance/backend/internal/integration/entrypoint/dto"
)

// RulesController handles the stateless legal computation endpoints. They
// take invoice and matching data in the request and touch no batch.
type RulesController struct {
	computeUseCase      *rules.ComputeUseCase
	computeBatchUseCase *rules.ComputeBatchUseCase
}

// NewRulesController creates a new rules controller instance.
func NewRulesController(
	computeUseCase *rules.ComputeUseCase,
	computeBatchUseCase *rules.ComputeBatchUseCase,
) *RulesController {
	return &RulesController{
		computeUseCase:      computeUseCase,
		computeBatchUseCase: computeBatchUseCase,
	}
}

// Compute handles POST /rules/compute requests.
func (c *RulesController) Compute(ctx *gin.Context) {
	// Parse request body
	var req dto.ComputeRuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	// Convert payloads
	invoice, err := req.Invoice.ToEntity()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	matching, err := req.Matching.ToValueObject()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: err.Error(),
		})
		return
	}
	if matching.InvoiceID == "" {
		matching.InvoiceID = invoice.ID.String()
	}

	// Build input
	input := rules.ComputeInput{
		Invoice:        invoice,
		Matching:       matching,
		IsProcedure690: req.IsProcedure690,
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
	output, err := c.computeUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleRulesError(ctx, err)
		return
	}

	// Build response
	response := dto.ComputeRuleResponse{
		Result: dto.ToLegalResultResponse(output.Result),
	}
	ctx.JSON(http.StatusOK, response)
}

// ComputeBatch handles POST /rules/compute/batch requests. The matching list
// is positional and must be as long as the invoice list.
func (c *RulesController) ComputeBatch(ctx *gin.Context) {
	// Parse request body
	var req dto.ComputeBatchRuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	// Convert payloads
	invoices, matching, err := convertComputeBatchPayloads(req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	// Build input
	input := rules.ComputeBatchInput{
		Invoices:         invoices,
		Matching:         matching,
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
	output, err := c.computeBatchUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleRulesError(ctx, err)
		return
	}

	// Build response
	response := dto.ToComputeBatchRuleResponse(output.Results)
	ctx.JSON(http.StatusOK, response)
}

// handleRulesError handles rules errors and returns appropriate HTTP
// responses.
func (c *RulesController) handleRulesError(ctx *gin.Context, err error) {
	var rulesErr *domainerror.RulesError
	if errors.As(err, &rulesErr) {
		statusCode := c.getStatusCodeForRulesError(rulesErr.Code)
		ctx.JSON(statusCode, dto.ErrorResponse{
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

// getStatusCodeForRulesError maps rules error codes to HTTP status codes.
func (c *RulesController) getStatusCodeForRulesError(code domainerror.RulesErrorCode) int {
	switch code {
	case domainerror.ErrCodeRulesInputMismatch,
		domainerror.ErrCodeInvalidRulesConfig,
		domainerror.ErrCodeInvalidAsOfDate:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// convertComputeBatchPayloads converts the request payloads to domain types.
// Matching entries missing an invoice ID inherit it from their positional
// invoice.
func convertComputeBatchPayloads(req dto.ComputeBatchRuleRequest) ([]*entity.ExtractedInvoice, []valueobject.MatchingResult, error) {
	invoices := make([]*entity.ExtractedInvoice, 0, len(req.Invoices))
	for _, payload := range req.Invoices {
		invoice, err := payload.ToEntity()
		if err != nil {
			return nil, nil, err
		}
		invoices = append(invoices, invoice)
	}

	matching := make([]valueobject.MatchingResult, 0, len(req.Matching))
	for i, payload := range req.Matching {
		result, err := payload.ToValueObject()
		if err != nil {
			return nil, nil, err
		}
		if result.InvoiceID == "" && i < len(invoices) {
			result.InvoiceID = invoices[i].ID.String()
		}
		matching = append(matching, result)
	}

	return invoices, matching, nil
}
