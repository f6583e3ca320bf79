package rules

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// Engine runs the complete legal computation for invoices: payment terms,
// penalty arithmetic and legal status handling.
type Engine struct {
	calendar *Calendar
	config   valueobject.RulesConfig
}

// NewEngine creates an Engine for the given configuration.
func NewEngine(config valueobject.RulesConfig) (*Engine, error) {
	if config.DefaultDelayDays <= 0 || config.MaxDelayDays < config.DefaultDelayDays {
		return nil, domainerror.NewRulesError(
			domainerror.ErrCodeInvalidRulesConfig,
			fmt.Sprintf("invalid delay bounds: default=%d max=%d", config.DefaultDelayDays, config.MaxDelayDays),
			domainerror.ErrInvalidRulesConfig,
		)
	}
	if config.PenaltyBaseRatePercent.IsNegative() || config.PenaltyMonthlyIncrementPercent.IsNegative() {
		return nil, domainerror.NewRulesError(
			domainerror.ErrCodeInvalidRulesConfig,
			"penalty rates must not be negative",
			domainerror.ErrInvalidRulesConfig,
		)
	}

	return &Engine{
		calendar: NewCalendar(config.MovableHolidays),
		config:   config,
	}, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() valueobject.RulesConfig {
	return e.config
}

// ComputeInput carries one invoice and its matching outcome into the legal
// computation. AsOf is the reference date unpaid delays accrue to; it must
// be set explicitly by the caller.
type ComputeInput struct {
	Invoice        *entity.ExtractedInvoice
	Matching       valueobject.MatchingResult
	IsProcedure690 bool
	AsOf           time.Time
}

// ComputeLegalResult runs the full computation pipeline for one invoice:
// legal status, start date, applied delay, due date, days overdue, months
// of delay, penalty, status adjustment, and review flags.
func (e *Engine) ComputeLegalResult(input ComputeInput) (valueobject.LegalResult, error) {
	if input.AsOf.IsZero() {
		return valueobject.LegalResult{}, domainerror.NewRulesError(
			domainerror.ErrCodeInvalidAsOfDate,
			"reference date is required",
			domainerror.ErrInvalidAsOfDate,
		)
	}

	invoice := input.Invoice
	matching := input.Matching

	var allAlerts valueobject.Alerts
	var allNotes []string

	legalStatus, statusAlerts, statusNotes := determineLegalStatus(invoice, input.IsProcedure690)
	allAlerts = append(allAlerts, statusAlerts...)
	allNotes = append(allNotes, statusNotes...)

	startDate, dateAlerts := e.legalStartDate(invoice)
	allAlerts = append(allAlerts, dateAlerts...)

	if startDate == nil {
		return e.incompleteResult(invoice, matching, legalStatus, allAlerts, allNotes), nil
	}

	appliedDelay, delayAlerts, delayNotes := e.appliedDelay(invoice.ContractualDelayDays)
	allAlerts = append(allAlerts, delayAlerts...)
	allNotes = append(allNotes, delayNotes...)

	dueDate, dueNotes := e.dueDate(*startDate, appliedDelay)
	allNotes = append(allNotes, dueNotes...)

	paymentDate := matching.FirstPaymentDate()

	allAlerts = append(allAlerts, checkPaymentValidity(invoice, paymentDate)...)

	daysLate, overdueAlerts := e.daysOverdue(dueDate, paymentDate, input.AsOf)
	allAlerts = append(allAlerts, overdueAlerts...)

	invoiceAmount := invoice.AmountTTC
	paidAmount := matching.TotalPaid
	unpaidAmount := invoiceAmount.Sub(paidAmount)
	if unpaidAmount.IsNegative() {
		unpaidAmount = decimal.Zero
	}

	if unpaidAmount.IsPositive() && unpaidAmount.LessThan(invoiceAmount) {
		allAlerts = append(allAlerts, valueobject.Alert{
			Code:     valueobject.AlertPartialPaymentDetected,
			Severity: valueobject.SeverityInfo,
			Message: fmt.Sprintf("Paiement partiel détecté: %s / %s MAD payés.",
				paidAmount.StringFixed(2), invoiceAmount.StringFixed(2)),
			Field: "matching",
		})
	}

	// Unpaid amounts accrue penalties up to the reference date; fully paid
	// invoices are assessed at their payment date.
	var effectiveDate *time.Time
	if unpaidAmount.IsPositive() {
		asOf := DateOnly(input.AsOf)
		effectiveDate = &asOf
	} else {
		effectiveDate = paymentDate
	}

	months, monthNotes := monthsOfDelay(dueDate, effectiveDate)
	allNotes = append(allNotes, monthNotes...)

	switch {
	case paidAmount.IsPositive() && unpaidAmount.IsPositive():
		allNotes = append(allNotes, fmt.Sprintf(
			"Paiement partiel détecté: pénalités calculées jusqu'au %s pour le montant impayé (%s MAD)",
			DateOnly(input.AsOf).Format("2006-01-02"), unpaidAmount.StringFixed(2)))
	case paidAmount.IsZero() && unpaidAmount.IsPositive():
		allNotes = append(allNotes, fmt.Sprintf(
			"Facture non payée: pénalités calculées jusqu'au %s pour le montant total (%s MAD)",
			DateOnly(input.AsOf).Format("2006-01-02"), unpaidAmount.StringFixed(2)))
	}

	rate, rateNotes := e.penaltyRate(months)
	allNotes = append(allNotes, rateNotes...)

	basePenalty, amountNotes := e.penaltyAmount(unpaidAmount, rate, invoiceAmount, months)
	allNotes = append(allNotes, amountNotes...)

	finalPenalty, suspended, statusPenaltyNotes := applyStatusRules(legalStatus, basePenalty)
	allNotes = append(allNotes, statusPenaltyNotes...)

	if len(matching.Matches) > 0 {
		best := matching.BestConfidence()
		if best < valueobject.LowMatchConfidence {
			allAlerts = append(allAlerts, valueobject.Alert{
				Code:     valueobject.AlertLowConfidenceMatch,
				Severity: valueobject.SeverityWarning,
				Message: fmt.Sprintf(
					"Confiance de matching faible: %.0f%%. Validation manuelle recommandée.", best),
				Field: "matching",
			})
		}
	}

	requiresReview := allAlerts.RequiresManualReview()

	breakdown := e.buildBreakdown(
		dueDate, paymentDate, daysLate, months,
		rate, unpaidAmount, basePenalty,
		legalStatus, suspended, finalPenalty,
	)

	return valueobject.LegalResult{
		InvoiceID:             invoice.ID.String(),
		LegalStartDate:        startDate,
		LegalDueDate:          &dueDate,
		ContractualDelayDays:  invoice.ContractualDelayDays,
		AppliedLegalDelayDays: appliedDelay,
		ActualPaymentDate:     paymentDate,
		DaysOverdue:           daysLate,
		MonthsOfDelay:         months,
		PenaltyRate:           rate,
		PenaltyAmount:         finalPenalty,
		PenaltySuspended:      suspended,
		LegalStatus:           legalStatus,
		InvoiceAmountTTC:      invoiceAmount,
		PaidAmount:            paidAmount,
		UnpaidAmount:          unpaidAmount,
		Alerts:                allAlerts,
		ComputationNotes:      allNotes,
		Breakdown:             &breakdown,
		RequiresManualReview:  requiresReview,
		IsCalculable:          true,
	}, nil
}

// BatchComputeInput carries the invoices of one batch with their matching
// results, aligned by index.
type BatchComputeInput struct {
	Invoices []*entity.ExtractedInvoice
	Matching []valueobject.MatchingResult

	// Procedure690Suppliers holds the ICEs of suppliers under an Article
	// 690 collective procedure.
	Procedure690Suppliers map[string]struct{}

	AsOf time.Time
}

// ComputeBatch computes the legal result for every invoice of a batch.
// Invoices and matching results must be aligned pairwise.
func (e *Engine) ComputeBatch(input BatchComputeInput) ([]valueobject.LegalResult, error) {
	if len(input.Invoices) != len(input.Matching) {
		return nil, domainerror.NewRulesError(
			domainerror.ErrCodeRulesInputMismatch,
			fmt.Sprintf("got %d invoices and %d matching results", len(input.Invoices), len(input.Matching)),
			domainerror.ErrRulesInputMismatch,
		)
	}

	results := make([]valueobject.LegalResult, 0, len(input.Invoices))
	for i, invoice := range input.Invoices {
		_, procedure690 := input.Procedure690Suppliers[invoice.SupplierICE]

		result, err := e.ComputeLegalResult(ComputeInput{
			Invoice:        invoice,
			Matching:       input.Matching[i],
			IsProcedure690: procedure690,
			AsOf:           input.AsOf,
		})
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// buildBreakdown assembles the month-by-month rate ladder and the four
// labeled calculation steps shown alongside each result.
func (e *Engine) buildBreakdown(
	dueDate time.Time,
	paymentDate *time.Time,
	daysLate, months int,
	rate, unpaidAmount, basePenalty decimal.Decimal,
	legalStatus valueobject.LegalStatus,
	suspended bool,
	finalPenalty decimal.Decimal,
) valueobject.CalculationBreakdown {
	ladderSize := months
	if ladderSize < 1 {
		ladderSize = 1
	}

	ladder := make([]valueobject.MonthRate, 0, ladderSize)
	for i := 0; i < ladderSize; i++ {
		ladder = append(ladder, valueobject.MonthRate{
			Month: i + 1,
			Rate: e.config.PenaltyBaseRatePercent.Add(
				e.config.PenaltyMonthlyIncrementPercent.Mul(decimal.NewFromInt(int64(i)))),
			Applied: i < months,
		})
	}

	statusFormula := fmt.Sprintf("Statut %s: %s MAD", legalStatus, finalPenalty.StringFixed(2))
	if suspended {
		statusFormula = fmt.Sprintf("Statut %s: Pénalité suspendue", legalStatus)
	}

	due := dueDate
	return valueobject.CalculationBreakdown{
		BaseRatePercent:         e.config.PenaltyBaseRatePercent,
		MonthlyIncrementPercent: e.config.PenaltyMonthlyIncrementPercent,
		MonthsBreakdown:         ladder,
		Steps: valueobject.CalculationSteps{
			Delay: valueobject.DelayStep{
				Label:         "Calcul du retard",
				DueDate:       &due,
				PaymentDate:   paymentDate,
				DaysOverdue:   daysLate,
				MonthsOfDelay: months,
				Formula: fmt.Sprintf(
					"%d jours → %d mois (tout mois entamé compte)", daysLate, months),
			},
			Rate: valueobject.RateStep{
				Label:       "Calcul du taux",
				BaseRate:    e.config.PenaltyBaseRatePercent,
				Months:      months,
				Increment:   e.config.PenaltyMonthlyIncrementPercent,
				PenaltyRate: rate,
				Formula: fmt.Sprintf("%s%% + (%d × %s%%) = %s%%",
					e.config.PenaltyBaseRatePercent, months-1,
					e.config.PenaltyMonthlyIncrementPercent, rate),
			},
			Amount: valueobject.AmountStep{
				Label:        "Calcul du montant",
				UnpaidAmount: unpaidAmount,
				PenaltyRate:  rate,
				BasePenalty:  basePenalty,
				Formula: fmt.Sprintf("%s MAD × %s%% = %s MAD",
					unpaidAmount.StringFixed(2), rate, basePenalty.StringFixed(2)),
			},
			Status: valueobject.StatusStep{
				Label:            "Application du statut",
				LegalStatus:      legalStatus,
				PenaltySuspended: suspended,
				FinalPenalty:     finalPenalty,
				Formula:          statusFormula,
			},
		},
	}
}

// incompleteResult is returned when no usable date exists on the invoice.
// Delays and penalties are zeroed, the default legal delay is reported,
// and the result is flagged for mandatory review.
func (e *Engine) incompleteResult(
	invoice *entity.ExtractedInvoice,
	matching valueobject.MatchingResult,
	legalStatus valueobject.LegalStatus,
	alerts valueobject.Alerts,
	notes []string,
) valueobject.LegalResult {
	invoiceAmount := invoice.AmountTTC
	paidAmount := matching.TotalPaid
	unpaidAmount := invoiceAmount.Sub(paidAmount)
	if unpaidAmount.IsNegative() {
		unpaidAmount = decimal.Zero
	}

	notes = append(notes,
		"⚠ CALCUL INCOMPLET: Dates manquantes (livraison et facture). "+
			"Calcul de délai et pénalités impossible. "+
			"Correction des données requise avant soumission DGI.")

	return valueobject.LegalResult{
		InvoiceID:             invoice.ID.String(),
		ContractualDelayDays:  invoice.ContractualDelayDays,
		AppliedLegalDelayDays: e.config.DefaultDelayDays,
		DaysOverdue:           0,
		MonthsOfDelay:         0,
		PenaltyRate:           decimal.Zero,
		PenaltyAmount:         decimal.Zero,
		PenaltySuspended:      false,
		LegalStatus:           legalStatus,
		InvoiceAmountTTC:      invoiceAmount,
		PaidAmount:            paidAmount,
		UnpaidAmount:          unpaidAmount,
		Alerts:                alerts,
		ComputationNotes:      notes,
		RequiresManualReview:  true,
		IsCalculable:          false,
	}
}
