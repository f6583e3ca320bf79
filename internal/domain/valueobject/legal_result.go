package valueobject

import (
	"time"

	"github.com/shopspring/decimal"
)

// LegalResult is the complete legal computation for one invoice: due dates,
// delays, penalties, status, and everything needed for the declaration line.
type LegalResult struct {
	InvoiceID string

	LegalStartDate        *time.Time
	LegalDueDate          *time.Time
	ContractualDelayDays  *int
	AppliedLegalDelayDays int

	ActualPaymentDate *time.Time
	DaysOverdue       int
	MonthsOfDelay     int

	PenaltyRate      decimal.Decimal
	PenaltyAmount    decimal.Decimal
	PenaltySuspended bool

	LegalStatus LegalStatus

	InvoiceAmountTTC decimal.Decimal
	PaidAmount       decimal.Decimal
	UnpaidAmount     decimal.Decimal

	Alerts           Alerts
	ComputationNotes []string
	Breakdown        *CalculationBreakdown

	RequiresManualReview bool

	// IsCalculable is false when no usable start date existed and the
	// delay computation could not run.
	IsCalculable bool
}

// CalculationBreakdown explains the penalty arithmetic month by month and
// step by step so the result can be audited without rerunning the engine.
type CalculationBreakdown struct {
	BaseRatePercent         decimal.Decimal
	MonthlyIncrementPercent decimal.Decimal
	MonthsBreakdown         []MonthRate
	Steps                   CalculationSteps
}

// MonthRate is one rung of the penalty rate ladder.
type MonthRate struct {
	Month   int
	Rate    decimal.Decimal
	Applied bool
}

// CalculationSteps are the four labeled stages of the penalty computation.
type CalculationSteps struct {
	Delay  DelayStep
	Rate   RateStep
	Amount AmountStep
	Status StatusStep
}

// DelayStep records how calendar delay became months of delay.
type DelayStep struct {
	Label         string
	DueDate       *time.Time
	PaymentDate   *time.Time
	DaysOverdue   int
	MonthsOfDelay int
	Formula       string
}

// RateStep records how the penalty rate was derived.
type RateStep struct {
	Label       string
	BaseRate    decimal.Decimal
	Months      int
	Increment   decimal.Decimal
	PenaltyRate decimal.Decimal
	Formula     string
}

// AmountStep records the base amount the rate was applied to.
type AmountStep struct {
	Label        string
	UnpaidAmount decimal.Decimal
	PenaltyRate  decimal.Decimal
	BasePenalty  decimal.Decimal
	Formula      string
}

// StatusStep records the legal status adjustment applied last.
type StatusStep struct {
	Label            string
	LegalStatus      LegalStatus
	PenaltySuspended bool
	FinalPenalty     decimal.Decimal
	Formula          string
}
