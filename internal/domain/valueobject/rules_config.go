package valueobject

import (
	"time"

	"github.com/shopspring/decimal"
)

// Legal constants from Article 78-2 (Loi 15-95 as modified by Loi 69-21).
const (
	DefaultLegalDelayDays    = 60
	MaxContractualDelayDays  = 120
	ExcessiveDelayDays       = 180
	LowMatchConfidence       = 80
	ValidationConfidenceGate = 70
)

// RulesConfig carries the tunable parameters of the legal rules engine.
// Values are passed explicitly to the engine constructors; nothing reads
// the environment at computation time.
type RulesConfig struct {
	DefaultDelayDays int
	MaxDelayDays     int

	// Penalty rate for the first month of delay, in percent
	PenaltyBaseRatePercent decimal.Decimal
	// Additional rate per started month beyond the first, in percent
	PenaltyMonthlyIncrementPercent decimal.Decimal

	// Movable (religious) holidays for the declaration period. Fixed
	// Moroccan holidays are built into the calendar.
	MovableHolidays []time.Time
}

// DefaultRulesConfig returns the engine defaults.
func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		DefaultDelayDays:               DefaultLegalDelayDays,
		MaxDelayDays:                   MaxContractualDelayDays,
		PenaltyBaseRatePercent:         decimal.NewFromFloat(2.25),
		PenaltyMonthlyIncrementPercent: decimal.NewFromFloat(0.85),
	}
}
