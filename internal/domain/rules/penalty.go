package rules

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// monthsOfDelay counts months of delay by the fiscal calendar method:
// "tout mois entamé est décompté entièrement".
//
// Calendar month boundaries are counted, not 30-day periods. One month
// transition is added when the payment day of month exceeds the due day,
// and any delay at all counts as at least one month.
//
// Official DGI reference cases, due date Sept 18:
//
//	paid Sept 19 → 1 month    paid Oct 19 → 2 months
//	paid Sept 25 → 1 month    paid Nov 15 → 2 months
//	paid Oct 18  → 1 month    paid Nov 20 → 3 months
func monthsOfDelay(due time.Time, paymentDate *time.Time) (int, []string) {
	if paymentDate == nil {
		return 0, []string{"No delay - paid on time or before due date"}
	}

	due = DateOnly(due)
	paid := DateOnly(*paymentDate)
	if !paid.After(due) {
		return 0, []string{"No delay - paid on time or before due date"}
	}

	yearDiff := paid.Year() - due.Year()
	monthDiff := int(paid.Month()) - int(due.Month())
	monthTransitions := yearDiff*12 + monthDiff

	dayPenalty := 0
	if paid.Day() > due.Day() {
		dayPenalty = 1
	}

	totalMonths := monthTransitions + dayPenalty
	months := totalMonths
	if months < 1 {
		months = 1
	}

	calendarDays := daysBetween(due, paid)

	comparison := "<="
	dayNote := "no additional month"
	if dayPenalty == 1 {
		comparison = ">"
		dayNote = "+1 month"
	}

	notes := []string{
		fmt.Sprintf("DGI calendar calculation: %d calendar days late", calendarDays),
		fmt.Sprintf("Month transitions: %d (from %s to %s)",
			monthTransitions, due.Format("2006-01"), paid.Format("2006-01")),
		fmt.Sprintf("Day comparison: payment day %d %s due day %d", paid.Day(), comparison, due.Day()),
		fmt.Sprintf("Day penalty: %s", dayNote),
		fmt.Sprintf("Calculation: %d transitions + %d day penalty = %d", monthTransitions, dayPenalty, totalMonths),
		fmt.Sprintf("Final (min 1): %d month(s) of delay", months),
	}

	return months, notes
}

// penaltyRate computes the penalty rate for the given months of delay.
//
// Article 78-3: base rate for the first month, plus one increment per
// additional month.
func (e *Engine) penaltyRate(months int) (decimal.Decimal, []string) {
	if months <= 0 {
		return decimal.Zero, []string{"Aucun retard. Taux de pénalité = 0%."}
	}

	rate := e.config.PenaltyBaseRatePercent.Add(
		e.config.PenaltyMonthlyIncrementPercent.Mul(decimal.NewFromInt(int64(months - 1))))

	notes := []string{fmt.Sprintf(
		"Taux de pénalité: %s%% (1er mois) + %d × %s%% = %s%%",
		e.config.PenaltyBaseRatePercent, months-1,
		e.config.PenaltyMonthlyIncrementPercent, rate)}

	return rate, notes
}

// penaltyAmount computes the penalty in MAD.
//
// The penalty applies to the amount that was unpaid during the delay
// period: a late but fully settled invoice is penalized on its full
// amount; a partial payment is penalized on the remaining unpaid portion.
func (e *Engine) penaltyAmount(unpaid, rate, invoiceAmount decimal.Decimal, months int) (decimal.Decimal, []string) {
	var notes []string

	if !rate.IsPositive() {
		notes = append(notes, "Taux de pénalité = 0%. Pas de pénalité.")
		return decimal.Zero, notes
	}

	isLateFullPayment := months > 0 && unpaid.IsZero() && invoiceAmount.IsPositive()
	isLatePartialPayment := months > 0 && unpaid.IsPositive() && unpaid.LessThan(invoiceAmount)

	var base decimal.Decimal
	switch {
	case isLateFullPayment:
		base = invoiceAmount
		notes = append(notes, fmt.Sprintf(
			"Paiement tardif mais complet: pénalités calculées sur montant facture (%s MAD) pour %d mois de retard",
			invoiceAmount.StringFixed(2), months))
	case isLatePartialPayment:
		base = unpaid
		paid := invoiceAmount.Sub(unpaid)
		notes = append(notes, fmt.Sprintf(
			"Paiement partiel tardif: pénalités calculées sur montant impayé (%s MAD) pour %d mois de retard. Montant payé: %s MAD",
			unpaid.StringFixed(2), months, paid.StringFixed(2)))
	default:
		base = unpaid
	}

	if !base.IsPositive() {
		notes = append(notes, "Montant de base = 0. Pas de pénalité.")
		return decimal.Zero, notes
	}

	penalty := base.Mul(rate).Div(hundred).Round(2)

	switch {
	case isLateFullPayment:
		notes = append(notes, fmt.Sprintf(
			"Montant de la pénalité: %s MAD (facture) × %s%% = %s MAD (paiement tardif complet)",
			base.StringFixed(2), rate, penalty.StringFixed(2)))
	case isLatePartialPayment:
		notes = append(notes, fmt.Sprintf(
			"Montant de la pénalité: %s MAD (impayé) × %s%% = %s MAD (paiement partiel tardif)",
			base.StringFixed(2), rate, penalty.StringFixed(2)))
	default:
		notes = append(notes, fmt.Sprintf(
			"Montant de la pénalité: %s MAD × %s%% = %s MAD",
			base.StringFixed(2), rate, penalty.StringFixed(2)))
	}

	return penalty, notes
}
