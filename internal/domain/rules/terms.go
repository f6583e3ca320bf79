package rules

import (
	"fmt"
	"time"

	"github.com/dgi-compliance/backend/internal/domain/entity"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// legalStartDate determines the reference date for the payment delay.
//
// Article 78-2 hierarchy: delivery date when present, otherwise issue date
// with a warning. Without either date the delay cannot be computed.
func (e *Engine) legalStartDate(invoice *entity.ExtractedInvoice) (*time.Time, valueobject.Alerts) {
	var alerts valueobject.Alerts

	if invoice.DeliveryDate != nil {
		start := DateOnly(*invoice.DeliveryDate)
		return &start, alerts
	}

	if invoice.IssueDate != nil {
		alerts = append(alerts, valueobject.Alert{
			Code:     valueobject.AlertMissingDeliveryDate,
			Severity: valueobject.SeverityWarning,
			Message: "Date de livraison manquante. " +
				"Utilisation de la date de facture par défaut. " +
				"Vérification manuelle recommandée.",
			Field: "invoice.delivery_date",
		})
		start := DateOnly(*invoice.IssueDate)
		return &start, alerts
	}

	alerts = append(alerts, valueobject.Alert{
		Code:     valueobject.AlertMissingIssueDate,
		Severity: valueobject.SeverityCritical,
		Message: "Aucune date disponible (livraison ni facture). " +
			"Calcul de délai impossible. Correction requise.",
		Field: "invoice.issue_date",
	})
	return nil, alerts
}

// appliedDelay determines the legal delay to apply.
//
// No contractual delay (nil or zero) falls back to the 60-day legal
// default; a contractual delay above the 120-day ceiling is capped with a
// warning.
func (e *Engine) appliedDelay(contractualDays *int) (int, valueobject.Alerts, []string) {
	var alerts valueobject.Alerts
	var notes []string

	if contractualDays == nil || *contractualDays == 0 {
		notes = append(notes, fmt.Sprintf(
			"Aucun délai contractuel stipulé. Application du délai légal par défaut: %d jours.",
			e.config.DefaultDelayDays))
		return e.config.DefaultDelayDays, alerts, notes
	}

	if *contractualDays <= e.config.MaxDelayDays {
		notes = append(notes, fmt.Sprintf(
			"Délai contractuel appliqué: %d jours (≤ maximum légal de %d jours).",
			*contractualDays, e.config.MaxDelayDays))
		return *contractualDays, alerts, notes
	}

	alerts = append(alerts, valueobject.Alert{
		Code:     valueobject.AlertContractualDelayExceedsMax,
		Severity: valueobject.SeverityWarning,
		Message: fmt.Sprintf(
			"Délai contractuel (%d jours) dépasse le maximum légal (%d jours). Application du plafond légal.",
			*contractualDays, e.config.MaxDelayDays),
		Field: "contractual_delay_days",
	})
	notes = append(notes, fmt.Sprintf(
		"Délai contractuel demandé: %d jours. Plafonné au maximum légal: %d jours.",
		*contractualDays, e.config.MaxDelayDays))

	return e.config.MaxDelayDays, alerts, notes
}

// dueDate computes the legal due date: start date plus the applied delay,
// shifted to the next business day when it lands on a weekend or holiday.
func (e *Engine) dueDate(start time.Time, delayDays int) (time.Time, []string) {
	var notes []string

	raw := DateOnly(start).AddDate(0, 0, delayDays)
	adjusted := e.calendar.NextBusinessDay(raw)

	if !adjusted.Equal(raw) {
		notes = append(notes, fmt.Sprintf(
			"Date d'échéance ajustée: %s (weekend/férié) → %s (jour ouvrable suivant).",
			raw.Format("2006-01-02"), adjusted.Format("2006-01-02")))
	} else {
		notes = append(notes, fmt.Sprintf(
			"Date d'échéance calculée: %s (%s + %d jours).",
			adjusted.Format("2006-01-02"), DateOnly(start).Format("2006-01-02"), delayDays))
	}

	return adjusted, notes
}

// daysOverdue computes the calendar days past the due date. Unpaid
// invoices accrue delay up to the asOf reference date.
func (e *Engine) daysOverdue(due time.Time, paymentDate *time.Time, asOf time.Time) (int, valueobject.Alerts) {
	var alerts valueobject.Alerts
	due = DateOnly(due)

	if paymentDate == nil {
		ref := DateOnly(asOf)
		if !ref.After(due) {
			return 0, alerts
		}
		days := daysBetween(due, ref)
		if days > valueobject.ExcessiveDelayDays {
			alerts = append(alerts, valueobject.Alert{
				Code:     valueobject.AlertExcessiveDelay,
				Severity: valueobject.SeverityError,
				Message: fmt.Sprintf(
					"Retard excessif: %d jours. Vérification urgente recommandée.", days),
				Field: "payment_date",
			})
		}
		return days, alerts
	}

	paid := DateOnly(*paymentDate)
	if !paid.After(due) {
		return 0, alerts
	}

	days := daysBetween(due, paid)
	if days > valueobject.ExcessiveDelayDays {
		alerts = append(alerts, valueobject.Alert{
			Code:     valueobject.AlertExcessiveDelay,
			Severity: valueobject.SeverityWarning,
			Message:  fmt.Sprintf("Retard de paiement important: %d jours.", days),
			Field:    "payment_date",
		})
	}

	return days, alerts
}

// daysBetween counts whole days from a to b at day precision.
func daysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
