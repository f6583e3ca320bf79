package rules

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/entity"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// determineLegalStatus resolves the legal situation of an invoice.
//
// Credit notes take precedence, then the Article 690 collective procedure,
// then judicial disputes. Credit notes are informational; the two other
// special statuses suspend the penalty.
func determineLegalStatus(invoice *entity.ExtractedInvoice, isProcedure690 bool) (valueobject.LegalStatus, valueobject.Alerts, []string) {
	var alerts valueobject.Alerts
	var notes []string

	if invoice.AmountTTC.IsNegative() || invoice.IsCreditNote {
		alerts = append(alerts, valueobject.Alert{
			Code:     valueobject.AlertCreditNote,
			Severity: valueobject.SeverityInfo,
			Message:  "Avoir (credit note). Pas de pénalité applicable.",
			Field:    "amounts.total_ttc",
		})
		notes = append(notes,
			"Statut: AVOIR - Montant négatif. Aucune pénalité de retard applicable.")
		return valueobject.LegalStatusCreditNote, alerts, notes
	}

	if isProcedure690 {
		alerts = append(alerts, valueobject.Alert{
			Code:     valueobject.AlertProcedure690,
			Severity: valueobject.SeverityWarning,
			Message: "Fournisseur sous procédure Article 690 " +
				"(sauvegarde/redressement/liquidation). " +
				"Paiement interdit. Pénalité bloquée.",
			Field: "legal_status",
		})
		notes = append(notes,
			"Statut: PROCÉDURE 690 - Paiement interdit selon procédure collective. "+
				"Calcul de pénalité suspendu.")
		return valueobject.LegalStatusProcedure690, alerts, notes
	}

	if invoice.IsDisputed {
		alerts = append(alerts, valueobject.Alert{
			Code:     valueobject.AlertDisputedInvoice,
			Severity: valueobject.SeverityWarning,
			Message: "Facture contestée (litige judiciaire). " +
				"Calcul de pénalité suspendu jusqu'à décision de justice.",
			Field: "legal_status",
		})
		notes = append(notes,
			"Statut: LITIGE - Facture sous contentieux juridique. "+
				"Pénalité suspendue jusqu'à jugement définitif.")
		return valueobject.LegalStatusDisputed, alerts, notes
	}

	notes = append(notes, "Statut: NORMAL - Facture standard sans statut juridique particulier.")
	return valueobject.LegalStatusNormal, alerts, notes
}

// applyStatusRules derives the final penalty from the base penalty and the
// legal status.
func applyStatusRules(status valueobject.LegalStatus, basePenalty decimal.Decimal) (decimal.Decimal, bool, []string) {
	var notes []string

	switch status {
	case valueobject.LegalStatusCreditNote:
		notes = append(notes,
			"Application statut AVOIR: Pénalité annulée (0.00 MAD). "+
				"Les avoirs ne sont pas soumis aux pénalités de retard.")
		return decimal.Zero, false, notes

	case valueobject.LegalStatusProcedure690:
		notes = append(notes, fmt.Sprintf(
			"Application statut PROCÉDURE 690: Pénalité suspendue (%s MAD calculée mais non appliquée). "+
				"Pénalité bloquée pendant toute la durée de la procédure collective.",
			basePenalty.StringFixed(2)))
		return decimal.Zero, true, notes

	case valueobject.LegalStatusDisputed:
		notes = append(notes, fmt.Sprintf(
			"Application statut LITIGE: Pénalité suspendue (%s MAD calculée mais non appliquée). "+
				"Application rétroactive après décision de justice définitive.",
			basePenalty.StringFixed(2)))
		return decimal.Zero, true, notes
	}

	notes = append(notes, fmt.Sprintf(
		"Application statut NORMAL: Pénalité applicable = %s MAD.",
		basePenalty.StringFixed(2)))
	return basePenalty, false, notes
}

// checkPaymentValidity flags payments dated before the invoice was issued.
func checkPaymentValidity(invoice *entity.ExtractedInvoice, paymentDate *time.Time) valueobject.Alerts {
	var alerts valueobject.Alerts

	if paymentDate == nil || invoice.IssueDate == nil {
		return alerts
	}

	paid := DateOnly(*paymentDate)
	issued := DateOnly(*invoice.IssueDate)

	if paid.Before(issued) {
		alerts = append(alerts, valueobject.Alert{
			Code:     valueobject.AlertPaymentBeforeInvoice,
			Severity: valueobject.SeverityError,
			Message: fmt.Sprintf(
				"Incohérence temporelle: Paiement (%s) avant émission de facture (%s). Vérification manuelle requise.",
				paid.Format("2006-01-02"), issued.Format("2006-01-02")),
			Field: "payment_date",
		})
	}

	return alerts
}
