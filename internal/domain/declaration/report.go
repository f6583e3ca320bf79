package declaration

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

var (
	reportBar  = strings.Repeat("=", 80)
	sectionBar = strings.Repeat("-", 80)

	// highPenaltyFloor is the amount above which a penalty is listed in the
	// report's high-penalty section.
	highPenaltyFloor = decimal.NewFromInt(1000)
)

// ExportAlertsReport renders a human-readable review report: the invoices
// flagged for manual validation and the penalties above 1000 MAD.
func (e *Exporter) ExportAlertsReport(declaration *entity.Declaration, generatedAt time.Time) string {
	var lines []string
	lines = append(lines,
		reportBar,
		"RAPPORT D'ALERTES - DÉCLARATION DES DÉLAIS DE PAIEMENT",
		reportBar,
		"",
		fmt.Sprintf("Entreprise: %s", declaration.CompanyName),
		fmt.Sprintf("ICE: %s", declaration.CompanyICE),
		fmt.Sprintf("Période: %d", declaration.DeclarationYear),
	)
	if declaration.DeclarationMonth != nil {
		lines = append(lines, fmt.Sprintf("Mois: %d", *declaration.DeclarationMonth))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Date: %s", generatedAt.Format("2006-01-02 15:04:05")),
		"",
		sectionBar,
		"RÉSUMÉ",
		sectionBar,
		fmt.Sprintf("Total factures: %d", declaration.TotalInvoices),
		fmt.Sprintf("Factures nécessitant validation: %d", declaration.InvoicesRequiringReview),
		fmt.Sprintf("Total alertes: %d", declaration.TotalAlerts),
		"",
	)

	var review []entity.DeclarationLine
	for _, line := range declaration.Lines {
		if line.RequiresManualReview {
			review = append(review, line)
		}
	}
	if len(review) > 0 {
		lines = append(lines,
			sectionBar,
			fmt.Sprintf("FACTURES NÉCESSITANT VALIDATION (%d)", len(review)),
			sectionBar,
			"",
		)
		for _, line := range review {
			lines = append(lines,
				fmt.Sprintf("Facture: %s", orNA(line.InvoiceNumber)),
				fmt.Sprintf("  Fournisseur: %s", orNA(line.SupplierName)),
				fmt.Sprintf("  Montant: %s MAD", line.InvoiceAmountTTC.StringFixed(2)),
				fmt.Sprintf("  Statut: %s", line.PaymentStatus),
				fmt.Sprintf("  Alertes: %d", line.AlertCount),
			)
			if line.Remarks != "" {
				lines = append(lines, fmt.Sprintf("  Remarques: %s", line.Remarks))
			}
			lines = append(lines, "")
		}
	}

	var highPenalty []entity.DeclarationLine
	for _, line := range declaration.Lines {
		if line.PenaltyAmount.GreaterThan(highPenaltyFloor) {
			highPenalty = append(highPenalty, line)
		}
	}
	if len(highPenalty) > 0 {
		lines = append(lines,
			sectionBar,
			fmt.Sprintf("PÉNALITÉS ÉLEVÉES (> 1000 MAD) - %d cas", len(highPenalty)),
			sectionBar,
			"",
		)
		for _, line := range highPenalty {
			lines = append(lines,
				fmt.Sprintf("Facture: %s", orNA(line.InvoiceNumber)),
				fmt.Sprintf("  Fournisseur: %s", orNA(line.SupplierName)),
				fmt.Sprintf("  Montant facture: %s MAD", line.InvoiceAmountTTC.StringFixed(2)),
				fmt.Sprintf("  Retard: %d jours (%d mois)", line.ActualPaymentDelay, line.MonthsOfDelay),
				fmt.Sprintf("  Pénalité: %s MAD (%s%%)", line.PenaltyAmount.StringFixed(2), line.PenaltyRate.StringFixed(2)),
			)
			if line.PenaltySuspended {
				lines = append(lines, "  ⚠ Pénalité SUSPENDUE")
			}
			lines = append(lines, "")
		}
	}

	lines = append(lines, reportBar, "FIN DU RAPPORT", reportBar)
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
