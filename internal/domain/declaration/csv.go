package declaration

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
)

// utf8BOM makes Excel open the export as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvColumns is the official column order of the detail table.
var csvColumns = []string{
	"Fournisseur",
	"ICE Fournisseur",
	"N° Facture",
	"Date Facture",
	"Date Référence Légale",
	"Date Échéance Légale",
	"Montant TTC (MAD)",
	"Date Paiement",
	"Montant Payé (MAD)",
	"Délai Contractuel (jours)",
	"Délai Légal Appliqué (jours)",
	"Retard Réel (jours)",
	"Mois de Retard",
	"Taux Pénalité (%)",
	"Montant Pénalité (MAD)",
	"Pénalité Suspendue",
	"Statut Paiement",
	"Statut Juridique",
	"Validation Requise",
	"Nombre Alertes",
	"Remarques",
}

// Exporter renders assembled declarations into their submission formats.
type Exporter struct{}

// NewExporter creates an Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// ExportCSV renders the declaration as UTF-8 CSV with a byte order mark, in
// the layout expected for DGI submission: company header, summary block and
// the per-invoice detail table.
func (e *Exporter) ExportCSV(declaration *entity.Declaration, exportedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	buf.WriteString("DÉCLARATION DES DÉLAIS DE PAIEMENT\n")
	fmt.Fprintf(&buf, "Entreprise: %s\n", declaration.CompanyName)
	fmt.Fprintf(&buf, "ICE: %s\n", declaration.CompanyICE)
	fmt.Fprintf(&buf, "RC: %s\n", declaration.CompanyRC)
	fmt.Fprintf(&buf, "Année: %d\n", declaration.DeclarationYear)
	if declaration.DeclarationMonth != nil {
		fmt.Fprintf(&buf, "Mois: %d\n", *declaration.DeclarationMonth)
	}
	if declaration.ActivitySector != "" {
		fmt.Fprintf(&buf, "Secteur: %s\n", declaration.ActivitySector)
	}
	fmt.Fprintf(&buf, "Date d'export: %s\n", exportedAt.Format("2006-01-02 15:04:05"))
	buf.WriteString("\n")

	buf.WriteString("RÉSUMÉ\n")
	fmt.Fprintf(&buf, "Nombre total de factures,%d\n", declaration.TotalInvoices)
	fmt.Fprintf(&buf, "Montant total facturé (MAD),%s\n", declaration.TotalAmountInvoiced.StringFixed(2))
	fmt.Fprintf(&buf, "Montant total payé (MAD),%s\n", declaration.TotalAmountPaid.StringFixed(2))
	fmt.Fprintf(&buf, "Montant total impayé (MAD),%s\n", declaration.TotalAmountUnpaid.StringFixed(2))
	fmt.Fprintf(&buf, "Total pénalités (MAD),%s\n", declaration.TotalPenaltyAmount.StringFixed(2))
	fmt.Fprintf(&buf, "Total pénalités suspendues (MAD),%s\n", declaration.TotalPenaltySuspended.StringFixed(2))
	fmt.Fprintf(&buf, "Factures payées à temps,%d\n", declaration.InvoicesOnTime)
	fmt.Fprintf(&buf, "Factures payées en retard,%d\n", declaration.InvoicesDelayed)
	fmt.Fprintf(&buf, "Factures impayées,%d\n", declaration.InvoicesUnpaid)
	fmt.Fprintf(&buf, "Factures nécessitant validation,%d\n", declaration.InvoicesRequiringReview)
	fmt.Fprintf(&buf, "Nombre total d'alertes,%d\n", declaration.TotalAlerts)
	buf.WriteString("\n")

	buf.WriteString("DÉTAIL DES FACTURES\n")

	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true

	if err := writer.Write(csvColumns); err != nil {
		return nil, domainerror.NewDeclarationError(domainerror.ErrCodeExportFailed, "writing detail header", err)
	}
	for _, line := range declaration.Lines {
		if err := writer.Write(csvRow(line)); err != nil {
			return nil, domainerror.NewDeclarationError(domainerror.ErrCodeExportFailed, "writing detail row", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, domainerror.NewDeclarationError(domainerror.ErrCodeExportFailed, "flushing export", err)
	}

	return buf.Bytes(), nil
}

// csvRow renders one declaration line. Zero amounts and missing dates render
// as empty cells; booleans render OUI/NON.
func csvRow(line entity.DeclarationLine) []string {
	return []string{
		line.SupplierName,
		line.SupplierICE,
		line.InvoiceNumber,
		formatDate(line.InvoiceDate),
		formatDate(line.LegalStartDate),
		formatDate(line.LegalDueDate),
		formatAmount(line.InvoiceAmountTTC),
		formatDate(line.PaymentDate),
		formatAmount(line.PaymentAmount),
		formatOptionalDays(line.ContractualPaymentDelay),
		strconv.Itoa(line.AppliedLegalDelay),
		strconv.Itoa(line.ActualPaymentDelay),
		strconv.Itoa(line.MonthsOfDelay),
		line.PenaltyRate.StringFixed(2),
		line.PenaltyAmount.StringFixed(2),
		formatBool(line.PenaltySuspended),
		string(line.PaymentStatus),
		string(line.LegalStatus),
		formatBool(line.RequiresManualReview),
		strconv.Itoa(line.AlertCount),
		line.Remarks,
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatAmount(amount decimal.Decimal) string {
	if amount.IsZero() {
		return ""
	}
	return amount.StringFixed(2)
}

func formatOptionalDays(days *int) string {
	if days == nil || *days == 0 {
		return ""
	}
	return strconv.Itoa(*days)
}

func formatBool(b bool) string {
	if b {
		return "OUI"
	}
	return "NON"
}
