package declaration

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dgi-compliance/backend/internal/domain/entity"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

func testDeclaration() *entity.Declaration {
	month := 9
	return &entity.Declaration{
		CompanyICE:       "000012345000078",
		CompanyName:      "MAROC IMPORT SA",
		CompanyRC:        "RC12345",
		DeclarationYear:  2023,
		DeclarationMonth: &month,
		ActivitySector:   "Distribution",
		Lines: []entity.DeclarationLine{
			{
				SupplierName:      "ACME",
				SupplierICE:       "001234567000089",
				InvoiceNumber:     "FAC-1",
				InvoiceDate:       dptr(d(2023, time.July, 20)),
				LegalStartDate:    dptr(d(2023, time.July, 20)),
				LegalDueDate:      dptr(d(2023, time.September, 18)),
				InvoiceAmountTTC:  dec("10169.50"),
				PaymentDate:       dptr(d(2023, time.September, 10)),
				PaymentAmount:     dec("10169.50"),
				AppliedLegalDelay: 60,
				PenaltyRate:       dec("0"),
				PenaltyAmount:     dec("0"),
				PaymentStatus:     valueobject.PaymentStatusPaid,
				LegalStatus:       valueobject.LegalStatusNormal,
				Remarks:           "Confiance matching: 110%",
			},
			{
				SupplierName:         "ATLAS",
				SupplierICE:          "009876543000011",
				InvoiceNumber:        "FAC-2",
				InvoiceDate:          dptr(d(2023, time.July, 20)),
				LegalStartDate:       dptr(d(2023, time.July, 20)),
				LegalDueDate:         dptr(d(2023, time.September, 18)),
				InvoiceAmountTTC:     dec("10169.50"),
				AppliedLegalDelay:    60,
				ActualPaymentDelay:   58,
				MonthsOfDelay:        2,
				PenaltyRate:          dec("3.85"),
				PenaltyAmount:        dec("1391.53"),
				PenaltySuspended:     true,
				PaymentStatus:        valueobject.PaymentStatusUnpaid,
				LegalStatus:          valueobject.LegalStatusDisputed,
				Remarks:              "Statut: DISPUTED",
				RequiresManualReview: true,
				AlertCount:           2,
			},
		},
		TotalInvoices:           2,
		TotalAmountInvoiced:     dec("20339.00"),
		TotalAmountPaid:         dec("10169.50"),
		TotalAmountUnpaid:       dec("10169.50"),
		TotalPenaltyAmount:      dec("0.00"),
		TotalPenaltySuspended:   dec("1391.53"),
		InvoicesRequiringReview: 1,
		TotalAlerts:             2,
		InvoicesOnTime:          1,
		InvoicesUnpaid:          1,
	}
}

func TestExportCSV(t *testing.T) {
	exporter := NewExporter()
	exportedAt := time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

	content, err := exporter.ExportCSV(testDeclaration(), exportedAt)
	if err != nil {
		t.Fatalf("ExportCSV returned error: %v", err)
	}

	// Excel needs the UTF-8 byte order mark
	if !bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("expected output to start with a UTF-8 BOM")
	}

	text := string(content[3:])

	if !strings.HasPrefix(text, "DÉCLARATION DES DÉLAIS DE PAIEMENT\n") {
		t.Error("expected declaration title on the first line")
	}

	// company header
	for _, line := range []string{
		"Entreprise: MAROC IMPORT SA\n",
		"ICE: 000012345000078\n",
		"RC: RC12345\n",
		"Année: 2023\n",
		"Mois: 9\n",
		"Secteur: Distribution\n",
		"Date d'export: 2024-01-15 10:30:00\n",
	} {
		if !strings.Contains(text, line) {
			t.Errorf("expected header line %q", strings.TrimSuffix(line, "\n"))
		}
	}

	// summary block
	for _, line := range []string{
		"RÉSUMÉ\n",
		"Nombre total de factures,2\n",
		"Montant total facturé (MAD),20339.00\n",
		"Montant total impayé (MAD),10169.50\n",
		"Total pénalités suspendues (MAD),1391.53\n",
		"Factures payées à temps,1\n",
		"Factures impayées,1\n",
		"Nombre total d'alertes,2\n",
	} {
		if !strings.Contains(text, line) {
			t.Errorf("expected summary line %q", strings.TrimSuffix(line, "\n"))
		}
	}

	if !strings.Contains(text, "DÉTAIL DES FACTURES\n") {
		t.Error("expected detail section title")
	}
	if !strings.Contains(text, "Fournisseur,ICE Fournisseur,N° Facture,Date Facture") {
		t.Error("expected detail column headers")
	}

	// paid line: dates filled, OUI/NON flags, statuses as strings
	if !strings.Contains(text, "ACME,001234567000089,FAC-1,2023-07-20,2023-07-20,2023-09-18,10169.50,2023-09-10,10169.50,,60,0,0,0.00,0.00,NON,PAID,NORMAL,NON,0,Confiance matching: 110%") {
		t.Error("expected complete paid detail row")
	}

	// unpaid line: empty payment cells, suspended penalty flagged OUI
	if !strings.Contains(text, "ATLAS,009876543000011,FAC-2,2023-07-20,2023-07-20,2023-09-18,10169.50,,,,60,58,2,3.85,1391.53,OUI,UNPAID,DISPUTED,OUI,2,Statut: DISPUTED") {
		t.Error("expected complete unpaid detail row")
	}
}

func TestExportAlertsReport(t *testing.T) {
	exporter := NewExporter()
	generatedAt := time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

	report := exporter.ExportAlertsReport(testDeclaration(), generatedAt)

	if !strings.HasPrefix(report, strings.Repeat("=", 80)+"\nRAPPORT D'ALERTES - DÉCLARATION DES DÉLAIS DE PAIEMENT") {
		t.Error("expected report title under the top bar")
	}
	for _, line := range []string{
		"Entreprise: MAROC IMPORT SA",
		"Période: 2023",
		"Mois: 9",
		"Date: 2024-01-15 10:30:00",
		"Total factures: 2",
		"Factures nécessitant validation: 1",
		"FACTURES NÉCESSITANT VALIDATION (1)",
		"Facture: FAC-2",
		"  Fournisseur: ATLAS",
		"  Statut: UNPAID",
		"PÉNALITÉS ÉLEVÉES (> 1000 MAD) - 1 cas",
		"  Retard: 58 jours (2 mois)",
		"  Pénalité: 1391.53 MAD (3.85%)",
		"  ⚠ Pénalité SUSPENDUE",
		"FIN DU RAPPORT",
	} {
		if !strings.Contains(report, line) {
			t.Errorf("expected report line %q", line)
		}
	}
}

func TestExportAlertsReportSkipsEmptySections(t *testing.T) {
	exporter := NewExporter()
	declaration := testDeclaration()

	// nothing to review and no penalty above the floor
	declaration.Lines[1].RequiresManualReview = false
	declaration.Lines[1].PenaltyAmount = dec("900.00")
	declaration.InvoicesRequiringReview = 0

	report := exporter.ExportAlertsReport(declaration, time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC))

	if strings.Contains(report, "FACTURES NÉCESSITANT VALIDATION") {
		t.Error("expected no review section")
	}
	if strings.Contains(report, "PÉNALITÉS ÉLEVÉES") {
		t.Error("expected no high-penalty section")
	}
	if !strings.Contains(report, "FIN DU RAPPORT") {
		t.Error("expected the report footer")
	}
}
