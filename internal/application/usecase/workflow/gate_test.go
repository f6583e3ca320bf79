// Package workflow contains workflow-related use cases.
package workflow

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

func gateInvoice(deliveryDate *time.Time) *entity.ExtractedInvoice {
	invoice := entity.NewExtractedInvoice(uuid.New(), uuid.New())
	invoice.DeliveryDate = deliveryDate
	return invoice
}

func gateResult(alerts valueobject.Alerts, confidences ...float64) adapter.InvoiceResult {
	matches := make([]valueobject.Match, 0, len(confidences))
	for _, c := range confidences {
		matches = append(matches, valueobject.Match{ConfidenceScore: c})
	}
	return adapter.InvoiceResult{
		InvoiceID: uuid.New(),
		Matching:  valueobject.MatchingResult{Matches: matches},
		Legal:     valueobject.LegalResult{Alerts: alerts},
	}
}

func TestEvaluateGate(t *testing.T) {
	date := time.Date(2023, 7, 20, 0, 0, 0, 0, time.UTC)

	t.Run("clean results pass without review", func(t *testing.T) {
		invoices := []*entity.ExtractedInvoice{gateInvoice(&date)}
		results := []adapter.InvoiceResult{gateResult(nil, 95)}

		outcome := evaluateGate(invoices, results)

		if outcome.Required {
			t.Errorf("expected no review requirement, got reasons %v", outcome.Reasons)
		}
		if len(outcome.Reasons) != 0 {
			t.Errorf("expected no reasons, got %v", outcome.Reasons)
		}
	})

	t.Run("critical alerts require review", func(t *testing.T) {
		alerts := valueobject.Alerts{
			{Code: valueobject.AlertExcessiveDelay, Severity: valueobject.SeverityCritical},
			{Code: valueobject.AlertDisputedInvoice, Severity: valueobject.SeverityError},
			{Code: valueobject.AlertPartialPaymentDetected, Severity: valueobject.SeverityWarning},
		}
		invoices := []*entity.ExtractedInvoice{gateInvoice(&date)}
		results := []adapter.InvoiceResult{gateResult(alerts, 95)}

		outcome := evaluateGate(invoices, results)

		if !outcome.Required {
			t.Fatal("expected review to be required")
		}
		if len(outcome.Reasons) != 1 || outcome.Reasons[0] != "2 alertes critiques" {
			t.Errorf("expected [2 alertes critiques], got %v", outcome.Reasons)
		}
		if outcome.AlertsCount != 3 {
			t.Errorf("expected 3 total alerts, got %d", outcome.AlertsCount)
		}
		if outcome.CriticalAlertsCount != 2 {
			t.Errorf("expected 2 critical alerts, got %d", outcome.CriticalAlertsCount)
		}
	})

	t.Run("missing delivery dates require review", func(t *testing.T) {
		invoices := []*entity.ExtractedInvoice{
			gateInvoice(nil),
			gateInvoice(&date),
			gateInvoice(nil),
		}
		results := []adapter.InvoiceResult{gateResult(nil, 95)}

		outcome := evaluateGate(invoices, results)

		if !outcome.Required {
			t.Fatal("expected review to be required")
		}
		if len(outcome.Reasons) != 1 || outcome.Reasons[0] != "2 dates de livraison manquantes" {
			t.Errorf("expected [2 dates de livraison manquantes], got %v", outcome.Reasons)
		}
	})

	t.Run("low confidence match requires review", func(t *testing.T) {
		invoices := []*entity.ExtractedInvoice{gateInvoice(&date)}
		results := []adapter.InvoiceResult{gateResult(nil, 55)}

		outcome := evaluateGate(invoices, results)

		if !outcome.Required {
			t.Fatal("expected review to be required")
		}
		if len(outcome.Reasons) != 1 || outcome.Reasons[0] != "1 rapprochements à vérifier" {
			t.Errorf("expected [1 rapprochements à vérifier], got %v", outcome.Reasons)
		}
	})

	t.Run("unmatched invoice does not count as low confidence", func(t *testing.T) {
		invoices := []*entity.ExtractedInvoice{gateInvoice(&date)}
		results := []adapter.InvoiceResult{gateResult(nil)}

		outcome := evaluateGate(invoices, results)

		if outcome.Required {
			t.Errorf("expected no review requirement, got reasons %v", outcome.Reasons)
		}
	})

	t.Run("confidence at the threshold passes", func(t *testing.T) {
		invoices := []*entity.ExtractedInvoice{gateInvoice(&date)}
		results := []adapter.InvoiceResult{gateResult(nil, valueobject.ValidationConfidenceGate)}

		outcome := evaluateGate(invoices, results)

		if outcome.Required {
			t.Errorf("expected no review requirement, got reasons %v", outcome.Reasons)
		}
	})

	t.Run("reasons are reported in a stable order", func(t *testing.T) {
		alerts := valueobject.Alerts{
			{Code: valueobject.AlertExcessiveDelay, Severity: valueobject.SeverityCritical},
		}
		invoices := []*entity.ExtractedInvoice{gateInvoice(nil)}
		results := []adapter.InvoiceResult{gateResult(alerts, 40)}

		outcome := evaluateGate(invoices, results)

		want := []string{
			"1 alertes critiques",
			"1 dates de livraison manquantes",
			"1 rapprochements à vérifier",
		}
		if len(outcome.Reasons) != len(want) {
			t.Fatalf("expected %d reasons, got %v", len(want), outcome.Reasons)
		}
		for i, reason := range want {
			if outcome.Reasons[i] != reason {
				t.Errorf("reason %d: expected %q, got %q", i, reason, outcome.Reasons[i])
			}
		}
	})
}
