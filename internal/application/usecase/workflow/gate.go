// Package workflow contains workflow-related use cases.
package workflow

import (
	"fmt"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// gateOutcome is the result of evaluating the human-validation gate after a
// rules run.
type gateOutcome struct {
	Required bool
	Reasons  []string

	AlertsCount         int
	CriticalAlertsCount int
}

// evaluateGate decides whether the computed results need a human reviewer
// before the batch can be exported. The reasons are user-facing and feed the
// batch step label, so their wording is stable.
func evaluateGate(invoices []*entity.ExtractedInvoice, results []adapter.InvoiceResult) gateOutcome {
	var outcome gateOutcome

	for _, result := range results {
		outcome.AlertsCount += len(result.Legal.Alerts)
		outcome.CriticalAlertsCount += result.Legal.Alerts.CriticalCount()
	}
	if outcome.CriticalAlertsCount > 0 {
		outcome.Reasons = append(outcome.Reasons, fmt.Sprintf("%d alertes critiques", outcome.CriticalAlertsCount))
	}

	missingDelivery := 0
	for _, invoice := range invoices {
		if invoice.DeliveryDate == nil {
			missingDelivery++
		}
	}
	if missingDelivery > 0 {
		outcome.Reasons = append(outcome.Reasons, fmt.Sprintf("%d dates de livraison manquantes", missingDelivery))
	}

	// Only matched invoices count here; an unmatched invoice is already
	// covered by its own alert.
	lowConfidence := 0
	for _, result := range results {
		if len(result.Matching.Matches) > 0 && result.Matching.BestConfidence() < valueobject.ValidationConfidenceGate {
			lowConfidence++
		}
	}
	if lowConfidence > 0 {
		outcome.Reasons = append(outcome.Reasons, fmt.Sprintf("%d rapprochements à vérifier", lowConfidence))
	}

	outcome.Required = len(outcome.Reasons) > 0
	return outcome
}
