// Package workflow contains workflow-related use cases.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	"github.com/dgi-compliance/backend/internal/domain/matching"
	"github.com/dgi-compliance/backend/internal/domain/rules"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

// User-facing step labels. The frontend displays them verbatim, so the
// wording is stable.
const (
	stepOCR              = "OCR - Extraction de texte"
	stepExtraction       = "Extraction - Lecture des données"
	stepMatching         = "Rapprochement - Factures ↔ Paiements"
	stepRules            = "Calcul - Délais et Pénalités DGI"
	stepReady            = "Traitement terminé - Prêt pour export"
	stepValidated        = "Validé - Prêt pour export"
	stepValidationPrefix = "Validation requise: "
)

// recomputer is the shared tail of every workflow run: it matches the
// persisted invoices against the persisted payments, computes the legal
// results, stores them wholesale and moves the batch to its post-computation
// status. Processing, corrections and recalculation all funnel through it so
// the validation gate is re-evaluated the same way everywhere.
type recomputer struct {
	batchRepo   adapter.BatchRepository
	invoiceRepo adapter.InvoiceRepository
	paymentRepo adapter.PaymentRepository
	resultRepo  adapter.ResultRepository
	auditRepo   adapter.AuditRepository
	matcher     *matching.Engine
	rules       *rules.Engine
}

// recomputeParams carries the run parameters that are not derivable from the
// batch itself.
type recomputeParams struct {
	ActorID      *uuid.UUID
	AsOf         time.Time
	Procedure690 map[string]struct{}
}

// computeAndStore runs matching and rules over the batch and persists the
// outcome. The batch must be in a status that may reach matching_done.
func (r *recomputer) computeAndStore(ctx context.Context, batch *entity.Batch, params recomputeParams) (gateOutcome, error) {
	invoices, err := r.invoiceRepo.FindByBatch(ctx, batch.ID)
	if err != nil {
		return gateOutcome{}, fmt.Errorf("failed to find batch invoices: %w", err)
	}
	payments, err := r.paymentRepo.FindByBatch(ctx, batch.ID)
	if err != nil {
		return gateOutcome{}, fmt.Errorf("failed to find batch payments: %w", err)
	}

	batch.SetProgress(70, stepMatching)
	if err := r.batchRepo.Update(ctx, batch); err != nil {
		return gateOutcome{}, fmt.Errorf("failed to update batch: %w", err)
	}

	matchingResults := r.matcher.MatchBatch(invoices, payments)

	detail := fmt.Sprintf("matched %d invoices against %d payments", len(invoices), len(payments))
	if err := r.transition(ctx, batch, entity.BatchStatusMatchingDone, stepMatching, detail, params.ActorID); err != nil {
		return gateOutcome{}, err
	}

	batch.SetProgress(80, stepRules)
	if err := r.batchRepo.Update(ctx, batch); err != nil {
		return gateOutcome{}, fmt.Errorf("failed to update batch: %w", err)
	}

	legalResults, err := r.rules.ComputeBatch(rules.BatchComputeInput{
		Invoices:              invoices,
		Matching:              matchingResults,
		Procedure690Suppliers: params.Procedure690,
		AsOf:                  params.AsOf,
	})
	if err != nil {
		return gateOutcome{}, fmt.Errorf("failed to compute legal results: %w", err)
	}

	results := make([]adapter.InvoiceResult, len(invoices))
	for i, invoice := range invoices {
		results[i] = adapter.InvoiceResult{
			InvoiceID: invoice.ID,
			Matching:  matchingResults[i],
			Legal:     legalResults[i],
		}
	}
	if err := r.resultRepo.ReplaceForBatch(ctx, batch.ID, results); err != nil {
		return gateOutcome{}, fmt.Errorf("failed to store batch results: %w", err)
	}

	detail = fmt.Sprintf("computed legal results for %d invoices", len(invoices))
	if err := r.transition(ctx, batch, entity.BatchStatusRulesCalculated, stepRules, detail, params.ActorID); err != nil {
		return gateOutcome{}, err
	}

	outcome := evaluateGate(invoices, results)

	asOf := params.AsOf
	batch.AsOfDate = &asOf
	batch.InvoiceCount = len(invoices)
	batch.PaymentCount = len(payments)
	batch.AlertsCount = outcome.AlertsCount
	batch.CriticalAlertsCount = outcome.CriticalAlertsCount
	batch.RequiresValidation = outcome.Required
	batch.ValidationReasons = outcome.Reasons

	if outcome.Required {
		reasons := strings.Join(outcome.Reasons, ", ")
		err = r.transition(ctx, batch, entity.BatchStatusValidationPending, stepValidationPrefix+reasons, "validation required: "+reasons, params.ActorID)
	} else {
		err = r.transition(ctx, batch, entity.BatchStatusValidated, stepReady, "no review required, results validated", params.ActorID)
	}
	if err != nil {
		return gateOutcome{}, err
	}

	return outcome, nil
}

// transition moves the batch to the target status, persists it and appends
// an audit entry for the change.
func (r *recomputer) transition(ctx context.Context, batch *entity.Batch, target entity.BatchStatus, step, detail string, actorID *uuid.UUID) error {
	previous := batch.Status
	batch.TransitionTo(target, step)
	if err := r.batchRepo.Update(ctx, batch); err != nil {
		return fmt.Errorf("failed to update batch: %w", err)
	}
	entry := entity.NewAuditEntry(batch.ID, previous, target, detail, actorID)
	if err := r.auditRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	return nil
}

// procedure690Set normalizes a list of supplier ICEs into the lookup set the
// rules engine expects. Blank and malformed entries are dropped.
func procedure690Set(ices []string) map[string]struct{} {
	if len(ices) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ices))
	for _, ice := range ices {
		normalized := valueobject.NormalizeICE(ice)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}
