// Package valueobject contains domain value objects for the DGI compliance system.
package valueobject

import "fmt"

// Severity is the closed set of alert severity levels used in declarations.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// ParseSeverity validates a raw severity string against the closed set.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity: %q", s)
}

// IsValid reports whether the severity belongs to the closed set.
func (s Severity) IsValid() bool {
	_, err := ParseSeverity(string(s))
	return err == nil
}

// RequiresReview reports whether an alert of this severity forces manual review.
// INFO alerts are informational only.
func (s Severity) RequiresReview() bool {
	switch s {
	case SeverityWarning, SeverityError, SeverityCritical:
		return true
	}
	return false
}

// AlertCode identifies the rule that raised an alert. Codes are stable and
// appear verbatim in exports and the audit trail.
type AlertCode string

const (
	// Missing data
	AlertMissingDeliveryDate     AlertCode = "MISSING_DELIVERY_DATE"
	AlertMissingIssueDate        AlertCode = "MISSING_ISSUE_DATE"
	AlertMissingPaymentDate      AlertCode = "MISSING_PAYMENT_DATE"
	AlertMissingInvoiceAmount    AlertCode = "MISSING_INVOICE_AMOUNT"
	AlertMissingContractualDelay AlertCode = "MISSING_CONTRACTUAL_DELAY"

	// Legal compliance
	AlertContractualDelayExceedsMax AlertCode = "CONTRACTUAL_DELAY_EXCEEDS_MAX"
	AlertPaymentBeforeInvoice       AlertCode = "PAYMENT_BEFORE_INVOICE"
	AlertExcessiveDelay             AlertCode = "EXCESSIVE_DELAY"

	// Legal status
	AlertDisputedInvoice AlertCode = "DISPUTED_INVOICE"
	AlertCreditNote      AlertCode = "CREDIT_NOTE"
	AlertProcedure690    AlertCode = "PROCEDURE_690"

	// Data quality
	AlertLowConfidenceMatch     AlertCode = "LOW_CONFIDENCE_MATCH"
	AlertPartialPaymentDetected AlertCode = "PARTIAL_PAYMENT_DETECTED"
	AlertAmountMismatch         AlertCode = "AMOUNT_MISMATCH"
	AlertLowExtractionQuality   AlertCode = "LOW_EXTRACTION_QUALITY"
)

// Alert flags a compliance issue or data-quality problem on an invoice.
// Every alert is kept for the audit trail and surfaced in the declaration.
type Alert struct {
	Code     AlertCode
	Severity Severity
	Message  string
	Field    string
}

// Alerts is a collection of alerts with aggregate helpers.
type Alerts []Alert

// RequiresManualReview reports whether any alert is WARNING or stronger.
func (a Alerts) RequiresManualReview() bool {
	for _, alert := range a {
		if alert.Severity.RequiresReview() {
			return true
		}
	}
	return false
}

// CountBySeverity returns the number of alerts at the given severity.
func (a Alerts) CountBySeverity(s Severity) int {
	n := 0
	for _, alert := range a {
		if alert.Severity == s {
			n++
		}
	}
	return n
}

// CriticalCount counts ERROR and CRITICAL alerts.
func (a Alerts) CriticalCount() int {
	n := 0
	for _, alert := range a {
		if alert.Severity == SeverityError || alert.Severity == SeverityCritical {
			n++
		}
	}
	return n
}

// HasCode reports whether an alert with the given code is present.
func (a Alerts) HasCode(code AlertCode) bool {
	for _, alert := range a {
		if alert.Code == code {
			return true
		}
	}
	return false
}
