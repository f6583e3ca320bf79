// Package dto defines data transfer objects for API requests and responses.
package dto

import "time"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// dateLayout is the wire format for calendar dates. Timestamps stay RFC 3339.
const dateLayout = "2006-01-02"

// formatDate renders a calendar date as YYYY-MM-DD, or nil when absent.
func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// parseDate parses a YYYY-MM-DD calendar date.
func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
