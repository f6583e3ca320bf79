// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import "context"

// SendEmailInput represents the input for sending a notification email.
type SendEmailInput struct {
	To      string
	Name    string
	Subject string
	HTML    string
	Text    string
}

// SendEmailResult represents the result of sending a notification email.
type SendEmailResult struct {
	ResendID string
}

// NotificationSender defines the interface for delivering notification emails
// via an external provider.
type NotificationSender interface {
	// Send sends a notification email via the provider (e.g., Resend).
	Send(ctx context.Context, input SendEmailInput) (*SendEmailResult, error)
}
