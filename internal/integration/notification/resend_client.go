package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/resend/resend-go/v2"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
)

// ResendClient delivers notification emails through the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromName  string
	fromEmail string
}

// NewResendClient creates a new Resend client.
func NewResendClient(apiKey, fromName, fromEmail string) *ResendClient {
	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Send sends a notification email via Resend. Failures are classified so the
// worker knows whether a retry can succeed.
func (c *ResendClient) Send(ctx context.Context, input adapter.SendEmailInput) (*adapter.SendEmailResult, error) {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{input.To},
		Subject: input.Subject,
		Html:    input.HTML,
		Text:    input.Text,
	}

	resp, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		code := classifySendError(err)
		msg := "temporary notification failure"
		if code == domainerror.ErrCodePermanentSendFailure {
			msg = "permanent notification failure"
		}
		return nil, domainerror.NewNotificationError(code, msg, err)
	}

	return &adapter.SendEmailResult{ResendID: resp.Id}, nil
}

// permanentMarkers flag errors that no retry can fix: auth failures (401, 403)
// and rejected payloads (422). Rate limits (429) and 5xx stay temporary.
var permanentMarkers = []string{
	"401",
	"403",
	"422",
	"unauthorized",
	"forbidden",
	"validation",
	"invalid",
	"bad request",
}

// classifySendError maps a Resend failure to a notification error code. The
// resend-go client surfaces API failures as flat error strings, so the status
// has to be read out of the text.
func classifySendError(err error) domainerror.NotificationErrorCode {
	msg := strings.ToLower(err.Error())
	for _, marker := range permanentMarkers {
		if strings.Contains(msg, marker) {
			return domainerror.ErrCodePermanentSendFailure
		}
	}
	return domainerror.ErrCodeTemporarySendFailure
}

// MockNotificationSender records sends in memory. It backs environments
// without a Resend key, where deliveries only need to be observable.
type MockNotificationSender struct {
	mu        sync.Mutex
	sent      []adapter.SendEmailInput
	failWith  error
	permanent bool
}

// NewMockNotificationSender creates a new mock notification sender.
func NewMockNotificationSender() *MockNotificationSender {
	return &MockNotificationSender{}
}

// Send records the input, or fails if a failure has been configured.
func (m *MockNotificationSender) Send(_ context.Context, input adapter.SendEmailInput) (*adapter.SendEmailResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		code := domainerror.ErrCodeTemporarySendFailure
		msg := "mock temporary failure"
		if m.permanent {
			code = domainerror.ErrCodePermanentSendFailure
			msg = "mock permanent failure"
		}
		return nil, domainerror.NewNotificationError(code, msg, m.failWith)
	}

	m.sent = append(m.sent, input)
	return &adapter.SendEmailResult{
		ResendID: fmt.Sprintf("mock-%d", len(m.sent)),
	}, nil
}

// Sent returns a copy of everything delivered so far.
func (m *MockNotificationSender) Sent() []adapter.SendEmailInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]adapter.SendEmailInput, len(m.sent))
	copy(out, m.sent)
	return out
}

// SetFailure makes every subsequent Send fail with the given error.
func (m *MockNotificationSender) SetFailure(err error, permanent bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
	m.permanent = permanent
}

// ClearFailure restores successful sends.
func (m *MockNotificationSender) ClearFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = nil
	m.permanent = false
}

// Reset drops recorded sends and any configured failure.
func (m *MockNotificationSender) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.failWith = nil
	m.permanent = false
}

var (
	_ adapter.NotificationSender = (*ResendClient)(nil)
	_ adapter.NotificationSender = (*MockNotificationSender)(nil)
)
