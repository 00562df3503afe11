// Package notify delivers best-effort outcome notifications over WhatsApp and
// email. Delivery is fire-and-forget: failures are logged and never affect the
// result of the action that triggered them.
package notify

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/CardAssist/internal/models"
)

// Notifier sends a human-readable summary of an executed action to the
// account holder.
type Notifier interface {
	Notify(ctx context.Context, account *models.Account, subject, body string) error
}

// MultiNotifier fans a notification out to several channels. Each channel's
// failure is logged independently; the first error is returned for callers
// that want it.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that delivers through every given channel.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (m *MultiNotifier) Notify(ctx context.Context, account *models.Account, subject, body string) error {
	var firstErr error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, account, subject, body); err != nil {
			slog.Error("MultiNotifier.Notify: channel failed", "error", err, "userID", account.UserID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// MockNotifier records notifications for tests.
type MockNotifier struct {
	Sent []SentNotification
}

// SentNotification is a notification captured by the mock.
type SentNotification struct {
	UserID  string
	Subject string
	Body    string
}

// NewMockNotifier creates an empty mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{Sent: []SentNotification{}}
}

func (m *MockNotifier) Notify(ctx context.Context, account *models.Account, subject, body string) error {
	m.Sent = append(m.Sent, SentNotification{UserID: account.UserID, Subject: subject, Body: body})
	return nil
}
