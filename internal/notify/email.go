package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/BTreeMap/CardAssist/internal/models"
)

// EmailOpts holds configuration options for the SendGrid email notifier.
type EmailOpts struct {
	APIKey string
	Sender string
}

// EmailOption defines a configuration option for the SendGrid email notifier.
type EmailOption func(*EmailOpts)

// WithSendGridAPIKey sets the SendGrid API key.
func WithSendGridAPIKey(key string) EmailOption {
	return func(o *EmailOpts) { o.APIKey = key }
}

// WithSenderEmail sets the From address.
func WithSenderEmail(sender string) EmailOption {
	return func(o *EmailOpts) { o.Sender = sender }
}

// EmailNotifier delivers notifications through the SendGrid API to the
// account's registered email address. When no API key is configured the
// notifier degrades to logging the message instead of failing.
type EmailNotifier struct {
	client *sendgrid.Client
	sender string
}

// NewEmailNotifier creates a SendGrid-backed email notifier. Settings fall
// back to SENDGRID_API_KEY (or TWILIO_SMTP_API_KEY) and SMTP_SENDER_EMAIL
// (or TWILIO_SENDER_EMAIL).
func NewEmailNotifier(opts ...EmailOption) (*EmailNotifier, error) {
	var cfg EmailOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("SENDGRID_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("TWILIO_SMTP_API_KEY")
	}
	if cfg.Sender == "" {
		cfg.Sender = os.Getenv("SMTP_SENDER_EMAIL")
	}
	if cfg.Sender == "" {
		cfg.Sender = os.Getenv("TWILIO_SENDER_EMAIL")
	}
	if cfg.Sender == "" {
		cfg.Sender = "noreply@cardassist.example.com"
	}
	slog.Debug("EmailNotifier config loaded",
		"APIKey_set", cfg.APIKey != "",
		"Sender", cfg.Sender)

	n := &EmailNotifier{sender: cfg.Sender}
	if cfg.APIKey == "" {
		slog.Warn("EmailNotifier: SendGrid API key not configured, emails will be logged instead of sent")
		return n, nil
	}
	n.client = sendgrid.NewSendClient(cfg.APIKey)
	return n, nil
}

// Configured reports whether the notifier has a SendGrid client to send with.
func (e *EmailNotifier) Configured() bool {
	return e.client != nil
}

// Notify sends a plain-text email to the account's registered address.
func (e *EmailNotifier) Notify(ctx context.Context, account *models.Account, subject, body string) error {
	if e.client == nil {
		slog.Info("EmailNotifier.Notify: SendGrid not configured, logging email",
			"userID", account.UserID, "to", account.Email, "subject", subject)
		return nil
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail("CardAssist", e.sender))
	message.Subject = subject
	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail(account.Name, account.Email))
	message.AddPersonalizations(personalization)
	message.AddContent(mail.NewContent("text/plain", body))

	resp, err := e.client.SendWithContext(ctx, message)
	if err != nil {
		slog.Error("EmailNotifier.Notify failed", "userID", account.UserID, "error", err)
		return fmt.Errorf("failed to send email to %s: %w", account.UserID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("EmailNotifier.Notify rejected", "userID", account.UserID, "status", resp.StatusCode)
		return fmt.Errorf("sendgrid rejected email to %s: status %d", account.UserID, resp.StatusCode)
	}

	slog.Debug("EmailNotifier.Notify: email sent", "userID", account.UserID, "status", resp.StatusCode)
	return nil
}
