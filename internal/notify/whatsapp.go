package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/BTreeMap/CardAssist/internal/models"
)

// Opts holds configuration options for the Twilio WhatsApp notifier.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromWhats  string
}

// Option defines a configuration option for the Twilio WhatsApp notifier.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromWhats sets the sending WhatsApp number, "whatsapp:+1234567890" format.
func WithFromWhats(from string) Option {
	return func(o *Opts) { o.FromWhats = from }
}

// WhatsAppNotifier delivers notifications over Twilio's WhatsApp API.
type WhatsAppNotifier struct {
	client    *twilio.RestClient
	fromWhats string
}

// NewWhatsAppNotifier creates a Twilio-backed WhatsApp notifier. Credentials
// fall back to TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, and TWILIO_FROM_NUMBER.
func NewWhatsAppNotifier(opts ...Option) (*WhatsAppNotifier, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromWhats == "" {
		cfg.FromWhats = os.Getenv("TWILIO_FROM_NUMBER")
	}
	slog.Debug("WhatsAppNotifier config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromWhats_set", cfg.FromWhats != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromWhats == "" {
		return nil, fmt.Errorf("fromWhats number must be provided")
	}

	client := twilio.NewRestClientWithParams(
		twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		},
	)

	return &WhatsAppNotifier{client: client, fromWhats: cfg.FromWhats}, nil
}

// Notify sends the subject and body as a single WhatsApp message to the
// account's registered phone number.
func (w *WhatsAppNotifier) Notify(ctx context.Context, account *models.Account, subject, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + account.Phone)
	params.SetFrom(w.fromWhats)
	params.SetBody(fmt.Sprintf("%s\n\n%s", subject, body))

	_, err := w.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("WhatsAppNotifier.Notify failed", "userID", account.UserID, "error", err)
		return fmt.Errorf("failed to send WhatsApp message to %s: %w", account.UserID, err)
	}

	slog.Debug("WhatsAppNotifier.Notify: message sent", "userID", account.UserID)
	return nil
}
