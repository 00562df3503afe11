package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/BTreeMap/CardAssist/internal/models"
)

type failingNotifier struct{}

func (failingNotifier) Notify(ctx context.Context, account *models.Account, subject, body string) error {
	return errors.New("channel unavailable")
}

func TestMultiNotifier_DeliversToAllChannels(t *testing.T) {
	first := NewMockNotifier()
	second := NewMockNotifier()
	multi := NewMultiNotifier(first, second)

	account := &models.Account{UserID: "USER001", Phone: "+919876543210", Email: "john.doe@example.com"}
	if err := multi.Notify(context.Background(), account, "Card blocked", "Your card has been blocked."); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if len(first.Sent) != 1 || len(second.Sent) != 1 {
		t.Fatalf("expected one notification per channel, got %d and %d", len(first.Sent), len(second.Sent))
	}
	if first.Sent[0].Subject != "Card blocked" {
		t.Errorf("unexpected subject %q", first.Sent[0].Subject)
	}
}

func TestMultiNotifier_FailedChannelDoesNotBlockOthers(t *testing.T) {
	mock := NewMockNotifier()
	multi := NewMultiNotifier(failingNotifier{}, mock)

	account := &models.Account{UserID: "USER001"}
	err := multi.Notify(context.Background(), account, "Payment made", "Payment of ₹2,700.00 completed.")
	if err == nil {
		t.Error("expected first channel error to be reported")
	}
	if len(mock.Sent) != 1 {
		t.Errorf("expected delivery to continue after a failed channel, got %d", len(mock.Sent))
	}
}

func TestNewWhatsAppNotifier_RequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")

	if _, err := NewWhatsAppNotifier(); err == nil {
		t.Error("expected error when Twilio credentials are missing")
	}

	if _, err := NewWhatsAppNotifier(
		WithAccountSID("AC123"),
		WithAuthToken("token"),
	); err == nil {
		t.Error("expected error when the sending number is missing")
	}
}

func TestNewEmailNotifier_DegradesWithoutAPIKey(t *testing.T) {
	t.Setenv("SENDGRID_API_KEY", "")
	t.Setenv("TWILIO_SMTP_API_KEY", "")
	t.Setenv("SMTP_SENDER_EMAIL", "")
	t.Setenv("TWILIO_SENDER_EMAIL", "")

	n, err := NewEmailNotifier()
	if err != nil {
		t.Fatalf("NewEmailNotifier failed: %v", err)
	}
	if n.Configured() {
		t.Error("expected unconfigured notifier without an API key")
	}
	if n.sender != "noreply@cardassist.example.com" {
		t.Errorf("expected default sender, got %s", n.sender)
	}

	account := &models.Account{UserID: "USER001", Email: "john.doe@example.com"}
	if err := n.Notify(context.Background(), account, "Action completed", "Your card was blocked."); err != nil {
		t.Errorf("unconfigured notifier should log and succeed, got %v", err)
	}
}

func TestNewEmailNotifier_ConfiguredWithAPIKey(t *testing.T) {
	n, err := NewEmailNotifier(
		WithSendGridAPIKey("SG.test-key"),
		WithSenderEmail("alerts@example.com"),
	)
	if err != nil {
		t.Fatalf("NewEmailNotifier failed: %v", err)
	}
	if !n.Configured() {
		t.Error("expected configured notifier with an API key")
	}
	if n.sender != "alerts@example.com" {
		t.Errorf("expected explicit sender, got %s", n.sender)
	}
}
