package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/BTreeMap/CardAssist/internal/models"
)

func TestTransactionAgent_ProposePurchase(t *testing.T) {
	agent := NewTransactionAgent(seededStore(t))

	resp, err := agent.HandleAction(context.Background(), "make a transaction for 1000 rupees at Amazon", "USER001")
	if err != nil {
		t.Fatalf("HandleAction failed: %v", err)
	}
	if !resp.RequiresConsent {
		t.Fatal("purchase proposal must require consent")
	}
	if resp.Action != models.ActionMakeTransaction {
		t.Errorf("expected action %s, got %s", models.ActionMakeTransaction, resp.Action)
	}
	if got := resp.ActionParams["amount"]; got != 1000.0 {
		t.Errorf("expected amount 1000.0, got %v", got)
	}
	if got := resp.ActionParams["merchant"]; got != "Amazon" {
		t.Errorf("expected merchant Amazon, got %v", got)
	}
	if got := resp.ActionParams["category"]; got != "general" {
		t.Errorf("expected category general, got %v", got)
	}
	if err := resp.Validate(); err != nil {
		t.Errorf("consent invariant violated: %v", err)
	}
}

func TestTransactionAgent_BlockedCardRefusesPurchase(t *testing.T) {
	s := seededStore(t)
	if err := s.UpdateCardStatus("USER001", models.CardStatusBlocked); err != nil {
		t.Fatalf("UpdateCardStatus failed: %v", err)
	}
	agent := NewTransactionAgent(s)

	resp, err := agent.HandleAction(context.Background(), "make a transaction for 1000 rupees at Amazon", "USER001")
	if err != nil {
		t.Fatalf("HandleAction failed: %v", err)
	}
	if resp.RequiresConsent {
		t.Error("blocked card must refuse immediately, never propose")
	}
	if resp.Action != "" {
		t.Errorf("refusal must not carry an action, got %s", resp.Action)
	}
	if !strings.Contains(resp.Answer, "blocked") {
		t.Errorf("expected blocked-card explanation, got %q", resp.Answer)
	}
}

func TestTransactionAgent_InsufficientCreditRefusesPurchase(t *testing.T) {
	agent := NewTransactionAgent(seededStore(t))

	// Seeded available credit is 35000.
	resp, err := agent.HandleAction(context.Background(), "make a purchase of 40000 rupees at Electronics Store", "USER001")
	if err != nil {
		t.Fatalf("HandleAction failed: %v", err)
	}
	if resp.RequiresConsent {
		t.Error("insufficient credit must refuse immediately, never propose")
	}
	if !strings.Contains(resp.Answer, "available credit") {
		t.Errorf("expected credit explanation, got %q", resp.Answer)
	}
}

func TestTransactionAgent_MissingAmountAsksForClarification(t *testing.T) {
	agent := NewTransactionAgent(seededStore(t))

	resp, err := agent.HandleAction(context.Background(), "make a transaction at Amazon", "USER001")
	if err != nil {
		t.Fatalf("HandleAction failed: %v", err)
	}
	if resp.RequiresConsent {
		t.Error("missing amount must not reach the consent-proposal state")
	}
	if !strings.Contains(resp.Answer, "amount") {
		t.Errorf("expected amount clarification, got %q", resp.Answer)
	}
}

func TestTransactionAgent_DisputeAndEMIConversion(t *testing.T) {
	agent := NewTransactionAgent(seededStore(t))

	resp, err := agent.HandleAction(context.Background(), "I want to dispute a transaction", "USER001")
	if err != nil {
		t.Fatalf("HandleAction failed: %v", err)
	}
	if resp.Action != models.ActionDispute {
		t.Errorf("expected action %s, got %s", models.ActionDispute, resp.Action)
	}

	resp, err = agent.HandleAction(context.Background(), "convert my purchase to EMI", "USER001")
	if err != nil {
		t.Fatalf("HandleAction failed: %v", err)
	}
	if resp.Action != models.ActionConvertToEMI {
		t.Errorf("expected action %s, got %s", models.ActionConvertToEMI, resp.Action)
	}
}

func TestTransactionAgent_EMIListing(t *testing.T) {
	agent := NewTransactionAgent(seededStore(t))

	resp, err := agent.HandleInformation(context.Background(), "show my EMI plans", "USER001")
	if err != nil {
		t.Fatalf("HandleInformation failed: %v", err)
	}
	if resp.RequiresConsent {
		t.Error("information query must not require consent")
	}
	if !strings.Contains(resp.Answer, "1 active EMI") {
		t.Errorf("expected one active EMI, got %q", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "4,166.67") {
		t.Errorf("expected EMI amount in answer, got %q", resp.Answer)
	}
}

func TestTransactionAgent_RecentTransactions(t *testing.T) {
	agent := NewTransactionAgent(seededStore(t))

	resp, err := agent.HandleInformation(context.Background(), "show my recent transactions", "USER001")
	if err != nil {
		t.Fatalf("HandleInformation failed: %v", err)
	}
	if !strings.Contains(resp.Answer, "3 recent transactions") {
		t.Errorf("expected 3 recent transactions, got %q", resp.Answer)
	}
	list, ok := resp.Data.([]map[string]interface{})
	if !ok {
		t.Fatalf("expected transaction list, got %T", resp.Data)
	}
	if list[0]["transaction_id"] != "TXN003" {
		t.Errorf("expected most recent transaction first, got %v", list[0]["transaction_id"])
	}
}
