package agents

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/BTreeMap/CardAssist/internal/models"
	"github.com/BTreeMap/CardAssist/internal/store"
)

func TestBillAgent_DueDateQuery(t *testing.T) {
	s := store.NewInMemoryStore()
	now := time.Now()
	if err := s.AddBill(models.Bill{
		BillID:      "BILL100",
		UserID:      "U1",
		BillDate:    now.AddDate(0, 0, -15),
		DueDate:     now.Add(5*24*time.Hour + time.Hour),
		TotalAmount: 27000,
		MinimumDue:  2700,
		Status:      models.BillStatusPending,
	}); err != nil {
		t.Fatalf("AddBill failed: %v", err)
	}
	agent := NewBillAgent(s)

	resp, err := agent.HandleInformation(context.Background(), "what's my due date", "U1")
	if err != nil {
		t.Fatalf("HandleInformation failed: %v", err)
	}
	if resp.RequiresConsent {
		t.Error("information query must not require consent")
	}
	if !strings.Contains(resp.Answer, "5 days remaining") {
		t.Errorf("expected 5 days remaining, got %q", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "27,000.00") {
		t.Errorf("expected total amount in answer, got %q", resp.Answer)
	}
}

func TestBillAgent_AmountQuery(t *testing.T) {
	agent := NewBillAgent(seededStore(t))

	resp, err := agent.HandleInformation(context.Background(), "what is my bill amount", "USER001")
	if err != nil {
		t.Fatalf("HandleInformation failed: %v", err)
	}
	if !strings.Contains(resp.Answer, "27,000.00") {
		t.Errorf("expected bill total in answer, got %q", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "2,700.00") {
		t.Errorf("expected minimum due in answer, got %q", resp.Answer)
	}
}

func TestBillAgent_NoBill(t *testing.T) {
	agent := NewBillAgent(store.NewInMemoryStore())

	resp, err := agent.HandleInformation(context.Background(), "what's my due date", "NOBODY")
	if err != nil {
		t.Fatalf("HandleInformation failed: %v", err)
	}
	if !strings.Contains(resp.Answer, "couldn't find any bill") {
		t.Errorf("expected not-found answer, got %q", resp.Answer)
	}
}

func TestBillAgent_StatementActions(t *testing.T) {
	agent := NewBillAgent(seededStore(t))

	resp, err := agent.HandleAction(context.Background(), "email me my statement", "USER001")
	if err != nil {
		t.Fatalf("HandleAction failed: %v", err)
	}
	if resp.Action != models.ActionEmailStmt {
		t.Errorf("expected action %s, got %s", models.ActionEmailStmt, resp.Action)
	}

	resp, err = agent.HandleAction(context.Background(), "download my statement", "USER001")
	if err != nil {
		t.Fatalf("HandleAction failed: %v", err)
	}
	if resp.Action != models.ActionDownloadStmt {
		t.Errorf("expected action %s, got %s", models.ActionDownloadStmt, resp.Action)
	}
}
