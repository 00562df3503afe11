package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/BTreeMap/CardAssist/internal/models"
	"github.com/BTreeMap/CardAssist/internal/store"
)

func TestDeliveryAgent_TrackQuery(t *testing.T) {
	agent := NewDeliveryAgent(seededStore(t))

	resp, err := agent.HandleInformation(context.Background(), "track my card delivery", "USER001")
	if err != nil {
		t.Fatalf("HandleInformation failed: %v", err)
	}
	if !strings.Contains(resp.Answer, "delivered") {
		t.Errorf("expected delivered status in answer, got %q", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "TRACK123456") {
		t.Errorf("expected tracking number in answer, got %q", resp.Answer)
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("expected delivery data map, got %T", resp.Data)
	}
	if data["actual_delivery"] == nil {
		t.Error("expected actual_delivery in data for a delivered card")
	}
	if resp.RequiresConsent {
		t.Error("information query should not require consent")
	}
}

func TestDeliveryAgent_NoDeliveryRecord(t *testing.T) {
	agent := NewDeliveryAgent(store.NewInMemoryStore())

	resp, err := agent.HandleInformation(context.Background(), "where is my card", "USER001")
	if err != nil {
		t.Fatalf("HandleInformation failed: %v", err)
	}
	if !strings.Contains(resp.Answer, "couldn't find any delivery information") {
		t.Errorf("expected missing-delivery answer, got %q", resp.Answer)
	}
}

func TestDeliveryAgent_Actions(t *testing.T) {
	agent := NewDeliveryAgent(seededStore(t))

	tests := []struct {
		name   string
		query  string
		action string
	}{
		{"update address", "I want to update my delivery address", models.ActionUpdateAddress},
		{"reschedule", "please reschedule my card delivery", models.ActionReschedule},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := agent.HandleAction(context.Background(), tc.query, "USER001")
			if err != nil {
				t.Fatalf("HandleAction failed: %v", err)
			}
			if !resp.RequiresConsent {
				t.Error("expected consent requirement")
			}
			if resp.Action != tc.action {
				t.Errorf("expected action %s, got %s", tc.action, resp.Action)
			}
			if err := resp.Validate(); err != nil {
				t.Errorf("response failed validation: %v", err)
			}
		})
	}
}

func TestDeliveryAgent_UnmatchedActionClarifies(t *testing.T) {
	agent := NewDeliveryAgent(seededStore(t))

	resp, err := agent.HandleAction(context.Background(), "do something with my delivery", "USER001")
	if err != nil {
		t.Fatalf("HandleAction failed: %v", err)
	}
	if resp.RequiresConsent {
		t.Error("clarification should not require consent")
	}
	if resp.Action != models.ActionDeliveryGeneric {
		t.Errorf("expected %s, got %s", models.ActionDeliveryGeneric, resp.Action)
	}
}
