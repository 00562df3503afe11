package models

import "testing"

func TestIsValidCategory(t *testing.T) {
	for _, c := range []Category{CategoryAccount, CategoryDelivery, CategoryTransaction, CategoryBill, CategoryRepayment, CategoryCollections} {
		if !IsValidCategory(c) {
			t.Errorf("expected %s to be valid", c)
		}
	}
	if IsValidCategory(Category("voice")) {
		t.Error("expected unknown category to be invalid")
	}
	if IsValidCategory(Category("")) {
		t.Error("expected empty category to be invalid")
	}
}

func TestIsValidTaskType(t *testing.T) {
	if !IsValidTaskType(TaskTypeInformation) || !IsValidTaskType(TaskTypeAction) {
		t.Error("expected both task types to be valid")
	}
	if IsValidTaskType(TaskType("query")) {
		t.Error("expected unknown task type to be invalid")
	}
	if DefaultTaskType != TaskTypeInformation {
		t.Error("default task type must be the read-only state")
	}
}

func TestAgentResponseValidate(t *testing.T) {
	resp := AgentResponse{Answer: "done", RequiresConsent: false}
	if err := resp.Validate(); err != nil {
		t.Errorf("informational response should validate, got %v", err)
	}

	resp = AgentResponse{Answer: "propose", RequiresConsent: true, ConsentMessage: "ok?"}
	if err := resp.Validate(); err != ErrMissingAction {
		t.Errorf("expected ErrMissingAction, got %v", err)
	}

	resp = AgentResponse{Answer: "propose", RequiresConsent: true, Action: ActionBlockCard}
	if err := resp.Validate(); err != ErrMissingConsentMessage {
		t.Errorf("expected ErrMissingConsentMessage, got %v", err)
	}

	resp = AgentResponse{Answer: "propose", RequiresConsent: true, Action: ActionBlockCard, ConsentMessage: "ok?"}
	if err := resp.Validate(); err != nil {
		t.Errorf("complete proposal should validate, got %v", err)
	}
}

func TestConsentDecisionValidate(t *testing.T) {
	d := ConsentDecision{Action: ActionBlockCard, Consent: true}
	if err := d.Validate(); err != ErrEmptyUserID {
		t.Errorf("expected ErrEmptyUserID, got %v", err)
	}

	d = ConsentDecision{UserID: "USER001", Consent: true}
	if err := d.Validate(); err != ErrMissingDecisionAction {
		t.Errorf("expected ErrMissingDecisionAction, got %v", err)
	}

	// Rejections do not need an action; nothing will be executed.
	d = ConsentDecision{UserID: "USER001", Consent: false}
	if err := d.Validate(); err != nil {
		t.Errorf("rejection without action should validate, got %v", err)
	}
}

func TestChatRequestValidate(t *testing.T) {
	r := ChatRequest{UserID: "USER001"}
	if err := r.Validate(); err != ErrEmptyQuery {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	r = ChatRequest{Message: "hello"}
	if err := r.Validate(); err != ErrEmptyUserID {
		t.Errorf("expected ErrEmptyUserID, got %v", err)
	}
	r = ChatRequest{Message: "hello", UserID: "USER001"}
	if err := r.Validate(); err != nil {
		t.Errorf("complete request should validate, got %v", err)
	}
}

func TestAPIResponseHelpers(t *testing.T) {
	ok := Success(map[string]string{"k": "v"})
	if ok.Status != string(APIStatusOK) || ok.Result == nil {
		t.Errorf("unexpected success response: %+v", ok)
	}
	withMsg := SuccessWithMessage("saved", nil)
	if withMsg.Message != "saved" {
		t.Errorf("unexpected message: %+v", withMsg)
	}
	errResp := Error("boom")
	if errResp.Status != string(APIStatusError) || errResp.Message != "boom" {
		t.Errorf("unexpected error response: %+v", errResp)
	}
}

func TestBillOutstanding(t *testing.T) {
	b := Bill{TotalAmount: 8000, PaidAmount: 2000}
	if b.Outstanding() != 6000 {
		t.Errorf("expected outstanding 6000, got %v", b.Outstanding())
	}
}
