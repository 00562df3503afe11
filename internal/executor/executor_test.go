package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/BTreeMap/CardAssist/internal/models"
	"github.com/BTreeMap/CardAssist/internal/notify"
	"github.com/BTreeMap/CardAssist/internal/store"
)

func seededStore(t *testing.T) *store.InMemoryStore {
	t.Helper()
	s := store.NewInMemoryStore()
	if err := store.SeedDemoData(s); err != nil {
		t.Fatalf("SeedDemoData failed: %v", err)
	}
	return s
}

// executionServer fakes the external execution API.
func executionServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestDecide_RejectionNeverMutatesState(t *testing.T) {
	s := seededStore(t)
	server := executionServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("rejected decision must never reach the execution endpoint")
	})
	exec := New(s, WithBaseURL(server.URL))

	result, err := exec.Decide(context.Background(), models.ConsentDecision{
		UserID:       "USER001",
		Action:       models.ActionMakeTransaction,
		ActionParams: map[string]interface{}{"amount": 1000.0, "merchant": "Amazon"},
		Consent:      false,
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if result.Outcome != models.ConsentRejected {
		t.Errorf("expected outcome %s, got %s", models.ConsentRejected, result.Outcome)
	}
	if !strings.Contains(result.Message, "cancelled") {
		t.Errorf("expected cancellation notice, got %q", result.Message)
	}

	account, _ := s.GetAccount("USER001")
	if account.AvailableCredit != 35000 {
		t.Errorf("rejection must not change credit, got %v", account.AvailableCredit)
	}
	txns, _ := s.ListTransactions("USER001", 0)
	if len(txns) != 3 {
		t.Errorf("rejection must not add transactions, got %d", len(txns))
	}
}

func TestDecide_ApprovedTransactionDebitsCredit(t *testing.T) {
	s := seededStore(t)
	var gotPath string
	var gotParams map[string]interface{}
	server := executionServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotParams); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":        true,
			"transaction_id": "TXN999ABC",
		})
	})
	exec := New(s, WithBaseURL(server.URL))

	result, err := exec.Decide(context.Background(), models.ConsentDecision{
		UserID: "USER001",
		Action: models.ActionMakeTransaction,
		ActionParams: map[string]interface{}{
			"amount":   1000.0,
			"merchant": "Amazon",
			"category": "general",
		},
		Consent: true,
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if result.Outcome != models.ConsentExecuted {
		t.Fatalf("expected outcome %s, got %s: %s", models.ConsentExecuted, result.Outcome, result.Message)
	}
	if gotPath != transactionsPath {
		t.Errorf("expected endpoint %s, got %s", transactionsPath, gotPath)
	}
	if gotParams["user_id"] != "USER001" || gotParams["action"] != models.ActionMakeTransaction {
		t.Errorf("user_id and action must be merged into params, got %v", gotParams)
	}

	account, _ := s.GetAccount("USER001")
	if account.AvailableCredit != 34000 {
		t.Errorf("expected available credit 34000, got %v", account.AvailableCredit)
	}
	txns, _ := s.ListTransactions("USER001", 1)
	if len(txns) != 1 || txns[0].TransactionID != "TXN999ABC" {
		t.Fatalf("expected recorded transaction TXN999ABC, got %+v", txns)
	}
	if txns[0].Status != models.TransactionStatusCompleted {
		t.Errorf("expected completed status, got %s", txns[0].Status)
	}
	if txns[0].Amount != 1000.0 {
		t.Errorf("expected amount 1000, got %v", txns[0].Amount)
	}
}

func TestDecide_BlockCardRoundTrip(t *testing.T) {
	s := seededStore(t)
	var gotPath string
	server := executionServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":     true,
			"card_status": "blocked",
		})
	})
	mock := notify.NewMockNotifier()
	exec := New(s, WithBaseURL(server.URL), WithNotifier(mock))

	result, err := exec.Decide(context.Background(), models.ConsentDecision{
		UserID:  "USER001",
		Action:  models.ActionBlockCard,
		Consent: true,
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if result.Outcome != models.ConsentExecuted {
		t.Fatalf("expected outcome %s, got %s: %s", models.ConsentExecuted, result.Outcome, result.Message)
	}
	if gotPath != userUpdatePath {
		t.Errorf("expected endpoint %s, got %s", userUpdatePath, gotPath)
	}

	account, _ := s.GetAccount("USER001")
	if account.CardStatus != models.CardStatusBlocked {
		t.Errorf("expected card status blocked, got %s", account.CardStatus)
	}
	txns, _ := s.ListTransactions("USER001", 0)
	if len(txns) != 3 {
		t.Errorf("card block must not create transaction records, got %d", len(txns))
	}

	exec.Wait()
	if len(mock.Sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(mock.Sent))
	}
	if mock.Sent[0].UserID != "USER001" {
		t.Errorf("notification sent to wrong user: %s", mock.Sent[0].UserID)
	}
}

func TestDecide_ExecutionFailureLeavesStateUntouched(t *testing.T) {
	s := seededStore(t)
	server := executionServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	exec := New(s, WithBaseURL(server.URL))

	result, err := exec.Decide(context.Background(), models.ConsentDecision{
		UserID:       "USER001",
		Action:       models.ActionMakeTransaction,
		ActionParams: map[string]interface{}{"amount": 1000.0, "merchant": "Amazon"},
		Consent:      true,
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if result.Outcome != models.ConsentFailed {
		t.Errorf("expected outcome %s, got %s", models.ConsentFailed, result.Outcome)
	}
	if !strings.Contains(result.Message, "Error executing action") {
		t.Errorf("expected execution error surfaced, got %q", result.Message)
	}

	account, _ := s.GetAccount("USER001")
	if account.AvailableCredit != 35000 {
		t.Errorf("failed execution must not change credit, got %v", account.AvailableCredit)
	}
	txns, _ := s.ListTransactions("USER001", 0)
	if len(txns) != 3 {
		t.Errorf("failed execution must not add transactions, got %d", len(txns))
	}
}

func TestDecide_UnsuccessfulPayloadFails(t *testing.T) {
	s := seededStore(t)
	server := executionServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "insufficient funds at issuer",
		})
	})
	exec := New(s, WithBaseURL(server.URL))

	result, err := exec.Decide(context.Background(), models.ConsentDecision{
		UserID:       "USER001",
		Action:       models.ActionMakeTransaction,
		ActionParams: map[string]interface{}{"amount": 1000.0},
		Consent:      true,
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if result.Outcome != models.ConsentFailed {
		t.Errorf("expected outcome %s, got %s", models.ConsentFailed, result.Outcome)
	}
	if !strings.Contains(result.Message, "insufficient funds at issuer") {
		t.Errorf("expected endpoint message surfaced, got %q", result.Message)
	}
}

func TestDecide_BlockedCardRevalidatedAtDecisionTime(t *testing.T) {
	s := seededStore(t)
	// Card was active at proposal time, then blocked before the decision.
	if err := s.UpdateCardStatus("USER001", models.CardStatusBlocked); err != nil {
		t.Fatalf("UpdateCardStatus failed: %v", err)
	}
	server := executionServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("blocked card must never reach the execution endpoint")
	})
	exec := New(s, WithBaseURL(server.URL))

	result, err := exec.Decide(context.Background(), models.ConsentDecision{
		UserID:       "USER001",
		Action:       models.ActionMakeTransaction,
		ActionParams: map[string]interface{}{"amount": 1000.0},
		Consent:      true,
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if result.Outcome != models.ConsentFailed {
		t.Errorf("expected outcome %s, got %s", models.ConsentFailed, result.Outcome)
	}
	if !strings.Contains(result.Message, "blocked") {
		t.Errorf("expected blocked-card message, got %q", result.Message)
	}
}

func TestDecide_UnblockWorksOnBlockedCard(t *testing.T) {
	s := seededStore(t)
	if err := s.UpdateCardStatus("USER001", models.CardStatusBlocked); err != nil {
		t.Fatalf("UpdateCardStatus failed: %v", err)
	}
	server := executionServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":     true,
			"card_status": "active",
		})
	})
	exec := New(s, WithBaseURL(server.URL))

	result, err := exec.Decide(context.Background(), models.ConsentDecision{
		UserID:  "USER001",
		Action:  models.ActionUnblockCard,
		Consent: true,
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if result.Outcome != models.ConsentExecuted {
		t.Fatalf("expected outcome %s, got %s: %s", models.ConsentExecuted, result.Outcome, result.Message)
	}

	account, _ := s.GetAccount("USER001")
	if account.CardStatus != models.CardStatusActive {
		t.Errorf("expected card status active, got %s", account.CardStatus)
	}
}

func TestDecide_InsufficientCreditRecheckedAtDecisionTime(t *testing.T) {
	s := seededStore(t)
	if err := s.UpdateAvailableCredit("USER001", 500); err != nil {
		t.Fatalf("UpdateAvailableCredit failed: %v", err)
	}
	server := executionServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("insufficient credit must never reach the execution endpoint")
	})
	exec := New(s, WithBaseURL(server.URL))

	result, err := exec.Decide(context.Background(), models.ConsentDecision{
		UserID:       "USER001",
		Action:       models.ActionMakeTransaction,
		ActionParams: map[string]interface{}{"amount": 1000.0},
		Consent:      true,
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if result.Outcome != models.ConsentFailed {
		t.Errorf("expected outcome %s, got %s", models.ConsentFailed, result.Outcome)
	}
}

func TestDecide_ConcurrentTransactionsNeverOverspend(t *testing.T) {
	s := seededStore(t)
	server := executionServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})
	exec := New(s, WithBaseURL(server.URL))

	// 35,000 available credit admits at most five 6,000 transactions.
	const workers = 8
	const amount = 6000.0
	results := make([]models.ConsentResult, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := exec.Decide(context.Background(), models.ConsentDecision{
				UserID:       "USER001",
				Action:       models.ActionMakeTransaction,
				ActionParams: map[string]interface{}{"amount": amount, "merchant": "Amazon"},
				Consent:      true,
			})
			if err != nil {
				t.Errorf("Decide failed: %v", err)
				return
			}
			results[i] = result
		}(i)
	}
	wg.Wait()

	executed := 0
	for _, result := range results {
		switch result.Outcome {
		case models.ConsentExecuted:
			executed++
		case models.ConsentFailed:
		default:
			t.Errorf("unexpected outcome %s: %s", result.Outcome, result.Message)
		}
	}
	if executed != 5 {
		t.Errorf("expected exactly 5 transactions within credit, got %d", executed)
	}

	account, _ := s.GetAccount("USER001")
	if account.AvailableCredit < 0 {
		t.Errorf("available credit must never go negative, got %v", account.AvailableCredit)
	}
	if want := 35000 - amount*float64(executed); account.AvailableCredit != want {
		t.Errorf("expected available credit %v, got %v", want, account.AvailableCredit)
	}
	txns, _ := s.ListTransactions("USER001", 0)
	if len(txns) != 3+executed {
		t.Errorf("expected %d transaction records, got %d", 3+executed, len(txns))
	}
}

func TestDecide_PaymentRecordsRepayment(t *testing.T) {
	s := seededStore(t)
	server := executionServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})
	exec := New(s, WithBaseURL(server.URL))

	result, err := exec.Decide(context.Background(), models.ConsentDecision{
		UserID:       "USER001",
		Action:       models.ActionMakePayment,
		ActionParams: map[string]interface{}{"amount": 2700.0, "bill_id": "BILL001"},
		Consent:      true,
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if result.Outcome != models.ConsentExecuted {
		t.Fatalf("expected outcome %s, got %s: %s", models.ConsentExecuted, result.Outcome, result.Message)
	}

	repayments, _ := s.ListRepayments("USER001", 1)
	if len(repayments) != 1 {
		t.Fatalf("expected one recorded repayment, got %d", len(repayments))
	}
	if repayments[0].Amount != 2700.0 || repayments[0].BillID != "BILL001" {
		t.Errorf("unexpected repayment: %+v", repayments[0])
	}
}

func TestDecide_MissingUserIDRejected(t *testing.T) {
	exec := New(seededStore(t))

	_, err := exec.Decide(context.Background(), models.ConsentDecision{
		Action:  models.ActionBlockCard,
		Consent: true,
	})
	if err != models.ErrEmptyUserID {
		t.Errorf("expected ErrEmptyUserID, got %v", err)
	}
}
