// Package executor implements the consent gate: it takes the caller's
// accept/reject decision for a previously proposed action, re-validates
// preconditions, forwards accepted actions to the external execution endpoint,
// and applies the resulting local state change.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/BTreeMap/CardAssist/internal/models"
	"github.com/BTreeMap/CardAssist/internal/notify"
	"github.com/BTreeMap/CardAssist/internal/store"
	"github.com/BTreeMap/CardAssist/internal/util"
)

const (
	// DefaultBaseURL is the default address of the external execution API.
	DefaultBaseURL = "http://localhost:3000"
	// DefaultTimeout bounds the single execution attempt.
	DefaultTimeout = 5 * time.Second

	userUpdatePath   = "/api/update-user"
	transactionsPath = "/api/transactions"
)

// actionEndpoints maps each known action to its execution endpoint. Actions
// not listed fall through to the transactions endpoint.
var actionEndpoints = map[string]string{
	models.ActionUpdateEmail:     userUpdatePath,
	models.ActionUpdatePhone:     userUpdatePath,
	models.ActionUpdateProfile:   userUpdatePath,
	models.ActionActivateCard:    userUpdatePath,
	models.ActionBlockCard:       userUpdatePath,
	models.ActionUnblockCard:     userUpdatePath,
	models.ActionMakePayment:     transactionsPath,
	models.ActionMakeTransaction: transactionsPath,
	models.ActionDispute:         transactionsPath,
	models.ActionConvertToEMI:    transactionsPath,
	models.ActionPayOverdue:      transactionsPath,
}

// transactingActions debit or transact against the account, so the blocked
// card check is repeated at decision time. Card status actions are excluded:
// unblocking a blocked card must stay possible.
var transactingActions = map[string]bool{
	models.ActionMakeTransaction: true,
	models.ActionMakePayment:     true,
	models.ActionPayOverdue:      true,
	models.ActionDispute:         true,
	models.ActionConvertToEMI:    true,
}

// Opts holds configuration options for the executor.
type Opts struct {
	BaseURL  string
	Timeout  time.Duration
	Notifier notify.Notifier
}

// Option defines a configuration option for the executor.
type Option func(*Opts)

// WithBaseURL sets the base URL of the external execution API.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithTimeout sets the timeout of the single execution attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Opts) { o.Timeout = timeout }
}

// WithNotifier sets the post-execution notification channel.
func WithNotifier(n notify.Notifier) Option {
	return func(o *Opts) { o.Notifier = n }
}

// Executor is the consent gate. Decisions for the same account are serialized
// through a per-account mutex so two approved purchases cannot both pass the
// credit check against a stale balance.
type Executor struct {
	store    store.Store
	client   *http.Client
	baseURL  string
	notifier notify.Notifier

	mu           sync.Mutex
	accountLocks map[string]*sync.Mutex
	notifyWG     sync.WaitGroup
}

// New creates an executor over the given store. The base URL falls back to
// EXECUTOR_BASE_URL, then to DefaultBaseURL.
func New(st store.Store, opts ...Option) *Executor {
	cfg := Opts{Timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("EXECUTOR_BASE_URL")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	slog.Debug("Executor.New: executor created", "baseURL", cfg.BaseURL, "timeout", cfg.Timeout, "notifier_set", cfg.Notifier != nil)

	return &Executor{
		store:        st,
		client:       &http.Client{Timeout: cfg.Timeout},
		baseURL:      cfg.BaseURL,
		notifier:     cfg.Notifier,
		accountLocks: make(map[string]*sync.Mutex),
	}
}

// executionResponse is the payload the external execution API returns.
type executionResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	CardStatus    string `json:"card_status,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// Decide processes a consent decision. Rejections never touch state. Approvals
// are re-validated, executed once against the external endpoint with a bounded
// timeout, and applied locally only after a confirmed success response.
func (e *Executor) Decide(ctx context.Context, decision models.ConsentDecision) (models.ConsentResult, error) {
	if err := decision.Validate(); err != nil {
		return models.ConsentResult{}, err
	}

	if !decision.Consent {
		slog.Debug("Executor.Decide: action rejected by user", "userID", decision.UserID, "action", decision.Action)
		return models.ConsentResult{
			Outcome: models.ConsentRejected,
			Message: "Action cancelled by user",
		}, nil
	}

	lock := e.lockAccount(decision.UserID)
	lock.Lock()
	defer lock.Unlock()

	account, err := e.store.GetAccount(decision.UserID)
	if err != nil {
		return models.ConsentResult{}, fmt.Errorf("Executor.Decide: %w", err)
	}
	if account == nil {
		return models.ConsentResult{
			Outcome: models.ConsentFailed,
			Message: "Account not found, the action was not executed",
		}, nil
	}

	// State may have changed between proposal and decision, so preconditions
	// are checked again before anything leaves the process.
	if transactingActions[decision.Action] && account.CardStatus == models.CardStatusBlocked {
		slog.Debug("Executor.Decide: card blocked at decision time", "userID", decision.UserID, "action", decision.Action)
		return models.ConsentResult{
			Outcome: models.ConsentFailed,
			Message: "Your card is blocked, so the action was not executed",
		}, nil
	}

	var amount float64
	if decision.Action == models.ActionMakeTransaction {
		var ok bool
		amount, ok = paramFloat(decision.ActionParams, "amount")
		if !ok || amount <= 0 {
			return models.ConsentResult{
				Outcome: models.ConsentFailed,
				Message: "Transaction amount is missing, the action was not executed",
			}, nil
		}
		if amount > account.AvailableCredit {
			return models.ConsentResult{
				Outcome: models.ConsentFailed,
				Message: fmt.Sprintf("The amount exceeds your available credit of %.2f, the action was not executed", account.AvailableCredit),
			}, nil
		}
	}

	params := make(map[string]interface{}, len(decision.ActionParams)+2)
	for k, v := range decision.ActionParams {
		params[k] = v
	}
	params["user_id"] = decision.UserID
	params["action"] = decision.Action

	response, err := e.execute(ctx, decision.Action, params)
	if err != nil {
		slog.Error("Executor.Decide: execution failed", "userID", decision.UserID, "action", decision.Action, "error", err)
		return models.ConsentResult{
			Outcome: models.ConsentFailed,
			Message: fmt.Sprintf("Error executing action: %v", err),
		}, nil
	}

	if err := e.applyState(decision, account, amount, response); err != nil {
		return models.ConsentResult{}, fmt.Errorf("Executor.Decide: %w", err)
	}

	e.dispatchNotification(*account, decision.Action)

	return models.ConsentResult{
		Outcome: models.ConsentExecuted,
		Message: fmt.Sprintf("Action '%s' executed successfully", decision.Action),
		Data:    response,
	}, nil
}

// lockAccount returns the mutex serializing decisions for one account.
func (e *Executor) lockAccount(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.accountLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.accountLocks[userID] = lock
	}
	return lock
}

// execute performs the single external call. Any transport failure, non-2xx
// status, or unsuccessful payload is an error; nothing is retried.
func (e *Executor) execute(ctx context.Context, action string, params map[string]interface{}) (*executionResponse, error) {
	endpoint, ok := actionEndpoints[action]
	if !ok {
		// Permissive fallback: unrecognized actions go to the generic
		// transactions endpoint.
		slog.Warn("Executor.execute: unknown action routed to transactions endpoint", "action", action)
		endpoint = transactionsPath
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode action params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build execution request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execution request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("execution endpoint returned status %d", resp.StatusCode)
	}

	var result executionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode execution response: %w", err)
	}
	if !result.Success {
		if result.Message != "" {
			return nil, fmt.Errorf("execution rejected: %s", result.Message)
		}
		return nil, fmt.Errorf("execution rejected by endpoint")
	}
	return &result, nil
}

// applyState writes the local state change implied by a confirmed execution.
func (e *Executor) applyState(decision models.ConsentDecision, account *models.Account, amount float64, response *executionResponse) error {
	switch decision.Action {
	case models.ActionBlockCard, models.ActionUnblockCard, models.ActionActivateCard:
		status := models.CardStatus(response.CardStatus)
		if !models.IsValidCardStatus(status) {
			if decision.Action == models.ActionBlockCard {
				status = models.CardStatusBlocked
			} else {
				status = models.CardStatusActive
			}
		}
		if err := e.store.UpdateCardStatus(decision.UserID, status); err != nil {
			return err
		}
		slog.Info("Executor.applyState: card status updated", "userID", decision.UserID, "status", status)

	case models.ActionMakeTransaction:
		transactionID := response.TransactionID
		if transactionID == "" {
			transactionID = util.GenerateTransactionID()
		}
		merchant, _ := decision.ActionParams["merchant"].(string)
		category, _ := decision.ActionParams["category"].(string)
		if category == "" {
			category = "general"
		}
		if err := e.store.AddTransaction(models.Transaction{
			TransactionID: transactionID,
			UserID:        decision.UserID,
			Amount:        amount,
			Merchant:      merchant,
			Category:      category,
			Date:          time.Now(),
			Status:        models.TransactionStatusCompleted,
		}); err != nil {
			return err
		}
		available := account.AvailableCredit - amount
		if available < 0 {
			available = 0
		}
		if err := e.store.UpdateAvailableCredit(decision.UserID, available); err != nil {
			return err
		}
		slog.Info("Executor.applyState: transaction recorded",
			"userID", decision.UserID, "transactionID", transactionID, "amount", amount, "available", available)

	case models.ActionMakePayment, models.ActionPayOverdue:
		paid, ok := paramFloat(decision.ActionParams, "amount")
		if !ok {
			return nil
		}
		billID, _ := decision.ActionParams["bill_id"].(string)
		if err := e.store.AddRepayment(models.Repayment{
			RepaymentID: util.GenerateRepaymentID(),
			UserID:      decision.UserID,
			Amount:      paid,
			Method:      "bank_transfer",
			Status:      "completed",
			PaymentDate: time.Now(),
			BillID:      billID,
		}); err != nil {
			return err
		}
		slog.Info("Executor.applyState: repayment recorded", "userID", decision.UserID, "amount", paid, "billID", billID)
	}
	return nil
}

// Wait blocks until all in-flight notification deliveries have finished.
// Call it during shutdown so completed actions still reach their channels.
func (e *Executor) Wait() {
	e.notifyWG.Wait()
}

// dispatchNotification sends the outcome summary without blocking the
// response path. Failures are logged inside the notifier and ignored here.
func (e *Executor) dispatchNotification(account models.Account, action string) {
	if e.notifier == nil {
		return
	}
	e.notifyWG.Add(1)
	go func() {
		defer e.notifyWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
		defer cancel()
		subject := "CardAssist: action completed"
		body := fmt.Sprintf("Hi %s, your request '%s' was executed successfully.", account.Name, action)
		if err := e.notifier.Notify(ctx, &account, subject, body); err != nil {
			slog.Error("Executor.dispatchNotification: notification failed", "userID", account.UserID, "error", err)
		}
	}()
}

// paramFloat reads a numeric action parameter, tolerating the types a JSON
// decode or an in-process caller may supply.
func paramFloat(params map[string]interface{}, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
