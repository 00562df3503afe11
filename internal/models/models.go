// Package models defines the core data structures for CardAssist.
//
// It includes the classification, agent response, and consent types that are
// shared across the classifier, agents, executor, and API modules.
package models

import "errors"

// Category identifies the business domain a query is routed to.
type Category string

const (
	// CategoryAccount covers account details, card activation, and profile updates.
	CategoryAccount Category = "account"
	// CategoryDelivery covers card delivery tracking and address changes.
	CategoryDelivery Category = "delivery"
	// CategoryTransaction covers transaction history, EMI, purchases, and disputes.
	CategoryTransaction Category = "transaction"
	// CategoryBill covers bill amounts, due dates, and statements.
	CategoryBill Category = "bill"
	// CategoryRepayment covers payment methods, history, and making payments.
	CategoryRepayment Category = "repayment"
	// CategoryCollections covers overdue amounts, payment plans, and settlement.
	CategoryCollections Category = "collections"
)

// DefaultCategory is substituted when the primary classifier returns an
// unrecognized category.
const DefaultCategory = CategoryAccount

// IsValidCategory checks if the given category is one of the six supported domains.
func IsValidCategory(c Category) bool {
	switch c {
	case CategoryAccount, CategoryDelivery, CategoryTransaction, CategoryBill, CategoryRepayment, CategoryCollections:
		return true
	default:
		return false
	}
}

// TaskType identifies whether a query is read-only or mutating.
type TaskType string

const (
	// TaskTypeInformation is a read-only query; no consent is ever required.
	TaskTypeInformation TaskType = "information"
	// TaskTypeAction is a mutating request; execution requires explicit consent.
	TaskTypeAction TaskType = "action"
)

// DefaultTaskType is the safe default when intent is ambiguous: information
// never reaches the consent gate or the execution endpoint.
const DefaultTaskType = TaskTypeInformation

// IsValidTaskType checks if the given task type is supported.
func IsValidTaskType(tt TaskType) bool {
	switch tt {
	case TaskTypeInformation, TaskTypeAction:
		return true
	default:
		return false
	}
}

// ClassificationResult is the outcome of classifying a single query. It is
// produced fresh per query and consumed immediately by the dispatcher.
type ClassificationResult struct {
	Category  Category `json:"category"`
	TaskType  TaskType `json:"task_type"`
	Reasoning string   `json:"reasoning,omitempty"`
}

// Symbolic action identifiers emitted by agents and consumed by the executor.
const (
	ActionBlockCard       = "block_card"
	ActionUnblockCard     = "unblock_card"
	ActionActivateCard    = "activate_card"
	ActionUpdateEmail     = "update_email"
	ActionUpdatePhone     = "update_phone"
	ActionUpdateProfile   = "update_profile"
	ActionUpdateAddress   = "update_delivery_address"
	ActionReschedule      = "reschedule_delivery"
	ActionMakeTransaction = "make_transaction"
	ActionDispute         = "dispute_transaction"
	ActionConvertToEMI    = "convert_to_emi"
	ActionDownloadStmt    = "download_statement"
	ActionEmailStmt       = "email_statement"
	ActionMakePayment     = "make_payment"
	ActionSchedulePayment = "schedule_payment"
	ActionPaymentPlan     = "setup_payment_plan"
	ActionPayOverdue      = "pay_overdue"

	// Generic clarification actions returned when a sub-intent cannot be resolved.
	ActionAccountGeneric     = "account_action"
	ActionDeliveryGeneric    = "delivery_action"
	ActionTransactionGeneric = "transaction_action"
	ActionBillGeneric        = "bill_action"
	ActionRepaymentGeneric   = "repayment_action"
	ActionCollectionsGeneric = "collections_action"
)

// Error variables for better error handling and testability
var (
	ErrEmptyQuery            = errors.New("query cannot be empty")
	ErrEmptyUserID           = errors.New("user_id cannot be empty")
	ErrMissingAction         = errors.New("action is required when consent is requested")
	ErrMissingConsentMessage = errors.New("consent message is required when consent is requested")
	ErrMissingDecisionAction = errors.New("action is required for a consent decision")
)

// AgentResponse is the contract every category agent returns.
//
// Invariant: RequiresConsent == true implies Action and ConsentMessage are
// non-empty. RequiresConsent == false implies no side effect has occurred or
// will occur as a result of the call that produced it.
type AgentResponse struct {
	Answer          string                 `json:"answer"`
	Data            interface{}            `json:"data,omitempty"`
	RequiresConsent bool                   `json:"requires_consent"`
	Action          string                 `json:"action,omitempty"`
	ActionParams    map[string]interface{} `json:"action_params,omitempty"`
	ConsentMessage  string                 `json:"consent_message,omitempty"`
}

// Validate checks the consent invariant on an AgentResponse.
func (r *AgentResponse) Validate() error {
	if r.RequiresConsent {
		if r.Action == "" {
			return ErrMissingAction
		}
		if r.ConsentMessage == "" {
			return ErrMissingConsentMessage
		}
	}
	return nil
}

// ConsentDecision is the caller's accept/reject verdict for a previously
// proposed action. It is ephemeral: the caller carries Action and ActionParams
// forward from the AgentResponse that proposed them.
type ConsentDecision struct {
	UserID       string                 `json:"user_id"`
	Action       string                 `json:"action"`
	ActionParams map[string]interface{} `json:"action_params,omitempty"`
	Consent      bool                   `json:"consent"`
}

// Validate checks required fields on a ConsentDecision.
func (d *ConsentDecision) Validate() error {
	if d.UserID == "" {
		return ErrEmptyUserID
	}
	if d.Consent && d.Action == "" {
		return ErrMissingDecisionAction
	}
	return nil
}

// ConsentOutcome is the terminal state of a consent decision.
type ConsentOutcome string

const (
	// ConsentRejected indicates the user declined; nothing was executed.
	ConsentRejected ConsentOutcome = "rejected"
	// ConsentExecuted indicates the action was executed successfully.
	ConsentExecuted ConsentOutcome = "executed"
	// ConsentFailed indicates validation or execution failed; no state was changed.
	ConsentFailed ConsentOutcome = "failed"
)

// ConsentResult is returned by the executor after processing a decision.
type ConsentResult struct {
	Outcome ConsentOutcome `json:"outcome"`
	Message string         `json:"message"`
	Data    interface{}    `json:"data,omitempty"`
}

// ChatRequest is the payload for the /chat and /classify endpoints.
type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// Validate checks required fields on a ChatRequest.
func (r *ChatRequest) Validate() error {
	if r.Message == "" {
		return ErrEmptyQuery
	}
	if r.UserID == "" {
		return ErrEmptyUserID
	}
	return nil
}

// ChatResult pairs an agent response with the classification that routed it.
type ChatResult struct {
	Response       AgentResponse        `json:"response"`
	Classification ClassificationResult `json:"classification"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
