package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/CardAssist/internal/models"
	"github.com/BTreeMap/CardAssist/internal/store"
)

// AccountAgent handles account, card status, and profile queries.
type AccountAgent struct {
	store store.Store
}

// NewAccountAgent creates an account agent over the given store.
func NewAccountAgent(st store.Store) *AccountAgent {
	return &AccountAgent{store: st}
}

func (a *AccountAgent) HandleInformation(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	account, err := a.store.GetAccount(userID)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("AccountAgent.HandleInformation: %w", err)
	}
	if account == nil {
		slog.Debug("AccountAgent.HandleInformation: account not found", "userID", userID)
		return refuse("I couldn't find your account. Please contact customer support."), nil
	}

	lower := strings.ToLower(query)
	switch {
	case containsAny(lower, "balance", "available"):
		return models.AgentResponse{
			Answer: fmt.Sprintf("Your available credit is %s out of %s credit limit.",
				formatINR(account.AvailableCredit), formatINR(account.CreditLimit)),
			Data: map[string]interface{}{
				"available_credit": account.AvailableCredit,
				"credit_limit":     account.CreditLimit,
			},
		}, nil
	case containsAny(lower, "status", "active"):
		return models.AgentResponse{
			Answer: fmt.Sprintf("Your card status is %s. Card number: %s", account.CardStatus, account.CardNumber),
			Data: map[string]interface{}{
				"card_status": account.CardStatus,
				"card_number": account.CardNumber,
			},
		}, nil
	case containsAny(lower, "profile", "details"):
		return models.AgentResponse{
			Answer: fmt.Sprintf("Account Details:\nName: %s\nEmail: %s\nPhone: %s\nCard: %s",
				account.Name, account.Email, account.Phone, account.CardNumber),
			Data: map[string]interface{}{
				"name":        account.Name,
				"email":       account.Email,
				"phone":       account.Phone,
				"card_number": account.CardNumber,
			},
		}, nil
	default:
		return models.AgentResponse{
			Answer: fmt.Sprintf("Your account is %s. Available credit: %s",
				account.CardStatus, formatINR(account.AvailableCredit)),
			Data: map[string]interface{}{
				"user_id":     account.UserID,
				"card_status": account.CardStatus,
			},
		}, nil
	}
}

func (a *AccountAgent) HandleAction(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	cardWord := anyOf("card", "credit")

	// "unblock" is tested before "block" because the latter is a substring of
	// the former.
	rules := []rule{
		{
			match: allOf(anyOf("unblock"), cardWord),
			handle: func(ctx context.Context, query, userID string) (models.AgentResponse, error) {
				return models.AgentResponse{
					Answer:          "I can help you unblock your credit card. This will restore normal card functionality.",
					RequiresConsent: true,
					Action:          models.ActionUnblockCard,
					ConsentMessage:  "Do you want to unblock your credit card now?",
				}, nil
			},
		},
		{
			match: allOf(anyOf("block"), cardWord),
			handle: func(ctx context.Context, query, userID string) (models.AgentResponse, error) {
				return models.AgentResponse{
					Answer:          "I can help you block your credit card. This will prevent all transactions until you unblock it.",
					RequiresConsent: true,
					Action:          models.ActionBlockCard,
					ConsentMessage:  "Are you sure you want to block your credit card? This will prevent all transactions immediately.",
				}, nil
			},
		},
		{
			match: allOf(anyOf("update", "change"), anyOf("email")),
			handle: func(ctx context.Context, query, userID string) (models.AgentResponse, error) {
				return models.AgentResponse{
					Answer:          "I can help you update your email address. This will require verification.",
					RequiresConsent: true,
					Action:          models.ActionUpdateEmail,
					ConsentMessage:  "Do you want to proceed with updating your email address?",
				}, nil
			},
		},
		{
			match: allOf(anyOf("update", "change"), anyOf("phone")),
			handle: func(ctx context.Context, query, userID string) (models.AgentResponse, error) {
				return models.AgentResponse{
					Answer:          "I can help you update your phone number. This will require OTP verification.",
					RequiresConsent: true,
					Action:          models.ActionUpdatePhone,
					ConsentMessage:  "Do you want to proceed with updating your phone number?",
				}, nil
			},
		},
		{
			match: anyOf("update", "change"),
			handle: func(ctx context.Context, query, userID string) (models.AgentResponse, error) {
				return models.AgentResponse{
					Answer:          "I can help you update your profile information. What would you like to update?",
					RequiresConsent: true,
					Action:          models.ActionUpdateProfile,
					ConsentMessage:  "Please specify what information you want to update.",
				}, nil
			},
		},
		{
			match: anyOf("activate"),
			handle: func(ctx context.Context, query, userID string) (models.AgentResponse, error) {
				return models.AgentResponse{
					Answer:          "I can help you activate your credit card.",
					RequiresConsent: true,
					Action:          models.ActionActivateCard,
					ConsentMessage:  "Do you want to activate your credit card now?",
				}, nil
			},
		},
	}

	resp, matched, err := evalRules(ctx, rules, query, userID)
	if err != nil {
		return models.AgentResponse{}, err
	}
	if matched {
		return resp, nil
	}
	return clarify("I can help you with account-related actions. What would you like to do?", models.ActionAccountGeneric), nil
}
