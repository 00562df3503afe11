package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/CardAssist/internal/models"
	"github.com/BTreeMap/CardAssist/internal/store"
)

// TransactionAgent handles transaction history, EMI, purchases, and disputes.
type TransactionAgent struct {
	store store.Store
}

// NewTransactionAgent creates a transaction agent over the given store.
func NewTransactionAgent(st store.Store) *TransactionAgent {
	return &TransactionAgent{store: st}
}

func (a *TransactionAgent) HandleInformation(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	lower := strings.ToLower(query)

	if strings.Contains(lower, "emi") {
		emis, err := a.store.ListEMITransactions(userID)
		if err != nil {
			return models.AgentResponse{}, fmt.Errorf("TransactionAgent.HandleInformation: %w", err)
		}
		if len(emis) == 0 {
			return models.AgentResponse{Answer: "You don't have any active EMI transactions.", Data: []interface{}{}}, nil
		}

		var totalEMI float64
		emiList := make([]map[string]interface{}, 0, len(emis))
		for _, t := range emis {
			totalEMI += t.EMIAmount
			emiList = append(emiList, map[string]interface{}{
				"transaction_id": t.TransactionID,
				"merchant":       t.Merchant,
				"total_amount":   t.Amount,
				"emi_tenure":     t.EMITenure,
				"emi_amount":     t.EMIAmount,
				"date":           t.Date,
			})
		}
		return models.AgentResponse{
			Answer: fmt.Sprintf("You have %d active EMI(s). Total EMI amount: %s", len(emiList), formatINR(totalEMI)),
			Data:   emiList,
		}, nil
	}

	if containsAny(lower, "recent", "last") {
		limit := 5
		if strings.Contains(lower, "10") {
			limit = 10
		}
		txns, err := a.store.ListTransactions(userID, limit)
		if err != nil {
			return models.AgentResponse{}, fmt.Errorf("TransactionAgent.HandleInformation: %w", err)
		}
		if len(txns) == 0 {
			return models.AgentResponse{Answer: "No recent transactions found.", Data: []interface{}{}}, nil
		}

		txnList := make([]map[string]interface{}, 0, len(txns))
		for _, t := range txns {
			txnList = append(txnList, map[string]interface{}{
				"transaction_id": t.TransactionID,
				"merchant":       t.Merchant,
				"amount":         t.Amount,
				"category":       t.Category,
				"date":           t.Date,
				"status":         t.Status,
			})
		}
		return models.AgentResponse{
			Answer: fmt.Sprintf("Here are your %d recent transactions.", len(txnList)),
			Data:   txnList,
		}, nil
	}

	txns, err := a.store.ListTransactions(userID, 10)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("TransactionAgent.HandleInformation: %w", err)
	}
	var total float64
	txnList := make([]map[string]interface{}, 0, len(txns))
	for _, t := range txns {
		total += t.Amount
		txnList = append(txnList, map[string]interface{}{
			"transaction_id": t.TransactionID,
			"merchant":       t.Merchant,
			"amount":         t.Amount,
			"date":           t.Date,
		})
	}
	return models.AgentResponse{
		Answer: fmt.Sprintf("You have %d transactions. Total amount: %s", len(txns), formatINR(total)),
		Data:   txnList,
	}, nil
}

func (a *TransactionAgent) HandleAction(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	rules := []rule{
		{
			match: anyOf("dispute", "chargeback"),
			handle: func(ctx context.Context, query, userID string) (models.AgentResponse, error) {
				return models.AgentResponse{
					Answer:          "I can help you dispute a transaction. Please provide the transaction ID.",
					RequiresConsent: true,
					Action:          models.ActionDispute,
					ConsentMessage:  "Do you want to file a dispute for this transaction?",
				}, nil
			},
		},
		{
			match: allOf(anyOf("convert"), anyOf("emi")),
			handle: func(ctx context.Context, query, userID string) (models.AgentResponse, error) {
				return models.AgentResponse{
					Answer:          "I can help you convert a transaction to EMI. Please provide the transaction ID.",
					RequiresConsent: true,
					Action:          models.ActionConvertToEMI,
					ConsentMessage:  "Do you want to convert this transaction to EMI?",
				}, nil
			},
		},
		{
			match:  anyOf("make", "purchase", "buy", "spend", "new transaction"),
			handle: a.proposeTransaction,
		},
	}

	resp, matched, err := evalRules(ctx, rules, query, userID)
	if err != nil {
		return models.AgentResponse{}, err
	}
	if matched {
		return resp, nil
	}
	return clarify("I can help you with transaction-related actions. What would you like to do?", models.ActionTransactionGeneric), nil
}

// proposeTransaction builds a make_transaction proposal after checking the
// card status and available credit. Both checks are hard stops: a refusal,
// not a consent prompt.
func (a *TransactionAgent) proposeTransaction(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	account, err := a.store.GetAccount(userID)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("TransactionAgent.proposeTransaction: %w", err)
	}
	if account == nil {
		return refuse("I couldn't find your account. Please contact customer support."), nil
	}
	if account.CardStatus == models.CardStatusBlocked {
		slog.Debug("TransactionAgent.proposeTransaction: card blocked", "userID", userID)
		return refuse("Your card is currently blocked, so I can't process a new transaction. Please unblock your card first."), nil
	}

	amount, found := ExtractAmount(query)
	if !found {
		return refuse("I couldn't determine the transaction amount. Please restate the amount, for example: make a transaction for ₹1,000 at Amazon."), nil
	}
	if amount > account.AvailableCredit {
		slog.Debug("TransactionAgent.proposeTransaction: insufficient credit",
			"userID", userID, "amount", amount, "available", account.AvailableCredit)
		return refuse(fmt.Sprintf("This transaction of %s exceeds your available credit of %s, so I can't process it.",
			formatINR(amount), formatINR(account.AvailableCredit))), nil
	}

	merchant, ok := ExtractMerchant(query)
	if !ok {
		merchant = "Online Purchase"
	}

	return models.AgentResponse{
		Answer:          fmt.Sprintf("I can make a transaction of %s at %s for you.", formatINR(amount), merchant),
		RequiresConsent: true,
		Action:          models.ActionMakeTransaction,
		ActionParams: map[string]interface{}{
			"amount":   amount,
			"merchant": merchant,
			"category": "general",
		},
		ConsentMessage: fmt.Sprintf("Do you want to proceed with a transaction of %s at %s?", formatINR(amount), merchant),
	}, nil
}
