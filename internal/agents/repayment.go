package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/CardAssist/internal/models"
	"github.com/BTreeMap/CardAssist/internal/store"
)

// RepaymentAgent handles payment methods, history, and making payments.
type RepaymentAgent struct {
	store store.Store
}

// NewRepaymentAgent creates a repayment agent over the given store.
func NewRepaymentAgent(st store.Store) *RepaymentAgent {
	return &RepaymentAgent{store: st}
}

func (a *RepaymentAgent) HandleInformation(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	lower := strings.ToLower(query)

	if containsAny(lower, "history", "past") {
		repayments, err := a.store.ListRepayments(userID, 10)
		if err != nil {
			return models.AgentResponse{}, fmt.Errorf("RepaymentAgent.HandleInformation: %w", err)
		}
		if len(repayments) == 0 {
			return models.AgentResponse{Answer: "No repayment history found.", Data: []interface{}{}}, nil
		}

		repaymentList := make([]map[string]interface{}, 0, len(repayments))
		for _, p := range repayments {
			repaymentList = append(repaymentList, map[string]interface{}{
				"repayment_id":   p.RepaymentID,
				"amount":         p.Amount,
				"payment_method": p.Method,
				"status":         p.Status,
				"payment_date":   p.PaymentDate,
			})
		}
		return models.AgentResponse{
			Answer: fmt.Sprintf("You have %d repayment(s) in your history.", len(repaymentList)),
			Data:   repaymentList,
		}, nil
	}

	if containsAny(lower, "method", "how") {
		return models.AgentResponse{
			Answer: "You can make repayments using:\n1. Bank Transfer\n2. UPI\n3. Debit Card\n4. Net Banking",
			Data: map[string]interface{}{
				"methods": []string{"bank_transfer", "upi", "debit_card", "net_banking"},
			},
		}, nil
	}

	bill, err := a.store.GetLatestBill(userID)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("RepaymentAgent.HandleInformation: %w", err)
	}
	if bill == nil {
		return models.AgentResponse{Answer: "I can help you with repayment information. What would you like to know?"}, nil
	}
	return models.AgentResponse{
		Answer: fmt.Sprintf("Your current bill amount is %s. Minimum due: %s. Due date: %s",
			formatINR(bill.TotalAmount), formatINR(bill.MinimumDue), bill.DueDate.Format(billDateLayout)),
		Data: map[string]interface{}{
			"total_amount": bill.TotalAmount,
			"minimum_due":  bill.MinimumDue,
			"due_date":     bill.DueDate,
		},
	}, nil
}

func (a *RepaymentAgent) HandleAction(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	rules := []rule{
		{
			match:  anyOf("pay", "payment"),
			handle: a.proposePayment,
		},
		{
			match: anyOf("schedule"),
			handle: func(ctx context.Context, query, userID string) (models.AgentResponse, error) {
				return models.AgentResponse{
					Answer:          "I can help you schedule a payment for a future date.",
					RequiresConsent: true,
					Action:          models.ActionSchedulePayment,
					ConsentMessage:  "Do you want to schedule a payment?",
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
	return clarify("I can help you with repayment actions. What would you like to do?", models.ActionRepaymentGeneric), nil
}

// proposePayment offers to pay the minimum due, or the full bill amount when
// the query asks for it. An explicit amount in the query wins over both.
func (a *RepaymentAgent) proposePayment(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	account, err := a.store.GetAccount(userID)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("RepaymentAgent.proposePayment: %w", err)
	}
	if account != nil && account.CardStatus == models.CardStatusBlocked {
		slog.Debug("RepaymentAgent.proposePayment: card blocked", "userID", userID)
		return refuse("Your card is currently blocked, so I can't process a payment. Please unblock your card first."), nil
	}

	bill, err := a.store.GetLatestBill(userID)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("RepaymentAgent.proposePayment: %w", err)
	}
	if bill == nil {
		return refuse("No pending bill found for payment."), nil
	}

	lower := strings.ToLower(query)
	amount := bill.MinimumDue
	if containsAny(lower, "full", "total") {
		amount = bill.TotalAmount
	}
	if explicit, found := ExtractAmount(query); found {
		amount = explicit
	}

	return models.AgentResponse{
		Answer:          fmt.Sprintf("I can help you make a payment of %s.", formatINR(amount)),
		RequiresConsent: true,
		Action:          models.ActionMakePayment,
		ActionParams: map[string]interface{}{
			"amount":  amount,
			"bill_id": bill.BillID,
		},
		ConsentMessage: fmt.Sprintf("Do you want to proceed with payment of %s?", formatINR(amount)),
	}, nil
}
