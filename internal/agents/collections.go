package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/CardAssist/internal/models"
	"github.com/BTreeMap/CardAssist/internal/store"
)

// CollectionsAgent handles overdue amounts, payment plans, and settlement.
type CollectionsAgent struct {
	store store.Store
	now   func() time.Time
}

// NewCollectionsAgent creates a collections agent over the given store.
func NewCollectionsAgent(st store.Store) *CollectionsAgent {
	return &CollectionsAgent{store: st, now: time.Now}
}

func (a *CollectionsAgent) HandleInformation(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	lower := strings.ToLower(query)

	if containsAny(lower, "overdue", "outstanding") {
		bill, err := a.store.GetOverdueBill(userID)
		if err != nil {
			return models.AgentResponse{}, fmt.Errorf("CollectionsAgent.HandleInformation: %w", err)
		}
		if bill == nil {
			return models.AgentResponse{Answer: "You don't have any overdue amounts."}, nil
		}

		daysOverdue := int(a.now().Sub(bill.DueDate).Hours() / 24)
		return models.AgentResponse{
			Answer: fmt.Sprintf("You have an overdue amount of %s. Days overdue: %d. Please make payment to avoid further charges.",
				formatINR(bill.Outstanding()), daysOverdue),
			Data: map[string]interface{}{
				"overdue_amount": bill.Outstanding(),
				"days_overdue":   daysOverdue,
				"bill_id":        bill.BillID,
				"due_date":       bill.DueDate,
			},
		}, nil
	}

	if containsAny(lower, "plan", "settlement") {
		collection, err := a.store.GetCollectionCase(userID)
		if err != nil {
			return models.AgentResponse{}, fmt.Errorf("CollectionsAgent.HandleInformation: %w", err)
		}
		if collection != nil && collection.PaymentPlanOffered {
			return models.AgentResponse{
				Answer: "A payment plan has been offered for your account. Please contact customer support for details.",
				Data: map[string]interface{}{
					"payment_plan_offered": true,
					"status":               collection.Status,
				},
			}, nil
		}
		return models.AgentResponse{Answer: "I can help you understand payment plan options. Would you like to know more?"}, nil
	}

	collection, err := a.store.GetCollectionCase(userID)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("CollectionsAgent.HandleInformation: %w", err)
	}
	if collection == nil {
		slog.Debug("CollectionsAgent.HandleInformation: no collection case", "userID", userID)
		return models.AgentResponse{Answer: "You don't have any active collections cases."}, nil
	}
	return models.AgentResponse{
		Answer: fmt.Sprintf("Collections status: %s. Overdue amount: %s",
			collection.Status, formatINR(collection.OverdueAmount)),
		Data: map[string]interface{}{
			"status":         collection.Status,
			"overdue_amount": collection.OverdueAmount,
			"days_overdue":   collection.DaysOverdue,
		},
	}, nil
}

func (a *CollectionsAgent) HandleAction(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	rules := []rule{
		{
			match: anyOf("plan", "settlement"),
			handle: func(ctx context.Context, query, userID string) (models.AgentResponse, error) {
				return models.AgentResponse{
					Answer:          "I can help you set up a payment plan or settlement. This requires approval.",
					RequiresConsent: true,
					Action:          models.ActionPaymentPlan,
					ConsentMessage:  "Do you want to request a payment plan? A representative will contact you.",
				}, nil
			},
		},
		{
			match:  anyOf("pay"),
			handle: a.proposeOverduePayment,
		},
	}

	resp, matched, err := evalRules(ctx, rules, query, userID)
	if err != nil {
		return models.AgentResponse{}, err
	}
	if matched {
		return resp, nil
	}
	return clarify("I can help you with collections-related actions. What would you like to do?", models.ActionCollectionsGeneric), nil
}

// proposeOverduePayment offers to clear the outstanding amount on the overdue
// bill. No overdue bill is a hard stop, not a consent prompt.
func (a *CollectionsAgent) proposeOverduePayment(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	account, err := a.store.GetAccount(userID)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("CollectionsAgent.proposeOverduePayment: %w", err)
	}
	if account != nil && account.CardStatus == models.CardStatusBlocked {
		return refuse("Your card is currently blocked, so I can't process a payment. Please unblock your card first."), nil
	}

	bill, err := a.store.GetOverdueBill(userID)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("CollectionsAgent.proposeOverduePayment: %w", err)
	}
	if bill == nil {
		return refuse("No overdue amount found."), nil
	}

	outstanding := bill.Outstanding()
	return models.AgentResponse{
		Answer:          fmt.Sprintf("I can help you make a payment of %s to clear your overdue amount.", formatINR(outstanding)),
		RequiresConsent: true,
		Action:          models.ActionPayOverdue,
		ActionParams: map[string]interface{}{
			"amount":  outstanding,
			"bill_id": bill.BillID,
		},
		ConsentMessage: fmt.Sprintf("Do you want to proceed with payment of %s?", formatINR(outstanding)),
	}, nil
}
