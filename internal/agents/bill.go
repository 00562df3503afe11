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

// billDateLayout formats due dates the way statements show them.
const billDateLayout = "January 2, 2006"

// BillAgent handles bill amounts, due dates, and statements.
type BillAgent struct {
	store store.Store
	now   func() time.Time
}

// NewBillAgent creates a bill agent over the given store.
func NewBillAgent(st store.Store) *BillAgent {
	return &BillAgent{store: st, now: time.Now}
}

func (a *BillAgent) HandleInformation(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	bill, err := a.store.GetLatestBill(userID)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("BillAgent.HandleInformation: %w", err)
	}
	if bill == nil {
		slog.Debug("BillAgent.HandleInformation: no bill found", "userID", userID)
		return refuse("I couldn't find any bill information for your account."), nil
	}

	lower := strings.ToLower(query)
	switch {
	case containsAny(lower, "due date", "due"):
		daysRemaining := int(bill.DueDate.Sub(a.now()).Hours() / 24)
		return models.AgentResponse{
			Answer: fmt.Sprintf("Your bill due date is %s. You have %d days remaining. Total amount: %s",
				bill.DueDate.Format(billDateLayout), daysRemaining, formatINR(bill.TotalAmount)),
			Data: map[string]interface{}{
				"due_date":       bill.DueDate,
				"total_amount":   bill.TotalAmount,
				"minimum_due":    bill.MinimumDue,
				"days_remaining": daysRemaining,
			},
		}, nil
	case containsAny(lower, "amount", "total"):
		return models.AgentResponse{
			Answer: fmt.Sprintf("Your current bill amount is %s. Minimum due: %s",
				formatINR(bill.TotalAmount), formatINR(bill.MinimumDue)),
			Data: map[string]interface{}{
				"total_amount": bill.TotalAmount,
				"minimum_due":  bill.MinimumDue,
				"paid_amount":  bill.PaidAmount,
				"outstanding":  bill.Outstanding(),
			},
		}, nil
	case containsAny(lower, "statement", "download"):
		return models.AgentResponse{
			Answer: fmt.Sprintf("I can help you download your statement. Bill ID: %s, Amount: %s",
				bill.BillID, formatINR(bill.TotalAmount)),
			Data: map[string]interface{}{
				"bill_id":       bill.BillID,
				"bill_date":     bill.BillDate,
				"statement_url": bill.StatementURL,
			},
		}, nil
	default:
		return models.AgentResponse{
			Answer: fmt.Sprintf("Your current bill: %s, Due date: %s, Status: %s",
				formatINR(bill.TotalAmount), bill.DueDate.Format(billDateLayout), bill.Status),
			Data: map[string]interface{}{
				"bill_id":      bill.BillID,
				"total_amount": bill.TotalAmount,
				"due_date":     bill.DueDate,
				"status":       bill.Status,
			},
		}, nil
	}
}

func (a *BillAgent) HandleAction(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	rules := []rule{
		{
			match: allOf(anyOf("email"), anyOf("statement")),
			handle: func(ctx context.Context, query, userID string) (models.AgentResponse, error) {
				return models.AgentResponse{
					Answer:          "I can email your statement to your registered email address.",
					RequiresConsent: true,
					Action:          models.ActionEmailStmt,
					ConsentMessage:  "Do you want to email the statement to your registered email?",
				}, nil
			},
		},
		{
			match: anyOf("download", "statement"),
			handle: func(ctx context.Context, query, userID string) (models.AgentResponse, error) {
				return models.AgentResponse{
					Answer:          "I can help you download your statement PDF.",
					RequiresConsent: true,
					Action:          models.ActionDownloadStmt,
					ConsentMessage:  "Do you want to download your statement now?",
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
	return clarify("I can help you with bill-related actions. What would you like to do?", models.ActionBillGeneric), nil
}
