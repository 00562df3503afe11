// Package agents implements the category-specific query handlers.
//
// Each agent answers read-only information queries directly and turns mutating
// requests into consent proposals. Sub-intent resolution inside an agent is an
// ordered rule list evaluated with fixed precedence, so the first matching rule
// wins.
package agents

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/BTreeMap/CardAssist/internal/models"
	"github.com/BTreeMap/CardAssist/internal/store"
)

// Agent is the contract every category handler implements. HandleInformation
// never requests consent; HandleAction either proposes a consent-gated action
// or refuses outright when a precondition fails.
type Agent interface {
	HandleInformation(ctx context.Context, query, userID string) (models.AgentResponse, error)
	HandleAction(ctx context.Context, query, userID string) (models.AgentResponse, error)
}

// Process routes a query to the agent operation matching the task type.
func Process(ctx context.Context, a Agent, query, userID string, taskType models.TaskType) (models.AgentResponse, error) {
	if taskType == models.TaskTypeAction {
		return a.HandleAction(ctx, query, userID)
	}
	return a.HandleInformation(ctx, query, userID)
}

// rule pairs a query predicate with the handler to run when it matches. Rules
// are evaluated in declaration order; precedence is the list order.
type rule struct {
	match  func(query string) bool
	handle func(ctx context.Context, query, userID string) (models.AgentResponse, error)
}

// evalRules runs the first matching rule against the lowercased query.
// The query passed to handlers keeps its original casing.
func evalRules(ctx context.Context, rules []rule, query, userID string) (models.AgentResponse, bool, error) {
	lower := strings.ToLower(query)
	for _, r := range rules {
		if r.match(lower) {
			resp, err := r.handle(ctx, query, userID)
			return resp, true, err
		}
	}
	return models.AgentResponse{}, false, nil
}

// containsAny reports whether the query contains any of the given substrings.
// Callers pass an already lowercased query and lowercase keywords.
func containsAny(query string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return false
}

func anyOf(keywords ...string) func(string) bool {
	return func(q string) bool { return containsAny(q, keywords...) }
}

func allOf(predicates ...func(string) bool) func(string) bool {
	return func(q string) bool {
		for _, p := range predicates {
			if !p(q) {
				return false
			}
		}
		return true
	}
}

// formatINR renders an amount as a rupee string with comma grouping and two
// decimals, e.g. 27000 -> "₹27,000.00".
func formatINR(amount float64) string {
	neg := amount < 0
	amount = math.Abs(amount)
	whole := int64(amount)
	frac := int64(math.Round((amount - float64(whole)) * 100))
	if frac >= 100 {
		whole++
		frac -= 100
	}

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	pre := len(digits) % 3
	if pre > 0 {
		b.WriteString(digits[:pre])
	}
	for i := pre; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s₹%s.%02d", sign, b.String(), frac)
}

// clarify builds the generic consent proposal returned when an action request
// matches no specific sub-intent.
func clarify(answer, action string) models.AgentResponse {
	return models.AgentResponse{
		Answer:          answer,
		RequiresConsent: true,
		Action:          action,
		ConsentMessage:  "Please specify the action you want to perform.",
	}
}

// refuse builds an immediate refusal. No action is proposed, so nothing can
// later be consented to.
func refuse(answer string) models.AgentResponse {
	return models.AgentResponse{Answer: answer, RequiresConsent: false}
}

// Registry maps categories to their agents. Unknown categories fall back to
// the account agent; the classifier never emits one, but the lookup stays
// closed over an open mapping.
type Registry struct {
	agents   map[models.Category]Agent
	fallback Agent
}

// NewRegistry constructs all six category agents over the given store.
func NewRegistry(st store.Store) *Registry {
	account := NewAccountAgent(st)
	return &Registry{
		agents: map[models.Category]Agent{
			models.CategoryAccount:     account,
			models.CategoryDelivery:    NewDeliveryAgent(st),
			models.CategoryTransaction: NewTransactionAgent(st),
			models.CategoryBill:        NewBillAgent(st),
			models.CategoryRepayment:   NewRepaymentAgent(st),
			models.CategoryCollections: NewCollectionsAgent(st),
		},
		fallback: account,
	}
}

// Get returns the agent for a category, defaulting to the account agent.
func (r *Registry) Get(category models.Category) Agent {
	if a, ok := r.agents[category]; ok {
		return a
	}
	slog.Warn("Registry.Get: unknown category, using account agent", "category", category)
	return r.fallback
}

// Process dispatches a classified query to its agent.
func (r *Registry) Process(ctx context.Context, classification models.ClassificationResult, query, userID string) (models.AgentResponse, error) {
	agent := r.Get(classification.Category)
	return Process(ctx, agent, query, userID, classification.TaskType)
}
