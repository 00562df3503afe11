// Package classifier maps free-text credit card queries to a business
// category and a task type.
//
// Classification is two-tier: a primary GenAI completion returning structured
// JSON, and a deterministic keyword fallback used whenever the primary tier is
// disabled or misbehaves. Classify never fails; the pipeline always receives a
// usable result.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/CardAssist/internal/models"
)

// Completer is the minimal completion interface the primary tier needs.
// *genai.Client satisfies it.
type Completer interface {
	GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const systemPrompt = "You are a query classifier for a credit card assistant. Respond only with valid JSON."

const taxonomyPrompt = `Classify the following credit card customer query into one category and task type.

Categories:
- account: Account & Onboarding (account details, card activation, KYC, profile updates)
- delivery: Card Delivery (tracking, delivery status, address updates)
- transaction: Transaction & EMI (transaction history, EMI details, dispute transactions)
- bill: Bill & Statement (bill amount, due date, statement download, bill details)
- repayment: Repayments (payment methods, payment history, schedule payment)
- collections: Collections (overdue amounts, payment plans, settlement)

Task Types:
- information: Information Retrieval (read-only queries, no actions)
- action: Action Execution (requires user consent, modifies data or initiates transactions)

Query: %q

Respond ONLY in JSON format:
{
    "category": "one of: account, delivery, transaction, bill, repayment, collections",
    "task_type": "information or action",
    "reasoning": "brief explanation"
}`

// Category keyword lists for the fallback tier, evaluated in a fixed priority
// order: delivery, transaction, bill, repayment, collections, else account.
var categoryKeywords = []struct {
	category models.Category
	words    []string
}{
	{models.CategoryDelivery, []string{"delivery", "track", "ship", "card delivery"}},
	{models.CategoryTransaction, []string{"transaction", "emi", "purchase", "spent"}},
	{models.CategoryBill, []string{"bill", "statement", "due date", "invoice"}},
	{models.CategoryRepayment, []string{"payment", "repay", "pay", "settle"}},
	{models.CategoryCollections, []string{"overdue", "collection", "outstanding"}},
}

// Action-verb keywords. Card lifecycle verbs are checked first; they take
// precedence over the general phrasing list so "unblock my card" is always an
// action, never general phrasing.
var (
	cardActionVerbs    = []string{"block", "unblock", "activate", "deactivate"}
	generalActionVerbs = []string{"update", "change", "make", "do", "want to", "help me", "i want", "i need", "please"}
)

// Classifier assigns a category and task type to a raw query. It is stateless
// and safe for concurrent use.
type Classifier struct {
	completer Completer
}

// New creates a Classifier. A nil completer disables the primary tier and
// every query is classified by keyword matching.
func New(completer Completer) *Classifier {
	if completer == nil {
		slog.Info("Classifier.New: no completion client configured, using keyword fallback only")
	}
	return &Classifier{completer: completer}
}

// PrimaryEnabled reports whether the primary completion tier is configured.
func (c *Classifier) PrimaryEnabled() bool {
	return c.completer != nil
}

// completionResult is the JSON shape the primary tier must return.
type completionResult struct {
	Category  string `json:"category"`
	TaskType  string `json:"task_type"`
	Reasoning string `json:"reasoning"`
}

// Classify maps a query to a category and task type. It never returns an
// error: any primary-tier failure degrades to the keyword fallback.
func (c *Classifier) Classify(ctx context.Context, query string) models.ClassificationResult {
	if c.completer == nil {
		return c.fallbackClassify(query)
	}

	raw, err := c.completer.GeneratePrompt(ctx, systemPrompt, buildUserPrompt(query))
	if err != nil {
		slog.Warn("Classifier.Classify: completion failed, using fallback", "error", err)
		return c.fallbackClassify(query)
	}

	var parsed completionResult
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		slog.Warn("Classifier.Classify: malformed completion output, using fallback", "error", err)
		return c.fallbackClassify(query)
	}

	result := models.ClassificationResult{
		Category:  models.Category(parsed.Category),
		TaskType:  models.TaskType(parsed.TaskType),
		Reasoning: parsed.Reasoning,
	}
	if !models.IsValidCategory(result.Category) {
		slog.Warn("Classifier.Classify: invalid category from completion, substituting default", "category", parsed.Category)
		result.Category = models.DefaultCategory
	}
	if !models.IsValidTaskType(result.TaskType) {
		slog.Warn("Classifier.Classify: invalid task type from completion, substituting default", "task_type", parsed.TaskType)
		result.TaskType = models.DefaultTaskType
	}
	slog.Debug("Classifier.Classify: primary classification", "category", result.Category, "task_type", result.TaskType)
	return result
}

// fallbackClassify performs deterministic keyword classification. Category
// keywords are tested in fixed priority order; task type defaults to the safer
// information state unless an explicit action verb is present.
func (c *Classifier) fallbackClassify(query string) models.ClassificationResult {
	lower := strings.ToLower(query)

	category := models.DefaultCategory
	for _, entry := range categoryKeywords {
		if containsAny(lower, entry.words) {
			category = entry.category
			break
		}
	}

	taskType := models.TaskTypeInformation
	if containsAny(lower, cardActionVerbs) || containsAny(lower, generalActionVerbs) {
		taskType = models.TaskTypeAction
	}

	slog.Debug("Classifier.fallbackClassify: keyword classification", "category", category, "task_type", taskType)
	return models.ClassificationResult{
		Category:  category,
		TaskType:  taskType,
		Reasoning: "Fallback keyword-based classification",
	}
}

func buildUserPrompt(query string) string {
	return fmt.Sprintf(taxonomyPrompt, query)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// stripCodeFences removes a surrounding markdown code fence, which some models
// add despite the JSON-only instruction.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
