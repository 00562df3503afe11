package agents

import (
	"regexp"
	"strconv"
	"strings"
)

// Amount extraction patterns, tried in order. First match wins.
var (
	currencySymbolAmount = regexp.MustCompile(`(?:₹|\$|\brs\.?)\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	currencyWordAmount   = regexp.MustCompile(`([0-9][0-9,]*(?:\.[0-9]+)?)\s*(?:rupees|rupee|rs\b|inr|dollars|dollar)`)
	contextVerbAmount    = regexp.MustCompile(`\b(?:for|of|pay|purchase|send|transfer|worth|amount)\b\s+(?:₹|\$|rs\.?)?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	bareDigitsAmount     = regexp.MustCompile(`([0-9][0-9,]*(?:\.[0-9]+)?)`)
)

// ExtractAmount pulls a monetary amount out of free query text. Patterns are
// tried in order: currency-symbol prefix, number followed by a currency word,
// number after a contextual verb, bare digits last. Comma grouping and
// decimals are accepted. Non-positive or unparsable values report no amount.
func ExtractAmount(query string) (float64, bool) {
	lower := strings.ToLower(query)
	for _, re := range []*regexp.Regexp{currencySymbolAmount, currencyWordAmount, contextVerbAmount, bareDigitsAmount} {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil || amount <= 0 {
			continue
		}
		return amount, true
	}
	return 0, false
}

// merchantPattern captures the merchant name following "at"/"from"/"on",
// e.g. "make a transaction for 1000 rupees at Amazon" -> "Amazon".
var merchantPattern = regexp.MustCompile(`(?i)\b(?:at|from|on)\s+([A-Za-z][A-Za-z0-9&'. -]*)`)

// ExtractMerchant pulls a merchant name out of free query text.
func ExtractMerchant(query string) (string, bool) {
	m := merchantPattern.FindStringSubmatch(query)
	if m == nil {
		return "", false
	}
	merchant := strings.TrimSpace(strings.TrimRight(m[1], ".?! "))
	if merchant == "" {
		return "", false
	}
	return merchant, true
}
