// Package util provides utility functions for the CardAssist application.
package util

import (
	"math/rand"
	"strings"
)

// GenerateRandomID generates a random ID with the specified prefix and hex length.
// The returned ID will be in the format: "{prefix}{hex_string}".
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex generates a random hexadecimal string of the specified length.
// Uses math/rand; intended for non-cryptographic identifiers.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}

	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.Intn(16)])
	}

	return builder.String()
}

// GenerateTransactionID generates a unique transaction ID with "TXN" prefix.
func GenerateTransactionID() string {
	return "TXN" + strings.ToUpper(GenerateRandomHex(12))
}

// GenerateRepaymentID generates a unique repayment ID with "RPY" prefix.
func GenerateRepaymentID() string {
	return "RPY" + strings.ToUpper(GenerateRandomHex(12))
}
