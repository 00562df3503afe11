package util

import (
	"log/slog"
	"os"
	"strings"
)

// ParseBoolEnv reads the environment variable key as a boolean.
// true/1/yes/on and false/0/no/off are recognized regardless of case;
// anything else, including an unset variable, yields defaultValue.
func ParseBoolEnv(key string, defaultValue bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch raw {
	case "":
		return defaultValue
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	slog.Warn("ParseBoolEnv: unrecognized boolean value, using default", "key", key, "value", raw, "default", defaultValue)
	return defaultValue
}
