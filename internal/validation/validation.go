package validation

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

// User and group ids travel inside conversation keys, where "_" is the
// participant separator, so the id alphabet excludes it.
var idRe = regexp.MustCompile(`^[a-zA-Z0-9-]{1,64}$`)

func ValidateID(id string) bool {
	return idRe.MatchString(id)
}

func NormalizeDisplayName(name string) string {
	return strings.TrimSpace(name)
}

func ValidateDisplayName(name string) bool {
	name = NormalizeDisplayName(name)
	return name != "" && len(name) <= 64
}

func NormalizeGroupName(name string) string {
	return strings.TrimSpace(name)
}

func ValidateGroupName(name string) bool {
	name = NormalizeGroupName(name)
	return name != "" && len(name) <= 128
}

func MaxMessageLength() int {
	maxStr := os.Getenv("MAX_MESSAGE_LENGTH")
	if maxStr == "" {
		return 4000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 4000
	}
	return max
}

func TrimAndLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}
