package util

import (
	"fmt"
	"strconv"
	"strings"
)

// Uint64ToString converts uint64 to string
func Uint64ToString(n uint64) string {
	return strconv.FormatUint(n, 10)
}

// StringToUint64 converts string to uint64
func StringToUint64(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse uint64: %w", err)
	}
	return n, nil
}

// ParseUserID accepts a numeric snowflake or a <@id> / <@!id> mention and
// returns the canonical decimal id.
func ParseUserID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<@") && strings.HasSuffix(s, ">") {
		s = strings.TrimPrefix(strings.TrimSuffix(s[2:], ">"), "!")
	}

	n, err := StringToUint64(s)
	if err != nil {
		return "", fmt.Errorf("invalid user id %q: %w", s, err)
	}
	if n == 0 {
		return "", fmt.Errorf("invalid user id %q: must be positive", s)
	}
	return Uint64ToString(n), nil
}

// IsSnowflake reports whether s is a non-empty decimal id.
func IsSnowflake(s string) bool {
	if s == "" {
		return false
	}
	_, err := StringToUint64(s)
	return err == nil
}
