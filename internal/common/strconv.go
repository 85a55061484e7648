package common

import (
	"strconv"
	"strings"
)

// AtoiDefault parses value as a base-10 integer, returning def for empty or
// malformed input.
func AtoiDefault(value string, def int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return def
	}
	n, err := strconv.ParseInt(trimmed, 10, 0)
	if err != nil {
		return def
	}
	return int(n)
}
