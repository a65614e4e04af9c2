// Package strings provides string helpers shared by config parsing.
package strings

import (
	"strings"
)

// SplitList splits a comma separated value, trimming whitespace and dropping
// empty and repeated elements. Order of first occurrence is preserved.
//
// Example:
//
//	SplitList(" a:9092, b:9092,,a:9092 ")
//	// Returns: []string{"a:9092", "b:9092"}
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var result []string
	seen := make(map[string]struct{})
	for part := range strings.SplitSeq(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}
