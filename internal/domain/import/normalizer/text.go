package normalizer

import (
	"strings"
)

// CleanDescription trims the text and collapses every whitespace run, including
// the ideographic space, into a single ASCII space.
func CleanDescription(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// CleanName normalizes a category, account or user reference before lookup.
// Names stay case-sensitive. Surrounding whitespace is trimmed and NBSPs become spaces.
func CleanName(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", " "))
}
