// Package sanitizer normalizes user-supplied text before validation
// and storage. All functions are idempotent and never return errors;
// bad input degrades to an empty string.
package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims surrounding whitespace and collapses internal
// whitespace runs to a single space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}
	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeEmail lowercases in addition to whitespace cleanup so
// unique-email lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(TrimAndNormalize(email))
}

func NormalizeTitle(title string) string {
	return TrimAndNormalize(title)
}

// NormalizeComment keeps line breaks (comments are free text) but
// trims the ends and strips carriage returns.
func NormalizeComment(comment string) string {
	comment = strings.ReplaceAll(comment, "\r", "")
	return strings.TrimSpace(comment)
}
