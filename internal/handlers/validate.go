package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for submitted rules.
const (
	maxTitleLen       = 300
	maxDescriptionLen = 1_000
	maxContentLen     = 100_000
)

// validateRule checks a rule submission and returns the first error found.
func validateRule(title, description, content string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 1,000 characters)."
	}
	if strings.TrimSpace(content) == "" {
		return "Content is required."
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return "Content is too long (max 100,000 characters)."
	}
	return ""
}
