// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// SuggestionType tells the autocomplete widget where a suggestion came from.
type SuggestionType string

const (
	SuggestionRule     SuggestionType = "rule"
	SuggestionCategory SuggestionType = "category"
)

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Suggestion string         `json:"suggestion"`
	Type       SuggestionType `json:"type"`
}
