// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// RuleStatus represents the moderation state of a rule. Only approved rules
// are visible on the public site.
type RuleStatus string

const (
	RuleStatusPending  RuleStatus = "pending"
	RuleStatusApproved RuleStatus = "approved"
)

// Rule is a single catalog entry: a Markdown document filed under one
// category, with engagement counters that only ever grow.
type Rule struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Description string     `json:"description"`
	CategoryID  uuid.UUID  `json:"category_id"`
	AuthorID    *uuid.UUID `json:"author_id,omitempty"`
	Status      RuleStatus `json:"status"`
	Views       int64      `json:"views"`
	Likes       int64      `json:"likes"`
	Downloads   int64      `json:"downloads"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Joined from categories for display.
	CategoryName string `json:"category_name"`
	CategorySlug string `json:"category_slug"`
	CategoryIcon string `json:"category_icon"`
}

// IsApproved returns true if the rule has passed moderation.
func (r *Rule) IsApproved() bool {
	return r.Status == RuleStatusApproved
}
