// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package search implements full-text rule search and the autocomplete
// suggestions shown under the search box. Matching is a case-insensitive
// substring test backed by the pg_trgm indexes; user input is bound as a
// parameter and LIKE metacharacters in it match literally.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"rulehub/internal/models"
	"rulehub/internal/store"
)

const (
	// DefaultSearchLimit applies when Rules is called with limit <= 0.
	DefaultSearchLimit = 20

	// DefaultSuggestionLimit applies when Suggestions is called with limit <= 0.
	DefaultSuggestionLimit = 5

	// MaxSuggestionLimit caps the number of suggestions per call.
	MaxSuggestionLimit = 50

	// MinPrefixLength is the shortest trimmed prefix that yields suggestions.
	MinPrefixLength = 2
)

// Options tunes engine behaviour.
type Options struct {
	// SuggestApprovedOnly restricts title suggestions to approved rules.
	// Off by default: titles of pending rules are suggested, while Rules
	// never returns them.
	SuggestApprovedOnly bool
}

// Engine runs search queries against the catalog. It is safe for
// concurrent use.
type Engine struct {
	db   *sql.DB
	opts Options
}

// New creates an Engine over db.
func New(db *sql.DB, opts Options) *Engine {
	return &Engine{db: db, opts: opts}
}

// Rules returns approved rules whose title, description or content contains
// query, most viewed first and newest first among equals. A blank query, or
// one PostgreSQL cannot accept as text, returns an empty slice without
// touching the database. When categoryID is set, only rules filed directly
// under that category are considered.
func (e *Engine) Rules(ctx context.Context, query string, categoryID *uuid.UUID, limit int) ([]models.Rule, error) {
	if strings.TrimSpace(query) == "" || !store.ValidText(query) {
		return []models.Rule{}, nil
	}

	args := []any{store.ContainsPattern(query)}
	q := store.RuleSelect + `
		WHERE r.status = 'approved'
		  AND (r.title ILIKE $1 ESCAPE '\' OR r.description ILIKE $1 ESCAPE '\' OR r.content ILIKE $1 ESCAPE '\')`
	if categoryID != nil {
		args = append(args, *categoryID)
		q += fmt.Sprintf(" AND r.category_id = $%d", len(args))
	}
	args = append(args, searchLimit(limit))
	q += fmt.Sprintf(" ORDER BY r.views DESC, r.created_at DESC, r.id LIMIT $%d", len(args))

	rows, err := e.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storageErr("search rules", err)
	}
	items, err := store.CollectRules(rows)
	if err != nil {
		return nil, storageErr("scan search results", err)
	}
	return items, nil
}

// Suggestions returns autocomplete entries for prefix: rule titles first,
// then category names, at most limit in total. Titles take the larger half
// of the budget. Prefixes shorter than MinPrefixLength after trimming yield
// an empty slice without touching the database.
func (e *Engine) Suggestions(ctx context.Context, prefix string, limit int) ([]models.Suggestion, error) {
	if utf8.RuneCountInString(strings.TrimSpace(prefix)) < MinPrefixLength || !store.ValidText(prefix) {
		return []models.Suggestion{}, nil
	}

	limit = suggestionLimit(limit)
	titleCap := (limit + 1) / 2
	categoryCap := limit / 2
	pattern := store.ContainsPattern(prefix)

	titleQuery := `SELECT DISTINCT title FROM rules WHERE title ILIKE $1 ESCAPE '\'`
	if e.opts.SuggestApprovedOnly {
		titleQuery += ` AND status = 'approved'`
	}
	titleQuery += ` ORDER BY title LIMIT $2`

	out := make([]models.Suggestion, 0, limit)
	titles, err := e.distinct(ctx, titleQuery, pattern, titleCap)
	if err != nil {
		return nil, storageErr("suggest rule titles", err)
	}
	for _, t := range titles {
		out = append(out, models.Suggestion{Suggestion: t, Type: models.SuggestionRule})
	}

	if categoryCap > 0 {
		names, err := e.distinct(ctx,
			`SELECT DISTINCT name FROM categories WHERE name ILIKE $1 ESCAPE '\' ORDER BY name LIMIT $2`,
			pattern, categoryCap)
		if err != nil {
			return nil, storageErr("suggest category names", err)
		}
		for _, n := range names {
			out = append(out, models.Suggestion{Suggestion: n, Type: models.SuggestionCategory})
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// distinct runs a single-column query and collects the strings.
func (e *Engine) distinct(ctx context.Context, query, pattern string, limit int) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, query, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vals []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		vals = append(vals, s)
	}
	return vals, rows.Err()
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, store.ErrStorage, err)
}

func searchLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > store.MaxLimit {
		return store.MaxLimit
	}
	return limit
}

func suggestionLimit(limit int) int {
	if limit <= 0 {
		return DefaultSuggestionLimit
	}
	if limit > MaxSuggestionLimit {
		return MaxSuggestionLimit
	}
	return limit
}
