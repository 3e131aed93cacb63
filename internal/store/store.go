// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store implements the PostgreSQL persistence layer for categories,
// rules and tags. Every method takes a context so request cancellation
// reaches the driver.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrStorage marks a failure of the underlying database (connection
	// loss, malformed statement). Wrapped errors can be tested with errors.Is.
	ErrStorage = errors.New("storage failure")

	// ErrNotFound is returned by mutating methods whose target row does not
	// exist. Lookups return (nil, nil) instead.
	ErrNotFound = errors.New("not found")

	// ErrInvalidParent is returned when a category would be nested below a
	// missing category or below another child.
	ErrInvalidParent = errors.New("parent must be an existing root category")

	// ErrUnknownCategory is returned when a rule references a category that
	// does not exist.
	ErrUnknownCategory = errors.New("category does not exist")
)

// Pagination defaults shared by the rule listing and search.
const (
	DefaultLimit = 20
	MaxLimit     = 200
)

// Store bundles the individual stores around one connection pool. It is
// created once at startup and shared by all handlers.
type Store struct {
	Categories *CategoryStore
	Rules      *RuleStore
	Tags       *TagStore
}

// New returns a Store backed by db.
func New(db *sql.DB) *Store {
	return &Store{
		Categories: NewCategoryStore(db),
		Rules:      NewRuleStore(db),
		Tags:       NewTagStore(db),
	}
}

// storageErr wraps a driver error with the failing operation and ErrStorage.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// likeEscaper neutralises LIKE metacharacters so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns an ILIKE pattern matching s anywhere in a column.
// The statement must declare ESCAPE '\'.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// ValidText reports whether s can be sent to PostgreSQL as text. The
// server rejects NUL bytes and invalid UTF-8 with an encoding error, so
// callers treat such input as matching nothing.
func ValidText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}

// clampLimit applies the default and the upper bound to a row limit.
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
