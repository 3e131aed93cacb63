// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"rulehub/internal/models"
)

// RuleStore handles rule persistence and the engagement counters.
type RuleStore struct {
	db *sql.DB
}

// NewRuleStore creates a new RuleStore with the given database connection.
func NewRuleStore(db *sql.DB) *RuleStore {
	return &RuleStore{db: db}
}

// RuleSelect is the projection shared by every rule read: the rule columns
// followed by the owning category's name, slug and icon. Callers append
// their own WHERE / ORDER BY and read rows with ScanRule.
const RuleSelect = `
	SELECT r.id, r.title, r.content, r.description, r.category_id, r.author_id,
	       r.status, r.views, r.likes, r.downloads, r.created_at, r.updated_at,
	       c.name, c.slug, c.icon
	FROM rules r
	JOIN categories c ON c.id = r.category_id`

// ScanRule scans one row of the RuleSelect projection.
func ScanRule(row scanner) (*models.Rule, error) {
	var r models.Rule
	err := row.Scan(
		&r.ID, &r.Title, &r.Content, &r.Description, &r.CategoryID, &r.AuthorID,
		&r.Status, &r.Views, &r.Likes, &r.Downloads, &r.CreatedAt, &r.UpdatedAt,
		&r.CategoryName, &r.CategorySlug, &r.CategoryIcon,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CollectRules drains rows of the RuleSelect projection. The result is
// never nil so it encodes as an empty JSON array.
func CollectRules(rows *sql.Rows) ([]models.Rule, error) {
	defer rows.Close()

	items := []models.Rule{}
	for rows.Next() {
		r, err := ScanRule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *r)
	}
	return items, rows.Err()
}

// RuleFilter narrows the public rule listing.
type RuleFilter struct {
	CategoryID *uuid.UUID
	Search     string // substring of title or content; empty disables
	Page       int    // 1-based
	Limit      int
}

// Offset returns the row offset for the filter's page and limit.
func (f RuleFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// normalize applies pagination defaults. The page is capped so Offset
// cannot overflow.
func (f RuleFilter) normalize() RuleFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	f.Limit = clampLimit(f.Limit, DefaultLimit)
	if maxPage := math.MaxInt/f.Limit + 1; f.Page > maxPage {
		f.Page = maxPage
	}
	return f
}

// where builds the WHERE clause and positional arguments for the filter.
func (f RuleFilter) where() (string, []any) {
	conds := []string{"r.status = 'approved'"}
	var args []any

	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		conds = append(conds, fmt.Sprintf("r.category_id = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, ContainsPattern(f.Search))
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`(r.title ILIKE $%d ESCAPE '\' OR r.content ILIKE $%d ESCAPE '\')`, n, n))
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns approved rules matching the filter, newest first.
func (s *RuleStore) List(ctx context.Context, f RuleFilter) ([]models.Rule, error) {
	if !ValidText(f.Search) {
		return []models.Rule{}, nil
	}
	f = f.normalize()
	where, args := f.where()
	args = append(args, f.Limit, f.Offset())

	query := RuleSelect + where + fmt.Sprintf(
		" ORDER BY r.created_at DESC, r.id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list rules", err)
	}
	items, err := CollectRules(rows)
	if err != nil {
		return nil, storageErr("scan rules", err)
	}
	return items, nil
}

// Count returns how many approved rules match the filter, ignoring paging.
func (s *RuleStore) Count(ctx context.Context, f RuleFilter) (int, error) {
	if !ValidText(f.Search) {
		return 0, nil
	}
	where, args := f.where()
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rules r`+where, args...).Scan(&n)
	if err != nil {
		return 0, storageErr("count rules", err)
	}
	return n, nil
}

// FindByID retrieves an approved rule with its category. Returns nil if the
// rule does not exist or is not approved.
func (s *RuleStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Rule, error) {
	row := s.db.QueryRowContext(ctx, RuleSelect+`
		WHERE r.id = $1 AND r.status = 'approved'
	`, id)
	r, err := ScanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find rule by id", err)
	}
	return r, nil
}

// Popular returns the most viewed approved rules; likes break ties.
func (s *RuleStore) Popular(ctx context.Context, limit int) ([]models.Rule, error) {
	rows, err := s.db.QueryContext(ctx, RuleSelect+`
		WHERE r.status = 'approved'
		ORDER BY r.views DESC, r.likes DESC, r.id
		LIMIT $1
	`, clampLimit(limit, 6))
	if err != nil {
		return nil, storageErr("popular rules", err)
	}
	items, err := CollectRules(rows)
	if err != nil {
		return nil, storageErr("scan rules", err)
	}
	return items, nil
}

// Related returns other approved rules from the same category, newest first.
func (s *RuleStore) Related(ctx context.Context, rule *models.Rule, limit int) ([]models.Rule, error) {
	rows, err := s.db.QueryContext(ctx, RuleSelect+`
		WHERE r.status = 'approved' AND r.category_id = $1 AND r.id <> $2
		ORDER BY r.created_at DESC, r.id
		LIMIT $3
	`, rule.CategoryID, rule.ID, clampLimit(limit, 3))
	if err != nil {
		return nil, storageErr("related rules", err)
	}
	items, err := CollectRules(rows)
	if err != nil {
		return nil, storageErr("scan rules", err)
	}
	return items, nil
}

// ListApproved returns every approved rule grouped by category slug.
func (s *RuleStore) ListApproved(ctx context.Context) ([]models.Rule, error) {
	rows, err := s.db.QueryContext(ctx, RuleSelect+`
		WHERE r.status = 'approved'
		ORDER BY c.slug, r.created_at, r.id
	`)
	if err != nil {
		return nil, storageErr("list approved rules", err)
	}
	items, err := CollectRules(rows)
	if err != nil {
		return nil, storageErr("scan rules", err)
	}
	return items, nil
}

// IncrementViews adds one view to a rule. Each call is a separate view, so
// two calls add two.
func (s *RuleStore) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return s.increment(ctx, "views", id)
}

// IncrementDownloads adds one download to a rule.
func (s *RuleStore) IncrementDownloads(ctx context.Context, id uuid.UUID) error {
	return s.increment(ctx, "downloads", id)
}

// increment bumps a counter column in a single statement so concurrent
// calls never lose an update.
func (s *RuleStore) increment(ctx context.Context, column string, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rules SET `+column+` = `+column+` + 1 WHERE id = $1`, id)
	if err != nil {
		return storageErr("increment "+column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("increment "+column, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// NewRule holds the fields a submitter provides.
type NewRule struct {
	Title       string
	Content     string
	Description string
	CategoryID  uuid.UUID
	AuthorID    *uuid.UUID
}

// Create inserts a rule awaiting moderation: status pending, counters zero.
// Tags named in tags are attached in the same transaction; names with no
// matching tag are skipped. Nothing is stored unless every step succeeds.
func (s *RuleStore) Create(ctx context.Context, in NewRule, tags ...string) (*models.Rule, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("create rule begin", err)
	}
	defer tx.Rollback()

	r := &models.Rule{
		Title:       in.Title,
		Content:     in.Content,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		AuthorID:    in.AuthorID,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO rules (title, content, description, category_id, author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, views, likes, downloads, created_at, updated_at
	`, in.Title, in.Content, in.Description, in.CategoryID, in.AuthorID,
	).Scan(&r.ID, &r.Status, &r.Views, &r.Likes, &r.Downloads, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrUnknownCategory
		}
		return nil, storageErr("create rule", err)
	}

	for _, name := range tags {
		tag, err := findTagByName(ctx, tx, strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		if tag == nil {
			continue
		}
		if err := attachTag(ctx, tx, r.ID, tag.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("create rule commit", err)
	}
	return r, nil
}
