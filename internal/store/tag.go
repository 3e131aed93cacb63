// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"rulehub/internal/models"
)

// TagStore manages tags and their attachment to rules.
type TagStore struct {
	db *sql.DB
}

// NewTagStore returns a new TagStore.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

func collectTags(rows *sql.Rows) ([]models.Tag, error) {
	defer rows.Close()

	items := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// List returns all tags ordered by name.
func (s *TagStore) List(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, storageErr("list tags", err)
	}
	items, err := collectTags(rows)
	if err != nil {
		return nil, storageErr("scan tags", err)
	}
	return items, nil
}

// ForRule returns the tags attached to a rule, ordered by name.
func (s *TagStore) ForRule(ctx context.Context, ruleID uuid.UUID) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, t.created_at
		FROM tags t
		JOIN rule_tags rt ON rt.tag_id = t.id
		WHERE rt.rule_id = $1
		ORDER BY t.name
	`, ruleID)
	if err != nil {
		return nil, storageErr("tags for rule", err)
	}
	items, err := collectTags(rows)
	if err != nil {
		return nil, storageErr("scan tags", err)
	}
	return items, nil
}

// FindByName retrieves a tag by its unique name. Returns nil if not found.
func (s *TagStore) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	return findTagByName(ctx, s.db, name)
}

// Attach links a tag to a rule. Attaching twice is a no-op.
func (s *TagStore) Attach(ctx context.Context, ruleID, tagID uuid.UUID) error {
	return attachTag(ctx, s.db, ruleID, tagID)
}

func findTagByName(ctx context.Context, q querier, name string) (*models.Tag, error) {
	var t models.Tag
	err := q.QueryRowContext(ctx,
		`SELECT id, name, color, created_at FROM tags WHERE name = $1`, name,
	).Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find tag by name", err)
	}
	return &t, nil
}

func attachTag(ctx context.Context, q querier, ruleID, tagID uuid.UUID) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO rule_tags (rule_id, tag_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, ruleID, tagID)
	if err != nil {
		return storageErr("attach tag", err)
	}
	return nil
}
