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

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, slug, description, icon, parent_id, created_at, updated_at`

// categoryWithCounts selects every category column plus the number of
// approved rules filed directly under it and the parent's name.
const categoryWithCounts = `
	SELECT c.id, c.name, c.slug, c.description, c.icon, c.parent_id,
	       c.created_at, c.updated_at,
	       COUNT(r.id) AS rule_count,
	       p.name AS parent_name
	FROM categories c
	LEFT JOIN rules r ON r.category_id = c.id AND r.status = 'approved'
	LEFT JOIN categories p ON p.id = c.parent_id`

// scanCategory scans a row into a Category struct.
func scanCategory(row scanner) (*models.Category, error) {
	var c models.Category
	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon,
		&c.ParentID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// scanCategoryWithCounts scans the categoryWithCounts projection.
func scanCategoryWithCounts(row scanner) (*models.Category, error) {
	var c models.Category
	var parentName sql.NullString
	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon,
		&c.ParentID, &c.CreatedAt, &c.UpdatedAt,
		&c.RuleCount, &parentName,
	)
	if err != nil {
		return nil, err
	}
	if parentName.Valid {
		c.ParentName = &parentName.String
	}
	return &c, nil
}

// List returns all categories with their approved rule counts. Root
// categories come first, then children; each group is sorted by name.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, categoryWithCounts+`
		GROUP BY c.id, p.name
		ORDER BY c.parent_id IS NOT NULL, c.name
	`)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		c, err := scanCategoryWithCounts(rows)
		if err != nil {
			return nil, storageErr("scan category", err)
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list categories", err)
	}
	return items, nil
}

// Tree returns the root categories with their children attached.
func (s *CategoryStore) Tree(ctx context.Context) ([]models.Category, error) {
	flat, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return buildTree(flat), nil
}

// buildTree groups a flat, roots-first list into roots with children.
// Child order follows the input order.
func buildTree(flat []models.Category) []models.Category {
	roots := []models.Category{}
	index := make(map[uuid.UUID]int)
	for _, c := range flat {
		if c.ParentID == nil {
			index[c.ID] = len(roots)
			roots = append(roots, c)
		}
	}
	for _, c := range flat {
		if c.ParentID == nil {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			roots[i].Children = append(roots[i].Children, c)
		}
	}
	return roots
}

// FindBySlug retrieves a category with its rule count. Returns nil if not found.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	if !ValidText(slug) {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, categoryWithCounts+`
		WHERE c.slug = $1
		GROUP BY c.id, p.name
	`, slug)
	c, err := scanCategoryWithCounts(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find category by slug", err)
	}
	return c, nil
}

// FindByID retrieves a category with its rule count. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, categoryWithCounts+`
		WHERE c.id = $1
		GROUP BY c.id, p.name
	`, id)
	c, err := scanCategoryWithCounts(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find category by id", err)
	}
	return c, nil
}

// Create inserts a new category and returns it. A parent, when given, must
// be an existing root category.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	if c.ParentID != nil {
		var grandparent *uuid.UUID
		err := s.db.QueryRowContext(ctx,
			`SELECT parent_id FROM categories WHERE id = $1`, *c.ParentID,
		).Scan(&grandparent)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidParent
		}
		if err != nil {
			return nil, storageErr("check category parent", err)
		}
		if grandparent != nil {
			return nil, ErrInvalidParent
		}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description, icon, parent_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.Description, c.Icon, c.ParentID,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, storageErr("create category", err)
	}
	return result, nil
}

// Count returns the total number of categories.
func (s *CategoryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, storageErr("count categories", err)
	}
	return n, nil
}
