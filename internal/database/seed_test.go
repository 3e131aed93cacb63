package database_test

import (
	"context"
	"testing"

	"rulehub/internal/database"
	"rulehub/internal/database/dbtest"
)

func TestSeedIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	if err := database.Seed(ctx, db); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := database.Seed(ctx, db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	counts := map[string]int{
		"categories": 16,
		"tags":       12,
		"rules":      6,
	}
	for table, want := range counts {
		var got int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&got); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if got != want {
			t.Errorf("%s: got %d rows, want %d", table, got, want)
		}
	}
}

func TestSeedTreeIsTwoLevels(t *testing.T) {
	db := dbtest.Open(t)
	if err := database.Seed(context.Background(), db); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	// No child may point at another child.
	var deep int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM categories c
		JOIN categories p ON p.id = c.parent_id
		WHERE p.parent_id IS NOT NULL
	`).Scan(&deep)
	if err != nil {
		t.Fatalf("query depth: %v", err)
	}
	if deep != 0 {
		t.Errorf("found %d categories nested below a child", deep)
	}

	var reactParent string
	err = db.QueryRow(`
		SELECT p.slug FROM categories c JOIN categories p ON p.id = c.parent_id
		WHERE c.slug = 'react'
	`).Scan(&reactParent)
	if err != nil {
		t.Fatalf("query react parent: %v", err)
	}
	if reactParent != "frontend" {
		t.Errorf("react parent: got %q, want frontend", reactParent)
	}
}

func TestSeedSkipsNonEmptyCatalog(t *testing.T) {
	db := dbtest.Open(t)

	if _, err := db.Exec(`INSERT INTO categories (name, slug) VALUES ('Mine', 'mine')`); err != nil {
		t.Fatalf("insert category: %v", err)
	}
	if err := database.Seed(context.Background(), db); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	var n int
	db.QueryRow("SELECT COUNT(*) FROM rules").Scan(&n)
	if n != 0 {
		t.Errorf("Seed wrote %d rules into a non-empty catalog", n)
	}
}
