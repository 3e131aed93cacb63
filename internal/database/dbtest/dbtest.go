// Package dbtest provides isolated PostgreSQL databases for integration
// tests. Each call to Open migrates a fresh schema, so tests can assert on
// exact result sets without seeing each other's rows.
package dbtest

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"rulehub/internal/database"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func DSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "rulehub")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "rulehub")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

// Open creates a private schema, runs migrations in it and returns a pool
// whose search_path points there. The test is skipped when PostgreSQL is
// unreachable. The schema is dropped on cleanup.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	ctx := context.Background()

	admin, err := sql.Open("pgx", DSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := admin.PingContext(ctx); err != nil {
		admin.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		admin.Close()
		t.Fatalf("create schema: %v", err)
	}

	db, err := sql.Open("pgx", DSN()+"&search_path="+url.QueryEscape(schema+",public"))
	if err != nil {
		admin.Close()
		t.Fatalf("open schema pool: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		admin.ExecContext(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}
