// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL is unavailable; Valkey is replaced
// by miniredis.
package handlers

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"rulehub/internal/cache"
	"rulehub/internal/database"
	"rulehub/internal/database/dbtest"
	"rulehub/internal/metrics"
	"rulehub/internal/models"
	"rulehub/internal/render"
	"rulehub/internal/search"
	"rulehub/internal/store"
)

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB        *sql.DB
	Store     *store.Store
	Valkey    *miniredis.Miniredis
	PageCache *cache.PageCache
	Metrics   *metrics.Metrics
	Public    *Public
	API       *API
	Handler   http.Handler
}

// newTestEnv creates a complete test environment on an isolated, seeded
// database.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dbtest.Open(t)
	if err := database.Seed(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return newEnvWithDB(t, db)
}

// newEnvWithDB wires handlers around db without touching its contents.
func newEnvWithDB(t *testing.T, db *sql.DB) *testEnv {
	t.Helper()

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	st := store.New(db)
	eng := search.New(db, search.Options{})
	pageCache := cache.NewPageCache(client, time.Minute)
	m := metrics.New(nil)

	env := &testEnv{
		DB:        db,
		Store:     st,
		Valkey:    mr,
		PageCache: pageCache,
		Metrics:   m,
		Public:    NewPublic(renderer, st, eng, pageCache, m),
		API:       NewAPI(db, st, eng, pageCache, m),
	}
	env.Handler = env.routes()
	return env
}

// routes mounts the handlers the same way the production router does.
func (e *testEnv) routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(e.Public.NotFound)

	r.Get("/", e.Public.Home)
	r.Get("/categories", e.Public.Categories)
	r.Get("/categories/{slug}", e.Public.Category)
	r.Get("/rules/{id}", e.Public.Rule)
	r.Get("/rules/{id}/raw", e.Public.RuleRaw)
	r.Get("/search", e.Public.Search)

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", e.API.Categories)
		r.Get("/rules", e.API.Rules)
		r.Post("/rules", e.API.CreateRule)
		r.Get("/rules/popular", e.API.PopularRules)
		r.Get("/rules/{id}", e.API.Rule)
		r.Get("/search", e.API.Search)
		r.Get("/search/suggestions", e.API.Suggestions)
		r.Get("/tags", e.API.Tags)
	})
	r.Get("/health", e.API.Health)
	return r
}

// do performs a request against the test handler and returns the recorder.
func (e *testEnv) do(t *testing.T, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodGet, target, nil)
}

// ruleByTitle looks up a seeded rule.
func (e *testEnv) ruleByTitle(t *testing.T, title string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	if err := e.DB.QueryRow(`SELECT id FROM rules WHERE title = $1`, title).Scan(&id); err != nil {
		t.Fatalf("find rule %q: %v", title, err)
	}
	return id
}

func (e *testEnv) categoryBySlug(t *testing.T, slug string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	if err := e.DB.QueryRow(`SELECT id FROM categories WHERE slug = $1`, slug).Scan(&id); err != nil {
		t.Fatalf("find category %q: %v", slug, err)
	}
	return id
}

// insertRule adds a rule with the given status to a category.
func (e *testEnv) insertRule(t *testing.T, title string, category uuid.UUID, status models.RuleStatus) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := e.DB.QueryRow(`
		INSERT INTO rules (title, content, category_id, status)
		VALUES ($1, $2, $3, $4) RETURNING id
	`, title, "# "+title+"\n", category, status).Scan(&id)
	if err != nil {
		t.Fatalf("insert rule %q: %v", title, err)
	}
	return id
}

func counter(t *testing.T, db *sql.DB, column string, id uuid.UUID) int64 {
	t.Helper()
	var n int64
	if err := db.QueryRow(`SELECT `+column+` FROM rules WHERE id = $1`, id).Scan(&n); err != nil {
		t.Fatalf("read %s: %v", column, err)
	}
	return n
}

func assertContains(t *testing.T, body string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("body missing %q", w)
		}
	}
}
