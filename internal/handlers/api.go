// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"rulehub/internal/cache"
	"rulehub/internal/metrics"
	"rulehub/internal/models"
	"rulehub/internal/search"
	"rulehub/internal/store"
)

// Defaults for the JSON endpoints.
const (
	apiPopularLimit    = 6
	apiSearchLimit     = 50
	apiSuggestionLimit = search.DefaultSuggestionLimit

	// maxSubmissionBytes caps the POST /api/rules request body.
	maxSubmissionBytes = 1 << 20
	maxTagsPerRule     = 10
)

// API groups the JSON endpoints. Failures are returned as
// {"error": "..."} with the details logged server-side.
type API struct {
	db        *sql.DB
	store     *store.Store
	search    *search.Engine
	pageCache *cache.PageCache
	metrics   *metrics.Metrics
}

// NewAPI creates a new API handler group. pageCache and m may be nil.
func NewAPI(db *sql.DB, st *store.Store, eng *search.Engine, pageCache *cache.PageCache, m *metrics.Metrics) *API {
	return &API{
		db:        db,
		store:     st,
		search:    eng,
		pageCache: pageCache,
		metrics:   m,
	}
}

// Categories returns every category with its approved rule count.
func (a *API) Categories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cached []models.Category
	hit := a.pageCache.GetJSON(ctx, cache.KeyCategoriesJSON, &cached)
	if a.pageCache != nil {
		a.metrics.CacheLookup(cache.KeyCategoriesJSON, hit)
	}
	if hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	categories, err := a.store.Categories.List(ctx)
	if err != nil {
		a.serverError(w, "list categories", err)
		return
	}
	a.pageCache.SetJSON(ctx, cache.KeyCategoriesJSON, categories)
	writeJSON(w, http.StatusOK, categories)
}

// PopularRules returns the most viewed approved rules (?limit=, default 6).
func (a *API) PopularRules(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", apiPopularLimit)
	rules, err := a.store.Rules.Popular(r.Context(), limit)
	if err != nil {
		a.serverError(w, "popular rules", err, "limit", limit)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

// Rules lists approved rules newest first, filtered by ?category_id= and
// ?q= and paginated by ?page= and ?limit=.
func (a *API) Rules(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := queryUUID(r, "category_id")
	if !ok {
		writeJSON(w, http.StatusOK, []models.Rule{})
		return
	}

	filter := store.RuleFilter{
		CategoryID: categoryID,
		Search:     strings.TrimSpace(r.URL.Query().Get("q")),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", store.DefaultLimit),
	}
	rules, err := a.store.Rules.List(r.Context(), filter)
	if err != nil {
		a.serverError(w, "list rules", err, "q", filter.Search, "page", filter.Page)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

// Rule returns one approved rule. Views are only counted by the HTML page.
func (a *API) Rule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "rule not found")
		return
	}

	rule, err := a.store.Rules.FindByID(r.Context(), id)
	if err != nil {
		a.serverError(w, "find rule", err, "rule_id", id)
		return
	}
	if rule == nil {
		writeError(w, http.StatusNotFound, "rule not found")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// ruleSubmission is the POST /api/rules request body.
type ruleSubmission struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	CategoryID  string   `json:"category_id"`
	Tags        []string `json:"tags"`
}

// CreateRule accepts a rule submission. New rules are stored as pending
// and stay hidden until approved. Tags are attached by name; names that do
// not match an existing tag are ignored.
func (a *API) CreateRule(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)

	var in ruleSubmission
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateRule(in.Title, in.Description, in.Content); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if len(in.Tags) > maxTagsPerRule {
		writeError(w, http.StatusBadRequest, "Too many tags (max 10).")
		return
	}
	categoryID, err := uuid.Parse(in.CategoryID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "A valid category_id is required.")
		return
	}

	rule, err := a.store.Rules.Create(r.Context(), store.NewRule{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Content:     in.Content,
		CategoryID:  categoryID,
	}, in.Tags...)
	if errors.Is(err, store.ErrUnknownCategory) {
		writeError(w, http.StatusUnprocessableEntity, "category does not exist")
		return
	}
	if err != nil {
		a.serverError(w, "create rule", err, "category_id", categoryID)
		return
	}

	a.metrics.RuleSubmitted()
	slog.Info("rule submitted", "rule_id", rule.ID, "category_id", categoryID, "tags", len(in.Tags))
	writeJSON(w, http.StatusCreated, rule)
}

// Search returns approved rules matching ?q=, optionally scoped by
// ?category_id=. A blank query or malformed category_id yields [].
func (a *API) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	categoryID, ok := queryUUID(r, "category_id")
	if !ok || strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusOK, []models.Rule{})
		return
	}
	limit := queryInt(r, "limit", apiSearchLimit)

	start := time.Now()
	rules, err := a.search.Rules(r.Context(), q, categoryID, limit)
	a.metrics.ObserveSearch("rules", start, err)
	if err != nil {
		a.serverError(w, "search rules", err, "q", q, "limit", limit)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

// Suggestions returns autocomplete entries for ?q= (?limit=, default 5).
func (a *API) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", apiSuggestionLimit)

	start := time.Now()
	suggestions, err := a.search.Suggestions(r.Context(), q, limit)
	a.metrics.ObserveSearch("suggestions", start, err)
	if err != nil {
		a.serverError(w, "search suggestions", err, "q", q, "limit", limit)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// Tags returns all tags by name.
func (a *API) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := a.store.Tags.List(r.Context())
	if err != nil {
		a.serverError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// Health reports whether the database answers a ping.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.db.PingContext(ctx); err != nil {
		slog.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) serverError(w http.ResponseWriter, op string, err error, args ...any) {
	slog.Error(op+" failed", append([]any{"error", err}, args...)...)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
