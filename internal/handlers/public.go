// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"rulehub/internal/cache"
	"rulehub/internal/metrics"
	"rulehub/internal/models"
	"rulehub/internal/render"
	"rulehub/internal/search"
	"rulehub/internal/slug"
	"rulehub/internal/store"
)

// Page sizes and limits for the public site.
const (
	categoryPageSize  = 20
	homePopularLimit  = 6
	relatedRulesLimit = 3
	searchPageLimit   = 50
)

// Public groups handlers for the server-rendered catalog pages. Category
// pages are served from the Valkey page cache when one is configured.
type Public struct {
	renderer  *render.Renderer
	store     *store.Store
	search    *search.Engine
	pageCache *cache.PageCache
	metrics   *metrics.Metrics
}

// NewPublic creates a new Public handler group. pageCache and m may be nil.
func NewPublic(renderer *render.Renderer, st *store.Store, eng *search.Engine, pageCache *cache.PageCache, m *metrics.Metrics) *Public {
	return &Public{
		renderer:  renderer,
		store:     st,
		search:    eng,
		pageCache: pageCache,
		metrics:   m,
	}
}

// Home renders the landing page: search box, popular rules and the root
// categories.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	popular, err := p.store.Rules.Popular(ctx, homePopularLimit)
	if err != nil {
		p.serverError(w, "popular rules", err)
		return
	}
	roots, err := p.store.Categories.Tree(ctx)
	if err != nil {
		p.serverError(w, "category tree", err)
		return
	}

	p.renderer.Page(w, http.StatusOK, "home", &render.PageData{
		Section: "home",
		Data: map[string]any{
			"Popular":    popular,
			"Categories": roots,
		},
	})
}

// Categories renders the category tree with rule counts.
func (p *Public) Categories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if p.serveCached(w, r, cache.KeyCategoriesPage) {
		return
	}

	tree, err := p.store.Categories.Tree(ctx)
	if err != nil {
		p.serverError(w, "category tree", err)
		return
	}

	body, err := p.renderer.Render("categories", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    map[string]any{"Tree": tree},
	})
	if err != nil {
		p.serverError(w, "render categories", err)
		return
	}
	p.pageCache.Set(ctx, cache.KeyCategoriesPage, body)
	render.HTML(w, http.StatusOK, body)
}

// Category renders one category with its approved rules, 20 per page.
// A page number past the last page renders the last page.
func (p *Public) Category(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categorySlug := chi.URLParam(r, "slug")
	page := queryInt(r, "page", 1)
	key := cache.CategoryPageKey(categorySlug, page)

	if p.serveCached(w, r, key) {
		return
	}

	c, err := p.store.Categories.FindBySlug(ctx, categorySlug)
	if err != nil {
		p.serverError(w, "find category", err, "slug", categorySlug)
		return
	}
	if c == nil {
		p.notFound(w, "No category called "+categorySlug+".")
		return
	}

	var parent *models.Category
	if c.ParentID != nil {
		if parent, err = p.store.Categories.FindByID(ctx, *c.ParentID); err != nil {
			p.serverError(w, "find parent category", err, "slug", categorySlug)
			return
		}
	}

	filter := store.RuleFilter{CategoryID: &c.ID, Limit: categoryPageSize}
	total, err := p.store.Rules.Count(ctx, filter)
	if err != nil {
		p.serverError(w, "count category rules", err, "slug", categorySlug)
		return
	}
	pages := totalPages(total, categoryPageSize)
	// Pages past the end show the last page and share its cache entry.
	if page > pages {
		page = pages
		key = cache.CategoryPageKey(categorySlug, page)
	}

	filter.Page = page
	rules, err := p.store.Rules.List(ctx, filter)
	if err != nil {
		p.serverError(w, "list category rules", err, "slug", categorySlug, "page", page)
		return
	}

	body, err := p.renderer.Render("category", &render.PageData{
		Title:   c.Name,
		Section: "categories",
		Data: map[string]any{
			"Category":   c,
			"Parent":     parent,
			"Rules":      rules,
			"Page":       page,
			"TotalPages": pages,
		},
	})
	if err != nil {
		p.serverError(w, "render category", err, "slug", categorySlug)
		return
	}
	p.pageCache.Set(ctx, key, body)
	render.HTML(w, http.StatusOK, body)
}

// Rule renders the detail page. The view is counted before the rule is
// read, so the page shows the count including this visit.
func (p *Public) Rule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		p.notFound(w, "")
		return
	}

	if err := p.store.Rules.IncrementViews(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			p.notFound(w, "")
			return
		}
		p.serverError(w, "increment views", err, "rule_id", id)
		return
	}

	rule, err := p.store.Rules.FindByID(ctx, id)
	if err != nil {
		p.serverError(w, "find rule", err, "rule_id", id)
		return
	}
	if rule == nil {
		p.notFound(w, "")
		return
	}
	p.metrics.RuleViewed()

	tags, err := p.store.Tags.ForRule(ctx, id)
	if err != nil {
		p.serverError(w, "rule tags", err, "rule_id", id)
		return
	}
	related, err := p.store.Rules.Related(ctx, rule, relatedRulesLimit)
	if err != nil {
		p.serverError(w, "related rules", err, "rule_id", id)
		return
	}

	p.renderer.Page(w, http.StatusOK, "rule", &render.PageData{
		Title:   rule.Title,
		Section: "categories",
		Data: map[string]any{
			"Rule":    rule,
			"Tags":    tags,
			"Related": related,
		},
	})
}

// RuleRaw serves the rule's Markdown as a file download and counts it.
func (p *Public) RuleRaw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		p.notFound(w, "")
		return
	}

	rule, err := p.store.Rules.FindByID(ctx, id)
	if err != nil {
		p.serverError(w, "find rule", err, "rule_id", id)
		return
	}
	if rule == nil {
		p.notFound(w, "")
		return
	}

	if err := p.store.Rules.IncrementDownloads(ctx, id); err != nil {
		p.serverError(w, "increment downloads", err, "rule_id", id)
		return
	}
	p.metrics.RuleDownloaded()

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, slug.Filename(rule.Title, "rule", ".md")))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rule.Content))
}

// Search renders search results for ?q=, optionally scoped by ?category=
// slug. An unknown category slug matches nothing.
func (p *Public) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	categorySlug := r.URL.Query().Get("category")

	categories, err := p.store.Categories.List(ctx)
	if err != nil {
		p.serverError(w, "list categories", err)
		return
	}

	results := []models.Rule{}
	var categoryID *uuid.UUID
	known := categorySlug == ""
	for i := range categories {
		if categories[i].Slug == categorySlug {
			categoryID = &categories[i].ID
			known = true
			break
		}
	}

	if known && q != "" {
		start := time.Now()
		results, err = p.search.Rules(ctx, q, categoryID, searchPageLimit)
		p.metrics.ObserveSearch("rules", start, err)
		if err != nil {
			p.serverError(w, "search rules", err, "q", q, "category", categorySlug)
			return
		}
	}

	title := "Search"
	if q != "" {
		title = "Search: " + q
	}
	p.renderer.Page(w, http.StatusOK, "search", &render.PageData{
		Title:   title,
		Section: "search",
		Query:   q,
		Data: map[string]any{
			"Results":      results,
			"Categories":   categories,
			"CategorySlug": categorySlug,
		},
	})
}

// NotFound renders the 404 page for unmatched routes.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	p.notFound(w, "")
}

// serveCached writes a cached page and reports whether it did.
func (p *Public) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	body, ok := p.pageCache.Get(r.Context(), key)
	if p.pageCache != nil {
		p.metrics.CacheLookup(cacheLabel(key), ok)
	}
	if !ok {
		return false
	}
	render.HTML(w, http.StatusOK, body)
	return true
}

func (p *Public) notFound(w http.ResponseWriter, msg string) {
	p.renderer.Page(w, http.StatusNotFound, "not_found", &render.PageData{
		Title: "Not found",
		Data:  map[string]any{"Message": msg},
	})
}

// serverError logs a storage or render failure and shows the error page.
func (p *Public) serverError(w http.ResponseWriter, op string, err error, args ...any) {
	slog.Error(op+" failed", append([]any{"error", err}, args...)...)
	p.renderer.Page(w, http.StatusInternalServerError, "error", &render.PageData{Title: "Error"})
}

func totalPages(total, size int) int {
	if total <= size {
		return 1
	}
	return (total + size - 1) / size
}

// cacheLabel maps a cache key to a bounded metric label.
func cacheLabel(key string) string {
	if strings.HasPrefix(key, "category:") {
		return "category"
	}
	return key
}
