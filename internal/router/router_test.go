// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint. The database is a sqlmock, so no test
// here needs PostgreSQL.
package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"rulehub/internal/handlers"
	"rulehub/internal/metrics"
	"rulehub/internal/middleware"
	"rulehub/internal/render"
	"rulehub/internal/search"
	"rulehub/internal/store"
)

type testRouter struct {
	chi.Router
	mock    sqlmock.Sqlmock
	metrics *metrics.Metrics
}

func newTestRouter(t *testing.T, withMetrics bool, suggestLimit int) *testRouter {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	var m *metrics.Metrics
	if withMetrics {
		m = metrics.New(db)
	}

	st := store.New(db)
	eng := search.New(db, search.Options{})
	limiter := middleware.NewRateLimiter(suggestLimit, time.Minute)
	t.Cleanup(limiter.Stop)

	r := New(
		handlers.NewPublic(renderer, st, eng, nil, m),
		handlers.NewAPI(db, st, eng, nil, m),
		m,
		limiter,
	)
	return &testRouter{Router: r, mock: mock, metrics: m}
}

func (tr *testRouter) get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	tr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthRoute(t *testing.T) {
	tr := newTestRouter(t, false, 10)
	tr.mock.ExpectPing()

	rec := tr.get("/health")
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"ok"}` {
		t.Errorf("body: got %q", got)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	tr := newTestRouter(t, false, 10)

	rec := tr.get("/api/search?q=")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy")
	}
}

func TestStaticAssets(t *testing.T) {
	tr := newTestRouter(t, false, 10)

	tests := []struct {
		path string
		ct   string
	}{
		{"/static/css/site.css", "text/css"},
		{"/static/js/suggest.js", "javascript"},
	}
	for _, tt := range tests {
		rec := tr.get(tt.path)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status %d, want 200", tt.path, rec.Code)
			continue
		}
		if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, tt.ct) {
			t.Errorf("GET %s: Content-Type %q, want %s", tt.path, ct, tt.ct)
		}
	}

	if rec := tr.get("/static/missing.css"); rec.Code != http.StatusNotFound {
		t.Errorf("missing asset: status %d, want 404", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	tr := newTestRouter(t, false, 10)

	rec := tr.get("/definitely/not/here")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Not found") {
		t.Error("expected the HTML not-found page")
	}
}

func TestMalformedRuleIDIsNotFound(t *testing.T) {
	tr := newTestRouter(t, false, 10)

	for _, path := range []string{"/rules/123", "/rules/xyz/raw", "/api/rules/abc"} {
		if rec := tr.get(path); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: status %d, want 404", path, rec.Code)
		}
	}
	if err := tr.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database use: %v", err)
	}
}

func TestSuggestionsRateLimited(t *testing.T) {
	tr := newTestRouter(t, false, 2)

	// Single-character prefixes never reach the database.
	for i := 0; i < 2; i++ {
		if rec := tr.get("/api/search/suggestions?q=a"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i+1, rec.Code)
		}
	}
	rec := tr.get("/api/search/suggestions?q=a")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status: got %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	// Search itself is not limited.
	if rec := tr.get("/api/search?q="); rec.Code != http.StatusOK {
		t.Errorf("search: status %d, want 200", rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	tr := newTestRouter(t, true, 10)

	tr.get("/api/search?q=")
	tr.get("/api/search?q=")

	got := testutil.ToFloat64(tr.metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/search", "200"))
	if got != 2 {
		t.Errorf("requests for /api/search = %v, want 2", got)
	}

	rec := tr.get("/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rulehub_http_requests_total") {
		t.Error("exposition missing rulehub_http_requests_total")
	}
}

func TestMetricsRouteDisabled(t *testing.T) {
	tr := newTestRouter(t, false, 10)

	if rec := tr.get("/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}
