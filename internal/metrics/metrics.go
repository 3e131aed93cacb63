// Package metrics defines the Prometheus collectors exported on /metrics
// and the HTTP middleware that feeds them. A nil *Metrics is valid: every
// recording method becomes a no-op, so handlers never check whether
// metrics are enabled.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Search metrics
	SearchQueriesTotal  *prometheus.CounterVec
	SearchQueryDuration *prometheus.HistogramVec

	// Engagement metrics
	RuleViewsTotal     prometheus.Counter
	RuleDownloadsTotal prometheus.Counter
	RuleSubmissions    prometheus.Counter

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// New creates the collectors and registers them, plus the Go runtime,
// process and (when db is non-nil) connection pool collectors, on a fresh
// registry.
func New(db *sql.DB) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rulehub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rulehub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rulehub_search_queries_total",
				Help: "Total number of search engine calls",
			},
			[]string{"kind", "status"},
		),
		SearchQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rulehub_search_query_duration_seconds",
				Help:    "Search engine call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"kind"},
		),

		RuleViewsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rulehub_rule_views_total",
			Help: "Total number of rule detail views",
		}),
		RuleDownloadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rulehub_rule_downloads_total",
			Help: "Total number of raw rule downloads",
		}),
		RuleSubmissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rulehub_rule_submissions_total",
			Help: "Total number of rules submitted for moderation",
		}),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rulehub_cache_hits_total",
				Help: "Total number of response cache hits",
			},
			[]string{"key"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rulehub_cache_misses_total",
				Help: "Total number of response cache misses",
			},
			[]string{"key"},
		),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SearchQueriesTotal,
		m.SearchQueryDuration,
		m.RuleViewsTotal,
		m.RuleDownloadsTotal,
		m.RuleSubmissions,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if db != nil {
		m.registry.MustRegister(collectors.NewDBStatsCollector(db, "rulehub"))
	}

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearch records one search engine call. kind is "rules" or
// "suggestions".
func (m *Metrics) ObserveSearch(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SearchQueriesTotal.WithLabelValues(kind, status).Inc()
	m.SearchQueryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// RuleViewed counts a detail page view.
func (m *Metrics) RuleViewed() {
	if m != nil {
		m.RuleViewsTotal.Inc()
	}
}

// RuleDownloaded counts a raw download.
func (m *Metrics) RuleDownloaded() {
	if m != nil {
		m.RuleDownloadsTotal.Inc()
	}
}

// RuleSubmitted counts an accepted submission.
func (m *Metrics) RuleSubmitted() {
	if m != nil {
		m.RuleSubmissions.Inc()
	}
}

// CacheLookup records a response cache hit or miss for key.
func (m *Metrics) CacheLookup(key string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(key).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(key).Inc()
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware instruments requests. Requests are labelled by chi route
// pattern, not raw path, so rule IDs do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
