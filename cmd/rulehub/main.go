// Package main is the entry point for the RuleHub server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"rulehub/internal/cache"
	"rulehub/internal/config"
	"rulehub/internal/database"
	"rulehub/internal/handlers"
	"rulehub/internal/metrics"
	"rulehub/internal/middleware"
	"rulehub/internal/render"
	"rulehub/internal/router"
	"rulehub/internal/search"
	"rulehub/internal/store"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text in development.
	slog.SetDefault(cfg.NewLogger())

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"cache", cfg.CacheEnabled(),
		"metrics", cfg.MetricsEnabled,
	)

	ctx := context.Background()

	// Connect to PostgreSQL.
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(ctx, db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the starter catalog (no-op if any category exists).
	if err := database.Seed(ctx, db); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey. Optional; pages are rendered uncached without it.
	var valkeyClient *redis.Client
	if cfg.CacheEnabled() {
		valkeyClient, err = cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
	} else {
		slog.Warn("valkey not configured, page cache disabled")
	}

	// Responses cached by a previous process may predate a migration or seed.
	pageCache := cache.NewPageCache(valkeyClient, cfg.CacheTTL)
	pageCache.InvalidateAll(ctx)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(db)
	}

	renderer, err := render.New()
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	st := store.New(db)
	if n, err := st.Categories.Count(ctx); err != nil {
		slog.Warn("count categories failed", "error", err)
	} else {
		slog.Info("catalog ready", "categories", n)
	}
	eng := search.New(db, search.Options{SuggestApprovedOnly: cfg.SuggestApprovedOnly})

	suggestLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	suggestLimiter.TrustProxyHeaders = cfg.TrustProxyHeaders
	defer suggestLimiter.Stop()

	// Create handler groups with their dependencies.
	publicHandlers := handlers.NewPublic(renderer, st, eng, pageCache, m)
	apiHandlers := handlers.NewAPI(db, st, eng, pageCache, m)

	r := router.New(publicHandlers, apiHandlers, m, suggestLimiter)

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
