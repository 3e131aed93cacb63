// Package main is the entry point for the catalog export job. It writes
// every approved rule, plus an index, to S3-compatible object storage and
// exits.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rulehub/internal/config"
	"rulehub/internal/database"
	"rulehub/internal/export"
	"rulehub/internal/storage"
	"rulehub/internal/store"
)

func main() {
	workers := flag.Int("workers", export.DefaultWorkers, "concurrent uploads")
	linkTTL := flag.Duration("link-ttl", 24*time.Hour, "validity of the presigned index URL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.NewLogger())

	if !cfg.StorageEnabled() {
		slog.Error("object storage not configured; set S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *workers, *linkTTL); err != nil {
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, workers int, linkTTL time.Duration) error {
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		return err
	}
	slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", client.Bucket())

	exp := export.New(store.New(db).Rules, client, cfg.ExportPrefix)
	exp.Workers = workers

	summary, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	url, err := client.PresignedURL(ctx, summary.IndexKey, linkTTL)
	if err != nil {
		return err
	}
	slog.Info("index available", "object", client.ObjectURL(summary.IndexKey), "url", url, "expires_in", linkTTL)
	return nil
}
