package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/brewmarsh/nokari/internal/api"
	"github.com/brewmarsh/nokari/internal/config"
	"github.com/brewmarsh/nokari/internal/core"
	"github.com/brewmarsh/nokari/internal/embed"
	"github.com/brewmarsh/nokari/internal/httpx"
	"github.com/brewmarsh/nokari/internal/scraper"
	"github.com/brewmarsh/nokari/internal/search"
	"github.com/brewmarsh/nokari/internal/store"
	"github.com/brewmarsh/nokari/internal/tasks"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	dbStore, err := store.NewStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}
	defer dbStore.Close()

	workDir, _ := os.Getwd()
	schemaPath := filepath.Join(workDir, "internal", "store", "schema.sql")
	if err := dbStore.RunMigrations(schemaPath); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	rdb, err := tasks.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()
	queue := tasks.NewQueue(rdb)

	searcher := search.NewClient(cfg.GoogleAPIKey, cfg.SearchEngineID)
	fetcher := httpx.NewFetcher()
	details := scraper.NewService(fetcher)
	embedder := embed.NewClient(cfg.EmbeddingProvider, cfg.OllamaURL, cfg.EmbeddingModel)

	service := core.NewService(dbStore, searcher, details, embedder, queue, cfg.ScrapeDays)

	pool := tasks.NewWorkerPool(queue, cfg.QueueWorkers)
	service.RegisterTasks(pool)
	pool.Start(ctx)

	scheduler := core.NewScheduler(queue, cfg.ScrapeIntervalHours)
	if err := scheduler.Start(ctx); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	srv := api.NewServer(dbStore, service, queue)

	slog.Info("starting server", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, srv.Router()); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
