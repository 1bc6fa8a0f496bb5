// Package config loads runtime configuration from the environment.
// Connectivity settings are required and fail fast at startup; search
// provider credentials may be absent, in which case the search client
// reports a configuration error per call instead.
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	// Google Custom Search credentials. Optional at boot.
	GoogleAPIKey   string
	SearchEngineID string

	// EmbeddingProvider is "ollama" or "local"; auto-detected when empty.
	EmbeddingProvider string
	OllamaURL         string
	EmbeddingModel    string

	ScrapeIntervalHours int
	ScrapeDays          int // recency window for provider queries, 0 = unbounded
	QueueWorkers        int
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	interval, err := positiveIntEnv("SCRAPE_INTERVAL_HOURS", 6)
	if err != nil {
		return nil, err
	}
	days, err := positiveIntEnv("SCRAPE_DAYS", 0)
	if err != nil {
		return nil, err
	}
	workers, err := positiveIntEnv("QUEUE_WORKERS", 4)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:                port,
		DatabaseURL:         dbURL,
		RedisURL:            redisURL,
		GoogleAPIKey:        os.Getenv("GOOGLE_API_KEY"),
		SearchEngineID:      os.Getenv("SEARCH_ENGINE_ID"),
		EmbeddingProvider:   os.Getenv("EMBEDDING_PROVIDER"),
		OllamaURL:           os.Getenv("OLLAMA_URL"),
		EmbeddingModel:      os.Getenv("EMBEDDING_MODEL"),
		ScrapeIntervalHours: interval,
		ScrapeDays:          days,
		QueueWorkers:        workers,
	}, nil
}

func positiveIntEnv(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, s)
	}
	return v, nil
}
