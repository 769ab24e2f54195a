// Package main implements the resumind CLI.
package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/resumind/resumind/internal/config"
	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/events"
	"github.com/resumind/resumind/internal/fetch"
	"github.com/resumind/resumind/internal/llm"
	"github.com/resumind/resumind/internal/logging"
	"github.com/resumind/resumind/internal/pipeline"
	"github.com/resumind/resumind/internal/ratelimit"
	"github.com/resumind/resumind/internal/tools"
)

// app bundles the connections every command needs.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	db     *db.DB
}

// openApp loads configuration and connects to the database.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogPretty)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL required: set DATABASE_URL or 'database_url' in the config file")
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, db: database}, nil
}

func (a *app) Close() {
	a.db.Close()
}

// buildPipeline assembles the full pipeline with its model client, tool
// registry, rate limiter, and event emitter. The returned cleanup closes the
// model client.
func (a *app) buildPipeline(ctx context.Context) (*pipeline.Pipeline, func(), error) {
	if a.cfg.GeminiAPIKey == "" {
		return nil, nil, fmt.Errorf("API key required: set GEMINI_API_KEY environment variable")
	}
	if a.cfg.TavilyAPIKey == "" {
		return nil, nil, fmt.Errorf("search API key required: set TAVILY_API_KEY environment variable")
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), a.cfg.GeminiAPIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create model client: %w", err)
	}

	limiter := ratelimit.NewLimiter(a.cfg.LLMRatePerSecond, a.logger)
	retry := ratelimit.NewRetryPolicy(a.cfg.MaxRetries, a.cfg.RetryBaseDelay, a.logger)
	emitter := events.NewEmitter(a.db, a.logger)

	registry := tools.NewRegistry(tools.RegistryConfig{
		Search:     tools.NewTavilyClient(a.cfg.TavilyAPIKey, 0),
		Fetcher:    fetch.NewCachedFetcher(nil, fetch.DefaultCacheTTL),
		LLM:        client,
		Limiter:    limiter,
		Retry:      retry,
		UseBrowser: a.cfg.UseBrowser,
		Logger:     a.logger,
	})

	p := pipeline.New(pipeline.Config{
		Store:   a.db,
		Emitter: emitter,
		LLM:     client,
		Tools:   registry,
		Limiter: limiter,
		Retry:   retry,
		Logger:  a.logger,
	})

	cleanup := func() { _ = client.Close() }
	return p, cleanup, nil
}
