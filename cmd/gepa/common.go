package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/longregen/gepa/internal/application/services"
	"github.com/longregen/gepa/internal/config"
	"github.com/longregen/gepa/internal/domain/models"
)

// Version information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfg *config.Config

// initDB opens a pool when persistence is configured; callers treat a nil
// pool as "run without storing rounds".
func initDB(ctx context.Context) (*pgxpool.Pool, error) {
	if !cfg.IsDatabaseConfigured() {
		return nil, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

func mutationConfig() services.MutationConfig {
	mc := services.DefaultMutationConfig()
	mc.Strict = cfg.Pipeline.Strict
	if cfg.Pipeline.MinSuggestions > 0 {
		mc.MinSuggestions = cfg.Pipeline.MinSuggestions
	}
	if cfg.Pipeline.ResolutionStrategy != "" {
		mc.ResolutionStrategy = models.ResolutionStrategy(cfg.Pipeline.ResolutionStrategy)
	}
	if cfg.Pipeline.BatchConcurrency > 0 {
		mc.BatchConcurrency = cfg.Pipeline.BatchConcurrency
	}
	return mc
}

// readInput resolves a value from a literal flag, a file flag, or stdin
// when the file flag is "-".
func readInput(literal, file string) (string, error) {
	if literal != "" {
		return literal, nil
	}
	if file == "" {
		return "", nil
	}
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
