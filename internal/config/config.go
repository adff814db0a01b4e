// Package config loads service configuration from a JSON file overlaid
// with environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for the mutation service.
type Config struct {
	Database DatabaseConfig `json:"database"`
	Server   ServerConfig   `json:"server"`
	Pipeline PipelineConfig `json:"pipeline"`
}

// DatabaseConfig holds the round-store connection.
type DatabaseConfig struct {
	PostgresURL string `json:"postgres_url"`
}

// ServerConfig holds API server configuration.
type ServerConfig struct {
	Host        string   `json:"host"`
	Port        int      `json:"port"`
	CORSOrigins []string `json:"cors_origins"`
}

// PipelineConfig holds pipeline tuning knobs.
type PipelineConfig struct {
	Strict             bool   `json:"strict"`
	MinSuggestions     int    `json:"min_suggestions"`
	ResolutionStrategy string `json:"resolution_strategy"`
	BatchConcurrency   int    `json:"batch_concurrency"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			PostgresURL: "",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Pipeline: PipelineConfig{
			MinSuggestions:     1,
			ResolutionStrategy: "highest_impact",
			BatchConcurrency:   4,
		},
	}
}

func envString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func envInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*target = i
		}
	}
}

func envBool(key string, target *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func envStringSlice(key string, target *[]string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			*target = result
		}
	}
}

func getConfigPath() string {
	if p := os.Getenv("GEPA_CONFIG"); p != "" {
		return p
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "gepa.json"
	}
	return filepath.Join(homeDir, ".gepa", "config.json")
}

// Load reads the config file if present, then applies environment
// variable overrides.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	envString("GEPA_POSTGRES_URL", &cfg.Database.PostgresURL)

	envString("GEPA_SERVER_HOST", &cfg.Server.Host)
	envInt("GEPA_SERVER_PORT", &cfg.Server.Port)
	envStringSlice("GEPA_CORS_ORIGINS", &cfg.Server.CORSOrigins)

	envBool("GEPA_PIPELINE_STRICT", &cfg.Pipeline.Strict)
	envInt("GEPA_PIPELINE_MIN_SUGGESTIONS", &cfg.Pipeline.MinSuggestions)
	envString("GEPA_PIPELINE_RESOLUTION_STRATEGY", &cfg.Pipeline.ResolutionStrategy)
	envInt("GEPA_PIPELINE_BATCH_CONCURRENCY", &cfg.Pipeline.BatchConcurrency)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges the rest of the service assumes.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Pipeline.MinSuggestions < 0 {
		return fmt.Errorf("min_suggestions cannot be negative")
	}
	if c.Pipeline.BatchConcurrency < 0 {
		return fmt.Errorf("batch_concurrency cannot be negative")
	}
	return nil
}

// IsDatabaseConfigured reports whether round persistence is enabled.
func (c *Config) IsDatabaseConfigured() bool {
	return c.Database.PostgresURL != ""
}
