// Package config provides YAML-based configuration for jobpulse.
// Configuration is loaded with a layered precedence: defaults → YAML file → env vars.
// Environment variables always win, so existing workflows are unaffected.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. JOBPULSE_CONFIG environment variable
//  3. ~/.jobpulse/config.yaml
//  4. ./jobpulse.yaml
//
// If no file is found the system runs entirely from env vars.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration structure.
// Field names use yaml tags that mirror the env var naming (lowercase, underscored).
type Config struct {
	// Database configures the Postgres connection.
	Database DatabaseConfig `yaml:"database"`

	// Redis configures the embedding cache connection.
	Redis RedisConfig `yaml:"redis"`

	// OpenAI configures the AI collaborator.
	OpenAI OpenAIConfig `yaml:"openai"`

	// Ingest configures the ingestion pipeline and monitor agent.
	Ingest IngestConfig `yaml:"ingest"`

	// Server configures the HTTP query server.
	Server ServerConfig `yaml:"server"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`
}

// DatabaseConfig holds Postgres settings.
type DatabaseConfig struct {
	// URL is the pgx connection string. Prefer env var DATABASE_URL.
	URL string `yaml:"url"`
}

// RedisConfig holds Redis settings for the embedding cache.
type RedisConfig struct {
	// URL is the redis connection string (redis://...). Empty disables
	// the cache. Prefer env var REDIS_URL.
	URL string `yaml:"url"`
}

// OpenAIConfig holds AI collaborator settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Prefer env var OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`
	// BaseURL overrides the API endpoint (for proxies and compatible servers).
	BaseURL string `yaml:"base_url"`
	// ChatModel is the model used for classification and extraction.
	ChatModel string `yaml:"chat_model"`
	// EmbedModel is the embedding model name.
	EmbedModel string `yaml:"embed_model"`
	// Dimensions is the embedding vector size.
	Dimensions int `yaml:"dimensions"`
	// CacheTTLHours is the embedding cache entry lifetime in hours.
	CacheTTLHours int `yaml:"cache_ttl_hours"`
}

// IngestConfig holds ingestion pipeline settings.
type IngestConfig struct {
	// DuplicateThreshold is the cosine similarity at or above which an
	// incoming message is a duplicate of an existing posting.
	DuplicateThreshold float64 `yaml:"duplicate_threshold"`
	// BackfillWindow is the per-channel history window.
	BackfillWindow int `yaml:"backfill_window"`
	// MessageIntervalMS is the delay budget between messages, in milliseconds.
	MessageIntervalMS int `yaml:"message_interval_ms"`
	// ChannelIntervalMS is the delay budget between channels, in milliseconds.
	ChannelIntervalMS int `yaml:"channel_interval_ms"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	Host string `yaml:"host"`
	// Port is the TCP port.
	Port int `yaml:"port"`
	// PageSize is the default page size for list endpoints.
	PageSize int `yaml:"page_size"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// envMapping maps YAML config fields to their corresponding env var names.
// Only non-empty YAML values are applied; env vars always take precedence.
var envMapping = []struct {
	envKey string
	value  func(*Config) string
}{
	{"DATABASE_URL", func(c *Config) string { return c.Database.URL }},
	{"REDIS_URL", func(c *Config) string { return c.Redis.URL }},
	{"OPENAI_API_KEY", func(c *Config) string { return c.OpenAI.APIKey }},
	{"OPENAI_BASE_URL", func(c *Config) string { return c.OpenAI.BaseURL }},
	{"OPENAI_CHAT_MODEL", func(c *Config) string { return c.OpenAI.ChatModel }},
	{"OPENAI_EMBED_MODEL", func(c *Config) string { return c.OpenAI.EmbedModel }},
	{"EMBEDDING_DIMENSIONS", func(c *Config) string { return intStr(c.OpenAI.Dimensions) }},
	{"EMBEDDING_CACHE_TTL_HOURS", func(c *Config) string { return intStr(c.OpenAI.CacheTTLHours) }},
	{"DUPLICATE_THRESHOLD", func(c *Config) string { return floatStr(c.Ingest.DuplicateThreshold) }},
	{"BACKFILL_WINDOW", func(c *Config) string { return intStr(c.Ingest.BackfillWindow) }},
	{"MESSAGE_INTERVAL_MS", func(c *Config) string { return intStr(c.Ingest.MessageIntervalMS) }},
	{"CHANNEL_INTERVAL_MS", func(c *Config) string { return intStr(c.Ingest.ChannelIntervalMS) }},
	{"SERVER_HOST", func(c *Config) string { return c.Server.Host }},
	{"SERVER_PORT", func(c *Config) string { return intStr(c.Server.Port) }},
	{"PAGE_SIZE", func(c *Config) string { return intStr(c.Server.PageSize) }},
	{"LOG_LEVEL", func(c *Config) string { return c.Logging.Level }},
	{"LOG_FORMAT", func(c *Config) string { return c.Logging.Format }},
}

// Load reads a YAML config file and applies non-empty values as environment
// variables. Existing env vars are never overwritten (env always wins).
// Returns the path that was loaded, or empty string if no file was found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	path := resolveConfigPath(explicitPath)
	if path == "" {
		log.Debug("config: no YAML config file found, using env vars only")
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" {
			continue
		}
		if os.Getenv(m.envKey) != "" {
			continue // env var already set — do not override
		}
		os.Setenv(m.envKey, yamlVal)
		applied++
	}

	log.Info("config: loaded YAML config",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
	)

	return path, nil
}

// FromEnv builds the resolved runtime configuration from the environment,
// applying defaults where a variable is unset. Call after Load so YAML
// values have been projected into the environment.
func FromEnv() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		OpenAI: OpenAIConfig{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    os.Getenv("OPENAI_BASE_URL"),
			ChatModel:  os.Getenv("OPENAI_CHAT_MODEL"),
			EmbedModel: os.Getenv("OPENAI_EMBED_MODEL"),
			Dimensions:    envInt("EMBEDDING_DIMENSIONS", 1536),
			CacheTTLHours: envInt("EMBEDDING_CACHE_TTL_HOURS", 7*24),
		},
		Ingest: IngestConfig{
			DuplicateThreshold: envFloat("DUPLICATE_THRESHOLD", 0.95),
			BackfillWindow:     envInt("BACKFILL_WINDOW", 200),
			MessageIntervalMS:  envInt("MESSAGE_INTERVAL_MS", 100),
			ChannelIntervalMS:  envInt("CHANNEL_INTERVAL_MS", 500),
		},
		Server: ServerConfig{
			Host:     envStr("SERVER_HOST", "127.0.0.1"),
			Port:     envInt("SERVER_PORT", 8080),
			PageSize: envInt("PAGE_SIZE", 20),
		},
		Logging: LoggingConfig{
			Level:  envStr("LOG_LEVEL", "info"),
			Format: envStr("LOG_FORMAT", "json"),
		},
	}
}

// CacheTTL returns the embedding cache lifetime as a duration.
func (c OpenAIConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// MessageInterval returns the inter-message delay as a duration.
func (c IngestConfig) MessageInterval() time.Duration {
	return time.Duration(c.MessageIntervalMS) * time.Millisecond
}

// ChannelInterval returns the inter-channel delay as a duration.
func (c IngestConfig) ChannelInterval() time.Duration {
	return time.Duration(c.ChannelIntervalMS) * time.Millisecond
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("JOBPULSE_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".jobpulse", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("jobpulse.yaml"); err == nil {
		return "jobpulse.yaml"
	}

	return ""
}

// envStr returns the env var value, or def when unset or empty.
func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt returns the env var parsed as an int, or def when unset or invalid.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// envFloat returns the env var parsed as a float, or def when unset or invalid.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// floatStr converts a float to string, returning "" for zero values.
func floatStr(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
