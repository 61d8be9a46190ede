package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jobpulse/jobpulse-go/internal/ai"
	"github.com/jobpulse/jobpulse-go/internal/cache"
	"github.com/jobpulse/jobpulse-go/internal/config"
	"github.com/jobpulse/jobpulse-go/internal/storage"
)

// openStore connects to Postgres and ensures the schema. The caller owns
// the returned store and must Close it.
func openStore(ctx context.Context, cfg *config.Config) (*storage.Postgres, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required (env var or database.url in the config file)")
	}
	store, err := storage.NewPostgres(ctx, cfg.Database.URL, cfg.OpenAI.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return store, nil
}

// openCache connects the Redis embedding cache when REDIS_URL is set.
// A missing URL disables caching rather than failing the command; the
// returned closer is always safe to defer.
func openCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (cache.Cache, func(), error) {
	if cfg.Redis.URL == "" {
		log.Info("embedding cache disabled", slog.String("reason", "REDIS_URL not set"))
		return nil, func() {}, nil
	}

	rc, err := cache.NewRedis(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Info("embedding cache enabled")
	return rc, func() { _ = rc.Close() }, nil
}

// newAIService builds the OpenAI-backed AI collaborator from config.
func newAIService(cfg *config.Config, embedCache cache.Cache) (*ai.OpenAI, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required (env var or openai.api_key in the config file)")
	}
	return ai.NewOpenAI(&ai.OpenAIConfig{
		BaseURL:    cfg.OpenAI.BaseURL,
		APIKey:     cfg.OpenAI.APIKey,
		ChatModel:  cfg.OpenAI.ChatModel,
		EmbedModel: cfg.OpenAI.EmbedModel,
		Dimensions: cfg.OpenAI.Dimensions,
		Cache:      embedCache,
		CacheTTL:   cfg.OpenAI.CacheTTL(),
	}), nil
}
