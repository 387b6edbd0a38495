package quote

import (
	"context"
	"log/slog"

	"github.com/albapepper/pricewatch/internal/config"
)

// NewFromConfig builds the HTTP client wrapped in the quote cache: Redis
// when REDIS_URL is set, in-process memory otherwise. An unreachable Redis
// falls back to memory with a warning. The returned close func releases the
// Redis connection.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Fetcher, func() error) {
	client := NewClient(cfg.FetchTimeout, cfg.FetchUserAgent, cfg.FetchRequestsPerMinute, logger)

	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(ctx, cfg.RedisURL)
		if err == nil {
			logger.Info("Quote cache initialized", "backend", "redis", "ttl", cfg.QuoteCacheTTL)
			return NewCached(client, rc, cfg.QuoteCacheTTL, logger), rc.Close
		}
		logger.Warn("Redis unavailable, using in-memory quote cache", "error", err)
	}

	logger.Info("Quote cache initialized", "backend", "memory", "ttl", cfg.QuoteCacheTTL)
	return NewCached(client, NewMemoryCache(), cfg.QuoteCacheTTL, logger), func() error { return nil }
}
