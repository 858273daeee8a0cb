package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dividas/backend/internal/domain/shared"
	"github.com/dividas/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewIdempotencyStore returns a Redis store when Redis is enabled and
// reachable, and an in-memory store otherwise.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) shared.IdempotencyStore {
	if !cfg.Enabled {
		logger.Info("redis disabled, using in-memory idempotency store")
		return NewMemoryStore(5 * time.Minute)
	}

	store, err := dialRedis(ctx, cfg)
	if err != nil {
		logger.Warn("redis unavailable, falling back to in-memory idempotency store",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		return NewMemoryStore(5 * time.Minute)
	}
	logger.Info("using redis idempotency store", zap.String("addr", cfg.Addr()))
	return store
}

func dialRedis(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStore(client, ""), nil
}
