package cache

import (
	"context"
	"fmt"

	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisOptions maps the Redis settings onto go-redis options
func RedisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewIdempotencyStore builds the store named by cfg.Alerting.IdempotencyStore.
// When Redis is requested but unreachable the in-memory store is used outside
// production; in production the error is returned.
func NewIdempotencyStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (shared.IdempotencyStore, error) {
	switch cfg.Alerting.IdempotencyStore {
	case config.StoreRedis:
		store, err := DialRedisIdempotencyStore(ctx, RedisOptions(cfg.Redis))
		if err == nil {
			log.Info("using redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
			return store, nil
		}
		if cfg.IsProduction() {
			return nil, fmt.Errorf("redis idempotency store: %w", err)
		}
		log.Warn("redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
		return NewInMemoryIdempotencyStore(0), nil
	case config.StoreMemory, "":
		log.Info("using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(0), nil
	default:
		return nil, fmt.Errorf("unknown idempotency store %q", cfg.Alerting.IdempotencyStore)
	}
}
