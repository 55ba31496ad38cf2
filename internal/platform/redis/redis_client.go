// Package redis builds the Redis client backing the cache.
package redis

import (
	"github.com/redis/go-redis/v9"

	"market_gateway/internal/platform/config"
)

// NewRedisClient builds a client for cfg, or returns nil when no host is configured.
// The connection is not checked here; cache.RedisStore.Connect does that at startup.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	addr := cfg.Addr()
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
