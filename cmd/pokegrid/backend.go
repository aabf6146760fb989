package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/pokegrid/internal/config"
	"github.com/Sternrassler/pokegrid/pkg/cache"
)

// newStore opens the configured cache backend. It returns a nil store for
// the "none" backend. The closer is never nil.
func newStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, io.Closer, error) {
	switch cfg.Backend {
	case config.CacheNone:
		log.Info().Msg("Response cache disabled")
		return nil, io.NopCloser(nil), nil

	case config.CacheMemory:
		store, err := cache.NewMemoryStore(cfg.MemorySize)
		if err != nil {
			return nil, nil, fmt.Errorf("create memory cache: %w", err)
		}
		log.Info().Int("size", cfg.MemorySize).Msg("Using in-memory response cache")
		return store, io.NopCloser(nil), nil

	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
		return cache.NewRedisStore(client), client, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
