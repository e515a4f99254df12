package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nsit-tools/attendance-dashboard/internal/config"
	"github.com/nsit-tools/attendance-dashboard/internal/store"
)

// OpenStore builds the visitor state store selected by STORE_DRIVER. The
// returned close func releases any connection and is never nil.
func OpenStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverRedis:
		rdb, err := NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, func() {}, err
		}
		return store.NewRedisStore(rdb, cfg.SessionTTL), func() { _ = rdb.Close() }, nil
	case config.StoreDriverMemory, "":
		log.Info().Dur("ttl", cfg.SessionTTL).Msg("Using in-memory visitor store")
		return store.NewMemoryStore(ctx, cfg.SessionTTL), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewRedisClient creates and validates a Redis client connection.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")

	return rdb, nil
}
