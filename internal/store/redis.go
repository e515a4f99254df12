package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nsit-tools/attendance-dashboard/internal/config"
	"github.com/nsit-tools/attendance-dashboard/internal/view"
)

// RedisStore keeps visitor state as JSON under config.CacheKey.VisitorViewKey
// with a TTL, so several server replicas can share visitors.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a new RedisStore.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, visitorID string) (view.State, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.VisitorViewKey(visitorID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return view.State{}, ErrNotFound
		}
		return view.State{}, fmt.Errorf("get visitor state: %w", err)
	}

	var st view.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return view.State{}, fmt.Errorf("decode visitor state: %w", err)
	}
	return st, nil
}

func (s *RedisStore) Put(ctx context.Context, visitorID string, st view.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode visitor state: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.VisitorViewKey(visitorID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store visitor state: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, visitorID string) error {
	return s.rdb.Del(ctx, config.CacheKey.VisitorViewKey(visitorID)).Err()
}
