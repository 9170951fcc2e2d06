package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aula-go-api/internal/observability"
)

// RedisStore keeps JSON payloads in Redis.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore wraps an established Redis client.
func NewRedisStore(client *redis.Client, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.CacheLookups().WithLabelValues("redis", "miss").Inc()
		return false, nil
	}
	if err != nil {
		observability.CacheLookups().WithLabelValues("redis", "error").Inc()
		return false, fmt.Errorf("read cache key %s: %w", key, err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		// A stale shape is treated as a miss and dropped.
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		observability.CacheLookups().WithLabelValues("redis", "miss").Inc()
		if delErr := s.client.Del(ctx, key).Err(); delErr != nil {
			s.logger.Warn().Err(delErr).Str("key", key).Msg("failed to drop cache entry")
		}
		return false, nil
	}

	observability.CacheLookups().WithLabelValues("redis", "hit").Inc()
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache key %s: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("write cache key %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate cache keys: %w", err)
	}
	return nil
}
