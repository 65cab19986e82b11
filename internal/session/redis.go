package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"absensi/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "absensi:session:"

// RedisCache shares session entries between API replicas. Keys live as long
// as the session token; there is no shorter freshness window.
type RedisCache struct {
	rdb      *redis.Client
	lifetime time.Duration
}

// NewRedisCache connects to url and checks connectivity
func NewRedisCache(url string, sessionLifetime time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{rdb: rdb, lifetime: sessionLifetime}, nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(rdb *redis.Client, sessionLifetime time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, lifetime: sessionLifetime}
}

func (c *RedisCache) Get(ctx context.Context, sessionID uuid.UUID) (*model.Profile, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+sessionID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("session cache get: %w", err)
	}

	var p model.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, fmt.Errorf("session cache decode: %w", err)
	}
	return &p, true, nil
}

func (c *RedisCache) Set(ctx context.Context, sessionID uuid.UUID, profile *model.Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("session cache encode: %w", err)
	}
	return c.rdb.Set(ctx, keyPrefix+sessionID.String(), raw, c.lifetime).Err()
}

func (c *RedisCache) Clear(ctx context.Context, sessionID uuid.UUID) error {
	return c.rdb.Del(ctx, keyPrefix+sessionID.String()).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
