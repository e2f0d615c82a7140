package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tryonlabs/tryon/internal/logger"
)

// RedisKeyPrefix prefixes every quota cache key
const RedisKeyPrefix = "quota:"

// RedisCache shares quota views between instances through Redis
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache wraps an existing client
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// DialRedis connects to addr and verifies the connection with a PING
func DialRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func redisKey(userID string) string {
	return RedisKeyPrefix + userID
}

// Get reads the cached status. Redis errors count as a miss.
func (c *RedisCache) Get(ctx context.Context, userID string) (*Status, bool) {
	val, err := c.rdb.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logger.Warnf("quota cache get failed for %s: %v", userID, err)
		return nil, false
	}

	var status Status
	if err := json.Unmarshal(val, &status); err != nil {
		logger.Warnf("quota cache entry for %s is corrupt: %v", userID, err)
		return nil, false
	}
	return &status, true
}

// Set stores the status with the configured TTL
func (c *RedisCache) Set(ctx context.Context, userID string, status *Status) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, redisKey(userID), data, c.ttl).Err()
}

// Invalidate deletes the user's key
func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, redisKey(userID)).Err()
}
