package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/shuttle-league/internal/config"
)

// PendingTTL bounds how long a cached badge count may live without being refreshed.
const PendingTTL = time.Hour

// RedisCache wraps the Redis client with match log key helpers.
type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForPendingCount generates the Redis key for a user's "awaiting your decision" badge.
func (c *RedisCache) KeyForPendingCount(userID uint64) string {
	return fmt.Sprintf("matchlog:pending:%d", userID)
}

// SetPendingCount stores the badge count, always refreshing the TTL.
func (c *RedisCache) SetPendingCount(ctx context.Context, userID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForPendingCount(userID), count, PendingTTL).Err()
}

// GetPendingCount returns the cached badge count. ok is false on a cache miss.
func (c *RedisCache) GetPendingCount(ctx context.Context, userID uint64) (count int64, ok bool, err error) {
	key := c.KeyForPendingCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, PendingTTL).Err()
	return n, true, nil
}

// InvalidatePending drops the badge counts of every given user.
func (c *RedisCache) InvalidatePending(ctx context.Context, userIDs ...uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, c.KeyForPendingCount(id))
	}
	return c.Client.Del(ctx, keys...).Err()
}
