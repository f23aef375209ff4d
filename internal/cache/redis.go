package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/motorplace/internal/config"
	"github.com/oggyb/motorplace/internal/likes"
)

const defaultCountTTL = 10 * time.Minute

type RedisCache struct {
	Client *redis.Client
	// CountTTL bounds how long a cached like counter may lag the database.
	CountTTL time.Duration
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
	ttl := cfg.Likes.CountTTL
	if ttl <= 0 {
		ttl = defaultCountTTL
	}
	return &RedisCache{Client: redis.NewClient(opts), CountTTL: ttl}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForItemCount generates Redis key for an item's like count
func (c *RedisCache) KeyForItemCount(key likes.Key) string {
	return fmt.Sprintf("likes:count:%s:%s", key.Type, key.ID)
}

func (c *RedisCache) SetItemCount(ctx context.Context, key likes.Key, count int64) error {
	// Always refresh TTL when updating
	return c.Client.Set(ctx, c.KeyForItemCount(key), count, c.CountTTL).Err()
}

// GetItemCount returns the cached counter; ok is false on a miss.
func (c *RedisCache) GetItemCount(ctx context.Context, key likes.Key) (count int64, ok bool, err error) {
	val, err := c.Client.Get(ctx, c.KeyForItemCount(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// corrupt entry, treat as a miss
		_ = c.Client.Del(ctx, c.KeyForItemCount(key)).Err()
		return 0, false, nil
	}
	return n, true, nil
}

// InvalidateItemCount drops the counter so the next read recounts.
func (c *RedisCache) InvalidateItemCount(ctx context.Context, key likes.Key) error {
	return c.Client.Del(ctx, c.KeyForItemCount(key)).Err()
}
