package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ember-dating/engine/internal/config"
	"github.com/redis/go-redis/v9"
)

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

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.Client.Incr(ctx, key).Result()
}

func (c *RedisCache) Decr(ctx context.Context, key string) (int64, error) {
	return c.Client.Decr(ctx, key).Result()
}

// --- like counters ---

// KeyForLikeCount generates the Redis key for a user's incoming like count.
func (c *RedisCache) KeyForLikeCount(userID uint64) string {
	return fmt.Sprintf("likes:count:%d", userID)
}

func (c *RedisCache) UpdateLikeCount(ctx context.Context, userID uint64, count int64, ttl time.Duration) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(userID), count, ttl).Err()
}

func (c *RedisCache) GetLikeCount(ctx context.Context, userID uint64, ttl time.Duration) (int64, bool, error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, ttl).Err()
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat garbage as a miss
	}
	return n, true, nil
}

// --- block sets ---
//
// The resolved set of users a given user has blocked, cached as a JSON array
// with a bounded freshness window. This is the one intentionally stale
// structure in the engine: the session that blocks/unblocks invalidates its
// own entry, other sessions may observe staleness up to the TTL.

// KeyForBlockSet generates the Redis key for a user's resolved block set.
func (c *RedisCache) KeyForBlockSet(userID uint64) string {
	return fmt.Sprintf("blocks:set:%d", userID)
}

// GetBlockSet returns the cached block set for userID, and whether it was
// present.
func (c *RedisCache) GetBlockSet(ctx context.Context, userID uint64) ([]uint64, bool, error) {
	val, err := c.Client.Get(ctx, c.KeyForBlockSet(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	var ids []uint64
	if err := json.Unmarshal([]byte(val), &ids); err != nil {
		return nil, false, nil // treat garbage as a miss
	}
	return ids, true, nil
}

// SetBlockSet stores the resolved block set for userID with the given TTL.
func (c *RedisCache) SetBlockSet(ctx context.Context, userID uint64, ids []uint64, ttl time.Duration) error {
	if ids == nil {
		ids = []uint64{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.KeyForBlockSet(userID), b, ttl).Err()
}

// InvalidateBlockSet drops the cached block set for userID. Called by the
// same session that performs a Block/Unblock.
func (c *RedisCache) InvalidateBlockSet(ctx context.Context, userID uint64) error {
	return c.Client.Del(ctx, c.KeyForBlockSet(userID)).Err()
}
