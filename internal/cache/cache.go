package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin JSON read-through helper over redis. Values are stored as
// serialized JSON under plain string keys.
type Cache struct {
	R *redis.Client
}

// GetJSON loads and decodes the value at key into dest. The boolean reports
// whether the key existed; decode failures are treated as a miss so a stale
// shape never breaks a handler.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.R.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes value and stores it under key with the given TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, key, raw, ttl).Err()
}

// Invalidate removes the given keys, ignoring ones that do not exist.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.R.Del(ctx, keys...).Err()
}
