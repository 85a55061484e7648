package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists cart documents as JSON values with a sliding TTL.
// Every mutating cart operation writes through this store before returning,
// so a crash right after a mutation cannot lose it.
type RedisStore struct {
	R   *redis.Client
	TTL time.Duration
}

func (s *RedisStore) key(cartID string) string {
	return "cart:" + cartID
}

// Load fetches the cart document. The second return value reports whether
// a document existed; a missing cart is not an error.
func (s *RedisStore) Load(ctx context.Context, cartID string) (Document, bool, error) {
	raw, err := s.R.Get(ctx, s.key(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("load cart: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, false, fmt.Errorf("decode cart: %w", err)
	}
	// Touch the TTL so active carts survive across sessions.
	if s.TTL > 0 {
		_ = s.R.Expire(ctx, s.key(cartID), s.TTL).Err()
	}
	return doc, true, nil
}

// Save writes the document, resetting the sliding TTL.
func (s *RedisStore) Save(ctx context.Context, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.R.Set(ctx, s.key(doc.ID), raw, s.TTL).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Delete removes the cart document entirely.
func (s *RedisStore) Delete(ctx context.Context, cartID string) error {
	if err := s.R.Del(ctx, s.key(cartID)).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
