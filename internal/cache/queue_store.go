package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oggyb/motorplace/internal/likes"
)

// RedisQueueStore persists an offline queue as a Redis list so queued likes
// survive a client restart.
type RedisQueueStore struct {
	cache *RedisCache
	key   string
}

var _ likes.QueueStore = (*RedisQueueStore)(nil)

// NewRedisQueueStore stores the queue named name under likes:queue:{name}.
func NewRedisQueueStore(c *RedisCache, name string) *RedisQueueStore {
	return &RedisQueueStore{cache: c, key: "likes:queue:" + name}
}

func (s *RedisQueueStore) Append(ctx context.Context, intent likes.QueuedIntent) error {
	raw, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	return s.cache.Client.RPush(ctx, s.key, raw).Err()
}

// Load decodes every entry. An entry that does not decode is returned with
// Err set so replay can count and drop it.
func (s *RedisQueueStore) Load(ctx context.Context) ([]likes.QueueEntry, error) {
	vals, err := s.cache.Client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]likes.QueueEntry, 0, len(vals))
	for i, v := range vals {
		var e likes.QueueEntry
		if err := json.Unmarshal([]byte(v), &e.Intent); err != nil {
			e = likes.QueueEntry{Err: fmt.Errorf("queued intent %d: %w", i, err)}
		}
		out = append(out, e)
	}
	return out, nil
}

// Drop trims the n oldest entries.
func (s *RedisQueueStore) Drop(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	return s.cache.Client.LTrim(ctx, s.key, int64(n), -1).Err()
}
