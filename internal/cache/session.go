package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

func sessionKey(device, username string) string {
	return "likes:session:" + device + ":" + username
}

// RememberUser records the user id a username signed in as on device, so
// later offline sessions queue intents under the right id.
func (c *RedisCache) RememberUser(ctx context.Context, device, username, userID string) error {
	return c.Client.Set(ctx, sessionKey(device, username), userID, 0).Err()
}

// RecallUser returns the remembered user id; ok is false when there is none.
func (c *RedisCache) RecallUser(ctx context.Context, device, username string) (userID string, ok bool, err error) {
	userID, err = c.Client.Get(ctx, sessionKey(device, username)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}
