package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/motorplace/internal/cache"
	"github.com/oggyb/motorplace/internal/config"
	"github.com/oggyb/motorplace/internal/likes"
	"github.com/oggyb/motorplace/internal/logger"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *cache.RedisCache) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Likes.CountTTL = time.Minute

	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })
	return mr, rc
}

func TestItemCountRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, rc := setupRedis(t)
	key := likes.Key{Type: likes.ItemTypeProduct, ID: "veh-1001"}

	_, ok, err := rc.GetItemCount(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rc.SetItemCount(ctx, key, 7))
	n, ok, err := rc.GetItemCount(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 7, n)
	assert.Equal(t, time.Minute, mr.TTL("likes:count:product:veh-1001"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = rc.GetItemCount(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestItemCountInvalidate(t *testing.T) {
	ctx := context.Background()
	mr, rc := setupRedis(t)
	key := likes.Key{Type: likes.ItemTypeStore, ID: "store-5001"}

	require.NoError(t, rc.SetItemCount(ctx, key, 3))
	require.NoError(t, rc.InvalidateItemCount(ctx, key))
	assert.False(t, mr.Exists("likes:count:store:store-5001"))

	// garbage counters are dropped instead of failing reads
	require.NoError(t, mr.Set("likes:count:store:store-5001", "abc"))
	_, ok, err := rc.GetItemCount(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("likes:count:store:store-5001"))
}

func TestRedisQueueStoreFIFO(t *testing.T) {
	ctx := context.Background()
	_, rc := setupRedis(t)
	store := cache.NewRedisQueueStore(rc, "device-1")

	intents := []likes.QueuedIntent{
		{ID: "1", UserID: "u1", Key: likes.Key{Type: likes.ItemTypePost, ID: "a"}, Action: likes.ActionUnlike},
		{ID: "2", UserID: "u1", Key: likes.Key{Type: likes.ItemTypeStore, ID: "b"}, Action: likes.ActionLike,
			Data: likes.StoreData{Title: "Northside Motors", Status: "active"}},
		{ID: "3", UserID: "u1", Key: likes.Key{Type: likes.ItemTypePost, ID: "c"}, Action: likes.ActionUnlike},
	}
	for _, in := range intents {
		require.NoError(t, store.Append(ctx, in))
	}

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{got[0].Intent.ID, got[1].Intent.ID, got[2].Intent.ID})
	assert.Equal(t, intents[1].Data, got[1].Intent.Data)

	require.NoError(t, store.Drop(ctx, 2))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].Intent.ID)
}

func TestRedisQueueSurvivesNewQueue(t *testing.T) {
	ctx := context.Background()
	_, rc := setupRedis(t)
	log := logger.Discard()

	q := likes.NewOfflineQueue(cache.NewRedisQueueStore(rc, "device-1"), log)
	_, err := q.Enqueue(ctx, likes.QueuedIntent{UserID: "u1", Key: likes.Key{Type: likes.ItemTypePost, ID: "a"}, Action: likes.ActionUnlike})
	require.NoError(t, err)

	// a restarted client sees the same queue
	restarted := likes.NewOfflineQueue(cache.NewRedisQueueStore(rc, "device-1"), log)
	n, err := restarted.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	report, err := restarted.Replay(ctx, func(context.Context, likes.QueuedIntent) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, report.Replayed)
	n, err = q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisQueueReplaysPastCorruptEntry(t *testing.T) {
	ctx := context.Background()
	mr, rc := setupRedis(t)
	q := likes.NewOfflineQueue(cache.NewRedisQueueStore(rc, "dev1"), logger.Discard())

	_, err := q.Enqueue(ctx, likes.QueuedIntent{UserID: "u1", Key: likes.Key{Type: likes.ItemTypePost, ID: "a"}, Action: likes.ActionUnlike})
	require.NoError(t, err)
	// an entry written by an older client lands at the head of the list
	_, err = mr.Lpush("likes:queue:dev1", `{"item_type":"boat","item_id":"b1","item_data":{"title":"Dinghy"},"action":"like"}`)
	require.NoError(t, err)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a", pending[0].Key.ID)

	var applied []string
	report, err := q.Replay(ctx, func(_ context.Context, in likes.QueuedIntent) error {
		applied = append(applied, in.Key.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, likes.ReplayReport{Replayed: 1, Failed: 1}, report)
	assert.Equal(t, []string{"a"}, applied)
	assert.False(t, mr.Exists("likes:queue:dev1"))
}

func TestRememberUser(t *testing.T) {
	ctx := context.Background()
	_, rc := setupRedis(t)

	_, ok, err := rc.RecallUser(ctx, "laptop", "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rc.RememberUser(ctx, "laptop", "alice", "alice-id"))
	id, ok, err := rc.RecallUser(ctx, "laptop", "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice-id", id)

	_, ok, err = rc.RecallUser(ctx, "phone", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}
