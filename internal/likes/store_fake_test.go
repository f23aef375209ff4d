package likes_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oggyb/motorplace/internal/likes"
)

// memStore is an in-memory likes.Store with failure injection.
type memStore struct {
	mu    sync.Mutex
	rows  map[string]map[likes.Key]likes.LikedItem
	fail  error
	calls map[string]int
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]map[likes.Key]likes.LikedItem{}, calls: map[string]int{}}
}

func (m *memStore) enter(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.fail
}

func (m *memStore) setFail(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

func (m *memStore) callCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *memStore) Exists(_ context.Context, userID string, key likes.Key) (bool, error) {
	if err := m.enter("exists"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[userID][key]
	return ok, nil
}

func (m *memStore) Insert(_ context.Context, item likes.LikedItem) (bool, error) {
	if err := m.enter("insert"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[item.UserID] == nil {
		m.rows[item.UserID] = map[likes.Key]likes.LikedItem{}
	}
	if _, ok := m.rows[item.UserID][item.Key]; ok {
		return false, nil
	}
	m.rows[item.UserID][item.Key] = item
	return true, nil
}

func (m *memStore) Delete(_ context.Context, userID string, key likes.Key) (bool, error) {
	if err := m.enter("delete"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[userID][key]
	delete(m.rows[userID], key)
	return ok, nil
}

func (m *memStore) DeleteAll(_ context.Context, userID string, t likes.ItemType) (int64, error) {
	if err := m.enter("delete_all"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.rows[userID] {
		if t == "" || k.Type == t {
			delete(m.rows[userID], k)
			n++
		}
	}
	return n, nil
}

func (m *memStore) Count(_ context.Context, key likes.Key) (int64, error) {
	if err := m.enter("count"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, rows := range m.rows {
		if _, ok := rows[key]; ok {
			n++
		}
	}
	return n, nil
}

func (m *memStore) List(_ context.Context, userID string, q likes.ListQuery) ([]likes.LikedItem, int64, error) {
	if err := m.enter("list"); err != nil {
		return nil, 0, err
	}
	return m.page(userID, q.Page, q.PageSize, func(it likes.LikedItem) bool {
		return q.Type == "" || it.Key.Type == q.Type
	})
}

func (m *memStore) Search(_ context.Context, userID string, q likes.SearchQuery) ([]likes.LikedItem, int64, error) {
	if err := m.enter("search"); err != nil {
		return nil, 0, err
	}
	needle := strings.ToLower(q.Query)
	return m.page(userID, q.Page, q.PageSize, func(it likes.LikedItem) bool {
		return strings.Contains(it.Data.Summary().SearchText(), needle)
	})
}

func (m *memStore) page(userID string, page, size int, keep func(likes.LikedItem) bool) ([]likes.LikedItem, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []likes.LikedItem
	for _, it := range m.rows[userID] {
		if it.Data.Summary().Status == likes.StatusActive && keep(it) {
			all = append(all, it)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].LikedAt.Equal(all[j].LikedAt) {
			return all[i].LikedAt.After(all[j].LikedAt)
		}
		return all[i].Key.ID > all[j].Key.ID
	})

	start := (page - 1) * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

// stepClock advances one second per call so like timestamps are ordered.
type stepClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newStepClock() *stepClock {
	return &stepClock{cur: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

func queueLen(t *testing.T, q *likes.OfflineQueue) int {
	t.Helper()
	n, err := q.Len(context.Background())
	require.NoError(t, err)
	return n
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func landCruiser() likes.ProductData {
	return likes.ProductData{
		Title:       "2023 Toyota Land Cruiser",
		Description: "One owner, full service history",
		Price:       85000,
		Currency:    "usd",
		Make:        "Toyota",
		Model:       "Land Cruiser",
		Year:        2023,
	}
}
