package likes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action is what a queued intent asks the store to end up with.
type Action int8

const (
	ActionLike   Action = 1
	ActionUnlike Action = -1
)

func (a Action) String() string {
	switch a {
	case ActionLike:
		return "like"
	case ActionUnlike:
		return "unlike"
	default:
		return "unknown"
	}
}

// ParseAction is the inverse of Action.String.
func ParseAction(s string) (Action, error) {
	switch s {
	case "like":
		return ActionLike, nil
	case "unlike":
		return ActionUnlike, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// QueuedIntent is a toggle recorded while offline.
type QueuedIntent struct {
	ID       string
	UserID   string
	Key      Key
	Data     ItemData
	Action   Action
	QueuedAt time.Time
}

type intentJSON struct {
	ID       string          `json:"id"`
	UserID   string          `json:"user_id"`
	ItemType ItemType        `json:"item_type"`
	ItemID   string          `json:"item_id"`
	Data     json.RawMessage `json:"item_data,omitempty"`
	Action   string          `json:"action"`
	QueuedAt time.Time       `json:"queued_at"`
}

func (q QueuedIntent) MarshalJSON() ([]byte, error) {
	out := intentJSON{
		ID:       q.ID,
		UserID:   q.UserID,
		ItemType: q.Key.Type,
		ItemID:   q.Key.ID,
		Action:   q.Action.String(),
		QueuedAt: q.QueuedAt,
	}
	if q.Data != nil {
		raw, err := EncodeItemData(q.Data)
		if err != nil {
			return nil, err
		}
		out.Data = raw
	}
	return json.Marshal(out)
}

func (q *QueuedIntent) UnmarshalJSON(b []byte) error {
	var in intentJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	action, err := ParseAction(in.Action)
	if err != nil {
		return err
	}

	*q = QueuedIntent{
		ID:       in.ID,
		UserID:   in.UserID,
		Key:      Key{Type: in.ItemType, ID: in.ItemID},
		Action:   action,
		QueuedAt: in.QueuedAt,
	}
	if len(in.Data) > 0 {
		data, err := DecodeItemData(in.ItemType, in.Data)
		if err != nil {
			return err
		}
		q.Data = data
	}
	return nil
}

// QueueEntry is one stored intent. Err is set when the stored entry could not
// be decoded; the entry still occupies its slot until dropped.
type QueueEntry struct {
	Intent QueuedIntent
	Err    error
}

// QueueStore holds queued intents in FIFO order.
type QueueStore interface {
	Append(ctx context.Context, intent QueuedIntent) error
	// Load returns every stored entry, oldest first, including undecodable ones.
	Load(ctx context.Context) ([]QueueEntry, error)
	// Drop removes the n oldest entries.
	Drop(ctx context.Context, n int) error
}

// MemoryQueueStore keeps intents in process memory; they do not survive a
// restart.
type MemoryQueueStore struct {
	mu      sync.Mutex
	intents []QueuedIntent
}

func NewMemoryQueueStore() *MemoryQueueStore { return &MemoryQueueStore{} }

func (m *MemoryQueueStore) Append(_ context.Context, intent QueuedIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents = append(m.intents, intent)
	return nil
}

func (m *MemoryQueueStore) Load(_ context.Context) ([]QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]QueueEntry, 0, len(m.intents))
	for _, in := range m.intents {
		out = append(out, QueueEntry{Intent: in})
	}
	return out, nil
}

func (m *MemoryQueueStore) Drop(_ context.Context, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n >= len(m.intents) {
		m.intents = nil
		return nil
	}
	m.intents = append([]QueuedIntent(nil), m.intents[n:]...)
	return nil
}

// ReplayReport summarizes one replay pass.
type ReplayReport struct {
	Replayed int
	Failed   int
}

// OfflineQueue records toggles made while offline and replays them in order.
type OfflineQueue struct {
	store QueueStore
	log   *slog.Logger
	now   func() time.Time

	// replayMu serializes replay passes so two reconnects never interleave.
	replayMu sync.Mutex
}

// NewOfflineQueue wraps a QueueStore; nil means an in-memory store.
func NewOfflineQueue(store QueueStore, log *slog.Logger) *OfflineQueue {
	if store == nil {
		store = NewMemoryQueueStore()
	}
	return &OfflineQueue{store: store, log: log, now: time.Now}
}

// Enqueue appends an intent, stamping its id and time if missing.
func (q *OfflineQueue) Enqueue(ctx context.Context, intent QueuedIntent) (QueuedIntent, error) {
	if intent.ID == "" {
		intent.ID = uuid.NewString()
	}
	if intent.QueuedAt.IsZero() {
		intent.QueuedAt = q.now().UTC()
	}
	if err := q.store.Append(ctx, intent); err != nil {
		return intent, fmt.Errorf("failed to queue %s intent: %w", intent.Action, err)
	}
	q.log.Info("like intent queued while offline",
		"id", intent.ID, "key", intent.Key.String(), "action", intent.Action.String())
	return intent, nil
}

// Pending returns the decodable queued intents, oldest first.
func (q *OfflineQueue) Pending(ctx context.Context) ([]QueuedIntent, error) {
	entries, err := q.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]QueuedIntent, 0, len(entries))
	for _, e := range entries {
		if e.Err != nil {
			q.log.Warn("skipping undecodable queued intent", "err", e.Err)
			continue
		}
		out = append(out, e.Intent)
	}
	return out, nil
}

// Len is the number of stored entries, undecodable ones included.
func (q *OfflineQueue) Len(ctx context.Context) (int, error) {
	entries, err := q.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load offline queue: %w", err)
	}
	return len(entries), nil
}

// Replay applies every queued intent strictly in FIFO order, waiting for each
// before starting the next. Failures are logged and not retried; undecodable
// entries count as failures. The replayed entries are dropped after the pass
// whatever their outcome. Intents queued while the pass runs stay for the
// next one.
func (q *OfflineQueue) Replay(ctx context.Context, apply func(context.Context, QueuedIntent) error) (ReplayReport, error) {
	q.replayMu.Lock()
	defer q.replayMu.Unlock()

	var report ReplayReport
	entries, err := q.store.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load offline queue: %w", err)
	}
	if len(entries) == 0 {
		return report, nil
	}

	q.log.Info("replaying offline like intents", "count", len(entries))
	for _, e := range entries {
		if e.Err != nil {
			report.Failed++
			q.log.Error("dropping undecodable queued intent", "err", e.Err)
			continue
		}
		intent := e.Intent
		if err := apply(ctx, intent); err != nil {
			report.Failed++
			q.log.Error("queued like intent failed",
				"id", intent.ID, "key", intent.Key.String(), "action", intent.Action.String(), "err", err)
			continue
		}
		report.Replayed++
	}

	if err := q.store.Drop(ctx, len(entries)); err != nil {
		return report, fmt.Errorf("failed to drop replayed intents: %w", err)
	}
	q.log.Info("offline queue replayed", "replayed", report.Replayed, "failed", report.Failed)
	return report, nil
}
