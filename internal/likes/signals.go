package likes

import (
	"context"
	"log/slog"
	"sync"
)

// Session exposes the signed-in user. An empty/false result means nobody is
// signed in, which every mutating operation treats as a hard precondition
// failure.
type Session interface {
	UserID() (string, bool)
}

// Connectivity is the online/offline signal consumed by the offline queue.
type Connectivity interface {
	Online() bool
	// Subscribe delivers every transition until cancel is called.
	Subscribe() (ch <-chan bool, cancel func())
}

// Notifier surfaces transient, dismissible notices to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NoticeLevel grades a Notice.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a user-visible message about a like operation.
type Notice struct {
	Level   NoticeLevel
	Key     Key
	Message string
	Err     error
}

// broadcaster fans a value out to subscribers. Slow subscribers only see the
// latest value; intermediate transitions may be coalesced.
type broadcaster[T any] struct {
	mu   sync.Mutex
	subs map[int]chan T
	next int
}

func (b *broadcaster[T]) subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[int]chan T)
	}
	id := b.next
	b.next++
	ch := make(chan T, 1)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

func (b *broadcaster[T]) publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			// drop the stale value and keep the newest
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

// ConnectivitySignal is a settable Connectivity.
type ConnectivitySignal struct {
	mu     sync.RWMutex
	online bool
	bc     broadcaster[bool]
}

// NewConnectivitySignal starts in the given state.
func NewConnectivitySignal(online bool) *ConnectivitySignal {
	return &ConnectivitySignal{online: online}
}

func (s *ConnectivitySignal) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

// Set records the state and notifies subscribers on transitions only.
func (s *ConnectivitySignal) Set(online bool) {
	s.mu.Lock()
	changed := s.online != online
	s.online = online
	s.mu.Unlock()

	if changed {
		s.bc.publish(online)
	}
}

func (s *ConnectivitySignal) Subscribe() (<-chan bool, func()) { return s.bc.subscribe() }

// SessionState is a Session that can be signed in and out; subscribers see
// every change of user ("" on sign-out).
type SessionState struct {
	mu     sync.RWMutex
	userID string
	bc     broadcaster[string]
}

// NewSessionState starts signed in as userID, or signed out when empty.
func NewSessionState(userID string) *SessionState {
	return &SessionState{userID: userID}
}

func (s *SessionState) UserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}

func (s *SessionState) SignIn(userID string) { s.set(userID) }

func (s *SessionState) SignOut() { s.set("") }

func (s *SessionState) set(userID string) {
	s.mu.Lock()
	changed := s.userID != userID
	s.userID = userID
	s.mu.Unlock()

	if changed {
		s.bc.publish(userID)
	}
}

// Subscribe delivers session changes until cancel is called.
func (s *SessionState) Subscribe() (<-chan string, func()) { return s.bc.subscribe() }

// LogNotifier writes notices to a logger. Used when no UI is attached.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, notice Notice) {
	level := slog.LevelInfo
	if notice.Level == NoticeError {
		level = slog.LevelError
	}
	attrs := []any{"key", notice.Key.String()}
	if notice.Err != nil {
		attrs = append(attrs, "err", notice.Err)
	}
	n.Logger.Log(ctx, level, notice.Message, attrs...)
}
