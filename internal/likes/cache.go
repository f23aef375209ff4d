package likes

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	svcErr "github.com/oggyb/motorplace/internal/errors"
)

const (
	noticeRollback = "Could not update your favorites. Please try again."
	noticeQueued   = "You're offline. This favorite will sync when you reconnect."
	noticeSignIn   = "Sign in to save favorites."
)

// DefaultStatusTTL is how long a fetched LikeStatus is served without refetching.
const DefaultStatusTTL = 5 * time.Minute

// SessionWatcher is implemented by sessions that announce sign-in changes.
type SessionWatcher interface {
	Subscribe() (<-chan string, func())
}

// Cache is the optimistic like cache shared by every view of one session.
// It is safe for concurrent use; remote calls never run under its lock.
type Cache struct {
	gw       LikedItemsGateway
	session  Session
	conn     Connectivity
	queue    *OfflineQueue
	notifier Notifier
	log      *slog.Logger
	ttl      time.Duration
	now      func() time.Time

	mu sync.Mutex

	// owner is the user whose statuses are cached.
	owner       string
	entries     map[Key]*entry
	pages       map[string]cachedPage
	listGen     uint64
	listCancels map[uint64]context.CancelFunc
	subs        map[uint64]func(Event)
	nextID      uint64
}

type entry struct {
	status    LikeStatus
	known     bool
	fetchedAt time.Time
	state     State
	inflight  int
	queued    int
	// seq changes on every write so a late failure never rolls back over a
	// newer speculation or reconciliation.
	seq        uint64
	// overlapped is set when a toggle started while another was in flight;
	// their responses may settle out of order.
	overlapped bool
	readGen    uint64
	cancelRead context.CancelFunc
}

type cachedPage struct {
	page      Page
	fetchedAt time.Time
}

// CacheOption customizes a Cache.
type CacheOption func(*Cache)

// WithStatusTTL sets the freshness window for statuses and list pages.
func WithStatusTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithNotifier routes user-visible notices; defaults to a LogNotifier.
func WithNotifier(n Notifier) CacheOption {
	return func(c *Cache) { c.notifier = n }
}

// WithQueue sets the offline queue; defaults to an in-memory one.
func WithQueue(q *OfflineQueue) CacheOption {
	return func(c *Cache) { c.queue = q }
}

// NewCache builds a cache over gw. A nil conn means always online.
func NewCache(gw LikedItemsGateway, session Session, conn Connectivity, log *slog.Logger, opts ...CacheOption) *Cache {
	if conn == nil {
		conn = NewConnectivitySignal(true)
	}
	c := &Cache{
		gw:          gw,
		session:     session,
		conn:        conn,
		log:         log,
		ttl:         DefaultStatusTTL,
		now:         time.Now,
		entries:     make(map[Key]*entry),
		pages:       make(map[string]cachedPage),
		listCancels: make(map[uint64]context.CancelFunc),
		subs:        make(map[uint64]func(Event)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = LogNotifier{Logger: log}
	}
	if c.queue == nil {
		c.queue = NewOfflineQueue(nil, log)
	}
	c.owner, _ = session.UserID()
	return c
}

// Queue exposes the offline queue, mainly for inspection.
func (c *Cache) Queue() *OfflineQueue { return c.queue }

// Toggle flips the like state of an item. The flip is visible to Peek and
// subscribers before the remote call is issued; the server's answer then
// replaces it, or the previous state is restored if the call fails.
//
// While offline the flip is kept and the intent is queued for replay instead.
// Toggle blocks until the mutation settles; UI callers run it in a goroutine.
func (c *Cache) Toggle(ctx context.Context, t ItemType, itemID string, data ItemData) error {
	key := Key{Type: t, ID: itemID}
	if err := key.Validate(); err != nil {
		return err
	}
	userID, ok := c.session.UserID()
	if !ok {
		err := svcErr.Unauthenticated("sign in to like items")
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Key: key, Message: noticeSignIn, Err: err})
		return err
	}

	online := c.conn.Online()
	if online && !c.known(key) {
		// the flip needs a base; a failed read leaves the zero status
		_, _ = c.Status(ctx, t, itemID)
	}

	c.mu.Lock()
	e := c.entryLocked(key)

	prev, prevKnown := e.status, e.known
	next := flip(prev)
	if next.IsLiked {
		data = NormalizeItemData(data)
		if err := ValidateItemData(t, data); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.cancelReadsLocked(e)

	e.status, e.known = next, true
	e.seq++
	seq := e.seq

	if !online {
		e.queued++
		speculative := c.snapshotLocked(key, e)
		c.mu.Unlock()
		c.emit(Event{Snapshot: speculative})
		return c.enqueue(ctx, userID, key, data, next, prev, prevKnown, seq)
	}

	if e.inflight > 0 {
		e.overlapped = true
	}
	e.inflight++
	c.moveLocked(key, e, StatePending)
	pending := c.snapshotLocked(key, e)
	c.mu.Unlock()
	c.emit(Event{Snapshot: pending})

	// the mutation outlives the caller; a view going away must not abort it
	st, err := c.gw.Like(context.WithoutCancel(ctx), t, itemID, data)

	c.mu.Lock()
	if err != nil {
		if e.seq == seq {
			e.status, e.known = prev, prevKnown
		}
		c.moveLocked(key, e, StateRolledBack)
	} else {
		e.status, e.known, e.fetchedAt = st, true, c.now()
		e.seq++
		c.moveLocked(key, e, StateCommitted)
		c.invalidateListsLocked()
	}
	e.inflight--
	settled := c.snapshotLocked(key, e)
	refetch := false
	if e.inflight == 0 {
		c.moveLocked(key, e, StateIdle)
		refetch, e.overlapped = e.overlapped, false
		if refetch {
			e.fetchedAt = time.Time{}
		}
	} else {
		c.moveLocked(key, e, StatePending)
	}
	final := c.snapshotLocked(key, e)
	c.mu.Unlock()

	c.emit(Event{Snapshot: settled, Err: err})
	c.emit(Event{Snapshot: final})

	if refetch {
		// the last response to arrive is not necessarily the last one applied
		if _, rerr := c.Status(context.WithoutCancel(ctx), t, itemID); rerr != nil {
			c.log.Warn("reconcile after overlapping toggles failed", "key", key.String(), "err", rerr)
		}
	}

	if err != nil {
		c.log.Warn("like toggle rolled back", "key", key.String(), "err", err)
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Key: key, Message: noticeRollback, Err: err})
		return err
	}
	c.log.Debug("like toggle committed", "key", key.String(), "liked", st.IsLiked, "total", st.TotalLikes)
	return nil
}

func (c *Cache) enqueue(ctx context.Context, userID string, key Key, data ItemData, next, prev LikeStatus, prevKnown bool, seq uint64) error {
	action := ActionUnlike
	if next.IsLiked {
		action = ActionLike
	} else {
		data = nil
	}

	_, err := c.queue.Enqueue(ctx, QueuedIntent{UserID: userID, Key: key, Data: data, Action: action})
	if err == nil {
		c.notifier.Notify(ctx, Notice{Level: NoticeInfo, Key: key, Message: noticeQueued})
		return nil
	}

	c.mu.Lock()
	e := c.entryLocked(key)
	e.queued--
	if e.seq == seq {
		e.status, e.known = prev, prevKnown
	}
	restored := c.snapshotLocked(key, e)
	c.mu.Unlock()

	c.emit(Event{Snapshot: restored, Err: err})
	c.notifier.Notify(ctx, Notice{Level: NoticeError, Key: key, Message: noticeRollback, Err: err})
	return svcErr.Map(err)
}

// Status serves the cached status while it is fresh, in flight or queued, and
// fetches it otherwise. A read overtaken by a toggle is discarded. Failures
// return the cached (possibly zero) status together with the error.
func (c *Cache) Status(ctx context.Context, t ItemType, itemID string) (LikeStatus, error) {
	key := Key{Type: t, ID: itemID}
	if err := key.Validate(); err != nil {
		return LikeStatus{}, err
	}

	c.mu.Lock()
	e := c.entryLocked(key)
	if e.inflight > 0 || e.queued > 0 || (e.known && c.freshLocked(e.fetchedAt)) {
		st := e.status
		c.mu.Unlock()
		return st, nil
	}
	if e.cancelRead != nil {
		e.cancelRead()
	}
	e.readGen++
	gen := e.readGen
	rctx, cancel := context.WithCancel(ctx)
	e.cancelRead = cancel
	c.mu.Unlock()
	defer cancel()

	st, err := c.gw.Status(rctx, t, itemID)

	c.mu.Lock()
	if e.readGen != gen {
		cur := e.status
		c.mu.Unlock()
		c.log.Debug("discarded superseded status read", "key", key.String())
		return cur, nil
	}
	e.cancelRead = nil
	if err != nil {
		cur := e.status
		c.mu.Unlock()
		c.log.Warn("status read failed", "key", key.String(), "err", err)
		return cur, err
	}
	e.status, e.known, e.fetchedAt = st, true, c.now()
	snap := c.snapshotLocked(key, e)
	c.mu.Unlock()

	c.emit(Event{Snapshot: snap})
	return st, nil
}

// Peek returns the cached state of a key without any remote call.
func (c *Cache) Peek(t ItemType, itemID string) Snapshot {
	key := Key{Type: t, ID: itemID}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return c.snapshotLocked(key, e)
	}
	return Snapshot{Key: key}
}

// InFlight reports the advisory in-flight marker of a key.
func (c *Cache) InFlight(t ItemType, itemID string) bool {
	return c.Peek(t, itemID).InFlight
}

// List returns a cached page of liked items, fetching when stale.
func (c *Cache) List(ctx context.Context, q ListQuery) (Page, error) {
	k := fmt.Sprintf("list|%s|%d|%d", q.Type, q.Page, q.PageSize)
	return c.page(ctx, k, func(ctx context.Context) (Page, error) { return c.gw.List(ctx, q) })
}

// Search returns a cached page of search results, fetching when stale.
func (c *Cache) Search(ctx context.Context, q SearchQuery) (Page, error) {
	k := fmt.Sprintf("search|%s|%d|%d", q.Query, q.Page, q.PageSize)
	return c.page(ctx, k, func(ctx context.Context) (Page, error) { return c.gw.Search(ctx, q) })
}

func (c *Cache) page(ctx context.Context, k string, fetch func(context.Context) (Page, error)) (Page, error) {
	c.mu.Lock()
	if cp, ok := c.pages[k]; ok && c.freshLocked(cp.fetchedAt) {
		c.mu.Unlock()
		return cp.page, nil
	}
	gen := c.listGen
	id := c.nextID
	c.nextID++
	rctx, cancel := context.WithCancel(ctx)
	c.listCancels[id] = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.listCancels, id)
		c.mu.Unlock()
		cancel()
	}()

	p, err := fetch(rctx)
	if err != nil {
		c.log.Warn("liked items read failed", "query", k, "err", err)
		return p, err
	}

	c.mu.Lock()
	if c.listGen == gen {
		c.pages[k] = cachedPage{page: p, fetchedAt: c.now()}
	}
	c.mu.Unlock()
	return p, nil
}

// InvalidateLists drops every cached page so the next read refetches.
func (c *Cache) InvalidateLists() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateListsLocked()
}

// Subscribe registers fn for every Event; the returned func unsubscribes.
// fn runs on the goroutine that caused the change and must not block.
func (c *Cache) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// ReplayQueue replays offline intents and reconciles each key with the
// server's answer.
func (c *Cache) ReplayQueue(ctx context.Context) (ReplayReport, error) {
	return c.queue.Replay(ctx, c.applyIntent)
}

func (c *Cache) applyIntent(ctx context.Context, in QueuedIntent) error {
	var (
		st  LikeStatus
		err error
	)
	if userID, ok := c.session.UserID(); !ok || userID != in.UserID {
		err = svcErr.Unauthenticated("queued intent belongs to another session")
	} else {
		switch in.Action {
		case ActionLike:
			// the remote like toggles, so only issue it when not liked yet
			st, err = c.gw.Status(ctx, in.Key.Type, in.Key.ID)
			if err == nil && !st.IsLiked {
				st, err = c.gw.Like(ctx, in.Key.Type, in.Key.ID, in.Data)
			}
		case ActionUnlike:
			st, err = c.gw.Unlike(ctx, in.Key.Type, in.Key.ID)
		default:
			err = svcErr.InvalidArgument("unknown queued action " + in.Action.String())
		}
	}

	c.mu.Lock()
	e := c.entryLocked(in.Key)
	if e.queued > 0 {
		e.queued--
	}
	if err == nil {
		if e.inflight == 0 {
			e.status, e.known, e.fetchedAt = st, true, c.now()
			e.seq++
		}
		c.invalidateListsLocked()
	} else if e.queued == 0 && e.inflight == 0 {
		// the speculation was never confirmed; refetch on next read
		e.known, e.fetchedAt = false, time.Time{}
	}
	snap := c.snapshotLocked(in.Key, e)
	c.mu.Unlock()

	c.emit(Event{Snapshot: snap, Err: err})
	return err
}

// Run replays the offline queue whenever connectivity returns and resets the
// cache when the signed-in user changes. It blocks until ctx is done.
func (c *Cache) Run(ctx context.Context) error {
	connCh, stopConn := c.conn.Subscribe()
	defer stopConn()

	var sessCh <-chan string
	if w, ok := c.session.(SessionWatcher); ok {
		ch, stop := w.Subscribe()
		defer stop()
		sessCh = ch
	}
	c.syncSession()

	if c.conn.Online() {
		c.replay(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case online, ok := <-connCh:
			if !ok {
				connCh = nil
				continue
			}
			if online {
				c.replay(ctx)
			}
		case _, ok := <-sessCh:
			if !ok {
				sessCh = nil
				continue
			}
			c.syncSession()
		}
	}
}

func (c *Cache) replay(ctx context.Context) {
	if _, err := c.ReplayQueue(ctx); err != nil {
		c.log.Error("offline queue replay failed", "err", err)
	}
}

// syncSession resets the cache when the signed-in user is not the one whose
// data it holds.
func (c *Cache) syncSession() {
	userID, _ := c.session.UserID()
	c.mu.Lock()
	changed := userID != c.owner
	c.owner = userID
	c.mu.Unlock()

	if changed {
		c.log.Info("session changed, resetting like cache", "user", userID)
		c.Reset()
	}
}

// Reset forgets every cached status and page and cancels pending reads.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.cancelRead != nil {
			e.cancelRead()
		}
	}
	c.entries = make(map[Key]*entry)
	c.invalidateListsLocked()
}

func (c *Cache) known(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && e.known
}

func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// cancelReadsLocked aborts the key's status read and every list read so none
// of them lands on top of the speculative write.
func (c *Cache) cancelReadsLocked(e *entry) {
	if e.cancelRead != nil {
		e.cancelRead()
		e.cancelRead = nil
	}
	e.readGen++
	for id, cancel := range c.listCancels {
		cancel()
		delete(c.listCancels, id)
	}
	c.listGen++
}

func (c *Cache) invalidateListsLocked() {
	for id, cancel := range c.listCancels {
		cancel()
		delete(c.listCancels, id)
	}
	c.listGen++
	c.pages = make(map[string]cachedPage)
}

func (c *Cache) moveLocked(key Key, e *entry, to State) {
	if !e.state.CanTransition(to) {
		c.log.Error("illegal like state transition", "key", key.String(), "from", e.state.String(), "to", to.String())
		return
	}
	e.state = to
}

func (c *Cache) freshLocked(at time.Time) bool {
	return !at.IsZero() && c.now().Sub(at) < c.ttl
}

func (c *Cache) snapshotLocked(key Key, e *entry) Snapshot {
	return Snapshot{
		Key:      key,
		Status:   e.status,
		Known:    e.known,
		State:    e.state,
		InFlight: e.inflight > 0,
		Queued:   e.queued,
	}
}

func (c *Cache) emit(ev Event) {
	c.mu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func flip(s LikeStatus) LikeStatus {
	if s.IsLiked {
		total := s.TotalLikes - 1
		if total < 0 {
			total = 0
		}
		return LikeStatus{IsLiked: false, TotalLikes: total}
	}
	return LikeStatus{IsLiked: true, TotalLikes: s.TotalLikes + 1}
}
