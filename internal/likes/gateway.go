package likes

import (
	"context"
	"log/slog"
	"strings"
	"time"

	svcErr "github.com/oggyb/motorplace/internal/errors"
	"github.com/oggyb/motorplace/internal/utils/pagination"
)

// LikedItemsGateway translates like operations into remote store calls. It
// owns no state; every error it returns is a *svcErr.Error.
type LikedItemsGateway interface {
	Like(ctx context.Context, t ItemType, itemID string, data ItemData) (LikeStatus, error)
	Unlike(ctx context.Context, t ItemType, itemID string) (LikeStatus, error)
	Status(ctx context.Context, t ItemType, itemID string) (LikeStatus, error)
	List(ctx context.Context, q ListQuery) (Page, error)
	Search(ctx context.Context, q SearchQuery) (Page, error)
}

// Gateway is the LikedItemsGateway over a Store for the session's user.
type Gateway struct {
	store   Store
	session Session
	log     *slog.Logger
	now     func() time.Time

	defaultPageSize int
	maxPageSize     int
}

var _ LikedItemsGateway = (*Gateway)(nil)

// GatewayOption customizes a Gateway.
type GatewayOption func(*Gateway)

// WithPageSizes sets the default and maximum page size for List and Search.
func WithPageSizes(def, max int) GatewayOption {
	return func(g *Gateway) {
		g.defaultPageSize = def
		g.maxPageSize = max
	}
}

// WithGatewayClock overrides the clock used for like timestamps.
func WithGatewayClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) { g.now = now }
}

// NewGateway binds a store to a session.
func NewGateway(store Store, session Session, log *slog.Logger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		store:           store,
		session:         session,
		log:             log,
		now:             time.Now,
		defaultPageSize: pagination.DefaultPageSize,
		maxPageSize:     pagination.MaxPageSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Like toggles the like: an existing row is removed (IsLiked=false), otherwise
// the snapshot is inserted (IsLiked=true). TotalLikes is recounted afterwards.
//
// When a concurrent insert wins the uniqueness race the result reflects the
// row's actual existence, so two tabs liking at once both end up liked.
func (g *Gateway) Like(ctx context.Context, t ItemType, itemID string, data ItemData) (LikeStatus, error) {
	userID, key, err := g.mutationPreconditions(t, itemID)
	if err != nil {
		return LikeStatus{}, err
	}
	log := g.log.With("op", "like", "user", userID, "key", key.String())

	exists, err := g.store.Exists(ctx, userID, key)
	if err != nil {
		log.Error("exists check failed", "err", err)
		return LikeStatus{}, svcErr.Map(err)
	}

	if exists {
		log.Debug("row exists, toggling to unlike")
		return g.unlike(ctx, log, userID, key)
	}

	data = NormalizeItemData(data)
	if err := ValidateItemData(t, data); err != nil {
		return LikeStatus{}, err
	}

	inserted, err := g.store.Insert(ctx, LikedItem{UserID: userID, Key: key, Data: data, LikedAt: g.now().UTC()})
	if err != nil {
		log.Error("insert failed", "err", err)
		return LikeStatus{}, svcErr.Map(err)
	}
	if !inserted {
		log.Debug("concurrent like already stored the row")
	}

	total, err := g.store.Count(ctx, key)
	if err != nil {
		log.Error("count failed", "err", err)
		return LikeStatus{}, svcErr.Map(err)
	}
	log.Debug("liked", "total", total)
	return LikeStatus{IsLiked: true, TotalLikes: total}, nil
}

// Unlike deletes the row if present. Unliking something never liked is a
// successful no-op.
func (g *Gateway) Unlike(ctx context.Context, t ItemType, itemID string) (LikeStatus, error) {
	userID, key, err := g.mutationPreconditions(t, itemID)
	if err != nil {
		return LikeStatus{}, err
	}
	return g.unlike(ctx, g.log.With("op", "unlike", "user", userID, "key", key.String()), userID, key)
}

func (g *Gateway) unlike(ctx context.Context, log *slog.Logger, userID string, key Key) (LikeStatus, error) {
	deleted, err := g.store.Delete(ctx, userID, key)
	if err != nil {
		log.Error("delete failed", "err", err)
		return LikeStatus{}, svcErr.Map(err)
	}
	if !deleted {
		log.Debug("nothing to unlike")
	}

	total, err := g.store.Count(ctx, key)
	if err != nil {
		log.Error("count failed", "err", err)
		return LikeStatus{}, svcErr.Map(err)
	}
	return LikeStatus{IsLiked: false, TotalLikes: total}, nil
}

// Status reads the current LikeStatus. Without a signed-in user IsLiked is
// always false but the total is still reported.
func (g *Gateway) Status(ctx context.Context, t ItemType, itemID string) (LikeStatus, error) {
	key := Key{Type: t, ID: itemID}
	if err := key.Validate(); err != nil {
		return LikeStatus{}, err
	}

	var st LikeStatus
	if userID, ok := g.session.UserID(); ok {
		liked, err := g.store.Exists(ctx, userID, key)
		if err != nil {
			return LikeStatus{}, svcErr.Map(err)
		}
		st.IsLiked = liked
	}

	total, err := g.store.Count(ctx, key)
	if err != nil {
		return LikeStatus{}, svcErr.Map(err)
	}
	st.TotalLikes = total
	return st, nil
}

// List returns the user's active liked items, newest first. Failures return
// an empty page together with the error.
func (g *Gateway) List(ctx context.Context, q ListQuery) (Page, error) {
	p := pagination.Normalize(q.Page, q.PageSize, g.defaultPageSize, g.maxPageSize)
	empty := Page{Items: []LikedItem{}, Page: p.Page, PageSize: p.PageSize}

	if q.Type != "" && !q.Type.Valid() {
		return empty, svcErr.InvalidArgument("unknown item type filter " + string(q.Type))
	}
	userID, ok := g.session.UserID()
	if !ok {
		return empty, svcErr.Unauthenticated("sign in to see your liked items")
	}

	q.Page, q.PageSize = p.Page, p.PageSize
	items, total, err := g.store.List(ctx, userID, q)
	if err != nil {
		g.log.Error("list liked items failed", "user", userID, "err", err)
		return empty, svcErr.Map(err)
	}
	return newPage(p, items, total), nil
}

// Search matches the query case-insensitively against title, description,
// make and model. Same ordering and active-only rule as List.
func (g *Gateway) Search(ctx context.Context, q SearchQuery) (Page, error) {
	p := pagination.Normalize(q.Page, q.PageSize, g.defaultPageSize, g.maxPageSize)
	empty := Page{Items: []LikedItem{}, Page: p.Page, PageSize: p.PageSize}

	userID, ok := g.session.UserID()
	if !ok {
		return empty, svcErr.Unauthenticated("sign in to search your liked items")
	}

	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return g.List(ctx, ListQuery{Page: p.Page, PageSize: p.PageSize})
	}

	q.Page, q.PageSize = p.Page, p.PageSize
	items, total, err := g.store.Search(ctx, userID, q)
	if err != nil {
		g.log.Error("search liked items failed", "user", userID, "query", q.Query, "err", err)
		return empty, svcErr.Map(err)
	}
	return newPage(p, items, total), nil
}

// Clear removes the user's likes of one type (or all when t is empty).
func (g *Gateway) Clear(ctx context.Context, t ItemType) (int64, error) {
	if t != "" && !t.Valid() {
		return 0, svcErr.InvalidArgument("unknown item type " + string(t))
	}
	userID, ok := g.session.UserID()
	if !ok {
		return 0, svcErr.Unauthenticated("sign in to manage your liked items")
	}

	n, err := g.store.DeleteAll(ctx, userID, t)
	if err != nil {
		g.log.Error("bulk removal failed", "user", userID, "type", t, "err", err)
		return 0, svcErr.Map(err)
	}
	g.log.Info("liked items cleared", "user", userID, "type", t, "removed", n)
	return n, nil
}

func (g *Gateway) mutationPreconditions(t ItemType, itemID string) (string, Key, error) {
	key := Key{Type: t, ID: itemID}
	userID, ok := g.session.UserID()
	if !ok {
		return "", key, svcErr.Unauthenticated("sign in to like items")
	}
	if err := key.Validate(); err != nil {
		return "", key, err
	}
	return userID, key, nil
}

func newPage(p pagination.Params, items []LikedItem, total int64) Page {
	return Page{
		Items:    activeOnly(items),
		Total:    total,
		HasMore:  p.HasMore(len(items), total),
		Page:     p.Page,
		PageSize: p.PageSize,
	}
}

// activeOnly re-checks the status rule on whatever the store returned.
func activeOnly(items []LikedItem) []LikedItem {
	out := make([]LikedItem, 0, len(items))
	for _, it := range items {
		if it.Data != nil && it.Data.Summary().Status == StatusActive {
			out = append(out, it)
		}
	}
	return out
}
