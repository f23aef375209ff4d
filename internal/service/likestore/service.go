// Package likestore is the server side of the like store: the database
// repository with a Redis read-through cache for per-item like counts,
// exposed over gRPC.
package likestore

import (
	"context"
	"log/slog"

	"github.com/oggyb/motorplace/internal/app"
	"github.com/oggyb/motorplace/internal/cache"
	"github.com/oggyb/motorplace/internal/likes"
	"github.com/oggyb/motorplace/internal/repository"
)

// Service implements likes.Store on top of repository and cache layers.
type Service struct {
	repo   *repository.LikedItemRepository
	counts *cache.RedisCache
	log    *slog.Logger
}

var _ likes.Store = (*Service)(nil)

// NewService creates the store with dependencies from AppContext:
//   - DB connection (via LikedItemRepository)
//   - RedisCache for like counters
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		repo:   repository.NewLikedItemRepository(appCtx.DB),
		counts: appCtx.RedisCache,
		log:    appCtx.Logger.With("subsystem", "likestore"),
	}
}

func (s *Service) Exists(ctx context.Context, userID string, key likes.Key) (bool, error) {
	return s.repo.Exists(ctx, userID, key)
}

// Insert stores the like and drops the item's cached counter when a row was
// written.
func (s *Service) Insert(ctx context.Context, item likes.LikedItem) (bool, error) {
	inserted, err := s.repo.Insert(ctx, item)
	if err != nil {
		return false, err
	}
	if inserted {
		s.invalidate(ctx, item.Key)
	}
	return inserted, nil
}

// Delete removes the like and drops the item's cached counter.
func (s *Service) Delete(ctx context.Context, userID string, key likes.Key) (bool, error) {
	deleted, err := s.repo.Delete(ctx, userID, key)
	if err != nil {
		return false, err
	}
	if deleted {
		s.invalidate(ctx, key)
	}
	return deleted, nil
}

// DeleteAll removes a user's likes in bulk and drops every affected counter.
func (s *Service) DeleteAll(ctx context.Context, userID string, t likes.ItemType) (int64, error) {
	keys, err := s.repo.Keys(ctx, userID, t)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.DeleteAll(ctx, userID, t)
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		s.invalidate(ctx, key)
	}
	return n, nil
}

// Count serves the like counter from Redis, recounting on a miss. Redis
// failures fall back to the database.
func (s *Service) Count(ctx context.Context, key likes.Key) (int64, error) {
	if n, ok, err := s.counts.GetItemCount(ctx, key); err != nil {
		s.log.Warn("count cache read failed", "key", key.String(), "err", err)
	} else if ok {
		return n, nil
	}

	n, err := s.repo.Count(ctx, key)
	if err != nil {
		return 0, err
	}
	if err := s.counts.SetItemCount(ctx, key, n); err != nil {
		s.log.Warn("count cache write failed", "key", key.String(), "err", err)
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, userID string, q likes.ListQuery) ([]likes.LikedItem, int64, error) {
	return s.repo.List(ctx, userID, q)
}

func (s *Service) Search(ctx context.Context, userID string, q likes.SearchQuery) ([]likes.LikedItem, int64, error) {
	return s.repo.Search(ctx, userID, q)
}

func (s *Service) invalidate(ctx context.Context, key likes.Key) {
	if err := s.counts.InvalidateItemCount(ctx, key); err != nil {
		s.log.Warn("count cache invalidation failed", "key", key.String(), "err", err)
	}
}
