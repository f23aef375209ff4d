// Package likes implements the like/favorite client cache of the marketplace:
// a stateless gateway over the remote like store, an optimistic per-key cache
// with rollback, and an offline queue replayed on reconnect.
package likes

import (
	"context"
	"fmt"
	"strings"
	"time"

	svcErr "github.com/oggyb/motorplace/internal/errors"
)

// ItemType is the closed set of marketplace entities a user can like.
type ItemType string

const (
	ItemTypeProduct ItemType = "product"
	ItemTypeService ItemType = "service"
	ItemTypePost    ItemType = "post"
	ItemTypeStore   ItemType = "store"
)

// ItemTypes lists every valid ItemType.
var ItemTypes = []ItemType{ItemTypeProduct, ItemTypeService, ItemTypePost, ItemTypeStore}

// Valid reports whether t belongs to the closed item type set.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeProduct, ItemTypeService, ItemTypePost, ItemTypeStore:
		return true
	}
	return false
}

// ParseItemType parses a user supplied item type, case-insensitively.
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", svcErr.InvalidArgument(fmt.Sprintf("unknown item type %q", s))
	}
	return t, nil
}

// Key identifies a likeable entity.
type Key struct {
	Type ItemType
	ID   string
}

func (k Key) String() string { return string(k.Type) + ":" + k.ID }

// Validate rejects keys that could never exist in the store.
func (k Key) Validate() error {
	if !k.Type.Valid() {
		return svcErr.InvalidArgument(fmt.Sprintf("unknown item type %q", k.Type))
	}
	if strings.TrimSpace(k.ID) == "" {
		return svcErr.InvalidArgument("item id is required")
	}
	return nil
}

// LikedItem is one user's like of one entity, with the snapshot taken at like time.
type LikedItem struct {
	UserID  string
	Key     Key
	Data    ItemData
	LikedAt time.Time
}

// LikeStatus is derived per read: whether the current user likes the item and
// how many users like it in total.
type LikeStatus struct {
	IsLiked    bool
	TotalLikes int64
}

// Page is one offset-paginated slice of a user's liked items.
type Page struct {
	Items    []LikedItem
	Total    int64
	HasMore  bool
	Page     int
	PageSize int
}

// ListQuery selects a page of liked items; an empty Type means every type.
type ListQuery struct {
	Page     int
	PageSize int
	Type     ItemType
}

// SearchQuery selects a page of liked items matching a free-text query.
type SearchQuery struct {
	Query    string
	Page     int
	PageSize int
}

// Store is the remote like store: one row per (user, item type, item id).
// Implementations return errors convertible by svcErr.Map.
type Store interface {
	Exists(ctx context.Context, userID string, key Key) (bool, error)
	// Insert reports false when the row already existed.
	Insert(ctx context.Context, item LikedItem) (bool, error)
	// Delete reports false when there was nothing to delete.
	Delete(ctx context.Context, userID string, key Key) (bool, error)
	// DeleteAll removes the user's likes of one type, or all of them when t is empty.
	DeleteAll(ctx context.Context, userID string, t ItemType) (int64, error)
	Count(ctx context.Context, key Key) (int64, error)
	List(ctx context.Context, userID string, q ListQuery) ([]LikedItem, int64, error)
	Search(ctx context.Context, userID string, q SearchQuery) ([]LikedItem, int64, error)
}
