package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/motorplace/internal/db"
	"github.com/oggyb/motorplace/internal/likes"
	"github.com/oggyb/motorplace/internal/utils/pagination"
)

// LikedItemRepository provides data access methods for the LikedItem model.
// It is the likes.Store backed by the relational database.
type LikedItemRepository struct {
	db *gorm.DB
}

var _ likes.Store = (*LikedItemRepository)(nil)

// NewLikedItemRepository creates a new repository bound to the given DB connection.
func NewLikedItemRepository(database *gorm.DB) *LikedItemRepository {
	return &LikedItemRepository{db: database}
}

// Exists reports whether the user has a row for the item.
func (r *LikedItemRepository) Exists(ctx context.Context, userID string, key likes.Key) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&db.LikedItem{}).
		Where("user_id = ? AND item_type = ? AND item_id = ?", userID, key.Type, key.ID).
		Count(&n).Error
	return n > 0, err
}

// Insert stores a like.
//
// Behavior:
//   - If (user_id, item_type, item_id) exists → nothing is written and false is returned.
//   - Otherwise the row is inserted with its snapshot.
//
// The conflict clause keeps two concurrent likes of the same item from failing.
func (r *LikedItemRepository) Insert(ctx context.Context, item likes.LikedItem) (bool, error) {
	row, err := db.LikedItemRow(item.UserID, item.Key, item.Data, item.LikedAt)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes a like; false means there was none.
func (r *LikedItemRepository) Delete(ctx context.Context, userID string, key likes.Key) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND item_type = ? AND item_id = ?", userID, key.Type, key.ID).
		Delete(&db.LikedItem{})
	return res.RowsAffected > 0, res.Error
}

// DeleteAll removes the user's likes of one type, or every like when t is empty.
func (r *LikedItemRepository) DeleteAll(ctx context.Context, userID string, t likes.ItemType) (int64, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if t != "" {
		q = q.Where("item_type = ?", t)
	}
	res := q.Delete(&db.LikedItem{})
	return res.RowsAffected, res.Error
}

// Keys lists the item keys the user likes, optionally of one type only.
func (r *LikedItemRepository) Keys(ctx context.Context, userID string, t likes.ItemType) ([]likes.Key, error) {
	q := r.db.WithContext(ctx).Model(&db.LikedItem{}).Where("user_id = ?", userID)
	if t != "" {
		q = q.Where("item_type = ?", t)
	}
	var rows []db.LikedItem
	if err := q.Select("item_type", "item_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	keys := make([]likes.Key, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, likes.Key{Type: likes.ItemType(row.ItemType), ID: row.ItemID})
	}
	return keys, nil
}

// Count returns how many users like the item, whatever its snapshot status.
func (r *LikedItemRepository) Count(ctx context.Context, key likes.Key) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&db.LikedItem{}).
		Where("item_type = ? AND item_id = ?", key.Type, key.ID).
		Count(&n).Error
	return n, err
}

// List returns one page of the user's active likes.
//
// Behavior:
//   - Only rows with status = 'active' are returned.
//   - Optional item_type filter.
//   - Ordered by liked_at DESC, item_id DESC.
//   - Offset pagination; the total counts every matching row.
func (r *LikedItemRepository) List(ctx context.Context, userID string, q likes.ListQuery) ([]likes.LikedItem, int64, error) {
	query := r.activeFor(ctx, userID)
	if q.Type != "" {
		query = query.Where("item_type = ?", q.Type)
	}
	return r.page(query, q.Page, q.PageSize)
}

// Search is List restricted to rows whose title, description, make or model
// contains the query, ignoring case.
func (r *LikedItemRepository) Search(ctx context.Context, userID string, q likes.SearchQuery) ([]likes.LikedItem, int64, error) {
	needle := strings.ToLower(strings.TrimSpace(q.Query))
	query := r.activeFor(ctx, userID).Where("INSTR(search_text, ?) > 0", needle)
	return r.page(query, q.Page, q.PageSize)
}

func (r *LikedItemRepository) activeFor(ctx context.Context, userID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&db.LikedItem{}).
		Where("user_id = ? AND status = ?", userID, likes.StatusActive).
		Session(&gorm.Session{})
}

func (r *LikedItemRepository) page(query *gorm.DB, page, size int) ([]likes.LikedItem, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	p := pagination.Normalize(page, size, 0, 0)
	var rows []db.LikedItem
	err := query.
		Order("liked_at DESC, item_id DESC").
		Offset(p.Offset()).
		Limit(p.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	items := make([]likes.LikedItem, 0, len(rows))
	for _, row := range rows {
		it, err := row.ToLikedItem()
		if err != nil {
			return nil, 0, fmt.Errorf("liked item %s:%s: %w", row.ItemType, row.ItemID, err)
		}
		items = append(items, it)
	}
	return items, total, nil
}
