package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/motorplace/internal/likes"
)

// User roles on the marketplace.
const (
	RoleBuyer   = "buyer"
	RoleSeller  = "seller"
	RolePartner = "partner"
)

// User table
type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"default:true"`
	LastLoginAt  time.Time
	Role         string    `gorm:"size:16;not null;default:buyer"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// BeforeCreate assigns a random id to users created without one.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// LikedItem is one user's like of one marketplace entity.
//
// Composite PK: (UserID, ItemType, ItemID)
//   - At most one row per user and item; a second insert is a no-op.
//
// Indexes:
//   - idx_user_status_liked(user_id, status, liked_at DESC)
//     Serves the "my favorites" list and search, newest first.
//   - idx_item(item_type, item_id)
//     Serves the per-item like count.
//
// Fields:
//   - ItemData: JSON snapshot of the entity taken at like time.
//   - Title, Status: copied out of the snapshot for ordering and filtering.
//   - SearchText: lowercased title, description, make and model.
type LikedItem struct {
	UserID     string    `gorm:"primaryKey;size:64;index:idx_user_status_liked,priority:1"`
	ItemType   string    `gorm:"primaryKey;size:16;index:idx_item,priority:1"`
	ItemID     string    `gorm:"primaryKey;size:64;index:idx_item,priority:2"`
	ItemData   string    `gorm:"type:text;not null"`
	Title      string    `gorm:"size:255"`
	SearchText string    `gorm:"type:text"`
	Status     string    `gorm:"size:32;not null;index:idx_user_status_liked,priority:2"`
	LikedAt    time.Time `gorm:"not null;index:idx_user_status_liked,priority:3,sort:desc"`
}

// LikedItemRow flattens a like into its table row.
func LikedItemRow(userID string, key likes.Key, data likes.ItemData, likedAt time.Time) (LikedItem, error) {
	data = likes.NormalizeItemData(data)
	raw, err := likes.EncodeItemData(data)
	if err != nil {
		return LikedItem{}, err
	}
	summary := data.Summary()
	return LikedItem{
		UserID:     userID,
		ItemType:   string(key.Type),
		ItemID:     key.ID,
		ItemData:   string(raw),
		Title:      summary.Title,
		SearchText: summary.SearchText(),
		Status:     summary.Status,
		LikedAt:    likedAt,
	}, nil
}

// ToLikedItem rebuilds the domain value from a row.
func (row LikedItem) ToLikedItem() (likes.LikedItem, error) {
	t := likes.ItemType(row.ItemType)
	data, err := likes.DecodeItemData(t, []byte(row.ItemData))
	if err != nil {
		return likes.LikedItem{}, err
	}
	return likes.LikedItem{
		UserID:  row.UserID,
		Key:     likes.Key{Type: t, ID: row.ItemID},
		Data:    data,
		LikedAt: row.LikedAt,
	}, nil
}
