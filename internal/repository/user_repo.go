package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/motorplace/internal/db"
)

// UserRepository provides data access methods for the User model.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// FindByUsername returns the active user with the given username.
// gorm.ErrRecordNotFound is returned when there is none.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).
		Where("username = ? AND active = ?", username, true).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// TouchLastLogin records a successful sign-in.
func (r *UserRepository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}
