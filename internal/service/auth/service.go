// Package auth signs marketplace users in for the like client.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oggyb/motorplace/internal/app"
	"github.com/oggyb/motorplace/internal/db"
	svcErr "github.com/oggyb/motorplace/internal/errors"
	"github.com/oggyb/motorplace/internal/repository"
)

const invalidCredentials = "invalid username or password"

// Account is the signed-in identity handed back to clients.
type Account struct {
	UserID   string
	Username string
	Role     string
}

// Service checks credentials against the users table.
type Service struct {
	users *repository.UserRepository
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates the auth service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		users: repository.NewUserRepository(appCtx.DB),
		log:   appCtx.Logger.With("subsystem", "auth"),
		now:   time.Now,
	}
}

// SignIn verifies the password and records the login. Unknown users and wrong
// passwords fail the same way.
func (s *Service) SignIn(ctx context.Context, username, password string) (Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Account{}, svcErr.InvalidArgument("username and password are required")
	}

	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Info("sign in rejected", "username", username, "reason", "unknown user")
		return Account{}, svcErr.Unauthenticated(invalidCredentials)
	}
	if err != nil {
		s.log.Error("user lookup failed", "username", username, "err", err)
		return Account{}, svcErr.Map(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.Info("sign in rejected", "username", username, "reason", "password mismatch")
		return Account{}, svcErr.Unauthenticated(invalidCredentials)
	}

	if err := s.users.TouchLastLogin(ctx, u.ID, s.now().UTC()); err != nil {
		s.log.Warn("failed to record login", "user", u.ID, "err", err)
	}
	return accountOf(u), nil
}

func accountOf(u *db.User) Account {
	return Account{UserID: u.ID, Username: u.Username, Role: u.Role}
}
