package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oggyb/motorplace/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("LIKES_STATUS_TTL", "")
	t.Setenv("LIKES_PAGE_SIZE", "")

	cfg := config.New()

	assert.Equal(t, "127.0.0.1:50051", cfg.GRPCAddr())
	assert.Contains(t, cfg.DB.DSN, "@tcp(localhost:3306)/motorplace")
	assert.Equal(t, 5*time.Minute, cfg.Likes.StatusTTL)
	assert.Equal(t, 10*time.Minute, cfg.Likes.CountTTL)
	assert.Equal(t, 20, cfg.Likes.PageSize)
	assert.Equal(t, 100, cfg.Likes.MaxPageSize)
	assert.Equal(t, "memory", cfg.Likes.QueueBackend)
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("MYSQL_DSN", "u:p@tcp(db:3306)/x")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOG_SOURCE", "yes")
	t.Setenv("LIKES_STATUS_TTL", "90s")
	t.Setenv("LIKES_PAGE_SIZE", "50")
	t.Setenv("LIKES_MAX_PAGE_SIZE", "10")
	t.Setenv("LIKES_QUEUE_BACKEND", "Redis")

	cfg := config.New()

	assert.Equal(t, "u:p@tcp(db:3306)/x", cfg.DB.DSN)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.Log.Source)
	assert.Equal(t, 90*time.Second, cfg.Likes.StatusTTL)
	assert.Equal(t, 50, cfg.Likes.PageSize)
	// max page size never drops below the default page size
	assert.Equal(t, 50, cfg.Likes.MaxPageSize)
	assert.Equal(t, "redis", cfg.Likes.QueueBackend)
}

func TestNew_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("LIKES_COUNT_TTL", "soon")

	cfg := config.New()
	assert.Equal(t, 10*time.Minute, cfg.Likes.CountTTL)
}
