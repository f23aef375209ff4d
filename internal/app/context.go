package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/motorplace/internal/cache"
	"github.com/oggyb/motorplace/internal/config"
)

// AppContext holds the server's shared dependencies: config, DB, Redis and
// the logger.
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
}

// New creates a new AppContext. A nil cfg falls back to config.New().
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	if cfg == nil {
		cfg = config.New()
	}
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
	}
}
