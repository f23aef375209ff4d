package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	// Likes tunes the like/favorite subsystem on both sides of the wire.
	Likes struct {
		StatusTTL    time.Duration // client-side freshness window for LikeStatus
		CountTTL     time.Duration // server-side Redis TTL for like counters
		PageSize     int
		MaxPageSize  int
		QueueBackend string // "memory" or "redis"
	}
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "production")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "likestore")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "motorplace")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Likes
	cfg.Likes.StatusTTL = getEnvDuration("LIKES_STATUS_TTL", 5*time.Minute)
	cfg.Likes.CountTTL = getEnvDuration("LIKES_COUNT_TTL", 10*time.Minute)
	cfg.Likes.PageSize = getEnvInt("LIKES_PAGE_SIZE", 20)
	cfg.Likes.MaxPageSize = getEnvInt("LIKES_MAX_PAGE_SIZE", 100)
	cfg.Likes.QueueBackend = strings.ToLower(getEnvDefault("LIKES_QUEUE_BACKEND", "memory"))

	if cfg.Likes.MaxPageSize < cfg.Likes.PageSize {
		cfg.Likes.MaxPageSize = cfg.Likes.PageSize
	}

	return cfg
}

// GRPCAddr joins the configured gRPC host and port.
func (c *Config) GRPCAddr() string {
	return c.GRPC.Host + ":" + c.GRPC.Port
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return v
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvDefault(k, "")); err == nil && d > 0 {
		return d
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
