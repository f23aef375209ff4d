package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/oggyb/motorplace/internal/app"
	"github.com/oggyb/motorplace/internal/cache"
	"github.com/oggyb/motorplace/internal/config"
	"github.com/oggyb/motorplace/internal/db"
	"github.com/oggyb/motorplace/internal/logger"
	"github.com/oggyb/motorplace/internal/server"
	"github.com/oggyb/motorplace/internal/service/auth"
	"github.com/oggyb/motorplace/internal/service/likestore"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	// Inject logger into app context
	appCtx := app.New(cfg, database, redisCache, log)

	registrars := []server.Registrar{
		likestore.NewRegistrar(appCtx),
		auth.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	log.Info("starting gRPC server", "addr", cfg.GRPCAddr())

	if err := server.StartGRPCServer(ctx, cfg, log, registrars...); err != nil {
		log.Error("failed to start gRPC server", "err", err)
		os.Exit(1)
	}
}
