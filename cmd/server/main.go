package main

import (
	"context"

	"github.com/oggyb/shuttle-league/internal/app"
	"github.com/oggyb/shuttle-league/internal/auth"
	"github.com/oggyb/shuttle-league/internal/cache"
	"github.com/oggyb/shuttle-league/internal/config"
	"github.com/oggyb/shuttle-league/internal/db"
	"github.com/oggyb/shuttle-league/internal/events"
	"github.com/oggyb/shuttle-league/internal/httpapi"
	"github.com/oggyb/shuttle-league/internal/logger"
	"github.com/oggyb/shuttle-league/internal/server"
	"github.com/oggyb/shuttle-league/internal/service/matchlog"
	"github.com/oggyb/shuttle-league/internal/service/stats"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.With("cmd", "server")

	// Init DB (migrates on open)
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}
	defer redisCache.Close()

	// Events are optional; without NATS_URL they are dropped
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL == "" {
		logger.Warn("NATS_URL is empty, domain events are dropped")
	} else {
		nc, err := events.ConnectNATS(cfg.NATS.URL, log)
		if err != nil {
			log.Error("failed to connect to nats", "err", err)
			return
		}
		defer nc.Close()
		publisher = nc
	}

	authMgr := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	appCtx := app.New(database, redisCache, log, publisher)

	if cfg.App.ENV == "development" {
		if _, err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	if cfg.HTTP.Port != "" {
		api := httpapi.NewApp(appCtx, authMgr, httpapi.Options{AccessLog: true})
		go func() {
			log.Info("starting REST gateway", "port", cfg.HTTP.Port)
			if err := api.Listen(":" + cfg.HTTP.Port); err != nil {
				log.Error("REST gateway stopped", "err", err)
			}
		}()
	}

	registrars := []server.Registrar{
		matchlog.NewRegistrar(appCtx),
		stats.NewRegistrar(appCtx),
	}

	addr := cfg.GRPC.Host + ":" + cfg.GRPC.Port
	log.Info("starting gRPC server", "addr", addr)

	if err := server.StartGRPCServer(cfg, authMgr, log, registrars...); err != nil {
		log.Error("failed to start gRPC server", "err", err)
	}
}
