package main

import (
	"context"

	"github.com/ember-dating/engine/internal/app"
	"github.com/ember-dating/engine/internal/cache"
	"github.com/ember-dating/engine/internal/config"
	"github.com/ember-dating/engine/internal/db"
	"github.com/ember-dating/engine/internal/liveness"
	"github.com/ember-dating/engine/internal/logger"
	"github.com/ember-dating/engine/internal/notify"
	"github.com/ember-dating/engine/internal/queue"
	"github.com/ember-dating/engine/internal/scoring"
	"github.com/ember-dating/engine/internal/server"
	"github.com/ember-dating/engine/internal/service/block"
	"github.com/ember-dating/engine/internal/service/chat"
	"github.com/ember-dating/engine/internal/service/moderation"
	"github.com/ember-dating/engine/internal/service/swipe"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
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

	appCtx := app.New(database, redisCache, log, cfg, notify.NewLogNotifier(log))

	blocks := block.NewRegistrar(appCtx)
	scorer := scoring.New(scoring.DefaultConfig())
	queues := queue.NewManager(appCtx, blocks.Service(), scorer)
	faceClient := liveness.NewClient(cfg.Engine.LivenessBaseURL, cfg.Engine.LivenessTimeout)

	registrars := []server.Registrar{
		swipe.NewRegistrar(appCtx, queues),
		blocks,
		chat.NewRegistrar(appCtx, blocks.Service()),
		moderation.NewRegistrar(appCtx),
		queue.NewRegistrar(queues),
		liveness.NewRegistrar(appCtx, faceClient),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
