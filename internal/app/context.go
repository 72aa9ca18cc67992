package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/ember-dating/engine/internal/cache"
	"github.com/ember-dating/engine/internal/config"
	"github.com/ember-dating/engine/internal/notify"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
// Every service receives it explicitly; there is no ambient client singleton.
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Config     *config.Config
	Notifier   notify.Notifier
}

// New creates a new AppContext
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, cfg *config.Config, notifier notify.Notifier) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Config:     cfg,
		Notifier:   notifier,
	}
}
