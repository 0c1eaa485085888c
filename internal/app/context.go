package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/shuttle-league/internal/cache"
	"github.com/oggyb/shuttle-league/internal/events"
)

// AppContext holds shared dependencies (DB, Redis, Logger, event publisher)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Events     events.Publisher
}

// New creates a new AppContext. A nil publisher drops every event.
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, publisher events.Publisher) *AppContext {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Events:     publisher,
	}
}
