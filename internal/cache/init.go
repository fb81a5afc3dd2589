package cache

import (
	"github.com/flexprice/bigdata-platform/internal/config"
	"github.com/flexprice/bigdata-platform/internal/logger"
)

// Initialize builds the process cache backing the in-memory record store
func Initialize(cfg *config.Configuration, log *logger.Logger) Cache {
	log.Infow("initializing cache system", "cleanup_interval", cfg.Store.CleanupInterval)
	return NewInMemoryCache(cfg)
}
