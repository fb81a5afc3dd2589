package repository

import (
	"context"

	"github.com/flexprice/bigdata-platform/internal/cache"
	"github.com/flexprice/bigdata-platform/internal/config"
	"github.com/flexprice/bigdata-platform/internal/domain/progress"
	ierr "github.com/flexprice/bigdata-platform/internal/errors"
	"github.com/flexprice/bigdata-platform/internal/logger"
	redisclient "github.com/flexprice/bigdata-platform/internal/redis"
	memoryRepo "github.com/flexprice/bigdata-platform/internal/repository/memory"
	redisRepo "github.com/flexprice/bigdata-platform/internal/repository/redis"
	"github.com/flexprice/bigdata-platform/internal/types"
	"go.uber.org/fx"
)

// NewProgressRepository picks the record store configured under store.type
func NewProgressRepository(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	c cache.Cache,
	logger *logger.Logger,
) (progress.Repository, error) {
	switch cfg.Store.Type {
	case types.MemoryStore, "":
		logger.Infow("using in-memory progress store")
		return memoryRepo.NewProgressRepository(c, logger), nil
	case types.RedisStore:
		client, err := redisclient.NewClientFromConfig(cfg, logger)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				logger.Info("closing redis pool")
				return client.Close()
			},
		})
		logger.Infow("using redis progress store", "address", cfg.Redis.Address)
		return redisRepo.NewProgressRepository(client, logger), nil
	default:
		return nil, ierr.NewError("unknown store type").
			WithHintf("Unsupported store type %q", cfg.Store.Type).
			Mark(ierr.ErrValidation)
	}
}
