package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/flexprice/bigdata-platform/internal/api"
	v1 "github.com/flexprice/bigdata-platform/internal/api/v1"
	"github.com/flexprice/bigdata-platform/internal/cache"
	"github.com/flexprice/bigdata-platform/internal/config"
	"github.com/flexprice/bigdata-platform/internal/kafka"
	"github.com/flexprice/bigdata-platform/internal/logger"
	"github.com/flexprice/bigdata-platform/internal/publisher"
	"github.com/flexprice/bigdata-platform/internal/pubsub"
	kafkaPubSub "github.com/flexprice/bigdata-platform/internal/pubsub/kafka"
	memoryPubSub "github.com/flexprice/bigdata-platform/internal/pubsub/memory"
	"github.com/flexprice/bigdata-platform/internal/repository"
	"github.com/flexprice/bigdata-platform/internal/sentry"
	"github.com/flexprice/bigdata-platform/internal/service"
	"github.com/flexprice/bigdata-platform/internal/types"
	"github.com/flexprice/bigdata-platform/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title Big Data Platform API
// @version 1.0
// @description Simulated processing jobs and streams with live progress
// @BasePath /v1
// @schemes http https

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// Initialize Fx application
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,

			// Cache
			cache.Initialize,

			// Repositories
			repository.NewProgressRepository,

			// PubSub
			providePubSub,

			// Progress broadcast
			publisher.NewProgressPublisher,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewTrackerService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			validator.NewValidator,
			sentry.RegisterHooks,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

// providePubSub builds the broadcast backend. The same instance serves the
// publisher and the live stream subscribers.
func providePubSub(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	log *logger.Logger,
) (pubsub.PubSub, pubsub.Publisher, pubsub.Subscriber, error) {
	var ps pubsub.PubSub

	switch cfg.Broadcast.PubSub {
	case types.KafkaPubSub:
		producer, err := kafka.NewProducer(cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		consumer, err := kafka.NewConsumer(cfg)
		if err != nil {
			_ = producer.Close()
			return nil, nil, nil, err
		}
		ps = kafkaPubSub.NewPubSub(log, producer, consumer)
		log.Infow("broadcasting progress through kafka", "brokers", cfg.Kafka.Brokers)
	default:
		ps = memoryPubSub.NewPubSub(log)
		log.Info("broadcasting progress in memory")
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing progress pubsub")
			return ps.Close()
		},
	})

	return ps, ps, ps, nil
}

func provideHandlers(
	cfg *config.Configuration,
	logger *logger.Logger,
	trackerService service.TrackerService,
	subscriber pubsub.Subscriber,
) api.Handlers {
	return api.Handlers{
		Health: v1.NewHealthHandler(logger),
		Job:    v1.NewJobHandler(trackerService, logger),
		Stream: v1.NewStreamHandler(trackerService, subscriber, cfg, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	trackerService service.TrackerService,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		startTracker(lc, trackerService, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	// cancelled on stop so live streams let go of their connections
	baseCtx, cancelBase := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     r,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			cancelBase()
			return srv.Shutdown(ctx)
		},
	})
}

// startTracker stops every worker before the store and pubsub hooks run
func startTracker(lc fx.Lifecycle, trackerService service.TrackerService, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping tracker workers...")
			return trackerService.Shutdown(ctx)
		},
	})
}
