package api

import (
	v1 "github.com/flexprice/bigdata-platform/internal/api/v1"
	"github.com/flexprice/bigdata-platform/internal/config"
	"github.com/flexprice/bigdata-platform/internal/logger"
	"github.com/flexprice/bigdata-platform/internal/rest/middleware"
	"github.com/flexprice/bigdata-platform/internal/types"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health *v1.HealthHandler
	Job    *v1.JobHandler
	Stream *v1.StreamHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	jobs := router.Group("/jobs")
	{
		jobs.POST("", handlers.Job.CreateJob)
		jobs.GET("", handlers.Job.ListJobs)
		jobs.GET("/:id", handlers.Job.GetJob)
		jobs.POST("/:id/stop", handlers.Job.StopJob)
	}

	streams := router.Group("/streams")
	{
		streams.POST("", handlers.Stream.CreateStream)
		streams.GET("", handlers.Stream.ListStreams)
		streams.GET("/:id", handlers.Stream.GetStream)
		streams.POST("/:id/stop", handlers.Stream.StopStream)
		streams.GET("/:id/live", handlers.Stream.LiveStream)
	}
}
