package service

import (
	"github.com/flexprice/bigdata-platform/internal/config"
	"github.com/flexprice/bigdata-platform/internal/domain/progress"
	"github.com/flexprice/bigdata-platform/internal/logger"
	"github.com/flexprice/bigdata-platform/internal/publisher"
	"github.com/flexprice/bigdata-platform/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	ProgressRepo progress.Repository

	// Collaborators, all optional
	Observer Observer
	Reporter ErrorReporter
	Metrics  MetricsSource
}

// NewServiceParams creates a new instance of ServiceParams
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	progressRepo progress.Repository,
	progressPublisher *publisher.ProgressPublisher,
	sentryService *sentry.Service,
) ServiceParams {
	params := ServiceParams{
		Logger:       logger,
		Config:       config,
		ProgressRepo: progressRepo,
		Metrics:      NewRandomMetricsSource(config.Tracker.Metrics),
	}

	// keep interface fields nil rather than wrapping nil pointers
	if progressPublisher != nil {
		params.Observer = progressPublisher
	}
	if sentryService != nil {
		params.Reporter = sentryService
	}

	return params
}
