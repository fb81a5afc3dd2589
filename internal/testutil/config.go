package testutil

import (
	"time"

	"github.com/flexprice/bigdata-platform/internal/config"
)

// NewTestConfig returns the default configuration with tick intervals short
// enough for workers to make progress inside a test
func NewTestConfig() *config.Configuration {
	cfg := config.GetDefaultConfig()
	cfg.Tracker.JobTickInterval = 20 * time.Millisecond
	cfg.Tracker.StreamTickInterval = 10 * time.Millisecond
	cfg.Sentry.Enabled = false
	return cfg
}
