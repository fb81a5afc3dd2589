package config

import (
	"testing"
	"time"

	"github.com/flexprice/bigdata-platform/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, types.MemoryStore, cfg.Store.Type)
	assert.Equal(t, time.Hour, cfg.Tracker.JobTTL)
	assert.Equal(t, 2*time.Hour, cfg.Tracker.StreamTTL)
	assert.Equal(t, 3, cfg.Tracker.FailureReportThreshold)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Configuration)
	}{
		{"unknown store", func(c *Configuration) { c.Store.Type = "etcd" }},
		{"zero job interval", func(c *Configuration) { c.Tracker.JobTickInterval = 0 }},
		{"zero stream ttl", func(c *Configuration) { c.Tracker.StreamTTL = 0 }},
		{"inverted throughput", func(c *Configuration) { c.Tracker.Metrics.ThroughputMax = 1 }},
		{"unknown pubsub", func(c *Configuration) { c.Broadcast.PubSub = "nats" }},
		{"missing address", func(c *Configuration) { c.Server.Address = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewConfigReadsEnvironment(t *testing.T) {
	t.Setenv("BIGDATA_STORE_TYPE", "redis")
	t.Setenv("BIGDATA_TRACKER_JOB_TICK_INTERVAL", "250ms")
	t.Setenv("BIGDATA_REDIS_ADDRESS", "redis:6380")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, types.RedisStore, cfg.Store.Type)
	assert.Equal(t, 250*time.Millisecond, cfg.Tracker.JobTickInterval)
	assert.Equal(t, "redis:6380", cfg.Redis.Address)
}
