package service

import (
	"testing"

	"github.com/flexprice/bigdata-platform/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestRandomMetricsSourceStaysInRange(t *testing.T) {
	cfg := config.MetricsConfig{
		ThroughputMin: 500,
		ThroughputMax: 2000,
		LatencyMin:    10,
		LatencyMax:    100,
	}
	src := NewRandomMetricsSource(cfg)

	for i := 0; i < 1000; i++ {
		m := src.Sample()
		assert.GreaterOrEqual(t, m.Throughput, cfg.ThroughputMin)
		assert.LessOrEqual(t, m.Throughput, cfg.ThroughputMax)
		assert.GreaterOrEqual(t, m.LatencyMs, cfg.LatencyMin)
		assert.LessOrEqual(t, m.LatencyMs, cfg.LatencyMax)
	}
}

func TestRandomMetricsSourceDegenerateRange(t *testing.T) {
	src := NewRandomMetricsSource(config.MetricsConfig{
		ThroughputMin: 7,
		ThroughputMax: 7,
		LatencyMin:    3,
		LatencyMax:    1,
	})

	m := src.Sample()
	assert.Equal(t, int64(7), m.Throughput)
	assert.Equal(t, int64(3), m.LatencyMs)
}
