package service

import (
	"math/rand"

	"github.com/flexprice/bigdata-platform/internal/config"
	"github.com/flexprice/bigdata-platform/internal/types"
)

// MetricsSource produces the synthetic payload of a continuous tick
type MetricsSource interface {
	Sample() types.TickMetrics
}

type randomMetricsSource struct {
	cfg config.MetricsConfig
}

// NewRandomMetricsSource draws uniformly from the configured ranges, bounds included
func NewRandomMetricsSource(cfg config.MetricsConfig) MetricsSource {
	return &randomMetricsSource{cfg: cfg}
}

func (s *randomMetricsSource) Sample() types.TickMetrics {
	return types.TickMetrics{
		Throughput: between(s.cfg.ThroughputMin, s.cfg.ThroughputMax),
		LatencyMs:  between(s.cfg.LatencyMin, s.cfg.LatencyMax),
	}
}

func between(from, to int64) int64 {
	if to <= from {
		return from
	}
	return from + rand.Int63n(to-from+1)
}
