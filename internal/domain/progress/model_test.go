package progress

import (
	"testing"
	"time"

	"github.com/flexprice/bigdata-platform/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	stages := []string{"ingest", "transform", "load"}
	r := New(types.TrackerModeFiniteStaged, stages, map[string]string{"cloud": "aws"})

	assert.Regexp(t, `^job_`, r.ID)
	assert.Equal(t, types.TrackerStatusPending, r.Status)
	assert.Equal(t, 3, r.TotalStages())
	assert.Equal(t, "ingest", r.CurrentStage)

	stages[0] = "mutated"
	assert.Equal(t, "ingest", r.Stages[0])
}

func TestNew_ContinuousIgnoresStages(t *testing.T) {
	r := New(types.TrackerModeContinuousTick, []string{"a"}, nil)

	assert.Regexp(t, `^stream_`, r.ID)
	assert.Empty(t, r.Stages)
	assert.Empty(t, r.CurrentStage)
}

func TestClone(t *testing.T) {
	now := time.Now()
	r := New(types.TrackerModeContinuousTick, nil, map[string]string{"source_type": "iot"})
	r.StartedAt = &now
	r.LastTickMetrics = &types.TickMetrics{Throughput: 10, LatencyMs: 5}

	c := r.Clone()
	require.Equal(t, r, c)

	c.Attributes["source_type"] = "mixed"
	c.LastTickMetrics.Throughput = 99
	*c.StartedAt = now.Add(time.Hour)

	assert.Equal(t, "iot", r.Attributes["source_type"])
	assert.Equal(t, int64(10), r.LastTickMetrics.Throughput)
	assert.Equal(t, now, *r.StartedAt)

	var nilRecord *Record
	assert.Nil(t, nilRecord.Clone())
}

func TestDuration(t *testing.T) {
	start := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	stop := start.Add(90 * time.Second)

	r := &Record{}
	assert.Zero(t, r.Duration(stop))

	r.StartedAt = &start
	assert.Equal(t, 30*time.Second, r.Duration(start.Add(30*time.Second)))

	r.StoppedAt = &stop
	assert.Equal(t, 90*time.Second, r.Duration(start.Add(time.Hour)))
}
