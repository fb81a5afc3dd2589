package progress

import (
	"maps"
	"slices"
	"time"

	"github.com/flexprice/bigdata-platform/internal/types"
)

// Record is the persisted state of one tracked job or stream
type Record struct {
	ID                string              `json:"id"`
	Mode              types.TrackerMode   `json:"mode"`
	Stages            []string            `json:"stages,omitempty"`
	Status            types.TrackerStatus `json:"status"`
	CurrentStageIndex int                 `json:"current_stage_index"`
	CurrentStage      string              `json:"current_stage,omitempty"`
	ProgressPercent   float64             `json:"progress_percent"`
	TotalEventCount   int64               `json:"total_event_count"`
	TickCount         int                 `json:"tick_count"`
	LastTickMetrics   *types.TickMetrics  `json:"last_tick_metrics,omitempty"`
	Attributes        map[string]string   `json:"attributes,omitempty"`
	StartedAt         *time.Time          `json:"started_at,omitempty"`
	StoppedAt         *time.Time          `json:"stopped_at,omitempty"`
	CompletedAt       *time.Time          `json:"completed_at,omitempty"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// New returns a pending record for the given mode.
// Stages are copied and never mutated afterwards.
func New(mode types.TrackerMode, stages []string, attributes map[string]string) *Record {
	r := &Record{
		ID:         types.GenerateUUIDWithPrefix(mode.UUIDPrefix()),
		Mode:       mode,
		Status:     types.TrackerStatusPending,
		Attributes: maps.Clone(attributes),
		UpdatedAt:  time.Now().UTC(),
	}

	if mode == types.TrackerModeFiniteStaged {
		r.Stages = slices.Clone(stages)
		if len(r.Stages) > 0 {
			r.CurrentStage = r.Stages[0]
		}
	}

	return r
}

// TotalStages returns the number of stages of a finite record
func (r *Record) TotalStages() int {
	return len(r.Stages)
}

// IsTerminal reports whether the record can no longer change
func (r *Record) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// Duration is the time the record spent running up to its terminal
// timestamp, or up to now while it is still running
func (r *Record) Duration(now time.Time) time.Duration {
	if r.StartedAt == nil {
		return 0
	}

	end := now
	switch {
	case r.StoppedAt != nil:
		end = *r.StoppedAt
	case r.CompletedAt != nil:
		end = *r.CompletedAt
	}

	return end.Sub(*r.StartedAt)
}

// Clone returns a deep copy so that stores never share memory with callers
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	c := *r
	c.Stages = slices.Clone(r.Stages)
	c.Attributes = maps.Clone(r.Attributes)
	c.StartedAt = cloneTime(r.StartedAt)
	c.StoppedAt = cloneTime(r.StoppedAt)
	c.CompletedAt = cloneTime(r.CompletedAt)
	if r.LastTickMetrics != nil {
		m := *r.LastTickMetrics
		c.LastTickMetrics = &m
	}

	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
