package types

import (
	ierr "github.com/flexprice/bigdata-platform/internal/errors"
	"github.com/samber/lo"
)

// TrackerMode decides how a progress record advances on every tick
type TrackerMode string

const (
	// TrackerModeFiniteStaged walks a fixed list of stages and completes after the last one
	TrackerModeFiniteStaged TrackerMode = "FINITE_STAGED"
	// TrackerModeContinuousTick accumulates an event counter until it is stopped
	TrackerModeContinuousTick TrackerMode = "CONTINUOUS_TICK"
)

func (m TrackerMode) String() string {
	return string(m)
}

func (m TrackerMode) Validate() error {
	allowed := []TrackerMode{
		TrackerModeFiniteStaged,
		TrackerModeContinuousTick,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid tracker mode").
			WithHintf("Tracker mode must be one of %v", allowed).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// UUIDPrefix returns the id prefix used for records of this mode
func (m TrackerMode) UUIDPrefix() string {
	if m == TrackerModeContinuousTick {
		return UUID_PREFIX_STREAM
	}
	return UUID_PREFIX_JOB
}

type TrackerStatus string

const (
	TrackerStatusPending   TrackerStatus = "PENDING"
	TrackerStatusRunning   TrackerStatus = "RUNNING"
	TrackerStatusStopped   TrackerStatus = "STOPPED"
	TrackerStatusCompleted TrackerStatus = "COMPLETED"
)

func (s TrackerStatus) String() string {
	return string(s)
}

func (s TrackerStatus) Validate() error {
	allowed := []TrackerStatus{
		TrackerStatusPending,
		TrackerStatusRunning,
		TrackerStatusStopped,
		TrackerStatusCompleted,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid tracker status").
			WithHint("Invalid tracker status").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal reports whether no transition can leave s
func (s TrackerStatus) IsTerminal() bool {
	return s == TrackerStatusStopped || s == TrackerStatusCompleted
}

// CanTransitionTo reports whether s -> next is a legal lifecycle step.
// Pending -> Running -> {Stopped | Completed}; Running may loop on itself.
func (s TrackerStatus) CanTransitionTo(next TrackerStatus) bool {
	switch s {
	case TrackerStatusPending:
		return next == TrackerStatusRunning
	case TrackerStatusRunning:
		return next == TrackerStatusRunning ||
			next == TrackerStatusStopped ||
			next == TrackerStatusCompleted
	default:
		return false
	}
}

// TickMetrics is the synthetic snapshot produced by a continuous tick.
// The tracker stores it but never interprets it.
type TickMetrics struct {
	Throughput int64 `json:"throughput"`
	LatencyMs  int64 `json:"latency_ms"`
}

// Attribute keys carried on records created through the API
const (
	AttributeEngine      = "engine"
	AttributeCloud       = "cloud"
	AttributeDataSources = "data_sources"
	AttributeSourceType  = "source_type"
)
