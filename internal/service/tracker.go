package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/flexprice/bigdata-platform/internal/domain/progress"
	ierr "github.com/flexprice/bigdata-platform/internal/errors"
	"github.com/flexprice/bigdata-platform/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"
)

// Observer is told about every record state written by the tracker.
// It runs on the worker goroutine and must not block for long.
type Observer interface {
	OnTick(ctx context.Context, r *progress.Record)
}

// ErrorReporter receives failures that need operator attention
type ErrorReporter interface {
	CaptureExceptionWithTags(err error, tags map[string]string)
}

// StartParams describes a record to be tracked
type StartParams struct {
	Mode       types.TrackerMode
	Stages     []string
	Attributes map[string]string
}

func (p StartParams) Validate() error {
	if err := p.Mode.Validate(); err != nil {
		return err
	}

	if p.Mode != types.TrackerModeFiniteStaged {
		return nil
	}

	if len(p.Stages) == 0 {
		return ierr.NewError("stages are required").
			WithHint("A staged job needs at least one stage").
			Mark(ierr.ErrValidation)
	}

	if lo.SomeBy(p.Stages, func(s string) bool { return s == "" }) {
		return ierr.NewError("stage name is empty").
			WithHint("Every stage needs a name").
			Mark(ierr.ErrValidation)
	}

	return nil
}

// TrackerService advances simulated jobs and streams in the background
type TrackerService interface {
	// Start persists a running record and schedules its worker. The record is
	// readable as soon as Start returns; the first tick comes one interval later.
	Start(ctx context.Context, params StartParams) (*progress.Record, error)
	// Stop moves a running record to STOPPED. Terminal records are returned as stored.
	Stop(ctx context.Context, id string) (*progress.Record, error)
	GetStatus(ctx context.Context, id string) (*progress.Record, error)
	List(ctx context.Context, mode types.TrackerMode) ([]*progress.Record, error)
	// Shutdown cancels every worker and waits for them to return
	Shutdown(ctx context.Context) error
}

type tickOutcome int

const (
	tickContinue tickOutcome = iota
	tickDone
)

type trackerService struct {
	ServiceParams

	locks    *keyedMutex
	reports  *rate.Limiter
	now      func() time.Time
	rootCtx  context.Context
	cancelFn context.CancelFunc

	mu      sync.Mutex
	workers map[string]context.CancelFunc
	wg      conc.WaitGroup
	closed  bool
}

func NewTrackerService(params ServiceParams) TrackerService {
	return newTrackerService(params)
}

func newTrackerService(params ServiceParams) *trackerService {
	if params.Metrics == nil {
		params.Metrics = NewRandomMetricsSource(params.Config.Tracker.Metrics)
	}

	perMinute := params.Config.Tracker.ReportsPerMinute
	if perMinute <= 0 {
		perMinute = 1
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	return &trackerService{
		ServiceParams: params,
		locks:         newKeyedMutex(),
		reports:       rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		now:           func() time.Time { return time.Now().UTC() },
		rootCtx:       rootCtx,
		cancelFn:      cancel,
		workers:       make(map[string]context.CancelFunc),
	}
}

func (s *trackerService) Start(ctx context.Context, params StartParams) (*progress.Record, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if s.isClosed() {
		return nil, ierr.NewError("tracker is shutting down").
			WithHint("The service is shutting down, retry later").
			Mark(ierr.ErrInvalidOperation)
	}

	record := progress.New(params.Mode, params.Stages, params.Attributes)
	now := s.now()
	record.Status = types.TrackerStatusRunning
	record.StartedAt = &now
	record.UpdatedAt = now

	if err := s.ProgressRepo.Put(ctx, record, s.ttlFor(record)); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to start tracking, please retry").
			WithReportableDetails(map[string]any{"mode": record.Mode}).
			Mark(ierr.ErrStoreUnavailable)
	}

	s.spawn(ctx, record)

	s.Logger.Infow("started tracking",
		"record_id", record.ID,
		"mode", record.Mode,
		"stages", record.TotalStages(),
	)

	return record, nil
}

func (s *trackerService) Stop(ctx context.Context, id string) (*progress.Record, error) {
	unlock := s.locks.Lock(id)

	record, err := s.ProgressRepo.Get(ctx, id)
	if err != nil {
		unlock()
		return nil, s.readError(id, err)
	}

	if !record.Status.CanTransitionTo(types.TrackerStatusStopped) {
		unlock()
		s.cancelWorker(id)
		return record, nil
	}

	now := s.now()
	record.Status = types.TrackerStatusStopped
	record.StoppedAt = &now
	record.UpdatedAt = now

	if err := s.ProgressRepo.Put(ctx, record, s.ttlFor(record)); err != nil {
		unlock()
		return nil, ierr.WithError(err).
			WithHint("Failed to stop, please retry").
			WithReportableDetails(map[string]any{"record_id": id}).
			Mark(ierr.ErrStoreUnavailable)
	}
	unlock()

	s.cancelWorker(id)
	s.notify(ctx, record)

	s.Logger.Infow("stopped tracking",
		"record_id", id,
		"mode", record.Mode,
		"tick", record.TickCount,
	)

	return record, nil
}

func (s *trackerService) GetStatus(ctx context.Context, id string) (*progress.Record, error) {
	record, err := s.ProgressRepo.Get(ctx, id)
	if err != nil {
		return nil, s.readError(id, err)
	}
	return record, nil
}

func (s *trackerService) List(ctx context.Context, mode types.TrackerMode) ([]*progress.Record, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	return s.ProgressRepo.List(ctx, mode)
}

func (s *trackerService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancelFn()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.Logger.Info("tracker workers stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// spawn starts the worker of record. Workers outlive the request that
// created them, so they hang off the tracker's root context and only keep
// the request id for log correlation.
func (s *trackerService) spawn(ctx context.Context, record *progress.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	workerCtx := types.SetRequestID(s.rootCtx, types.GetRequestID(ctx))
	workerCtx, cancel := context.WithCancel(workerCtx)
	s.workers[record.ID] = cancel

	id, interval := record.ID, s.intervalFor(record.Mode)
	s.wg.Go(func() {
		defer s.cancelWorker(id)
		s.run(workerCtx, id, interval)
	})
}

func (s *trackerService) cancelWorker(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.workers[id]; ok {
		cancel()
		delete(s.workers, id)
	}
}

func (s *trackerService) activeWorkers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}

func (s *trackerService) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *trackerService) run(ctx context.Context, id string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// a stop may have landed while the ticker fired
		if ctx.Err() != nil {
			return
		}

		outcome, err := s.tick(ctx, id)
		if err != nil {
			failures++
			s.handleTickFailure(id, failures, err)
			continue
		}
		failures = 0

		if outcome == tickDone {
			return
		}
	}
}

// tick performs one read-modify-write of record id under its lock
func (s *trackerService) tick(ctx context.Context, id string) (tickOutcome, error) {
	unlock := s.locks.Lock(id)

	record, err := s.ProgressRepo.Get(ctx, id)
	if err != nil {
		unlock()
		if ierr.IsNotFound(err) {
			s.Logger.Infow("record expired, stopping worker", "record_id", id)
			return tickDone, nil
		}
		return tickContinue, err
	}

	if record.Status != types.TrackerStatusRunning {
		unlock()
		return tickDone, nil
	}

	s.advance(record, s.now())

	if err := s.ProgressRepo.Put(ctx, record, s.ttlFor(record)); err != nil {
		unlock()
		return tickContinue, err
	}
	unlock()

	s.Logger.Debugw("tick",
		"record_id", id,
		"mode", record.Mode,
		"tick", record.TickCount,
		"status", record.Status,
		"progress_percent", record.ProgressPercent,
		"total_event_count", record.TotalEventCount,
	)

	s.notify(ctx, record)

	if record.IsTerminal() {
		s.Logger.Infow("completed tracking", "record_id", id, "tick", record.TickCount)
		return tickDone, nil
	}
	return tickContinue, nil
}

// advance applies one tick to a running record
func (s *trackerService) advance(record *progress.Record, now time.Time) {
	record.TickCount++
	record.UpdatedAt = now

	switch record.Mode {
	case types.TrackerModeFiniteStaged:
		total := record.TotalStages()
		completed := record.CurrentStageIndex + 1
		record.ProgressPercent = stagePercent(completed, total)

		if completed >= total {
			record.CurrentStageIndex = total - 1
			record.Status = types.TrackerStatusCompleted
			record.CompletedAt = &now
		} else {
			record.CurrentStageIndex = completed
		}
		record.CurrentStage = record.Stages[record.CurrentStageIndex]

	case types.TrackerModeContinuousTick:
		m := s.Metrics.Sample()
		record.LastTickMetrics = &m
		record.TotalEventCount += m.Throughput
	}
}

func (s *trackerService) handleTickFailure(id string, failures int, err error) {
	threshold := s.Config.Tracker.FailureReportThreshold
	if failures < threshold {
		s.Logger.Warnw("tick failed, retrying on next tick",
			"record_id", id,
			"consecutive_failures", failures,
			"error", err,
		)
		return
	}

	s.Logger.Errorw("tick keeps failing",
		"record_id", id,
		"consecutive_failures", failures,
		"error", err,
	)

	if s.Reporter != nil && s.reports.Allow() {
		s.Reporter.CaptureExceptionWithTags(err, map[string]string{
			"record_id":            id,
			"consecutive_failures": fmt.Sprint(failures),
		})
	}
}

func (s *trackerService) notify(ctx context.Context, record *progress.Record) {
	if s.Observer == nil {
		return
	}
	s.Observer.OnTick(ctx, record.Clone())
}

// readError hides store failures behind not found: the caller cannot tell
// an unreadable record from a missing one.
func (s *trackerService) readError(id string, err error) error {
	if ierr.IsNotFound(err) {
		return err
	}

	s.Logger.Warnw("failed to read record", "record_id", id, "error", err)
	return ierr.NewError(fmt.Sprintf("record %s could not be read", id)).
		WithHint("Record not found").
		WithReportableDetails(map[string]any{"record_id": id}).
		Mark(ierr.ErrNotFound)
}

func (s *trackerService) intervalFor(mode types.TrackerMode) time.Duration {
	if mode == types.TrackerModeContinuousTick {
		return s.Config.Tracker.StreamTickInterval
	}
	return s.Config.Tracker.JobTickInterval
}

func (s *trackerService) ttlFor(record *progress.Record) time.Duration {
	if record.Status == types.TrackerStatusStopped {
		return s.Config.Tracker.StoppedTTL
	}
	if record.Mode == types.TrackerModeContinuousTick {
		return s.Config.Tracker.StreamTTL
	}
	return s.Config.Tracker.JobTTL
}

func stagePercent(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)*10000/float64(total)) / 100
}
