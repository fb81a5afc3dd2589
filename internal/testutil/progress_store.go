package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/bigdata-platform/internal/domain/progress"
	ierr "github.com/flexprice/bigdata-platform/internal/errors"
	"github.com/flexprice/bigdata-platform/internal/types"
)

// FlakyProgressStore wraps a repository and fails reads or writes on demand
type FlakyProgressStore struct {
	progress.Repository

	mu         sync.Mutex
	failGets   bool
	failPuts   bool
	putCount   int
	failedPuts int
}

func NewFlakyProgressStore(inner progress.Repository) *FlakyProgressStore {
	return &FlakyProgressStore{Repository: inner}
}

// FailGets toggles failures of Get
func (s *FlakyProgressStore) FailGets(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGets = fail
}

// FailPuts toggles failures of Put
func (s *FlakyProgressStore) FailPuts(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPuts = fail
}

// Puts returns the number of successful and failed writes so far
func (s *FlakyProgressStore) Puts() (succeeded, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putCount, s.failedPuts
}

func (s *FlakyProgressStore) Get(ctx context.Context, id string) (*progress.Record, error) {
	s.mu.Lock()
	fail := s.failGets
	s.mu.Unlock()

	if fail {
		return nil, unavailable("get")
	}
	return s.Repository.Get(ctx, id)
}

func (s *FlakyProgressStore) Put(ctx context.Context, record *progress.Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failPuts {
		s.failedPuts++
		return unavailable("put")
	}
	s.putCount++
	return s.Repository.Put(ctx, record, ttl)
}

func (s *FlakyProgressStore) List(ctx context.Context, mode types.TrackerMode) ([]*progress.Record, error) {
	s.mu.Lock()
	fail := s.failGets
	s.mu.Unlock()

	if fail {
		return nil, unavailable("list")
	}
	return s.Repository.List(ctx, mode)
}

func unavailable(op string) error {
	return ierr.NewError("injected store failure").
		WithHintf("Store %s failed", op).
		Mark(ierr.ErrStoreUnavailable)
}

// RecordingObserver keeps every record it is notified about
type RecordingObserver struct {
	mu      sync.Mutex
	records []*progress.Record
}

func (o *RecordingObserver) OnTick(_ context.Context, r *progress.Record) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, r.Clone())
}

// Records returns the notified records in order
func (o *RecordingObserver) Records() []*progress.Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*progress.Record(nil), o.records...)
}

// RecordingReporter counts reported errors
type RecordingReporter struct {
	mu     sync.Mutex
	errors []error
	tags   []map[string]string
}

func (r *RecordingReporter) CaptureExceptionWithTags(err error, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
	r.tags = append(r.tags, tags)
}

// Count returns how many errors were reported
func (r *RecordingReporter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

// Tags returns the tags of every report
func (r *RecordingReporter) Tags() []map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]string(nil), r.tags...)
}
