package memory

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/bigdata-platform/internal/cache"
	"github.com/flexprice/bigdata-platform/internal/config"
	"github.com/flexprice/bigdata-platform/internal/domain/progress"
	ierr "github.com/flexprice/bigdata-platform/internal/errors"
	"github.com/flexprice/bigdata-platform/internal/logger"
	"github.com/flexprice/bigdata-platform/internal/types"
	"github.com/stretchr/testify/suite"
)

type ProgressRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	repo progress.Repository
}

func TestProgressRepository(t *testing.T) {
	suite.Run(t, new(ProgressRepositorySuite))
}

func (s *ProgressRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = NewProgressRepository(cache.NewInMemoryCache(config.GetDefaultConfig()), logger.NewNopLogger())
}

func (s *ProgressRepositorySuite) TestPutGet() {
	r := progress.New(types.TrackerModeFiniteStaged, []string{"ingest", "load"}, nil)
	r.Status = types.TrackerStatusRunning
	s.Require().NoError(s.repo.Put(s.ctx, r, time.Minute))

	got, err := s.repo.Get(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r, got)
}

func (s *ProgressRepositorySuite) TestStoredCopyIsIsolated() {
	r := progress.New(types.TrackerModeFiniteStaged, []string{"ingest", "load"}, nil)
	s.Require().NoError(s.repo.Put(s.ctx, r, time.Minute))

	// mutating after Put must not leak into the store
	r.Status = types.TrackerStatusCompleted
	r.Stages[0] = "changed"

	got, err := s.repo.Get(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(types.TrackerStatusPending, got.Status)
	s.Equal("ingest", got.Stages[0])

	// nor does mutating what Get returned
	got.ProgressPercent = 50
	again, err := s.repo.Get(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Zero(again.ProgressPercent)
}

func (s *ProgressRepositorySuite) TestGetMissing() {
	_, err := s.repo.Get(s.ctx, "job_missing")
	s.True(ierr.IsNotFound(err))
}

func (s *ProgressRepositorySuite) TestExpiry() {
	r := progress.New(types.TrackerModeContinuousTick, nil, nil)
	s.Require().NoError(s.repo.Put(s.ctx, r, 20*time.Millisecond))

	s.Eventually(func() bool {
		_, err := s.repo.Get(s.ctx, r.ID)
		return ierr.IsNotFound(err)
	}, time.Second, 10*time.Millisecond)
}

func (s *ProgressRepositorySuite) TestPutRejectsEmptyID() {
	err := s.repo.Put(s.ctx, &progress.Record{}, time.Minute)
	s.True(ierr.IsValidation(err))
}

func (s *ProgressRepositorySuite) TestListFiltersByMode() {
	job1 := progress.New(types.TrackerModeFiniteStaged, []string{"a"}, nil)
	job2 := progress.New(types.TrackerModeFiniteStaged, []string{"b"}, nil)
	stream := progress.New(types.TrackerModeContinuousTick, nil, nil)
	for _, r := range []*progress.Record{job2, stream, job1} {
		s.Require().NoError(s.repo.Put(s.ctx, r, time.Minute))
	}

	jobs, err := s.repo.List(s.ctx, types.TrackerModeFiniteStaged)
	s.Require().NoError(err)
	s.Require().Len(jobs, 2)
	s.Less(jobs[0].ID, jobs[1].ID)

	streams, err := s.repo.List(s.ctx, types.TrackerModeContinuousTick)
	s.Require().NoError(err)
	s.Require().Len(streams, 1)
	s.Equal(stream.ID, streams[0].ID)
}
