package testutil

import (
	"context"
	"time"

	"github.com/flexprice/bigdata-platform/internal/cache"
	"github.com/flexprice/bigdata-platform/internal/config"
	"github.com/flexprice/bigdata-platform/internal/domain/progress"
	"github.com/flexprice/bigdata-platform/internal/logger"
	"github.com/flexprice/bigdata-platform/internal/repository/memory"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	ProgressRepo *FlakyProgressStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	stores   Stores
	cache    cache.Cache
	observer *RecordingObserver
	reporter *RecordingReporter
	logger   *logger.Logger
	config   *config.Configuration
	now      time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	s.config = NewTestConfig()
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.cache = cache.NewInMemoryCache(s.config)
	s.stores = Stores{
		ProgressRepo: NewFlakyProgressStore(memory.NewProgressRepository(s.cache, s.logger)),
	}
	s.observer = &RecordingObserver{}
	s.reporter = &RecordingReporter{}
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.cache.Flush(context.Background())
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetObserver returns the observer recording tracker notifications
func (s *BaseServiceTestSuite) GetObserver() *RecordingObserver {
	return s.observer
}

// GetReporter returns the reporter recording tracker failures
func (s *BaseServiceTestSuite) GetReporter() *RecordingReporter {
	return s.reporter
}

// GetNow returns the time captured at the start of the test
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

// GetProgressRepo returns the progress repository as the domain interface
func (s *BaseServiceTestSuite) GetProgressRepo() progress.Repository {
	return s.stores.ProgressRepo
}
