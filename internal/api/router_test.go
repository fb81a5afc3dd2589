package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	v1 "github.com/flexprice/bigdata-platform/internal/api/v1"
	"github.com/flexprice/bigdata-platform/internal/cache"
	"github.com/flexprice/bigdata-platform/internal/config"
	ierr "github.com/flexprice/bigdata-platform/internal/errors"
	"github.com/flexprice/bigdata-platform/internal/logger"
	"github.com/flexprice/bigdata-platform/internal/publisher"
	"github.com/flexprice/bigdata-platform/internal/repository/memory"
	"github.com/flexprice/bigdata-platform/internal/service"
	"github.com/flexprice/bigdata-platform/internal/testutil"
	"github.com/flexprice/bigdata-platform/internal/types"
	"github.com/flexprice/bigdata-platform/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type recordBody struct {
	ID                string            `json:"id"`
	Mode              string            `json:"mode"`
	Status            string            `json:"status"`
	Stages            []string          `json:"stages"`
	TotalStages       int               `json:"total_stages"`
	CurrentStageIndex int               `json:"current_stage_index"`
	ProgressPercent   float64           `json:"progress_percent"`
	TotalEventCount   int64             `json:"total_event_count"`
	Attributes        map[string]string `json:"attributes"`
	DurationSeconds   *float64          `json:"duration_seconds"`
}

type RouterSuite struct {
	suite.Suite
	config  *config.Configuration
	logger  *logger.Logger
	store   *testutil.FlakyProgressStore
	pubSub  *testutil.InMemoryPubSub
	tracker service.TrackerService
	router  *gin.Engine
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	validator.NewValidator()
}

func (s *RouterSuite) SetupTest() {
	s.config = testutil.NewTestConfig()
	s.logger = logger.NewNopLogger()
	s.store = testutil.NewFlakyProgressStore(
		memory.NewProgressRepository(cache.NewInMemoryCache(s.config), s.logger),
	)
	s.pubSub = testutil.NewInMemoryPubSub()

	s.tracker = service.NewTrackerService(service.ServiceParams{
		Logger:       s.logger,
		Config:       s.config,
		ProgressRepo: s.store,
		Observer:     publisher.NewProgressPublisher(s.pubSub, s.config, s.logger),
		Metrics:      service.NewRandomMetricsSource(s.config.Tracker.Metrics),
	})

	s.router = NewRouter(Handlers{
		Health: v1.NewHealthHandler(s.logger),
		Job:    v1.NewJobHandler(s.tracker, s.logger),
		Stream: v1.NewStreamHandler(s.tracker, s.pubSub, s.config, s.logger),
	}, s.config, s.logger)
}

func (s *RouterSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.NoError(s.tracker.Shutdown(ctx))
	s.NoError(s.pubSub.Close())
}

func (s *RouterSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder) recordBody {
	var body recordBody
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func (s *RouterSuite) decodeError(w *httptest.ResponseRecorder) ierr.ErrorResponse {
	var body ierr.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"ok"}`, w.Body.String())
}

func (s *RouterSuite) TestRequestIDAndCORS() {
	req := httptest.NewRequest(http.MethodOptions, "/v1/jobs", nil)
	req.Header.Set(types.HeaderRequestID, "req-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("req-123", w.Header().Get(types.HeaderRequestID))
	s.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))

	w = s.do(http.MethodGet, "/health", "")
	s.NotEmpty(w.Header().Get(types.HeaderRequestID))
}

func (s *RouterSuite) TestCreateJobWithDefaultPipeline() {
	w := s.do(http.MethodPost, "/v1/jobs", `{}`)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	body := s.decode(w)
	s.Equal(string(types.TrackerModeFiniteStaged), body.Mode)
	s.Equal(string(types.TrackerStatusRunning), body.Status)
	s.Len(body.Stages, 7)
	s.Equal(7, body.TotalStages)
	s.Equal("Spark ETL processing on EMR", body.Stages[3])
	s.Equal("spark", body.Attributes[types.AttributeEngine])
	s.Equal("aws", body.Attributes[types.AttributeCloud])
	s.Zero(body.ProgressPercent)
}

func (s *RouterSuite) TestCreateJobRunsToCompletion() {
	w := s.do(http.MethodPost, "/v1/jobs", `{
		"cloud": "gcp",
		"engine": "hadoop",
		"data_sources": ["orders", "clicks"],
		"stages": ["ingest", "transform", "load"]
	}`)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	created := s.decode(w)
	s.Equal("orders,clicks", created.Attributes[types.AttributeDataSources])

	s.Eventually(func() bool {
		w := s.do(http.MethodGet, "/v1/jobs/"+created.ID, "")
		return w.Code == http.StatusOK && s.decode(w).Status == string(types.TrackerStatusCompleted)
	}, 2*time.Second, 10*time.Millisecond)

	got := s.decode(s.do(http.MethodGet, "/v1/jobs/"+created.ID, ""))
	s.Equal(float64(100), got.ProgressPercent)
	s.Equal(2, got.CurrentStageIndex)

	list := s.do(http.MethodGet, "/v1/jobs", "")
	s.Equal(http.StatusOK, list.Code)
	s.Contains(list.Body.String(), created.ID)
}

func (s *RouterSuite) TestCreateJobValidation() {
	tests := []struct {
		name string
		body string
	}{
		{"unknown_cloud", `{"cloud":"oracle"}`},
		{"unknown_engine", `{"engine":"flink"}`},
		{"blank_stage", `{"stages":["ingest",""]}`},
		{"malformed", `{"stages":`},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do(http.MethodPost, "/v1/jobs", tt.body)
			s.Equal(http.StatusBadRequest, w.Code, w.Body.String())
			s.False(s.decodeError(w).Success)
		})
	}
}

func (s *RouterSuite) TestStoreUnavailable() {
	s.store.FailPuts(true)

	w := s.do(http.MethodPost, "/v1/streams", "")
	s.Equal(http.StatusServiceUnavailable, w.Code, w.Body.String())
}

func (s *RouterSuite) TestNotFound() {
	w := s.do(http.MethodGet, "/v1/jobs/job_missing", "")
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/v1/streams/stream_missing/stop", "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestModesAreSeparate() {
	stream := s.decode(s.do(http.MethodPost, "/v1/streams", ""))

	w := s.do(http.MethodGet, "/v1/jobs/"+stream.ID, "")
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/v1/jobs/"+stream.ID+"/stop", "")
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/v1/streams/"+stream.ID, "")
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestStreamLifecycle() {
	w := s.do(http.MethodPost, "/v1/streams", `{"source_type":"kinesis"}`)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	created := s.decode(w)
	s.Equal(string(types.TrackerModeContinuousTick), created.Mode)
	s.Equal("kinesis", created.Attributes[types.AttributeSourceType])

	s.Eventually(func() bool {
		return s.decode(s.do(http.MethodGet, "/v1/streams/"+created.ID, "")).TotalEventCount > 0
	}, 2*time.Second, 10*time.Millisecond)

	w = s.do(http.MethodPost, "/v1/streams/"+created.ID+"/stop", "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	stopped := s.decode(w)
	s.Equal(string(types.TrackerStatusStopped), stopped.Status)
	s.Require().NotNil(stopped.DurationSeconds)
	s.Greater(*stopped.DurationSeconds, float64(0))

	again := s.decode(s.do(http.MethodPost, "/v1/streams/"+created.ID+"/stop", ""))
	s.Equal(stopped.Status, again.Status)
	s.Equal(stopped.TotalEventCount, again.TotalEventCount)
	s.Equal(*stopped.DurationSeconds, *again.DurationSeconds)

	list := s.do(http.MethodGet, "/v1/streams", "")
	s.Contains(list.Body.String(), created.ID)
}

func (s *RouterSuite) TestStreamDefaultsSourceType() {
	w := s.do(http.MethodPost, "/v1/streams", "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal("mixed", s.decode(w).Attributes[types.AttributeSourceType])
}

func (s *RouterSuite) TestLiveStream() {
	created := s.decode(s.do(http.MethodPost, "/v1/streams", ""))
	topic := publisher.Topic(&s.config.Broadcast, created.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/v1/streams/"+created.ID+"/live", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.router.ServeHTTP(w, req)
	}()

	s.Eventually(func() bool {
		return s.pubSub.SubscriberCount(topic) == 1
	}, time.Second, 5*time.Millisecond)

	seen := len(s.pubSub.GetMessages(topic))
	s.Eventually(func() bool {
		return len(s.pubSub.GetMessages(topic)) >= seen+2
	}, 2*time.Second, 5*time.Millisecond)

	_, err := s.tracker.Stop(context.Background(), created.ID)
	s.Require().NoError(err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.FailNow("live stream did not end after stop")
	}

	body := w.Body.String()
	s.Equal("text/event-stream", w.Header().Get("Content-Type"))
	s.GreaterOrEqual(strings.Count(body, "event:progress"), 3)
	s.Contains(body, string(types.TrackerStatusStopped))
}

func (s *RouterSuite) TestLiveStreamOfStoppedStream() {
	created := s.decode(s.do(http.MethodPost, "/v1/streams", ""))
	_, err := s.tracker.Stop(context.Background(), created.ID)
	s.Require().NoError(err)

	w := s.do(http.MethodGet, "/v1/streams/"+created.ID+"/live", "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal(1, strings.Count(w.Body.String(), "event:progress"))
}

func (s *RouterSuite) TestLiveStreamDisabled() {
	s.config.Broadcast.Enabled = false

	created := s.decode(s.do(http.MethodPost, "/v1/streams", ""))
	w := s.do(http.MethodGet, "/v1/streams/"+created.ID+"/live", "")
	s.Equal(http.StatusBadRequest, w.Code)
}
