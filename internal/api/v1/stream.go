package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/flexprice/bigdata-platform/internal/api/dto"
	"github.com/flexprice/bigdata-platform/internal/config"
	ierr "github.com/flexprice/bigdata-platform/internal/errors"
	"github.com/flexprice/bigdata-platform/internal/logger"
	"github.com/flexprice/bigdata-platform/internal/publisher"
	"github.com/flexprice/bigdata-platform/internal/pubsub"
	"github.com/flexprice/bigdata-platform/internal/service"
	"github.com/flexprice/bigdata-platform/internal/types"
	"github.com/gin-gonic/gin"
)

const progressEventName = "progress"

type StreamHandler struct {
	service    service.TrackerService
	subscriber pubsub.Subscriber
	config     *config.BroadcastConfig
	log        *logger.Logger
}

func NewStreamHandler(
	service service.TrackerService,
	subscriber pubsub.Subscriber,
	cfg *config.Configuration,
	log *logger.Logger,
) *StreamHandler {
	return &StreamHandler{
		service:    service,
		subscriber: subscriber,
		config:     &cfg.Broadcast,
		log:        log,
	}
}

// @Summary Start a stream
// @Description Start a continuous stream
// @Tags Streams
// @Accept json
// @Produce json
// @Param stream body dto.CreateStreamRequest false "Stream"
// @Success 201 {object} dto.ProgressResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /streams [post]
func (h *StreamHandler) CreateStream(c *gin.Context) {
	var req dto.CreateStreamRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Please check the request payload").
				Mark(ierr.ErrValidation))
			return
		}
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	record, err := h.service.Start(c.Request.Context(), req.ToStartParams())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewProgressResponse(record))
}

// @Summary List streams
// @Description List every stream that has not expired yet
// @Tags Streams
// @Produce json
// @Success 200 {object} dto.ListProgressResponse
// @Router /streams [get]
func (h *StreamHandler) ListStreams(c *gin.Context) {
	records, err := h.service.List(c.Request.Context(), types.TrackerModeContinuousTick)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListProgressResponse(records))
}

// @Summary Get a stream
// @Tags Streams
// @Produce json
// @Param id path string true "Stream ID"
// @Success 200 {object} dto.ProgressResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /streams/{id} [get]
func (h *StreamHandler) GetStream(c *gin.Context) {
	record, err := getOfMode(c, h.service, c.Param("id"), types.TrackerModeContinuousTick)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewProgressResponse(record))
}

// @Summary Stop a stream
// @Description Stop a running stream and report how long it ran
// @Tags Streams
// @Produce json
// @Param id path string true "Stream ID"
// @Success 200 {object} dto.StopStreamResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /streams/{id}/stop [post]
func (h *StreamHandler) StopStream(c *gin.Context) {
	id := c.Param("id")
	if _, err := getOfMode(c, h.service, id, types.TrackerModeContinuousTick); err != nil {
		c.Error(err)
		return
	}

	record, err := h.service.Stop(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewStopStreamResponse(record, time.Now().UTC()))
}

// @Summary Follow a stream
// @Description Server-sent events carrying every tick of a stream until it stops
// @Tags Streams
// @Produce text/event-stream
// @Param id path string true "Stream ID"
// @Success 200 {object} publisher.ProgressEvent
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /streams/{id}/live [get]
func (h *StreamHandler) LiveStream(c *gin.Context) {
	if !h.config.Enabled {
		c.Error(ierr.NewError("broadcast disabled").
			WithHint("Live updates are disabled").
			Mark(ierr.ErrInvalidOperation))
		return
	}

	id := c.Param("id")
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// subscribe before the snapshot so no tick falls in between
	messages, err := h.subscriber.Subscribe(ctx, publisher.Topic(h.config, id))
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Live updates are unavailable").
			Mark(ierr.ErrSystem))
		return
	}

	record, err := getOfMode(c, h.service, id, types.TrackerModeContinuousTick)
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent(progressEventName, publisher.NewProgressEvent(record))
	c.Writer.Flush()

	if record.IsTerminal() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			msg.Ack()

			var event publisher.ProgressEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				h.log.Warnw("dropping malformed progress event", "record_id", id, "error", err)
				continue
			}

			c.SSEvent(progressEventName, event)
			c.Writer.Flush()

			if event.Status.IsTerminal() {
				return
			}
		}
	}
}
