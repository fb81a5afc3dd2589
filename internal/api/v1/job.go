package v1

import (
	"net/http"

	"github.com/flexprice/bigdata-platform/internal/api/dto"
	"github.com/flexprice/bigdata-platform/internal/domain/progress"
	ierr "github.com/flexprice/bigdata-platform/internal/errors"
	"github.com/flexprice/bigdata-platform/internal/logger"
	"github.com/flexprice/bigdata-platform/internal/service"
	"github.com/flexprice/bigdata-platform/internal/types"
	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	service service.TrackerService
	log     *logger.Logger
}

func NewJobHandler(service service.TrackerService, log *logger.Logger) *JobHandler {
	return &JobHandler{service: service, log: log}
}

// @Summary Start a processing job
// @Description Start a staged processing job. Omitted stages default to the pipeline of the cloud and engine.
// @Tags Jobs
// @Accept json
// @Produce json
// @Param job body dto.CreateJobRequest true "Job"
// @Success 201 {object} dto.ProgressResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /jobs [post]
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Please check the request payload").
			Mark(ierr.ErrValidation))
		return
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	params, err := req.ToStartParams()
	if err != nil {
		c.Error(err)
		return
	}

	record, err := h.service.Start(c.Request.Context(), params)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewProgressResponse(record))
}

// @Summary List jobs
// @Description List every job that has not expired yet
// @Tags Jobs
// @Produce json
// @Success 200 {object} dto.ListProgressResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	records, err := h.service.List(c.Request.Context(), types.TrackerModeFiniteStaged)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListProgressResponse(records))
}

// @Summary Get a job
// @Description Get the progress of a job
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} dto.ProgressResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	record, err := h.get(c, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewProgressResponse(record))
}

// @Summary Stop a job
// @Description Stop a running job. Stopping a finished job returns it unchanged.
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} dto.ProgressResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /jobs/{id}/stop [post]
func (h *JobHandler) StopJob(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.get(c, id); err != nil {
		c.Error(err)
		return
	}

	record, err := h.service.Stop(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewProgressResponse(record))
}

func (h *JobHandler) get(c *gin.Context, id string) (*progress.Record, error) {
	return getOfMode(c, h.service, id, types.TrackerModeFiniteStaged)
}
