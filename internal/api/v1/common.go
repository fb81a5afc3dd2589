package v1

import (
	"github.com/flexprice/bigdata-platform/internal/domain/progress"
	ierr "github.com/flexprice/bigdata-platform/internal/errors"
	"github.com/flexprice/bigdata-platform/internal/service"
	"github.com/flexprice/bigdata-platform/internal/types"
	"github.com/gin-gonic/gin"
)

// getOfMode reads a record and hides it when it belongs to the other resource
func getOfMode(c *gin.Context, svc service.TrackerService, id string, mode types.TrackerMode) (*progress.Record, error) {
	if id == "" {
		return nil, ierr.NewError("id is required").
			WithHint("Please provide an id").
			Mark(ierr.ErrValidation)
	}

	record, err := svc.GetStatus(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}

	if record.Mode != mode {
		return nil, ierr.NewError("record mode mismatch").
			WithHintf("%s not found", resourceName(mode)).
			WithReportableDetails(map[string]any{"id": id}).
			Mark(ierr.ErrNotFound)
	}

	return record, nil
}

func resourceName(mode types.TrackerMode) string {
	if mode == types.TrackerModeContinuousTick {
		return "Stream"
	}
	return "Job"
}
