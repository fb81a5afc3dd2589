package dto

import (
	"strings"
	"time"

	"github.com/flexprice/bigdata-platform/internal/domain/progress"
	"github.com/flexprice/bigdata-platform/internal/service"
	"github.com/flexprice/bigdata-platform/internal/types"
	"github.com/flexprice/bigdata-platform/internal/validator"
	"github.com/samber/lo"
)

const defaultSourceType = "mixed"

// CreateJobRequest starts a staged processing job. Without explicit stages
// the pipeline of the chosen cloud and engine is used.
type CreateJobRequest struct {
	Engine      types.ProcessingEngine `json:"engine"`
	Cloud       types.CloudProvider    `json:"cloud"`
	DataSources []string               `json:"data_sources" validate:"omitempty,max=20,dive,required,max=100"`
	Stages      []string               `json:"stages" validate:"omitempty,max=50,dive,required,max=200"`
}

func (r *CreateJobRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.Engine == "" {
		r.Engine = types.EngineSpark
	}
	if r.Cloud == "" {
		r.Cloud = types.CloudAWS
	}

	if err := r.Engine.Validate(); err != nil {
		return err
	}
	return r.Cloud.Validate()
}

func (r *CreateJobRequest) ToStartParams() (service.StartParams, error) {
	stages := r.Stages
	if len(stages) == 0 {
		var err error
		stages, err = service.ProcessingStages(r.Cloud, r.Engine)
		if err != nil {
			return service.StartParams{}, err
		}
	}

	attributes := map[string]string{
		types.AttributeEngine: r.Engine.String(),
		types.AttributeCloud:  r.Cloud.String(),
	}
	if len(r.DataSources) > 0 {
		attributes[types.AttributeDataSources] = strings.Join(r.DataSources, ",")
	}

	return service.StartParams{
		Mode:       types.TrackerModeFiniteStaged,
		Stages:     stages,
		Attributes: attributes,
	}, nil
}

// CreateStreamRequest starts a continuous stream
type CreateStreamRequest struct {
	SourceType string `json:"source_type" validate:"omitempty,max=100"`
}

func (r *CreateStreamRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.SourceType == "" {
		r.SourceType = defaultSourceType
	}
	return nil
}

func (r *CreateStreamRequest) ToStartParams() service.StartParams {
	return service.StartParams{
		Mode:       types.TrackerModeContinuousTick,
		Attributes: map[string]string{types.AttributeSourceType: r.SourceType},
	}
}

// ProgressResponse is the API view of a tracked job or stream
type ProgressResponse struct {
	*progress.Record
	TotalStages int `json:"total_stages,omitempty"`
}

func NewProgressResponse(r *progress.Record) *ProgressResponse {
	return &ProgressResponse{
		Record:      r,
		TotalStages: r.TotalStages(),
	}
}

// ListProgressResponse wraps the live records of one mode
type ListProgressResponse struct {
	Items []*ProgressResponse `json:"items"`
	Total int                 `json:"total"`
}

func NewListProgressResponse(records []*progress.Record) *ListProgressResponse {
	return &ListProgressResponse{
		Items: lo.Map(records, func(r *progress.Record, _ int) *ProgressResponse {
			return NewProgressResponse(r)
		}),
		Total: len(records),
	}
}

// StopStreamResponse adds how long the stream ran to the stopped record
type StopStreamResponse struct {
	*ProgressResponse
	DurationSeconds float64 `json:"duration_seconds"`
}

func NewStopStreamResponse(r *progress.Record, now time.Time) *StopStreamResponse {
	return &StopStreamResponse{
		ProgressResponse: NewProgressResponse(r),
		DurationSeconds:  r.Duration(now).Seconds(),
	}
}
