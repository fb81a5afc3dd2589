package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/bigdata-platform/internal/config"
	"github.com/flexprice/bigdata-platform/internal/domain/progress"
	"github.com/flexprice/bigdata-platform/internal/logger"
	"github.com/flexprice/bigdata-platform/internal/pubsub"
	"github.com/flexprice/bigdata-platform/internal/types"
)

// ProgressEvent is the payload broadcast after every successful tick
type ProgressEvent struct {
	RecordID          string              `json:"record_id"`
	Mode              types.TrackerMode   `json:"mode"`
	Status            types.TrackerStatus `json:"status"`
	CurrentStageIndex int                 `json:"current_stage_index"`
	CurrentStage      string              `json:"current_stage,omitempty"`
	ProgressPercent   float64             `json:"progress_percent"`
	TotalEventCount   int64               `json:"total_event_count"`
	Metrics           *types.TickMetrics  `json:"metrics,omitempty"`
	Timestamp         time.Time           `json:"timestamp"`
}

// NewProgressEvent snapshots the broadcast fields of a record
func NewProgressEvent(r *progress.Record) *ProgressEvent {
	return &ProgressEvent{
		RecordID:          r.ID,
		Mode:              r.Mode,
		Status:            r.Status,
		CurrentStageIndex: r.CurrentStageIndex,
		CurrentStage:      r.CurrentStage,
		ProgressPercent:   r.ProgressPercent,
		TotalEventCount:   r.TotalEventCount,
		Metrics:           r.LastTickMetrics,
		Timestamp:         r.UpdatedAt,
	}
}

// ProgressPublisher pushes tick results to the configured pubsub, one topic per record
type ProgressPublisher struct {
	pubSub pubsub.Publisher
	config *config.BroadcastConfig
	logger *logger.Logger
}

func NewProgressPublisher(
	pubSub pubsub.Publisher,
	cfg *config.Configuration,
	logger *logger.Logger,
) *ProgressPublisher {
	return &ProgressPublisher{
		pubSub: pubSub,
		config: &cfg.Broadcast,
		logger: logger,
	}
}

// Topic returns the topic carrying updates of one record
func Topic(cfg *config.BroadcastConfig, recordID string) string {
	return cfg.TopicPrefix + "." + recordID
}

// OnTick publishes the record state. Failures are logged and swallowed:
// a broken broadcast must never affect the tracker.
func (p *ProgressPublisher) OnTick(ctx context.Context, r *progress.Record) {
	if !p.config.Enabled {
		return
	}

	payload, err := json.Marshal(NewProgressEvent(r))
	if err != nil {
		p.logger.Errorw("failed to marshal progress event", "error", err, "record_id", r.ID)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("record_id", r.ID)
	msg.Metadata.Set("status", r.Status.String())
	if requestID := types.GetRequestID(ctx); requestID != "" {
		msg.Metadata.Set("request_id", requestID)
	}

	topic := Topic(p.config, r.ID)
	if err := p.pubSub.Publish(ctx, topic, msg); err != nil {
		p.logger.Errorw("failed to publish progress event",
			"error", err,
			"record_id", r.ID,
			"topic", topic,
		)
		return
	}

	p.logger.Debugw("published progress event",
		"record_id", r.ID,
		"status", r.Status,
		"topic", topic,
	)
}
