package redis

import (
	"context"
	"sort"
	"time"

	"github.com/flexprice/bigdata-platform/internal/cache"
	"github.com/flexprice/bigdata-platform/internal/domain/progress"
	ierr "github.com/flexprice/bigdata-platform/internal/errors"
	"github.com/flexprice/bigdata-platform/internal/logger"
	redisclient "github.com/flexprice/bigdata-platform/internal/redis"
	"github.com/flexprice/bigdata-platform/internal/types"
	"github.com/gomodule/redigo/redis"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const scanBatchSize = 100

type progressRepository struct {
	client *redisclient.Client
	logger *logger.Logger
}

// NewProgressRepository stores records as JSON strings with a PX expiry so
// that several API replicas can share them
func NewProgressRepository(client *redisclient.Client, logger *logger.Logger) progress.Repository {
	return &progressRepository{
		client: client,
		logger: logger,
	}
}

func (r *progressRepository) key(id string) string {
	return r.client.Key("progress", "v1", id)
}

func (r *progressRepository) Get(ctx context.Context, id string) (*progress.Record, error) {
	span := cache.StartStoreSpan(ctx, "redis", "get", map[string]interface{}{"record_id": id})
	defer cache.FinishSpan(span)

	conn, err := r.client.Conn(ctx)
	if err != nil {
		cache.SetSpanError(span, err)
		return nil, unavailable(err, "failed to get redis connection")
	}
	defer conn.Close()

	payload, err := redis.Bytes(conn.Do("GET", r.key(id)))
	if err == redis.ErrNil {
		return nil, ierr.NewError("record not found").
			WithHint("Record not found").
			WithReportableDetails(map[string]any{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		cache.SetSpanError(span, err)
		return nil, unavailable(err, "failed to read record")
	}

	var record progress.Record
	if err := json.Unmarshal(payload, &record); err != nil {
		cache.SetSpanError(span, err)
		return nil, unavailable(err, "failed to decode record")
	}

	cache.SetSpanSuccess(span)
	return &record, nil
}

func (r *progressRepository) Put(ctx context.Context, record *progress.Record, ttl time.Duration) error {
	if record == nil || record.ID == "" {
		return ierr.NewError("record id is required").
			WithHint("Record id is required").
			Mark(ierr.ErrValidation)
	}

	span := cache.StartStoreSpan(ctx, "redis", "put", map[string]interface{}{
		"record_id": record.ID,
		"ttl":       ttl.String(),
	})
	defer cache.FinishSpan(span)

	payload, err := json.Marshal(record)
	if err != nil {
		cache.SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Record could not be encoded").
			Mark(ierr.ErrSystem)
	}

	conn, err := r.client.Conn(ctx)
	if err != nil {
		cache.SetSpanError(span, err)
		return unavailable(err, "failed to get redis connection")
	}
	defer conn.Close()

	args := redis.Args{}.Add(r.key(record.ID), payload)
	if ttl > 0 {
		args = args.Add("PX", ttl.Milliseconds())
	}

	if _, err := conn.Do("SET", args...); err != nil {
		cache.SetSpanError(span, err)
		return unavailable(err, "failed to write record")
	}

	cache.SetSpanSuccess(span)
	return nil
}

func (r *progressRepository) List(ctx context.Context, mode types.TrackerMode) ([]*progress.Record, error) {
	span := cache.StartStoreSpan(ctx, "redis", "list", map[string]interface{}{"mode": mode})
	defer cache.FinishSpan(span)

	conn, err := r.client.Conn(ctx)
	if err != nil {
		cache.SetSpanError(span, err)
		return nil, unavailable(err, "failed to get redis connection")
	}
	defer conn.Close()

	keys, err := r.scanKeys(conn, r.key("*"))
	if err != nil {
		cache.SetSpanError(span, err)
		return nil, unavailable(err, "failed to scan records")
	}

	records := make([]*progress.Record, 0, len(keys))
	if len(keys) == 0 {
		cache.SetSpanSuccess(span)
		return records, nil
	}

	payloads, err := redis.ByteSlices(conn.Do("MGET", redis.Args{}.AddFlat(keys)...))
	if err != nil {
		cache.SetSpanError(span, err)
		return nil, unavailable(err, "failed to read records")
	}

	for i, payload := range payloads {
		// expired between SCAN and MGET
		if payload == nil {
			continue
		}
		var record progress.Record
		if err := json.Unmarshal(payload, &record); err != nil {
			r.logger.Warnw("skipping undecodable record", "key", keys[i], "error", err)
			continue
		}
		if record.Mode != mode {
			continue
		}
		records = append(records, &record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})

	cache.SetSpanSuccess(span)
	return records, nil
}

func (r *progressRepository) scanKeys(conn redis.Conn, pattern string) ([]string, error) {
	var (
		cursor int64
		keys   []string
	)

	for {
		values, err := redis.Values(conn.Do("SCAN", cursor, "MATCH", pattern, "COUNT", scanBatchSize))
		if err != nil {
			return nil, err
		}

		cursor, err = redis.Int64(values[0], nil)
		if err != nil {
			return nil, err
		}
		batch, err := redis.Strings(values[1], nil)
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)

		if cursor == 0 {
			return keys, nil
		}
	}
}

func unavailable(err error, msg string) error {
	return ierr.WithError(err).
		WithMessage(msg).
		WithHint("Record store is unavailable").
		Mark(ierr.ErrStoreUnavailable)
}
