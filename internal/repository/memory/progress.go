package memory

import (
	"context"
	"sort"
	"time"

	"github.com/flexprice/bigdata-platform/internal/cache"
	"github.com/flexprice/bigdata-platform/internal/domain/progress"
	ierr "github.com/flexprice/bigdata-platform/internal/errors"
	"github.com/flexprice/bigdata-platform/internal/logger"
	"github.com/flexprice/bigdata-platform/internal/types"
)

type progressRepository struct {
	cache  cache.Cache
	logger *logger.Logger
}

// NewProgressRepository stores records in the process cache. Records are
// cloned on the way in and out so readers never observe a record that a
// tick is still mutating.
func NewProgressRepository(c cache.Cache, logger *logger.Logger) progress.Repository {
	return &progressRepository{
		cache:  c,
		logger: logger,
	}
}

func (r *progressRepository) Get(ctx context.Context, id string) (*progress.Record, error) {
	span := cache.StartStoreSpan(ctx, "memory", "get", map[string]interface{}{"record_id": id})
	defer cache.FinishSpan(span)

	value, found := r.cache.Get(ctx, cache.GenerateKey(cache.PrefixProgress, id))
	if !found {
		return nil, ierr.NewError("record not found").
			WithHint("Record not found").
			WithReportableDetails(map[string]any{"id": id}).
			Mark(ierr.ErrNotFound)
	}

	record, ok := value.(*progress.Record)
	if !ok {
		err := ierr.NewError("unexpected value type in cache").
			WithHint("Record could not be read").
			WithReportableDetails(map[string]any{"id": id}).
			Mark(ierr.ErrStoreUnavailable)
		cache.SetSpanError(span, err)
		return nil, err
	}

	cache.SetSpanSuccess(span)
	return record.Clone(), nil
}

func (r *progressRepository) Put(ctx context.Context, record *progress.Record, ttl time.Duration) error {
	if record == nil || record.ID == "" {
		return ierr.NewError("record id is required").
			WithHint("Record id is required").
			Mark(ierr.ErrValidation)
	}

	span := cache.StartStoreSpan(ctx, "memory", "put", map[string]interface{}{
		"record_id": record.ID,
		"ttl":       ttl.String(),
	})
	defer cache.FinishSpan(span)

	r.cache.Set(ctx, cache.GenerateKey(cache.PrefixProgress, record.ID), record.Clone(), ttl)

	cache.SetSpanSuccess(span)
	return nil
}

func (r *progressRepository) List(ctx context.Context, mode types.TrackerMode) ([]*progress.Record, error) {
	span := cache.StartStoreSpan(ctx, "memory", "list", map[string]interface{}{"mode": mode})
	defer cache.FinishSpan(span)

	items := r.cache.GetByPrefix(ctx, cache.PrefixProgress)
	records := make([]*progress.Record, 0, len(items))
	for key, value := range items {
		record, ok := value.(*progress.Record)
		if !ok {
			r.logger.Warnw("skipping unexpected cache entry", "key", key)
			continue
		}
		if record.Mode != mode {
			continue
		}
		records = append(records, record.Clone())
	}

	// ULIDs sort by creation time
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})

	cache.SetSpanSuccess(span)
	return records, nil
}
