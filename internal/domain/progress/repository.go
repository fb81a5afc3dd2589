package progress

import (
	"context"
	"time"

	"github.com/flexprice/bigdata-platform/internal/types"
)

// Repository is the keyed, expiring store holding progress records.
// Get returns an error marked ierr.ErrNotFound for absent or expired ids and
// one marked ierr.ErrStoreUnavailable when the backend cannot be reached.
type Repository interface {
	Get(ctx context.Context, id string) (*Record, error)
	// Put replaces the whole record, the store forgets it after ttl
	Put(ctx context.Context, record *Record, ttl time.Duration) error
	// List returns every live record of the given mode
	List(ctx context.Context, mode types.TrackerMode) ([]*Record, error)
}
