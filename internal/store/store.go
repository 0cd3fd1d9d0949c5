// Package store persists the search audit log and the geocode center cache.
// Result sets are never stored.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadfinder/internal/db"
	"github.com/sells-group/leadfinder/internal/model"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Mode         model.SearchMode `json:"mode,omitempty"`
	CreatedAfter time.Time        `json:"created_after,omitempty"`
	Limit        int              `json:"limit,omitempty"`
	Offset       int              `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return 50
	}
	return f.Limit
}

// Store defines the persistence interface.
type Store interface {
	// Runs
	RecordRun(ctx context.Context, run *model.SearchRun) error
	GetRun(ctx context.Context, id string) (*model.SearchRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.SearchRun, error)

	// Geocode cache
	GetCenter(ctx context.Context, key string) (model.Center, bool, error)
	PutCenter(ctx context.Context, key, query string, c model.Center) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open opens the store named by driver and applies migrations.
func Open(ctx context.Context, driver, dsn string, pool db.PoolConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case DriverSQLite, "":
		s, err = NewSQLite(dsn)
	case DriverPostgres:
		s, err = NewPostgres(ctx, dsn, pool)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
