package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadfinder/internal/db"
	"github.com/sells-group/leadfinder/internal/model"
)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, cfg db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Open(ctx, connString, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS search_runs (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	query          JSONB NOT NULL,
	mode           TEXT NOT NULL,
	center_lat     DOUBLE PRECISION NOT NULL,
	center_lng     DOUBLE PRECISION NOT NULL,
	resolved       BOOLEAN NOT NULL DEFAULT false,
	types_searched INTEGER NOT NULL DEFAULT 0,
	api_calls      INTEGER NOT NULL DEFAULT 0,
	result_count   INTEGER NOT NULL DEFAULT 0,
	error          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS geocode_cache (
	query_hash TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	lat        DOUBLE PRECISION NOT NULL,
	lng        DOUBLE PRECISION NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_search_runs_created_at ON search_runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_search_runs_mode ON search_runs(mode);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) RecordRun(ctx context.Context, run *model.SearchRun) error {
	prepareRun(run)
	queryJSON, err := json.Marshal(run.Query)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal query")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO search_runs (id, query, mode, center_lat, center_lng, resolved, types_searched, api_calls, result_count, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, queryJSON, string(run.Mode), run.Center.Lat, run.Center.Lng, run.Resolved,
		run.TypesSearched, run.APICalls, run.ResultCount, run.Error, run.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert run")
}

const postgresRunColumns = `id, query, mode, center_lat, center_lng, resolved, types_searched, api_calls, result_count, error, created_at`

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.SearchRun, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postgresRunColumns+` FROM search_runs WHERE id = $1`, id)
	r, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.SearchRun, error) {
	query := `SELECT ` + postgresRunColumns + ` FROM search_runs`
	var (
		args  []any
		where []string
	)

	if filter.Mode != "" {
		args = append(args, string(filter.Mode))
		where = append(where, `mode = $`+strconv.Itoa(len(args)))
	}
	if !filter.CreatedAfter.IsZero() {
		args = append(args, filter.CreatedAfter.UTC())
		where = append(where, `created_at >= $`+strconv.Itoa(len(args)))
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	args = append(args, filter.limit(), max(filter.Offset, 0))
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.SearchRun
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) GetCenter(ctx context.Context, key string) (model.Center, bool, error) {
	var c model.Center
	err := s.pool.QueryRow(ctx, `SELECT lat, lng FROM geocode_cache WHERE query_hash = $1`, key).Scan(&c.Lat, &c.Lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Center{}, false, nil
	}
	if err != nil {
		return model.Center{}, false, eris.Wrap(err, "postgres: get center")
	}
	return c, true, nil
}

func (s *PostgresStore) PutCenter(ctx context.Context, key, query string, c model.Center) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO geocode_cache (query_hash, query, lat, lng, cached_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (query_hash) DO UPDATE SET query = EXCLUDED.query, lat = EXCLUDED.lat, lng = EXCLUDED.lng, cached_at = EXCLUDED.cached_at`,
		key, query, c.Lat, c.Lng, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: put center")
}

func scanPgRun(row pgx.Row) (*model.SearchRun, error) {
	var (
		r         model.SearchRun
		queryJSON []byte
		mode      string
	)
	err := row.Scan(&r.ID, &queryJSON, &mode, &r.Center.Lat, &r.Center.Lng, &r.Resolved,
		&r.TypesSearched, &r.APICalls, &r.ResultCount, &r.Error, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Mode = model.SearchMode(mode)
	if err := json.Unmarshal(queryJSON, &r.Query); err != nil {
		return nil, eris.Wrap(err, "unmarshal query")
	}
	return &r, nil
}
