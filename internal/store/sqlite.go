package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadfinder/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS search_runs (
	id             TEXT PRIMARY KEY,
	query          TEXT NOT NULL,
	mode           TEXT NOT NULL,
	center_lat     REAL NOT NULL,
	center_lng     REAL NOT NULL,
	resolved       INTEGER NOT NULL DEFAULT 0,
	types_searched INTEGER NOT NULL DEFAULT 0,
	api_calls      INTEGER NOT NULL DEFAULT 0,
	result_count   INTEGER NOT NULL DEFAULT 0,
	error          TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS geocode_cache (
	query_hash TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	lat        REAL NOT NULL,
	lng        REAL NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_search_runs_created_at ON search_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_search_runs_mode ON search_runs(mode);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run *model.SearchRun) error {
	prepareRun(run)
	queryJSON, err := json.Marshal(run.Query)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal query")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_runs (id, query, mode, center_lat, center_lng, resolved, types_searched, api_calls, result_count, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(queryJSON), string(run.Mode), run.Center.Lat, run.Center.Lng, run.Resolved,
		run.TypesSearched, run.APICalls, run.ResultCount, run.Error, run.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert run")
}

const sqliteRunColumns = `id, query, mode, center_lat, center_lng, resolved, types_searched, api_calls, result_count, error, created_at`

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.SearchRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteRunColumns+` FROM search_runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.SearchRun, error) {
	query := `SELECT ` + sqliteRunColumns + ` FROM search_runs WHERE 1=1`
	var args []any

	if filter.Mode != "" {
		query += ` AND mode = ?`
		args = append(args, string(filter.Mode))
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.CreatedAfter.UTC())
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.SearchRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) GetCenter(ctx context.Context, key string) (model.Center, bool, error) {
	var c model.Center
	err := s.db.QueryRowContext(ctx, `SELECT lat, lng FROM geocode_cache WHERE query_hash = ?`, key).Scan(&c.Lat, &c.Lng)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Center{}, false, nil
	}
	if err != nil {
		return model.Center{}, false, eris.Wrap(err, "sqlite: get center")
	}
	return c, true, nil
}

func (s *SQLiteStore) PutCenter(ctx context.Context, key, query string, c model.Center) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (query_hash, query, lat, lng, cached_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (query_hash) DO UPDATE SET query = excluded.query, lat = excluded.lat, lng = excluded.lng, cached_at = excluded.cached_at`,
		key, query, c.Lat, c.Lng, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: put center")
}

// helpers

func prepareRun(run *model.SearchRun) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.SearchRun, error) {
	var (
		r         model.SearchRun
		queryJSON string
		mode      string
	)
	err := row.Scan(&r.ID, &queryJSON, &mode, &r.Center.Lat, &r.Center.Lng, &r.Resolved,
		&r.TypesSearched, &r.APICalls, &r.ResultCount, &r.Error, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Mode = model.SearchMode(mode)
	if err := json.Unmarshal([]byte(queryJSON), &r.Query); err != nil {
		return nil, eris.Wrap(err, "unmarshal query")
	}
	return &r, nil
}
