// Package store persists pipeline state: a SQLite cache tracking acquired
// datasets, and a PostGIS sink for loaded boundaries and statistics.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// DatasetKind distinguishes the two dataset families tracked by the cache.
type DatasetKind string

const (
	KindStats      DatasetKind = "stats"
	KindBoundaries DatasetKind = "boundaries"
)

// DatasetRecord describes one acquired dataset file.
type DatasetRecord struct {
	ID        string
	Year      int
	Kind      DatasetKind
	Path      string
	Checksum  string
	FetchedAt time.Time
}

// LoadStatusRow records one completed load.
type LoadStatusRow struct {
	Year       int
	Kind       DatasetKind
	RowCount   int
	LoadedAt   time.Time
	DurationMs int
}

// SQLite implements the local dataset cache using modernc.org/sqlite.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLite, error) {
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
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLite{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS datasets (
	id         TEXT PRIMARY KEY,
	year       INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	path       TEXT NOT NULL,
	checksum   TEXT,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (year, kind)
);

CREATE TABLE IF NOT EXISTS load_status (
	year        INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	row_count   INTEGER NOT NULL,
	loaded_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	duration_ms INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (year, kind)
);

CREATE INDEX IF NOT EXISTS idx_datasets_year ON datasets(year);
`

// Migrate creates the cache schema.
func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// RecordDataset registers an acquired dataset file, replacing any previous
// record for the same year and kind.
func (s *SQLite) RecordDataset(ctx context.Context, rec DatasetRecord) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO datasets (id, year, kind, path, checksum, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (year, kind) DO UPDATE SET
			path = excluded.path,
			checksum = excluded.checksum,
			fetched_at = excluded.fetched_at`,
		id, rec.Year, string(rec.Kind), rec.Path, rec.Checksum, now,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: record dataset")
	}
	return id, nil
}

// GetDataset returns the cache record for a year/kind, or nil when absent.
func (s *SQLite) GetDataset(ctx context.Context, year int, kind DatasetKind) (*DatasetRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, year, kind, path, COALESCE(checksum, ''), fetched_at
		FROM datasets WHERE year = ? AND kind = ?`,
		year, string(kind),
	)

	var rec DatasetRecord
	var kindStr string
	if err := row.Scan(&rec.ID, &rec.Year, &kindStr, &rec.Path, &rec.Checksum, &rec.FetchedAt); err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get dataset")
	}
	rec.Kind = DatasetKind(kindStr)
	return &rec, nil
}

// RecordLoad upserts the load-status record for a completed load.
func (s *SQLite) RecordLoad(ctx context.Context, year int, kind DatasetKind, rowCount int, duration time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO load_status (year, kind, row_count, loaded_at, duration_ms)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (year, kind) DO UPDATE SET
			row_count = excluded.row_count,
			loaded_at = excluded.loaded_at,
			duration_ms = excluded.duration_ms`,
		year, string(kind), rowCount, time.Now().UTC(), duration.Milliseconds(),
	)
	return eris.Wrap(err, "sqlite: record load")
}

// Status returns all load-status rows ordered by year and kind.
func (s *SQLite) Status(ctx context.Context) ([]LoadStatusRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, kind, row_count, loaded_at, duration_ms
		FROM load_status ORDER BY year, kind`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query load status")
	}
	defer rows.Close() //nolint:errcheck

	var status []LoadStatusRow
	for rows.Next() {
		var sr LoadStatusRow
		var kindStr string
		if err := rows.Scan(&sr.Year, &kindStr, &sr.RowCount, &sr.LoadedAt, &sr.DurationMs); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan load status row")
		}
		sr.Kind = DatasetKind(kindStr)
		status = append(status, sr)
	}
	return status, eris.Wrap(rows.Err(), "sqlite: iterate load status rows")
}
