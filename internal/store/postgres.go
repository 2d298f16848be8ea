package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sigmafelix/censuskr/internal/boundary"
	"github.com/sigmafelix/censuskr/internal/db"
	"github.com/sigmafelix/censuskr/internal/model"
)

// Postgres is the PostGIS sink for boundaries and statistics.
type Postgres struct {
	pool db.Pool
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var postgresMigrations = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE SCHEMA IF NOT EXISTS censuskr`,
	`CREATE TABLE IF NOT EXISTS censuskr.districts (
		code TEXT NOT NULL,
		name TEXT,
		year INTEGER NOT NULL,
		geom geometry(MultiPolygon, 5179),
		PRIMARY KEY (code, year)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_districts_geom ON censuskr.districts USING GIST (geom)`,
	`CREATE TABLE IF NOT EXISTS censuskr.stats (
		code TEXT NOT NULL,
		category TEXT NOT NULL,
		year INTEGER NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (code, category, year)
	)`,
}

// Migrate creates the censuskr schema and tables.
func (p *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range postgresMigrations {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrapf(err, "postgres: migrate: %.40s", stmt)
		}
	}
	return nil
}

// LoadDistricts replaces one year's boundary rows and bulk-loads the given
// districts with EWKB geometries via COPY.
func (p *Postgres) LoadDistricts(ctx context.Context, year int, districts []model.District) (int64, error) {
	start := time.Now()

	if _, err := p.pool.Exec(ctx, `DELETE FROM censuskr.districts WHERE year = $1`, year); err != nil {
		return 0, eris.Wrapf(err, "postgres: clear districts for %d", year)
	}

	rows := make([][]any, 0, len(districts))
	for _, d := range districts {
		wkb, err := boundary.EncodeEWKB(d.Geometry)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: encode geometry for %s", d.Code)
		}
		rows = append(rows, []any{d.Code, d.Name, d.Year, wkb})
	}

	n, err := db.CopyInto(ctx, p.pool, "censuskr.districts", []string{"code", "name", "year", "geom"}, rows, 0)
	if err != nil {
		return n, err
	}

	zap.L().Info("districts loaded",
		zap.String("component", "store.postgres"),
		zap.Int("year", year),
		zap.Int64("rows", n),
		zap.Duration("duration", time.Since(start)),
	)
	return n, nil
}

// LoadStats upserts one year's statistic rows.
func (p *Postgres) LoadStats(ctx context.Context, year int, records []model.CensusRecord) (int64, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{r.Code, string(r.Category), year, r.Value})
	}

	return db.BulkUpsert(ctx, p.pool, db.UpsertConfig{
		Table:        "censuskr.stats",
		Columns:      []string{"code", "category", "year", "value"},
		ConflictKeys: []string{"code", "category", "year"},
	}, rows)
}

// DissolvedDistricts dissolves one year's districts in the database via
// ST_Union, grouped by code prefix, returning derived codes and merged
// geometries. This is the boundary-simplifying variant of the in-memory
// dissolve.
func (p *Postgres) DissolvedDistricts(ctx context.Context, year, prefixLen int, suffix string) ([]model.District, error) {
	if _, err := boundary.DeriveCode("00000000", prefixLen, suffix); err != nil {
		return nil, err
	}

	sql := `
		SELECT left(code, $2) || $3 AS derived, ST_AsEWKB(ST_Multi(ST_Union(geom)))
		FROM censuskr.districts
		WHERE year = $1 AND length(code) >= $2
		GROUP BY left(code, $2)
		ORDER BY derived
	`
	rows, err := p.pool.Query(ctx, sql, year, prefixLen, suffix)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query dissolved districts")
	}
	defer rows.Close()

	var out []model.District
	for rows.Next() {
		var code string
		var wkb []byte
		if err := rows.Scan(&code, &wkb); err != nil {
			return nil, eris.Wrap(err, "postgres: scan dissolved district row")
		}
		g, err := boundary.DecodeEWKB(wkb)
		if err != nil {
			return nil, err
		}
		mp, ok := g.(*geom.MultiPolygon)
		if !ok {
			return nil, eris.Errorf("postgres: dissolved geometry for %s is %T, not MultiPolygon", code, g)
		}
		out = append(out, model.District{Code: code, Year: year, Geometry: mp})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate dissolved district rows")
	}
	return out, nil
}

// Crosswalk intersects two loaded years and returns overlap rows. Weight is
// the share of the source district's area covered by the intersection.
func (p *Postgres) Crosswalk(ctx context.Context, fromYear, toYear int) ([]model.CrosswalkRow, error) {
	sql := `
		SELECT
			a.code,
			b.code,
			ST_Area(ST_Intersection(a.geom, b.geom)) AS area,
			ST_Area(ST_Intersection(a.geom, b.geom)) / NULLIF(ST_Area(a.geom), 0) AS weight
		FROM censuskr.districts a
		JOIN censuskr.districts b
			ON b.year = $2 AND ST_Intersects(a.geom, b.geom)
		WHERE a.year = $1
			AND ST_Area(ST_Intersection(a.geom, b.geom)) > 0
		ORDER BY a.code, b.code
	`
	rows, err := p.pool.Query(ctx, sql, fromYear, toYear)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query crosswalk")
	}
	defer rows.Close()

	var out []model.CrosswalkRow
	for rows.Next() {
		cw := model.CrosswalkRow{FromYear: fromYear, ToYear: toYear}
		if err := rows.Scan(&cw.FromCode, &cw.ToCode, &cw.Area, &cw.Weight); err != nil {
			return nil, eris.Wrap(err, "postgres: scan crosswalk row")
		}
		out = append(out, cw)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate crosswalk rows")
	}
	return out, nil
}
