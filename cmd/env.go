package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sigmafelix/censuskr/internal/census"
	"github.com/sigmafelix/censuskr/internal/fetcher"
	"github.com/sigmafelix/censuskr/internal/store"
)

// env bundles the components a command needs: the dataset accessor, the
// local cache, and optionally the PostGIS sink.
type env struct {
	accessor *census.Accessor
	cache    *store.SQLite
	pg       *store.Postgres
	pool     *pgxpool.Pool
}

// initEnv wires the accessor and cache from config. When withDB is set a
// PostGIS pool is opened and migrated; commands that can run without a
// database pass false.
func initEnv(ctx context.Context, withDB bool) (*env, error) {
	cache, err := store.NewSQLite(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}
	if err := cache.Migrate(ctx); err != nil {
		_ = cache.Close()
		return nil, err
	}

	e := &env{
		cache: cache,
		accessor: census.New(census.Options{
			DataDir: cfg.Data.Dir,
			BaseURL: cfg.Fetch.BaseURL,
			Cache:   cache,
			Fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
				UserAgent:  cfg.Fetch.UserAgent,
				Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
				MaxRetries: cfg.Fetch.MaxRetries,
				RatePerSec: cfg.Fetch.RatePerSec,
			}),
		}),
	}

	if withDB {
		if cfg.Store.DatabaseURL == "" {
			_ = cache.Close()
			return nil, eris.New("store.database_url is required for this command")
		}
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			_ = cache.Close()
			return nil, eris.Wrap(err, "connect to database")
		}
		e.pool = pool
		e.pg = store.NewPostgres(pool)
		if err := e.pg.Migrate(ctx); err != nil {
			e.Close()
			return nil, err
		}
	}

	return e, nil
}

func (e *env) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			zap.L().Warn("failed to close cache", zap.Error(err))
		}
	}
}
