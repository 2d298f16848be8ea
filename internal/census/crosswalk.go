package census

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sigmafelix/censuskr/internal/model"
	"github.com/sigmafelix/censuskr/internal/store"
)

// CreateCrosswalk builds an area-weighted correspondence between the
// district boundaries of two census years. Both years' boundaries are
// loaded into the spatial store and intersected there; the weight of each
// pair is the intersection area over the source district area.
//
// Intersecting two full boundary layers is expensive; expect this to take
// a while on real vintages.
func (a *Accessor) CreateCrosswalk(ctx context.Context, pg *store.Postgres, year1, year2 int) ([]model.CrosswalkRow, error) {
	if year1 == 0 && year2 == 0 {
		return nil, eris.New("census: at least one of year1 or year2 must be provided")
	}
	if year1 == 0 || year2 == 0 {
		return nil, eris.New("census: both year1 and year2 are required for a crosswalk")
	}
	if pg == nil {
		return nil, eris.New("census: a spatial store is required for crosswalks")
	}
	if err := model.ValidateYear(year1); err != nil {
		return nil, err
	}
	if err := model.ValidateYear(year2); err != nil {
		return nil, err
	}

	zap.L().Warn("building crosswalk; full boundary intersection is a heavy operation",
		zap.String("component", "census.crosswalk"),
		zap.Int("from_year", year1),
		zap.Int("to_year", year2),
	)

	var fromDistricts, toDistricts []model.District
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fromDistricts, err = a.LoadDistricts(gctx, year1)
		return err
	})
	g.Go(func() error {
		var err error
		toDistricts, err = a.LoadDistricts(gctx, year2)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if _, err := pg.LoadDistricts(ctx, year1, fromDistricts); err != nil {
		return nil, err
	}
	if _, err := pg.LoadDistricts(ctx, year2, toDistricts); err != nil {
		return nil, err
	}

	rows, err := pg.Crosswalk(ctx, year1, year2)
	if err != nil {
		return nil, err
	}

	zap.L().Info("crosswalk built",
		zap.String("component", "census.crosswalk"),
		zap.Int("from_year", year1),
		zap.Int("to_year", year2),
		zap.Int("pairs", len(rows)),
	)
	return rows, nil
}
