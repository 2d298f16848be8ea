package census

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sigmafelix/censuskr/internal/boundary"
	"github.com/sigmafelix/censuskr/internal/model"
)

// Join matches statistics onto district boundaries by administrative code.
// The join is INNER: a district without a matching stat row, or a stat row
// without a matching district, is dropped rather than emitted with null
// fields. Districts with duplicate codes are rejected because the match
// would be ambiguous. Output is sorted by code.
func Join(districts []model.District, stats []model.StatRow) ([]model.JoinedDistrict, error) {
	byCode := make(map[string]model.District, len(districts))
	for _, d := range districts {
		if _, dup := byCode[d.Code]; dup {
			return nil, eris.Errorf("census: duplicate district code %q in join input", d.Code)
		}
		byCode[d.Code] = d
	}

	joined := make([]model.JoinedDistrict, 0, len(stats))
	for _, s := range stats {
		d, ok := byCode[s.Code]
		if !ok {
			continue
		}
		joined = append(joined, model.JoinedDistrict{
			Code:     d.Code,
			Name:     d.Name,
			Year:     d.Year,
			Category: s.Category,
			Value:    s.Value,
			Geometry: d.Geometry,
		})
	}
	sort.Slice(joined, func(i, j int) bool { return joined[i].Code < joined[j].Code })
	return joined, nil
}

// ChoroplethData produces render-ready rows for one year and category:
// dissolved upper-level boundaries joined with reduced statistics. The
// boundary and statistics loads run concurrently.
func (a *Accessor) ChoroplethData(ctx context.Context, req StatsRequest) ([]model.JoinedDistrict, error) {
	if req.PrefixLen == 0 {
		req.PrefixLen = defaultPrefixLen
	}
	if req.Suffix == "" {
		req.Suffix = defaultSuffix
	}

	var (
		districts []model.District
		stats     []model.StatRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := a.LoadDistricts(gctx, req.Year)
		if err != nil {
			return err
		}
		districts, err = boundary.Dissolve(raw, req.PrefixLen, req.Suffix)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = a.Stats(gctx, req)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Join(districts, stats)
}
