package census

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sigmafelix/censuskr/internal/boundary"
	"github.com/sigmafelix/censuskr/internal/model"
)

// StatsRequest selects a year and category and names the reducer that
// collapses district rows onto derived codes. Year, Category, and Reducer
// are required; PrefixLen and Suffix fall back to the upper-level
// administrative rule (4, "0") when zero.
type StatsRequest struct {
	Year      int
	Category  string
	Reducer   string
	PrefixLen int
	Suffix    string
}

const (
	defaultPrefixLen = 4
	defaultSuffix    = "0"
)

// Stats loads the year's statistics, filters to one category, and reduces
// values grouped by derived administrative code. Results are sorted by code.
func (a *Accessor) Stats(ctx context.Context, req StatsRequest) ([]model.StatRow, error) {
	category, err := model.ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}
	reducer, err := model.ParseReducer(req.Reducer)
	if err != nil {
		return nil, err
	}
	if req.PrefixLen == 0 {
		req.PrefixLen = defaultPrefixLen
	}
	if req.Suffix == "" {
		req.Suffix = defaultSuffix
	}

	records, err := a.LoadData(ctx, req.Year)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]float64)
	matched := 0
	for _, rec := range records {
		if rec.Category != category {
			continue
		}
		matched++
		derived, err := boundary.DeriveCode(rec.Code, req.PrefixLen, req.Suffix)
		if err != nil {
			return nil, eris.Wrapf(err, "census: statistics row for code %q", rec.Code)
		}
		groups[derived] = append(groups[derived], rec.Value)
	}
	if matched == 0 {
		return nil, eris.Errorf("census: no %s rows in the %d statistics", category, req.Year)
	}

	rows := make([]model.StatRow, 0, len(groups))
	for code, values := range groups {
		rows = append(rows, model.StatRow{
			Code:     code,
			Category: category,
			Reducer:  reducer,
			Value:    reducer.Apply(values),
			Rows:     len(values),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })

	zap.L().Debug("statistics reduced",
		zap.String("component", "census.stats"),
		zap.Int("year", req.Year),
		zap.String("category", string(category)),
		zap.String("reducer", string(reducer)),
		zap.Int("groups", len(rows)),
	)
	return rows, nil
}
