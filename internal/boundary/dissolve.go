package boundary

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sigmafelix/censuskr/internal/model"
)

// DeriveCode truncates an administrative code to prefixLen characters and
// appends suffix. Codes shorter than the prefix are rejected rather than
// silently truncated to a malformed key.
func DeriveCode(code string, prefixLen int, suffix string) (string, error) {
	code = strings.TrimSpace(code)
	if prefixLen < 1 {
		return "", eris.Wrapf(model.ErrInvalidValue, "boundary: prefix length %d must be at least 1", prefixLen)
	}
	if !isDigits(suffix) || suffix == "" {
		return "", eris.Wrapf(model.ErrInvalidValue, "boundary: suffix %q must be one or more digits", suffix)
	}
	if !isDigits(code) || code == "" {
		return "", eris.Wrapf(model.ErrInvalidValue, "boundary: administrative code %q is not numeric", code)
	}
	if len(code) < prefixLen {
		return "", eris.Wrapf(model.ErrInvalidValue, "boundary: administrative code %q shorter than prefix length %d", code, prefixLen)
	}
	return code[:prefixLen] + suffix, nil
}

// Dissolve groups districts by code prefix and merges each group's polygons
// into one MultiPolygon keyed by the derived code (prefix + suffix).
// Groups that reconstruct to the same derived code merge instead of
// erroring. Output is sorted by derived code.
func Dissolve(districts []model.District, prefixLen int, suffix string) ([]model.District, error) {
	groups := make(map[string]*model.District)

	for _, d := range districts {
		derived, err := DeriveCode(d.Code, prefixLen, suffix)
		if err != nil {
			return nil, err
		}

		g, ok := groups[derived]
		if !ok {
			g = &model.District{
				Code:     derived,
				Name:     d.Name,
				Year:     d.Year,
				Geometry: geom.NewMultiPolygon(geom.XY).SetSRID(model.SRID),
			}
			groups[derived] = g
		}

		if d.Geometry == nil {
			continue
		}
		for i := 0; i < d.Geometry.NumPolygons(); i++ {
			if err := g.Geometry.Push(d.Geometry.Polygon(i)); err != nil {
				return nil, eris.Wrapf(err, "boundary: merge geometry for code %s", d.Code)
			}
		}
	}

	out := make([]model.District, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	zap.L().Debug("dissolve complete",
		zap.Int("input_rows", len(districts)),
		zap.Int("output_rows", len(out)),
		zap.Int("prefix_len", prefixLen),
	)

	return out, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
