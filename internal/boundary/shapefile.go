// Package boundary parses administrative-district boundary shapefiles and
// dissolves fine-grained districts into coarser units by code prefix.
package boundary

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sigmafelix/censuskr/internal/fetcher"
	"github.com/sigmafelix/censuskr/internal/model"
)

// Attribute field names carrying the administrative code and district name,
// in lookup order. KOSTAT layers name these adm2_cd/adm2_nm; older releases
// use adm_cd/adm_nm.
var (
	codeFields = []string{"adm2_cd", "adm_cd", "code"}
	nameFields = []string{"adm2_nm", "adm_nm", "name"}
)

// ParseShapefile reads a boundary shapefile into District rows. Polygon
// records become MultiPolygons with SRID 5179; records with missing or
// unsupported geometry are skipped and counted.
func ParseShapefile(shpPath string, year int) ([]model.District, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map.
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	codeIdx, ok := firstField(fieldIdx, codeFields)
	if !ok {
		return nil, eris.Errorf("boundary: no administrative code field in %s (looked for %s)",
			shpPath, strings.Join(codeFields, ", "))
	}
	nameIdx, hasName := firstField(fieldIdx, nameFields)

	var districts []model.District
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		code := strings.TrimSpace(strings.TrimRight(reader.Attribute(codeIdx), "\x00"))
		if code == "" {
			skipped++
			continue
		}

		var name string
		if hasName {
			raw := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
			decoded, derr := fetcher.DecodeKorean(raw)
			if derr != nil {
				skipped++
				continue
			}
			name = decoded
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		districts = append(districts, model.District{
			Code:     code,
			Name:     name,
			Year:     year,
			Geometry: mp,
		})
	}

	if skipped > 0 {
		zap.L().Debug("boundary: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return districts, nil
}

func firstField(fieldIdx map[string]int, candidates []string) (int, bool) {
	for _, c := range candidates {
		if idx, ok := fieldIdx[c]; ok {
			return idx, true
		}
	}
	return 0, false
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(model.SRID)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("boundary: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}

		if err := mp.Push(poly); err != nil {
			zap.L().Debug("boundary: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
