package boundary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigmafelix/censuskr/internal/model"
)

// finishShapefile closes the writer and renames the DBF sidecar: go-shp's
// writer emits it as <base>dbf while the reader opens <base>.dbf.
func finishShapefile(t *testing.T, w *shp.Writer, path string) {
	t.Helper()

	w.Close()
	base := strings.TrimSuffix(path, ".shp")
	require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
}

// writeBoundaryShapefile writes a minimal adm2-style shapefile with the
// given code/name attributes, one unit square per record.
func writeBoundaryShapefile(t *testing.T, dir string, records []struct{ code, name string }) string {
	t.Helper()

	path := filepath.Join(dir, "adm2_2020.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	fields := []shp.Field{
		shp.StringField("ADM2_CD", 10),
		shp.StringField("ADM2_NM", 40),
	}
	w.SetFields(fields)

	for n, rec := range records {
		x := float64(n) * 2
		poly := &shp.Polygon{
			Box:       shp.Box{MinX: x, MinY: 0, MaxX: x + 1, MaxY: 1},
			NumParts:  1,
			NumPoints: 5,
			Parts:     []int32{0},
			Points: []shp.Point{
				{X: x, Y: 0},
				{X: x, Y: 1},
				{X: x + 1, Y: 1},
				{X: x + 1, Y: 0},
				{X: x, Y: 0},
			},
		}
		w.Write(poly)
		require.NoError(t, w.WriteAttribute(n, 0, rec.code))
		require.NoError(t, w.WriteAttribute(n, 1, rec.name))
	}
	finishShapefile(t, w, path)
	return path
}

func TestParseShapefile(t *testing.T) {
	t.Parallel()

	path := writeBoundaryShapefile(t, t.TempDir(), []struct{ code, name string }{
		{"11010100", "Jongno"},
		{"11010200", "Sajik"},
		{"11020100", "Sogong"},
	})

	districts, err := ParseShapefile(path, 2020)
	require.NoError(t, err)
	require.Len(t, districts, 3)

	assert.Equal(t, "11010100", districts[0].Code)
	assert.Equal(t, "Jongno", districts[0].Name)
	assert.Equal(t, 2020, districts[0].Year)
	require.NotNil(t, districts[0].Geometry)
	assert.Equal(t, model.SRID, districts[0].Geometry.SRID())
	assert.InDelta(t, 1.0, Area(districts[0].Geometry), 1e-9)
}

func TestParseShapefile_SkipsEmptyCode(t *testing.T) {
	t.Parallel()

	path := writeBoundaryShapefile(t, t.TempDir(), []struct{ code, name string }{
		{"11010100", "Jongno"},
		{"", "Nameless"},
	})

	districts, err := ParseShapefile(path, 2020)
	require.NoError(t, err)
	assert.Len(t, districts, 1)
}

func TestParseShapefile_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := ParseShapefile(filepath.Join(t.TempDir(), "missing.shp"), 2020)
	require.Error(t, err)
}

func TestParseShapefile_NoCodeField(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "odd.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	w.SetFields([]shp.Field{shp.StringField("SOMETHING", 10)})
	finishShapefile(t, w, path)

	_, err = ParseShapefile(path, 2020)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no administrative code field")
}
