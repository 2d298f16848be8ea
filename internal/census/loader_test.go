package census

import (
	"archive/zip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigmafelix/censuskr/internal/fetcher"
	"github.com/sigmafelix/censuskr/internal/model"
)

const statsCSV = `adm_cd,category,adm_nm,value
11010100,tax,Jongno,100
11010200,tax,Sajik,50
11020100,tax,Sogong,25
11010100,population,Jongno,15000
`

// writeFixtures lays out a data directory with a statistics CSV and a
// boundary shapefile for 2020.
func writeFixtures(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "census_2020.csv"), []byte(statsCSV), 0o644))

	boundaryDir := filepath.Join(dir, "boundaries")
	require.NoError(t, os.MkdirAll(boundaryDir, 0o755))
	writeDistrictShapefile(t, filepath.Join(boundaryDir, "adm2_2020.shp"), []struct{ code, name string }{
		{"11010100", "Jongno"},
		{"11010200", "Sajik"},
		{"11020100", "Sogong"},
	})
	return dir
}

func writeDistrictShapefile(t *testing.T, path string, records []struct{ code, name string }) {
	t.Helper()

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	w.SetFields([]shp.Field{
		shp.StringField("ADM2_CD", 10),
		shp.StringField("ADM2_NM", 40),
	})
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
	w.Close()

	// go-shp writes the DBF sidecar as <base>dbf; the reader opens <base>.dbf.
	base := strings.TrimSuffix(path, ".shp")
	require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
}

func TestLoadData(t *testing.T) {
	t.Parallel()

	a := New(Options{DataDir: writeFixtures(t)})
	records, err := a.LoadData(context.Background(), 2020)
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, "11010100", records[0].Code)
	assert.Equal(t, model.CategoryTax, records[0].Category)
	assert.Equal(t, "Jongno", records[0].Name)
	assert.Equal(t, 100.0, records[0].Value)
	assert.Equal(t, model.CategoryPopulation, records[3].Category)
}

func TestLoadData_InvalidYear(t *testing.T) {
	t.Parallel()

	a := New(Options{DataDir: t.TempDir()})
	_, err := a.LoadData(context.Background(), 1999)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrYearNotAvailable))
	assert.Contains(t, err.Error(), "1999")
}

func TestLoadData_MissingDataset(t *testing.T) {
	t.Parallel()

	a := New(Options{DataDir: t.TempDir()})
	_, err := a.LoadData(context.Background(), 2015)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrYearNotAvailable))
	assert.Contains(t, err.Error(), "no remote configured")
}

func TestLoadData_BadCategory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csv := "adm_cd,category,value\n11010100,bogus,1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "census_2020.csv"), []byte(csv), 0o644))

	a := New(Options{DataDir: dir})
	_, err := a.LoadData(context.Background(), 2020)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown category "bogus"`)
}

func TestLoadData_NoCodeColumn(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csv := "category,value\ntax,1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "census_2020.csv"), []byte(csv), 0o644))

	a := New(Options{DataDir: dir})
	_, err := a.LoadData(context.Background(), 2020)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no administrative code column")
}

func TestLoadData_RemoteFetch(t *testing.T) {
	t.Parallel()

	archive := zipWith(t, "census_2015.csv", []byte("adm_cd,category,value\n11010100,tax,7\n"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats_2015.zip" {
			http.NotFound(w, r)
			return
		}
		w.Write(archive)
	}))
	defer srv.Close()

	a := New(Options{
		DataDir: t.TempDir(),
		BaseURL: srv.URL,
		Fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second}),
	})

	records, err := a.LoadData(context.Background(), 2015)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 7.0, records[0].Value)
}

func TestLoadDistricts(t *testing.T) {
	t.Parallel()

	a := New(Options{DataDir: writeFixtures(t)})
	districts, err := a.LoadDistricts(context.Background(), 2020)
	require.NoError(t, err)
	require.Len(t, districts, 3)

	assert.Equal(t, "11010100", districts[0].Code)
	assert.Equal(t, 2020, districts[0].Year)
	require.NotNil(t, districts[0].Geometry)
	assert.Equal(t, model.SRID, districts[0].Geometry.SRID())
}

func TestLoadDistricts_InvalidYear(t *testing.T) {
	t.Parallel()

	a := New(Options{DataDir: t.TempDir()})
	_, err := a.LoadDistricts(context.Background(), 2021)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrYearNotAvailable))
}

func zipWith(t *testing.T, name string, content []byte) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
