// Package census implements the pipeline: load year-versioned statistics
// and boundaries, reduce statistics onto derived codes, and join geometry
// with measures.
package census

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sigmafelix/censuskr/internal/boundary"
	"github.com/sigmafelix/censuskr/internal/fetcher"
	"github.com/sigmafelix/censuskr/internal/model"
	"github.com/sigmafelix/censuskr/internal/store"
)

// Options configures an Accessor.
type Options struct {
	DataDir string               // dataset root (default "data")
	BaseURL string               // remote dataset root; empty disables downloads
	Fetcher *fetcher.HTTPFetcher // required when BaseURL is set
	Cache   *store.SQLite        // optional acquisition bookkeeping
}

// Accessor loads census datasets by year. Loaded tables are read-only;
// the Accessor never mutates source files.
type Accessor struct {
	dataDir string
	baseURL string
	fetch   *fetcher.HTTPFetcher
	cache   *store.SQLite
}

// New creates a census-data accessor.
func New(opts Options) *Accessor {
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	return &Accessor{
		dataDir: opts.DataDir,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		fetch:   opts.Fetcher,
		cache:   opts.Cache,
	}
}

// LoadData loads the statistics table for a census year. The year must be
// in the published registry. CSV is the primary format; an .xlsx sibling is
// accepted for years distributed as spreadsheets.
func (a *Accessor) LoadData(ctx context.Context, year int) ([]model.CensusRecord, error) {
	if err := model.ValidateYear(year); err != nil {
		return nil, err
	}

	start := time.Now()

	csvPath := filepath.Join(a.dataDir, fmt.Sprintf("census_%d.csv", year))
	xlsxPath := filepath.Join(a.dataDir, fmt.Sprintf("census_%d.xlsx", year))

	path, err := a.ensureDataset(ctx, year, store.KindStats, []string{csvPath, xlsxPath})
	if err != nil {
		return nil, err
	}

	var records []model.CensusRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = parseStatsCSV(path)
	case ".xlsx":
		records, err = parseStatsXLSX(path)
	default:
		err = eris.Errorf("census: unsupported statistics format %s", path)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, eris.Errorf("census: statistics dataset for %d is empty", year)
	}

	a.recordLoad(ctx, year, store.KindStats, len(records), time.Since(start))

	zap.L().Debug("statistics loaded",
		zap.String("component", "census.loader"),
		zap.Int("year", year),
		zap.Int("rows", len(records)),
	)
	return records, nil
}

// LoadDistricts loads the boundary table for a census year from the
// adm2_<year> shapefile layer.
func (a *Accessor) LoadDistricts(ctx context.Context, year int) ([]model.District, error) {
	if err := model.ValidateYear(year); err != nil {
		return nil, err
	}

	start := time.Now()

	shpPath := filepath.Join(a.dataDir, "boundaries", fmt.Sprintf("adm2_%d.shp", year))
	path, err := a.ensureDataset(ctx, year, store.KindBoundaries, []string{shpPath})
	if err != nil {
		return nil, err
	}

	districts, err := boundary.ParseShapefile(path, year)
	if err != nil {
		return nil, err
	}
	if len(districts) == 0 {
		return nil, eris.Errorf("census: boundary dataset for %d is empty", year)
	}

	a.recordLoad(ctx, year, store.KindBoundaries, len(districts), time.Since(start))

	zap.L().Debug("boundaries loaded",
		zap.String("component", "census.loader"),
		zap.Int("year", year),
		zap.Int("districts", len(districts)),
	)
	return districts, nil
}

// ensureDataset returns the first existing candidate path, downloading and
// extracting the year archive when nothing is present locally and a remote
// is configured.
func (a *Accessor) ensureDataset(ctx context.Context, year int, kind store.DatasetKind, candidates []string) (string, error) {
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Size() > 0 {
			return c, nil
		}
	}

	if a.fetch == nil || a.baseURL == "" {
		return "", eris.Wrapf(model.ErrYearNotAvailable,
			"no local %s dataset for %d under %s and no remote configured", kind, year, a.dataDir)
	}

	archive := fmt.Sprintf("%s_%d.zip", kind, year)
	url := fmt.Sprintf("%s/%s", a.baseURL, archive)
	zipPath := filepath.Join(a.dataDir, "downloads", archive)

	if err := a.fetch.DownloadFile(ctx, url, zipPath); err != nil {
		return "", eris.Wrapf(err, "census: fetch %s dataset for %d", kind, year)
	}

	destDir := filepath.Dir(candidates[0])
	if _, err := fetcher.ExtractZIP(zipPath, destDir); err != nil {
		return "", eris.Wrapf(err, "census: extract %s dataset for %d", kind, year)
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Size() > 0 {
			if a.cache != nil {
				if _, err := a.cache.RecordDataset(ctx, store.DatasetRecord{
					Year: year,
					Kind: kind,
					Path: c,
				}); err != nil {
					zap.L().Warn("failed to record dataset in cache", zap.Error(err))
				}
			}
			return c, nil
		}
	}

	return "", eris.Wrapf(model.ErrYearNotAvailable,
		"archive %s did not contain the expected %s dataset for %d", archive, kind, year)
}

func (a *Accessor) recordLoad(ctx context.Context, year int, kind store.DatasetKind, rows int, d time.Duration) {
	if a.cache == nil {
		return
	}
	if err := a.cache.RecordLoad(ctx, year, kind, rows, d); err != nil {
		zap.L().Warn("failed to record load status", zap.Error(err))
	}
}

// statsColumns maps header names to record fields. The code column accepts
// the same aliases as the boundary layer.
var (
	statCodeFields     = []string{"adm_cd", "adm2_cd", "code"}
	statCategoryFields = []string{"category", "type"}
	statNameFields     = []string{"adm_nm", "adm2_nm", "name"}
	statValueFields    = []string{"value", "amount"}
)

func parseStatsCSV(path string) ([]model.CensusRecord, error) {
	header, rows, err := fetcher.ReadCSVFile(path, fetcher.CSVOptions{HasHeader: true, TrimSpace: true})
	if err != nil {
		return nil, err
	}
	return rowsToRecords(path, header, rows)
}

func parseStatsXLSX(path string) ([]model.CensusRecord, error) {
	all, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, eris.Errorf("census: %s has no rows", path)
	}
	return rowsToRecords(path, all[0], all[1:])
}

func rowsToRecords(path string, header []string, rows [][]string) ([]model.CensusRecord, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	codeIdx, ok := firstColumn(idx, statCodeFields)
	if !ok {
		return nil, eris.Errorf("census: %s has no administrative code column (looked for %s)",
			path, strings.Join(statCodeFields, ", "))
	}
	catIdx, ok := firstColumn(idx, statCategoryFields)
	if !ok {
		return nil, eris.Errorf("census: %s has no category column", path)
	}
	valIdx, ok := firstColumn(idx, statValueFields)
	if !ok {
		return nil, eris.Errorf("census: %s has no value column", path)
	}
	nameIdx, hasName := firstColumn(idx, statNameFields)

	records := make([]model.CensusRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) <= codeIdx || len(row) <= catIdx || len(row) <= valIdx {
			return nil, eris.Errorf("census: %s row %d has too few columns", path, i+2)
		}

		category, err := model.ParseCategory(row[catIdx])
		if err != nil {
			return nil, eris.Wrapf(err, "census: %s row %d", path, i+2)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(row[valIdx]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "census: %s row %d: parse value %q", path, i+2, row[valIdx])
		}

		rec := model.CensusRecord{
			Code:     strings.TrimSpace(row[codeIdx]),
			Category: category,
			Value:    value,
		}
		if hasName && len(row) > nameIdx {
			rec.Name = strings.TrimSpace(row[nameIdx])
		}
		records = append(records, rec)
	}

	return records, nil
}

func firstColumn(idx map[string]int, candidates []string) (int, bool) {
	for _, c := range candidates {
		if i, ok := idx[c]; ok {
			return i, true
		}
	}
	return 0, false
}
