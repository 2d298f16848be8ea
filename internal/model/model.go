// Package model defines the domain types shared across the census pipeline:
// administrative districts, census records, and the closed sets of
// statistical categories and reduction functions.
package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// SRID is the spatial reference of KOSTAT boundary distributions
// (EPSG:5179, Korea 2000 / Unified CS).
const SRID = 5179

// District is one administrative-district boundary row. Code is the
// canonical string form of the administrative code (e.g., "11010100").
type District struct {
	Code     string             `json:"code"`
	Name     string             `json:"name"`
	Year     int                `json:"year"`
	Geometry *geom.MultiPolygon `json:"-"`
}

// CensusRecord is one statistical row keyed by administrative code and
// category. Records are read-only once loaded for a given year.
type CensusRecord struct {
	Code     string   `json:"code"`
	Category Category `json:"category"`
	Name     string   `json:"name,omitempty"`
	Value    float64  `json:"value"`
}

// StatRow is a reduced statistic keyed by a derived administrative code.
type StatRow struct {
	Code     string   `json:"code"`
	Category Category `json:"category"`
	Reducer  Reducer  `json:"reducer"`
	Value    float64  `json:"value"`
	Rows     int      `json:"rows"`
}

// JoinedDistrict carries both geometry and a statistical measure for one
// administrative unit, ready for choropleth rendering.
type JoinedDistrict struct {
	Code     string             `json:"code"`
	Name     string             `json:"name"`
	Year     int                `json:"year"`
	Category Category           `json:"category"`
	Value    float64            `json:"value"`
	Geometry *geom.MultiPolygon `json:"-"`
}

// CrosswalkRow links a district code in one census year to an overlapping
// district code in another, with the intersection area and the share of
// the source district it covers.
type CrosswalkRow struct {
	FromCode string  `json:"from_code"`
	ToCode   string  `json:"to_code"`
	FromYear int     `json:"from_year"`
	ToYear   int     `json:"to_year"`
	Area     float64 `json:"area"`
	Weight   float64 `json:"weight"`
}

// ErrYearNotAvailable is returned when a requested census year has no
// published dataset.
var ErrYearNotAvailable = eris.New("census data not available for year")

// ErrInvalidValue marks caller-supplied values rejected by closed-set or
// format validation, as opposed to dataset or I/O failures.
var ErrInvalidValue = eris.New("invalid value")

// censusYears is the closed set of years with published datasets.
// The Korean population census runs on a five-year cadence.
var censusYears = []int{2000, 2005, 2010, 2015, 2020}

// Years returns the census years with available data, ascending.
func Years() []int {
	out := make([]int, len(censusYears))
	copy(out, censusYears)
	return out
}

// ValidateYear checks a year against the closed registry of census years.
func ValidateYear(year int) error {
	idx := sort.SearchInts(censusYears, year)
	if idx < len(censusYears) && censusYears[idx] == year {
		return nil
	}
	return eris.Wrapf(ErrYearNotAvailable, "year %d (available: %s)", year, joinInts(censusYears))
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%d", x)
	}
	return strings.Join(parts, ", ")
}
