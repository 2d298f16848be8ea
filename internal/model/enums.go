package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Category names a census statistic table.
type Category string

const (
	CategoryTax        Category = "tax"
	CategoryPopulation Category = "population"
	CategoryHouseholds Category = "households"
	CategoryHousing    Category = "housing"
)

// Categories lists every supported category in declaration order.
var Categories = []Category{
	CategoryTax,
	CategoryPopulation,
	CategoryHouseholds,
	CategoryHousing,
}

// ParseCategory validates a category name against the closed set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", eris.Wrapf(ErrInvalidValue, "model: unknown category %q (valid: %s)", s, joinCategories())
}

func joinCategories() string {
	parts := make([]string, len(Categories))
	for i, c := range Categories {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

// Reducer names a reduction applied when multiple source rows collapse
// onto one output code.
type Reducer string

const (
	ReducerSum   Reducer = "sum"
	ReducerMean  Reducer = "mean"
	ReducerMin   Reducer = "min"
	ReducerMax   Reducer = "max"
	ReducerCount Reducer = "count"
)

// Reducers lists every supported reducer in declaration order.
var Reducers = []Reducer{
	ReducerSum,
	ReducerMean,
	ReducerMin,
	ReducerMax,
	ReducerCount,
}

// ParseReducer validates a reducer name against the closed set.
func ParseReducer(s string) (Reducer, error) {
	r := Reducer(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Reducers {
		if r == known {
			return r, nil
		}
	}
	return "", eris.Wrapf(ErrInvalidValue, "model: unknown reducer %q (valid: %s)", s, joinReducers())
}

func joinReducers() string {
	parts := make([]string, len(Reducers))
	for i, r := range Reducers {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// Apply reduces values to a single figure. An empty slice reduces to 0.
func (r Reducer) Apply(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	switch r {
	case ReducerSum:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum
	case ReducerMean:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	case ReducerMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min
	case ReducerMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	case ReducerCount:
		return float64(len(values))
	default:
		return 0
	}
}
