package model

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Category
	}{
		{"tax", CategoryTax},
		{"Population", CategoryPopulation},
		{"  households ", CategoryHouseholds},
		{"HOUSING", CategoryHousing},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCategory(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCategory_Unknown(t *testing.T) {
	t.Parallel()

	_, err := ParseCategory("bogus")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidValue))
	assert.Contains(t, err.Error(), `"bogus"`)
	assert.Contains(t, err.Error(), "tax, population, households, housing")
}

func TestParseReducer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Reducer
	}{
		{"sum", ReducerSum},
		{"Mean", ReducerMean},
		{"min", ReducerMin},
		{"max", ReducerMax},
		{"count", ReducerCount},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseReducer(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseReducer_Unknown(t *testing.T) {
	t.Parallel()

	_, err := ParseReducer("median2")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidValue))
	assert.Contains(t, err.Error(), `"median2"`)
	assert.Contains(t, err.Error(), "sum, mean, min, max, count")
}

func TestReducerApply(t *testing.T) {
	t.Parallel()

	values := []float64{4, 1, 7, 2}

	tests := []struct {
		reducer Reducer
		want    float64
	}{
		{ReducerSum, 14},
		{ReducerMean, 3.5},
		{ReducerMin, 1},
		{ReducerMax, 7},
		{ReducerCount, 4},
	}

	for _, tt := range tests {
		t.Run(string(tt.reducer), func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, tt.reducer.Apply(values), 1e-9)
		})
	}
}

func TestReducerApply_Empty(t *testing.T) {
	t.Parallel()

	for _, r := range Reducers {
		assert.Zero(t, r.Apply(nil), string(r))
	}
}
