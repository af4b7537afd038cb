package csi

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/breath.report/internal/units"
)

// constantTimeseries builds a matrix with the given columns and rows of 1.0.
func constantTimeseries(columns []int, rows int) *Timeseries {
	ts := &Timeseries{Columns: columns}
	for i := 0; i < rows; i++ {
		row := make([]float64, len(columns))
		for j := range row {
			row[j] = 1.0
		}
		ts.Rows = append(ts.Rows, row)
	}
	return ts
}

func TestLookupProfile(t *testing.T) {
	for _, width := range units.ValidWidths {
		_, ok := LookupProfile(width)
		assert.True(t, ok, "width %s should have a profile", width)
	}
	_, ok := LookupProfile("40MHz")
	assert.False(t, ok)
}

func TestFilterSubcarriersUnknownWidth(t *testing.T) {
	_, err := FilterSubcarriers(constantTimeseries([]int{1, 2}, 3), "160MHz")
	var widthErr *UnsupportedChannelWidthError
	require.True(t, errors.As(err, &widthErr))
	assert.Equal(t, "160MHz", widthErr.Width)
}

func TestFilterSubcarriers20MHz(t *testing.T) {
	// -30 and 28 sit in guard bands, -21 and 7 are pilots; the rest stay.
	ts := constantTimeseries([]int{-30, -21, -5, 7, 10, 28}, 4)

	got, err := FilterSubcarriers(ts, units.Width20MHz)
	require.NoError(t, err)
	assert.Equal(t, []int{-5, 10}, got.Columns)
	require.Len(t, got.Rows, 4)
	for _, row := range got.Rows {
		assert.Len(t, row, 2)
	}
}

func TestFilterSubcarriersNeverIncreasesColumns(t *testing.T) {
	full := make([]int, 0, 128)
	for i := -64; i <= 64; i++ {
		if i != 0 {
			full = append(full, i)
		}
	}
	ts := constantTimeseries(full, 2)

	for _, width := range units.ValidWidths {
		got, err := FilterSubcarriers(ts, width)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got.Columns), len(ts.Columns), "width %s", width)
	}
}

func TestFilterSubcarriersIdempotent(t *testing.T) {
	full := make([]int, 0, 128)
	for i := -64; i <= 64; i++ {
		if i != 0 {
			full = append(full, i)
		}
	}
	ts := constantTimeseries(full, 3)

	for _, width := range units.ValidWidths {
		once, err := FilterSubcarriers(ts, width)
		require.NoError(t, err)
		twice, err := FilterSubcarriers(once, width)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(once, twice), "filtering should be idempotent for %s", width)
	}
}

func TestFilterSubcarriersSkipsAbsentColumns(t *testing.T) {
	// None of the guard/pilot columns are present; nothing to drop.
	ts := constantTimeseries([]int{-5, 4, 10}, 2)

	got, err := FilterSubcarriers(ts, units.Width20MHz)
	require.NoError(t, err)
	assert.Equal(t, []int{-5, 4, 10}, got.Columns)
}

func TestFilterSubcarriersAscendingOrderPreserved(t *testing.T) {
	ts := constantTimeseries([]int{-40, -25, -3, 5, 25, 40}, 2)

	got, err := FilterSubcarriers(ts, units.Width20MHz)
	require.NoError(t, err)
	for i := 1; i < len(got.Columns); i++ {
		assert.Less(t, got.Columns[i-1], got.Columns[i])
	}
}

func TestFilterToZeroColumnsThenTransformFails(t *testing.T) {
	// A capture whose only populated subcarriers are guard-band or pilot
	// columns filters down to nothing; the transform must refuse it.
	ts := constantTimeseries([]int{-30, -21, 7, 28}, 10)

	got, err := FilterSubcarriers(ts, units.Width20MHz)
	require.NoError(t, err)
	assert.Empty(t, got.Columns)

	_, err = Transform(got)
	var emptyErr *EmptyInputError
	assert.True(t, errors.As(err, &emptyErr))
}
