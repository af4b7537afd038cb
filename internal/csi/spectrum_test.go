package csi

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformFrequencyAxis(t *testing.T) {
	ts := constantTimeseries([]int{4}, 8)

	got, err := Transform(ts)
	require.NoError(t, err)

	// T=8 keeps bins k=1..3; the even-length Nyquist bin is excluded.
	assert.Equal(t, []float64{1.0 / 8, 2.0 / 8, 3.0 / 8}, got.Frequencies)
	assert.Equal(t, []int{4}, got.Columns)
	assert.Len(t, got.Magnitudes[4], 3)
}

func TestTransformPureTone(t *testing.T) {
	// A cosine at bin 2 of a 16-sample series concentrates all its energy
	// in that bin with magnitude T/2.
	const n = 16
	ts := &Timeseries{Columns: []int{7}}
	for i := 0; i < n; i++ {
		ts.Rows = append(ts.Rows, []float64{math.Cos(2 * math.Pi * 2 * float64(i) / n)})
	}

	got, err := Transform(ts)
	require.NoError(t, err)

	mags := got.Magnitudes[7]
	require.Len(t, mags, (n-1)/2)
	for k, m := range mags {
		if k == 1 { // bin 2 is index 1 on the positive axis
			assert.InDelta(t, n/2, m, 1e-9)
		} else {
			assert.InDelta(t, 0, m, 1e-9)
		}
	}
	assert.InDelta(t, 2.0/16, got.Frequencies[1], 1e-12)
}

func TestTransformSingleFrame(t *testing.T) {
	// One frame has no spectrum; the only column is skipped, so the whole
	// transform reports empty input.
	_, err := Transform(constantTimeseries([]int{1, 2}, 1))
	var emptyErr *EmptyInputError
	assert.True(t, errors.As(err, &emptyErr))
}

func TestTransformNoColumns(t *testing.T) {
	_, err := Transform(&Timeseries{})
	var emptyErr *EmptyInputError
	assert.True(t, errors.As(err, &emptyErr))

	_, err = Transform(nil)
	assert.True(t, errors.As(err, &emptyErr))
}

func TestTransformTwoFramesHasEmptyPositiveAxis(t *testing.T) {
	// T=2 has no strictly positive bin below Nyquist. That is a valid,
	// empty spectrum, not an error.
	got, err := Transform(constantTimeseries([]int{3}, 2))
	require.NoError(t, err)
	assert.Empty(t, got.Frequencies)
	assert.Empty(t, got.Magnitudes[3])
}

func TestTransformSharedAxisAcrossColumns(t *testing.T) {
	ts := constantTimeseries([]int{-8, 1, 12}, 10)

	got, err := Transform(ts)
	require.NoError(t, err)
	for _, col := range got.Columns {
		assert.Len(t, got.Magnitudes[col], len(got.Frequencies), "column %d", col)
	}
}
