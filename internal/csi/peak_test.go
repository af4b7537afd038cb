package csi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bandProfile builds a single-column profile over frequencies 0.05..0.50 in
// 0.05 steps with the given magnitudes.
func bandProfile(col int, mags []float64) *SpectralProfile {
	freqs := make([]float64, len(mags))
	for i := range freqs {
		freqs[i] = 0.05 * float64(i+1)
	}
	return &SpectralProfile{
		Frequencies: freqs,
		Columns:     []int{col},
		Magnitudes:  map[int][]float64{col: mags},
	}
}

func TestEstimatePeakEmptySelection(t *testing.T) {
	profile := bandProfile(1, []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0})

	_, err := EstimatePeak(profile, nil, DefaultTuning())
	var preErr *PrecheckError
	assert.True(t, errors.As(err, &preErr))
}

func TestEstimatePeakFindsDominantPeak(t *testing.T) {
	// Band [0.2, 0.33] covers indices 3..5 (0.20, 0.25, 0.30); 0.35 is out.
	// A clear peak at 0.25 must convert to exactly 15 bpm.
	mags := []float64{0, 0, 0, 0.2, 3.0, 0.2, 0, 0, 0, 0}
	profile := bandProfile(4, mags)

	est, err := EstimatePeak(profile, []int{4}, DefaultTuning())
	require.NoError(t, err)
	require.True(t, est.Detected())
	assert.InDelta(t, 0.25, *est.DominantFrequency, 1e-12)
	assert.InDelta(t, 3.0, *est.PeakMagnitude, 1e-12)
	assert.Equal(t, 15.0, *est.BreathingRateBPM)
}

func TestEstimatePeakNoQualifyingPeak(t *testing.T) {
	// Flat inside the band: no local maximum, a successful non-detection.
	mags := []float64{0, 1, 1, 1, 1, 1, 1, 0, 0, 0}
	profile := bandProfile(2, mags)

	est, err := EstimatePeak(profile, []int{2}, DefaultTuning())
	require.NoError(t, err)
	assert.False(t, est.Detected())
	assert.Nil(t, est.DominantFrequency)
	assert.Nil(t, est.PeakMagnitude)
	assert.Nil(t, est.BreathingRateBPM)
}

func TestEstimatePeakProminenceFloor(t *testing.T) {
	// A bump of 0.05 above its surroundings is below the 0.1 prominence
	// floor and must be rejected.
	mags := []float64{0, 0, 0, 1.0, 1.05, 1.0, 0, 0, 0, 0}
	profile := bandProfile(3, mags)

	est, err := EstimatePeak(profile, []int{3}, DefaultTuning())
	require.NoError(t, err)
	assert.False(t, est.Detected())
}

func TestEstimatePeakTallestWins(t *testing.T) {
	// Two qualifying peaks inside a widened band; the taller one at the
	// higher frequency wins.
	tuning := EstimatorTuning{BreathingMinFreq: 0.10, BreathingMaxFreq: 0.45, PeakProminence: 0.1}
	mags := []float64{0, 0, 1.0, 0, 0, 0, 2.0, 0, 0, 0}
	profile := bandProfile(6, mags)

	est, err := EstimatePeak(profile, []int{6}, tuning)
	require.NoError(t, err)
	require.True(t, est.Detected())
	assert.InDelta(t, 0.35, *est.DominantFrequency, 1e-12)
}

func TestEstimatePeakTieGoesToLowestFrequency(t *testing.T) {
	tuning := EstimatorTuning{BreathingMinFreq: 0.10, BreathingMaxFreq: 0.45, PeakProminence: 0.1}
	mags := []float64{0, 0, 2.0, 0, 0, 0, 2.0, 0, 0, 0}
	profile := bandProfile(6, mags)

	est, err := EstimatePeak(profile, []int{6}, tuning)
	require.NoError(t, err)
	require.True(t, est.Detected())
	assert.InDelta(t, 0.15, *est.DominantFrequency, 1e-12)
}

func TestEstimatePeakAveragesSelectedColumns(t *testing.T) {
	freqs := []float64{0.2, 0.25, 0.3}
	profile := &SpectralProfile{
		Frequencies: freqs,
		Columns:     []int{1, 2},
		Magnitudes: map[int][]float64{
			1: {0, 4, 0},
			2: {0, 2, 0},
		},
	}

	est, err := EstimatePeak(profile, []int{1, 2}, DefaultTuning())
	require.NoError(t, err)
	require.True(t, est.Detected())
	assert.InDelta(t, 3.0, *est.PeakMagnitude, 1e-12) // (4+2)/2
}

func TestEstimatePeakSkipsUnknownSelectedColumns(t *testing.T) {
	mags := []float64{0, 0, 0, 0.2, 3.0, 0.2, 0, 0, 0, 0}
	profile := bandProfile(4, mags)

	// Column 99 was filtered out; only column 4 contributes.
	est, err := EstimatePeak(profile, []int{99, 4}, DefaultTuning())
	require.NoError(t, err)
	require.True(t, est.Detected())
	assert.InDelta(t, 3.0, *est.PeakMagnitude, 1e-12)

	// If no selected column is present at all, that is a precheck failure.
	_, err = EstimatePeak(profile, []int{99}, DefaultTuning())
	var preErr *PrecheckError
	assert.True(t, errors.As(err, &preErr))
}

func TestEstimatePeakBandOutsideAxis(t *testing.T) {
	profile := &SpectralProfile{
		Frequencies: []float64{0.5, 0.6},
		Columns:     []int{1},
		Magnitudes:  map[int][]float64{1: {1, 2}},
	}

	est, err := EstimatePeak(profile, []int{1}, DefaultTuning())
	require.NoError(t, err)
	assert.False(t, est.Detected())
}

func TestProminence(t *testing.T) {
	xs := []float64{0, 3, 1, 2, 1, 5, 0}
	// The peak at index 3 (value 2) is bounded by valleys of 1 on both
	// sides before taller terrain.
	assert.InDelta(t, 1.0, prominence(xs, 3), 1e-12)
	// The peak at index 5 (value 5) drops to 0 on both sides.
	assert.InDelta(t, 5.0, prominence(xs, 5), 1e-12)
}
