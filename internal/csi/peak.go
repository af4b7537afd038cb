package csi

import (
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/breath.report/internal/units"
)

// EstimatorTuning holds the peak estimator parameters. The frequency bounds
// are in the normalized cycles-per-capture unit of the spectral transform,
// not literal Hz; they are only physically meaningful when calibrated
// against the actual capture cadence (nominally ~60s at ~1 sample/s).
type EstimatorTuning struct {
	BreathingMinFreq float64
	BreathingMaxFreq float64
	PeakProminence   float64
}

// DefaultTuning returns the deployed estimator parameters: a breathing band
// of [0.2, 0.33] (about 12-19.8 bpm under the nominal cadence) and a peak
// prominence floor of 0.1.
func DefaultTuning() EstimatorTuning {
	return EstimatorTuning{
		BreathingMinFreq: 0.2,
		BreathingMaxFreq: 0.33,
		PeakProminence:   0.1,
	}
}

// EstimatePeak averages the magnitude spectra of the selected subcarriers,
// restricts the average to the breathing band, and extracts the dominant
// local maximum whose prominence exceeds the tuned floor (ties go to the
// lowest frequency). The breathing rate is the chosen frequency times 60.
//
// An empty selection is a caller error (*PrecheckError). Finding no
// qualifying peak is not: the returned estimate simply has all fields unset.
func EstimatePeak(profile *SpectralProfile, selected []int, tuning EstimatorTuning) (Estimate, error) {
	if len(selected) == 0 {
		return Estimate{}, &PrecheckError{Reason: "no subcarriers selected for estimation"}
	}

	n := len(profile.Frequencies)
	avg := make([]float64, n)
	used := 0
	for _, col := range selected {
		m, ok := profile.Magnitudes[col]
		if !ok || len(m) != n {
			// A hardware hint may name columns the filter dropped.
			continue
		}
		floats.Add(avg, m)
		used++
	}
	if used == 0 {
		return Estimate{}, &PrecheckError{Reason: "no selected subcarrier is present in the spectrum"}
	}
	floats.Scale(1/float64(used), avg)

	// The band is a contiguous slice of the ascending frequency axis.
	lo, hi := -1, -1
	for i, f := range profile.Frequencies {
		if f < tuning.BreathingMinFreq || f > tuning.BreathingMaxFreq {
			continue
		}
		if lo < 0 {
			lo = i
		}
		hi = i
	}
	if lo < 0 {
		return Estimate{}, nil
	}
	band := avg[lo : hi+1]

	best := -1
	for _, i := range peakIndices(band, tuning.PeakProminence) {
		if best < 0 || band[i] > band[best] {
			best = i
		}
	}
	if best < 0 {
		return Estimate{}, nil
	}

	freq := profile.Frequencies[lo+best]
	height := band[best]
	rate := units.FrequencyToBPM(freq)
	return Estimate{
		DominantFrequency: &freq,
		PeakMagnitude:     &height,
		BreathingRateBPM:  &rate,
	}, nil
}

// peakIndices returns the interior local maxima of xs whose prominence
// exceeds minProminence, in ascending index order. Samples at the slice
// edges cannot be peaks.
func peakIndices(xs []float64, minProminence float64) []int {
	var peaks []int
	for i := 1; i < len(xs)-1; i++ {
		if xs[i] > xs[i-1] && xs[i] > xs[i+1] && prominence(xs, i) > minProminence {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// prominence measures how far the peak at i rises above the higher of the
// two valley floors separating it from taller terrain (or the slice edges).
func prominence(xs []float64, i int) float64 {
	left := xs[i]
	for l := i - 1; l >= 0; l-- {
		if xs[l] > xs[i] {
			break
		}
		if xs[l] < left {
			left = xs[l]
		}
	}
	right := xs[i]
	for r := i + 1; r < len(xs); r++ {
		if xs[r] > xs[i] {
			break
		}
		if xs[r] < right {
			right = xs[r]
		}
	}
	base := left
	if right > base {
		base = right
	}
	return xs[i] - base
}
