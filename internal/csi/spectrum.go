package csi

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Transform computes the magnitude spectrum of every subcarrier column
// independently. Bin k of a T-row series maps to frequency k/T in the
// normalized cycles-per-capture unit; this convention is load-bearing, as
// the breathing-band thresholds are calibrated against it. Only the strictly
// positive bins k = 1..(T-1)/2 are kept, so the DC bin and (for even T) the
// Nyquist bin are excluded.
//
// A matrix with fewer than two rows or no columns has no spectrum and
// returns a *EmptyInputError.
func Transform(ts *Timeseries) (*SpectralProfile, error) {
	if ts == nil || len(ts.Columns) == 0 {
		return nil, &EmptyInputError{Stage: "spectral transform"}
	}
	n := len(ts.Rows)
	if n < 2 {
		return nil, &EmptyInputError{Stage: "spectral transform"}
	}

	nPos := (n - 1) / 2
	freqs := make([]float64, nPos)
	for k := 1; k <= nPos; k++ {
		freqs[k-1] = float64(k) / float64(n)
	}

	fft := fourier.NewFFT(n)
	seq := make([]float64, n)
	mags := make(map[int][]float64, len(ts.Columns))
	for j, col := range ts.Columns {
		for i := range ts.Rows {
			seq[i] = ts.Rows[i][j]
		}
		coeff := fft.Coefficients(nil, seq)
		m := make([]float64, nPos)
		for k := 1; k <= nPos; k++ {
			m[k-1] = cmplx.Abs(coeff[k])
		}
		mags[col] = m
	}

	columns := make([]int, len(ts.Columns))
	copy(columns, ts.Columns)
	return &SpectralProfile{Frequencies: freqs, Columns: columns, Magnitudes: mags}, nil
}
