package csi

import "time"

// CaptureFrame is one transport frame lifted from a capture: the capture
// timestamp and the raw payload bytes. Frames are transient and discarded
// once decoded.
type CaptureFrame struct {
	Timestamp time.Time
	Payload   []byte
}

// ChannelEstimate maps a signed subcarrier index to the complex channel
// sample measured for one frame. Index 0 (the DC subcarrier) is never
// populated.
type ChannelEstimate map[int]complex128

// DecodedFrame pairs a capture timestamp with its decoded channel estimate.
type DecodedFrame struct {
	Timestamp time.Time
	Estimate  ChannelEstimate
}

// Timeseries is a rectangular amplitude matrix: rows are frames in capture
// order, columns are ascending subcarrier indices. Phase is discarded at
// assembly; breathing shows up as amplitude modulation.
type Timeseries struct {
	Columns    []int
	Rows       [][]float64 // len(Rows[i]) == len(Columns)
	Timestamps []time.Time
}

// SpectralProfile holds per-subcarrier magnitude spectra sharing one
// strictly-positive frequency axis. Frequencies are in the normalized
// cycles-per-capture unit (bin k of a T-row series maps to k/T).
type SpectralProfile struct {
	Frequencies []float64
	Columns     []int
	Magnitudes  map[int][]float64
}

// Selection is the ordered subcarrier subset used for estimation plus the
// cosine similarity scores computed along the way (empty when a hardware
// override or the all-columns fallback was used).
type Selection struct {
	Subcarriers  []int
	Similarities map[int]float64
}

// Estimate is the terminal artifact of a run. All three fields are nil when
// no qualifying peak was found in the breathing band; that is a valid
// outcome, not an error.
type Estimate struct {
	DominantFrequency *float64
	PeakMagnitude     *float64
	BreathingRateBPM  *float64
}

// Detected reports whether a breathing peak was found.
func (e Estimate) Detected() bool {
	return e.BreathingRateBPM != nil
}

// RunParams carries the per-run metadata supplied by the capture device.
type RunParams struct {
	DeviceID           string
	ChannelWidth       string
	Location           string
	CollectionDuration int
	Timestamp          int64
	// SelectedSubcarriers is the optional hardware-supplied hint. When
	// non-empty it is used verbatim and baseline similarity is skipped.
	SelectedSubcarriers []int
}

// RunResult is the estimate plus selection diagnostics and provenance for
// one completed run.
type RunResult struct {
	Estimate

	SelectedSubcarriers []int
	Similarities        map[int]float64

	DeviceID           string
	ChannelWidth       string
	Location           string
	CollectionDuration int
	Timestamp          int64

	PacketCount  int
	CSIDataCount int
	ProcessedAt  time.Time
}
