package csi

import (
	"github.com/banshee-data/breath.report/internal/units"
)

// SubcarrierRange is an inclusive range of subcarrier indices.
type SubcarrierRange struct {
	Start, End int
}

// ChannelWidthProfile names the subcarriers a channel width reserves for
// guard bands and pilots. Those columns never carry a breathing signal and
// are dropped before spectral analysis.
type ChannelWidthProfile struct {
	GuardBands []SubcarrierRange
	Pilots     []int
}

// channelProfiles is the lookup table of supported channel widths. The
// entries match the deployed capture hardware; adding a width is a matter of
// adding a row here.
var channelProfiles = map[string]ChannelWidthProfile{
	units.Width20MHz: {
		GuardBands: []SubcarrierRange{{-32, -26}, {27, 32}},
		Pilots:     []int{-21, -7, 7, 21},
	},
	units.Width80MHz: {
		GuardBands: []SubcarrierRange{
			{-122, -117}, {-107, -102}, {-92, -87}, {-77, -72},
			{-62, -57}, {-47, -42}, {-32, -27}, {-17, -12},
			{-2, 3}, {12, 17}, {27, 32}, {42, 47},
			{57, 62}, {72, 77}, {87, 92}, {102, 107},
			{117, 122},
		},
		Pilots: []int{
			-103, -75, -39, -11, -89, -61, -25, 3,
			-53, -17, 19, 55, 33, 69, 105, 119,
		},
	},
}

// LookupProfile returns the subcarrier profile for a channel width.
func LookupProfile(width string) (ChannelWidthProfile, bool) {
	p, ok := channelProfiles[width]
	return p, ok
}

// FilterSubcarriers drops the guard-band and pilot columns of the named
// channel width from the matrix. Columns the matrix never had are skipped
// without error, output columns stay in ascending order, and filtering an
// already filtered matrix is a no-op. An unknown width returns a
// *UnsupportedChannelWidthError.
func FilterSubcarriers(ts *Timeseries, width string) (*Timeseries, error) {
	profile, ok := channelProfiles[width]
	if !ok {
		return nil, &UnsupportedChannelWidthError{Width: width}
	}

	drop := make(map[int]bool)
	for _, gb := range profile.GuardBands {
		for i := gb.Start; i <= gb.End; i++ {
			drop[i] = true
		}
	}
	for _, p := range profile.Pilots {
		drop[p] = true
	}

	keep := make([]int, 0, len(ts.Columns))
	keepIdx := make([]int, 0, len(ts.Columns))
	for j, col := range ts.Columns {
		if drop[col] {
			continue
		}
		keep = append(keep, col)
		keepIdx = append(keepIdx, j)
	}

	out := &Timeseries{
		Columns:    keep,
		Rows:       make([][]float64, len(ts.Rows)),
		Timestamps: ts.Timestamps,
	}
	for i, row := range ts.Rows {
		filtered := make([]float64, len(keepIdx))
		for k, j := range keepIdx {
			filtered[k] = row[j]
		}
		out.Rows[i] = filtered
	}
	return out, nil
}
