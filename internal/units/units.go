// Package units provides shared constants and conversions for channel widths
// and breathing-rate units.
package units

// Channel width constants
const (
	Width20MHz = "20MHz"
	Width80MHz = "80MHz"
)

// ValidWidths contains all channel widths with a defined subcarrier profile.
var ValidWidths = []string{Width20MHz, Width80MHz}

// IsValidWidth checks if the given channel width has a defined profile.
func IsValidWidth(width string) bool {
	for _, w := range ValidWidths {
		if width == w {
			return true
		}
	}
	return false
}

// GetValidWidthsString returns a comma-separated string of valid channel
// widths for error messages.
func GetValidWidthsString() string {
	return "20MHz, 80MHz"
}

// FrequencyToBPM converts a spectral frequency in the capture's normalized
// unit (cycles per capture) to breaths per minute. The conversion assumes the
// nominal capture cadence of one sample per second over the collection
// window, under which one cycle-per-capture unit corresponds to 1 Hz.
func FrequencyToBPM(freq float64) float64 {
	return freq * 60
}

// BPMToFrequency converts breaths per minute back to the normalized
// spectral frequency unit.
func BPMToFrequency(bpm float64) float64 {
	return bpm / 60
}
