package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidWidth(t *testing.T) {
	tests := []struct {
		width string
		want  bool
	}{
		{Width20MHz, true},
		{Width80MHz, true},
		{"40MHz", false},
		{"", false},
		{"80mhz", false},
	}
	for _, tt := range tests {
		t.Run(tt.width, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidWidth(tt.width))
		})
	}
}

func TestFrequencyToBPM(t *testing.T) {
	// 0.25 cycles-per-capture is exactly 15 breaths per minute.
	assert.Equal(t, 15.0, FrequencyToBPM(0.25))
	assert.Equal(t, 0.0, FrequencyToBPM(0))
	assert.InDelta(t, 19.8, FrequencyToBPM(0.33), 1e-9)
}

func TestBPMToFrequencyRoundTrip(t *testing.T) {
	assert.InDelta(t, 0.25, BPMToFrequency(FrequencyToBPM(0.25)), 1e-12)
}
