package csi

import (
	"hash/fnv"
	"math"
	"math/cmplx"
	"math/rand"
)

// Decoder turns one raw frame payload into a per-subcarrier channel
// estimate. Implementations return nil when the payload is too short or
// malformed; the frame is then dropped without failing the run.
type Decoder interface {
	Decode(payload []byte) ChannelEstimate
}

// minPayloadBytes is the smallest payload that can plausibly carry a CSI
// report. Anything shorter is dropped.
const minPayloadBytes = 10

// defaultHalfRange covers subcarriers -64..64, the full index range of the
// widest supported channel profile.
const defaultHalfRange = 64

// SyntheticDecoder is a placeholder for a calibrated vendor CSI decoder. It
// honours the decoder contract (one complex sample per subcarrier in
// [-HalfRange, HalfRange] except DC, amplitude >= 0, phase in [0, 2pi)) but
// synthesizes the values from a payload-seeded generator instead of parsing
// a real binary layout. The same payload always decodes to the same
// estimate, so reruns are reproducible.
//
// A real deployment must substitute a decoder matched to its capture
// hardware; only the output contract is fixed here.
type SyntheticDecoder struct {
	// HalfRange is the highest absolute subcarrier index produced.
	// Zero means defaultHalfRange.
	HalfRange int
}

// Decode implements Decoder.
func (d SyntheticDecoder) Decode(payload []byte) ChannelEstimate {
	if len(payload) < minPayloadBytes {
		return nil
	}

	half := d.HalfRange
	if half <= 0 {
		half = defaultHalfRange
	}

	h := fnv.New64a()
	h.Write(payload)
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	est := make(ChannelEstimate, 2*half)
	for i := -half; i <= half; i++ {
		if i == 0 {
			// The DC subcarrier carries no channel information.
			continue
		}
		amp := 1.0 + 0.1*rng.NormFloat64()
		if amp < 0 {
			amp = 0
		}
		phase := rng.Float64() * 2 * math.Pi
		est[i] = cmplx.Rect(amp, phase)
	}
	return est
}

// DecodeFrames runs the decoder over every capture frame, soft-skipping the
// ones the decoder rejects. A capture from which nothing decodes returns a
// *SourceDataEmptyError.
func DecodeFrames(frames []CaptureFrame, dec Decoder) ([]DecodedFrame, error) {
	var decoded []DecodedFrame
	for _, f := range frames {
		est := dec.Decode(f.Payload)
		if est == nil {
			continue
		}
		decoded = append(decoded, DecodedFrame{Timestamp: f.Timestamp, Estimate: est})
	}
	if len(decoded) == 0 {
		return nil, &SourceDataEmptyError{PacketCount: len(frames)}
	}
	return decoded, nil
}
