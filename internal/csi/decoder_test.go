package csi

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticDecoderRejectsShortPayload(t *testing.T) {
	dec := SyntheticDecoder{}
	for size := 0; size < minPayloadBytes; size++ {
		assert.Nil(t, dec.Decode(make([]byte, size)), "payload of %d bytes should be dropped", size)
	}
	assert.NotNil(t, dec.Decode(make([]byte, minPayloadBytes)))
}

func TestSyntheticDecoderContract(t *testing.T) {
	for _, size := range []int{10, 64, 512, 1500} {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i * 7)
		}
		est := SyntheticDecoder{}.Decode(payload)
		require.NotNil(t, est)

		// Every index in -64..64 except DC, exactly once.
		assert.Len(t, est, 128)
		_, hasDC := est[0]
		assert.False(t, hasDC, "DC subcarrier must never be populated (payload size %d)", size)

		for idx, v := range est {
			assert.GreaterOrEqual(t, idx, -64)
			assert.LessOrEqual(t, idx, 64)
			amp := cmplx.Abs(v)
			assert.GreaterOrEqual(t, amp, 0.0)
			phase := cmplx.Phase(v)
			assert.False(t, math.IsNaN(phase))
		}
	}
}

func TestSyntheticDecoderDeterministic(t *testing.T) {
	payload := []byte("one particular CSI frame payload")
	a := SyntheticDecoder{}.Decode(payload)
	b := SyntheticDecoder{}.Decode(payload)
	assert.Equal(t, a, b)

	c := SyntheticDecoder{}.Decode([]byte("a different CSI frame payload !!"))
	assert.NotEqual(t, a, c)
}

func TestSyntheticDecoderHalfRange(t *testing.T) {
	est := SyntheticDecoder{HalfRange: 32}.Decode(make([]byte, 32))
	require.NotNil(t, est)
	assert.Len(t, est, 64)
	for idx := range est {
		assert.GreaterOrEqual(t, idx, -32)
		assert.LessOrEqual(t, idx, 32)
	}
}

func TestDecodeFramesSoftSkipsMalformed(t *testing.T) {
	now := time.Now()
	frames := []CaptureFrame{
		{Timestamp: now, Payload: make([]byte, 64)},
		{Timestamp: now.Add(time.Second), Payload: []byte("short")},
		{Timestamp: now.Add(2 * time.Second), Payload: make([]byte, 64)},
	}

	decoded, err := DecodeFrames(frames, SyntheticDecoder{})
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, now, decoded[0].Timestamp)
	assert.Equal(t, now.Add(2*time.Second), decoded[1].Timestamp)
}

func TestDecodeFramesAllMalformed(t *testing.T) {
	frames := []CaptureFrame{
		{Payload: []byte("a")},
		{Payload: []byte("b")},
		{Payload: []byte("c")},
	}

	_, err := DecodeFrames(frames, SyntheticDecoder{})
	var emptyErr *SourceDataEmptyError
	require.True(t, errors.As(err, &emptyErr))
	assert.Equal(t, 3, emptyErr.PacketCount)
}
