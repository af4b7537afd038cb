package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClockNow(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	got := c.Now()
	after := time.Now()
	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}

func TestFakeClockSleepAdvances(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)

	c.Sleep(2 * time.Second)
	c.Sleep(4 * time.Second)

	assert.Equal(t, start.Add(6*time.Second), c.Now())
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, c.Sleeps())
}

func TestFakeClockAdvanceAndSince(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)

	c.Advance(90 * time.Second)
	assert.Equal(t, 90*time.Second, c.Since(start))
	assert.Empty(t, c.Sleeps())
}
