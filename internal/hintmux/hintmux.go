// Package hintmux reads subcarrier selection hints from a capture
// device over a serial port. Devices that track their own channel
// state emit lines like "CSI_SELECT:-21,-7,7,21"; the most recent
// hint is held for the analysis pipeline to use as a hardware
// selection override.
package hintmux

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/banshee-data/breath.report/internal/monitoring"
)

// Porter defines the minimal interface needed for a hint source port.
// This abstraction enables unit testing without real serial hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// HintMux reads hint lines from a serial port and retains the latest
// parsed subcarrier selection.
type HintMux struct {
	port Porter

	mu     sync.Mutex
	latest []int
}

// New creates a HintMux reading from the given port.
func New(port Porter) *HintMux {
	return &HintMux{port: port}
}

// Latest returns a copy of the most recent subcarrier hint, or nil if
// no hint has been received yet.
func (h *HintMux) Latest() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest == nil {
		return nil
	}
	out := make([]int, len(h.latest))
	copy(out, h.latest)
	return out
}

// Monitor reads lines from the port until the context is cancelled or
// the port closes. Lines that are not hints are ignored; malformed
// hint lines are logged and skipped.
func (h *HintMux) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(h.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// read in a goroutine so the blocking scan.Scan does not interfere
	// with awaiting context cancellation.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				return nil
			}
			subcarriers, ok, err := ParseHintLine(line)
			if err != nil {
				monitoring.Logf("hintmux: skipping malformed hint %q: %v", line, err)
				continue
			}
			if !ok {
				continue
			}
			h.mu.Lock()
			h.latest = subcarriers
			h.mu.Unlock()
		}
	}
}

// Close closes the underlying port.
func (h *HintMux) Close() error {
	return h.port.Close()
}
