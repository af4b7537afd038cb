package hintmux

import (
	"io"
)

// MockPort implements Porter for testing. Reads are served from the
// pipe reader; anything written is discarded.
type MockPort struct {
	reader *io.PipeReader
	writer *io.PipeWriter
}

// NewMockPort returns a mock port and the write end used to feed it lines.
func NewMockPort() (*MockPort, *io.PipeWriter) {
	r, w := io.Pipe()
	return &MockPort{reader: r, writer: w}, w
}

func (m *MockPort) Read(p []byte) (int, error)  { return m.reader.Read(p) }
func (m *MockPort) Write(p []byte) (int, error) { return len(p), nil }

// Close shuts the feed end so readers observe a clean EOF.
func (m *MockPort) Close() error {
	return m.writer.Close()
}
