package hintmux

import (
	"go.bug.st/serial"
)

// DefaultBaudRate matches the console baud rate of the supported
// capture firmware.
const DefaultBaudRate = 115200

// Open creates a HintMux backed by a real serial port at the given path.
func Open(path string) (*HintMux, error) {
	port, err := serial.Open(path, &serial.Mode{BaudRate: DefaultBaudRate})
	if err != nil {
		return nil, err
	}
	return New(port), nil
}
