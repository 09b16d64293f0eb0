// Package serial opens the USB CDC port a timerhal board enumerates as.
package serial

import (
	"io"
)

// Port is a byte stream to the board. The native implementation sits on
// github.com/tarm/serial; tests use net.Pipe.
type Port interface {
	io.ReadWriteCloser

	// Flush discards unread input and unsent output
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate; USB CDC ignores it but tarm/serial requires one
	Baud int

	// Read timeout in milliseconds (0 = blocking). A timed-out read
	// returns 0 bytes and no error.
	ReadTimeout int
}

// DefaultConfig returns the configuration for a board on device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 50,
	}
}
