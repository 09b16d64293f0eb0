//go:build !wasm

package serial

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	cfg  *Config
}

// Open opens a native serial port and drops anything the board sent
// before the host attached
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	serialConfig := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	}

	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	p := &NativePort{port: port, cfg: cfg}
	if err := p.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush serial port %s: %w", cfg.Device, err)
	}
	return p, nil
}

// Read reads data from the serial port. tarm/serial reports a read
// timeout as io.EOF with no data; that is mapped to (0, nil).
func (p *NativePort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if err == io.EOF && n == 0 && p.cfg.ReadTimeout > 0 {
		return 0, nil
	}
	return n, err
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port
func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush discards both serial buffers
func (p *NativePort) Flush() error {
	return p.port.Flush()
}
