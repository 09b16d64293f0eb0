//go:build rp2040

package main

import (
	"machine"
	"time"
)

// InitUSB initializes USB serial communication. On RP2040 machine.Serial
// is USB CDC; the descriptors come from the TinyGo runtime.
func InitUSB() {
	err := machine.Serial.Configure(machine.UARTConfig{})
	if err != nil {
		return
	}
}

// usbStream is a blocking io.ReadWriter over USB CDC
type usbStream struct{}

// Read waits for at least one byte, yielding while the host is quiet
func (usbStream) Read(p []byte) (int, error) {
	for machine.Serial.Buffered() == 0 {
		time.Sleep(100 * time.Microsecond)
	}
	n := 0
	for n < len(p) && machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return n, err
		}
		p[n] = b
		n++
	}
	return n, nil
}

// Write sends all of p, retrying partial writes
func (usbStream) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := machine.Serial.Write(p[written:])
		if err != nil {
			return written, err
		}
		if n == 0 {
			time.Sleep(100 * time.Microsecond)
			continue
		}
		written += n
	}
	return written, nil
}
