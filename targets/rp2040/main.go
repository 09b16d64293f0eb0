//go:build rp2040

// Firmware for an RP2040 board: PWM slices 0-3 drive outputs and a motor,
// PIO0 state machine 0 counts an encoder, and the diagnostics console
// listens on USB CDC.
package main

import (
	"machine"
	"time"

	"timerhal/board"
	"timerhal/config"
	"timerhal/console"
	"timerhal/core"
	"timerhal/targets/pio"
)

const (
	encoderPinA  = machine.GPIO16 // B on GPIO17
	pollInterval = 250 * time.Microsecond
)

// boardConfig is the fixed layout of this firmware. PWM2 drives the motor
// bridge on GPIO4/GPIO5.
func boardConfig() *config.BoardConfig {
	return &config.BoardConfig{
		Name:  "timerhal-rp2040",
		Clock: config.ClockConfig{Kind: config.ClockFixed, FixedHz: machine.CPUFrequency()},
		Timers: []config.TimerConfig{
			{Block: "PWM0"},
			{Block: "PWM1"},
			{Block: "PWM2"},
			{Block: "PIO0.SM0"},
		},
		PWM: []config.PWMConfig{
			{OID: 0, Timer: "PWM0", Channel: 1, FrequencyHz: 20000},
			{OID: 1, Timer: "PWM0", Channel: 2, FrequencyHz: 20000},
			{OID: 2, Timer: "PWM1", Channel: 1, FrequencyHz: 1000},
		},
		Encoders: []config.EncoderConfig{
			{OID: 0, Timer: "PIO0.SM0", MaxCount: 0xFFFF, Filter: 2},
		},
		Motors: []config.MotorConfig{
			{OID: 0, Timer: "PWM2", ChannelA: 1, ChannelB: 2, FrequencyHz: 20000},
		},
	}
}

func main() {
	// Disable watchdog left over from a previous run
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}
	InitUSB()

	var quads []*pio.QuadratureBlock
	registers := func(block core.BlockID) (core.TimerRegisters, error) {
		switch {
		case block >= core.RP2PWM0 && block <= core.RP2PWM7:
			return newPWMSlice(uint8(block-core.RP2PWM0), machine.CPUFrequency()), nil
		case block >= core.RP2PIOQuad0 && block <= core.RP2PIOQuad7:
			n := uint8(block - core.RP2PIOQuad0)
			q := pio.NewQuadratureBlock(n/4, n%4, encoderPinA+machine.Pin(2*len(quads)))
			quads = append(quads, q)
			return q, nil
		}
		return nil, core.ErrModeInvalid
	}

	cfg := boardConfig()
	if err := cfg.Validate(); err != nil {
		halt(err)
	}
	b, err := board.Build(cfg, registers)
	if err != nil {
		halt(err)
	}
	if err := b.Start(); err != nil {
		halt(err)
	}

	go pollEncoders(quads)

	for {
		// Serve only returns on a stream error; start over with a fresh
		// frame reader
		if err := console.New(b).Serve(usbStream{}); err != nil {
			core.DebugPrintln("[MAIN] console: " + err.Error())
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// pollEncoders keeps the PIO RX FIFOs from overflowing
func pollEncoders(quads []*pio.QuadratureBlock) {
	for {
		for _, q := range quads {
			q.Poll()
		}
		time.Sleep(pollInterval)
	}
}

// halt records a fatal setup error and blinks the LED forever
func halt(err error) {
	core.DebugPrintln("[MAIN] setup failed: " + err.Error())
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.Set(!led.Get())
		time.Sleep(200 * time.Millisecond)
	}
}
