//go:build rp2040

package main

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers/servo"

	"timerhal/core"
)

var errNotSupported = errors.New("rp2040: operation not supported by PWM slice")

// pwmSlice adapts one RP2040 PWM slice to core.TimerRegisters. The slice is
// reached through servo.PWM, which takes a period in nanoseconds rather than
// raw divider and TOP values, so divider and period are combined before
// they reach the hardware. Compare values are rescaled onto Top().
type pwmSlice struct {
	block      core.BlockID
	pwm        servo.PWM
	pins       [2]machine.Pin
	hwChannel  [2]uint8
	sourceHz   uint32
	divider    uint32
	period     uint32
	compare    [2]uint32
	enabled    [2]bool
	configured bool
}

// newPWMSlice binds slice n (0-7) to GPIO 2n (channel A) and 2n+1
// (channel B)
func newPWMSlice(n uint8, sourceHz uint32) *pwmSlice {
	return &pwmSlice{
		block:    core.RP2PWM0 + core.BlockID(n),
		pwm:      pwmPeripheral(n),
		pins:     [2]machine.Pin{machine.Pin(2 * n), machine.Pin(2*n + 1)},
		sourceHz: sourceHz,
	}
}

// pwmPeripheral returns the PWM peripheral for a given slice number.
// machine.PWMx are of an unexported type; servo.PWM names the methods used.
func pwmPeripheral(n uint8) servo.PWM {
	switch n {
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	case 7:
		return machine.PWM7
	default:
		return machine.PWM0
	}
}

func (s *pwmSlice) Block() core.BlockID { return s.block }

func (s *pwmSlice) SetDivider(value uint32) error {
	s.divider = value
	return s.apply()
}

func (s *pwmSlice) Divider() uint32 { return s.divider }

func (s *pwmSlice) SetPeriod(value uint32) error {
	s.period = value
	return s.apply()
}

func (s *pwmSlice) Period() uint32 { return s.period }

func (s *pwmSlice) SetCompare(ch core.Channel, value uint32) error {
	i := ch.Index()
	if i > 1 {
		return errNotSupported
	}
	s.compare[i] = value
	if s.enabled[i] {
		s.write(i)
	}
	return nil
}

func (s *pwmSlice) Compare(ch core.Channel) uint32 {
	if ch.Index() > 1 {
		return 0
	}
	return s.compare[ch.Index()]
}

func (s *pwmSlice) EnableOutput(ch core.Channel) error {
	i := ch.Index()
	if i > 1 {
		return errNotSupported
	}
	if !s.configured {
		return core.ErrUninitialized
	}
	hw, err := s.pwm.Channel(s.pins[i])
	if err != nil {
		return err
	}
	s.hwChannel[i] = hw
	s.enabled[i] = true
	s.write(i)
	return nil
}

func (s *pwmSlice) DisableOutput(ch core.Channel) error {
	i := ch.Index()
	if i > 1 {
		return errNotSupported
	}
	if s.enabled[i] {
		s.pwm.Set(s.hwChannel[i], 0)
	}
	s.enabled[i] = false
	return nil
}

func (s *pwmSlice) ConfigureEncoder(uint8) error { return errNotSupported }
func (s *pwmSlice) EnableCounter() error          { return errNotSupported }
func (s *pwmSlice) DisableCounter() error         { return errNotSupported }
func (s *pwmSlice) Counter() uint32               { return 0 }
func (s *pwmSlice) SetCounter(uint32) error       { return errNotSupported }

// apply reprograms the slice once both divider and period are known
func (s *pwmSlice) apply() error {
	if s.period == 0 || s.sourceHz == 0 {
		return nil
	}
	periodNs := uint64(s.divider+1) * uint64(s.period) * 1000000000 / uint64(s.sourceHz)

	var err error
	if s.configured {
		err = s.pwm.SetPeriod(periodNs)
	} else {
		err = s.pwm.Configure(machine.PWMConfig{Period: periodNs})
	}
	if err != nil {
		return err
	}
	s.configured = true

	for i := range s.enabled {
		if s.enabled[i] {
			s.write(uint8(i))
		}
	}
	return nil
}

// write scales a compare value against the register period onto the
// slice's TOP
func (s *pwmSlice) write(i uint8) {
	if s.period == 0 {
		return
	}
	top := uint64(s.pwm.Top()) + 1
	value := uint64(s.compare[i]) * top / uint64(s.period)
	s.pwm.Set(s.hwChannel[i], uint32(value))
}
