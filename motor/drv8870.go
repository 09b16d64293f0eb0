// Package motor drives brushed DC motors through a DRV8870-style H-bridge
// whose two inputs are fed by a complementary pair of PWM channels.
package motor

import (
	"errors"

	"timerhal/core"
)

// Direction selects how the bridge drives the motor
type Direction uint8

const (
	DirectionStopped Direction = iota // both inputs high, motor braked
	DirectionCoast                    // both inputs low, bridge released
	DirectionForward
	DirectionReverse
)

func (d Direction) String() string {
	switch d {
	case DirectionStopped:
		return "stopped"
	case DirectionCoast:
		return "coast"
	case DirectionForward:
		return "forward"
	case DirectionReverse:
		return "reverse"
	default:
		return "unknown"
	}
}

// State of the motor driver
type State uint8

const (
	StateUninitialized State = iota
	StateDriving
)

const (
	// StrengthMaxTenthPct is full drive strength
	StrengthMaxTenthPct = core.DutyCycleMaxTenthPct

	// brakedTenthPct holds an input high; with both inputs high the bridge
	// shorts the motor windings
	brakedTenthPct = core.DutyCycleMaxTenthPct

	// releasedTenthPct holds an input low
	releasedTenthPct = core.DutyCycleMinTenthPct
)

// DRV8870 drives one motor from two PWM channels of the same timer. IN1 is
// channel A, IN2 is channel B.
//
// A direction change is two SetDutyCycle calls and is not atomic: for the
// short time between the two register writes the bridge sees a mixed
// pattern.
type DRV8870 struct {
	in1   *core.PWMChannel
	in2   *core.PWMChannel
	state State
}

// New claims both channels for output compare. Both are checked before
// either is claimed, so a rejected pair leaves the timer untouched.
func New(timer *core.TimerResource, chA, chB core.Channel) (*DRV8870, error) {
	if timer == nil {
		return nil, core.ErrNullParameter
	}
	if chA == chB {
		return nil, core.ErrModeConflict
	}
	for _, ch := range []core.Channel{chA, chB} {
		if err := timer.CheckOutputCompare(ch); err != nil {
			return nil, err
		}
	}

	in1, err := core.NewPWMChannel(timer, chA)
	if err != nil {
		return nil, err
	}
	in2, err := core.NewPWMChannel(timer, chB)
	if err != nil {
		return nil, err
	}
	return &DRV8870{in1: in1, in2: in2}, nil
}

// State returns the current driver state
func (m *DRV8870) State() State {
	return m.state
}

// Inputs returns the IN1 and IN2 PWM channels
func (m *DRV8870) Inputs() (*core.PWMChannel, *core.PWMChannel) {
	return m.in1, m.in2
}

// Init programs both channels braked at the PWM frequency and starts them.
// The first failing channel aborts Init with its error.
func (m *DRV8870) Init(pwmFrequencyHz uint32) error {
	for _, pwm := range []*core.PWMChannel{m.in1, m.in2} {
		if err := pwm.Init(pwmFrequencyHz, brakedTenthPct); err != nil {
			return err
		}
	}
	for _, pwm := range []*core.PWMChannel{m.in1, m.in2} {
		if err := pwm.Start(); err != nil && !errors.Is(err, core.ErrAlreadyStarted) {
			return err
		}
	}
	m.state = StateDriving
	return nil
}

// Drive sets direction and strength. Zero strength brakes like
// DirectionStopped. Strength above 100.0% is clamped.
func (m *DRV8870) Drive(direction Direction, strengthTenthPct uint16) error {
	if m.state == StateUninitialized {
		return core.ErrUninitialized
	}
	in1, in2, err := dutyCycles(direction, strengthTenthPct)
	if err != nil {
		return err
	}
	if err := m.in1.SetDutyCycle(in1); err != nil {
		return err
	}
	return m.in2.SetDutyCycle(in2)
}

// Brake stops the motor with both inputs high
func (m *DRV8870) Brake() error {
	return m.Drive(DirectionStopped, 0)
}

// Coast releases the motor with both inputs low
func (m *DRV8870) Coast() error {
	return m.Drive(DirectionCoast, 0)
}

// dutyCycles returns the IN1/IN2 duty cycles for a direction. Drive
// strength and duty cycle are inversely proportional on the driven input.
func dutyCycles(direction Direction, strengthTenthPct uint16) (uint16, uint16, error) {
	strength := core.ClampDutyCycle(strengthTenthPct)
	driven := uint16(StrengthMaxTenthPct) - strength

	switch direction {
	case DirectionCoast:
		return releasedTenthPct, releasedTenthPct, nil
	case DirectionStopped:
		return brakedTenthPct, brakedTenthPct, nil
	case DirectionForward:
		if strength == 0 {
			return brakedTenthPct, brakedTenthPct, nil
		}
		return brakedTenthPct, driven, nil
	case DirectionReverse:
		if strength == 0 {
			return brakedTenthPct, brakedTenthPct, nil
		}
		return driven, brakedTenthPct, nil
	default:
		return 0, 0, core.ErrInvalidParameter
	}
}
