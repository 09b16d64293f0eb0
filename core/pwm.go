package core

// PWMState is the life-cycle state of a PWM channel
type PWMState uint8

const (
	PWMUninitialized PWMState = iota
	PWMStopped
	PWMStarted
)

func (s PWMState) String() string {
	switch s {
	case PWMUninitialized:
		return "uninitialized"
	case PWMStopped:
		return "stopped"
	case PWMStarted:
		return "started"
	default:
		return "state(" + utoa(uint32(s)) + ")"
	}
}

// PWMChannel generates a PWM signal on one output-compare channel of a
// timer block.
//
// Uninitialized is left on the first successful Init; afterwards the channel
// moves between Stopped and Started. All channels of a block share the
// block's period, so Init on one channel retunes its siblings.
type PWMChannel struct {
	timer   *TimerResource
	channel Channel
	state   PWMState
}

// NewPWMChannel claims ch on the timer for output compare and returns an
// uninitialized channel
func NewPWMChannel(timer *TimerResource, ch Channel) (*PWMChannel, error) {
	if timer == nil {
		return nil, ErrNullParameter
	}
	if err := timer.ClaimOutputCompare(ch); err != nil {
		return nil, err
	}
	return &PWMChannel{
		timer:   timer,
		channel: ch,
		state:   PWMUninitialized,
	}, nil
}

// Channel returns the timer channel the PWM is bound to
func (p *PWMChannel) Channel() Channel {
	return p.channel
}

// State returns the current life-cycle state
func (p *PWMChannel) State() PWMState {
	return p.state
}

// Init programs the divider, period and compare registers for a switching
// frequency and duty cycle. Duty cycles above 100.0% are clamped. Init may
// be repeated in any state to retune; it never changes Stopped/Started.
func (p *PWMChannel) Init(switchingHz uint32, dutyTenthPct uint16) error {
	regs, err := FrequencyToRegisters(switchingHz, p.timer.SourceFrequencyHz(), MaxPeriod16)
	if err != nil {
		return err
	}
	compare := DutyCycleToCompare(ClampDutyCycle(dutyTenthPct), regs.Period)

	ch := p.channel
	err = p.timer.withLock(func(r TimerRegisters) error {
		if err := r.SetDivider(regs.Divider); err != nil {
			return p.timer.hardwareFault("set divider", ch.Number(), err)
		}
		if err := r.SetPeriod(regs.Period); err != nil {
			return p.timer.hardwareFault("set period", ch.Number(), err)
		}
		if err := r.SetCompare(ch, compare); err != nil {
			return p.timer.hardwareFault("set compare", ch.Number(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	RecordEvent(EvtPWMInit, p.timer.Block(), ch.Number(), regs.Divider, regs.Period)
	if p.state == PWMUninitialized {
		p.state = PWMStopped
	}
	return nil
}

// Start enables the output. Only a Stopped channel can be started.
func (p *PWMChannel) Start() error {
	switch p.state {
	case PWMUninitialized:
		return ErrUninitialized
	case PWMStarted:
		return ErrAlreadyStarted
	}

	ch := p.channel
	err := p.timer.withLock(func(r TimerRegisters) error {
		if err := r.EnableOutput(ch); err != nil {
			return p.timer.hardwareFault("enable output", ch.Number(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.state = PWMStarted
	return nil
}

// Stop disables the output. Only a Started channel can be stopped.
func (p *PWMChannel) Stop() error {
	switch p.state {
	case PWMUninitialized:
		return ErrUninitialized
	case PWMStopped:
		return ErrAlreadyStopped
	}

	ch := p.channel
	err := p.timer.withLock(func(r TimerRegisters) error {
		if err := r.DisableOutput(ch); err != nil {
			return p.timer.hardwareFault("disable output", ch.Number(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.state = PWMStopped
	return nil
}

// SetDutyCycle updates the compare value against the period currently in
// the registers, which may differ from the requested one after rounding.
func (p *PWMChannel) SetDutyCycle(dutyTenthPct uint16) error {
	if p.state == PWMUninitialized {
		return ErrUninitialized
	}
	duty := ClampDutyCycle(dutyTenthPct)

	ch := p.channel
	return p.timer.withLock(func(r TimerRegisters) error {
		compare := DutyCycleToCompare(duty, r.Period())
		if err := r.SetCompare(ch, compare); err != nil {
			return p.timer.hardwareFault("set compare", ch.Number(), err)
		}
		return nil
	})
}

// SetHigh drives the output at 100.0%
func (p *PWMChannel) SetHigh() error {
	return p.SetDutyCycle(DutyCycleMaxTenthPct)
}

// SetLow drives the output at 0.0%
func (p *PWMChannel) SetLow() error {
	return p.SetDutyCycle(DutyCycleMinTenthPct)
}

// SwitchingFrequencyHz reads back the frequency produced by the registers.
// An uninitialized channel, or a lock timeout, reads as 0.
func (p *PWMChannel) SwitchingFrequencyHz() uint32 {
	if p.state == PWMUninitialized {
		return 0
	}
	var divider, period uint32
	err := p.timer.withLock(func(r TimerRegisters) error {
		divider = r.Divider() + 1
		period = r.Period()
		return nil
	})
	if err != nil {
		return 0
	}
	return RegistersToFrequency(p.timer.SourceFrequencyHz(), divider, period)
}

// DutyCycleTenthPct reads back the duty cycle produced by the registers.
// An uninitialized channel, or a lock timeout, reads as 0.
func (p *PWMChannel) DutyCycleTenthPct() uint16 {
	if p.state == PWMUninitialized {
		return 0
	}
	var period, compare uint32
	err := p.timer.withLock(func(r TimerRegisters) error {
		period = r.Period()
		compare = r.Compare(p.channel)
		return nil
	})
	if err != nil {
		return 0
	}
	return CompareToDutyCycle(period, compare)
}
