package core

// EncoderFilterMax is the largest input filter value the hardware accepts
const EncoderFilterMax = 15

// EncoderChannel counts a quadrature encoder on Channel1/Channel2 of a timer
// block.
//
// The hardware counter is 16 bits wide and free running: clockwise
// rotation counts up to +32767 and wraps to -32768, counter-clockwise
// rotation wraps the other way. Count reports the raw value and keeps that
// wraparound.
type EncoderChannel struct {
	timer    *TimerResource
	claimed  bool
	maxCount uint16
	started  bool
}

// NewEncoderChannel binds an encoder to a timer. The quadrature claim is
// taken by the first Init.
func NewEncoderChannel(timer *TimerResource) (*EncoderChannel, error) {
	if timer == nil {
		return nil, ErrNullParameter
	}
	return &EncoderChannel{timer: timer}, nil
}

// Initialized reports whether Init has succeeded
func (e *EncoderChannel) Initialized() bool {
	return e.maxCount != 0
}

// Started reports whether the counter is running
func (e *EncoderChannel) Started() bool {
	return e.started
}

// MaxCount returns the configured period, 0 before Init
func (e *EncoderChannel) MaxCount() uint16 {
	return e.maxCount
}

// Init claims the quadrature pair (once) and configures the counter to
// wrap at maxCount. Filters above EncoderFilterMax are clamped. The claim is
// taken under the timer lock and given back if configuration fails, so a
// lock timeout or register fault leaves the block unclaimed.
func (e *EncoderChannel) Init(maxCount uint16, filter uint8) error {
	if maxCount == 0 {
		return ErrInvalidParameter
	}
	if filter > EncoderFilterMax {
		filter = EncoderFilterMax
	}

	err := e.timer.withLock(func(r TimerRegisters) error {
		if e.claimed {
			return e.configure(r, maxCount, filter)
		}
		if err := e.timer.ClaimQuadrature(); err != nil {
			return err
		}
		if err := e.configure(r, maxCount, filter); err != nil {
			e.timer.releaseQuadrature()
			return err
		}
		e.claimed = true
		return nil
	})
	if err != nil {
		return err
	}

	RecordEvent(EvtEncoderInit, e.timer.Block(), 0, uint32(maxCount), uint32(filter))
	e.maxCount = maxCount
	return nil
}

// configure must be called with the timer lock held
func (e *EncoderChannel) configure(r TimerRegisters, maxCount uint16, filter uint8) error {
	if err := r.SetDivider(0); err != nil {
		return e.timer.hardwareFault("set divider", 0, err)
	}
	if err := r.SetPeriod(uint32(maxCount)); err != nil {
		return e.timer.hardwareFault("set period", 0, err)
	}
	if err := r.ConfigureEncoder(filter); err != nil {
		return e.timer.hardwareFault("configure encoder", 0, err)
	}
	return nil
}

// Start enables counting
func (e *EncoderChannel) Start() error {
	if !e.Initialized() {
		return ErrUninitialized
	}
	if e.started {
		return ErrAlreadyStarted
	}
	err := e.timer.withLock(func(r TimerRegisters) error {
		if err := r.EnableCounter(); err != nil {
			return e.timer.hardwareFault("enable counter", 0, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.started = true
	return nil
}

// Stop disables counting. The counter keeps its value.
func (e *EncoderChannel) Stop() error {
	if !e.Initialized() {
		return ErrUninitialized
	}
	if !e.started {
		return ErrAlreadyStopped
	}
	err := e.timer.withLock(func(r TimerRegisters) error {
		if err := r.DisableCounter(); err != nil {
			return e.timer.hardwareFault("disable counter", 0, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.started = false
	return nil
}

// Count reads the hardware counter as a signed 16-bit value. It does not
// take the timer lock.
func (e *EncoderChannel) Count() int16 {
	return int16(uint16(e.timer.counter()))
}

// SetCount writes the counter. Values whose unsigned form exceeds the max
// count are reduced modulo the max count.
func (e *EncoderChannel) SetCount(count int16) error {
	if !e.Initialized() {
		return ErrUninitialized
	}
	value := uint16(count)
	if value > e.maxCount {
		value %= e.maxCount
	}
	return e.timer.withLock(func(r TimerRegisters) error {
		if err := r.SetCounter(uint32(value)); err != nil {
			return e.timer.hardwareFault("set counter", 0, err)
		}
		return nil
	})
}

// ResetCount sets the counter to 0
func (e *EncoderChannel) ResetCount() error {
	return e.SetCount(0)
}
