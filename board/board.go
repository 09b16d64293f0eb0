// Package board turns a board description into the live object graph: one
// TimerResource per declared block, and PWM channels, encoders and motors
// looked up by object id.
package board

import (
	"errors"
	"fmt"

	"timerhal/config"
	"timerhal/core"
	"timerhal/motor"
)

var ErrUnknownOID = errors.New("unknown object id")

// RegisterFactory returns the register set backing one timer block
type RegisterFactory func(block core.BlockID) (core.TimerRegisters, error)

// Board owns every resource built from a config
type Board struct {
	Name string

	cfg      *config.BoardConfig
	timers   map[core.BlockID]*core.TimerResource
	order    []core.BlockID
	pwms     map[uint8]*PWM
	encoders map[uint8]*Encoder
	motors   map[uint8]*Motor
}

// PWM is a configured output channel
type PWM struct {
	*core.PWMChannel
	Config config.PWMConfig
}

// Encoder is a configured quadrature counter
type Encoder struct {
	*core.EncoderChannel
	Config config.EncoderConfig
}

// Motor is a configured H-bridge
type Motor struct {
	*motor.DRV8870
	Config config.MotorConfig
}

// Build claims every channel the config names. Claims happen in config
// order, so a conflict reports the later of the two owners.
func Build(cfg *config.BoardConfig, factory RegisterFactory) (*Board, error) {
	if cfg == nil || factory == nil {
		return nil, core.ErrNullParameter
	}

	b := &Board{
		Name:     cfg.Name,
		cfg:      cfg,
		timers:   make(map[core.BlockID]*core.TimerResource),
		pwms:     make(map[uint8]*PWM),
		encoders: make(map[uint8]*Encoder),
		motors:   make(map[uint8]*Motor),
	}
	clock := cfg.ClockSource()

	for _, tc := range cfg.Timers {
		block, ok := core.BlockByName(tc.Block)
		if !ok {
			return nil, fmt.Errorf("timer %q: %w", tc.Block, core.ErrInvalidParameter)
		}
		regs, err := factory(block)
		if err != nil {
			return nil, fmt.Errorf("timer %s: %w", tc.Block, err)
		}
		var lock core.Lock = core.NoLock{}
		if tc.Lock {
			lock = core.NewMutex()
		}
		b.timers[block] = core.NewTimerResource(regs, clock, lock)
		b.order = append(b.order, block)
	}

	for _, pc := range cfg.PWM {
		timer, ch, err := b.resolve(pc.Timer, pc.Channel)
		if err != nil {
			return nil, fmt.Errorf("pwm oid %d: %w", pc.OID, err)
		}
		pwm, err := core.NewPWMChannel(timer, ch)
		if err != nil {
			return nil, fmt.Errorf("pwm oid %d: %w", pc.OID, err)
		}
		b.pwms[pc.OID] = &PWM{PWMChannel: pwm, Config: pc}
	}

	for _, ec := range cfg.Encoders {
		timer, err := b.timerByName(ec.Timer)
		if err != nil {
			return nil, fmt.Errorf("encoder oid %d: %w", ec.OID, err)
		}
		enc, err := core.NewEncoderChannel(timer)
		if err != nil {
			return nil, fmt.Errorf("encoder oid %d: %w", ec.OID, err)
		}
		b.encoders[ec.OID] = &Encoder{EncoderChannel: enc, Config: ec}
	}

	for _, mc := range cfg.Motors {
		timer, chA, err := b.resolve(mc.Timer, mc.ChannelA)
		if err != nil {
			return nil, fmt.Errorf("motor oid %d: %w", mc.OID, err)
		}
		_, chB, err := b.resolve(mc.Timer, mc.ChannelB)
		if err != nil {
			return nil, fmt.Errorf("motor oid %d: %w", mc.OID, err)
		}
		drv, err := motor.New(timer, chA, chB)
		if err != nil {
			return nil, fmt.Errorf("motor oid %d: %w", mc.OID, err)
		}
		b.motors[mc.OID] = &Motor{DRV8870: drv, Config: mc}
	}

	return b, nil
}

func (b *Board) timerByName(name string) (*core.TimerResource, error) {
	block, ok := core.BlockByName(name)
	if !ok {
		return nil, core.ErrInvalidParameter
	}
	timer, ok := b.timers[block]
	if !ok {
		return nil, core.ErrInvalidParameter
	}
	return timer, nil
}

func (b *Board) resolve(name string, number uint8) (*core.TimerResource, core.Channel, error) {
	timer, err := b.timerByName(name)
	if err != nil {
		return nil, core.Channel{}, err
	}
	if number == 0 {
		return nil, core.Channel{}, core.ErrInvalidParameter
	}
	ch, err := core.ChannelFromIndex(number - 1)
	if err != nil {
		return nil, core.Channel{}, err
	}
	return timer, ch, nil
}

// Timer returns the resource for a block
func (b *Board) Timer(block core.BlockID) (*core.TimerResource, bool) {
	t, ok := b.timers[block]
	return t, ok
}

// Timers returns the resources in declaration order
func (b *Board) Timers() []*core.TimerResource {
	timers := make([]*core.TimerResource, 0, len(b.order))
	for _, block := range b.order {
		timers = append(timers, b.timers[block])
	}
	return timers
}

// PWM looks up an output channel by oid
func (b *Board) PWM(oid uint8) (*PWM, error) {
	if p, ok := b.pwms[oid]; ok {
		return p, nil
	}
	return nil, ErrUnknownOID
}

// Encoder looks up an encoder by oid
func (b *Board) Encoder(oid uint8) (*Encoder, error) {
	if e, ok := b.encoders[oid]; ok {
		return e, nil
	}
	return nil, ErrUnknownOID
}

// Motor looks up a motor by oid
func (b *Board) Motor(oid uint8) (*Motor, error) {
	if m, ok := b.motors[oid]; ok {
		return m, nil
	}
	return nil, ErrUnknownOID
}

// Counts returns how many PWM channels, encoders and motors were built
func (b *Board) Counts() (pwms, encoders, motors int) {
	return len(b.pwms), len(b.encoders), len(b.motors)
}

// Start programs every object with its configured defaults, in config
// order: PWM channels are initialised and started, encoders initialised and
// started, motors initialised braked. The first failure aborts.
func (b *Board) Start() error {
	for _, pc := range b.cfg.PWM {
		p := b.pwms[pc.OID]
		if err := p.Init(pc.FrequencyHz, pc.DutyTenthPct); err != nil {
			return fmt.Errorf("pwm oid %d: %w", pc.OID, err)
		}
		if err := p.PWMChannel.Start(); err != nil && !errors.Is(err, core.ErrAlreadyStarted) {
			return fmt.Errorf("pwm oid %d: %w", pc.OID, err)
		}
	}
	for _, ec := range b.cfg.Encoders {
		e := b.encoders[ec.OID]
		if err := e.Init(ec.MaxCount, ec.Filter); err != nil {
			return fmt.Errorf("encoder oid %d: %w", ec.OID, err)
		}
		if err := e.EncoderChannel.Start(); err != nil && !errors.Is(err, core.ErrAlreadyStarted) {
			return fmt.Errorf("encoder oid %d: %w", ec.OID, err)
		}
	}
	for _, mc := range b.cfg.Motors {
		if err := b.motors[mc.OID].Init(mc.FrequencyHz); err != nil {
			return fmt.Errorf("motor oid %d: %w", mc.OID, err)
		}
	}
	return nil
}
