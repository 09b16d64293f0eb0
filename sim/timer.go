// Package sim models timer block registers in memory so that the driver
// layer can run and be tested without hardware.
package sim

import (
	"errors"
	"sync"

	"timerhal/core"
)

// ErrInjected is returned by operations armed with FailOn
var ErrInjected = errors.New("sim: injected register fault")

// Register operation names accepted by FailOn
const (
	OpSetDivider       = "set_divider"
	OpSetPeriod        = "set_period"
	OpSetCompare       = "set_compare"
	OpEnableOutput     = "enable_output"
	OpDisableOutput    = "disable_output"
	OpConfigureEncoder = "configure_encoder"
	OpEnableCounter    = "enable_counter"
	OpDisableCounter   = "disable_counter"
	OpSetCounter       = "set_counter"
)

// TimerBlock is an in-memory register set for one timer block. It
// implements core.TimerRegisters.
type TimerBlock struct {
	mu sync.Mutex

	block    core.BlockID
	divider  uint32
	period   uint32
	compare  [core.MaxChannels]uint32
	outputs  [core.MaxChannels]bool
	counter  uint32
	counting bool

	encoder bool
	filter  uint8
	decoder *core.QuadratureDecoder

	faults map[string]error
	writes int
}

// NewTimerBlock creates a register set in its reset state
func NewTimerBlock(block core.BlockID) *TimerBlock {
	return &TimerBlock{
		block:   block,
		decoder: core.NewQuadratureDecoder(0),
		faults:  make(map[string]error),
	}
}

// FailOn arms a fault: every later call to op returns err. A nil err
// selects ErrInjected.
func (b *TimerBlock) FailOn(op string, err error) {
	if err == nil {
		err = ErrInjected
	}
	b.mu.Lock()
	b.faults[op] = err
	b.mu.Unlock()
}

// ClearFaults disarms every fault
func (b *TimerBlock) ClearFaults() {
	b.mu.Lock()
	b.faults = make(map[string]error)
	b.mu.Unlock()
}

// fault must be called with mu held
func (b *TimerBlock) fault(op string) error {
	if err, ok := b.faults[op]; ok {
		return err
	}
	b.writes++
	return nil
}

func (b *TimerBlock) Block() core.BlockID {
	return b.block
}

func (b *TimerBlock) SetDivider(value uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fault(OpSetDivider); err != nil {
		return err
	}
	b.divider = value
	return nil
}

func (b *TimerBlock) Divider() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.divider
}

func (b *TimerBlock) SetPeriod(value uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fault(OpSetPeriod); err != nil {
		return err
	}
	b.period = value
	return nil
}

func (b *TimerBlock) Period() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.period
}

func (b *TimerBlock) SetCompare(ch core.Channel, value uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fault(OpSetCompare); err != nil {
		return err
	}
	b.compare[ch.Index()] = value
	return nil
}

func (b *TimerBlock) Compare(ch core.Channel) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.compare[ch.Index()]
}

func (b *TimerBlock) EnableOutput(ch core.Channel) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fault(OpEnableOutput); err != nil {
		return err
	}
	b.outputs[ch.Index()] = true
	return nil
}

func (b *TimerBlock) DisableOutput(ch core.Channel) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fault(OpDisableOutput); err != nil {
		return err
	}
	b.outputs[ch.Index()] = false
	return nil
}

func (b *TimerBlock) ConfigureEncoder(filter uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fault(OpConfigureEncoder); err != nil {
		return err
	}
	b.encoder = true
	b.filter = filter
	b.decoder.SetFilter(filter)
	return nil
}

func (b *TimerBlock) EnableCounter() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fault(OpEnableCounter); err != nil {
		return err
	}
	b.counting = true
	return nil
}

func (b *TimerBlock) DisableCounter() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fault(OpDisableCounter); err != nil {
		return err
	}
	b.counting = false
	return nil
}

func (b *TimerBlock) Counter() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counter
}

func (b *TimerBlock) SetCounter(value uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fault(OpSetCounter); err != nil {
		return err
	}
	b.counter = value
	return nil
}

// Output reports whether compare output is enabled on ch
func (b *TimerBlock) Output(ch core.Channel) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outputs[ch.Index()]
}

// Counting reports whether the quadrature counter is enabled
func (b *TimerBlock) Counting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counting
}

// Encoder reports whether the block is configured for quadrature and the
// configured input filter
func (b *TimerBlock) Encoder() (bool, uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.encoder, b.filter
}

// Writes returns the number of successful register writes
func (b *TimerBlock) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// Step moves the counter by delta as if the encoder had turned. Nothing
// happens while counting is disabled.
func (b *TimerBlock) Step(delta int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.counting {
		return
	}
	b.counter = core.AdvanceCounter(b.counter, b.period, delta)
}

// Feed samples the A/B encoder inputs through the block's input filter
// and counts the resulting edge, if any
func (b *TimerBlock) Feed(a, bIn bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	step := b.decoder.Sample(a, bIn)
	if !b.counting || step == 0 {
		return
	}
	b.counter = core.AdvanceCounter(b.counter, b.period, int32(step))
}

// HeldLock returns a mutex that is already held by another task, so that
// every timed Acquire on it times out
func HeldLock() *core.Mutex {
	m := core.NewMutex()
	m.Acquire(0)
	return m
}
