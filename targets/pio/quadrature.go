//go:build rp2040

// Package pio counts quadrature encoders on RP2040 PIO state machines. The
// state machine only samples the A/B pins; edge decoding, the input filter
// and the auto-reload counter run in core.QuadratureDecoder.
package pio

import (
	"errors"
	"machine"
	"sync"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"timerhal/core"
)

var (
	errNotSupported = errors.New("pio: operation not supported by quadrature block")
	errNoSampler    = errors.New("pio: state machine not configured")
)

const (
	samplesPerWord   = 16   // 2 bits per sample, autopush at 32
	sampleClockDiv   = 1250 // 125 MHz / 1250 = 100 kHz sample rate
	quadratureOrigin = -1   // load anywhere
)

// buildQuadratureProgram creates the one-instruction sampling program
// using AssemblerV0. `in pins, 2` shifts A into bit 0 and B into bit 1 of
// each sample; with right shift and autopush the oldest sample ends up in
// the low bits of every pushed word.
func buildQuadratureProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.In(rp2pio.InSrcPins, 2).Encode(), // 0: in pins, 2
		// .wrap
	}
}

// QuadratureBlock implements core.TimerRegisters for one PIO state machine
// sampling an encoder on pins base (A) and base+1 (B)
type QuadratureBlock struct {
	mu sync.Mutex

	block   core.BlockID
	pio     *rp2pio.PIO
	sm      rp2pio.StateMachine
	pinA    machine.Pin
	offset  uint8
	loaded  bool
	running bool

	period  uint32
	counter uint32
	decoder *core.QuadratureDecoder
	overrun uint32
}

// NewQuadratureBlock binds state machine smNum of PIO pioNum to an encoder
// on pinA and pinA+1
func NewQuadratureBlock(pioNum, smNum uint8, pinA machine.Pin) *QuadratureBlock {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &QuadratureBlock{
		block:   core.RP2PIOQuad0 + core.BlockID(pioNum*4+smNum),
		pio:     pioHW,
		sm:      pioHW.StateMachine(smNum),
		pinA:    pinA,
		decoder: core.NewQuadratureDecoder(0),
	}
}

func (q *QuadratureBlock) Block() core.BlockID { return q.block }

// The sampler has no prescaler; the divider always reads back as 0
func (q *QuadratureBlock) SetDivider(uint32) error { return nil }
func (q *QuadratureBlock) Divider() uint32         { return 0 }

func (q *QuadratureBlock) SetPeriod(value uint32) error {
	q.mu.Lock()
	q.period = value
	q.mu.Unlock()
	return nil
}

func (q *QuadratureBlock) Period() uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.period
}

func (q *QuadratureBlock) SetCompare(core.Channel, uint32) error { return errNotSupported }
func (q *QuadratureBlock) Compare(core.Channel) uint32           { return 0 }
func (q *QuadratureBlock) EnableOutput(core.Channel) error       { return errNotSupported }
func (q *QuadratureBlock) DisableOutput(core.Channel) error      { return errNotSupported }

// ConfigureEncoder loads the sampling program (once) and sets the input
// filter
func (q *QuadratureBlock) ConfigureEncoder(filter uint8) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.decoder.SetFilter(filter)
	if q.loaded {
		return nil
	}

	q.sm.TryClaim()
	program := buildQuadratureProgram()
	offset, err := q.pio.AddProgram(program, quadratureOrigin)
	if err != nil {
		return err
	}
	q.offset = offset

	pinB := q.pinA + 1
	q.pinA.Configure(machine.PinConfig{Mode: q.pio.PinMode()})
	pinB.Configure(machine.PinConfig{Mode: q.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetInPins(q.pinA)
	cfg.SetInShift(true, true, 32)
	cfg.SetFIFOJoin(rp2pio.FifoJoinRx)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(sampleClockDiv, 0)

	q.sm.Init(offset, cfg)
	q.sm.SetPindirsConsecutive(q.pinA, 2, false)
	q.decoder.Reset(q.pinA.Get(), pinB.Get())
	q.loaded = true
	return nil
}

func (q *QuadratureBlock) EnableCounter() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.loaded {
		return errNoSampler
	}
	q.sm.SetEnabled(true)
	q.running = true
	return nil
}

func (q *QuadratureBlock) DisableCounter() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.loaded {
		return errNoSampler
	}
	q.sm.SetEnabled(false)
	q.sm.ClearFIFOs()
	q.running = false
	return nil
}

// Counter drains pending samples before reading
func (q *QuadratureBlock) Counter() uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.drain()
	return q.counter
}

func (q *QuadratureBlock) SetCounter(value uint32) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.drain()
	q.counter = value
	return nil
}

// Poll decodes every sample word waiting in the RX FIFO. It must run often
// enough that the joined FIFO (8 words, 128 samples) never fills.
func (q *QuadratureBlock) Poll() {
	q.mu.Lock()
	q.drain()
	q.mu.Unlock()
}

// Overruns counts polls that found the RX FIFO full, where samples may have
// been lost
func (q *QuadratureBlock) Overruns() uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.overrun
}

// drain must be called with mu held
func (q *QuadratureBlock) drain() {
	if !q.running {
		return
	}
	if q.sm.IsRxFIFOFull() {
		q.overrun++
	}
	for !q.sm.IsRxFIFOEmpty() {
		delta := q.decoder.SampleWord(q.sm.RxGet(), samplesPerWord)
		if delta != 0 {
			q.counter = core.AdvanceCounter(q.counter, q.period, delta)
		}
	}
}
