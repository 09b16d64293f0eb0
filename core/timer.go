package core

// LockTimeoutMs is how long a register access waits for the timer lock
const LockTimeoutMs = 5

// TimerResource owns one physical timer block: its registers, its lock and
// the claimed mode of each channel.
//
// One TimerResource must exist per physical block. Two resources wrapping
// the same block are not serialized against each other.
//
// Claims are expected during single-threaded setup, before channels are
// used concurrently. A claimed channel is only given back when the encoder
// Init that took it fails.
type TimerResource struct {
	regs  TimerRegisters
	clock ClockSource
	lock  Lock
	caps  Capability

	modes [MaxChannels]ChannelMode
}

// NewTimerResource binds a register set, its clock and an optional lock.
// A nil lock selects NoLock. Nil registers or clock are wiring bugs and
// panic.
func NewTimerResource(regs TimerRegisters, clock ClockSource, lock Lock) *TimerResource {
	if regs == nil {
		panic("core: timer registers not configured")
	}
	if clock == nil {
		panic("core: timer clock not configured")
	}
	if lock == nil {
		lock = NoLock{}
	}
	return &TimerResource{
		regs:  regs,
		clock: clock,
		lock:  lock,
		caps:  LookupCapability(regs.Block()),
	}
}

// Block returns the hardware identity of the timer block
func (t *TimerResource) Block() BlockID {
	return t.regs.Block()
}

// Capability returns the capability table entry of the timer block
func (t *TimerResource) Capability() Capability {
	return t.caps
}

// Mode returns the claimed mode of a channel
func (t *TimerResource) Mode(ch Channel) ChannelMode {
	return t.modes[ch.index]
}

// IsQuadrature reports whether the block has been claimed as a quadrature
// counter
func (t *TimerResource) IsQuadrature() bool {
	return t.modes[Channel1.index] == ModeQuadrature || t.modes[Channel2.index] == ModeQuadrature
}

// SourceFrequencyHz returns the clock frequency feeding the block
func (t *TimerResource) SourceFrequencyHz() uint32 {
	return t.clock.SourceFrequencyHz(t.regs.Block())
}

// CheckOutputCompare returns the error ClaimOutputCompare would return for
// ch, without claiming anything
func (t *TimerResource) CheckOutputCompare(ch Channel) error {
	if !t.caps.SupportsOutput(ch) {
		return ErrModeInvalid
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	if t.IsQuadrature() || t.modes[ch.index] != ModeUnclaimed {
		return ErrModeConflict
	}
	return nil
}

// ClaimOutputCompare permanently claims a channel for output compare (PWM).
// The block must support output compare on that channel, the channel must
// be unclaimed, and the block must not be counting quadrature.
func (t *TimerResource) ClaimOutputCompare(ch Channel) error {
	block := t.regs.Block()
	if !t.caps.SupportsOutput(ch) {
		RecordEvent(EvtClaimInvalid, block, ch.Number(), uint32(ModeOutputCompare), 0)
		DebugPrintln("[TIMER] " + block.String() + " " + ch.String() + " does not support output compare")
		return ErrModeInvalid
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	if t.IsQuadrature() || t.modes[ch.index] != ModeUnclaimed {
		RecordEvent(EvtClaimConflict, block, ch.Number(), uint32(ModeOutputCompare), uint32(t.modes[ch.index]))
		return ErrModeConflict
	}
	t.modes[ch.index] = ModeOutputCompare
	RecordEvent(EvtClaim, block, ch.Number(), uint32(ModeOutputCompare), 0)
	return nil
}

// ClaimQuadrature permanently claims Channel1 and Channel2 as a quadrature
// counter pair
func (t *TimerResource) ClaimQuadrature() error {
	block := t.regs.Block()
	if !t.caps.Quadrature {
		RecordEvent(EvtClaimInvalid, block, 0, uint32(ModeQuadrature), 0)
		DebugPrintln("[TIMER] " + block.String() + " is not quadrature capable")
		return ErrModeInvalid
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	if t.modes[Channel1.index] != ModeUnclaimed || t.modes[Channel2.index] != ModeUnclaimed {
		RecordEvent(EvtClaimConflict, block, 0, uint32(ModeQuadrature),
			uint32(t.modes[Channel1.index])<<8|uint32(t.modes[Channel2.index]))
		return ErrModeConflict
	}
	t.modes[Channel1.index] = ModeQuadrature
	t.modes[Channel2.index] = ModeQuadrature
	RecordEvent(EvtClaim, block, 0, uint32(ModeQuadrature), 0)
	return nil
}

// releaseQuadrature undoes a ClaimQuadrature whose configuration failed
func (t *TimerResource) releaseQuadrature() {
	state := disableInterrupts()
	t.modes[Channel1.index] = ModeUnclaimed
	t.modes[Channel2.index] = ModeUnclaimed
	restoreInterrupts(state)
}

// withLock runs op while holding the timer lock. A lock timeout fails fast
// with ErrResourceBlocked and op does not run.
func (t *TimerResource) withLock(op func(regs TimerRegisters) error) error {
	if !t.lock.Acquire(LockTimeoutMs) {
		RecordEvent(EvtLockTimeout, t.regs.Block(), 0, LockTimeoutMs, 0)
		return ErrResourceBlocked
	}
	defer t.lock.Release()
	return op(t.regs)
}

// counter reads the live counter without taking the lock. A torn read of a
// free-running counter is an accepted approximation.
func (t *TimerResource) counter() uint32 {
	return t.regs.Counter()
}

// hardwareFault records and wraps a register primitive failure
func (t *TimerResource) hardwareFault(op string, ch uint8, err error) error {
	RecordEvent(EvtHardwareFault, t.regs.Block(), ch, 0, 0)
	DebugPrintln("[TIMER] " + t.regs.Block().String() + " " + op + " failed: " + err.Error())
	return wrapHardware(op, err)
}
