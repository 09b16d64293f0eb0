package core

import (
	"errors"
	"testing"
)

func newTestEncoder(t *testing.T) (*EncoderChannel, *mockRegisters) {
	t.Helper()
	regs := newMockRegisters(TIM2)
	enc, err := NewEncoderChannel(NewTimerResource(regs, FixedClock(170000000), NewMutex()))
	if err != nil {
		t.Fatalf("NewEncoderChannel: %v", err)
	}
	return enc, regs
}

func TestEncoderLifecycle(t *testing.T) {
	enc, regs := newTestEncoder(t)

	if err := enc.Start(); err != ErrUninitialized {
		t.Errorf("Start before Init: %v", err)
	}
	if err := enc.Stop(); err != ErrUninitialized {
		t.Errorf("Stop before Init: %v", err)
	}
	if err := enc.SetCount(1); err != ErrUninitialized {
		t.Errorf("SetCount before Init: %v", err)
	}

	if err := enc.Init(0xFFFF, 40); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !regs.encoder || regs.filter != EncoderFilterMax || regs.period != 0xFFFF || regs.divider != 0 {
		t.Errorf("registers encoder=%v filter=%d period=%d divider=%d",
			regs.encoder, regs.filter, regs.period, regs.divider)
	}
	if enc.MaxCount() != 0xFFFF || !enc.Initialized() {
		t.Error("encoder not initialized")
	}

	if err := enc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := enc.Start(); err != ErrAlreadyStarted {
		t.Errorf("second Start: %v", err)
	}
	if !regs.counting || !enc.Started() {
		t.Error("counter not enabled")
	}
	if err := enc.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := enc.Stop(); err != ErrAlreadyStopped {
		t.Errorf("second Stop: %v", err)
	}

	// re-Init keeps the existing claim
	if err := enc.Init(4096, 2); err != nil {
		t.Errorf("re-Init: %v", err)
	}
}

func TestEncoderInitRejects(t *testing.T) {
	enc, _ := newTestEncoder(t)
	if err := enc.Init(0, 0); err != ErrInvalidParameter {
		t.Errorf("zero max count: %v", err)
	}

	other := NewTimerResource(newMockRegisters(TIM12), FixedClock(1000000), nil)
	enc, err := NewEncoderChannel(other)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Init(0xFFFF, 0); err != ErrModeInvalid {
		t.Errorf("block without encoder: %v", err)
	}
	if enc.Initialized() {
		t.Error("rejected Init marked the encoder initialized")
	}

	if _, err := NewEncoderChannel(nil); err != ErrNullParameter {
		t.Errorf("nil timer: %v", err)
	}
}

func TestEncoderSecondChannelConflicts(t *testing.T) {
	tim := NewTimerResource(newMockRegisters(TIM4), FixedClock(1000000), nil)
	first, _ := NewEncoderChannel(tim)
	second, _ := NewEncoderChannel(tim)
	if err := first.Init(100, 0); err != nil {
		t.Fatal(err)
	}
	if err := second.Init(100, 0); err != ErrModeConflict {
		t.Errorf("got %v, want ErrModeConflict", err)
	}
}

func TestEncoderCountWraps(t *testing.T) {
	enc, regs := newTestEncoder(t)
	if err := enc.Init(0xFFFF, 0); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		raw  uint32
		want int16
	}{
		{0, 0},
		{0x7FFF, 32767},
		{0x8000, -32768},
		{0xFFFF, -1},
		{0x12345, 0x2345},
	}
	for _, tt := range tests {
		regs.counter = tt.raw
		if got := enc.Count(); got != tt.want {
			t.Errorf("raw %#x: got %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestEncoderSetCount(t *testing.T) {
	enc, regs := newTestEncoder(t)
	if err := enc.Init(4096, 0); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		count int16
		want  uint32
	}{
		{100, 100},
		{4096, 4096},
		{5000, 904},
		{-1, 0xFFFF % 4096},
	}
	for _, tt := range tests {
		if err := enc.SetCount(tt.count); err != nil {
			t.Fatalf("SetCount(%d): %v", tt.count, err)
		}
		if regs.counter != tt.want {
			t.Errorf("SetCount(%d) wrote %d, want %d", tt.count, regs.counter, tt.want)
		}
	}

	if err := enc.ResetCount(); err != nil || regs.counter != 0 {
		t.Errorf("ResetCount: %v counter=%d", err, regs.counter)
	}

	regs.failOp = "set_counter"
	if err := enc.SetCount(1); !errors.Is(err, ErrHardwareFailure) {
		t.Errorf("faulted SetCount: %v", err)
	}
}

func TestEncoderStartFault(t *testing.T) {
	enc, regs := newTestEncoder(t)
	if err := enc.Init(100, 0); err != nil {
		t.Fatal(err)
	}
	regs.failOp = "counter_on"
	if err := enc.Start(); !errors.Is(err, ErrHardwareFailure) {
		t.Errorf("Start: %v", err)
	}
	if enc.Started() {
		t.Error("failed Start marked the encoder started")
	}
}

func TestEncoderInitBlockedLeavesBlockUnclaimed(t *testing.T) {
	tim := NewTimerResource(newMockRegisters(TIM2), FixedClock(170000000), heldMutex())
	enc, err := NewEncoderChannel(tim)
	if err != nil {
		t.Fatal(err)
	}

	if err := enc.Init(0xFFFF, 0); err != ErrResourceBlocked {
		t.Fatalf("Init: %v", err)
	}
	if tim.Mode(Channel1) != ModeUnclaimed || tim.Mode(Channel2) != ModeUnclaimed {
		t.Errorf("modes %v/%v after blocked Init", tim.Mode(Channel1), tim.Mode(Channel2))
	}
	if _, err := NewPWMChannel(tim, Channel1); err != nil {
		t.Errorf("output compare claim after blocked Init: %v", err)
	}
}

func TestEncoderInitFaultReleasesClaim(t *testing.T) {
	regs := newMockRegisters(TIM2)
	tim := NewTimerResource(regs, FixedClock(170000000), nil)
	enc, _ := NewEncoderChannel(tim)

	regs.failOp = "encoder"
	if err := enc.Init(100, 0); !errors.Is(err, ErrHardwareFailure) {
		t.Fatalf("Init: %v", err)
	}
	if tim.IsQuadrature() || enc.Initialized() {
		t.Error("failed Init kept the quadrature claim")
	}

	regs.failOp = ""
	if err := enc.Init(100, 0); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !tim.IsQuadrature() {
		t.Error("retry did not claim the pair")
	}
}

func TestEncoderLockTimeout(t *testing.T) {
	lock := NewMutex()
	regs := newMockRegisters(TIM2)
	enc, _ := NewEncoderChannel(NewTimerResource(regs, FixedClock(170000000), lock))
	if err := enc.Init(1000, 0); err != nil {
		t.Fatal(err)
	}
	regs.counter = 42

	lock.Acquire(0)
	tests := []struct {
		name string
		op   func() error
	}{
		{"Start", enc.Start},
		{"SetCount", func() error { return enc.SetCount(7) }},
		{"ResetCount", enc.ResetCount},
	}
	for _, tt := range tests {
		if err := tt.op(); err != ErrResourceBlocked {
			t.Errorf("%s: got %v, want ErrResourceBlocked", tt.name, err)
		}
	}
	if enc.Started() || regs.counting || regs.counter != 42 {
		t.Errorf("blocked calls changed state: started=%v counting=%v counter=%d",
			enc.Started(), regs.counting, regs.counter)
	}

	// Count reads the counter without the lock
	if got := enc.Count(); got != 42 {
		t.Errorf("Count with lock held = %d, want 42", got)
	}

	lock.Release()
	if err := enc.Start(); err != nil {
		t.Fatal(err)
	}
	lock.Acquire(0)
	if err := enc.Stop(); err != ErrResourceBlocked {
		t.Errorf("Stop: %v", err)
	}
	if !enc.Started() || !regs.counting {
		t.Error("blocked Stop changed state")
	}
	lock.Release()
}

func TestEncoderSetCountFullRangeNegative(t *testing.T) {
	enc, regs := newTestEncoder(t)
	if err := enc.Init(0xFFFF, 0); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		count int16
		want  uint32
	}{
		{-1, 0xFFFF},
		{-2, 0xFFFE},
		{-32768, 0x8000},
	}
	for _, tt := range tests {
		if err := enc.SetCount(tt.count); err != nil {
			t.Fatalf("SetCount(%d): %v", tt.count, err)
		}
		if regs.counter != tt.want {
			t.Errorf("SetCount(%d) wrote %#x, want %#x", tt.count, regs.counter, tt.want)
		}
		if got := enc.Count(); got != tt.count {
			t.Errorf("Count after SetCount(%d) = %d", tt.count, got)
		}
	}
}
