package core

import (
	"strings"
	"testing"
)

func TestEventRingKeepsNewest(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()

	for i := uint32(0); i < EventRingSize+8; i++ {
		RecordEvent(EvtPWMInit, TIM3, 1, i, 0)
	}
	events := Events()
	if len(events) != EventRingSize {
		t.Fatalf("got %d events, want %d", len(events), EventRingSize)
	}
	if events[0].Value1 != 8 || events[len(events)-1].Value1 != EventRingSize+7 {
		t.Errorf("ring holds %d..%d", events[0].Value1, events[len(events)-1].Value1)
	}
}

func TestClaimsRecordEvents(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()

	tim := NewTimerResource(newMockRegisters(TIM3), FixedClock(1000000), nil)
	_ = tim.ClaimOutputCompare(Channel1)
	_ = tim.ClaimOutputCompare(Channel1)

	events := Events()
	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}
	if events[0].EventType != EvtClaim || events[1].EventType != EvtClaimConflict {
		t.Errorf("event types %d, %d", events[0].EventType, events[1].EventType)
	}
	if events[1].Block != TIM3 || events[1].Channel != 1 {
		t.Errorf("conflict event %+v", events[1])
	}
}

func TestDumpEventRing(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	RecordEvent(EvtLockTimeout, TIM2, 0, LockTimeoutMs, 0)
	DumpEventRing()

	if len(lines) != 3 {
		t.Fatalf("got %d lines: %v", len(lines), lines)
	}
	if !strings.Contains(lines[1], "LOCK_TIMEOUT!") || !strings.Contains(lines[1], "TIM2") ||
		!strings.Contains(lines[1], "v1=5") {
		t.Errorf("dump line %q", lines[1])
	}
}

func TestDebugPrintlnGated(t *testing.T) {
	var got []string
	SetDebugWriter(func(s string) { got = append(got, s) })
	defer SetDebugWriter(func(string) {})
	defer SetDebugEnabled(false)

	SetDebugEnabled(false)
	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")

	if len(got) != 1 || got[0] != "shown" || !IsDebugEnabled() {
		t.Errorf("got %v", got)
	}
}
