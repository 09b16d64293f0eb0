package core

import "sync"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimerEvent captures a driver event for post-mortem analysis
type TimerEvent struct {
	EventType uint8   // Event type code
	Block     BlockID // Timer block the event happened on
	Channel   uint8   // One-based channel number, 0 when not channel specific
	Value1    uint32  // Context-dependent value
	Value2    uint32  // Context-dependent value
}

// Event type codes
const (
	EvtClaim         = 1 // Channel mode claimed
	EvtClaimConflict = 2 // Claim rejected, channel already in use
	EvtClaimInvalid  = 3 // Claim rejected by the capability table
	EvtLockTimeout   = 4 // Register lock not acquired in time
	EvtHardwareFault = 5 // Register primitive reported a failure
	EvtPWMInit       = 6 // PWM registers written (v1=divider, v2=period)
	EvtEncoderInit   = 7 // Encoder configured (v1=max count, v2=filter)
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether debug output is active
	debugEnabled bool

	eventMu       sync.Mutex
	eventRing     [EventRingSize]TimerEvent
	eventRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent captures an event in the ring buffer. It never blocks on the
// debug writer.
func RecordEvent(eventType uint8, block BlockID, channel uint8, value1, value2 uint32) {
	eventMu.Lock()
	idx := eventRingHead
	eventRing[idx] = TimerEvent{
		EventType: eventType,
		Block:     block,
		Channel:   channel,
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
	eventMu.Unlock()
}

// Events returns the recorded events, oldest first
func Events() []TimerEvent {
	eventMu.Lock()
	defer eventMu.Unlock()

	events := make([]TimerEvent, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(eventRingHead+i)%EventRingSize]
		if evt.EventType == 0 {
			continue
		}
		events = append(events, evt)
	}
	return events
}

// DumpEventRing outputs the event ring through the debug writer
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMER] === Event Ring Dump ===")
	for _, evt := range Events() {
		var name string
		switch evt.EventType {
		case EvtClaim:
			name = "CLAIM"
		case EvtClaimConflict:
			name = "CLAIM_CONFLICT!"
		case EvtClaimInvalid:
			name = "CLAIM_INVALID!"
		case EvtLockTimeout:
			name = "LOCK_TIMEOUT!"
		case EvtHardwareFault:
			name = "HW_FAULT!"
		case EvtPWMInit:
			name = "PWM_INIT"
		case EvtEncoderInit:
			name = "ENC_INIT"
		default:
			name = "UNKNOWN"
		}

		debugPrintln("[TIMER] " + name + " " + evt.Block.String() +
			kv("ch", uint32(evt.Channel)) +
			kv("v1", evt.Value1) +
			kv("v2", evt.Value2))
	}
	debugPrintln("[TIMER] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	eventMu.Lock()
	for i := range eventRing {
		eventRing[i] = TimerEvent{}
	}
	eventRingHead = 0
	eventMu.Unlock()
}
