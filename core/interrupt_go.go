//go:build !tinygo

package core

// interruptState is a placeholder for interrupt state on regular Go
type interruptState uintptr

// disableInterrupts is a no-op on regular Go (for testing)
func disableInterrupts() interruptState {
	return 0
}

// restoreInterrupts is a no-op on regular Go (for testing)
func restoreInterrupts(interruptState) {}
