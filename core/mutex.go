package core

import "time"

// Lock guards the registers of one timer block. A single Lock value is
// shared, by reference, between a TimerResource and every channel bound to
// it.
type Lock interface {
	// Acquire waits up to timeoutMs for the lock and reports whether it was
	// taken
	Acquire(timeoutMs uint32) bool

	// Release gives the lock back. It reports false when the lock was not
	// held; releasing without holding is a caller bug and is not repaired.
	Release() bool
}

// NoLock is the pass-through lock for single-threaded builds. Acquire and
// Release always succeed.
type NoLock struct{}

func (NoLock) Acquire(uint32) bool { return true }
func (NoLock) Release() bool       { return true }

// Mutex is a timed mutual-exclusion lock backed by a one-slot channel.
// A timeout of 0 waits until the lock is free.
type Mutex struct {
	sem chan struct{}
}

// NewMutex creates an unlocked Mutex
func NewMutex() *Mutex {
	return &Mutex{sem: make(chan struct{}, 1)}
}

// Acquire takes the lock, giving up after timeoutMs milliseconds
func (m *Mutex) Acquire(timeoutMs uint32) bool {
	// Fast path, also keeps zero-timeout callers off the timer
	select {
	case m.sem <- struct{}{}:
		return true
	default:
	}

	if timeoutMs == 0 {
		m.sem <- struct{}{}
		return true
	}

	timer := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
	defer timer.Stop()

	select {
	case m.sem <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

// Release frees the lock
func (m *Mutex) Release() bool {
	select {
	case <-m.sem:
		return true
	default:
		return false
	}
}
