package loader

import "sync/atomic"

// loadLock provides non-blocking lock semantics using atomic operations.
// A second load attempted while one is running fails fast instead of queueing.
type loadLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// tryAcquire attempts to acquire the lock without blocking
func (l *loadLock) tryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// release must only be called by the goroutine that acquired the lock
func (l *loadLock) release() {
	l.state.Store(0)
}
