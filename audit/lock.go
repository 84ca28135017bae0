/*
lock.go - System lock

PURPOSE:
  Process-wide mutual exclusion while a closure runs. Check-in,
  check-out and payment posting must be rejected or deferred by their
  own components while the lock is held; this engine only exposes who
  holds it and why. Acquisition fails fast - callers never queue.

SEE ALSO:
  - coordinator.go: acquires around PROCESSING and SEALING
  - notify package: lock events broadcast to connected sessions
*/
package audit

import (
	"sync"
	"time"
)

// LockInfo describes the current holder.
type LockInfo struct {
	Holder string    `json:"holder"`
	Reason string    `json:"reason"`
	Since  time.Time `json:"since"`
}

// SystemLock is the sole concurrency primitive of the closure engine.
// It exists per store; two closure attempts against the same store can
// never both proceed.
type SystemLock struct {
	mu     sync.Mutex
	holder *LockInfo
	now    func() time.Time
}

// NewSystemLock creates an unheld lock.
func NewSystemLock() *SystemLock {
	return &SystemLock{now: time.Now}
}

// Acquire takes the lock, failing fast with a LockHeldError that names
// the current holder if one exists.
func (l *SystemLock) Acquire(holder, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holder != nil {
		return &LockHeldError{
			Holder: l.holder.Holder,
			Reason: l.holder.Reason,
			Since:  l.holder.Since,
		}
	}
	l.holder = &LockInfo{Holder: holder, Reason: reason, Since: l.now()}
	return nil
}

// Release frees the lock. Releasing an unheld lock is a no-op.
func (l *SystemLock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holder = nil
}

// Holder returns a copy of the current holder info, or nil when unheld.
func (l *SystemLock) Holder() *LockInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder == nil {
		return nil
	}
	info := *l.holder
	return &info
}

// Held reports whether the lock is currently taken.
func (l *SystemLock) Held() bool {
	return l.Holder() != nil
}
