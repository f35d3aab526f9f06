// File: core/concurrency/spinlock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Busy-wait mutual exclusion for very short critical sections.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// spinlockSpins is the number of failed acquire attempts before yielding the P.
const spinlockSpins = 64

var _ sync.Locker = (*Spinlock)(nil)

// Spinlock is a test-and-test-and-set lock. The zero value is unlocked.
type Spinlock struct {
	state atomic.Uint32
}

// Lock acquires the lock, spinning and then yielding while it is held elsewhere.
func (s *Spinlock) Lock() {
	spins := 0
	for {
		if s.state.Load() == 0 && s.state.CompareAndSwap(0, 1) {
			return
		}
		spins++
		if spins >= spinlockSpins {
			runtime.Gosched()
			spins = 0
		}
	}
}

// TryLock acquires the lock only if it is free.
func (s *Spinlock) TryLock() bool {
	return s.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock. Unlocking an unlocked Spinlock panics.
func (s *Spinlock) Unlock() {
	if s.state.Swap(0) != 1 {
		panic("concurrency: unlock of unlocked Spinlock")
	}
}
