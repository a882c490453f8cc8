//go:build linux

/*
 *
 * Copyright 2025 gRPC authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package mutex

import (
	"sync/atomic"

	"github.com/bboreham/capnproto/internal/futex"
)

// RWLock state word layout. All three fields are packed into one 32-bit
// word so that every transition is a single atomic operation; splitting
// them would make the composite transitions racy.
//
//	bit 31      exclusiveHeld       a writer holds the lock
//	bit 30      exclusiveRequested  at least one writer is waiting
//	bits 0..29  sharedCountMask     readers holding or blocked (they
//	                                pre-increment before sleeping)
const (
	exclusiveHeld      uint32 = 1 << 31
	exclusiveRequested uint32 = 1 << 30
	sharedCountMask    uint32 = exclusiveRequested - 1
)

// RWLock is a futex-backed reader/writer mutex. The zero value is an
// unlocked lock. An RWLock must not be copied after first use.
type RWLock struct {
	state uint32
}

// Lock acquires the lock exclusively, blocking until no other holder
// (shared or exclusive) remains.
func (l *RWLock) Lock() {
	for {
		state := atomic.LoadUint32(&l.state)
		if state == 0 {
			if atomic.CompareAndSwapUint32(&l.state, 0, exclusiveHeld) {
				return
			}
			continue
		}

		// Contended. Advertise the waiting writer, then sleep. The bit
		// must be up before sleeping or a releasing reader would never
		// know to wake us.
		if state&exclusiveRequested == 0 {
			if !atomic.CompareAndSwapUint32(&l.state, state, state|exclusiveRequested) {
				// State moved under us; start over.
				continue
			}
			state |= exclusiveRequested
		}

		futex.Wait(&l.state, state)
	}
}

// Unlock releases an exclusive hold. It clears the request bit along with
// the held bit; surviving writers re-establish it when they wake.
func (l *RWLock) Unlock() {
	old := atomic.AndUint32(&l.state, ^(exclusiveHeld | exclusiveRequested))
	if old&exclusiveHeld == 0 {
		panic("mutex: Unlock of RWLock not held exclusively")
	}
	if old&^exclusiveHeld != 0 {
		// Waiters exist. Shared waiters now collectively hold the lock.
		// Exclusive waiters must all wake: one will win, the rest must
		// re-set the request bit we just cleared.
		futex.WakeAll(&l.state)
	}
}

// RLock acquires the lock shared. Multiple readers may hold the lock at
// once; the count is registered before sleeping, so a reader queued
// behind a writer still counts as a holder the moment the writer leaves.
func (l *RWLock) RLock() {
	state := atomic.AddUint32(&l.state, 1)
	for state&exclusiveHeld != 0 {
		// A writer holds the lock. Our increment is already in, so all
		// that is left is waiting for the held bit to drop.
		futex.Wait(&l.state, state)
		state = atomic.LoadUint32(&l.state)
	}
}

// RUnlock releases a shared hold. When the last reader leaves and a
// writer is queued, the reader hands the word to zero and wakes all
// writers.
func (l *RWLock) RUnlock() {
	state := atomic.AddUint32(&l.state, ^uint32(0))
	if (state+1)&sharedCountMask == 0 {
		panic("mutex: RUnlock of RWLock not held shared")
	}
	// The only waiter that can exist with a zero shared count is a
	// writer, and the only moment it makes sense to wake it is when the
	// count just hit zero.
	if state == exclusiveRequested {
		if atomic.CompareAndSwapUint32(&l.state, exclusiveRequested, 0) {
			// All writers wake; one grabs the lock, the others
			// re-register their request.
			futex.WakeAll(&l.state)
		}
	}
}

// AssertLockedByCaller panics unless the lock is currently held in the
// given mode. exclusive selects the writer check; otherwise any shared
// holder satisfies it. This validates misuse, not ownership: it cannot
// distinguish which thread holds the lock.
func (l *RWLock) AssertLockedByCaller(exclusive bool) {
	state := atomic.LoadUint32(&l.state)
	if exclusive {
		if state&exclusiveHeld == 0 {
			panic("mutex: lock is not held exclusively by anyone")
		}
	} else {
		if state&sharedCountMask == 0 {
			panic("mutex: lock is not held shared by anyone")
		}
	}
}

// Once state values. The word only ever moves forward through a single
// initialization attempt; a failed initializer swaps it back to
// onceUninitialized so the next caller starts a fresh attempt.
const (
	onceUninitialized uint32 = iota
	onceInitializing
	onceInitializingWithWaiters
	onceInitialized
	onceDisabled
)

// Once is a one-shot initializer. The zero value is ready for use. A Once
// must not be copied after first use.
type Once struct {
	state uint32
}

// Do runs init if the Once is uninitialized, blocking while another
// thread's initializer is in flight. If that other initializer fails, a
// blocked caller takes over and runs its own init. After Disable, Do
// returns nil without invoking init.
//
// An error return or panic from init reverts the Once to its
// uninitialized state before propagating.
func (o *Once) Do(init func() error) error {
	for {
		if atomic.CompareAndSwapUint32(&o.state, onceUninitialized, onceInitializing) {
			// Our job to initialize.
			return o.runInitializer(init)
		}

		state := atomic.LoadUint32(&o.state)
		switch state {
		case onceInitialized, onceDisabled:
			return nil
		case onceInitializing:
			// Upgrade so the initializer knows to wake us when done.
			if !atomic.CompareAndSwapUint32(&o.state, onceInitializing, onceInitializingWithWaiters) {
				continue
			}
		case onceUninitialized:
			// The initializer gave up between our CAS and load; retry
			// from the top.
			continue
		}

		futex.Wait(&o.state, onceInitializingWithWaiters)
		// Loop: the state is either initialized, disabled, back to
		// uninitialized (failed initializer), or still initializing
		// after a spurious wakeup.
	}
}

func (o *Once) runInitializer(init func() error) (err error) {
	done := false
	defer func() {
		if !done {
			// The initializer panicked. Revert so a later caller can
			// retry, release anyone waiting, and let the panic continue.
			o.abortInitialization()
		}
	}()

	if err = init(); err != nil {
		done = true
		o.abortInitialization()
		return err
	}
	done = true

	if atomic.SwapUint32(&o.state, onceInitialized) == onceInitializingWithWaiters {
		futex.WakeAll(&o.state)
	}
	return nil
}

func (o *Once) abortInitialization() {
	if atomic.SwapUint32(&o.state, onceUninitialized) == onceInitializingWithWaiters {
		futex.WakeAll(&o.state)
	}
}

// IsInitialized reports whether a completed initializer's results are
// visible to the caller.
func (o *Once) IsInitialized() bool {
	return atomic.LoadUint32(&o.state) == onceInitialized
}

// Reset returns an initialized Once to the uninitialized state so Do will
// run an initializer again. Reset on a disabled Once is a no-op; calling
// it in any other state is a programming error.
func (o *Once) Reset() {
	if !atomic.CompareAndSwapUint32(&o.state, onceInitialized, onceUninitialized) {
		if atomic.LoadUint32(&o.state) != onceDisabled {
			panic("mutex: Reset called while not initialized")
		}
	}
}

// Disable permanently turns the Once into a no-op. If an initializer is
// in flight, Disable waits for it to finish or fail first; it never
// clobbers an initialization in progress.
func (o *Once) Disable() {
	state := atomic.LoadUint32(&o.state)
	for {
		switch state {
		case onceDisabled:
			return

		case onceUninitialized, onceInitialized:
			if !atomic.CompareAndSwapUint32(&o.state, state, onceDisabled) {
				state = atomic.LoadUint32(&o.state)
				continue
			}
			return

		case onceInitializing:
			if !atomic.CompareAndSwapUint32(&o.state, onceInitializing, onceInitializingWithWaiters) {
				state = atomic.LoadUint32(&o.state)
				continue
			}
			fallthrough
		case onceInitializingWithWaiters:
			futex.Wait(&o.state, onceInitializingWithWaiters)
			state = atomic.LoadUint32(&o.state)
		}
	}
}
