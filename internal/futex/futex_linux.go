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

// Package futex wraps the Linux futex system call for process-private
// 32-bit wait words. Only FUTEX_WAIT and FUTEX_WAKE with the private flag
// are provided; callers own all state-machine logic and must re-check
// their condition after every wait because of spurious wakeups.
package futex

import (
	"fmt"
	"math"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Futex operations with FUTEX_PRIVATE_FLAG; the wait words here are never
// shared across processes.
const (
	futexWaitPrivate = unix.FUTEX_WAIT | unix.FUTEX_PRIVATE_FLAG
	futexWakePrivate = unix.FUTEX_WAKE | unix.FUTEX_PRIVATE_FLAG
)

// Wait blocks until the value at addr is no longer val, or until a Wake on
// the same address, or until the calling thread takes a signal. It returns
// without error in all three cases; callers loop and re-examine the word.
func Wait(addr *uint32, val uint32) error {
	// Re-check atomically before entering the syscall: if the word already
	// moved on since the caller's snapshot, skip the kernel entry. A change
	// after this load is still caught, because the kernel compares the
	// word with val atomically before sleeping.
	if atomic.LoadUint32(addr) != val {
		return nil
	}

	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWaitPrivate),
		uintptr(val),
		0, // timeout: infinite
		0, // uaddr2: unused
		0, // val3: unused
	)

	if errno != 0 {
		// EAGAIN: the word no longer held val. EINTR: signal. Both mean
		// "go re-check the condition", not failure.
		if errno == unix.EAGAIN || errno == unix.EINTR {
			return nil
		}
		return fmt.Errorf("futex wait failed: %w", errno)
	}
	return nil
}

// Wake wakes up to n waiters blocked on addr and returns the number woken.
func Wake(addr *uint32, n int) (int, error) {
	r1, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWakePrivate),
		uintptr(n),
		0, 0, 0,
	)
	if errno != 0 {
		return 0, fmt.Errorf("futex wake failed: %w", errno)
	}
	return int(r1), nil
}

// WakeAll wakes every waiter blocked on addr.
func WakeAll(addr *uint32) {
	// Errors here would mean a bad address or bad op, both programming
	// errors that the wait side would already have hit.
	Wake(addr, math.MaxInt32) //nolint:errcheck
}
