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

package futex

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitReturnsImmediatelyOnChangedValue(t *testing.T) {
	var word uint32 = 5

	// The snapshot no longer matches; Wait must not block.
	done := make(chan struct{})
	go func() {
		if err := Wait(&word, 4); err != nil {
			t.Errorf("Wait failed: %v", err)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait blocked although the value had changed")
	}
}

func TestWakeUnblocksWaiter(t *testing.T) {
	var word uint32

	done := make(chan struct{})
	go func() {
		for atomic.LoadUint32(&word) == 0 {
			Wait(&word, 0)
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	atomic.StoreUint32(&word, 1)
	WakeAll(&word)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter not woken")
	}
}

// A wake landing between a caller's snapshot and the kernel's compare
// must not be lost: Wait's re-check or the kernel's atomic compare sees
// the changed word.
func TestLostWakeRace(t *testing.T) {
	const iterations = 200

	for i := 0; i < iterations; i++ {
		var word uint32
		var wg sync.WaitGroup

		wg.Add(2)
		go func() {
			defer wg.Done()
			snapshot := atomic.LoadUint32(&word)
			time.Sleep(10 * time.Microsecond)
			for atomic.LoadUint32(&word) == snapshot {
				Wait(&word, snapshot)
			}
		}()
		go func() {
			defer wg.Done()
			atomic.AddUint32(&word, 1)
			WakeAll(&word)
		}()

		waitDone := make(chan struct{})
		go func() {
			wg.Wait()
			close(waitDone)
		}()
		select {
		case <-waitDone:
		case <-time.After(5 * time.Second):
			t.Fatal("lost wake: waiter hung")
		}
	}
}
