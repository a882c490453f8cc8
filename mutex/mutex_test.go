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
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRWLockExclusiveCounter(t *testing.T) {
	var lock RWLock
	counter := 0

	const workers = 2
	const iterations = 100000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				lock.Lock()
				counter++
				lock.Unlock()
			}
		}()
	}
	wg.Wait()

	if counter != workers*iterations {
		t.Fatalf("expected %d, got %d", workers*iterations, counter)
	}
}

func TestRWLockMutualExclusion(t *testing.T) {
	var lock RWLock
	var inWriter atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				lock.Lock()
				if n := inWriter.Add(1); n != 1 {
					t.Errorf("writer found %d holders inside exclusive section", n)
				}
				inWriter.Add(-1)
				lock.Unlock()
			}
		}()

		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				lock.RLock()
				if inWriter.Load() != 0 {
					t.Error("reader observed an active writer")
				}
				lock.RUnlock()
			}
		}()
	}
	wg.Wait()
}

func TestRWLockConcurrentSharedHolders(t *testing.T) {
	var lock RWLock

	const readers = 8
	var holding atomic.Int32
	allIn := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock.RLock()
			defer lock.RUnlock()
			if holding.Add(1) == readers {
				close(allIn)
			}
			// Hold until every reader is inside simultaneously.
			select {
			case <-allIn:
			case <-time.After(5 * time.Second):
				t.Error("readers never held the lock concurrently")
			}
		}()
	}
	wg.Wait()
}

func TestRWLockWriterProceedsAfterRelease(t *testing.T) {
	var lock RWLock

	lock.RLock()

	acquired := make(chan struct{})
	go func() {
		lock.Lock()
		close(acquired)
		lock.Unlock()
	}()

	// The writer must be blocked while the read hold exists.
	select {
	case <-acquired:
		t.Fatal("writer acquired the lock while a reader held it")
	case <-time.After(50 * time.Millisecond):
	}

	lock.RUnlock()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("writer did not proceed after the last reader released")
	}
}

func TestRWLockReaderProceedsAfterWriterRelease(t *testing.T) {
	var lock RWLock

	lock.Lock()

	acquired := make(chan struct{})
	go func() {
		lock.RLock()
		close(acquired)
		lock.RUnlock()
	}()

	select {
	case <-acquired:
		t.Fatal("reader acquired the lock while a writer held it")
	case <-time.After(50 * time.Millisecond):
	}

	lock.Unlock()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not proceed after the writer released")
	}
}

func TestRWLockAssertLockedByCaller(t *testing.T) {
	var lock RWLock

	lock.Lock()
	lock.AssertLockedByCaller(true)
	lock.Unlock()

	lock.RLock()
	lock.AssertLockedByCaller(false)
	lock.RUnlock()

	mustPanic(t, "exclusive assert on unlocked lock", func() {
		lock.AssertLockedByCaller(true)
	})
	mustPanic(t, "shared assert on unlocked lock", func() {
		lock.AssertLockedByCaller(false)
	})
}

func TestRWLockUnlockNotHeldPanics(t *testing.T) {
	mustPanic(t, "Unlock without hold", func() {
		var lock RWLock
		lock.Unlock()
	})
	mustPanic(t, "RUnlock without hold", func() {
		var lock RWLock
		lock.RUnlock()
	})
}

func mustPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	f()
}

func TestOnceRunsOnce(t *testing.T) {
	var once Once
	var runs atomic.Int32

	const callers = 50
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := once.Do(func() error {
				runs.Add(1)
				return nil
			}); err != nil {
				t.Errorf("Do failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := runs.Load(); n != 1 {
		t.Fatalf("initializer ran %d times, expected 1", n)
	}
	if !once.IsInitialized() {
		t.Fatal("Once not initialized after Do")
	}
}

func TestOnceWaitersObserveInitializedValue(t *testing.T) {
	var once Once
	var value atomic.Int64

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if err := once.Do(func() error {
				time.Sleep(10 * time.Millisecond)
				value.Store(12345)
				return nil
			}); err != nil {
				t.Errorf("Do failed: %v", err)
			}
			if v := value.Load(); v != 12345 {
				t.Errorf("caller returned from Do before initialization: value=%d", v)
			}
		}()
	}
	close(start)
	wg.Wait()
}

func TestOnceFailureAllowsRetry(t *testing.T) {
	var once Once
	var runs int

	errBoom := &initError{}
	if err := once.Do(func() error {
		runs++
		return errBoom
	}); err != errBoom {
		t.Fatalf("expected initializer error, got: %v", err)
	}
	if once.IsInitialized() {
		t.Fatal("Once marked initialized after failed initializer")
	}

	if err := once.Do(func() error {
		runs++
		return nil
	}); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if runs != 2 {
		t.Fatalf("expected 2 runs, got %d", runs)
	}
	if !once.IsInitialized() {
		t.Fatal("Once not initialized after successful retry")
	}
}

type initError struct{}

func (*initError) Error() string { return "init failed" }

func TestOncePanicAllowsRetry(t *testing.T) {
	var once Once

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected initializer panic to propagate")
			}
		}()
		once.Do(func() error { panic("boom") })
	}()

	if once.IsInitialized() {
		t.Fatal("Once marked initialized after panicking initializer")
	}

	ran := false
	if err := once.Do(func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !ran {
		t.Fatal("retry initializer did not run")
	}
}

func TestOnceFailureWakesWaiters(t *testing.T) {
	var once Once
	var runs atomic.Int32

	gate := make(chan struct{})
	first := make(chan struct{})
	go func() {
		once.Do(func() error {
			close(first)
			<-gate
			return &initError{}
		})
	}()
	<-first

	// This caller blocks behind the failing initializer, then must take
	// over and run its own.
	done := make(chan error, 1)
	go func() {
		done <- once.Do(func() error {
			runs.Add(1)
			return nil
		})
	}()

	time.Sleep(20 * time.Millisecond)
	close(gate)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("second Do failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never took over after initializer failure")
	}
	if runs.Load() != 1 {
		t.Fatalf("takeover initializer ran %d times", runs.Load())
	}
}

func TestOnceReset(t *testing.T) {
	var once Once
	runs := 0
	init := func() error {
		runs++
		return nil
	}

	if err := once.Do(init); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	once.Reset()
	if once.IsInitialized() {
		t.Fatal("Once still initialized after Reset")
	}
	if err := once.Do(init); err != nil {
		t.Fatalf("Do after Reset failed: %v", err)
	}
	if runs != 2 {
		t.Fatalf("expected 2 runs, got %d", runs)
	}

	mustPanic(t, "Reset while uninitialized", func() {
		var fresh Once
		fresh.Reset()
	})
}

func TestOnceDisable(t *testing.T) {
	var once Once
	once.Disable()

	ran := false
	if err := once.Do(func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("Do on disabled Once failed: %v", err)
	}
	if ran {
		t.Fatal("initializer ran on a disabled Once")
	}
	if once.IsInitialized() {
		t.Fatal("disabled Once reports initialized")
	}

	// Disable is terminal and idempotent; Reset on it is a no-op.
	once.Disable()
	once.Reset()
}

func TestOnceDisableWaitsForInFlightInitializer(t *testing.T) {
	var once Once

	started := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		once.Do(func() error {
			close(started)
			time.Sleep(50 * time.Millisecond)
			return nil
		})
		close(finished)
	}()
	<-started

	// Disable must not cut the running initializer short.
	once.Disable()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("initializer did not finish")
	}
	if once.IsInitialized() {
		t.Fatal("Once reports initialized after Disable")
	}
}
