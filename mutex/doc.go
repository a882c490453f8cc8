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

// Package mutex provides a reader/writer lock and a one-shot initializer
// with minimal kernel crossings on the uncontended path.
//
// On Linux both types are built directly on the futex system call: the
// entire lock state lives in a single 32-bit word, an uncontended acquire
// or release is one atomic instruction, and the kernel is entered only
// when a thread must actually sleep or be woken. On other platforms the
// same API is backed by the standard library's sync primitives.
//
// On Linux, RWLock deliberately does not prioritize writers: a reader that
// already holds the lock can take it again even while a writer is queued,
// so a thread may safely acquire nested shared locks. The flip side is
// that a steady stream of readers can starve a writer; no fairness is
// guaranteed. The sync.RWMutex-backed variant used on other platforms
// blocks new readers while a writer waits, so nested shared acquisition
// there can deadlock.
//
// Once runs an initializer function exactly once per initialized period.
// A failed initializer (error return or panic) rolls the state back so a
// later caller retries with a fresh initializer. Reset returns an
// initialized Once to its pristine state; Disable permanently turns it
// into a no-op.
//
// Values of both types must not be copied or moved once any thread may be
// waiting on them.
package mutex
