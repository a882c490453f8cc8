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

// Package serialize reads and writes the segmented framed-message
// envelope used by Cap'n Proto streams.
//
// A message is an ordered, non-empty list of segments, each a contiguous
// run of 8-byte words. On the wire the message is preceded by a segment
// table of 32-bit little-endian values:
//
//	word 0:  [segment count - 1][size of segment 0]
//	word 1+: [size of segment 1][size of segment 2]...
//
// with a zero 32-bit pad when the count is even, so the table occupies a
// whole number of words. Segment bodies follow in order. Storing the
// count minus one makes the first 32-bit field of a single-segment
// message zero, which helps downstream compressors.
//
// Segment contents are opaque here: this package frames and validates
// the envelope, it never interprets pointers within segments.
//
// Readers come in two forms. FlatReader parses a message already held in
// a contiguous word array and returns slices borrowing from it.
// StreamReader parses the envelope from a byte stream, validating the
// declared sizes against ReaderOptions before allocating, and fills
// multi-segment bodies lazily as segments are first requested. All input
// is treated as adversarial: every declared count and size is checked
// before it is used.
//
// Writers mirror the readers: MessageToFlatArray builds the whole
// envelope in memory, WriteMessage emits it to an OutputStream as a
// single gathered write.
package serialize
