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

package serialize

// inlineHeaderWords is the header size, in words, that readers and
// writers keep on an inline array before falling back to the heap.
// Covers messages of up to 63 segments.
const inlineHeaderWords = 32

// WriteMessage serializes segments to out as one gathered write: the
// segment table followed by every body, handed to the stream in a single
// Write call so messages from concurrent writers cannot interleave and
// the common case costs one syscall.
func WriteMessage(out OutputStream, segments [][]Word) error {
	if len(segments) == 0 {
		return ErrUninitializedMessage
	}

	// Header table: count-1, per-segment sizes, zero pad slot when the
	// count is even. (len+2)&^1 fields always covers the pad.
	var inline [inlineHeaderWords * WordSize]byte
	need := ((len(segments) + 2) &^ 1) * 4
	var table []byte
	if need <= len(inline) {
		table = inline[:need]
	} else {
		table = make([]byte, need)
	}

	tablePut(table, 0, uint32(len(segments)-1))
	for i, s := range segments {
		tablePut(table, i+1, uint32(len(s)))
	}
	if len(segments)%2 == 0 {
		tablePut(table, len(segments)+1, 0)
	}

	pieces := make([][]byte, 0, len(segments)+1)
	pieces = append(pieces, table)
	for _, s := range segments {
		pieces = append(pieces, WordsToBytes(s))
	}

	return out.Write(pieces)
}
