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

import (
	"encoding/binary"
	"unsafe"
)

// WordSize is the fundamental granularity of the format, in bytes. All
// segments and envelopes are sized in whole words.
const WordSize = 8

// Word is one 8-byte unit. Segment boundaries are always word-aligned.
type Word [WordSize]byte

// WordsToBytes returns the byte view of w without copying. The view
// aliases w's storage.
func WordsToBytes(w []Word) []byte {
	if len(w) == 0 {
		return nil
	}
	return unsafe.Slice(&w[0][0], len(w)*WordSize)
}

// Segment-table fields are 32-bit little-endian, two per word.

func tableGet(table []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(table[i*4:])
}

func tablePut(table []byte, i int, v uint32) {
	binary.LittleEndian.PutUint32(table[i*4:], v)
}
