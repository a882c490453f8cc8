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

import "fmt"

// FlatReader parses a message envelope out of a contiguous word array.
// Returned segments are subranges of the input array; the reader borrows
// and never copies.
type FlatReader struct {
	opts         ReaderOptions
	segment0     []Word
	moreSegments [][]Word
	end          int
}

// NewFlatReader parses the envelope in array. An empty array is tolerated
// as an empty message. On a malformed envelope the returned reader
// exposes at most the segments validated before the failure.
func NewFlatReader(array []Word, opts ReaderOptions) (*FlatReader, error) {
	r := &FlatReader{opts: opts, end: len(array)}
	if len(array) < 1 {
		// Assume empty message.
		r.end = 0
		return r, nil
	}

	table := WordsToBytes(array)

	// 32-bit arithmetic on purpose: a hostile count field of 0xFFFFFFFF
	// wraps to zero here and is handled below rather than producing a
	// huge 64-bit count.
	segmentCount := tableGet(table, 0) + 1
	headerWords := int(segmentCount/2) + 1

	if len(array) < headerWords {
		return r, fmt.Errorf("%w (%d words declared by %d segments, %d present)",
			ErrPrematureSegmentTable, headerWords, segmentCount, len(array))
	}

	if segmentCount == 0 {
		// Only reachable through the wraparound above. Expose no
		// segments; the message ends right after its header.
		r.end = headerWords
		return r, nil
	}

	offset := headerWords
	segmentSize := int(tableGet(table, 1))

	if len(array) < offset+segmentSize {
		return r, fmt.Errorf("%w (segment 0: %d words declared, %d remain)",
			ErrPrematureSegment, segmentSize, len(array)-offset)
	}

	r.segment0 = array[offset : offset+segmentSize]
	offset += segmentSize

	if segmentCount > 1 {
		more := make([][]Word, segmentCount-1)
		for i := 1; i < int(segmentCount); i++ {
			segmentSize := int(tableGet(table, i+1))
			if len(array) < offset+segmentSize {
				// Drop the partially built sequence; only segment 0
				// survives a mid-parse failure.
				return r, fmt.Errorf("%w (segment %d: %d words declared, %d remain)",
					ErrPrematureSegment, i, segmentSize, len(array)-offset)
			}
			more[i-1] = array[offset : offset+segmentSize]
			offset += segmentSize
		}
		r.moreSegments = more
	}

	r.end = offset
	return r, nil
}

// GetSegment returns the words of segment id, or nil when id is out of
// range.
func (r *FlatReader) GetSegment(id uint32) []Word {
	if id == 0 {
		return r.segment0
	}
	if int(id) <= len(r.moreSegments) {
		return r.moreSegments[id-1]
	}
	return nil
}

// SegmentCount returns the number of segments the parse exposed.
func (r *FlatReader) SegmentCount() uint32 {
	if r.segment0 == nil {
		return 0
	}
	return uint32(len(r.moreSegments)) + 1
}

// End returns the index just past the message within the input array.
// When several messages are concatenated in one buffer, the next message
// starts here.
func (r *FlatReader) End() int {
	return r.end
}

// ComputeSerializedSizeInWords returns the buffer size
// MessageToFlatArray needs for segments: the bodies plus the header.
func ComputeSerializedSizeInWords(segments [][]Word) (int, error) {
	if len(segments) == 0 {
		return 0, ErrUninitializedMessage
	}
	total := len(segments)/2 + 1
	for _, s := range segments {
		total += len(s)
	}
	return total, nil
}

// MessageToFlatArray serializes segments into a newly allocated word
// array: segment table first, then each body in order.
func MessageToFlatArray(segments [][]Word) ([]Word, error) {
	size, err := ComputeSerializedSizeInWords(segments)
	if err != nil {
		return nil, err
	}
	result := make([]Word, size)
	table := WordsToBytes(result)

	// Store count-1 so a single-segment message's first 32-bit field is
	// zero, improving compression. Sizes are stored as-is; one-word segments
	// are rare enough not to bother.
	tablePut(table, 0, uint32(len(segments)-1))
	for i, s := range segments {
		tablePut(table, i+1, uint32(len(s)))
	}
	if len(segments)%2 == 0 {
		// Padding slot.
		tablePut(table, len(segments)+1, 0)
	}

	dst := len(segments)/2 + 1
	for _, s := range segments {
		copy(result[dst:], s)
		dst += len(s)
	}

	if dst != len(result) {
		panic("serialize: buffer overrun/underrun in MessageToFlatArray")
	}
	return result, nil
}
