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
	"fmt"

	"github.com/sirupsen/logrus"
)

// StreamReader parses a message envelope from a byte stream. The segment
// table is read eagerly and validated before any body allocation. A
// single-segment body is read in full at construction; with multiple
// segments the body is filled lazily as segments are first requested, so
// a consumer that only touches early segments never waits for the rest.
//
// Returned segments borrow from the reader's backing buffer and must not
// outlive it. Close leaves the stream positioned just past the message.
type StreamReader struct {
	in   InputStream
	opts ReaderOptions

	// space backs every segment; either the caller's scratch or owned.
	space        []Word
	bytes        []byte
	segment0     []Word
	moreSegments [][]Word

	// ends[i] is the byte offset just past segment i within bytes.
	ends []int

	// readPos is the byte cursor for lazy filling: bytes[:readPos] has
	// been read from the stream. -1 when the whole body was read at
	// construction (or there is none).
	readPos int
}

// NewStreamReader reads a message header from in and prepares segment
// access. scratch, when large enough for the whole message, is used in
// place of an allocation; pass nil when no reusable buffer exists.
//
// Oversized messages are rejected with ErrTooManySegments or
// ErrTraversalLimitExceeded without reading beyond the header. The
// returned reader is still non-nil in those cases, degenerated to a
// single clamped segment, so diagnostics can be produced from it.
func NewStreamReader(in InputStream, opts ReaderOptions, scratch []Word) (*StreamReader, error) {
	r := &StreamReader{in: in, opts: opts, readPos: -1}

	var firstWord [WordSize]byte
	if err := in.ReadExact(firstWord[:]); err != nil {
		return nil, fmt.Errorf("reading message header: %w", err)
	}

	// 32-bit arithmetic: a hostile 0xFFFFFFFF count field wraps to zero
	// and yields an empty message rather than a huge one.
	segmentCount := binary.LittleEndian.Uint32(firstWord[0:4]) + 1
	segment0Size := uint32(0)
	if segmentCount != 0 {
		segment0Size = binary.LittleEndian.Uint32(firstWord[4:8])
	}
	totalWords := uint64(segment0Size)

	// Reject absurd segment counts before touching the size table; the
	// table itself would otherwise be attacker-sized.
	if segmentCount >= maxStreamSegments {
		err := fmt.Errorf("%w (%d; limit %d)", ErrTooManySegments, segmentCount, maxStreamSegments)
		r.degenerate(1)
		return r, err
	}

	// Remaining sizes, padded to a whole word. Small tables stay on an
	// inline array; larger ones fall back to the heap.
	var inline [inlineHeaderWords * WordSize]byte
	var moreSizes []byte
	if segmentCount > 1 {
		need := int(segmentCount&^1) * 4
		if need <= len(inline) {
			moreSizes = inline[:need]
		} else {
			moreSizes = make([]byte, need)
		}
		if err := in.ReadExact(moreSizes); err != nil {
			return nil, fmt.Errorf("reading segment table: %w", err)
		}
		for i := 0; i < int(segmentCount)-1; i++ {
			totalWords += uint64(tableGet(moreSizes, i))
		}
	}

	// Refuse messages the receiver could not traverse anyway. Without
	// this a malicious sender declares a giant segment and drives us
	// into allocating it.
	if totalWords > opts.TraversalLimitInWords {
		err := fmt.Errorf("%w (%d words; limit %d)", ErrTraversalLimitExceeded, totalWords, opts.TraversalLimitInWords)
		r.degenerate(min(segment0Size, clampU32(opts.TraversalLimitInWords)))
		return r, err
	}

	if uint64(len(scratch)) >= totalWords {
		r.space = scratch
	} else {
		r.space = make([]Word, totalWords)
	}
	r.bytes = WordsToBytes(r.space[:totalWords])

	r.segment0 = r.space[0:segment0Size:segment0Size]
	offset := int(segment0Size)
	if segmentCount > 0 {
		r.ends = make([]int, segmentCount)
		r.ends[0] = offset * WordSize
	}
	if segmentCount > 1 {
		r.moreSegments = make([][]Word, segmentCount-1)
		for i := 0; i < int(segmentCount)-1; i++ {
			size := int(tableGet(moreSizes, i))
			r.moreSegments[i] = r.space[offset : offset+size : offset+size]
			offset += size
			r.ends[i+1] = offset * WordSize
		}
	}

	switch {
	case segmentCount <= 1:
		// Single segment (or none): read the whole body now.
		if err := in.ReadExact(r.bytes); err != nil {
			return nil, fmt.Errorf("reading segment data: %w", err)
		}
	default:
		// Read at least segment 0 now; the rest fills in lazily, or
		// immediately if the stream happens to have it all ready.
		n, err := in.ReadAtLeast(r.bytes, int(segment0Size)*WordSize)
		if err != nil {
			return nil, fmt.Errorf("reading segment data: %w", err)
		}
		r.readPos = n
	}

	return r, nil
}

// degenerate resets the reader to a single owned segment of size words so
// a rejected message still yields a usable (if empty) reader.
func (r *StreamReader) degenerate(size uint32) {
	r.space = make([]Word, size)
	r.bytes = WordsToBytes(r.space)
	r.segment0 = r.space
	r.moreSegments = nil
	r.ends = []int{int(size) * WordSize}
	r.readPos = -1
}

// GetSegment returns the words of segment id, or nil when id is out of
// range, reading further stream data first when the segment has not been
// filled yet.
func (r *StreamReader) GetSegment(id uint32) ([]Word, error) {
	if int(id) > len(r.moreSegments) {
		return nil, nil
	}

	segment := r.segment0
	if id != 0 {
		segment = r.moreSegments[id-1]
	}

	if r.readPos >= 0 {
		segmentEnd := r.ends[id]
		if r.readPos < segmentEnd {
			// Fill through this segment's end; take whatever extra the
			// stream has ready up to the end of the message.
			allEnd := len(r.bytes)
			n, err := r.in.ReadAtLeast(r.bytes[r.readPos:allEnd], segmentEnd-r.readPos)
			r.readPos += n
			if err != nil {
				return nil, fmt.Errorf("reading segment data: %w", err)
			}
		}
	}

	return segment, nil
}

// SegmentCount returns the number of segments the reader exposes: the
// count the header declared, or 1 for a rejected message or a header
// whose count field wrapped to zero.
func (r *StreamReader) SegmentCount() uint32 {
	return uint32(len(r.moreSegments)) + 1
}

// Close consumes any part of the message body not yet read, leaving the
// stream positioned at the next message. Readers dropped on error paths
// may ignore the returned error; the failure is also logged so it is not
// silently lost.
func (r *StreamReader) Close() error {
	if r.readPos < 0 || r.readPos >= len(r.bytes) {
		return nil
	}
	remaining := len(r.bytes) - r.readPos
	r.readPos = len(r.bytes)
	if err := r.in.Skip(remaining); err != nil {
		logrus.WithError(err).WithField("bytes", remaining).
			Warn("failed to discard unread message tail")
		return fmt.Errorf("discarding unread message tail: %w", err)
	}
	return nil
}

func clampU32(v uint64) uint32 {
	if v > 0xFFFFFFFF {
		return 0xFFFFFFFF
	}
	return uint32(v)
}
