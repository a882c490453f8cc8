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

import "errors"

var (
	// ErrUninitializedMessage indicates a writer was invoked with zero
	// segments; a message always has at least segment 0.
	ErrUninitializedMessage = errors.New("tried to serialize uninitialized message")

	// ErrPrematureSegmentTable indicates the input ended inside the
	// segment table declared by its own header.
	ErrPrematureSegmentTable = errors.New("message ends prematurely in segment table")

	// ErrPrematureSegment indicates the input ended inside a segment
	// body declared by the table.
	ErrPrematureSegment = errors.New("message ends prematurely in segment data")

	// ErrTooManySegments indicates a stream header declared 512 or more
	// segments.
	ErrTooManySegments = errors.New("message has too many segments")

	// ErrTraversalLimitExceeded indicates the declared total size is
	// over ReaderOptions.TraversalLimitInWords.
	ErrTraversalLimitExceeded = errors.New("message is too large; see ReaderOptions.TraversalLimitInWords")
)
