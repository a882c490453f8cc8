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

// DefaultTraversalLimitInWords caps received messages at 64 MiB. Raise it
// on trusted links carrying legitimately large messages.
const DefaultTraversalLimitInWords = 8 << 20

// maxStreamSegments bounds the declared segment count a StreamReader will
// accept. A hostile header past this is rejected before any size table or
// body allocation.
const maxStreamSegments = 512

// ReaderOptions configures message readers.
type ReaderOptions struct {
	// TraversalLimitInWords is the maximum total message size a reader
	// accepts, summed across all segments. Without this cap a malicious
	// peer could declare an enormous segment and drive the receiver into
	// allocating it.
	TraversalLimitInWords uint64
}

// DefaultReaderOptions returns the options used when callers have no
// special requirements.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{TraversalLimitInWords: DefaultTraversalLimitInWords}
}
