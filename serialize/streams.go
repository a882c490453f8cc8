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
	"io"
	"net"
)

// InputStream is the byte source a StreamReader consumes.
type InputStream interface {
	// ReadExact fills p completely or fails.
	ReadExact(p []byte) error

	// ReadAtLeast reads between min and len(p) bytes into p, returning
	// the count actually read. It blocks until at least min bytes have
	// arrived.
	ReadAtLeast(p []byte, min int) (int, error)

	// Skip discards exactly n bytes.
	Skip(n int) error
}

// OutputStream is the byte sink a message writer produces into.
type OutputStream interface {
	// Write writes the concatenation of pieces. Implementations should
	// issue a single gathered write where the underlying primitive
	// supports one, so concurrent writers to the same sink cannot
	// interleave inside a message.
	Write(pieces [][]byte) error
}

// readerStream adapts an io.Reader.
type readerStream struct {
	r io.Reader
}

// NewInputStream adapts any io.Reader to the InputStream interface. Skip
// reads into a scratch buffer and discards.
func NewInputStream(r io.Reader) InputStream {
	return &readerStream{r: r}
}

func (s *readerStream) ReadExact(p []byte) error {
	_, err := io.ReadFull(s.r, p)
	return err
}

func (s *readerStream) ReadAtLeast(p []byte, min int) (int, error) {
	return io.ReadAtLeast(s.r, p, min)
}

func (s *readerStream) Skip(n int) error {
	_, err := io.CopyN(io.Discard, s.r, int64(n))
	return err
}

// writerStream adapts an io.Writer.
type writerStream struct {
	w io.Writer
}

// NewOutputStream adapts any io.Writer to the OutputStream interface.
// The pieces are handed to the writer through net.Buffers, which issues
// a single writev when the destination is a connection that supports it
// and falls back to sequential writes otherwise.
func NewOutputStream(w io.Writer) OutputStream {
	return &writerStream{w: w}
}

func (s *writerStream) Write(pieces [][]byte) error {
	bufs := make(net.Buffers, 0, len(pieces))
	for _, p := range pieces {
		if len(p) > 0 {
			bufs = append(bufs, p)
		}
	}
	if len(bufs) == 0 {
		return nil
	}
	_, err := bufs.WriteTo(s.w)
	return err
}
