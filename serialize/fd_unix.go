//go:build unix

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
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// FdInputStream reads from an OS file descriptor. Skip seeks when the
// descriptor supports it and falls back to reading into scratch space on
// pipes and sockets.
type FdInputStream struct {
	fd int
}

// NewFdInputStream wraps fd. The caller keeps ownership of the
// descriptor.
func NewFdInputStream(fd int) *FdInputStream {
	return &FdInputStream{fd: fd}
}

// ReadExact fills p completely or fails.
func (s *FdInputStream) ReadExact(p []byte) error {
	_, err := s.read(p, len(p))
	return err
}

// ReadAtLeast reads between min and len(p) bytes into p.
func (s *FdInputStream) ReadAtLeast(p []byte, min int) (int, error) {
	return s.read(p, min)
}

func (s *FdInputStream) read(p []byte, min int) (int, error) {
	total := 0
	for total < min {
		n, err := unix.Read(s.fd, p[total:])
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return total, fmt.Errorf("read fd %d: %w", s.fd, err)
		}
		if n == 0 {
			if total == 0 {
				return 0, io.EOF
			}
			return total, io.ErrUnexpectedEOF
		}
		total += n
	}
	return total, nil
}

// Skip discards exactly n bytes.
func (s *FdInputStream) Skip(n int) error {
	if _, err := unix.Seek(s.fd, int64(n), io.SeekCurrent); err == nil {
		return nil
	}
	// Unseekable (pipe, socket): consume by reading.
	var scratch [4096]byte
	for n > 0 {
		chunk := scratch[:]
		if n < len(chunk) {
			chunk = chunk[:n]
		}
		if err := s.ReadExact(chunk); err != nil {
			return err
		}
		n -= len(chunk)
	}
	return nil
}

// FdOutputStream writes to an OS file descriptor with writev, so a
// message's header and bodies leave in one syscall whenever the kernel
// accepts the full vector.
type FdOutputStream struct {
	fd int
}

// NewFdOutputStream wraps fd. The caller keeps ownership of the
// descriptor.
func NewFdOutputStream(fd int) *FdOutputStream {
	return &FdOutputStream{fd: fd}
}

// Write writes the concatenation of pieces as a single gathered write,
// continuing past short writes until everything is out.
func (s *FdOutputStream) Write(pieces [][]byte) error {
	iov := make([][]byte, 0, len(pieces))
	for _, p := range pieces {
		if len(p) > 0 {
			iov = append(iov, p)
		}
	}

	for len(iov) > 0 {
		n, err := unix.Writev(s.fd, iov)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("writev fd %d: %w", s.fd, err)
		}
		// Drop fully written pieces, trim a partially written one.
		for n > 0 {
			if n >= len(iov[0]) {
				n -= len(iov[0])
				iov = iov[1:]
			} else {
				iov[0] = iov[0][n:]
				n = 0
			}
		}
	}
	return nil
}

// WriteMessageToFd serializes segments directly to a file descriptor.
func WriteMessageToFd(fd int, segments [][]Word) error {
	return WriteMessage(NewFdOutputStream(fd), segments)
}

// ReadMessageFromFd reads a message envelope directly from a file
// descriptor.
func ReadMessageFromFd(fd int, opts ReaderOptions) (*StreamReader, error) {
	return NewStreamReader(NewFdInputStream(fd), opts, nil)
}
