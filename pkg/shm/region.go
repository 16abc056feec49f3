/*
 * Copyright 2025 SREDiag Authors
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
 */

package shm

import (
	"errors"
	"fmt"
	"io"
)

// Region is a mapped view of a named shared memory region with a cursor.
//
// It implements io.Reader, io.Writer, io.Seeker, io.ReaderAt and io.WriterAt.
// The view has a fixed size: writes never grow it.
//
// WARNING: Region is not safe for concurrent use. Two processes may map the same
// region, but inside one process access must be externally synchronized.
type Region struct {
	name     string
	data     []byte
	pos      int64
	readOnly bool
	closed   bool
	release  func() error
}

func newRegion(name string, data []byte, readOnly bool, release func() error) *Region {
	return &Region{
		name:     name,
		data:     data,
		readOnly: readOnly,
		release:  release,
	}
}

// Name returns the region name as known to both processes.
func (r *Region) Name() string { return r.name }

// Len returns the mapped size in bytes, header included.
func (r *Region) Len() int { return len(r.data) }

// ReadOnly reports whether the view was mapped without write access.
func (r *Region) ReadOnly() bool { return r.readOnly }

// Closed reports whether the view has been unmapped.
func (r *Region) Closed() bool { return r.closed }

// Tell returns the current cursor position.
func (r *Region) Tell() int64 { return r.pos }

func (r *Region) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if r.pos >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += int64(n)
	return n, nil
}

// Write copies p at the cursor. A write that does not fit fails with
// ErrOutOfRange and leaves the region untouched.
func (r *Region) Write(p []byte) (int, error) {
	n, err := r.WriteAt(p, r.pos)
	r.pos += int64(n)
	return n, err
}

func (r *Region) Seek(offset int64, whence int) (int64, error) {
	if r.closed {
		return 0, ErrClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		abs = int64(len(r.data)) + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("seek: negative position")
	}
	r.pos = abs
	return abs, nil
}

func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrOutOfRange
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (r *Region) WriteAt(p []byte, off int64) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if r.readOnly {
		return 0, ErrReadOnly
	}
	if off < 0 || off+int64(len(p)) > int64(len(r.data)) {
		return 0, fmt.Errorf("write %d bytes at %d of %d: %w", len(p), off, len(r.data), ErrOutOfRange)
	}
	return copy(r.data[off:], p), nil
}

// Close unmaps the view. Calling it again is a no-op.
func (r *Region) Close() error {
	_, err := r.unmap()
	return err
}

// unmap releases the view and reports whether this call did the release.
func (r *Region) unmap() (bool, error) {
	if r.closed {
		return false, nil
	}
	r.closed = true
	r.data = nil
	if r.release == nil {
		return true, nil
	}
	return true, r.release()
}
