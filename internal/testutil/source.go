// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Package testutil builds in-memory MPQ fixtures for tests.
package testutil

import (
	"io"
	"sync/atomic"
)

// Source is an in-memory io.ReaderAt that counts ReadAt calls.
type Source struct {
	data  []byte
	reads atomic.Int64
}

// NewSource returns a source backed by data.
func NewSource(data []byte) *Source {
	return &Source{data: data}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	s.reads.Add(1)
	if off < 0 || off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the length of the backing data.
func (s *Source) Size() int64 {
	return int64(len(s.data))
}

// Bytes returns the backing slice for tests that need to corrupt data.
func (s *Source) Bytes() []byte {
	return s.data
}

// Reads returns the number of ReadAt calls so far.
func (s *Source) Reads() int64 {
	return s.reads.Load()
}
