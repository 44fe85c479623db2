// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import "errors"

var (
	// ErrHeaderNotFound is returned by Open when no valid header exists at
	// any 512-byte-aligned offset of the file.
	ErrHeaderNotFound = errors.New("mpq: header not found")

	// ErrCorruptIndex is returned when the hash or block table is truncated,
	// sized inconsistently, or references a block that does not exist.
	ErrCorruptIndex = errors.New("mpq: corrupt index")

	// ErrNotFound is returned when a name does not resolve in the hash table.
	ErrNotFound = errors.New("mpq: file not found")

	// ErrFileMissing is returned when a name resolves to a block whose
	// exists flag is clear.
	ErrFileMissing = errors.New("mpq: file present in index but missing")

	// ErrInvalidName is returned when an encrypted file is requested by a
	// name with no basename to derive its key from.
	ErrInvalidName = errors.New("mpq: invalid file name")

	// ErrBufferTooSmall is returned by File.Read when the output buffer is
	// shorter than the file.
	ErrBufferTooSmall = errors.New("mpq: buffer too small")

	// ErrUnsupportedCompression is returned for multi-compression blocks.
	ErrUnsupportedCompression = errors.New("mpq: unsupported compression")

	// ErrExplode is returned when an imploded sector fails to decompress.
	ErrExplode = errors.New("mpq: explode failed")

	// ErrCorruptSector is returned when a sector table is inconsistent or a
	// sector decodes to the wrong number of bytes.
	ErrCorruptSector = errors.New("mpq: corrupt sector")

	// ErrFileTooLarge is returned by ReadFile when a file exceeds the
	// configured size limit.
	ErrFileTooLarge = errors.New("mpq: file too large")
)
