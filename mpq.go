// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/exp/mmap"

	"github.com/suprsokr/mpq/internal/crypt"
)

// Archive is an open MPQ archive. Its tables are read once by Open and never
// change afterwards, and all data reads are positioned (ReadAt), so an
// Archive and the Files it hands out are safe for concurrent use.
type Archive struct {
	r          io.ReaderAt
	closer     io.Closer
	offset     int64
	header     Header
	hashTable  []hashEntry
	blockTable []blockEntry
	cipher     *crypt.Cipher
	logger     *slog.Logger
	maxSize    uint64
}

// Open opens an MPQ archive on disk. The header may start at any 512-byte
// boundary of the file.
func Open(path string, opts ...Option) (*Archive, error) {
	o := newOptions(opts)

	if o.mmap {
		m, err := mmap.Open(path)
		if err != nil {
			return nil, fmt.Errorf("mmap file: %w", err)
		}
		a, err := newArchive(m, int64(m.Len()), o)
		if err != nil {
			_ = m.Close()
			return nil, err
		}
		a.closer = m
		return a, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	a, err := newArchive(file, info.Size(), o)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	a.closer = file
	return a, nil
}

// NewArchive reads an archive from r, which holds size bytes. The caller
// keeps ownership of r; Close on the returned Archive does not close it.
func NewArchive(r io.ReaderAt, size int64, opts ...Option) (*Archive, error) {
	return newArchive(r, size, newOptions(opts))
}

func newArchive(r io.ReaderAt, size int64, o *options) (*Archive, error) {
	header, offset, err := findHeader(r, size)
	if err != nil {
		return nil, err
	}

	if header.SectorSizeShift > maxSectorShift {
		return nil, fmt.Errorf("%w: sector size shift %d exceeds %d", ErrCorruptIndex, header.SectorSizeShift, maxSectorShift)
	}
	if header.HashTableSize == 0 || header.HashTableSize&(header.HashTableSize-1) != 0 {
		return nil, fmt.Errorf("%w: hash table size %d is not a power of two", ErrCorruptIndex, header.HashTableSize)
	}

	hashTable, err := readTable(r, size, offset+int64(header.HashTableOffset), header.HashTableSize,
		hashEntrySize, o.cipher, o.cipher.Hash("(hash table)", crypt.FileKey), parseHashEntry)
	if err != nil {
		return nil, fmt.Errorf("read hash table: %w", err)
	}

	blockTable, err := readTable(r, size, offset+int64(header.BlockTableOffset), header.BlockTableSize,
		blockEntrySize, o.cipher, o.cipher.Hash("(block table)", crypt.FileKey), parseBlockEntry)
	if err != nil {
		return nil, fmt.Errorf("read block table: %w", err)
	}

	o.logger.Debug("mpq archive opened",
		slog.Int64("offset", offset),
		slog.Int("sector_size", header.SectorSize()),
		slog.Int("hash_entries", len(hashTable)),
		slog.Int("block_entries", len(blockTable)))

	return &Archive{
		r:          r,
		offset:     offset,
		header:     header,
		hashTable:  hashTable,
		blockTable: blockTable,
		cipher:     o.cipher,
		logger:     o.logger,
		maxSize:    o.maxFileSize,
	}, nil
}

// Close releases the underlying file if the archive was opened with Open.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// Header returns a copy of the archive header.
func (a *Archive) Header() Header {
	return a.header
}

// Offset returns the byte offset of the archive header within the file.
func (a *Archive) Offset() int64 {
	return a.offset
}

// SectorSize returns the size of a full sector in bytes.
func (a *Archive) SectorSize() int {
	return a.header.SectorSize()
}

// HasFile reports whether name resolves in the hash table. It does not check
// that the resolved block exists.
func (a *Archive) HasFile(name string) bool {
	_, ok := a.resolve(name)
	return ok
}

// GetFile returns a handle to the named file. No file data is read.
func (a *Archive) GetFile(name string) (*File, error) {
	name = normalizePath(name)

	index, ok := a.resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if index >= uint32(len(a.blockTable)) {
		return nil, fmt.Errorf("%w: %s references block %d of %d", ErrCorruptIndex, name, index, len(a.blockTable))
	}

	block := a.blockTable[index]
	if !block.Flags.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrFileMissing, name)
	}

	f := &File{archive: a, name: name, block: block}
	if block.Flags.Encrypted() {
		key, ok := a.cipher.FileKey(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q has no base name", ErrInvalidName, name)
		}
		f.key = key
	}
	return f, nil
}

// FileSize returns the stored and uncompressed sizes of the named file.
func (a *Archive) FileSize(name string) (packed, unpacked uint32, err error) {
	f, err := a.GetFile(name)
	if err != nil {
		return 0, 0, err
	}
	return f.block.CompressedSize, f.block.FileSize, nil
}

// ReadFile reads the whole named file.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	f, err := a.GetFile(name)
	if err != nil {
		return nil, err
	}
	return a.readAll(f)
}

func (a *Archive) readAll(f *File) ([]byte, error) {
	if a.maxSize != 0 && uint64(f.Size()) > a.maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, f.name, f.Size(), a.maxSize)
	}

	data := make([]byte, f.Size())
	if _, err := f.Read(data); err != nil {
		return nil, err
	}
	return data, nil
}

// resolve looks name up in the hash table and returns its block index.
// Probing is linear from the TableOffset hash and stops at the first free
// slot or after wrapping around to the start slot.
func (a *Archive) resolve(name string) (uint32, bool) {
	name = normalizePath(name)

	hashA := a.cipher.Hash(name, crypt.NameA)
	hashB := a.cipher.Hash(name, crypt.NameB)
	mask := uint32(len(a.hashTable) - 1)
	start := a.cipher.Hash(name, crypt.TableOffset) & mask

	i := start
	for {
		entry := &a.hashTable[i]
		if entry.HashA == hashA && entry.HashB == hashB {
			return entry.BlockIndex, true
		}
		i = (i + 1) & mask
		if entry.BlockIndex == hashEntryFree || i == start {
			return 0, false
		}
	}
}

// normalizePath converts forward slashes to the archive's backslashes.
func normalizePath(name string) string {
	return strings.ReplaceAll(name, "/", "\\")
}
