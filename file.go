// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"encoding/binary"
	"fmt"
	"log/slog"
)

// File is a handle to one stored file. It borrows the Archive it came from
// and keeps no read position, so Read may be called any number of times,
// concurrently.
type File struct {
	archive *Archive
	name    string
	key     uint32
	block   blockEntry
}

// Name returns the normalized name the file was requested by.
func (f *File) Name() string {
	return f.name
}

// Size returns the uncompressed size of the file.
func (f *File) Size() int {
	return int(f.block.FileSize)
}

// CompressedSize returns the number of bytes stored in the archive.
func (f *File) CompressedSize() int {
	return int(f.block.CompressedSize)
}

// Flags returns the block flags.
func (f *File) Flags() BlockFlags {
	return f.block.Flags
}

// IsEncrypted reports whether the file data is encrypted.
func (f *File) IsEncrypted() bool {
	return f.block.Flags.Encrypted()
}

// IsCompressed reports whether the file is stored in compressed sectors.
func (f *File) IsCompressed() bool {
	return f.block.Flags.Compressed()
}

// IsImploded reports whether the sectors are PKWare imploded.
func (f *File) IsImploded() bool {
	return f.block.Flags.Imploded()
}

// Key returns the decryption key of an encrypted file.
func (f *File) Key() (uint32, bool) {
	return f.key, f.block.Flags.Encrypted()
}

// dataOffset is the absolute position of the file's block.
func (f *File) dataOffset() int64 {
	return f.archive.offset + int64(f.block.FilePos)
}

// Read decodes the whole file into out and returns the number of bytes
// written, which equals Size on success. A failure in any sector fails the
// whole read.
//
// Uncompressed files are copied as stored; the encrypted flag is not applied
// to them.
func (f *File) Read(out []byte) (int, error) {
	size := f.Size()
	if len(out) < size {
		return 0, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrBufferTooSmall, f.name, size, len(out))
	}
	if size == 0 {
		return 0, nil
	}

	if !f.block.Flags.Compressed() {
		if err := readAt(f.archive.r, out[:size], f.dataOffset()); err != nil {
			return 0, fmt.Errorf("read %s: %w", f.name, err)
		}
		return size, nil
	}

	sectors, err := f.readSectorTable()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", f.name, err)
	}

	sectorSize := f.archive.SectorSize()
	written := 0
	var raw []byte
	for i := 0; i < sectors.count(); i++ {
		start, length := sectors.sector(i)
		expected := min(sectorSize, size-written)

		if cap(raw) < length {
			raw = make([]byte, length)
		}
		raw = raw[:length]
		if err := readAt(f.archive.r, raw, f.dataOffset()+int64(start)); err != nil {
			return 0, fmt.Errorf("read %s sector %d: %w", f.name, i, err)
		}

		if f.block.Flags.Encrypted() {
			// Only whole words are encrypted; a trailing partial word is stored plain.
			if err := f.archive.cipher.Decrypt(raw[:len(raw)&^3], f.key+uint32(i)); err != nil {
				return 0, fmt.Errorf("decrypt %s sector %d: %w", f.name, i, err)
			}
		}

		n, err := decompressSector(f.block.Flags, out[written:written+expected], raw)
		if err != nil {
			return 0, fmt.Errorf("read %s sector %d: %w", f.name, i, err)
		}
		if n != expected {
			return 0, fmt.Errorf("%w: %s sector %d decoded to %d bytes, want %d", ErrCorruptSector, f.name, i, n, expected)
		}
		written += n
	}
	if written != size {
		return 0, fmt.Errorf("%w: %s decoded to %d bytes, want %d", ErrCorruptSector, f.name, written, size)
	}

	f.archive.logger.Debug("mpq file read",
		slog.String("name", f.name),
		slog.Int("size", written),
		slog.Int("sectors", sectors.count()))

	return written, nil
}

// sectorTable holds the sector_count+1 offsets, relative to the start of the
// file's block, that delimit its sectors.
type sectorTable []uint32

func (t sectorTable) count() int {
	return len(t) - 1
}

// sector returns the offset and stored length of sector i.
func (t sectorTable) sector(i int) (int, int) {
	return int(t[i]), int(t[i+1] - t[i])
}

// readSectorTable reads and, for encrypted files, decrypts the sector offset
// table with the file key minus one. The whole table is decoded before any
// sector is read.
func (f *File) readSectorTable() (sectorTable, error) {
	sectorSize := f.archive.SectorSize()
	count := (f.Size() + sectorSize - 1) / sectorSize

	buf := make([]byte, (count+1)*4)
	if err := readAt(f.archive.r, buf, f.dataOffset()); err != nil {
		return nil, fmt.Errorf("read sector table: %w", err)
	}
	if f.block.Flags.Encrypted() {
		if err := f.archive.cipher.Decrypt(buf, f.key-1); err != nil {
			return nil, fmt.Errorf("decrypt sector table: %w", err)
		}
	}

	table := make(sectorTable, count+1)
	for i := range table {
		table[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}

	for i := 0; i < count; i++ {
		if table[i+1] < table[i] {
			return nil, fmt.Errorf("%w: sector %d offsets %d-%d", ErrCorruptSector, i, table[i], table[i+1])
		}
	}
	if table[count] > f.block.CompressedSize {
		return nil, fmt.Errorf("%w: sectors end at %d past stored size %d", ErrCorruptSector, table[count], f.block.CompressedSize)
	}
	return table, nil
}
