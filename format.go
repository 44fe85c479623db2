// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/suprsokr/mpq/internal/crypt"
)

// MPQ format constants
const (
	// Magic signature "MPQ\x1A" in little-endian
	mpqMagic = 0x1A51504D

	headerSize    = 0x20
	formatVersion = 0

	// Headers are only searched for at multiples of this.
	headerAlign = 512

	// Largest block size factor whose sector size fits a 32-bit int (1GB).
	maxSectorShift = 21

	hashEntrySize  = 16
	blockEntrySize = 16

	// Block table entry flags
	fileImplode   = 0x00000100 // Imploded (PKWARE compression)
	fileCompress  = 0x00000200 // Compressed (multi-algorithm)
	fileEncrypted = 0x00010000 // Encrypted
	fileSingle    = 0x01000000 // Single unit (not split into sectors)
	fileExists    = 0x80000000 // File exists

	// hashEntryFree marks a hash slot that ends a probe chain. Deleted
	// entries carry the same value in this format generation.
	hashEntryFree = 0xFFFFFFFF
)

// Header is the 32-byte archive header.
type Header struct {
	Magic            uint32
	HeaderSize       uint32
	ArchiveSize      uint32 // informational only
	FormatVersion    uint16
	SectorSizeShift  uint16 // sector size = 512 << SectorSizeShift
	HashTableOffset  uint32 // relative to the archive start
	BlockTableOffset uint32 // relative to the archive start
	HashTableSize    uint32 // entries; a power of two
	BlockTableSize   uint32 // entries
}

func parseHeader(b []byte) Header {
	return Header{
		Magic:            binary.LittleEndian.Uint32(b[0x00:]),
		HeaderSize:       binary.LittleEndian.Uint32(b[0x04:]),
		ArchiveSize:      binary.LittleEndian.Uint32(b[0x08:]),
		FormatVersion:    binary.LittleEndian.Uint16(b[0x0C:]),
		SectorSizeShift:  binary.LittleEndian.Uint16(b[0x0E:]),
		HashTableOffset:  binary.LittleEndian.Uint32(b[0x10:]),
		BlockTableOffset: binary.LittleEndian.Uint32(b[0x14:]),
		HashTableSize:    binary.LittleEndian.Uint32(b[0x18:]),
		BlockTableSize:   binary.LittleEndian.Uint32(b[0x1C:]),
	}
}

// valid reports whether h is a header of the supported format generation.
func (h *Header) valid() bool {
	return h.Magic == mpqMagic && h.HeaderSize == headerSize && h.FormatVersion == formatVersion
}

// SectorSize returns the size of a full sector in bytes.
func (h *Header) SectorSize() int {
	return 512 << h.SectorSizeShift
}

// findHeader scans r at 512-byte boundaries for a valid header and returns
// it with the offset it was found at.
func findHeader(r io.ReaderAt, size int64) (Header, int64, error) {
	var buf [headerSize]byte
	for offset := int64(0); offset+headerSize <= size; offset += headerAlign {
		if err := readAt(r, buf[:], offset); err != nil {
			return Header{}, 0, fmt.Errorf("read header at %d: %w", offset, err)
		}
		h := parseHeader(buf[:])
		if h.valid() {
			return h, offset, nil
		}
	}
	return Header{}, 0, ErrHeaderNotFound
}

// hashEntry represents an entry in the hash table
type hashEntry struct {
	HashA      uint32 // First hash of the file name
	HashB      uint32 // Second hash of the file name
	Locale     uint16 // Locale ID
	Platform   uint16 // Platform ID (0 = default)
	BlockIndex uint32 // Index into the block table
}

func parseHashEntry(b []byte) hashEntry {
	return hashEntry{
		HashA:      binary.LittleEndian.Uint32(b[0:]),
		HashB:      binary.LittleEndian.Uint32(b[4:]),
		Locale:     binary.LittleEndian.Uint16(b[8:]),
		Platform:   binary.LittleEndian.Uint16(b[10:]),
		BlockIndex: binary.LittleEndian.Uint32(b[12:]),
	}
}

// BlockFlags is the flag word of a block table entry.
type BlockFlags uint32

// Exists reports whether the block holds a live file.
func (f BlockFlags) Exists() bool { return f&fileExists != 0 }

// Encrypted reports whether the file data is encrypted.
func (f BlockFlags) Encrypted() bool { return f&fileEncrypted != 0 }

// Imploded reports whether sectors are PKWare imploded.
func (f BlockFlags) Imploded() bool { return f&fileImplode != 0 }

// MultiCompressed reports whether sectors use multi-algorithm compression.
func (f BlockFlags) MultiCompressed() bool { return f&fileCompress != 0 }

// Compressed reports whether the file is stored in compressed sectors.
func (f BlockFlags) Compressed() bool { return f&(fileImplode|fileCompress) != 0 }

// SingleUnit reports whether the file is stored as one unit.
func (f BlockFlags) SingleUnit() bool { return f&fileSingle != 0 }

// blockEntry represents an entry in the block table
type blockEntry struct {
	FilePos        uint32 // Offset of the file data, relative to the archive start
	CompressedSize uint32 // Bytes stored in the archive
	FileSize       uint32 // Uncompressed file size
	Flags          BlockFlags
}

func parseBlockEntry(b []byte) blockEntry {
	return blockEntry{
		FilePos:        binary.LittleEndian.Uint32(b[0:]),
		CompressedSize: binary.LittleEndian.Uint32(b[4:]),
		FileSize:       binary.LittleEndian.Uint32(b[8:]),
		Flags:          BlockFlags(binary.LittleEndian.Uint32(b[12:])),
	}
}

// readTable reads count encrypted records of recordSize bytes at offset,
// decrypts them with key, and parses each with parse.
func readTable[T any](r io.ReaderAt, size, offset int64, count uint32, recordSize int, c *crypt.Cipher, key uint32, parse func([]byte) T) ([]T, error) {
	length := int64(count) * int64(recordSize)
	if offset < 0 || offset+length > size {
		return nil, fmt.Errorf("%w: %d entries at %d exceed archive size %d", ErrCorruptIndex, count, offset, size)
	}

	buf := make([]byte, length)
	if err := readAt(r, buf, offset); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}
	if err := c.Decrypt(buf, key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}

	entries := make([]T, count)
	for i := range entries {
		entries[i] = parse(buf[i*recordSize:])
	}
	return entries, nil
}

// readAt fills buf from offset. An io.EOF accompanying a full read is not
// an error; a short read is io.ErrUnexpectedEOF.
func readAt(r io.ReaderAt, buf []byte, offset int64) error {
	n, err := r.ReadAt(buf, offset)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
