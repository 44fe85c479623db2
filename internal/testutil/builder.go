// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package testutil

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/suprsokr/mpq/internal/crypt"
)

// On-disk constants written by the Builder.
const (
	Magic      = "MPQ\x1A"
	HeaderSize = 32

	FlagImplode   = 0x00000100
	FlagCompress  = 0x00000200
	FlagEncrypted = 0x00010000
	FlagExists    = 0x80000000

	HashEntryEmpty = 0xFFFFFFFF

	// DefaultSectorShift gives 4096-byte sectors.
	DefaultSectorShift = 3
)

// FileOptions controls how a file is stored.
type FileOptions struct {
	// Implode splits the file into sectors and implodes each one.
	Implode bool
	// RawSectors stores the sectors of an imploded file uncompressed.
	RawSectors bool
	// Multi sets the multi-compression flag instead of the implode flag.
	Multi bool
	// Encrypt encrypts the sector table and sectors of a sectored file. For
	// unsectored files only the flag is set and the bytes are stored as is.
	Encrypt bool
	// Missing clears the exists flag of the block.
	Missing bool
}

type pendingFile struct {
	name string
	data []byte
	opts FileOptions
}

type danglingEntry struct {
	name       string
	blockIndex uint32
}

// Builder assembles an MPQ archive in memory.
type Builder struct {
	cipher        *crypt.Cipher
	hashTableSize uint32
	sectorShift   uint16
	prefix        []byte
	listfile      bool
	files         []pendingFile
	dangling      []danglingEntry
}

// NewBuilder returns a builder with a hash table of hashTableSize slots.
func NewBuilder(hashTableSize uint32) *Builder {
	return &Builder{
		cipher:        crypt.Default(),
		hashTableSize: hashTableSize,
		sectorShift:   DefaultSectorShift,
	}
}

// SectorShift sets the block size factor (sector size = 512 << shift).
func (b *Builder) SectorShift(shift uint16) *Builder {
	b.sectorShift = shift
	return b
}

// Prefix places prefix before the archive, padded with zeros to the next
// 512-byte boundary.
func (b *Builder) Prefix(prefix []byte) *Builder {
	b.prefix = prefix
	return b
}

// Listfile adds a (listfile) naming every added file.
func (b *Builder) Listfile() *Builder {
	b.listfile = true
	return b
}

// Add queues a file.
func (b *Builder) Add(name string, data []byte, opts FileOptions) *Builder {
	b.files = append(b.files, pendingFile{name: name, data: data, opts: opts})
	return b
}

// AddDangling queues a hash entry that points at blockIndex without adding
// any data.
func (b *Builder) AddDangling(name string, blockIndex uint32) *Builder {
	b.dangling = append(b.dangling, danglingEntry{name: name, blockIndex: blockIndex})
	return b
}

// Offset returns where the archive header will start in the built bytes.
func (b *Builder) Offset() int64 {
	if len(b.prefix) == 0 {
		return 0
	}
	return int64((len(b.prefix) + 511) &^ 511)
}

// Build writes the archive.
func (b *Builder) Build() ([]byte, error) {
	hashTable := make([]uint32, b.hashTableSize*4)
	for i := uint32(0); i < b.hashTableSize; i++ {
		hashTable[i*4] = 0xFFFFFFFF
		hashTable[i*4+1] = 0xFFFFFFFF
		hashTable[i*4+2] = 0xFFFFFFFF
		hashTable[i*4+3] = HashEntryEmpty
	}

	files := b.files
	if b.listfile {
		var names []string
		for _, f := range files {
			names = append(names, f.name)
		}
		files = append(files, pendingFile{
			name: "(listfile)",
			data: []byte(strings.Join(names, "\r\n") + "\r\n"),
		})
	}

	// Reserve space for header
	archive := make([]byte, HeaderSize)
	blockTable := make([]uint32, 0, len(files)*4)

	for i, f := range files {
		filePos := uint32(len(archive))
		stored, flags, err := b.encodeFile(f, filePos)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.name, err)
		}
		archive = append(archive, stored...)

		blockTable = append(blockTable, filePos, uint32(len(stored)), uint32(len(f.data)), flags)

		if err := b.addToHashTable(hashTable, f.name, uint32(i)); err != nil {
			return nil, err
		}
	}

	for _, d := range b.dangling {
		if err := b.addToHashTable(hashTable, d.name, d.blockIndex); err != nil {
			return nil, err
		}
	}

	hashTableOffset := uint32(len(archive))
	b.cipher.EncryptWords(hashTable, b.cipher.Hash("(hash table)", crypt.FileKey))
	archive = appendWords(archive, hashTable)

	blockTableOffset := uint32(len(archive))
	b.cipher.EncryptWords(blockTable, b.cipher.Hash("(block table)", crypt.FileKey))
	archive = appendWords(archive, blockTable)

	copy(archive[0:4], Magic)
	binary.LittleEndian.PutUint32(archive[4:], HeaderSize)
	binary.LittleEndian.PutUint32(archive[8:], uint32(len(archive)))
	binary.LittleEndian.PutUint16(archive[12:], 0)
	binary.LittleEndian.PutUint16(archive[14:], b.sectorShift)
	binary.LittleEndian.PutUint32(archive[16:], hashTableOffset)
	binary.LittleEndian.PutUint32(archive[20:], blockTableOffset)
	binary.LittleEndian.PutUint32(archive[24:], b.hashTableSize)
	binary.LittleEndian.PutUint32(archive[28:], uint32(len(files)))

	if len(b.prefix) == 0 {
		return archive, nil
	}
	out := make([]byte, b.Offset(), int(b.Offset())+len(archive))
	copy(out, b.prefix)
	return append(out, archive...), nil
}

// SectorSize returns the sector size the built archive will declare.
func (b *Builder) SectorSize() int {
	return 512 << b.sectorShift
}

func (b *Builder) encodeFile(f pendingFile, filePos uint32) ([]byte, uint32, error) {
	flags := uint32(FlagExists)
	if f.opts.Missing {
		flags = 0
	}
	if f.opts.Encrypt {
		flags |= FlagEncrypted
	}
	if !f.opts.Implode && !f.opts.Multi {
		return append([]byte(nil), f.data...), flags, nil
	}
	if f.opts.Multi {
		flags |= FlagCompress
	} else {
		flags |= FlagImplode
	}

	sectorSize := b.SectorSize()
	sectorCount := (len(f.data) + sectorSize - 1) / sectorSize

	var key uint32
	if f.opts.Encrypt {
		var ok bool
		key, ok = b.cipher.FileKey(f.name)
		if !ok {
			return nil, 0, fmt.Errorf("no basename in %q", f.name)
		}
	}

	offsets := make([]uint32, sectorCount+1)
	offsets[0] = uint32((sectorCount + 1) * 4)
	var body []byte
	for i := 0; i < sectorCount; i++ {
		end := min((i+1)*sectorSize, len(f.data))
		chunk := f.data[i*sectorSize : end]

		var sector []byte
		if f.opts.RawSectors {
			sector = append([]byte(nil), chunk...)
		} else {
			sector = Implode(chunk, 6)
		}
		if f.opts.Encrypt {
			// Trailing bytes past the last whole word stay plain.
			if err := b.cipher.Encrypt(sector[:len(sector)&^3], key+uint32(i)); err != nil {
				return nil, 0, err
			}
		}
		body = append(body, sector...)
		offsets[i+1] = offsets[i] + uint32(len(sector))
	}

	if f.opts.Encrypt {
		b.cipher.EncryptWords(offsets, key-1)
	}
	stored := appendWords(nil, offsets)
	return append(stored, body...), flags, nil
}

// addToHashTable places name in the first free slot of its probe chain.
func (b *Builder) addToHashTable(table []uint32, name string, blockIndex uint32) error {
	hashA := b.cipher.Hash(name, crypt.NameA)
	hashB := b.cipher.Hash(name, crypt.NameB)
	startIndex := b.cipher.Hash(name, crypt.TableOffset) & (b.hashTableSize - 1)

	for i := uint32(0); i < b.hashTableSize; i++ {
		idx := (startIndex + i) & (b.hashTableSize - 1)
		if table[idx*4+3] == HashEntryEmpty {
			table[idx*4] = hashA
			table[idx*4+1] = hashB
			table[idx*4+2] = 0
			table[idx*4+3] = blockIndex
			return nil
		}
	}

	return fmt.Errorf("hash table full")
}

func appendWords(dst []byte, words []uint32) []byte {
	for _, w := range words {
		dst = binary.LittleEndian.AppendUint32(dst, w)
	}
	return dst
}
