// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Package crypt implements the MPQ filename hash and the stream cipher used
// for the hash table, the block table and encrypted file data.
package crypt

import (
	"encoding/binary"
	"errors"
	"sync"
)

// HashType selects one of the independent hash channels of the crypt table.
type HashType uint32

const (
	// TableOffset picks the first probed slot in the hash table.
	TableOffset HashType = 0
	// NameA is the first verification hash stored in a hash entry.
	NameA HashType = 1
	// NameB is the second verification hash stored in a hash entry.
	NameB HashType = 2
	// FileKey derives decryption seeds.
	FileKey HashType = 3
)

// ErrUnaligned is returned when a byte buffer is not a whole number of words.
var ErrUnaligned = errors.New("crypt: buffer length is not a multiple of 4")

const (
	tableSize  = 0x500
	keyOffset  = 0x400
	seed2Start = 0xEEEEEEEE
)

// Cipher holds the precomputed crypt table. It is immutable after New and
// safe for concurrent use.
type Cipher struct {
	table [tableSize]uint32
}

// New builds the crypt table using the standard MPQ generator.
func New() *Cipher {
	c := &Cipher{}
	seed := uint32(0x00100001)

	for index1 := 0; index1 < 0x100; index1++ {
		index2 := index1
		for i := 0; i < 5; i++ {
			seed = (seed*125 + 3) % 0x2AAAAB
			temp1 := (seed & 0xFFFF) << 0x10

			seed = (seed*125 + 3) % 0x2AAAAB
			temp2 := seed & 0xFFFF

			c.table[index2] = temp1 | temp2
			index2 += 0x100
		}
	}
	return c
}

// Default returns a process-wide Cipher, built on first use.
var Default = sync.OnceValue(New)

// Hash computes the MPQ hash of s. ASCII letters are folded to upper case;
// path separators are hashed as given.
func (c *Cipher) Hash(s string, kind HashType) uint32 {
	seed1 := uint32(0x7FED7FED)
	seed2 := uint32(0xEEEEEEEE)
	base := uint32(kind) * 0x100

	for i := 0; i < len(s); i++ {
		ch := uint32(s[i])
		if ch >= 'a' && ch <= 'z' {
			ch -= 0x20
		}

		seed1 = c.table[base+ch] ^ (seed1 + seed2)
		seed2 = ch + seed1 + seed2 + (seed2 << 5) + 3
	}

	return seed1
}

// EncryptWords encrypts data in place.
func (c *Cipher) EncryptWords(data []uint32, key uint32) {
	seed := uint32(seed2Start)

	for i := range data {
		seed += c.table[keyOffset+(key&0xFF)]
		plain := data[i]
		data[i] = plain ^ (key + seed)
		key = ((^key << 0x15) + 0x11111111) | (key >> 0x0B)
		seed = plain + seed + (seed << 5) + 3
	}
}

// DecryptWords decrypts data in place.
func (c *Cipher) DecryptWords(data []uint32, key uint32) {
	seed := uint32(seed2Start)

	for i := range data {
		seed += c.table[keyOffset+(key&0xFF)]
		plain := data[i] ^ (key + seed)
		key = ((^key << 0x15) + 0x11111111) | (key >> 0x0B)
		seed = plain + seed + (seed << 5) + 3
		data[i] = plain
	}
}

// Decrypt decrypts buf in place, treating it as little-endian words.
func (c *Cipher) Decrypt(buf []byte, key uint32) error {
	if len(buf)%4 != 0 {
		return ErrUnaligned
	}
	seed := uint32(seed2Start)

	for off := 0; off < len(buf); off += 4 {
		seed += c.table[keyOffset+(key&0xFF)]
		plain := binary.LittleEndian.Uint32(buf[off:]) ^ (key + seed)
		key = ((^key << 0x15) + 0x11111111) | (key >> 0x0B)
		seed = plain + seed + (seed << 5) + 3
		binary.LittleEndian.PutUint32(buf[off:], plain)
	}
	return nil
}

// Encrypt encrypts buf in place, treating it as little-endian words.
func (c *Cipher) Encrypt(buf []byte, key uint32) error {
	if len(buf)%4 != 0 {
		return ErrUnaligned
	}
	seed := uint32(seed2Start)

	for off := 0; off < len(buf); off += 4 {
		seed += c.table[keyOffset+(key&0xFF)]
		plain := binary.LittleEndian.Uint32(buf[off:])
		binary.LittleEndian.PutUint32(buf[off:], plain^(key+seed))
		key = ((^key << 0x15) + 0x11111111) | (key >> 0x0B)
		seed = plain + seed + (seed << 5) + 3
	}
	return nil
}

// FileKey returns the seed for an encrypted file: the FileKey hash of the
// name's last path component. ok is false when name has no such component.
func (c *Cipher) FileKey(name string) (key uint32, ok bool) {
	base := Basename(name)
	if base == "" {
		return 0, false
	}
	return c.Hash(base, FileKey), true
}

// Basename strips everything up to the last '/' or '\'.
func Basename(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '\\' || name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}
