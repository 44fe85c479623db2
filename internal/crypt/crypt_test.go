// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package crypt

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashKnownKeys(t *testing.T) {
	t.Parallel()

	// MPQ_KEY_HASH_TABLE and MPQ_KEY_BLOCK_TABLE from StormLib.h
	tests := []struct {
		input    string
		kind     HashType
		expected uint32
	}{
		{"(hash table)", FileKey, 0xC3AF3770},
		{"(block table)", FileKey, 0xEC83B3A3},
		{"(listfile)", TableOffset, 0x5F3DE859},
		{"(listfile)", NameA, 0xFD657910},
		{"(listfile)", NameB, 0x4E9B98A7},
		{"(listfile)", FileKey, 0x2D2F0A94},
		{"ui_art\\title.pcx", TableOffset, 0x424ED721},
		{"title.pcx", FileKey, 0xE19C3ED3},
	}

	c := New()
	for _, test := range tests {
		got := c.Hash(test.input, test.kind)
		assert.Equalf(t, test.expected, got, "Hash(%q, %d) = 0x%08X", test.input, test.kind, got)
	}
}

func TestHashStormLibNames(t *testing.T) {
	t.Parallel()

	// From StormLib's StormTest.cpp HashVals test data.
	tests := []struct {
		name  string
		input string
	}{
		{"mixed case", "ReplaceableTextures\\CommandButtons\\BTNHaboss79.blp"},
		{"lower case", "replaceabletextures\\commandbuttons\\btnhaboss79.blp"},
		{"upper case", "REPLACEABLETEXTURES\\COMMANDBUTTONS\\BTNHABOSS79.BLP"},
	}

	c := New()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, uint32(0x8BD6929A), c.Hash(test.input, NameA))
			assert.Equal(t, uint32(0xFD55129B), c.Hash(test.input, NameB))
		})
	}
}

func TestHashDoesNotNormalizeSeparators(t *testing.T) {
	t.Parallel()

	c := New()
	assert.NotEqual(t,
		c.Hash("ui_art\\title.pcx", NameA),
		c.Hash("ui_art/title.pcx", NameA))
}

func TestHashDeterministic(t *testing.T) {
	t.Parallel()

	c := New()
	for _, kind := range []HashType{TableOffset, NameA, NameB, FileKey} {
		assert.Equal(t, c.Hash("levels\\towndata\\town.til", kind), c.Hash("levels\\towndata\\town.til", kind))
		assert.Equal(t, c.Hash("FOO.TXT", kind), c.Hash("foo.txt", kind))
	}
}

func TestTableGeneration(t *testing.T) {
	t.Parallel()

	c := New()
	seed := uint32(0x00100001)
	for index1 := 0; index1 < 0x100; index1++ {
		index2 := index1
		for i := 0; i < 5; i++ {
			seed = (seed*125 + 3) % 0x2AAAAB
			temp1 := (seed & 0xFFFF) << 0x10
			seed = (seed*125 + 3) % 0x2AAAAB
			temp2 := seed & 0xFFFF
			require.Equalf(t, temp1|temp2, c.table[index2], "table[0x%03X]", index2)
			index2 += 0x100
		}
	}
}

func TestDefaultIsShared(t *testing.T) {
	t.Parallel()

	assert.Same(t, Default(), Default())
}

func TestEncryptFixture(t *testing.T) {
	t.Parallel()

	c := New()
	words := []uint32{0x12345678, 0xDEADBEEF, 0x00000000, 0xFFFFFFFF}
	c.EncryptWords(words, 0xC3AF3770)
	assert.Equal(t, []uint32{0x940899B4, 0xA4ACC3BF, 0x97FD70CC, 0xC4451308}, words)

	c.DecryptWords(words, 0xC3AF3770)
	assert.Equal(t, []uint32{0x12345678, 0xDEADBEEF, 0x00000000, 0xFFFFFFFF}, words)
}

func TestDecryptBytesMatchesWords(t *testing.T) {
	t.Parallel()

	c := New()
	buf := make([]byte, 16)
	for i, w := range []uint32{0x940899B4, 0xA4ACC3BF, 0x97FD70CC, 0xC4451308} {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	require.NoError(t, c.Decrypt(buf, 0xC3AF3770))

	assert.Equal(t, uint32(0x12345678), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, uint32(0xDEADBEEF), binary.LittleEndian.Uint32(buf[4:]))
	assert.Equal(t, uint32(0x00000000), binary.LittleEndian.Uint32(buf[8:]))
	assert.Equal(t, uint32(0xFFFFFFFF), binary.LittleEndian.Uint32(buf[12:]))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		data []byte
		key  uint32
	}{
		{"empty", []byte{}, 0x1234},
		{"one word", []byte{1, 2, 3, 4}, 0xC3AF3770},
		{"text", []byte("Diablo data, sixteen"), 0xEC83B3A3},
		{"zeros", make([]byte, 64), 0xFFFFFFFF},
	}

	c := New()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			buf := append([]byte(nil), tc.data...)
			require.NoError(t, c.Encrypt(buf, tc.key))
			if len(buf) > 0 {
				assert.NotEqual(t, tc.data, buf)
			}
			require.NoError(t, c.Decrypt(buf, tc.key))
			assert.Equal(t, tc.data, buf)
		})
	}
}

func TestDecryptUnaligned(t *testing.T) {
	t.Parallel()

	c := New()
	buf := []byte{1, 2, 3, 4, 5}
	assert.ErrorIs(t, c.Decrypt(buf, 1), ErrUnaligned)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, buf)
	assert.ErrorIs(t, c.Encrypt(buf, 1), ErrUnaligned)
}

func TestFileKey(t *testing.T) {
	t.Parallel()

	c := New()
	tests := []struct {
		name string
		ok   bool
	}{
		{"ui_art\\title.pcx", true},
		{"ui_art/title.pcx", true},
		{"title.pcx", true},
		{"ui_art\\", false},
		{"", false},
	}
	for _, tt := range tests {
		key, ok := c.FileKey(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		if ok {
			assert.Equal(t, uint32(0xE19C3ED3), key, tt.name)
		}
	}
}
