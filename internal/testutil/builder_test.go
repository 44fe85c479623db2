// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package testutil

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImplodeLiterals(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0006d09461c3e60d883b6fe4b0210bf807", hex.EncodeToString(Implode([]byte("hello world"), 6)))
}

func TestBuilderLayout(t *testing.T) {
	t.Parallel()

	b := NewBuilder(8).Prefix(make([]byte, 600)).Add("a.txt", []byte("abc"), FileOptions{})
	data, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, int64(1024), b.Offset())
	assert.Equal(t, 4096, b.SectorSize())

	header := data[b.Offset():]
	assert.Equal(t, Magic, string(header[:4]))
	assert.Equal(t, uint32(HeaderSize), binary.LittleEndian.Uint32(header[4:]))
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(header[24:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(header[28:]))
	assert.Equal(t, "abc", string(header[HeaderSize:HeaderSize+3]))

	// Hash table, then block table, end the archive.
	hashOffset := binary.LittleEndian.Uint32(header[16:])
	blockOffset := binary.LittleEndian.Uint32(header[20:])
	assert.Equal(t, hashOffset+8*16, blockOffset)
	assert.Equal(t, int(blockOffset)+16, len(header))
}

func TestBuilderHashTableFull(t *testing.T) {
	t.Parallel()

	b := NewBuilder(2)
	for _, name := range []string{"a", "b", "c"} {
		b.Add(name, nil, FileOptions{})
	}
	_, err := b.Build()
	assert.Error(t, err)
}

func TestSource(t *testing.T) {
	t.Parallel()

	src := NewSource([]byte("0123456789"))
	assert.Equal(t, int64(10), src.Size())

	buf := make([]byte, 4)
	n, err := src.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "2345", string(buf))

	n, err = src.ReadAt(buf, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)

	_, err = src.ReadAt(buf, 10)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, int64(3), src.Reads())
}
