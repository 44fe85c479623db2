// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suprsokr/mpq/internal/testutil"
)

func TestListFiles(t *testing.T) {
	t.Parallel()

	archive, _ := openBuilt(t, testutil.NewBuilder(16).
		Add("ui_art\\title.pcx", []byte("pcx"), testutil.FileOptions{}).
		Add("levels\\towndata\\town.dun", []byte("dun"), testutil.FileOptions{Implode: true}).
		Listfile())

	files, err := archive.ListFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"ui_art\\title.pcx", "levels\\towndata\\town.dun"}, files)

	for _, name := range files {
		assert.True(t, archive.HasFile(name), name)
	}
}

func TestListFilesMissing(t *testing.T) {
	t.Parallel()

	archive, _ := openBuilt(t, testutil.NewBuilder(4).Add("a.txt", []byte("a"), testutil.FileOptions{}))

	_, err := archive.ListFiles()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseListfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", []string{}},
		{"crlf", "a.txt\r\nb.txt\r\n", []string{"a.txt", "b.txt"}},
		{"lf without trailing newline", "a.txt\nb.txt", []string{"a.txt", "b.txt"}},
		{"semicolons", "a.txt;b.txt;;c.txt", []string{"a.txt", "b.txt", "c.txt"}},
		{"blank lines and padding", "\r\n  a.txt  \r\n\r\n\x00\x00", []string{"a.txt"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.expected, parseListfile([]byte(test.input)))
		})
	}
}
