// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"
	"strings"
)

const listfileName = "(listfile)"

// ListFiles returns the names recorded in the archive's (listfile). Archives
// without one return an error wrapping ErrNotFound.
func (a *Archive) ListFiles() ([]string, error) {
	data, err := a.ReadFile(listfileName)
	if err != nil {
		return nil, fmt.Errorf("read listfile: %w", err)
	}
	return parseListfile(data), nil
}

// parseListfile splits listfile content on line breaks and semicolons.
func parseListfile(data []byte) []string {
	fields := strings.FieldsFunc(string(data), func(r rune) bool {
		return r == '\r' || r == '\n' || r == ';' || r == 0
	})
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			names = append(names, f)
		}
	}
	return names
}
