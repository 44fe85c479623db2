// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"

	"github.com/suprsokr/mpq/internal/explode"
)

// decompressSector decodes one stored sector into dst, which is exactly the
// sector's uncompressed length, and returns the bytes written.
func decompressSector(flags BlockFlags, dst, src []byte) (int, error) {
	switch {
	case flags.MultiCompressed():
		return 0, fmt.Errorf("%w: multi-compression", ErrUnsupportedCompression)

	case len(src) == len(dst):
		// Sectors that did not shrink are stored uncompressed.
		return copy(dst, src), nil

	case flags.Imploded():
		n, err := explode.Decompress(dst, src)
		if err != nil {
			return n, fmt.Errorf("%w: %w", ErrExplode, err)
		}
		return n, nil

	default:
		return 0, fmt.Errorf("%w: flags 0x%08X", ErrUnsupportedCompression, uint32(flags))
	}
}
