// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package testutil

// Implode encodes data as a PKWare DCL stream made only of uncoded
// literals. The output is always larger than the input, which keeps imploded
// sectors distinguishable from raw ones.
func Implode(data []byte, dictBits byte) []byte {
	w := &bitWriter{out: []byte{0, dictBits}}
	for _, b := range data {
		w.put(0, 1)
		w.put(uint32(b), 8)
	}
	// End of stream: match flag, length symbol 15 (code 1111111 stored
	// inverted) and extra bits 0xFF, giving length 519.
	w.put(1, 1)
	w.put(0, 7)
	w.put(0xFF, 8)
	return w.flush()
}

type bitWriter struct {
	out []byte
	acc uint32
	n   uint
}

func (w *bitWriter) put(v uint32, bits uint) {
	for i := uint(0); i < bits; i++ {
		w.acc |= ((v >> i) & 1) << w.n
		w.n++
		if w.n == 8 {
			w.out = append(w.out, byte(w.acc))
			w.acc, w.n = 0, 0
		}
	}
}

func (w *bitWriter) flush() []byte {
	if w.n > 0 {
		w.out = append(w.out, byte(w.acc))
		w.acc, w.n = 0, 0
	}
	return w.out
}
