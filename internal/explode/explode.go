// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Package explode decompresses data produced by the PKWare Data Compression
// Library "implode" routine, as stored in MPQ sectors flagged as imploded.
//
// The stream starts with two header bytes: the literal mode (0 for raw
// 8-bit literals, 1 for Huffman-coded literals) and the number of low
// distance bits (4, 5 or 6, for 1, 2 or 4 KiB dictionaries). Bits are
// consumed least significant first; Huffman codes are stored bit-inverted.
package explode

import "errors"

var (
	// ErrHeader is returned for an unknown literal mode or dictionary size.
	ErrHeader = errors.New("explode: invalid header")
	// ErrTruncated is returned when input ends before the end-of-stream code.
	ErrTruncated = errors.New("explode: unexpected end of input")
	// ErrDistance is returned when a match reaches before the start of output.
	ErrDistance = errors.New("explode: distance too far back")
	// ErrOverflow is returned when the output would exceed the destination.
	ErrOverflow = errors.New("explode: output exceeds destination")
	// ErrCode is returned for a bit pattern that matches no Huffman code.
	ErrCode = errors.New("explode: invalid code")
)

const maxBits = 13

// Compact code-length tables: each byte is (repeat-1)<<4 | bit length.
var (
	litLen = []byte{
		11, 124, 8, 7, 28, 7, 188, 13, 76, 4, 10, 8, 12, 10, 12, 10, 8, 23, 8,
		9, 7, 6, 7, 8, 7, 6, 55, 8, 23, 24, 12, 11, 7, 9, 11, 12, 6, 7, 22, 5,
		7, 24, 6, 11, 9, 6, 7, 22, 7, 11, 38, 7, 9, 8, 25, 11, 8, 11, 9, 12,
		8, 12, 5, 38, 5, 38, 5, 11, 7, 5, 6, 21, 6, 10, 53, 8, 7, 24, 10, 27,
		44, 253, 253, 253, 252, 252, 252, 13, 12, 45, 12, 45, 12, 61, 12, 45,
		44, 173,
	}
	lenLen  = []byte{2, 35, 36, 53, 38, 23}
	distLen = []byte{2, 20, 53, 230, 247, 151, 248}

	lenBase  = [16]int{3, 2, 4, 5, 6, 7, 8, 9, 10, 12, 16, 24, 40, 72, 136, 264}
	lenExtra = [16]uint{0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8}

	litCode  = newHuffman(litLen)
	lenCode  = newHuffman(lenLen)
	distCode = newHuffman(distLen)
)

// endLength is the match length that terminates the stream.
const endLength = 519

// huffman is a canonical code: count[n] codes of length n, symbols ordered
// by code.
type huffman struct {
	count  [maxBits + 1]int
	symbol []int
}

func newHuffman(rep []byte) *huffman {
	var lengths []int
	for _, b := range rep {
		n := int(b>>4) + 1
		for ; n > 0; n-- {
			lengths = append(lengths, int(b&15))
		}
	}

	h := &huffman{symbol: make([]int, len(lengths))}
	for _, l := range lengths {
		h.count[l]++
	}

	var offs [maxBits + 1]int
	for l := 1; l < maxBits; l++ {
		offs[l+1] = offs[l] + h.count[l]
	}
	for sym, l := range lengths {
		if l != 0 {
			h.symbol[offs[l]] = sym
			offs[l]++
		}
	}
	return h
}

type decoder struct {
	src    []byte
	pos    int
	bitbuf uint32
	bitcnt uint
}

func (d *decoder) bits(need uint) (int, error) {
	val := d.bitbuf
	for d.bitcnt < need {
		if d.pos >= len(d.src) {
			return 0, ErrTruncated
		}
		val |= uint32(d.src[d.pos]) << d.bitcnt
		d.pos++
		d.bitcnt += 8
	}
	d.bitbuf = val >> need
	d.bitcnt -= need
	return int(val & (1<<need - 1)), nil
}

func (d *decoder) decode(h *huffman) (int, error) {
	code, first, index := 0, 0, 0
	for l := 1; l <= maxBits; l++ {
		b, err := d.bits(1)
		if err != nil {
			return 0, err
		}
		code |= b ^ 1
		count := h.count[l]
		if code < first+count {
			return h.symbol[index+code-first], nil
		}
		index += count
		first += count
		first <<= 1
		code <<= 1
	}
	return 0, ErrCode
}

// Decompress explodes src into dst and returns the number of bytes written.
// dst must be large enough for the whole output.
func Decompress(dst, src []byte) (int, error) {
	if len(src) < 2 {
		return 0, ErrTruncated
	}
	lit := src[0]
	dict := uint(src[1])
	if lit > 1 {
		return 0, ErrHeader
	}
	if dict < 4 || dict > 6 {
		return 0, ErrHeader
	}

	d := &decoder{src: src, pos: 2}
	n := 0
	for {
		flag, err := d.bits(1)
		if err != nil {
			return n, err
		}

		if flag == 0 {
			var sym int
			if lit == 1 {
				sym, err = d.decode(litCode)
			} else {
				sym, err = d.bits(8)
			}
			if err != nil {
				return n, err
			}
			if n >= len(dst) {
				return n, ErrOverflow
			}
			dst[n] = byte(sym)
			n++
			continue
		}

		sym, err := d.decode(lenCode)
		if err != nil {
			return n, err
		}
		extra, err := d.bits(lenExtra[sym])
		if err != nil {
			return n, err
		}
		length := lenBase[sym] + extra
		if length == endLength {
			return n, nil
		}

		shift := dict
		if length == 2 {
			shift = 2
		}
		hi, err := d.decode(distCode)
		if err != nil {
			return n, err
		}
		lo, err := d.bits(shift)
		if err != nil {
			return n, err
		}
		dist := hi<<shift + lo + 1
		if dist > n {
			return n, ErrDistance
		}
		if n+length > len(dst) {
			return n, ErrOverflow
		}
		// Byte-wise: the source may overlap the bytes being written.
		for i := 0; i < length; i++ {
			dst[n] = dst[n-dist]
			n++
		}
	}
}
