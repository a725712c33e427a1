// Package rle implements the Parquet RLE / bit-packed hybrid encoding
// (spec.md §4.3) used for definition levels, repetition levels, and the
// BOOLEAN PLAIN fallback. A hybrid stream is a sequence of groups, each
// either:
//
//   - an RLE run: a little-endian varint header (runLength<<1 | 0)
//     followed by ceil(bitWidth/8) bytes holding the single repeated value;
//   - a bit-packed run: a varint header (numGroups<<1 | 1) followed by
//     numGroups*bitWidth bytes, each group of 8 consecutive values packed
//     LSB-first.
//
// spec.md §9 requires byte-for-byte determinism, so Encoding always emits
// one maximal RLE run for a repeat of minRepeatForRLE (8) or more
// consecutive values that starts on a group boundary, and packs everything
// else as bit-packed runs in groups of 8. Only the last run of a stream is
// zero-padded.
package rle

import (
	"encoding/binary"
	"fmt"
)

// minRepeatForRLE is the shortest run length encoded as RLE instead of
// bit-packing: a repeat of 8 or more values fills at least one whole
// bit-packed group.
const minRepeatForRLE = 8

// Encoding implements the hybrid encoder/decoder for one fixed bit width.
// BitWidth must be in [0, 32]; a width of 0 encodes every value as 0 with
// no payload bytes at all (spec.md §4.3's "all values fit in 0 bits when
// max level is 0").
type Encoding struct {
	BitWidth byte
}

// ErrInvalidBitWidth is returned when BitWidth is outside the supported
// range.
var ErrInvalidBitWidth = fmt.Errorf("rle: bit width must be in [0, 32]")

// byteWidth returns ceil(bitWidth/8), the number of bytes an RLE run's
// single packed value occupies.
func byteWidth(bitWidth byte) int {
	return int(bitWidth+7) / 8
}

// Encode appends the hybrid-encoded representation of values (each a level
// or boolean already widened to int32, values[i] < 1<<BitWidth) to dst.
func (e *Encoding) Encode(dst []byte, values []int32) ([]byte, error) {
	if e.BitWidth > 32 {
		return nil, ErrInvalidBitWidth
	}
	if e.BitWidth == 0 {
		return dst, nil
	}
	i := 0
	for i < len(values) {
		runLen := 1
		for i+runLen < len(values) && values[i+runLen] == values[i] {
			runLen++
		}
		if runLen >= minRepeatForRLE {
			dst = appendUvarint(dst, uint64(runLen)<<1)
			dst = appendPackedValue(dst, uint32(values[i]), byteWidth(e.BitWidth))
			i += runLen
			continue
		}

		// Accumulate a bit-packed run: consume values greedily in
		// groups of 8 until a long repeat (>= minRepeatForRLE) begins on
		// a group boundary, so no padding lands mid-stream.
		start := i
		for i < len(values) {
			runLen := 1
			for i+runLen < len(values) && values[i+runLen] == values[i] {
				runLen++
			}
			if runLen >= minRepeatForRLE && (i-start)%8 == 0 {
				break
			}
			i++
		}
		dst = e.encodeBitPacked(dst, values[start:i])
	}
	return dst, nil
}

// encodeBitPacked appends one bit-packed run covering values, padding the
// final group with zeros up to a multiple of 8 as spec.md §4.3 requires.
func (e *Encoding) encodeBitPacked(dst []byte, values []int32) []byte {
	numGroups := (len(values) + 7) / 8
	dst = appendUvarint(dst, uint64(numGroups)<<1|1)
	return e.encodeBitPackedGroups(dst, values, numGroups)
}

// encodeBitPackedGroups packs numGroups groups of 8 values (the last group
// zero-padded) at e.BitWidth bits each, LSB-first within the byte stream.
func (e *Encoding) encodeBitPackedGroups(dst []byte, values []int32, numGroups int) []byte {
	bitWidth := int(e.BitWidth)
	var bitBuf uint64
	var bitCount int

	flush := func() {
		for bitCount >= 8 {
			dst = append(dst, byte(bitBuf))
			bitBuf >>= 8
			bitCount -= 8
		}
	}

	total := numGroups * 8
	for i := 0; i < total; i++ {
		var v uint32
		if i < len(values) {
			v = uint32(values[i])
		}
		bitBuf |= uint64(v) << uint(bitCount)
		bitCount += bitWidth
		flush()
	}
	if bitCount > 0 {
		dst = append(dst, byte(bitBuf))
	}
	return dst
}

// appendPackedValue appends v's low n bytes, little-endian.
func appendPackedValue(dst []byte, v uint32, n int) []byte {
	for i := 0; i < n; i++ {
		dst = append(dst, byte(v))
		v >>= 8
	}
	return dst
}

func appendUvarint(dst []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(dst, buf[:n]...)
}

// Decode reads count hybrid-encoded values from src into dst (which must
// have length >= count), returning the number of bytes of src consumed.
// Decode exists so round-trip tests can verify Encode without depending on
// a third-party Parquet reader.
func (e *Encoding) Decode(dst []int32, src []byte) (int, error) {
	if e.BitWidth > 32 {
		return 0, ErrInvalidBitWidth
	}
	if e.BitWidth == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return 0, nil
	}

	out := 0
	pos := 0
	bw := byteWidth(e.BitWidth)
	for out < len(dst) {
		header, n := binary.Uvarint(src[pos:])
		if n <= 0 {
			return pos, fmt.Errorf("rle: truncated group header at byte %d", pos)
		}
		pos += n

		if header&1 == 0 {
			runLen := int(header >> 1)
			if pos+bw > len(src) {
				return pos, fmt.Errorf("rle: truncated RLE run value at byte %d", pos)
			}
			var v uint32
			for i := 0; i < bw; i++ {
				v |= uint32(src[pos+i]) << uint(8*i)
			}
			pos += bw
			for i := 0; i < runLen && out < len(dst); i++ {
				dst[out] = int32(v)
				out++
			}
			continue
		}

		numGroups := int(header >> 1)
		bitWidth := int(e.BitWidth)
		totalBits := numGroups * 8 * bitWidth
		totalBytes := (totalBits + 7) / 8
		if pos+totalBytes > len(src) {
			return pos, fmt.Errorf("rle: truncated bit-packed run at byte %d", pos)
		}

		var bitBuf uint64
		bitCount := 0
		bytePos := pos
		for i := 0; i < numGroups*8 && out < len(dst); i++ {
			for bitCount < bitWidth {
				bitBuf |= uint64(src[bytePos]) << uint(bitCount)
				bytePos++
				bitCount += 8
			}
			mask := uint64(1)<<uint(bitWidth) - 1
			dst[out] = int32(bitBuf & mask)
			bitBuf >>= uint(bitWidth)
			bitCount -= bitWidth
			out++
		}
		pos += totalBytes
	}
	return pos, nil
}

// EncodeBoolean is AppendBoolean's counterpart for the definition/repetition
// level encoder: it widens each bool to an int32 0/1 and hybrid-encodes
// with BitWidth 1, matching the PLAIN BOOLEAN fallback spec.md §4.2 allows
// producers to request.
func EncodeBoolean(dst []byte, values []bool) []byte {
	e := Encoding{BitWidth: 1}
	widened := make([]int32, len(values))
	for i, v := range values {
		if v {
			widened[i] = 1
		}
	}
	out, _ := e.Encode(dst, widened)
	return out
}

// BitWidthForMaxLevel returns the number of bits needed to represent any
// value in [0, maxLevel], per spec.md §4.3.
func BitWidthForMaxLevel(maxLevel byte) byte {
	width := byte(0)
	for (1 << width) <= int(maxLevel) {
		width++
	}
	return width
}
