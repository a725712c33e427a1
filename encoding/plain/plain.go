// Package plain implements the Parquet PLAIN value encoding (spec.md §4.2):
// contiguous little-endian scalars, LSB-first bit-packed booleans, and
// length-prefixed byte arrays.
package plain

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/quantfeed/pqwriter/internal/unsafecast"
)

// nativeLittleEndian reports whether the host's native byte order is
// little-endian. spec.md §4.2 and §9 both call out that implementations
// "MAY memcpy the raw slice" only on little-endian hosts and "MUST
// byte-swap" otherwise; this flag gates that choice at encode time.
var nativeLittleEndian = func() bool {
	var x uint16 = 1
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

// AppendBoolean sets bit i (0 = least significant bit of byte i/8) of dst to
// value, growing dst as needed. Callers append bits in increasing order of
// i starting at 0, matching spec.md §4.2's "bit-packed LSB-first, 8 values
// per byte; the last byte may be partially filled".
func AppendBoolean(dst []byte, i int, value bool) []byte {
	byteIndex := i / 8
	for len(dst) <= byteIndex {
		dst = append(dst, 0)
	}
	if value {
		dst[byteIndex] |= 1 << uint(i%8)
	}
	return dst
}

// EncodeBoolean bit-packs values in order and appends the resulting
// ceil(len(values)/8) bytes to dst, leaving dst's existing bytes unchanged.
func EncodeBoolean(dst []byte, values []bool) []byte {
	base := len(dst) * 8
	for i, v := range values {
		dst = AppendBoolean(dst, base+i, v)
	}
	return dst
}

// AppendInt32 appends values as contiguous little-endian int32s.
func AppendInt32(dst []byte, values []int32) []byte {
	if len(values) == 0 {
		return dst
	}
	if nativeLittleEndian {
		return append(dst, unsafecast.Slice[byte](values)...)
	}
	for _, v := range values {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		dst = append(dst, b[:]...)
	}
	return dst
}

// AppendInt64 appends values as contiguous little-endian int64s.
func AppendInt64(dst []byte, values []int64) []byte {
	if len(values) == 0 {
		return dst
	}
	if nativeLittleEndian {
		return append(dst, unsafecast.Slice[byte](values)...)
	}
	for _, v := range values {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		dst = append(dst, b[:]...)
	}
	return dst
}

// AppendFloat appends values as contiguous little-endian IEEE-754 float32s.
func AppendFloat(dst []byte, values []float32) []byte {
	if len(values) == 0 {
		return dst
	}
	if nativeLittleEndian {
		return append(dst, unsafecast.Slice[byte](values)...)
	}
	for _, v := range values {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		dst = append(dst, b[:]...)
	}
	return dst
}

// AppendDouble appends values as contiguous little-endian IEEE-754
// float64s.
func AppendDouble(dst []byte, values []float64) []byte {
	if len(values) == 0 {
		return dst
	}
	if nativeLittleEndian {
		return append(dst, unsafecast.Slice[byte](values)...)
	}
	for _, v := range values {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		dst = append(dst, b[:]...)
	}
	return dst
}

// AppendInt96 appends values as 12 raw bytes each, in source order
// (spec.md §4.2: "INT96: 12 raw bytes per value, emitted in source
// order"). INT96 has no logical byte order of its own in the Parquet
// spec beyond "12 bytes"; this module treats it as an opaque 12-byte
// payload the caller has already assembled.
func AppendInt96(dst []byte, values [][12]byte) []byte {
	for _, v := range values {
		dst = append(dst, v[:]...)
	}
	return dst
}

// AppendFixedLenByteArray appends the concatenated fixed-width byte values.
// data.len must equal valueCount*typeLength; the schema, not the page,
// carries typeLength (spec.md §3).
func AppendFixedLenByteArray(dst []byte, data []byte) []byte {
	return append(dst, data...)
}

// AppendByteArray appends each value as a 4-byte little-endian length
// prefix followed by its raw bytes, reading values out of the (bytes,
// offsets) pair spec.md §3 defines for BYTE_ARRAY ColumnData: offsets has
// length value_count+1, is non-decreasing, starts at 0 and ends at
// len(bytes).
func AppendByteArray(dst []byte, data []byte, offsets []int32) ([]byte, error) {
	if len(offsets) == 0 {
		return dst, nil
	}
	if offsets[0] != 0 {
		return nil, fmt.Errorf("plain: byte array offsets must start at 0, got %d", offsets[0])
	}
	for i := 0; i < len(offsets)-1; i++ {
		start, end := offsets[i], offsets[i+1]
		if end < start {
			return nil, fmt.Errorf("plain: byte array offsets must be non-decreasing at index %d (%d > %d)", i, start, end)
		}
		if int(end) > len(data) {
			return nil, fmt.Errorf("plain: byte array offset %d exceeds data length %d", end, len(data))
		}
		var lenPrefix [4]byte
		binary.LittleEndian.PutUint32(lenPrefix[:], uint32(end-start))
		dst = append(dst, lenPrefix[:]...)
		dst = append(dst, data[start:end]...)
	}
	if int(offsets[len(offsets)-1]) != len(data) {
		return nil, fmt.Errorf("plain: final byte array offset %d must equal data length %d", offsets[len(offsets)-1], len(data))
	}
	return dst, nil
}
