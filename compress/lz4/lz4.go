// Package lz4 implements compress.Codec on top of pierrec/lz4/v4's raw
// block API (CompressBlock/UncompressBlock), matching Parquet's
// LZ4_RAW codec: a bare compressed block with no frame header, since the
// page header already carries both the compressed and uncompressed sizes.
package lz4

import (
	"fmt"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/quantfeed/pqwriter/compress"
	"github.com/quantfeed/pqwriter/format"
)

// maxDecodeAttempts bounds the destination-buffer growth loop in Decode;
// each attempt quadruples the compressed size, so this covers a ~4^8x
// expansion ratio before giving up.
const maxDecodeAttempts = 8

func init() { compress.Register(new(Codec)) }

// Codec compresses with a reusable hash table, matching lz4.CompressBlock's
// recommended usage for repeated calls.
type Codec struct {
	hashTable []int
}

func (c *Codec) CompressionCodec() format.CompressionCodec { return format.Lz4Raw }

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	if len(c.hashTable) == 0 {
		c.hashTable = make([]int, lz4.CompressBlockBound(len(src))+1)
	}
	base := len(dst)
	out := append(dst, make([]byte, lz4.CompressBlockBound(len(src)))...)
	n, err := lz4.CompressBlock(src, out[base:], c.hashTable)
	if err != nil {
		return nil, fmt.Errorf("compress/lz4: %w", err)
	}
	if n == 0 {
		// Incompressible input: CompressBlock leaves dst untouched in
		// this case. Parquet's LZ4_RAW codec has no "stored" fallback
		// marker, so this module requires compressible pages; a 0
		// result only happens when src doesn't shrink.
		return nil, fmt.Errorf("compress/lz4: input did not compress")
	}
	return out[:base+n], nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	base := len(dst)
	size := len(src) * 4
	if size < 64 {
		size = 64
	}
	var lastErr error
	for attempt := 0; attempt < maxDecodeAttempts; attempt++ {
		out := append(dst, make([]byte, size)...)
		n, err := lz4.UncompressBlock(src, out[base:])
		if err == nil {
			return out[:base+n], nil
		}
		lastErr = err
		if !strings.Contains(err.Error(), "short") {
			return nil, fmt.Errorf("compress/lz4: %w", err)
		}
		size *= 4
	}
	return nil, fmt.Errorf("compress/lz4: destination buffer too small after %d attempts: %w", maxDecodeAttempts, lastErr)
}
