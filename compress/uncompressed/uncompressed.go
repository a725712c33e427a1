// Package uncompressed implements the no-op compress.Codec for
// CompressionCodec_UNCOMPRESSED.
package uncompressed

import (
	"github.com/quantfeed/pqwriter/compress"
	"github.com/quantfeed/pqwriter/format"
)

func init() { compress.Register(new(Codec)) }

// Codec passes bytes through unchanged.
type Codec struct{}

func (c *Codec) CompressionCodec() format.CompressionCodec { return format.Uncompressed }

func (c *Codec) Encode(dst, src []byte) ([]byte, error) { return append(dst, src...), nil }

func (c *Codec) Decode(dst, src []byte) ([]byte, error) { return append(dst, src...), nil }
