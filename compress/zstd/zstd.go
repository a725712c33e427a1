// Package zstd implements compress.Codec on top of klauspost/compress/zstd.
package zstd

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/quantfeed/pqwriter/compress"
	"github.com/quantfeed/pqwriter/format"
)

func init() { compress.Register(new(Codec)) }

// Codec lazily builds a shared encoder/decoder pair on first use; both are
// safe for reuse across calls per klauspost/compress/zstd's own contract.
type Codec struct {
	once    sync.Once
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	initErr error
}

func (c *Codec) CompressionCodec() format.CompressionCodec { return format.Zstd }

func (c *Codec) init() error {
	c.once.Do(func() {
		c.encoder, c.initErr = zstd.NewWriter(nil)
		if c.initErr != nil {
			return
		}
		c.decoder, c.initErr = zstd.NewReader(nil)
	})
	return c.initErr
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	if err := c.init(); err != nil {
		return nil, fmt.Errorf("compress/zstd: %w", err)
	}
	return c.encoder.EncodeAll(src, dst), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	if err := c.init(); err != nil {
		return nil, fmt.Errorf("compress/zstd: %w", err)
	}
	out, err := c.decoder.DecodeAll(src, dst)
	if err != nil {
		return nil, fmt.Errorf("compress/zstd: %w", err)
	}
	return out, nil
}
