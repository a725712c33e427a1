// Package gzip implements compress.Codec on top of klauspost/compress/gzip,
// the drop-in replacement the rest of this module's pack standardizes on
// for DEFLATE-family compression.
package gzip

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/quantfeed/pqwriter/compress"
	"github.com/quantfeed/pqwriter/format"
)

func init() { compress.Register(new(Codec)) }

// Codec wraps a reusable gzip.Writer/Reader pair so repeated Encode/Decode
// calls on the same Codec value avoid re-allocating compressor state.
type Codec struct {
	writer *gzip.Writer
	reader *gzip.Reader
}

func (c *Codec) CompressionCodec() format.CompressionCodec { return format.Gzip }

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	if c.writer == nil {
		c.writer = gzip.NewWriter(buf)
	} else {
		c.writer.Reset(buf)
	}
	if _, err := c.writer.Write(src); err != nil {
		return nil, fmt.Errorf("compress/gzip: %w", err)
	}
	if err := c.writer.Close(); err != nil {
		return nil, fmt.Errorf("compress/gzip: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	if c.reader == nil {
		r, err := gzip.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("compress/gzip: %w", err)
		}
		c.reader = r
	} else if err := c.reader.Reset(bytes.NewReader(src)); err != nil {
		return nil, fmt.Errorf("compress/gzip: %w", err)
	}
	buf := bytes.NewBuffer(dst)
	if _, err := io.Copy(buf, c.reader); err != nil {
		return nil, fmt.Errorf("compress/gzip: %w", err)
	}
	return buf.Bytes(), nil
}
