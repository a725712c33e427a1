// Package brotli implements compress.Codec on top of andybalholm/brotli.
package brotli

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"

	"github.com/quantfeed/pqwriter/compress"
	"github.com/quantfeed/pqwriter/format"
)

func init() { compress.Register(new(Codec)) }

// Codec compresses at brotli's default quality level; spec.md does not
// expose a per-page quality knob, so this module picks one level and
// keeps it fixed for determinism across runs.
type Codec struct{}

func (c *Codec) CompressionCodec() format.CompressionCodec { return format.Brotli }

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	w := brotli.NewWriter(buf)
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("compress/brotli: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress/brotli: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(src))
	buf := bytes.NewBuffer(dst)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("compress/brotli: %w", err)
	}
	return buf.Bytes(), nil
}
