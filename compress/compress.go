// Package compress defines the Codec interface the page writer dispatches
// through (spec.md §4.5) and the CompressionCodec-to-Codec lookup table
// used to select one at schema/config time.
package compress

import (
	"fmt"

	"github.com/quantfeed/pqwriter/format"
)

// Codec compresses and decompresses whole page payloads in one call.
// Implementations append to dst and must not retain src or dst beyond the
// call.
type Codec interface {
	CompressionCodec() format.CompressionCodec
	Encode(dst, src []byte) ([]byte, error)
	Decode(dst, src []byte) ([]byte, error)
}

// ErrUnsupportedCodec is returned by Lookup for a CompressionCodec value
// with no registered Codec.
var ErrUnsupportedCodec = fmt.Errorf("compress: unsupported compression codec")

var registry = map[format.CompressionCodec]Codec{}

// Register adds c to the set Lookup searches. Subpackages call this from
// an init function, the same registration pattern the teacher's encoding
// subpackages use for their own lookup tables.
func Register(c Codec) {
	registry[c.CompressionCodec()] = c
}

// Lookup returns the registered Codec for codec, or ErrUnsupportedCodec.
func Lookup(codec format.CompressionCodec) (Codec, error) {
	c, ok := registry[codec]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCodec, codec)
	}
	return c, nil
}
