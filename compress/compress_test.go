package compress_test

import (
	"bytes"
	"testing"

	"github.com/quantfeed/pqwriter/compress"
	"github.com/quantfeed/pqwriter/compress/brotli"
	"github.com/quantfeed/pqwriter/compress/gzip"
	"github.com/quantfeed/pqwriter/compress/lz4"
	"github.com/quantfeed/pqwriter/compress/uncompressed"
	"github.com/quantfeed/pqwriter/compress/zstd"
	"github.com/quantfeed/pqwriter/format"
)

var tests = [...]struct {
	scenario string
	codec    compress.Codec
}{
	{scenario: "uncompressed", codec: new(uncompressed.Codec)},
	{scenario: "gzip", codec: new(gzip.Codec)},
	{scenario: "brotli", codec: new(brotli.Codec)},
	{scenario: "zstd", codec: new(zstd.Codec)},
	{scenario: "lz4", codec: new(lz4.Codec)},
}

var testdata = bytes.Repeat([]byte("1234567890qwertyuiopasdfghjklzxcvbnm"), 10e3)

func TestCompressionCodec(t *testing.T) {
	buffer := make([]byte, 0, len(testdata))
	output := make([]byte, 0, len(testdata))

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			const N = 3
			for i := range N {
				var err error

				buffer, err = test.codec.Encode(buffer[:0], testdata)
				if err != nil {
					t.Fatal(err)
				}

				output, err = test.codec.Decode(output[:0], buffer)
				if err != nil {
					t.Fatal(err)
				}

				if !bytes.Equal(testdata, output) {
					t.Errorf("content mismatch after compressing and decompressing (attempt %d/%d)", i+1, N)
				}
			}
		})
	}
}

func TestLookup(t *testing.T) {
	for _, test := range tests {
		codec, err := compress.Lookup(test.codec.CompressionCodec())
		if err != nil {
			t.Fatalf("%s: %v", test.scenario, err)
		}
		if codec.CompressionCodec() != test.codec.CompressionCodec() {
			t.Fatalf("%s: lookup returned mismatched codec", test.scenario)
		}
	}
}

func TestLookupUnsupported(t *testing.T) {
	if _, err := compress.Lookup(format.Snappy); err == nil {
		t.Fatal("expected ErrUnsupportedCodec for an unregistered codec")
	}
}
