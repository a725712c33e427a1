package unsafecast_test

import (
	"encoding/binary"
	"testing"

	"github.com/quantfeed/pqwriter/internal/unsafecast"
)

func TestSliceInt32ToBytes(t *testing.T) {
	values := []int32{1, -2, 3, 0x7fffffff}
	bytes := unsafecast.Slice[byte](values)

	if len(bytes) != 4*len(values) {
		t.Fatalf("length = %d, want %d", len(bytes), 4*len(values))
	}

	for i, v := range values {
		got := int32(binary.LittleEndian.Uint32(bytes[4*i:]))
		if got != v {
			t.Errorf("value %d: got %d, want %d", i, got, v)
		}
	}
}

func TestBytesToStringRoundTrip(t *testing.T) {
	data := []byte("AAPL    ")
	s := unsafecast.BytesToString(data)
	if s != "AAPL    " {
		t.Fatalf("got %q", s)
	}
	back := unsafecast.StringToBytes(s)
	if string(back) != string(data) {
		t.Fatalf("round trip mismatch")
	}
}
