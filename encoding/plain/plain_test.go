package plain_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/quantfeed/pqwriter/encoding/plain"
)

func TestAppendBoolean(t *testing.T) {
	values := []byte{}

	for i := range 100 {
		values = plain.AppendBoolean(values, i, (i%2) != 0)
	}

	if !bytes.Equal(values, []byte{
		0b10101010,
		0b10101010,
		0b10101010,
		0b10101010,
		0b10101010,
		0b10101010,
		0b10101010,
		0b10101010,
		0b10101010,
		0b10101010,
		0b10101010,
		0b10101010,
		0b00001010,
	}) {
		t.Errorf("%08b\n", values)
	}
}

func TestEncodeBooleanMatchesAppendBoolean(t *testing.T) {
	values := make([]bool, 37)
	for i := range values {
		values[i] = i%3 == 0
	}

	var want []byte
	for i, v := range values {
		want = plain.AppendBoolean(want, i, v)
	}

	got := plain.EncodeBoolean(nil, values)
	if !bytes.Equal(got, want) {
		t.Fatalf("got %08b, want %08b", got, want)
	}
}

func TestAppendInt32LittleEndian(t *testing.T) {
	got := plain.AppendInt32(nil, []int32{1, -1, 0x7feeddcc})
	want := []byte{
		0x01, 0x00, 0x00, 0x00,
		0xff, 0xff, 0xff, 0xff,
		0xcc, 0xdd, 0xee, 0x7f,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}

func TestAppendInt64LittleEndian(t *testing.T) {
	got := plain.AppendInt64(nil, []int64{-1})
	want := bytes.Repeat([]byte{0xff}, 8)
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}

func TestAppendDoubleRoundTripsBits(t *testing.T) {
	got := plain.AppendDouble(nil, []float64{3.5})
	var b [8]byte
	copy(b[:], got)
	bits := uint64(0)
	for i := 7; i >= 0; i-- {
		bits = bits<<8 | uint64(b[i])
	}
	if math.Float64frombits(bits) != 3.5 {
		t.Fatalf("round trip failed: %v", math.Float64frombits(bits))
	}
}

func TestAppendInt96EmitsTwelveBytesPerValue(t *testing.T) {
	v := [12]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	got := plain.AppendInt96(nil, [][12]byte{v, v})
	if len(got) != 24 {
		t.Fatalf("len = %d, want 24", len(got))
	}
	if !bytes.Equal(got[:12], v[:]) || !bytes.Equal(got[12:], v[:]) {
		t.Fatalf("got %v", got)
	}
}

func TestAppendFixedLenByteArray(t *testing.T) {
	data := []byte("AAPL    " + "MSFT    ")
	got := plain.AppendFixedLenByteArray(nil, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestAppendByteArray(t *testing.T) {
	data := []byte("foobar")
	offsets := []int32{0, 3, 6}

	got, err := plain.AppendByteArray(nil, data, offsets)
	if err != nil {
		t.Fatal(err)
	}

	want := []byte{
		3, 0, 0, 0, 'f', 'o', 'o',
		3, 0, 0, 0, 'b', 'a', 'r',
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}

func TestAppendByteArrayRejectsBadOffsets(t *testing.T) {
	if _, err := plain.AppendByteArray(nil, []byte("x"), []int32{1, 2}); err == nil {
		t.Fatal("expected error for offsets not starting at 0")
	}
	if _, err := plain.AppendByteArray(nil, []byte("x"), []int32{0, 5}); err == nil {
		t.Fatal("expected error for offset exceeding data length")
	}
	if _, err := plain.AppendByteArray(nil, []byte("xy"), []int32{0, 2, 1}); err == nil {
		t.Fatal("expected error for decreasing offsets")
	}
}
