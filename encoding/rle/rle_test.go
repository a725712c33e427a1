package rle_test

import (
	"testing"

	"github.com/quantfeed/pqwriter/encoding/rle"
)

func TestEncodeDecodeRoundTripRLERun(t *testing.T) {
	e := rle.Encoding{BitWidth: 3}
	values := make([]int32, 50)
	for i := range values {
		values[i] = 5
	}

	enc, err := e.Encode(nil, values)
	if err != nil {
		t.Fatal(err)
	}

	got := make([]int32, len(values))
	n, err := e.Decode(got, enc)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d bytes, want %d", n, len(enc))
	}
	for i, v := range got {
		if v != 5 {
			t.Fatalf("values[%d] = %d, want 5", i, v)
		}
	}
}

func TestEncodeDecodeRoundTripBitPacked(t *testing.T) {
	e := rle.Encoding{BitWidth: 2}
	values := []int32{0, 1, 2, 3, 1, 0, 2, 1, 3, 0, 1}

	enc, err := e.Encode(nil, values)
	if err != nil {
		t.Fatal(err)
	}

	got := make([]int32, len(values))
	if _, err := e.Decode(got, enc); err != nil {
		t.Fatal(err)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Fatalf("values[%d] = %d, want %d", i, got[i], values[i])
		}
	}
}

func TestEncodeDecodeMixedRunsAndPacked(t *testing.T) {
	e := rle.Encoding{BitWidth: 1}
	values := make([]int32, 0, 64)
	for i := 0; i < 20; i++ {
		values = append(values, 1)
	}
	for i := 0; i < 5; i++ {
		values = append(values, int32(i%2))
	}
	for i := 0; i < 16; i++ {
		values = append(values, 0)
	}

	enc, err := e.Encode(nil, values)
	if err != nil {
		t.Fatal(err)
	}

	got := make([]int32, len(values))
	if _, err := e.Decode(got, enc); err != nil {
		t.Fatal(err)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Fatalf("values[%d] = %d, want %d", i, got[i], values[i])
		}
	}
}

func TestEncodeZeroBitWidthIsEmpty(t *testing.T) {
	e := rle.Encoding{BitWidth: 0}
	enc, err := e.Encode(nil, []int32{0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(enc) != 0 {
		t.Fatalf("got %d bytes, want 0", len(enc))
	}
}

func TestEncodeRejectsInvalidBitWidth(t *testing.T) {
	e := rle.Encoding{BitWidth: 33}
	if _, err := e.Encode(nil, []int32{1}); err == nil {
		t.Fatal("expected ErrInvalidBitWidth")
	}
}

func TestEncodeBooleanRoundTrip(t *testing.T) {
	values := []bool{true, true, false, true, false, false, false, true, true, true, true, true, true, true, true, true}
	enc := rle.EncodeBoolean(nil, values)

	e := rle.Encoding{BitWidth: 1}
	widened := make([]int32, len(values))
	if _, err := e.Decode(widened, enc); err != nil {
		t.Fatal(err)
	}
	for i, v := range values {
		want := int32(0)
		if v {
			want = 1
		}
		if widened[i] != want {
			t.Fatalf("values[%d] = %d, want %d", i, widened[i], want)
		}
	}
}

func TestBitWidthForMaxLevel(t *testing.T) {
	cases := []struct {
		max  byte
		want byte
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
	}
	for _, c := range cases {
		if got := rle.BitWidthForMaxLevel(c.max); got != c.want {
			t.Fatalf("BitWidthForMaxLevel(%d) = %d, want %d", c.max, got, c.want)
		}
	}
}
