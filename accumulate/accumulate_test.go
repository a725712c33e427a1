package accumulate_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/quantfeed/pqwriter/accumulate"
	"github.com/quantfeed/pqwriter/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New([]schema.ColumnDef{
		{Name: "price", Type: schema.Int64, Repetition: schema.Required},
		{Name: "qty", Type: schema.Int32, Repetition: schema.Optional},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewLayoutComputesOffsets(t *testing.T) {
	layout, err := accumulate.NewLayout(testSchema(t))
	if err != nil {
		t.Fatal(err)
	}
	if layout.NullBitmapBytes != 1 {
		t.Fatalf("null bitmap bytes = %d, want 1", layout.NullBitmapBytes)
	}
	if layout.Columns[0].ValueOffset != 1 || layout.Columns[0].ValueSize != 8 {
		t.Fatalf("price layout = %+v", layout.Columns[0])
	}
	if layout.Columns[1].ValueOffset != 9 || layout.Columns[1].ValueSize != 4 {
		t.Fatalf("qty layout = %+v", layout.Columns[1])
	}
	if layout.RecordSize != 13 {
		t.Fatalf("record size = %d, want 13", layout.RecordSize)
	}
}

func TestNewLayoutRejectsByteArray(t *testing.T) {
	s, err := schema.New([]schema.ColumnDef{
		{Name: "symbol", Type: schema.ByteArray, Repetition: schema.Required},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := accumulate.NewLayout(s); err == nil {
		t.Fatal("expected ErrUnsupportedColumn for BYTE_ARRAY")
	}
}

func buildRecord(t *testing.T, layout *accumulate.Layout, price int64, qty *int32) []byte {
	t.Helper()
	rec := make([]byte, layout.RecordSize)
	binary.LittleEndian.PutUint64(rec[layout.Columns[0].ValueOffset:], uint64(price))
	if qty != nil {
		rec[0] |= 1 << 0
		binary.LittleEndian.PutUint32(rec[layout.Columns[1].ValueOffset:], uint32(*qty))
	}
	return rec
}

func TestAppendSplitsColumnsAndNulls(t *testing.T) {
	s := testSchema(t)
	layout, err := accumulate.NewLayout(s)
	if err != nil {
		t.Fatal(err)
	}
	a := accumulate.New(layout)

	q1 := int32(10)
	if err := a.Append(buildRecord(t, layout, 100, &q1)); err != nil {
		t.Fatal(err)
	}
	if err := a.Append(buildRecord(t, layout, 200, nil)); err != nil {
		t.Fatal(err)
	}
	q3 := int32(30)
	if err := a.Append(buildRecord(t, layout, 300, &q3)); err != nil {
		t.Fatal(err)
	}

	if a.RowCount() != 3 {
		t.Fatalf("row count = %d, want 3", a.RowCount())
	}

	priceBytes := a.ColumnValues(0)
	if len(priceBytes) != 24 {
		t.Fatalf("price bytes len = %d, want 24", len(priceBytes))
	}
	var prices [3]int64
	for i := range prices {
		prices[i] = int64(binary.LittleEndian.Uint64(priceBytes[i*8:]))
	}
	if prices != [3]int64{100, 200, 300} {
		t.Fatalf("prices = %v", prices)
	}
	if a.ColumnDefinitionLevels(0) != nil {
		t.Fatal("required column should have no definition levels")
	}

	qtyDefs := a.ColumnDefinitionLevels(1)
	if !bytes.Equal(qtyDefs, []byte{1, 0, 1}) {
		t.Fatalf("qty defs = %v, want [1 0 1]", qtyDefs)
	}
	qtyBytes := a.ColumnValues(1)
	if len(qtyBytes) != 8 {
		t.Fatalf("qty bytes len = %d, want 8 (only defined values)", len(qtyBytes))
	}
}

func TestResetRetainsCapacity(t *testing.T) {
	s := testSchema(t)
	layout, err := accumulate.NewLayout(s)
	if err != nil {
		t.Fatal(err)
	}
	a := accumulate.New(layout)
	for i := 0; i < 5; i++ {
		if err := a.Append(buildRecord(t, layout, int64(i), nil)); err != nil {
			t.Fatal(err)
		}
	}
	a.Reset()
	if a.RowCount() != 0 {
		t.Fatalf("row count after reset = %d, want 0", a.RowCount())
	}
	if len(a.ColumnValues(0)) != 0 {
		t.Fatalf("column values after reset = %d bytes, want 0", len(a.ColumnValues(0)))
	}
}

func TestAppendRejectsWrongRecordSize(t *testing.T) {
	s := testSchema(t)
	layout, err := accumulate.NewLayout(s)
	if err != nil {
		t.Fatal(err)
	}
	a := accumulate.New(layout)
	if err := a.Append(make([]byte, 3)); err == nil {
		t.Fatal("expected error for wrong record size")
	}
}
