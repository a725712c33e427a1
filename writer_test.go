package pqwriter_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/quantfeed/pqwriter"
	"github.com/quantfeed/pqwriter/format"
	"github.com/quantfeed/pqwriter/schema"
)

func mustSchema(t *testing.T, cols []schema.ColumnDef) *schema.Schema {
	t.Helper()
	s, err := schema.New(cols)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestWriteSingleRequiredInt64Row(t *testing.T) {
	s := mustSchema(t, []schema.ColumnDef{
		{Name: "price", Type: schema.Int64, Repetition: schema.Required},
	})

	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s)
	if err != nil {
		t.Fatal(err)
	}

	err = w.WriteRowGroup(
		[]pqwriter.ColumnData{{Int64: []int64{100}}},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	assertValidFile(t, buf.Bytes())
}

func TestWriteOptionalByteArrayWithNulls(t *testing.T) {
	s := mustSchema(t, []schema.ColumnDef{
		{Name: "symbol", Type: schema.ByteArray, Repetition: schema.Optional, Logical: schema.LogicalString},
	})

	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s)
	if err != nil {
		t.Fatal(err)
	}

	// Three rows: "AAPL", null, "MSFT" -> definition levels [1, 0, 1].
	data := []byte("AAPLMSFT")
	err = w.WriteRowGroup(
		[]pqwriter.ColumnData{{
			ByteArrayValues:  data,
			ByteArrayOffsets: []int32{0, 4, 8},
		}},
		[]pqwriter.ColumnLevels{{DefinitionLevels: []byte{1, 0, 1}}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	assertValidFile(t, buf.Bytes())
}

func TestWriteFixedLenByteArrayColumn(t *testing.T) {
	s := mustSchema(t, []schema.ColumnDef{
		{Name: "ticker", Type: schema.FixedLenByteArray, Repetition: schema.Required, TypeLength: 8},
	})

	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s)
	if err != nil {
		t.Fatal(err)
	}

	fixed := []byte("AAPL    " + "MSFT    ")
	err = w.WriteRowGroup(
		[]pqwriter.ColumnData{{FixedLenByteArray: fixed}},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	assertValidFile(t, buf.Bytes())
}

func TestWriteGzipCompressedRowGroup(t *testing.T) {
	s := mustSchema(t, []schema.ColumnDef{
		{Name: "price", Type: schema.Int64, Repetition: schema.Required},
	})

	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s, pqwriter.WithCompression(format.Gzip))
	if err != nil {
		t.Fatal(err)
	}

	values := make([]int64, 1000)
	for i := range values {
		values[i] = int64(i)
	}
	if err := w.WriteRowGroup([]pqwriter.ColumnData{{Int64: values}}, nil); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	assertValidFile(t, buf.Bytes())
}

func TestWriteRejectsColumnCountMismatch(t *testing.T) {
	s := mustSchema(t, []schema.ColumnDef{
		{Name: "a", Type: schema.Int64, Repetition: schema.Required},
		{Name: "b", Type: schema.Int64, Repetition: schema.Required},
	})
	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s)
	if err != nil {
		t.Fatal(err)
	}
	err = w.WriteRowGroup([]pqwriter.ColumnData{{Int64: []int64{1}}}, nil)
	if !errors.Is(err, pqwriter.ErrColumnCount) {
		t.Fatalf("got %v, want ErrColumnCount", err)
	}
}

func TestWriteRejectsRowGroupTooLarge(t *testing.T) {
	s := mustSchema(t, []schema.ColumnDef{
		{Name: "price", Type: schema.Int64, Repetition: schema.Required},
	})
	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s, pqwriter.WithMaxRowGroupSize(16))
	if err != nil {
		t.Fatal(err)
	}
	values := make([]int64, 100)
	err = w.WriteRowGroup([]pqwriter.ColumnData{{Int64: values}}, nil)
	if !errors.Is(err, pqwriter.ErrRowGroupTooLarge) {
		t.Fatalf("got %v, want ErrRowGroupTooLarge", err)
	}
}

func TestWriteRejectsAfterClose(t *testing.T) {
	s := mustSchema(t, []schema.ColumnDef{
		{Name: "price", Type: schema.Int64, Repetition: schema.Required},
	})
	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	err = w.WriteRowGroup([]pqwriter.ColumnData{{Int64: []int64{1}}}, nil)
	if !errors.Is(err, pqwriter.ErrWriterClosed) {
		t.Fatalf("got %v, want ErrWriterClosed", err)
	}
	// Close is idempotent.
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestWriteMixedRequiredAndOptionalColumns(t *testing.T) {
	s := mustSchema(t, []schema.ColumnDef{
		{Name: "seq", Type: schema.Int32, Repetition: schema.Required},
		{Name: "symbol", Type: schema.ByteArray, Repetition: schema.Optional, Logical: schema.LogicalString},
	})

	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s)
	if err != nil {
		t.Fatal(err)
	}

	// 3 rows, the REQUIRED column carries one value per row; the OPTIONAL
	// column's second row is null, so it carries only 2 dense values
	// behind definition levels [1, 0, 1].
	data := []byte("AAPLMSFT")
	err = w.WriteRowGroup(
		[]pqwriter.ColumnData{
			{Int32: []int32{1, 2, 3}},
			{ByteArrayValues: data, ByteArrayOffsets: []int32{0, 4, 8}},
		},
		[]pqwriter.ColumnLevels{
			{},
			{DefinitionLevels: []byte{1, 0, 1}},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	assertValidFile(t, buf.Bytes())
}

func TestWriteRejectsColumnTypeMismatch(t *testing.T) {
	s := mustSchema(t, []schema.ColumnDef{
		{Name: "price", Type: schema.Int64, Repetition: schema.Required},
	})
	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s)
	if err != nil {
		t.Fatal(err)
	}
	err = w.WriteRowGroup([]pqwriter.ColumnData{{Int32: []int32{1, 2, 3}}}, nil)
	if !errors.Is(err, pqwriter.ErrColumnTypeMismatch) {
		t.Fatalf("got %v, want ErrColumnTypeMismatch", err)
	}
}

func TestWriteRejectsMissingLevelsForOptionalColumn(t *testing.T) {
	s := mustSchema(t, []schema.ColumnDef{
		{Name: "symbol", Type: schema.ByteArray, Repetition: schema.Optional},
	})
	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s)
	if err != nil {
		t.Fatal(err)
	}
	err = w.WriteRowGroup([]pqwriter.ColumnData{{
		ByteArrayValues:  []byte("AAPL"),
		ByteArrayOffsets: []int32{0, 4},
	}}, nil)
	if !errors.Is(err, pqwriter.ErrMissingLevels) {
		t.Fatalf("got %v, want ErrMissingLevels", err)
	}
}

// assertValidFile checks the structural invariants every produced file
// must satisfy regardless of schema or compression (spec.md §9): PAR1
// magic at the start and end, and a footer length that, read backwards
// from the trailing magic, points at a valid offset inside the file.
func assertValidFile(t *testing.T, data []byte) {
	t.Helper()
	if len(data) < 4+4+4 {
		t.Fatalf("file too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:4], []byte("PAR1")) {
		t.Fatalf("missing leading magic: % x", data[:4])
	}
	if !bytes.Equal(data[len(data)-4:], []byte("PAR1")) {
		t.Fatalf("missing trailing magic: % x", data[len(data)-4:])
	}
	footerLenBytes := data[len(data)-8 : len(data)-4]
	footerLen := int(footerLenBytes[0]) | int(footerLenBytes[1])<<8 | int(footerLenBytes[2])<<16 | int(footerLenBytes[3])<<24
	if footerLen <= 0 || footerLen > len(data)-12 {
		t.Fatalf("implausible footer length %d for file of %d bytes", footerLen, len(data))
	}
}
