package ffi_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quantfeed/pqwriter"
	"github.com/quantfeed/pqwriter/ffi"
	"github.com/quantfeed/pqwriter/format"
	"github.com/quantfeed/pqwriter/schema"
)

func TestWriterLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")

	handle := ffi.CreateWriter(path, int32(format.Uncompressed))
	if handle == 0 {
		t.Fatal("CreateWriter returned the null handle")
	}
	defer ffi.DestroyWriter(handle)

	if status := ffi.AddColumn(handle, "price", int32(format.Int64), int32(format.Required), 0); status != ffi.OK {
		t.Fatalf("AddColumn: got %v", status)
	}
	if status := ffi.OpenWriter(handle); status != ffi.OK {
		t.Fatalf("OpenWriter: got %v, last error %q", status, ffi.LastError(handle))
	}
	if status := ffi.OpenWriter(handle); status != ffi.InvalidArgument {
		t.Fatalf("second OpenWriter: got %v, want InvalidArgument", status)
	}

	status := ffi.WriteRowGroup(handle, 2, []pqwriter.ColumnData{{Int64: []int64{1, 2}}})
	if status != ffi.OK {
		t.Fatalf("WriteRowGroup: got %v, last error %q", status, ffi.LastError(handle))
	}

	if status := ffi.WriteRowGroup(handle, 0, nil); status != ffi.OK {
		t.Fatalf("zero-row WriteRowGroup should be a no-op, got %v", status)
	}

	if status := ffi.CloseWriter(handle); status != ffi.OK {
		t.Fatalf("CloseWriter: got %v, last error %q", status, ffi.LastError(handle))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatal("expected a non-empty output file")
	}
}

func TestWriteRowGroupBeforeOpenReturnsNotOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	handle := ffi.CreateWriter(path, int32(format.Uncompressed))
	defer ffi.DestroyWriter(handle)

	if status := ffi.AddColumn(handle, "price", int32(format.Int64), int32(format.Required), 0); status != ffi.OK {
		t.Fatalf("AddColumn: got %v", status)
	}
	status := ffi.WriteRowGroup(handle, 1, []pqwriter.ColumnData{{Int64: []int64{1}}})
	if status != ffi.NotOpen {
		t.Fatalf("got %v, want NotOpen", status)
	}
}

func TestUnknownHandleReturnsNotOpen(t *testing.T) {
	if status := ffi.OpenWriter(999999); status != ffi.NotOpen {
		t.Fatalf("got %v, want NotOpen", status)
	}
	if got := ffi.LastError(999999); got != "unknown handle" {
		t.Fatalf("got %q", got)
	}
}

func TestSinkLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sink.parquet")

	columns := []schema.ColumnDef{
		{Name: "price", Type: schema.Int64, Repetition: schema.Required},
	}
	handle := ffi.CreateSink(path, columns, int32(format.Uncompressed), 4)
	if handle == 0 {
		t.Fatal("CreateSink returned the null handle")
	}
	defer ffi.DestroySink(handle)

	if status := ffi.StartSink(handle); status != ffi.OK {
		t.Fatalf("StartSink: got %v", status)
	}

	buf := make([]byte, 8)
	for i := 0; i < 6; i++ {
		if !ffi.PushSink(handle, buf) {
			t.Fatalf("PushSink rejected record %d", i)
		}
	}

	if status := ffi.StopSink(handle); status != ffi.OK {
		t.Fatalf("StopSink: got %v, last error %q", status, ffi.SinkLastError(handle))
	}

	if got := ffi.SinkEntriesWritten(handle); got != 6 {
		t.Errorf("entries_written: got %d, want 6", got)
	}
	if got := ffi.SinkFilesWritten(handle); got != 1 {
		t.Errorf("files_written: got %d, want 1", got)
	}
	if got := ffi.SinkDroppedCount(handle); got != 0 {
		t.Errorf("dropped: got %d, want 0", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatal("expected a non-empty output file")
	}
}
