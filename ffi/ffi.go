// Package ffi implements the logic behind the foreign-callable façade
// spec.md §6 describes, independent of any particular C ABI shim. It is
// kept cgo-free and directly testable: cmd/libpqwriter is the thin
// //export boundary that marshals C types into calls here, the same
// split the foreign-function boundary itself is specified as an external
// collaborator (spec.md §1) rather than core logic.
//
// Handles are opaque uint64 ids into a package-level table, never raw Go
// pointers: passing a Go pointer across cgo requires pinning rules this
// module has no need to take on, and an integer handle is the
// conventional stable-ABI shape (spec.md §6: "expose opaque pointers,
// never language-specific objects" — an integer id is the pointer-free
// version of the same idea, see DESIGN.md).
package ffi

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/quantfeed/pqwriter"
	"github.com/quantfeed/pqwriter/format"
	"github.com/quantfeed/pqwriter/schema"
	"github.com/quantfeed/pqwriter/sink"
)

// Status mirrors the ABI status codes spec.md §6 defines.
type Status int32

const (
	OK              Status = 0
	InvalidArgument Status = 1
	NotOpen         Status = 2
	Internal        Status = 3
	OutOfMemory     Status = 4
)

var (
	writerHandles   sync.Map // uint64 -> *writerState
	sinkHandles     sync.Map // uint64 -> *sinkState
	nextHandleID    atomic.Uint64
)

// allocHandle returns a fresh, never-zero handle id; 0 is reserved as the
// "null handle" the create() operations return on failure (spec.md §6).
func allocHandle() uint64 {
	return nextHandleID.Add(1)
}

// --- Writer façade (create/add_column/open/write_row_group/close) ---

type writerState struct {
	mu          sync.Mutex
	file        *os.File
	columns     []schema.ColumnDef
	compression format.CompressionCodec
	schema      *schema.Schema
	writer      *pqwriter.Writer
	opened      bool
	lastErr     string
}

func (w *writerState) setErr(err error) Status {
	if err == nil {
		return OK
	}
	w.lastErr = err.Error()
	return Internal
}

// CreateWriter opens outputPath for writing and returns a handle, or 0 on
// failure (spec.md §6's create()).
func CreateWriter(outputPath string, compressionCode int32) uint64 {
	f, err := os.Create(outputPath)
	if err != nil {
		return 0
	}
	id := allocHandle()
	writerHandles.Store(id, &writerState{
		file:        f,
		compression: format.CompressionCodec(compressionCode),
	})
	return id
}

func lookupWriter(handle uint64) *writerState {
	v, ok := writerHandles.Load(handle)
	if !ok {
		return nil
	}
	return v.(*writerState)
}

// AddColumn appends one ColumnDef to handle's pending schema. Must be
// called before Open.
func AddColumn(handle uint64, name string, physicalType, repetition, typeLength int32) Status {
	w := lookupWriter(handle)
	if w == nil {
		return NotOpen
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.opened {
		w.lastErr = "add_column called after open"
		return InvalidArgument
	}
	w.columns = append(w.columns, schema.ColumnDef{
		Name:       name,
		Type:       format.PhysicalType(physicalType),
		Repetition: format.FieldRepetitionType(repetition),
		TypeLength: typeLength,
	})
	return OK
}

// OpenWriter validates the accumulated schema and opens the underlying
// pqwriter.Writer (spec.md §4.6's open()).
func OpenWriter(handle uint64) Status {
	w := lookupWriter(handle)
	if w == nil {
		return NotOpen
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.opened {
		w.lastErr = "already open"
		return InvalidArgument
	}
	s, err := schema.New(w.columns)
	if err != nil {
		w.lastErr = err.Error()
		return InvalidArgument
	}
	wr, err := pqwriter.Open(w.file, s, pqwriter.WithCompression(w.compression))
	if err != nil {
		w.lastErr = err.Error()
		return Internal
	}
	w.schema = s
	w.writer = wr
	w.opened = true
	return OK
}

// WriteRowGroup writes one row group of columns with no explicit levels
// (every column must be REQUIRED); spec.md §6's write_row_group().
// rowCount is checked only for sign: a negative value returns
// InvalidArgument and zero makes the call a no-op. Otherwise the rows
// written, and the row count recorded in the row group's metadata, come
// from the column data; rowCount is not compared with it.
func WriteRowGroup(handle uint64, rowCount int32, columns []pqwriter.ColumnData) Status {
	return writeRowGroup(handle, rowCount, columns, nil)
}

// WriteRowGroupWithLevels is WriteRowGroup's OPTIONAL/REPEATED-capable
// counterpart; spec.md §6's write_row_group_with_levels().
func WriteRowGroupWithLevels(handle uint64, rowCount int32, columns []pqwriter.ColumnData, levels []pqwriter.ColumnLevels) Status {
	return writeRowGroup(handle, rowCount, columns, levels)
}

func writeRowGroup(handle uint64, rowCount int32, columns []pqwriter.ColumnData, levels []pqwriter.ColumnLevels) Status {
	w := lookupWriter(handle)
	if w == nil {
		return NotOpen
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.opened {
		w.lastErr = "writer not open"
		return NotOpen
	}
	if rowCount < 0 {
		w.lastErr = fmt.Sprintf("negative row count %d", rowCount)
		return InvalidArgument
	}
	if rowCount == 0 {
		return OK // spec.md §4.6: rows == 0 is a no-op.
	}
	if err := w.writer.WriteRowGroup(columns, levels); err != nil {
		return w.setErr(err)
	}
	return OK
}

// CloseWriter finalizes the file; idempotent per spec.md §4.6.
func CloseWriter(handle uint64) Status {
	w := lookupWriter(handle)
	if w == nil {
		return NotOpen
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writer == nil {
		w.lastErr = "close called before open"
		return NotOpen
	}
	if err := w.writer.Close(); err != nil {
		return w.setErr(err)
	}
	return OK
}

// DestroyWriter releases handle's resources. Safe to call after Close or
// on a handle that was never opened.
func DestroyWriter(handle uint64) {
	w := lookupWriter(handle)
	if w == nil {
		return
	}
	w.mu.Lock()
	_ = w.file.Close()
	w.mu.Unlock()
	writerHandles.Delete(handle)
}

// LastError returns handle's most recent error message, or "" if none.
func LastError(handle uint64) string {
	w := lookupWriter(handle)
	if w == nil {
		return "unknown handle"
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// --- Streaming sink façade (create/start/push/stop/destroy) ---

type sinkState struct {
	mu             sync.Mutex
	file           *os.File
	worker         *sink.Worker
	writer         *pqwriter.Writer
	started        bool
	filesWritten   atomic.Uint64
	entriesWritten atomic.Uint64
	lastErr        string
}

// CreateSink opens outputPath, builds a schema from columns, and
// constructs (but does not start) a sink.Worker writing row groups of
// rowGroupRows rows each.
func CreateSink(outputPath string, columns []schema.ColumnDef, compressionCode int32, rowGroupRows int32) uint64 {
	f, err := os.Create(outputPath)
	if err != nil {
		return 0
	}
	s, err := schema.New(columns)
	if err != nil {
		f.Close()
		return 0
	}
	w, err := pqwriter.Open(f, s, pqwriter.WithCompression(format.CompressionCodec(compressionCode)))
	if err != nil {
		f.Close()
		return 0
	}
	wk, err := sink.New(w, s, int(rowGroupRows))
	if err != nil {
		f.Close()
		return 0
	}
	id := allocHandle()
	sinkHandles.Store(id, &sinkState{file: f, worker: wk, writer: w})
	return id
}

func lookupSink(handle uint64) *sinkState {
	v, ok := sinkHandles.Load(handle)
	if !ok {
		return nil
	}
	return v.(*sinkState)
}

// StartSink spawns the drainer goroutine.
func StartSink(handle uint64) Status {
	s := lookupSink(handle)
	if s == nil {
		return NotOpen
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.worker.Start(); err != nil {
		s.lastErr = err.Error()
		return InvalidArgument
	}
	s.started = true
	return OK
}

// PushSink offers payload to the sink's ring buffer, never blocking
// (spec.md §4.9's try_record()). It reports acceptance as a bool, the
// "boolean-style status" spec.md §6 calls for on this façade.
func PushSink(handle uint64, payload []byte) bool {
	s := lookupSink(handle)
	if s == nil {
		return false
	}
	ok := s.worker.TryRecord(payload)
	if ok {
		s.entriesWritten.Add(1)
	}
	return ok
}

// StopSink signals shutdown, joins the drainer, and surfaces the first
// writer-side error encountered, if any.
func StopSink(handle uint64) Status {
	s := lookupSink(handle)
	if s == nil {
		return NotOpen
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.lastErr = "stop called before start"
		return NotOpen
	}
	if err := s.worker.Shutdown(); err != nil {
		s.lastErr = err.Error()
		return Internal
	}
	s.filesWritten.Add(1)
	return OK
}

// DestroySink releases handle's resources.
func DestroySink(handle uint64) {
	s := lookupSink(handle)
	if s == nil {
		return
	}
	s.mu.Lock()
	_ = s.file.Close()
	s.mu.Unlock()
	sinkHandles.Delete(handle)
}

// SinkFilesWritten returns the number of files this sink has completed
// (0 or 1 for a single-shot sink handle; spec.md §6's files_written).
func SinkFilesWritten(handle uint64) uint64 {
	s := lookupSink(handle)
	if s == nil {
		return 0
	}
	return s.filesWritten.Load()
}

// SinkEntriesWritten returns the number of records accepted by PushSink
// (spec.md §6's entries_written). Dropped records (TryRecord returning
// false) are not counted here; use the underlying worker's DroppedCount
// for that, exposed through sink.Worker directly rather than the ABI.
func SinkEntriesWritten(handle uint64) uint64 {
	s := lookupSink(handle)
	if s == nil {
		return 0
	}
	return s.entriesWritten.Load()
}

// SinkLastError returns handle's most recent error message, or "" if
// none.
func SinkLastError(handle uint64) string {
	s := lookupSink(handle)
	if s == nil {
		return "unknown handle"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SinkDroppedCount exposes sink.Worker.DroppedCount for callers that want
// the drop accounting spec.md §8's property 10 describes without going
// through the counters above.
func SinkDroppedCount(handle uint64) uint64 {
	s := lookupSink(handle)
	if s == nil {
		return 0
	}
	return s.worker.DroppedCount()
}
