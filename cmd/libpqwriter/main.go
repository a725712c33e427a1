// Command libpqwriter builds the stable C ABI spec.md §6 describes: a
// shared or static library other languages call into. It is the only
// package in this module compiled with cgo; all the logic it calls lives
// in the cgo-free ffi package so it can be unit-tested without a C
// toolchain.
//
// Build with `go build -buildmode=c-shared` (or c-archive) to produce
// libpqwriter.so/.h (or .a/.h); this main package's only job besides the
// //export functions below is satisfying the package main requirement
// that build mode imposes.
package main

/*
#include <stdint.h>
#include <stddef.h>
#include <stdlib.h>

typedef struct {
	int32_t physical_type;
	const char *name;
	int32_t repetition_type;
	int32_t type_length;
} pq_column_def;

typedef struct {
	int32_t physical_type;

	const void *values;
	int64_t value_count;

	// BYTE_ARRAY only: value_count+1 offsets into values.
	const int32_t *byte_array_offsets;

	// optional; one byte per logical row, NULL if the column is REQUIRED.
	const uint8_t *definition_levels;
	const uint8_t *repetition_levels;
	int64_t level_count;
} pq_column_input;
*/
import "C"

import (
	"unsafe"

	"github.com/quantfeed/pqwriter"
	"github.com/quantfeed/pqwriter/ffi"
	"github.com/quantfeed/pqwriter/format"
	"github.com/quantfeed/pqwriter/schema"
)

func main() {}

//export pq_create
func pq_create(outputPath *C.char, compressionCode C.int32_t) C.uint64_t {
	return C.uint64_t(ffi.CreateWriter(C.GoString(outputPath), int32(compressionCode)))
}

//export pq_add_column
func pq_add_column(handle C.uint64_t, name *C.char, physicalType, repetitionType, typeLength C.int32_t) C.int32_t {
	status := ffi.AddColumn(uint64(handle), C.GoString(name), int32(physicalType), int32(repetitionType), int32(typeLength))
	return C.int32_t(status)
}

//export pq_open
func pq_open(handle C.uint64_t) C.int32_t {
	return C.int32_t(ffi.OpenWriter(uint64(handle)))
}

//export pq_write_row_group
func pq_write_row_group(handle C.uint64_t, rowCount C.int32_t, columns *C.pq_column_input, columnCount C.size_t) C.int32_t {
	data, _, status := columnInputSlice(columns, columnCount)
	if status != ffi.OK {
		return C.int32_t(status)
	}
	return C.int32_t(ffi.WriteRowGroup(uint64(handle), int32(rowCount), data))
}

//export pq_write_row_group_with_levels
func pq_write_row_group_with_levels(handle C.uint64_t, rowCount C.int32_t, columns *C.pq_column_input, columnCount C.size_t) C.int32_t {
	data, levels, status := columnInputSlice(columns, columnCount)
	if status != ffi.OK {
		return C.int32_t(status)
	}
	return C.int32_t(ffi.WriteRowGroupWithLevels(uint64(handle), int32(rowCount), data, levels))
}

//export pq_close
func pq_close(handle C.uint64_t) C.int32_t {
	return C.int32_t(ffi.CloseWriter(uint64(handle)))
}

//export pq_destroy
func pq_destroy(handle C.uint64_t) {
	ffi.DestroyWriter(uint64(handle))
}

// pq_last_error returns a heap-allocated, NUL-terminated copy of handle's
// last error message. Ownership passes to the caller, which must release
// it with free() (or pq_free_string below), the same convention
// C.CString itself documents.
//
//export pq_last_error
func pq_last_error(handle C.uint64_t) *C.char {
	return C.CString(ffi.LastError(uint64(handle)))
}

//export pq_free_string
func pq_free_string(s *C.char) {
	C.free(unsafe.Pointer(s))
}

// --- streaming sink façade ---

//export pq_sink_create
func pq_sink_create(outputPath *C.char, columns *C.pq_column_def, columnCount C.size_t, compressionCode C.int32_t, rowGroupRows C.int32_t) C.uint64_t {
	defs := make([]schema.ColumnDef, 0, int(columnCount))
	for _, c := range unsafe.Slice(columns, int(columnCount)) {
		defs = append(defs, schema.ColumnDef{
			Name:       C.GoString(c.name),
			Type:       format.PhysicalType(c.physical_type),
			Repetition: format.FieldRepetitionType(c.repetition_type),
			TypeLength: int32(c.type_length),
		})
	}
	handle := ffi.CreateSink(C.GoString(outputPath), defs, int32(compressionCode), int32(rowGroupRows))
	return C.uint64_t(handle)
}

//export pq_sink_start
func pq_sink_start(handle C.uint64_t) C.int32_t {
	return C.int32_t(ffi.StartSink(uint64(handle)))
}

//export pq_sink_push
func pq_sink_push(handle C.uint64_t, payload *C.uint8_t, payloadLen C.size_t) C.int32_t {
	buf := C.GoBytes(unsafe.Pointer(payload), C.int(payloadLen))
	if ffi.PushSink(uint64(handle), buf) {
		return 1
	}
	return 0
}

//export pq_sink_stop
func pq_sink_stop(handle C.uint64_t) C.int32_t {
	return C.int32_t(ffi.StopSink(uint64(handle)))
}

//export pq_sink_destroy
func pq_sink_destroy(handle C.uint64_t) {
	ffi.DestroySink(uint64(handle))
}

//export pq_sink_files_written
func pq_sink_files_written(handle C.uint64_t) C.uint64_t {
	return C.uint64_t(ffi.SinkFilesWritten(uint64(handle)))
}

//export pq_sink_entries_written
func pq_sink_entries_written(handle C.uint64_t) C.uint64_t {
	return C.uint64_t(ffi.SinkEntriesWritten(uint64(handle)))
}

// columnInputSlice converts a C array of pq_column_input into the Go
// ColumnData/ColumnLevels pairs pqwriter.WriteRowGroup expects. It
// returns ffi.InvalidArgument if a column carries an unrecognized
// physical_type.
func columnInputSlice(columns *C.pq_column_input, columnCount C.size_t) ([]pqwriter.ColumnData, []pqwriter.ColumnLevels, ffi.Status) {
	n := int(columnCount)
	data := make([]pqwriter.ColumnData, n)
	levels := make([]pqwriter.ColumnLevels, n)

	for i, c := range unsafe.Slice(columns, n) {
		cd, ok := decodeColumnInput(c)
		if !ok {
			return nil, nil, ffi.InvalidArgument
		}
		data[i] = cd
		if c.definition_levels != nil {
			levels[i].DefinitionLevels = unsafe.Slice((*byte)(unsafe.Pointer(c.definition_levels)), int(c.level_count))
		}
		if c.repetition_levels != nil {
			levels[i].RepetitionLevels = unsafe.Slice((*byte)(unsafe.Pointer(c.repetition_levels)), int(c.level_count))
		}
	}
	return data, levels, ffi.OK
}

func decodeColumnInput(c C.pq_column_input) (pqwriter.ColumnData, bool) {
	n := int(c.value_count)
	switch format.PhysicalType(c.physical_type) {
	case format.Boolean:
		src := unsafe.Slice((*byte)(c.values), n)
		out := make([]bool, n)
		for i, b := range src {
			out[i] = b != 0
		}
		return pqwriter.ColumnData{Boolean: out}, true
	case format.Int32:
		src := unsafe.Slice((*int32)(c.values), n)
		return pqwriter.ColumnData{Int32: append([]int32(nil), src...)}, true
	case format.Int64:
		src := unsafe.Slice((*int64)(c.values), n)
		return pqwriter.ColumnData{Int64: append([]int64(nil), src...)}, true
	case format.Int96:
		src := unsafe.Slice((*[12]byte)(c.values), n)
		return pqwriter.ColumnData{Int96: append([][12]byte(nil), src...)}, true
	case format.Float:
		src := unsafe.Slice((*float32)(c.values), n)
		return pqwriter.ColumnData{Float: append([]float32(nil), src...)}, true
	case format.Double:
		src := unsafe.Slice((*float64)(c.values), n)
		return pqwriter.ColumnData{Double: append([]float64(nil), src...)}, true
	case format.ByteArray:
		if c.byte_array_offsets == nil {
			return pqwriter.ColumnData{}, false
		}
		offsets := unsafe.Slice((*int32)(c.byte_array_offsets), n+1)
		total := offsets[n]
		values := unsafe.Slice((*byte)(c.values), total)
		return pqwriter.ColumnData{
			ByteArrayValues:  append([]byte(nil), values...),
			ByteArrayOffsets: append([]int32(nil), offsets...),
		}, true
	case format.FixedLenByteArray:
		src := unsafe.Slice((*byte)(c.values), n)
		return pqwriter.ColumnData{FixedLenByteArray: append([]byte(nil), src...)}, true
	default:
		return pqwriter.ColumnData{}, false
	}
}
