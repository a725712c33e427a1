// Package thriftcompact implements a write-only encoder for the subset of
// the Thrift Compact Protocol that Parquet metadata requires: structs,
// lists, binary, and the scalar integer/double/bool types. There is no
// decoder here; format/thriftdecode carries a trimmed decoder used only by
// the footer-inspection tool, mirroring (in reverse) the varint/zigzag/
// field-delta scheme implemented below.
package thriftcompact

import (
	"errors"
	"fmt"
	"math"
)

// FieldType is a Thrift Compact Protocol type code, as embedded in field
// headers and list/set headers.
type FieldType byte

const (
	Stop   FieldType = 0
	True   FieldType = 1
	False  FieldType = 2
	Byte   FieldType = 3
	I16    FieldType = 4
	I32    FieldType = 5
	I64    FieldType = 6
	Double FieldType = 7
	Binary FieldType = 8
	List   FieldType = 9
	Set    FieldType = 10
	Map    FieldType = 11
	Struct FieldType = 12
)

var (
	// ErrInvalidFieldID reports a raw field id outside the signed 16-bit
	// range the long-form field header carries. A delta that does not fit
	// the short form is not an error; it selects the long form.
	ErrInvalidFieldID = errors.New("thriftcompact: field id out of range")
	// ErrTooLarge reports a length (list size, binary length) that does
	// not fit the range a conforming reader accepts.
	ErrTooLarge = errors.New("thriftcompact: value too large to encode")
)

// maxEncodableLength is the practical ceiling spec.md §4.1 places on
// buffered lengths: readers size their length fields as i32.
const maxEncodableLength = math.MaxInt32

// Writer serializes Thrift Compact Protocol structs into a growable byte
// buffer. It is write-only: there is no corresponding read path in this
// package, per spec.md §4.1.
//
// A Writer is reusable: call Reset to rewind it onto a scratch buffer
// between row groups instead of allocating a new one (spec.md §9).
type Writer struct {
	buf     []byte
	lastIDs []int16 // stack of last-written field ids, one per open struct
}

// NewWriter returns a Writer appending into buf (buf[:0] is the starting
// point; pass a buffer with spare capacity to avoid reallocation).
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf[:0]}
}

// Reset rewinds the writer onto buf (typically buf[:0] of a reused scratch
// slice) and clears any open struct nesting.
func (w *Writer) Reset(buf []byte) {
	w.buf = buf[:0]
	w.lastIDs = w.lastIDs[:0]
}

// Bytes returns the bytes written so far. The slice is valid until the next
// call to Reset.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// WriteStructBegin pushes the current last-field-id and resets it to zero,
// as the Compact Protocol requires every struct to track field deltas
// relative to its own fields, nested structs included.
func (w *Writer) WriteStructBegin() {
	w.lastIDs = append(w.lastIDs, 0)
}

// WriteStructEnd emits the struct stop byte and pops the last-field-id
// stack, resuming the enclosing struct's delta tracking.
func (w *Writer) WriteStructEnd() {
	w.buf = append(w.buf, byte(Stop))
	w.lastIDs = w.lastIDs[:len(w.lastIDs)-1]
}

func (w *Writer) lastID() int16 {
	return w.lastIDs[len(w.lastIDs)-1]
}

func (w *Writer) setLastID(id int16) {
	w.lastIDs[len(w.lastIDs)-1] = id
}

// writeFieldHeader emits the field header for id/typ and advances the
// enclosing struct's last-field-id. Bool fields must use writeBoolHeader
// instead, since their value is folded into the header's type nibble.
func (w *Writer) writeFieldHeader(id int16, typ FieldType) error {
	last := w.lastID()
	delta := int32(id) - int32(last)
	if delta > 0 && delta <= 15 {
		w.buf = append(w.buf, byte(delta)<<4|byte(typ))
	} else {
		if id < math.MinInt16 || id > math.MaxInt16 {
			return fmt.Errorf("%w: %d", ErrInvalidFieldID, id)
		}
		w.buf = append(w.buf, byte(typ))
		w.writeZigzag32(int32(id))
	}
	w.setLastID(id)
	return nil
}

func (w *Writer) writeBoolHeader(id int16, value bool) error {
	typ := False
	if value {
		typ = True
	}
	last := w.lastID()
	delta := int32(id) - int32(last)
	if delta > 0 && delta <= 15 {
		w.buf = append(w.buf, byte(delta)<<4|byte(typ))
	} else {
		if id < math.MinInt16 || id > math.MaxInt16 {
			return fmt.Errorf("%w: %d", ErrInvalidFieldID, id)
		}
		w.buf = append(w.buf, byte(typ))
		w.writeZigzag32(int32(id))
	}
	w.setLastID(id)
	return nil
}

// WriteFieldStop emits the struct stop byte without popping last-id state;
// exposed for callers that manage WriteStructBegin/End themselves but want
// to terminate a field list early (unused by format's marshalers, kept for
// symmetry with WriteStructEnd).
func (w *Writer) WriteFieldStop() { w.buf = append(w.buf, byte(Stop)) }

// WriteBoolField writes a field whose value is entirely encoded in its
// header nibble, per spec.md §4.1.
func (w *Writer) WriteBoolField(id int16, value bool) error {
	return w.writeBoolHeader(id, value)
}

// WriteByteField writes an i8 field.
func (w *Writer) WriteByteField(id int16, value int8) error {
	if err := w.writeFieldHeader(id, Byte); err != nil {
		return err
	}
	w.buf = append(w.buf, byte(value))
	return nil
}

// WriteI16Field writes an i16 field.
func (w *Writer) WriteI16Field(id int16, value int16) error {
	if err := w.writeFieldHeader(id, I16); err != nil {
		return err
	}
	w.writeZigzag32(int32(value))
	return nil
}

// WriteI32Field writes an i32 field.
func (w *Writer) WriteI32Field(id int16, value int32) error {
	if err := w.writeFieldHeader(id, I32); err != nil {
		return err
	}
	w.writeZigzag32(value)
	return nil
}

// WriteI64Field writes an i64 field.
func (w *Writer) WriteI64Field(id int16, value int64) error {
	if err := w.writeFieldHeader(id, I64); err != nil {
		return err
	}
	w.writeZigzag64(value)
	return nil
}

// WriteDoubleField writes a double field, encoded as 8 little-endian bytes
// of the IEEE-754 bit pattern (Thrift's compact protocol never varint-packs
// doubles).
func (w *Writer) WriteDoubleField(id int16, value float64) error {
	if err := w.writeFieldHeader(id, Double); err != nil {
		return err
	}
	bits := math.Float64bits(value)
	var b [8]byte
	for i := range b {
		b[i] = byte(bits >> (8 * i))
	}
	w.buf = append(w.buf, b[:]...)
	return nil
}

// WriteBinaryField writes a length-prefixed byte/string field.
func (w *Writer) WriteBinaryField(id int16, value []byte) error {
	if err := w.writeFieldHeader(id, Binary); err != nil {
		return err
	}
	return w.WriteBinary(value)
}

// WriteBinary writes a varint length followed by the raw bytes, usable both
// as a field value and as a list/set element.
func (w *Writer) WriteBinary(value []byte) error {
	if len(value) > maxEncodableLength {
		return fmt.Errorf("%w: binary length %d", ErrTooLarge, len(value))
	}
	w.writeUvarint(uint64(len(value)))
	w.buf = append(w.buf, value...)
	return nil
}

// WriteFieldBeginStruct writes the field header for a struct-typed field.
// The caller is then responsible for calling WriteStructBegin/WriteStructEnd
// around the nested struct's own fields.
func (w *Writer) WriteFieldBeginStruct(id int16) error {
	return w.writeFieldHeader(id, Struct)
}

// WriteListI32Element appends a bare zigzag-varint i32, as used for
// elements of a list<i32> (e.g. ColumnMetaData.encodings); list elements
// carry no field header, only their value.
func (w *Writer) WriteListI32Element(v int32) {
	w.writeZigzag32(v)
}

// WriteListFieldBegin writes the field header for a list-typed field and
// then the list header itself (element type + size). Callers then write
// `size` elements with the matching Write*/WriteStruct* calls and need
// call nothing to terminate the list (Compact Protocol lists have no
// terminator).
func (w *Writer) WriteListFieldBegin(id int16, elemType FieldType, size int) error {
	if err := w.writeFieldHeader(id, List); err != nil {
		return err
	}
	return w.WriteListHeader(elemType, size)
}

// WriteListHeader writes a bare list/set header (size + element type),
// without a preceding field header; used for lists nested inside other
// lists, which this module never needs but is provided for completeness
// of the protocol surface spec.md §4.1 describes.
func (w *Writer) WriteListHeader(elemType FieldType, size int) error {
	if size < 0 || size > maxEncodableLength {
		return fmt.Errorf("%w: list size %d", ErrTooLarge, size)
	}
	if size < 15 {
		w.buf = append(w.buf, byte(size)<<4|byte(elemType))
	} else {
		w.buf = append(w.buf, 0xF0|byte(elemType))
		w.writeUvarint(uint64(size))
	}
	return nil
}

// writeUvarint appends u as an unsigned LEB128 varint.
func (w *Writer) writeUvarint(u uint64) {
	for u >= 0x80 {
		w.buf = append(w.buf, byte(u)|0x80)
		u >>= 7
	}
	w.buf = append(w.buf, byte(u))
}

// writeZigzag32 zigzag-encodes a 32-bit signed integer and appends it as a
// varint.
func (w *Writer) writeZigzag32(v int32) {
	w.writeUvarint(uint64(uint32((v << 1) ^ (v >> 31))))
}

// writeZigzag64 zigzag-encodes a 64-bit signed integer and appends it as a
// varint.
func (w *Writer) writeZigzag64(v int64) {
	w.writeUvarint(uint64((v << 1) ^ (v >> 63)))
}
