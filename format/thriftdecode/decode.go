// Package thriftdecode decodes the narrow slice of the Parquet thrift
// surface this module's writer actually emits: FileMetaData, SchemaElement,
// RowGroup, ColumnChunk, ColumnMetaData, PageHeader, and DataPageHeader.
// It exists only for cmd/pqinspect, a footer-only diagnostic (reading is
// a core non-goal, per spec.md §1); it does not decode column/offset
// indexes, bloom filters, encryption, or statistics, since this writer
// never produces them. Unknown field ids are skipped rather than
// rejected, so a file produced by a fuller writer still has its footer
// legible, within the subset of fields this package models.
//
// The returned structures reference data in the decoded byte slice, so
// that slice must remain valid for the lifetime of the result.
package thriftdecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unsafe"

	"github.com/quantfeed/pqwriter/format"
)

const (
	typeStop   = 0
	typeTrue   = 1
	typeFalse  = 2
	typeI8     = 3
	typeI16    = 4
	typeI32    = 5
	typeI64    = 6
	typeDouble = 7
	typeBinary = 8
	typeList   = 9
	typeSet    = 10
	typeMap    = 11
	typeStruct = 12
)

type buffer struct {
	data []byte
	pos  int
}

func (b *buffer) ReadByte() (byte, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	v := b.data[b.pos]
	b.pos++
	return v, nil
}

func (b *buffer) readSlice(n int) ([]byte, error) {
	if b.pos+n > len(b.data) {
		return nil, io.ErrUnexpectedEOF
	}
	slice := b.data[b.pos : b.pos+n]
	b.pos += n
	return slice, nil
}

func (b *buffer) skip(n int) error {
	if b.pos+n > len(b.data) {
		return io.ErrUnexpectedEOF
	}
	b.pos += n
	return nil
}

func (b *buffer) readUvarint() (uint64, error) {
	var x uint64
	var s uint
	for i := 0; ; i++ {
		if b.pos >= len(b.data) {
			return 0, io.ErrUnexpectedEOF
		}
		v := b.data[b.pos]
		b.pos++
		if v < 0x80 {
			if i >= binary.MaxVarintLen64 || i == binary.MaxVarintLen64-1 && v > 1 {
				return 0, errors.New("thriftdecode: varint overflows uint64")
			}
			return x | uint64(v)<<s, nil
		}
		x |= uint64(v&0x7f) << s
		s += 7
	}
}

func (b *buffer) readVarint() (int64, error) {
	ux, err := b.readUvarint()
	if err != nil {
		return 0, err
	}
	x := int64(ux >> 1)
	if ux&1 != 0 {
		x = ^x
	}
	return x, nil
}

func (b *buffer) readLength() (int, error) {
	n, err := b.readUvarint()
	return int(n), err
}

func (b *buffer) readBytesRef() ([]byte, error) {
	n, err := b.readLength()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return b.readSlice(n)
}

func (b *buffer) readI32() (int32, error) {
	v, err := b.readVarint()
	return int32(v), err
}

func (b *buffer) readI64() (int64, error) {
	return b.readVarint()
}

func (b *buffer) readBool(typ byte) (bool, error) {
	switch typ {
	case typeTrue:
		return true, nil
	case typeFalse:
		return false, nil
	default:
		return false, fmt.Errorf("thriftdecode: expected BOOL type, got %d", typ)
	}
}

func (b *buffer) readStringRef() (string, error) {
	data, err := b.readBytesRef()
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}
	return unsafe.String(&data[0], len(data)), nil
}

func (b *buffer) readField(lastID int16) (id int16, typ byte, err error) {
	v, err := b.ReadByte()
	if err != nil {
		return 0, 0, err
	}

	typ = v & 0x0F
	if typ == typeStop {
		return 0, typeStop, nil
	}

	delta := v >> 4
	if delta != 0 {
		id = lastID + int16(delta)
	} else {
		v, err := b.readVarint()
		if err != nil {
			return 0, 0, err
		}
		id = int16(v)
	}

	return id, typ, nil
}

func (b *buffer) readList() (size int, typ byte, err error) {
	v, err := b.ReadByte()
	if err != nil {
		return 0, 0, err
	}

	typ = v & 0x0F
	size = int(v >> 4)

	if size == 0x0F {
		n, err := b.readUvarint()
		if err != nil {
			return 0, 0, err
		}
		size = int(n)
	}

	return size, typ, nil
}

func (b *buffer) skipValue(typ byte) error {
	switch typ {
	case typeTrue, typeFalse:
		return nil
	case typeI8:
		return b.skip(1)
	case typeI16, typeI32, typeI64:
		_, err := b.readVarint()
		return err
	case typeDouble:
		return b.skip(8)
	case typeBinary:
		n, err := b.readLength()
		if err != nil {
			return err
		}
		return b.skip(n)
	case typeList, typeSet:
		size, elemType, err := b.readList()
		if err != nil {
			return err
		}
		for range size {
			if err := b.skipValue(elemType); err != nil {
				return err
			}
		}
		return nil
	case typeMap:
		n, err := b.readUvarint()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		kv, err := b.ReadByte()
		if err != nil {
			return err
		}
		keyType := kv >> 4
		valType := kv & 0x0F
		for range n {
			if err := b.skipValue(keyType); err != nil {
				return err
			}
			if err := b.skipValue(valType); err != nil {
				return err
			}
		}
		return nil
	case typeStruct:
		return b.skipStruct()
	default:
		return fmt.Errorf("thriftdecode: unknown type %d", typ)
	}
}

func (b *buffer) skipStruct() error {
	var lastID int16
	for {
		id, typ, err := b.readField(lastID)
		if err != nil {
			return err
		}
		if typ == typeStop {
			return nil
		}
		if err := b.skipValue(typ); err != nil {
			return err
		}
		lastID = id
	}
}

func (b *buffer) decodeSchemaElement(se *format.SchemaElement) error {
	var lastID int16
	for {
		id, typ, err := b.readField(lastID)
		if err != nil {
			return err
		}
		if typ == typeStop {
			return nil
		}
		switch id {
		case 1: // type
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: SchemaElement.Type: expected I32, got %d", typ)
			}
			v, err := b.readI32()
			if err != nil {
				return err
			}
			t := format.PhysicalType(v)
			se.Type = &t
		case 2: // type_length
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: SchemaElement.TypeLength: expected I32, got %d", typ)
			}
			v, err := b.readI32()
			if err != nil {
				return err
			}
			se.TypeLength = &v
		case 3: // repetition_type
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: SchemaElement.RepetitionType: expected I32, got %d", typ)
			}
			v, err := b.readI32()
			if err != nil {
				return err
			}
			rt := format.FieldRepetitionType(v)
			se.RepetitionType = &rt
		case 4: // name
			if typ != typeBinary {
				return fmt.Errorf("thriftdecode: SchemaElement.Name: expected BINARY, got %d", typ)
			}
			se.Name, err = b.readStringRef()
		case 5: // num_children
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: SchemaElement.NumChildren: expected I32, got %d", typ)
			}
			v, err := b.readI32()
			if err != nil {
				return err
			}
			se.NumChildren = &v
		case 6: // converted_type
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: SchemaElement.ConvertedType: expected I32, got %d", typ)
			}
			v, err := b.readI32()
			if err != nil {
				return err
			}
			ct := format.ConvertedType(v)
			se.ConvertedType = &ct
		case 10: // logical_type (UUID only, the one variant this module emits)
			if typ != typeStruct {
				return fmt.Errorf("thriftdecode: SchemaElement.LogicalType: expected STRUCT, got %d", typ)
			}
			lt, err := b.decodeLogicalType()
			if err != nil {
				return err
			}
			se.LogicalType = lt
		default:
			err = b.skipValue(typ)
		}
		if err != nil {
			return err
		}
		lastID = id
	}
}

// decodeLogicalType reads a LogicalType union, recognizing only the UUID
// variant (field 14) this writer ever produces; every other variant is
// skipped and reported as an unrecognized (empty) LogicalType.
func (b *buffer) decodeLogicalType() (*format.LogicalType, error) {
	lt := &format.LogicalType{}
	var lastID int16
	for {
		id, typ, err := b.readField(lastID)
		if err != nil {
			return nil, err
		}
		if typ == typeStop {
			return lt, nil
		}
		if id == 14 && typ == typeStruct {
			lt.UUID = true
			if err := b.skipStruct(); err != nil {
				return nil, err
			}
		} else {
			err = b.skipValue(typ)
		}
		if err != nil {
			return nil, err
		}
		lastID = id
	}
}

func (b *buffer) decodeColumnMetaData(cmd *format.ColumnMetaData) error {
	var lastID int16
	for {
		id, typ, err := b.readField(lastID)
		if err != nil {
			return err
		}
		if typ == typeStop {
			return nil
		}
		switch id {
		case 1: // type
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: ColumnMetaData.Type: expected I32, got %d", typ)
			}
			v, err := b.readI32()
			if err != nil {
				return err
			}
			cmd.Type = format.PhysicalType(v)
		case 2: // encodings
			if typ != typeList {
				return fmt.Errorf("thriftdecode: ColumnMetaData.Encodings: expected LIST, got %d", typ)
			}
			size, elemType, err := b.readList()
			if err != nil {
				return err
			}
			if elemType != typeI32 {
				return fmt.Errorf("thriftdecode: ColumnMetaData.Encodings: expected I32 elements, got %d", elemType)
			}
			cmd.Encodings = make([]format.Encoding, size)
			for i := range size {
				v, err := b.readI32()
				if err != nil {
					return err
				}
				cmd.Encodings[i] = format.Encoding(v)
			}
		case 3: // path_in_schema
			if typ != typeList {
				return fmt.Errorf("thriftdecode: ColumnMetaData.PathInSchema: expected LIST, got %d", typ)
			}
			size, elemType, err := b.readList()
			if err != nil {
				return err
			}
			if elemType != typeBinary {
				return fmt.Errorf("thriftdecode: ColumnMetaData.PathInSchema: expected BINARY elements, got %d", elemType)
			}
			cmd.PathInSchema = make([]string, size)
			for i := range size {
				cmd.PathInSchema[i], err = b.readStringRef()
				if err != nil {
					return err
				}
			}
		case 4: // codec
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: ColumnMetaData.Codec: expected I32, got %d", typ)
			}
			v, err := b.readI32()
			if err != nil {
				return err
			}
			cmd.Codec = format.CompressionCodec(v)
		case 5: // num_values
			if typ != typeI64 {
				return fmt.Errorf("thriftdecode: ColumnMetaData.NumValues: expected I64, got %d", typ)
			}
			cmd.NumValues, err = b.readI64()
		case 6: // total_uncompressed_size
			if typ != typeI64 {
				return fmt.Errorf("thriftdecode: ColumnMetaData.TotalUncompressedSize: expected I64, got %d", typ)
			}
			cmd.TotalUncompressedSize, err = b.readI64()
		case 7: // total_compressed_size
			if typ != typeI64 {
				return fmt.Errorf("thriftdecode: ColumnMetaData.TotalCompressedSize: expected I64, got %d", typ)
			}
			cmd.TotalCompressedSize, err = b.readI64()
		case 9: // data_page_offset
			if typ != typeI64 {
				return fmt.Errorf("thriftdecode: ColumnMetaData.DataPageOffset: expected I64, got %d", typ)
			}
			cmd.DataPageOffset, err = b.readI64()
		default:
			err = b.skipValue(typ)
		}
		if err != nil {
			return err
		}
		lastID = id
	}
}

func (b *buffer) decodeColumnChunk(cc *format.ColumnChunk) error {
	var lastID int16
	for {
		id, typ, err := b.readField(lastID)
		if err != nil {
			return err
		}
		if typ == typeStop {
			return nil
		}
		switch id {
		case 2: // file_offset
			if typ != typeI64 {
				return fmt.Errorf("thriftdecode: ColumnChunk.FileOffset: expected I64, got %d", typ)
			}
			cc.FileOffset, err = b.readI64()
		case 3: // meta_data
			if typ != typeStruct {
				return fmt.Errorf("thriftdecode: ColumnChunk.MetaData: expected STRUCT, got %d", typ)
			}
			err = b.decodeColumnMetaData(&cc.MetaData)
		default:
			err = b.skipValue(typ)
		}
		if err != nil {
			return err
		}
		lastID = id
	}
}

func (b *buffer) decodeRowGroup(rg *format.RowGroup) error {
	var lastID int16
	for {
		id, typ, err := b.readField(lastID)
		if err != nil {
			return err
		}
		if typ == typeStop {
			return nil
		}
		switch id {
		case 1: // columns
			if typ != typeList {
				return fmt.Errorf("thriftdecode: RowGroup.Columns: expected LIST, got %d", typ)
			}
			size, elemType, err := b.readList()
			if err != nil {
				return err
			}
			if elemType != typeStruct {
				return fmt.Errorf("thriftdecode: RowGroup.Columns: expected STRUCT elements, got %d", elemType)
			}
			rg.Columns = make([]format.ColumnChunk, size)
			for i := range size {
				if err := b.decodeColumnChunk(&rg.Columns[i]); err != nil {
					return err
				}
			}
		case 2: // total_byte_size
			if typ != typeI64 {
				return fmt.Errorf("thriftdecode: RowGroup.TotalByteSize: expected I64, got %d", typ)
			}
			rg.TotalByteSize, err = b.readI64()
		case 3: // num_rows
			if typ != typeI64 {
				return fmt.Errorf("thriftdecode: RowGroup.NumRows: expected I64, got %d", typ)
			}
			rg.NumRows, err = b.readI64()
		default:
			err = b.skipValue(typ)
		}
		if err != nil {
			return err
		}
		lastID = id
	}
}

func (b *buffer) decodeFileMetaData(fmd *format.FileMetaData) error {
	var lastID int16
	for {
		id, typ, err := b.readField(lastID)
		if err != nil {
			return err
		}
		if typ == typeStop {
			return nil
		}
		switch id {
		case 1: // version
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: FileMetaData.Version: expected I32, got %d", typ)
			}
			fmd.Version, err = b.readI32()
		case 2: // schema
			if typ != typeList {
				return fmt.Errorf("thriftdecode: FileMetaData.Schema: expected LIST, got %d", typ)
			}
			size, elemType, err := b.readList()
			if err != nil {
				return err
			}
			if elemType != typeStruct {
				return fmt.Errorf("thriftdecode: FileMetaData.Schema: expected STRUCT elements, got %d", elemType)
			}
			fmd.Schema = make([]format.SchemaElement, size)
			for i := range size {
				if err := b.decodeSchemaElement(&fmd.Schema[i]); err != nil {
					return err
				}
			}
		case 3: // num_rows
			if typ != typeI64 {
				return fmt.Errorf("thriftdecode: FileMetaData.NumRows: expected I64, got %d", typ)
			}
			fmd.NumRows, err = b.readI64()
		case 4: // row_groups
			if typ != typeList {
				return fmt.Errorf("thriftdecode: FileMetaData.RowGroups: expected LIST, got %d", typ)
			}
			size, elemType, err := b.readList()
			if err != nil {
				return err
			}
			if elemType != typeStruct {
				return fmt.Errorf("thriftdecode: FileMetaData.RowGroups: expected STRUCT elements, got %d", elemType)
			}
			fmd.RowGroups = make([]format.RowGroup, size)
			for i := range size {
				if err := b.decodeRowGroup(&fmd.RowGroups[i]); err != nil {
					return err
				}
			}
		case 6: // created_by
			if typ != typeBinary {
				return fmt.Errorf("thriftdecode: FileMetaData.CreatedBy: expected BINARY, got %d", typ)
			}
			fmd.CreatedBy, err = b.readStringRef()
		default:
			err = b.skipValue(typ)
		}
		if err != nil {
			return err
		}
		lastID = id
	}
}

// DecodeFileMetaData decodes a FileMetaData footer from the compact thrift
// bytes in data. The returned value references data, which must outlive
// it.
func DecodeFileMetaData(data []byte, fmd *format.FileMetaData) error {
	return (&buffer{data: data}).decodeFileMetaData(fmd)
}

func (b *buffer) decodeDataPageHeader(h *format.DataPageHeader) error {
	var lastID int16
	for {
		id, typ, err := b.readField(lastID)
		if err != nil {
			return err
		}
		if typ == typeStop {
			return nil
		}
		switch id {
		case 1: // num_values
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: DataPageHeader.NumValues: expected I32, got %d", typ)
			}
			h.NumValues, err = b.readI32()
		case 2: // encoding
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: DataPageHeader.Encoding: expected I32, got %d", typ)
			}
			v, err := b.readI32()
			if err != nil {
				return err
			}
			h.Encoding = format.Encoding(v)
		case 3: // definition_level_encoding
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: DataPageHeader.DefinitionLevelEncoding: expected I32, got %d", typ)
			}
			v, err := b.readI32()
			if err != nil {
				return err
			}
			h.DefinitionLevelEncoding = format.Encoding(v)
		case 4: // repetition_level_encoding
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: DataPageHeader.RepetitionLevelEncoding: expected I32, got %d", typ)
			}
			v, err := b.readI32()
			if err != nil {
				return err
			}
			h.RepetitionLevelEncoding = format.Encoding(v)
		default:
			err = b.skipValue(typ)
		}
		if err != nil {
			return err
		}
		lastID = id
	}
}

func (b *buffer) decodePageHeader(ph *format.PageHeader) error {
	var lastID int16
	for {
		id, typ, err := b.readField(lastID)
		if err != nil {
			return err
		}
		if typ == typeStop {
			return nil
		}
		switch id {
		case 1: // type
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: PageHeader.Type: expected I32, got %d", typ)
			}
			v, err := b.readI32()
			if err != nil {
				return err
			}
			ph.Type = format.PageType(v)
		case 2: // uncompressed_page_size
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: PageHeader.UncompressedPageSize: expected I32, got %d", typ)
			}
			ph.UncompressedPageSize, err = b.readI32()
		case 3: // compressed_page_size
			if typ != typeI32 {
				return fmt.Errorf("thriftdecode: PageHeader.CompressedPageSize: expected I32, got %d", typ)
			}
			ph.CompressedPageSize, err = b.readI32()
		case 5: // data_page_header
			if typ != typeStruct {
				return fmt.Errorf("thriftdecode: PageHeader.DataPageHeader: expected STRUCT, got %d", typ)
			}
			ph.DataPageHeader = &format.DataPageHeader{}
			err = b.decodeDataPageHeader(ph.DataPageHeader)
		default:
			err = b.skipValue(typ)
		}
		if err != nil {
			return err
		}
		lastID = id
	}
}

// DecodePageHeader decodes one PageHeader from the compact thrift bytes at
// the start of data, returning the header and the number of bytes
// consumed so the caller can locate the page body that follows.
func DecodePageHeader(data []byte, ph *format.PageHeader) (int, error) {
	b := &buffer{data: data}
	if err := b.decodePageHeader(ph); err != nil {
		return 0, err
	}
	return b.pos, nil
}
