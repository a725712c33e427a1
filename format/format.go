// Package format models the subset of the Parquet Thrift schema this module
// emits: FileMetaData and everything reachable from it (spec.md §6). Field
// ids below are fixed by the Parquet format itself, not by this module, and
// must match github.com/apache/parquet-format's parquet.thrift exactly for
// a conforming reader to accept the file.
package format

// PhysicalType is the column's on-disk value representation (parquet.thrift
// Type enum).
type PhysicalType int32

const (
	Boolean           PhysicalType = 0
	Int32             PhysicalType = 1
	Int64             PhysicalType = 2
	Int96             PhysicalType = 3
	Float             PhysicalType = 4
	Double            PhysicalType = 5
	ByteArray         PhysicalType = 6
	FixedLenByteArray PhysicalType = 7
)

// FieldRepetitionType mirrors parquet.thrift's FieldRepetitionType enum.
type FieldRepetitionType int32

const (
	Required FieldRepetitionType = 0
	Optional FieldRepetitionType = 1
	Repeated FieldRepetitionType = 2
)

// Encoding mirrors the subset of parquet.thrift's Encoding enum this module
// produces: PLAIN for values, RLE for definition/repetition levels.
type Encoding int32

const (
	Plain Encoding = 0
	RLE   Encoding = 3
)

// CompressionCodec mirrors parquet.thrift's CompressionCodec enum. Values
// match the Parquet spec exactly so column metadata is portable.
type CompressionCodec int32

const (
	Uncompressed CompressionCodec = 0
	Snappy       CompressionCodec = 1
	Gzip         CompressionCodec = 2
	Lzo          CompressionCodec = 3
	Brotli       CompressionCodec = 4
	Lz4          CompressionCodec = 5
	Zstd         CompressionCodec = 6
	Lz4Raw       CompressionCodec = 7
)

// PageType mirrors parquet.thrift's PageType enum; this module only ever
// emits DataPage (data page v1), per spec.md §4.4.
type PageType int32

const DataPage PageType = 0

// ConvertedType mirrors the legacy logical-annotation enum used for the
// two annotations SPEC_FULL.md wires up: UTF8 for strings and nothing
// (FixedLenByteArray columns carry the modern LogicalType.UUID instead,
// see LogicalType below).
type ConvertedType int32

const UTF8 ConvertedType = 0

// SchemaElement is one node of the flattened schema tree (parquet.thrift
// SchemaElement). The root element has Name "schema" (unless
// schema.WithRootName sets another), NumChildren set, and no
// Type/RepetitionType; every other element is a leaf column.
type SchemaElement struct {
	Type           *PhysicalType
	TypeLength     *int32
	RepetitionType *FieldRepetitionType
	Name           string
	NumChildren    *int32
	ConvertedType  *ConvertedType
	LogicalType    *LogicalType
}

// LogicalType carries the modern logical-type annotation this module
// supports: UUID, for FIXED_LEN_BYTE_ARRAY(16) columns (spec.md §3's
// "optional logical annotation", made concrete in SPEC_FULL.md §4).
type LogicalType struct {
	UUID bool
}

// ColumnMetaData is the body of a ColumnChunk (parquet.thrift
// ColumnMetaData), restricted to the fields this module populates.
type ColumnMetaData struct {
	Type                  PhysicalType
	Encodings             []Encoding
	PathInSchema          []string
	Codec                 CompressionCodec
	NumValues             int64
	TotalUncompressedSize int64
	TotalCompressedSize   int64
	DataPageOffset        int64
}

// ColumnChunk is one column's chunk within a row group (parquet.thrift
// ColumnChunk).
type ColumnChunk struct {
	FileOffset int64
	MetaData   ColumnMetaData
}

// RowGroup is one horizontal partition of the file (parquet.thrift
// RowGroup).
type RowGroup struct {
	Columns       []ColumnChunk
	TotalByteSize int64
	NumRows       int64
}

// FileMetaData is the file footer (parquet.thrift FileMetaData).
type FileMetaData struct {
	Version   int32
	Schema    []SchemaElement
	NumRows   int64
	RowGroups []RowGroup
	CreatedBy string
}

// DataPageHeader is the data-page-v1 header body (parquet.thrift
// DataPageHeader), restricted to the fields this module populates.
type DataPageHeader struct {
	NumValues               int32
	Encoding                Encoding
	DefinitionLevelEncoding Encoding
	RepetitionLevelEncoding Encoding
}

// PageHeader wraps a DataPageHeader with the page's size accounting
// (parquet.thrift PageHeader).
type PageHeader struct {
	Type                  PageType
	UncompressedPageSize  int32
	CompressedPageSize    int32
	DataPageHeader        *DataPageHeader
}
