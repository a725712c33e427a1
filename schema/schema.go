// Package schema models the flat column schema spec.md §3 describes: an
// ordered list of columns, each a closed PhysicalType/Repetition pair, with
// an optional logical annotation. There is no struct-tag or reflection
// based inference here (that belongs to a different kind of library); a
// Schema is always built from an explicit list of ColumnDef values.
package schema

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/quantfeed/pqwriter/format"
)

// PhysicalType, Repetition, and Compression are aliases of the format
// package's wire enums: the schema model and the wire encoding share the
// same closed set of values by design (spec.md §3).
type (
	PhysicalType = format.PhysicalType
	Repetition   = format.FieldRepetitionType
	Compression  = format.CompressionCodec
)

const (
	Boolean           = format.Boolean
	Int32             = format.Int32
	Int64             = format.Int64
	Int96             = format.Int96
	Float             = format.Float
	Double            = format.Double
	ByteArray         = format.ByteArray
	FixedLenByteArray = format.FixedLenByteArray
)

const (
	Required = format.Required
	Optional = format.Optional
	Repeated = format.Repeated
)

const (
	Uncompressed = format.Uncompressed
	Gzip         = format.Gzip
	Zstd         = format.Zstd
	Brotli       = format.Brotli
	Lz4Raw       = format.Lz4Raw
)

// Logical is the optional annotation a column may carry (spec.md §3:
// "optional logical annotation"). SPEC_FULL.md §4 fixes the two concrete
// annotations this module supports.
type Logical int

const (
	LogicalNone Logical = iota
	// LogicalString marks a BYTE_ARRAY column as UTF-8 text (ConvertedType
	// UTF8).
	LogicalString
	// LogicalUUID marks a FIXED_LEN_BYTE_ARRAY(16) column as a UUID
	// (LogicalType.UUID).
	LogicalUUID
)

var (
	ErrInvalidSchema          = errors.New("schema: invalid schema")
	ErrInvalidColumnName      = errors.New("schema: invalid column name")
	ErrInvalidFixedTypeLength = errors.New("schema: invalid fixed_len_byte_array type_length")
)

// ColumnDef describes one column, in the order it will appear in every row
// group (spec.md §3: "Schema order is fixed at open and never mutated").
type ColumnDef struct {
	Name       string
	Type       PhysicalType
	Repetition Repetition
	// TypeLength is only consulted when Type == FixedLenByteArray, in
	// which case it must be positive.
	TypeLength int32
	Logical    Logical
}

// Option configures a Schema at construction time, mirroring the
// functional-options pattern used throughout this module's ambient stack
// (SPEC_FULL.md §2).
type Option func(*config)

type config struct {
	rootName string
}

// WithRootName overrides the schema tree's root SchemaElement name
// (defaults to "schema", the conventional name most Parquet writers
// emit).
func WithRootName(name string) Option {
	return func(c *config) { c.rootName = name }
}

// Schema is a validated, ordered list of ColumnDef.
type Schema struct {
	columns  []ColumnDef
	rootName string
}

// New validates columns and returns a Schema, or an error wrapping
// ErrInvalidSchema/ErrInvalidColumnName/ErrInvalidFixedTypeLength per
// spec.md §4.6's open() preconditions.
func New(columns []ColumnDef, opts ...Option) (*Schema, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: schema must have at least one column", ErrInvalidSchema)
	}
	for i := range columns {
		c := &columns[i]
		if c.Name == "" || !utf8.ValidString(c.Name) {
			return nil, fmt.Errorf("%w: column %d: name must be non-empty valid UTF-8", ErrInvalidColumnName, i)
		}
		if c.Type == FixedLenByteArray && c.TypeLength <= 0 {
			return nil, fmt.Errorf("%w: column %q: type_length must be positive", ErrInvalidFixedTypeLength, c.Name)
		}
		if c.Logical == LogicalString && c.Type != ByteArray {
			return nil, fmt.Errorf("%w: column %q: LogicalString requires BYTE_ARRAY", ErrInvalidSchema, c.Name)
		}
		if c.Logical == LogicalUUID && (c.Type != FixedLenByteArray || c.TypeLength != 16) {
			return nil, fmt.Errorf("%w: column %q: LogicalUUID requires FIXED_LEN_BYTE_ARRAY(16)", ErrInvalidSchema, c.Name)
		}
	}
	cfg := config{rootName: "schema"}
	for _, opt := range opts {
		opt(&cfg)
	}
	cp := make([]ColumnDef, len(columns))
	copy(cp, columns)
	return &Schema{columns: cp, rootName: cfg.rootName}, nil
}

// Columns returns the ordered column list. The returned slice must not be
// modified.
func (s *Schema) Columns() []ColumnDef { return s.columns }

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.columns) }

// MaxDefinitionLevel returns the maximum definition level for column i:
// 1 for OPTIONAL/REPEATED columns, 0 for REQUIRED (spec.md §3/§4.3).
func (s *Schema) MaxDefinitionLevel(i int) byte {
	if s.columns[i].Repetition == Required {
		return 0
	}
	return 1
}

// MaxRepetitionLevel returns the maximum repetition level for column i: 1
// for REPEATED columns, 0 otherwise.
func (s *Schema) MaxRepetitionLevel(i int) byte {
	if s.columns[i].Repetition == Repeated {
		return 1
	}
	return 0
}

// Elements renders the schema as the flattened SchemaElement list
// spec.md §4.6 describes: one root element with NumChildren set, followed
// in order by one leaf per column.
func (s *Schema) Elements() []format.SchemaElement {
	out := make([]format.SchemaElement, 0, len(s.columns)+1)
	numChildren := int32(len(s.columns))
	out = append(out, format.SchemaElement{
		Name:        s.rootName,
		NumChildren: &numChildren,
	})
	for _, c := range s.columns {
		typ := c.Type
		rep := c.Repetition
		el := format.SchemaElement{
			Type:           &typ,
			RepetitionType: &rep,
			Name:           c.Name,
		}
		if c.Type == FixedLenByteArray {
			l := c.TypeLength
			el.TypeLength = &l
		}
		switch c.Logical {
		case LogicalString:
			ct := format.UTF8
			el.ConvertedType = &ct
		case LogicalUUID:
			el.LogicalType = &format.LogicalType{UUID: true}
		}
		out = append(out, el)
	}
	return out
}
