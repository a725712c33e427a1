package pqwriter

// ColumnData is the tagged union of one column's values for one row group
// (spec.md §3's ColumnData). Exactly one of the value slices is populated,
// selected by the column's PhysicalType in the schema; WriteRowGroup
// rejects a ColumnData whose populated field doesn't match.
//
// For an OPTIONAL or REPEATED column, the value slice holds only the
// defined (non-null) values, packed contiguously in row order with nulls
// skipped; its length equals the number of levels in the accompanying
// ColumnLevels.DefinitionLevels that equal the column's max definition
// level, not the row count.
type ColumnData struct {
	Boolean []bool
	Int32   []int32
	Int64   []int64
	// Int96 values are 12 raw bytes each (spec.md §4.2); this module never
	// interprets them, only transports them.
	Int96 [][12]byte
	Float  []float32
	Double []float64

	// ByteArray holds BYTE_ARRAY values as a single concatenated buffer
	// plus a value_count+1 offsets array (offsets[0] == 0, non-decreasing,
	// offsets[len-1] == len(ByteArrayValues)), matching encoding/plain's
	// AppendByteArray input shape directly so no copy is needed.
	ByteArrayValues  []byte
	ByteArrayOffsets []int32

	// FixedLenByteArray holds FIXED_LEN_BYTE_ARRAY values concatenated;
	// its length must equal valueCount*schema_type_length for the column.
	FixedLenByteArray []byte
}

// ColumnLevels carries the definition and repetition levels WriteRowGroup
// requires for OPTIONAL and REPEATED columns (spec.md §3/§4.3). A nil
// DefinitionLevels/RepetitionLevels means "all values present at max
// level" only for REQUIRED columns; OPTIONAL and REPEATED columns must
// always supply explicit levels, one byte per value.
//
// DESIGN.md's resolution of the nested-REPEATED open question: this
// module supports only one level of repetition (a column is either
// scalar-per-row or a single flat repeated group per row), so every
// repetition level value is 0 or 1. A value of 2 or higher is rejected
// with ErrInvalidLevels.
type ColumnLevels struct {
	DefinitionLevels []byte
	RepetitionLevels []byte
}

// valueCount returns the number of logical values represented by d,
// inferred from whichever slice is populated.
func (d *ColumnData) valueCount() int {
	switch {
	case d.Boolean != nil:
		return len(d.Boolean)
	case d.Int32 != nil:
		return len(d.Int32)
	case d.Int64 != nil:
		return len(d.Int64)
	case d.Int96 != nil:
		return len(d.Int96)
	case d.Float != nil:
		return len(d.Float)
	case d.Double != nil:
		return len(d.Double)
	case d.ByteArrayOffsets != nil:
		return len(d.ByteArrayOffsets) - 1
	default:
		return 0
	}
}
