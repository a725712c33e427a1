// Package accumulate implements the batch accumulator spec.md §4.8
// describes: it splits fixed-size binary records into per-column byte
// buffers according to a schema-derived layout, owned exclusively by the
// sink's drainer goroutine and never touched by producers.
//
// A record is laid out as: a null bitmap (one bit per OPTIONAL column,
// LSB-first, only present when the schema has at least one OPTIONAL
// column) followed by each column's fixed-width value, in schema order.
// REPEATED and BYTE_ARRAY columns have no fixed per-record width and are
// therefore rejected by NewLayout: the accumulator only ever sees the
// fixed-stride record shape spec.md §1 motivates (e.g. a market-data order
// struct).
package accumulate

import (
	"fmt"

	"github.com/quantfeed/pqwriter/schema"
)

// ErrUnsupportedColumn is returned by NewLayout for a column whose
// physical type has no fixed per-record byte width (BYTE_ARRAY) or whose
// repetition this accumulator can't lay out (REPEATED).
var ErrUnsupportedColumn = fmt.Errorf("accumulate: column type unsupported in fixed-record layout")

// ColumnLayout describes where one column's value (and, for OPTIONAL
// columns, its null bit) live within a record.
type ColumnLayout struct {
	Name         string
	Type         schema.PhysicalType
	Optional     bool
	ValueOffset  int
	ValueSize    int
	NullBitIndex int
}

// Layout is the fixed-record geometry derived from a Schema.
type Layout struct {
	RecordSize      int
	NullBitmapBytes int
	Columns         []ColumnLayout
}

func physicalSize(col *schema.ColumnDef) (int, error) {
	switch col.Type {
	case schema.Boolean:
		return 1, nil
	case schema.Int32, schema.Float:
		return 4, nil
	case schema.Int64, schema.Double:
		return 8, nil
	case schema.Int96:
		return 12, nil
	case schema.FixedLenByteArray:
		return int(col.TypeLength), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedColumn, col.Name)
	}
}

// NewLayout computes a Layout for s, or ErrUnsupportedColumn if s contains
// a BYTE_ARRAY or REPEATED column.
func NewLayout(s *schema.Schema) (*Layout, error) {
	defs := s.Columns()

	nullBits := 0
	for i := range defs {
		if defs[i].Repetition == schema.Repeated {
			return nil, fmt.Errorf("%w: %q is REPEATED", ErrUnsupportedColumn, defs[i].Name)
		}
		if defs[i].Repetition == schema.Optional {
			nullBits++
		}
	}
	nullBitmapBytes := (nullBits + 7) / 8

	layout := &Layout{
		NullBitmapBytes: nullBitmapBytes,
		Columns:         make([]ColumnLayout, len(defs)),
	}

	offset := nullBitmapBytes
	bitIndex := 0
	for i := range defs {
		size, err := physicalSize(&defs[i])
		if err != nil {
			return nil, err
		}
		cl := ColumnLayout{
			Name:        defs[i].Name,
			Type:        defs[i].Type,
			Optional:    defs[i].Repetition == schema.Optional,
			ValueOffset: offset,
			ValueSize:   size,
		}
		if cl.Optional {
			cl.NullBitIndex = bitIndex
			bitIndex++
		}
		layout.Columns[i] = cl
		offset += size
	}
	layout.RecordSize = offset
	return layout, nil
}
