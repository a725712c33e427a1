package pqwriter

import (
	"encoding/binary"
	"fmt"

	"github.com/quantfeed/pqwriter/encoding/plain"
	"github.com/quantfeed/pqwriter/encoding/rle"
	"github.com/quantfeed/pqwriter/schema"
)

// buildDataPage renders one column's values for one row group into a
// data-page-v1 payload (spec.md §4.4): repetition levels (if the column's
// max repetition level is nonzero), then definition levels (if the
// column's max definition level is nonzero), then PLAIN-encoded non-null
// values, each length-prefixed level section using the standard Parquet
// <4-byte little-endian length><hybrid bytes> framing.
//
// The returned int32 is the page's num_values: the row count (one level
// entry per row) for OPTIONAL/REPEATED columns, or the dense value count
// for REQUIRED columns, which carry no levels at all (spec.md §4.4: "
// num_values = count of level entries", §3: a REQUIRED column's level
// entry and its value are the same thing).
func buildDataPage(dst []byte, col *schema.ColumnDef, maxDef, maxRep byte, data *ColumnData, levels *ColumnLevels) ([]byte, int32, error) {
	if err := validateColumnType(col, data); err != nil {
		return nil, 0, err
	}

	rowCount, err := columnRowCount(col, maxDef, data, levels)
	if err != nil {
		return nil, 0, err
	}

	if maxRep > 0 {
		if levels == nil || levels.RepetitionLevels == nil {
			return nil, 0, fmt.Errorf("%w: column %q requires repetition levels", ErrMissingLevels, col.Name)
		}
		if len(levels.RepetitionLevels) != rowCount {
			return nil, 0, fmt.Errorf("%w: column %q repetition levels length %d != row count %d", ErrValueCount, col.Name, len(levels.RepetitionLevels), rowCount)
		}
		encoded, err := encodeLevels(levels.RepetitionLevels, maxRep, col.Name)
		if err != nil {
			return nil, 0, err
		}
		dst = appendLengthPrefixed(dst, encoded)
	}

	definedCount := rowCount
	if maxDef > 0 {
		// columnRowCount already checked levels.DefinitionLevels is present
		// and its length equals rowCount.
		encoded, err := encodeLevels(levels.DefinitionLevels, maxDef, col.Name)
		if err != nil {
			return nil, 0, err
		}
		dst = appendLengthPrefixed(dst, encoded)
		definedCount = 0
		for _, lvl := range levels.DefinitionLevels {
			if lvl == maxDef {
				definedCount++
			}
		}
	}
	if n := columnValueCount(col, data); n != definedCount {
		return nil, 0, fmt.Errorf("%w: column %q has %d values, levels define %d", ErrValueCount, col.Name, n, definedCount)
	}

	values, err := appendValues(dst, col, data, definedCount)
	if err != nil {
		return nil, 0, err
	}
	return values, int32(rowCount), nil
}

// columnRowCount returns the number of rows column represents: the length
// of its definition levels for an OPTIONAL/REPEATED column (one entry per
// row, present or not), or the dense value count for a REQUIRED column,
// which has no level arrays to consult.
func columnRowCount(col *schema.ColumnDef, maxDef byte, data *ColumnData, levels *ColumnLevels) (int, error) {
	if maxDef == 0 {
		return columnValueCount(col, data), nil
	}
	if levels == nil || levels.DefinitionLevels == nil {
		return 0, fmt.Errorf("%w: column %q requires definition levels", ErrMissingLevels, col.Name)
	}
	return len(levels.DefinitionLevels), nil
}

// validateColumnType checks that data's populated ColumnData variant
// matches col's declared physical_type (spec.md §4.6's precondition,
// §7's ColumnTypeMismatch), so a caller's wiring mistake is reported
// instead of panicking when appendValues slices the wrong, unpopulated
// field below. A column with no values at all (every field nil) passes
// here; buildDataPage then rejects it with ErrValueCount when its levels
// define any values.
func validateColumnType(col *schema.ColumnDef, data *ColumnData) error {
	populated, ok := populatedType(data)
	if !ok {
		return nil
	}
	if populated != col.Type {
		return fmt.Errorf("%w: column %q declares %d, data populated %d", ErrColumnTypeMismatch, col.Name, col.Type, populated)
	}
	return nil
}

// populatedType reports which PhysicalType data's non-nil field
// corresponds to, or ok=false if no field is populated.
func populatedType(data *ColumnData) (t schema.PhysicalType, ok bool) {
	switch {
	case data.Boolean != nil:
		return schema.Boolean, true
	case data.Int32 != nil:
		return schema.Int32, true
	case data.Int64 != nil:
		return schema.Int64, true
	case data.Int96 != nil:
		return schema.Int96, true
	case data.Float != nil:
		return schema.Float, true
	case data.Double != nil:
		return schema.Double, true
	case data.ByteArrayOffsets != nil:
		return schema.ByteArray, true
	case data.FixedLenByteArray != nil:
		return schema.FixedLenByteArray, true
	default:
		return 0, false
	}
}

// encodeLevels hybrid-encodes one level array and validates every value is
// within [0, maxLevel] (spec.md §7's invalid-levels error category).
func encodeLevels(levelBytes []byte, maxLevel byte, columnName string) ([]byte, error) {
	widened := make([]int32, len(levelBytes))
	for i, l := range levelBytes {
		if l > maxLevel {
			return nil, fmt.Errorf("%w: column %q level %d exceeds max %d", ErrInvalidLevels, columnName, l, maxLevel)
		}
		widened[i] = int32(l)
	}
	e := rle.Encoding{BitWidth: rle.BitWidthForMaxLevel(maxLevel)}
	return e.Encode(nil, widened)
}

func appendLengthPrefixed(dst []byte, payload []byte) []byte {
	var lenPrefix [4]byte
	binary.LittleEndian.PutUint32(lenPrefix[:], uint32(len(payload)))
	dst = append(dst, lenPrefix[:]...)
	return append(dst, payload...)
}

// columnValueCount returns the number of logical values data represents,
// using the schema's declared TypeLength for FIXED_LEN_BYTE_ARRAY columns
// since those can't infer a count from slice length alone.
func columnValueCount(col *schema.ColumnDef, data *ColumnData) int {
	if col.Type == schema.FixedLenByteArray {
		if col.TypeLength == 0 {
			return 0
		}
		return len(data.FixedLenByteArray) / int(col.TypeLength)
	}
	return data.valueCount()
}

// appendValues PLAIN-encodes the non-null values of data (the first
// definedCount logical entries of whichever slice the schema's type
// selects) onto dst.
func appendValues(dst []byte, col *schema.ColumnDef, data *ColumnData, definedCount int) ([]byte, error) {
	switch col.Type {
	case schema.Boolean:
		return plain.EncodeBoolean(dst, data.Boolean[:definedCount]), nil
	case schema.Int32:
		return plain.AppendInt32(dst, data.Int32[:definedCount]), nil
	case schema.Int64:
		return plain.AppendInt64(dst, data.Int64[:definedCount]), nil
	case schema.Int96:
		return plain.AppendInt96(dst, data.Int96[:definedCount]), nil
	case schema.Float:
		return plain.AppendFloat(dst, data.Float[:definedCount]), nil
	case schema.Double:
		return plain.AppendDouble(dst, data.Double[:definedCount]), nil
	case schema.ByteArray:
		out, err := plain.AppendByteArray(dst, data.ByteArrayValues, data.ByteArrayOffsets[:definedCount+1])
		if err != nil {
			return nil, fmt.Errorf("pqwriter: column %q: %w", col.Name, err)
		}
		return out, nil
	case schema.FixedLenByteArray:
		n := definedCount * int(col.TypeLength)
		return plain.AppendFixedLenByteArray(dst, data.FixedLenByteArray[:n]), nil
	default:
		return nil, fmt.Errorf("pqwriter: column %q: unsupported physical type %d", col.Name, col.Type)
	}
}
