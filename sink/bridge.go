package sink

import (
	"encoding/binary"
	"math"

	"github.com/quantfeed/pqwriter"
	"github.com/quantfeed/pqwriter/accumulate"
	"github.com/quantfeed/pqwriter/schema"
)

// buildColumnData converts an Accumulator's raw per-column byte buffers
// into the tagged-union ColumnData/ColumnLevels shapes WriteRowGroup
// expects, decoding each column's fixed-width representation according
// to its declared PhysicalType.
func buildColumnData(layout *accumulate.Layout, acc *accumulate.Accumulator) ([]pqwriter.ColumnData, []pqwriter.ColumnLevels) {
	columns := make([]pqwriter.ColumnData, len(layout.Columns))
	levels := make([]pqwriter.ColumnLevels, len(layout.Columns))

	for i := range layout.Columns {
		col := &layout.Columns[i]
		raw := acc.ColumnValues(i)
		columns[i] = decodeColumn(col.Type, raw)
		levels[i] = pqwriter.ColumnLevels{
			DefinitionLevels: acc.ColumnDefinitionLevels(i),
		}
	}
	return columns, levels
}

func decodeColumn(t schema.PhysicalType, raw []byte) pqwriter.ColumnData {
	switch t {
	case schema.Boolean:
		out := make([]bool, len(raw))
		for i, b := range raw {
			out[i] = b != 0
		}
		return pqwriter.ColumnData{Boolean: out}
	case schema.Int32:
		out := make([]int32, len(raw)/4)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		return pqwriter.ColumnData{Int32: out}
	case schema.Int64:
		out := make([]int64, len(raw)/8)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		return pqwriter.ColumnData{Int64: out}
	case schema.Float:
		out := make([]float32, len(raw)/4)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		return pqwriter.ColumnData{Float: out}
	case schema.Double:
		out := make([]float64, len(raw)/8)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		return pqwriter.ColumnData{Double: out}
	case schema.Int96:
		out := make([][12]byte, len(raw)/12)
		for i := range out {
			copy(out[i][:], raw[i*12:(i+1)*12])
		}
		return pqwriter.ColumnData{Int96: out}
	case schema.FixedLenByteArray:
		return pqwriter.ColumnData{FixedLenByteArray: raw}
	default:
		return pqwriter.ColumnData{}
	}
}
