package accumulate

import "fmt"

// columnBuffer holds one column's accumulated defined (non-null) value
// bytes plus, for OPTIONAL columns, one definition-level byte per row.
type columnBuffer struct {
	values []byte
	defs   []byte
}

// Accumulator buffers records for one row group, splitting each into
// per-column byte slices as Append is called. It is not safe for
// concurrent use; the drainer is its only caller (spec.md §4.8).
type Accumulator struct {
	layout  *Layout
	columns []columnBuffer
	rows    int
}

// New constructs an Accumulator for layout.
func New(layout *Layout) *Accumulator {
	return &Accumulator{
		layout:  layout,
		columns: make([]columnBuffer, len(layout.Columns)),
	}
}

// Append splits one fixed-size record into the accumulator's per-column
// buffers. record must be exactly layout.RecordSize bytes.
func (a *Accumulator) Append(record []byte) error {
	if len(record) != a.layout.RecordSize {
		return fmt.Errorf("accumulate: record is %d bytes, layout expects %d", len(record), a.layout.RecordSize)
	}
	for i := range a.layout.Columns {
		col := &a.layout.Columns[i]
		buf := &a.columns[i]

		if !col.Optional {
			buf.values = append(buf.values, record[col.ValueOffset:col.ValueOffset+col.ValueSize]...)
			continue
		}

		present := record[col.NullBitIndex/8]&(1<<uint(col.NullBitIndex%8)) != 0
		if present {
			buf.defs = append(buf.defs, 1)
			buf.values = append(buf.values, record[col.ValueOffset:col.ValueOffset+col.ValueSize]...)
		} else {
			buf.defs = append(buf.defs, 0)
		}
	}
	a.rows++
	return nil
}

// RowCount returns the number of records accumulated since construction
// or the last Reset.
func (a *Accumulator) RowCount() int { return a.rows }

// ColumnValues returns column i's accumulated defined-value bytes. The
// returned slice is owned by the Accumulator and invalidated by the next
// Reset.
func (a *Accumulator) ColumnValues(i int) []byte { return a.columns[i].values }

// ColumnDefinitionLevels returns column i's per-row definition levels, or
// nil for a REQUIRED column (which has none).
func (a *Accumulator) ColumnDefinitionLevels(i int) []byte {
	if !a.layout.Columns[i].Optional {
		return nil
	}
	return a.columns[i].defs
}

// Reset clears all buffers, retaining their backing capacity, per
// spec.md §4.8.
func (a *Accumulator) Reset() {
	a.rows = 0
	for i := range a.columns {
		a.columns[i].values = a.columns[i].values[:0]
		a.columns[i].defs = a.columns[i].defs[:0]
	}
}
