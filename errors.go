package pqwriter

import "errors"

// Sentinel errors group into the taxonomy spec.md §7 defines: input-shape
// errors (a caller supplied a row group that doesn't match the schema),
// size-limit errors, writer-state errors (a call arrived in the wrong
// lifecycle state), and resource/sink errors (the underlying file or sink
// failed). Callers distinguish categories with errors.Is against the
// exported sentinels below, and get the offending detail from the wrapped
// message via %w.
var (
	// ErrColumnCount is returned when a row group's column count doesn't
	// match the schema.
	ErrColumnCount = errors.New("pqwriter: row group column count does not match schema")
	// ErrValueCount is returned when a column's value count doesn't match
	// the other columns in the same row group, or doesn't match the
	// column's level array lengths.
	ErrValueCount = errors.New("pqwriter: column value count mismatch")
	// ErrInvalidLevels is returned when a REPEATED column's repetition
	// levels require more than one level of nesting, or a level value
	// exceeds the column's max definition/repetition level.
	ErrInvalidLevels = errors.New("pqwriter: invalid definition/repetition levels")
	// ErrMissingLevels is returned when an OPTIONAL or REPEATED column's
	// WriteRowGroup call omits the ColumnLevels it requires.
	ErrMissingLevels = errors.New("pqwriter: missing required levels for column")
	// ErrColumnTypeMismatch is returned when a ColumnData's populated
	// variant doesn't match the schema's declared physical_type for that
	// column.
	ErrColumnTypeMismatch = errors.New("pqwriter: column data type does not match schema")

	// ErrRowGroupTooLarge is returned when a row group would exceed the
	// configured maximum uncompressed size.
	ErrRowGroupTooLarge = errors.New("pqwriter: row group exceeds configured size limit")

	// ErrWriterClosed is returned when a call is made after Close.
	ErrWriterClosed = errors.New("pqwriter: writer is closed")
	// ErrWriterNotOpen is returned when WriteRowGroup or Close is called
	// before Open has completed successfully.
	ErrWriterNotOpen = errors.New("pqwriter: writer is not open")

	// ErrSink wraps an underlying io.Writer/file error encountered while
	// flushing a page, row group, or footer.
	ErrSink = errors.New("pqwriter: sink write failed")
)
