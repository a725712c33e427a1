// Package pqwriter assembles Apache Parquet files from fixed-schema row
// groups without depending on a generic reflection-based writer: callers
// supply columnar data directly (spec.md §3/§4.6), and the package handles
// page building, compression, and footer encoding.
package pqwriter

import (
	"fmt"
	"io"
	"sync"

	"github.com/quantfeed/pqwriter/compress"
	_ "github.com/quantfeed/pqwriter/compress/brotli"
	_ "github.com/quantfeed/pqwriter/compress/gzip"
	_ "github.com/quantfeed/pqwriter/compress/lz4"
	_ "github.com/quantfeed/pqwriter/compress/uncompressed"
	_ "github.com/quantfeed/pqwriter/compress/zstd"
	"github.com/quantfeed/pqwriter/format"
	"github.com/quantfeed/pqwriter/schema"
)

// CreatedBy is the value written to the footer's created_by field
// (spec.md §6), matching the convention other Parquet writers use of
// naming the producing library and a version.
const CreatedBy = "pqwriter version 1.0"

const formatVersion = int32(1)

// magic is the 4-byte marker that opens and closes every Parquet file.
var magic = [4]byte{'P', 'A', 'R', '1'}

type writerState int

const (
	stateCreated writerState = iota
	stateOpen
	stateClosed
)

// Option configures a Writer at Open time.
type Option func(*config)

type config struct {
	compression      format.CompressionCodec
	maxRowGroupBytes int64
}

// WithCompression selects the CompressionCodec applied to every data page
// (spec.md §4.5). The default is Uncompressed.
func WithCompression(codec format.CompressionCodec) Option {
	return func(c *config) { c.compression = codec }
}

// WithMaxRowGroupSize rejects WriteRowGroup calls whose total uncompressed
// column data would exceed maxBytes (spec.md §7's size-limit error
// category). Zero (the default) disables the check.
func WithMaxRowGroupSize(maxBytes int64) Option {
	return func(c *config) { c.maxRowGroupBytes = maxBytes }
}

// Writer assembles one Parquet file from a sequence of row groups written
// through WriteRowGroup, matching spec.md §4.6's open/write/close
// lifecycle. A Writer is not safe for concurrent use; sink.Worker is the
// concurrency boundary (SPEC_FULL.md §1).
type Writer struct {
	mu sync.Mutex

	w      io.Writer
	schema *schema.Schema
	cfg    config
	codec  compress.Codec

	state  writerState
	offset int64

	rowGroups []format.RowGroup
	numRows   int64

	pagePool     *scratchPool
	compressPool *scratchPool
	bodyPool     *scratchPool
}

// Open begins writing a Parquet file to w using the given schema, and
// returns a Writer positioned to accept WriteRowGroup calls.
func Open(w io.Writer, s *schema.Schema, opts ...Option) (*Writer, error) {
	cfg := config{compression: format.Uncompressed}
	for _, opt := range opts {
		opt(&cfg)
	}

	codec, err := compress.Lookup(cfg.compression)
	if err != nil {
		return nil, fmt.Errorf("pqwriter: open: %w", err)
	}

	n, err := w.Write(magic[:])
	if err != nil {
		return nil, fmt.Errorf("%w: writing file magic: %v", ErrSink, err)
	}

	wr := &Writer{
		w:            w,
		schema:       s,
		cfg:          cfg,
		codec:        codec,
		state:        stateOpen,
		offset:       int64(n),
		pagePool:     newScratchPool(),
		compressPool: newScratchPool(),
		bodyPool:     newScratchPool(),
	}
	return wr, nil
}

// WriteRowGroup encodes one row group from columns (ordered to match the
// schema) and appends it to the file (spec.md §4.6). columns must have
// length equal to the schema's column count. levels is either nil (valid
// only when every column is REQUIRED) or of that same length; levels[i]
// may be the zero ColumnLevels only for REQUIRED columns.
func (wr *Writer) WriteRowGroup(columns []ColumnData, levels []ColumnLevels) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	if wr.state == stateClosed {
		return ErrWriterClosed
	}
	if wr.state != stateOpen {
		return ErrWriterNotOpen
	}

	defs := wr.schema.Columns()
	if len(columns) != len(defs) {
		return fmt.Errorf("%w: got %d columns, schema has %d", ErrColumnCount, len(columns), len(defs))
	}
	if levels != nil && len(levels) != len(defs) {
		return fmt.Errorf("%w: got %d level sets, schema has %d", ErrColumnCount, len(levels), len(defs))
	}

	pageScratch := wr.pagePool.get()
	compressScratch := wr.compressPool.get()
	bodyScratch := wr.bodyPool.get()
	defer wr.pagePool.put(pageScratch)
	defer wr.compressPool.put(compressScratch)
	defer wr.bodyPool.put(bodyScratch)

	// Build the entire row group into bodyScratch before writing anything
	// to the sink: a mid-row-group failure (a bad column, an oversized
	// row group) must never leave a truncated row group on disk, per
	// spec.md §7's resource/sink error category.
	body := bodyScratch.reset()
	rowGroup := format.RowGroup{Columns: make([]format.ColumnChunk, len(defs))}
	var numRows int64
	var uncompressedBytes int64

	for i := range defs {
		col := &defs[i]
		maxDef := wr.schema.MaxDefinitionLevel(i)
		maxRep := wr.schema.MaxRepetitionLevel(i)

		var lvl *ColumnLevels
		if levels != nil {
			lvl = &levels[i]
		}

		pageScratch.data = pageScratch.reset()
		pageBytes, numValues, err := buildDataPage(pageScratch.data, col, maxDef, maxRep, &columns[i], lvl)
		if err != nil {
			return err
		}
		pageScratch.data = pageBytes

		if i == 0 {
			numRows = int64(numValues)
		} else if int64(numValues) != numRows {
			return fmt.Errorf("%w: column %q has %d values, column %q has %d", ErrValueCount, col.Name, numValues, defs[0].Name, numRows)
		}

		uncompressedBytes += int64(len(pageBytes))
		if wr.cfg.maxRowGroupBytes > 0 && uncompressedBytes > wr.cfg.maxRowGroupBytes {
			return fmt.Errorf("%w: %d bytes exceeds limit %d", ErrRowGroupTooLarge, uncompressedBytes, wr.cfg.maxRowGroupBytes)
		}

		ph := format.PageHeader{
			Type:                 format.DataPage,
			UncompressedPageSize: int32(len(pageBytes)),
			DataPageHeader: &format.DataPageHeader{
				NumValues:               numValues,
				Encoding:                format.Plain,
				DefinitionLevelEncoding: format.RLE,
				RepetitionLevelEncoding: format.RLE,
			},
		}

		compressScratch.data = compressScratch.reset()
		compressed, err := wr.codec.Encode(compressScratch.data, pageBytes)
		if err != nil {
			return fmt.Errorf("pqwriter: column %q: compress: %w", col.Name, err)
		}
		compressScratch.data = compressed
		ph.CompressedPageSize = int32(len(compressed))

		headerBytes, err := format.AppendPageHeader(nil, &ph)
		if err != nil {
			return fmt.Errorf("pqwriter: column %q: %w", col.Name, err)
		}

		dataPageOffset := wr.offset + int64(len(body))
		body = append(body, headerBytes...)
		body = append(body, compressed...)

		rowGroup.Columns[i] = format.ColumnChunk{
			FileOffset: dataPageOffset,
			MetaData: format.ColumnMetaData{
				Type:                  col.Type,
				Encodings:             []format.Encoding{format.Plain, format.RLE},
				PathInSchema:          []string{col.Name},
				Codec:                 wr.cfg.compression,
				NumValues:             int64(numValues),
				TotalUncompressedSize: int64(len(headerBytes) + len(pageBytes)),
				TotalCompressedSize:   int64(len(headerBytes) + len(compressed)),
				DataPageOffset:        dataPageOffset,
			},
		}
		rowGroup.TotalByteSize += int64(len(headerBytes) + len(compressed))
	}

	bodyScratch.data = body
	if err := wr.writeBytes(body); err != nil {
		return err
	}

	rowGroup.NumRows = numRows
	wr.rowGroups = append(wr.rowGroups, rowGroup)
	wr.numRows += numRows
	return nil
}

// Close writes the file footer and trailing magic (spec.md §4.6/§6). Close
// is idempotent: calling it more than once after a successful first call
// returns nil.
func (wr *Writer) Close() error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	if wr.state == stateClosed {
		return nil
	}
	if wr.state != stateOpen {
		return ErrWriterNotOpen
	}

	fmd := format.FileMetaData{
		Version:   formatVersion,
		Schema:    wr.schema.Elements(),
		NumRows:   wr.numRows,
		RowGroups: wr.rowGroups,
		CreatedBy: CreatedBy,
	}

	footerBytes, err := format.AppendFileMetaData(nil, &fmd)
	if err != nil {
		return fmt.Errorf("pqwriter: close: %w", err)
	}
	if err := wr.writeBytes(footerBytes); err != nil {
		return err
	}

	var footerLen [4]byte
	footerLenLE(footerLen[:], len(footerBytes))
	if err := wr.writeBytes(footerLen[:]); err != nil {
		return err
	}
	if err := wr.writeBytes(magic[:]); err != nil {
		return err
	}

	wr.state = stateClosed
	return nil
}

func (wr *Writer) writeBytes(p []byte) error {
	n, err := wr.w.Write(p)
	wr.offset += int64(n)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSink, err)
	}
	return nil
}

func footerLenLE(dst []byte, n int) {
	dst[0] = byte(n)
	dst[1] = byte(n >> 8)
	dst[2] = byte(n >> 16)
	dst[3] = byte(n >> 24)
}
