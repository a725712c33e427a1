// Command pqinspect is a footer-only diagnostic reader for files this
// module's writer produced (spec.md §6: "a minimal footer-only reader
// belongs in a separate diagnostic tool, not in the library"). It never
// attempts to read a data page's compressed body; it only reports what
// the FileMetaData footer says is there.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"github.com/quantfeed/pqwriter/format"
	"github.com/quantfeed/pqwriter/format/thriftdecode"
	"github.com/olekukonko/tablewriter"
)

const footerLenFieldSize = 4
const magicSize = 4

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pqinspect <file.parquet>")
		os.Exit(2)
	}
	if err := inspect(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "pqinspect: %v\n", err)
		os.Exit(1)
	}
}

func inspect(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size < int64(2*magicSize+footerLenFieldSize) {
		return fmt.Errorf("file too small to contain a footer: %d bytes", size)
	}

	trailer := make([]byte, footerLenFieldSize+magicSize)
	if _, err := f.ReadAt(trailer, size-int64(len(trailer))); err != nil {
		return fmt.Errorf("reading trailer: %w", err)
	}
	if string(trailer[footerLenFieldSize:]) != "PAR1" {
		return fmt.Errorf("missing trailing magic, found %q", trailer[footerLenFieldSize:])
	}

	footerLen := int64(binary.LittleEndian.Uint32(trailer[:footerLenFieldSize]))
	footerStart := size - int64(len(trailer)) - footerLen
	if footerStart < int64(magicSize) {
		return fmt.Errorf("footer_len %d is larger than the file", footerLen)
	}

	footer := make([]byte, footerLen)
	if _, err := f.ReadAt(footer, footerStart); err != nil {
		return fmt.Errorf("reading footer: %w", err)
	}

	var fmd format.FileMetaData
	if err := thriftdecode.DecodeFileMetaData(footer, &fmd); err != nil {
		return fmt.Errorf("decoding footer: %w", err)
	}

	printSummary(path, &fmd)
	printSchema(&fmd)
	printRowGroups(&fmd)
	return nil
}

func printSummary(path string, fmd *format.FileMetaData) {
	fmt.Printf("%s\n", path)
	fmt.Printf("  format version: %d\n", fmd.Version)
	fmt.Printf("  created by:     %s\n", fmd.CreatedBy)
	fmt.Printf("  total rows:     %d\n", fmd.NumRows)
	fmt.Printf("  row groups:     %d\n", len(fmd.RowGroups))
}

func printSchema(fmd *format.FileMetaData) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"name", "type", "repetition", "converted"})
	for _, se := range fmd.Schema {
		if se.Type == nil {
			continue // root group element, no physical type
		}
		table.Append([]string{
			se.Name,
			physicalTypeName(*se.Type),
			repetitionName(*se.RepetitionType),
			convertedTypeName(se.ConvertedType),
		})
	}
	table.Render()
}

func printRowGroups(fmd *format.FileMetaData) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"row group", "rows", "total bytes", "column", "codec", "encodings", "data offset", "compressed", "uncompressed"})
	for gi, rg := range fmd.RowGroups {
		for _, col := range rg.Columns {
			md := col.MetaData
			table.Append([]string{
				fmt.Sprintf("%d", gi),
				fmt.Sprintf("%d", rg.NumRows),
				fmt.Sprintf("%d", rg.TotalByteSize),
				columnName(md.PathInSchema),
				codecName(md.Codec),
				encodingsName(md.Encodings),
				fmt.Sprintf("%d", md.DataPageOffset),
				fmt.Sprintf("%d", md.TotalCompressedSize),
				fmt.Sprintf("%d", md.TotalUncompressedSize),
			})
		}
	}
	table.Render()
}

func columnName(path []string) string {
	if len(path) == 0 {
		return ""
	}
	name := path[0]
	for _, p := range path[1:] {
		name += "." + p
	}
	return name
}

func physicalTypeName(t format.PhysicalType) string {
	switch t {
	case format.Boolean:
		return "BOOLEAN"
	case format.Int32:
		return "INT32"
	case format.Int64:
		return "INT64"
	case format.Int96:
		return "INT96"
	case format.Float:
		return "FLOAT"
	case format.Double:
		return "DOUBLE"
	case format.ByteArray:
		return "BYTE_ARRAY"
	case format.FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", t)
	}
}

func repetitionName(r format.FieldRepetitionType) string {
	switch r {
	case format.Required:
		return "REQUIRED"
	case format.Optional:
		return "OPTIONAL"
	case format.Repeated:
		return "REPEATED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", r)
	}
}

func convertedTypeName(ct *format.ConvertedType) string {
	if ct == nil {
		return "-"
	}
	switch *ct {
	case format.UTF8:
		return "UTF8"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", *ct)
	}
}

func codecName(c format.CompressionCodec) string {
	switch c {
	case format.Uncompressed:
		return "UNCOMPRESSED"
	case format.Snappy:
		return "SNAPPY"
	case format.Gzip:
		return "GZIP"
	case format.Lzo:
		return "LZO"
	case format.Brotli:
		return "BROTLI"
	case format.Lz4:
		return "LZ4"
	case format.Zstd:
		return "ZSTD"
	case format.Lz4Raw:
		return "LZ4_RAW"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", c)
	}
}

func encodingsName(es []format.Encoding) string {
	out := ""
	for i, e := range es {
		if i > 0 {
			out += ","
		}
		switch e {
		case format.Plain:
			out += "PLAIN"
		case format.RLE:
			out += "RLE"
		default:
			out += fmt.Sprintf("UNKNOWN(%d)", e)
		}
	}
	return out
}
