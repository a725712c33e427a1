package format_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/quantfeed/pqwriter/format"
)

// hexDump renders data as one "offset  hex" line per 16 bytes, so a
// byte-level mismatch between two encodings reads as a readable unified
// diff instead of a wall of raw bytes.
func hexDump(data []byte) string {
	var b strings.Builder
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(&b, "%04x  % x\n", off, data[off:end])
	}
	return b.String()
}

// assertBytesEqual fails with a unified hex diff (rather than a raw byte
// dump) when want and got diverge, the style spec.md §9 calls for when
// comparing encoded footers/page headers byte-for-byte.
func assertBytesEqual(t *testing.T, name string, want, got []byte) {
	t.Helper()
	if string(want) == string(got) {
		return
	}
	wantDump, gotDump := hexDump(want), hexDump(got)
	edits := myers.ComputeEdits(span.URIFromPath(name), wantDump, gotDump)
	diff := gotextdiff.ToUnified(name+".want", name+".got", wantDump, edits)
	t.Fatalf("%s mismatch:\n%s", name, diff)
}

func TestAppendPageHeaderIsDeterministic(t *testing.T) {
	ph := format.PageHeader{
		Type:                 format.DataPage,
		UncompressedPageSize: 256,
		CompressedPageSize:   200,
		DataPageHeader: &format.DataPageHeader{
			NumValues:               40,
			Encoding:                format.Plain,
			DefinitionLevelEncoding: format.RLE,
			RepetitionLevelEncoding: format.RLE,
		},
	}

	first, err := format.AppendPageHeader(nil, &ph)
	if err != nil {
		t.Fatal(err)
	}

	// Reuse a scratch slice carrying unrelated garbage capacity, as the
	// writer's scratch pool does between row groups.
	scratch := make([]byte, 0, 512)
	scratch = append(scratch, 0xff, 0xff, 0xff)
	scratch = scratch[:0]
	second, err := format.AppendPageHeader(scratch, &ph)
	if err != nil {
		t.Fatal(err)
	}

	assertBytesEqual(t, "page_header", first, second)
}

func TestAppendFileMetaDataIsDeterministic(t *testing.T) {
	typ := format.Int64
	repetition := format.Required

	fmd := format.FileMetaData{
		Version: 1,
		Schema: []format.SchemaElement{
			{Name: "schema"},
			{Type: &typ, RepetitionType: &repetition, Name: "price"},
		},
		NumRows: 3,
		RowGroups: []format.RowGroup{
			{
				TotalByteSize: 48,
				NumRows:       3,
				Columns: []format.ColumnChunk{
					{
						FileOffset: 4,
						MetaData: format.ColumnMetaData{
							Type:                  format.Int64,
							Encodings:             []format.Encoding{format.Plain},
							PathInSchema:          []string{"price"},
							Codec:                 format.Uncompressed,
							NumValues:             3,
							TotalUncompressedSize: 24,
							TotalCompressedSize:   24,
							DataPageOffset:        4,
						},
					},
				},
			},
		},
		CreatedBy: "pqwriter",
	}

	first, err := format.AppendFileMetaData(nil, &fmd)
	if err != nil {
		t.Fatal(err)
	}
	second, err := format.AppendFileMetaData(nil, &fmd)
	if err != nil {
		t.Fatal(err)
	}
	assertBytesEqual(t, "file_metadata", first, second)
}
