package format

import (
	"fmt"

	"github.com/quantfeed/pqwriter/internal/thriftcompact"
)

// AppendPageHeader serializes a PageHeader (field ids per spec.md §6) onto
// dst, reusing its backing array when there is spare capacity. Callers that
// write one page header per column per row group should pass the same
// scratch slice (sliced to [:0]) on every call, per spec.md §9.
func AppendPageHeader(dst []byte, ph *PageHeader) ([]byte, error) {
	w := thriftcompact.NewWriter(dst)
	w.WriteStructBegin()
	if err := w.WriteI32Field(1, int32(ph.Type)); err != nil {
		return nil, fmt.Errorf("format: page header type: %w", err)
	}
	if err := w.WriteI32Field(2, ph.UncompressedPageSize); err != nil {
		return nil, fmt.Errorf("format: page header uncompressed size: %w", err)
	}
	if err := w.WriteI32Field(3, ph.CompressedPageSize); err != nil {
		return nil, fmt.Errorf("format: page header compressed size: %w", err)
	}
	if ph.DataPageHeader != nil {
		if err := w.WriteFieldBeginStruct(5); err != nil {
			return nil, fmt.Errorf("format: page header data_page_header: %w", err)
		}
		if err := appendDataPageHeader(w, ph.DataPageHeader); err != nil {
			return nil, err
		}
	}
	w.WriteStructEnd()
	return w.Bytes(), nil
}

func appendDataPageHeader(w *thriftcompact.Writer, h *DataPageHeader) error {
	w.WriteStructBegin()
	if err := w.WriteI32Field(1, h.NumValues); err != nil {
		return fmt.Errorf("format: data_page_header num_values: %w", err)
	}
	if err := w.WriteI32Field(2, int32(h.Encoding)); err != nil {
		return fmt.Errorf("format: data_page_header encoding: %w", err)
	}
	if err := w.WriteI32Field(3, int32(h.DefinitionLevelEncoding)); err != nil {
		return fmt.Errorf("format: data_page_header definition_level_encoding: %w", err)
	}
	if err := w.WriteI32Field(4, int32(h.RepetitionLevelEncoding)); err != nil {
		return fmt.Errorf("format: data_page_header repetition_level_encoding: %w", err)
	}
	w.WriteStructEnd()
	return nil
}

// AppendFileMetaData serializes a FileMetaData footer (spec.md §6) onto
// dst, reusing its backing array when there is spare capacity.
func AppendFileMetaData(dst []byte, fmd *FileMetaData) ([]byte, error) {
	w := thriftcompact.NewWriter(dst)
	w.WriteStructBegin()
	if err := w.WriteI32Field(1, fmd.Version); err != nil {
		return nil, fmt.Errorf("format: file metadata version: %w", err)
	}
	if err := w.WriteListFieldBegin(2, thriftcompact.Struct, len(fmd.Schema)); err != nil {
		return nil, fmt.Errorf("format: file metadata schema: %w", err)
	}
	for i := range fmd.Schema {
		if err := appendSchemaElement(w, &fmd.Schema[i]); err != nil {
			return nil, err
		}
	}
	if err := w.WriteI64Field(3, fmd.NumRows); err != nil {
		return nil, fmt.Errorf("format: file metadata num_rows: %w", err)
	}
	if err := w.WriteListFieldBegin(4, thriftcompact.Struct, len(fmd.RowGroups)); err != nil {
		return nil, fmt.Errorf("format: file metadata row_groups: %w", err)
	}
	for i := range fmd.RowGroups {
		if err := appendRowGroup(w, &fmd.RowGroups[i]); err != nil {
			return nil, err
		}
	}
	if err := w.WriteBinaryField(6, []byte(fmd.CreatedBy)); err != nil {
		return nil, fmt.Errorf("format: file metadata created_by: %w", err)
	}
	w.WriteStructEnd()
	return w.Bytes(), nil
}

func appendSchemaElement(w *thriftcompact.Writer, se *SchemaElement) error {
	w.WriteStructBegin()
	if se.Type != nil {
		if err := w.WriteI32Field(1, int32(*se.Type)); err != nil {
			return fmt.Errorf("format: schema element type: %w", err)
		}
	}
	if se.TypeLength != nil {
		if err := w.WriteI32Field(2, *se.TypeLength); err != nil {
			return fmt.Errorf("format: schema element type_length: %w", err)
		}
	}
	if se.RepetitionType != nil {
		if err := w.WriteI32Field(3, int32(*se.RepetitionType)); err != nil {
			return fmt.Errorf("format: schema element repetition_type: %w", err)
		}
	}
	if err := w.WriteBinaryField(4, []byte(se.Name)); err != nil {
		return fmt.Errorf("format: schema element name: %w", err)
	}
	if se.NumChildren != nil {
		if err := w.WriteI32Field(5, *se.NumChildren); err != nil {
			return fmt.Errorf("format: schema element num_children: %w", err)
		}
	}
	if se.ConvertedType != nil {
		if err := w.WriteI32Field(6, int32(*se.ConvertedType)); err != nil {
			return fmt.Errorf("format: schema element converted_type: %w", err)
		}
	}
	if se.LogicalType != nil && se.LogicalType.UUID {
		// LogicalType is field 10 on SchemaElement in parquet.thrift; its
		// own UUIDType variant is field 14 of the LogicalType union.
		if err := w.WriteFieldBeginStruct(10); err != nil {
			return fmt.Errorf("format: schema element logical_type: %w", err)
		}
		w.WriteStructBegin()
		if err := w.WriteFieldBeginStruct(14); err != nil {
			return fmt.Errorf("format: schema element logical_type.UUID: %w", err)
		}
		w.WriteStructBegin()
		w.WriteStructEnd()
		w.WriteStructEnd()
	}
	w.WriteStructEnd()
	return nil
}

func appendRowGroup(w *thriftcompact.Writer, rg *RowGroup) error {
	w.WriteStructBegin()
	if err := w.WriteListFieldBegin(1, thriftcompact.Struct, len(rg.Columns)); err != nil {
		return fmt.Errorf("format: row group columns: %w", err)
	}
	for i := range rg.Columns {
		if err := appendColumnChunk(w, &rg.Columns[i]); err != nil {
			return err
		}
	}
	if err := w.WriteI64Field(2, rg.TotalByteSize); err != nil {
		return fmt.Errorf("format: row group total_byte_size: %w", err)
	}
	if err := w.WriteI64Field(3, rg.NumRows); err != nil {
		return fmt.Errorf("format: row group num_rows: %w", err)
	}
	w.WriteStructEnd()
	return nil
}

func appendColumnChunk(w *thriftcompact.Writer, cc *ColumnChunk) error {
	w.WriteStructBegin()
	if err := w.WriteI64Field(2, cc.FileOffset); err != nil {
		return fmt.Errorf("format: column chunk file_offset: %w", err)
	}
	if err := w.WriteFieldBeginStruct(3); err != nil {
		return fmt.Errorf("format: column chunk meta_data: %w", err)
	}
	if err := appendColumnMetaData(w, &cc.MetaData); err != nil {
		return err
	}
	w.WriteStructEnd()
	return nil
}

func appendColumnMetaData(w *thriftcompact.Writer, cmd *ColumnMetaData) error {
	w.WriteStructBegin()
	if err := w.WriteI32Field(1, int32(cmd.Type)); err != nil {
		return fmt.Errorf("format: column meta_data type: %w", err)
	}
	if err := w.WriteListFieldBegin(2, thriftcompact.I32, len(cmd.Encodings)); err != nil {
		return fmt.Errorf("format: column meta_data encodings: %w", err)
	}
	for _, enc := range cmd.Encodings {
		w.WriteListI32Element(int32(enc))
	}
	if err := w.WriteListFieldBegin(3, thriftcompact.Binary, len(cmd.PathInSchema)); err != nil {
		return fmt.Errorf("format: column meta_data path_in_schema: %w", err)
	}
	for _, p := range cmd.PathInSchema {
		if err := w.WriteBinary([]byte(p)); err != nil {
			return fmt.Errorf("format: column meta_data path_in_schema element: %w", err)
		}
	}
	if err := w.WriteI32Field(4, int32(cmd.Codec)); err != nil {
		return fmt.Errorf("format: column meta_data codec: %w", err)
	}
	if err := w.WriteI64Field(5, cmd.NumValues); err != nil {
		return fmt.Errorf("format: column meta_data num_values: %w", err)
	}
	if err := w.WriteI64Field(6, cmd.TotalUncompressedSize); err != nil {
		return fmt.Errorf("format: column meta_data total_uncompressed_size: %w", err)
	}
	if err := w.WriteI64Field(7, cmd.TotalCompressedSize); err != nil {
		return fmt.Errorf("format: column meta_data total_compressed_size: %w", err)
	}
	if err := w.WriteI64Field(9, cmd.DataPageOffset); err != nil {
		return fmt.Errorf("format: column meta_data data_page_offset: %w", err)
	}
	w.WriteStructEnd()
	return nil
}
