package schema_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/quantfeed/pqwriter/schema"
)

func TestNewRejectsEmptySchema(t *testing.T) {
	if _, err := schema.New(nil); !errors.Is(err, schema.ErrInvalidSchema) {
		t.Fatalf("got %v, want ErrInvalidSchema", err)
	}
}

func TestNewRejectsEmptyColumnName(t *testing.T) {
	_, err := schema.New([]schema.ColumnDef{{Type: schema.Int64, Repetition: schema.Required}})
	if !errors.Is(err, schema.ErrInvalidColumnName) {
		t.Fatalf("got %v, want ErrInvalidColumnName", err)
	}
}

func TestNewRejectsMissingFixedTypeLength(t *testing.T) {
	_, err := schema.New([]schema.ColumnDef{
		{Name: "symbol", Type: schema.FixedLenByteArray, Repetition: schema.Required},
	})
	if !errors.Is(err, schema.ErrInvalidFixedTypeLength) {
		t.Fatalf("got %v, want ErrInvalidFixedTypeLength", err)
	}
}

func TestNewAcceptsUUIDColumn(t *testing.T) {
	id := uuid.New()
	s, err := schema.New([]schema.ColumnDef{
		{Name: "id", Type: schema.FixedLenByteArray, Repetition: schema.Required, TypeLength: 16, Logical: schema.LogicalUUID},
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d", s.Len())
	}
	if len(id) != 16 {
		t.Fatalf("uuid length = %d, want 16", len(id))
	}
}

func TestElementsShapeAndRootName(t *testing.T) {
	s, err := schema.New([]schema.ColumnDef{
		{Name: "price", Type: schema.Int64, Repetition: schema.Required},
		{Name: "symbol", Type: schema.ByteArray, Repetition: schema.Optional, Logical: schema.LogicalString},
	}, schema.WithRootName("trade"))
	if err != nil {
		t.Fatal(err)
	}

	elems := s.Elements()
	if len(elems) != 3 {
		t.Fatalf("got %d elements, want 3 (root + 2 columns)", len(elems))
	}
	if elems[0].Name != "trade" || elems[0].NumChildren == nil || *elems[0].NumChildren != 2 {
		t.Fatalf("root element = %+v", elems[0])
	}
	if elems[2].ConvertedType == nil {
		t.Fatalf("symbol column missing converted_type")
	}
}

func TestMaxLevels(t *testing.T) {
	s, err := schema.New([]schema.ColumnDef{
		{Name: "req", Type: schema.Int64, Repetition: schema.Required},
		{Name: "opt", Type: schema.Int64, Repetition: schema.Optional},
		{Name: "rep", Type: schema.Int64, Repetition: schema.Repeated},
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.MaxDefinitionLevel(0) != 0 || s.MaxRepetitionLevel(0) != 0 {
		t.Fatalf("required column levels wrong")
	}
	if s.MaxDefinitionLevel(1) != 1 || s.MaxRepetitionLevel(1) != 0 {
		t.Fatalf("optional column levels wrong")
	}
	if s.MaxDefinitionLevel(2) != 1 || s.MaxRepetitionLevel(2) != 1 {
		t.Fatalf("repeated column levels wrong")
	}
}
