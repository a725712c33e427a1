package sink_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/quantfeed/pqwriter"
	"github.com/quantfeed/pqwriter/schema"
	"github.com/quantfeed/pqwriter/sink"
)

func mustSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New([]schema.ColumnDef{
		{Name: "price", Type: schema.Int64, Repetition: schema.Required},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func encodeInt64(v int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	return buf
}

func TestSinkWritesExactRowGroups(t *testing.T) {
	s := mustSchema(t)
	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s)
	if err != nil {
		t.Fatal(err)
	}

	wk, err := sink.New(w, s, 4, sink.WithIdleTimeout(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := wk.Start(); err != nil {
		t.Fatal(err)
	}

	for i := int64(0); i < 10; i++ {
		if !wk.TryRecord(encodeInt64(i)) {
			t.Fatalf("record %d unexpectedly dropped", i)
		}
	}

	if err := wk.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if wk.DroppedCount() != 0 {
		t.Fatalf("expected no drops, got %d", wk.DroppedCount())
	}
	if len(buf.Bytes()) == 0 {
		t.Fatal("expected a non-empty file")
	}
}

func TestSinkDropsOversizedPayload(t *testing.T) {
	s := mustSchema(t)
	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s)
	if err != nil {
		t.Fatal(err)
	}

	wk, err := sink.New(w, s, 4, sink.WithMaxPayloadBytes(4))
	if err != nil {
		t.Fatal(err)
	}
	if err := wk.Start(); err != nil {
		t.Fatal(err)
	}

	if wk.TryRecord(encodeInt64(1)) {
		t.Fatal("expected an 8-byte record to be rejected under a 4-byte payload limit")
	}
	if wk.DroppedCount() != 1 {
		t.Fatalf("got %d dropped, want 1", wk.DroppedCount())
	}
	if err := wk.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestSinkStartTwiceFails(t *testing.T) {
	s := mustSchema(t)
	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s)
	if err != nil {
		t.Fatal(err)
	}
	wk, err := sink.New(w, s, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := wk.Start(); err != nil {
		t.Fatal(err)
	}
	if err := wk.Start(); !errors.Is(err, sink.ErrAlreadyStarted) {
		t.Fatalf("got %v, want ErrAlreadyStarted", err)
	}
	if err := wk.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestSinkShutdownIsIdempotent(t *testing.T) {
	s := mustSchema(t)
	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s)
	if err != nil {
		t.Fatal(err)
	}
	wk, err := sink.New(w, s, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := wk.Start(); err != nil {
		t.Fatal(err)
	}
	wk.TryRecord(encodeInt64(1))
	if err := wk.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := wk.Shutdown(); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
	if wk.State() != sink.Stopped {
		t.Fatalf("got state %v, want Stopped", wk.State())
	}
}

func TestSinkFlushesPartialRowGroupOnIdle(t *testing.T) {
	s := mustSchema(t)
	var buf bytes.Buffer
	w, err := pqwriter.Open(&buf, s)
	if err != nil {
		t.Fatal(err)
	}
	wk, err := sink.New(w, s, 100, sink.WithIdleTimeout(5*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := wk.Start(); err != nil {
		t.Fatal(err)
	}

	wk.TryRecord(encodeInt64(42))
	time.Sleep(50 * time.Millisecond) // give the idle timer time to fire a partial flush

	if err := wk.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if len(buf.Bytes()) == 0 {
		t.Fatal("expected a non-empty file from the idle-triggered partial flush")
	}
}
