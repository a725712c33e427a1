// Command pqdemo is an end-to-end demonstration of the producer -> sink
// -> Parquet file path spec.md §1 motivates: a single goroutine standing
// in for a latency-sensitive order-feed producer pushes fixed-size order
// records into a sink.Worker, which drains them in the background and
// writes row groups to disk without ever blocking the producer.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/quantfeed/pqwriter"
	"github.com/quantfeed/pqwriter/accumulate"
	"github.com/quantfeed/pqwriter/format"
	"github.com/quantfeed/pqwriter/schema"
	"github.com/quantfeed/pqwriter/sink"
)

func main() {
	outPath := flag.String("out", "orders.parquet", "output Parquet file")
	orderCount := flag.Int("orders", 10000, "number of synthetic orders to produce")
	rowGroupRows := flag.Int("row-group-rows", 1000, "rows per row group")
	flag.Parse()

	if err := run(*outPath, *orderCount, *rowGroupRows); err != nil {
		fmt.Fprintf(os.Stderr, "pqdemo: %v\n", err)
		os.Exit(1)
	}
}

// orderSchema mirrors a minimal market order: a UUID identifying the
// order, a side flag, the instrument's price and quantity, and a
// nanosecond exchange timestamp.
func orderSchema() (*schema.Schema, error) {
	return schema.New([]schema.ColumnDef{
		{Name: "order_id", Type: schema.FixedLenByteArray, Repetition: schema.Required, TypeLength: 16, Logical: schema.LogicalUUID},
		{Name: "side", Type: schema.Int32, Repetition: schema.Required},
		{Name: "price", Type: schema.Double, Repetition: schema.Required},
		{Name: "quantity", Type: schema.Int64, Repetition: schema.Required},
		{Name: "exchange_time_ns", Type: schema.Int64, Repetition: schema.Required},
	})
}

const recordSize = 16 + 4 + 8 + 8 + 8

func encodeOrder(buf []byte, id uuid.UUID, side int32, price float64, quantity int64, exchangeTimeNs int64) {
	copy(buf[0:16], id[:])
	binary.LittleEndian.PutUint32(buf[16:20], uint32(side))
	binary.LittleEndian.PutUint64(buf[20:28], math.Float64bits(price))
	binary.LittleEndian.PutUint64(buf[28:36], uint64(quantity))
	binary.LittleEndian.PutUint64(buf[36:44], uint64(exchangeTimeNs))
}

func run(outPath string, orderCount, rowGroupRows int) error {
	s, err := orderSchema()
	if err != nil {
		return fmt.Errorf("building schema: %w", err)
	}

	// Sanity check against accumulate's fixed-record layout so a drift
	// between orderSchema and encodeOrder is caught before any row is
	// pushed, rather than surfacing as a silent misread later.
	layout, err := accumulate.NewLayout(s)
	if err != nil {
		return fmt.Errorf("deriving record layout: %w", err)
	}
	if layout.RecordSize != recordSize {
		return fmt.Errorf("record layout drifted: schema wants %d bytes, encodeOrder writes %d", layout.RecordSize, recordSize)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	w, err := pqwriter.Open(f, s, pqwriter.WithCompression(format.Zstd))
	if err != nil {
		return fmt.Errorf("opening writer: %w", err)
	}

	worker, err := sink.New(w, s, rowGroupRows, sink.WithQueueCapacity(4096), sink.WithMaxPayloadBytes(recordSize))
	if err != nil {
		return fmt.Errorf("constructing sink: %w", err)
	}
	if err := worker.Start(); err != nil {
		return fmt.Errorf("starting sink: %w", err)
	}

	produce(worker, orderCount)

	if err := worker.Shutdown(); err != nil {
		return fmt.Errorf("sink reported a write error: %w", err)
	}
	fmt.Printf("wrote %d orders (%d dropped) to %s\n", orderCount, worker.DroppedCount(), outPath)
	return nil
}

// produce stands in for the latency-sensitive producer thread spec.md §1
// describes: it never blocks on the sink, accepting TryRecord's
// best-effort contract.
func produce(worker *sink.Worker, orderCount int) {
	buf := make([]byte, recordSize)
	base := time.Now().UnixNano()
	for i := 0; i < orderCount; i++ {
		side := int32(i % 2)
		price := 100.0 + float64(i%500)*0.01
		quantity := int64(1 + i%250)
		encodeOrder(buf, uuid.New(), side, price, quantity, base+int64(i))
		worker.TryRecord(buf)
	}
}
