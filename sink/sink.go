// Package sink implements the background log sink worker spec.md §4.9
// describes: a producer-facing, lock-free, non-blocking TryRecord and a
// single drainer goroutine that accumulates records into row groups and
// invokes the Parquet writer, joined on Shutdown.
package sink

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quantfeed/pqwriter"
	"github.com/quantfeed/pqwriter/accumulate"
	"github.com/quantfeed/pqwriter/ring"
	"github.com/quantfeed/pqwriter/schema"
)

// State is the worker's lifecycle state (spec.md §4.9:
// Created -> Running -> Stopping -> Stopped).
type State int32

const (
	Created State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ErrAlreadyStarted is returned by Start when the worker is not in the
// Created state.
var ErrAlreadyStarted = fmt.Errorf("sink: worker already started")

const defaultQueueCapacity = 1024
const defaultMaxPayloadBytes = 4096
const defaultIdleTimeout = 100 * time.Millisecond

// Option configures a Worker at construction time.
type Option func(*config)

type config struct {
	queueCapacity   int
	maxPayloadBytes int
	rowGroupRows    int
	idleTimeout     time.Duration
	drainBatch      int
}

// WithQueueCapacity sets the ring buffer's capacity (rounded up to a
// power of two by ring.New).
func WithQueueCapacity(n int) Option { return func(c *config) { c.queueCapacity = n } }

// WithMaxPayloadBytes sets the largest payload TryRecord accepts; larger
// payloads are dropped.
func WithMaxPayloadBytes(n int) Option { return func(c *config) { c.maxPayloadBytes = n } }

// WithIdleTimeout sets how long the drainer waits on an empty ring before
// flushing a partial row group, per spec.md §4.9's "configurable idle
// timeout".
func WithIdleTimeout(d time.Duration) Option { return func(c *config) { c.idleTimeout = d } }

// WithDrainBatch sets the maximum number of records drained from the ring
// in one pass.
func WithDrainBatch(n int) Option { return func(c *config) { c.drainBatch = n } }

type record struct {
	n   int
	buf []byte
}

// Worker drains a ring buffer into row-group-sized batches and writes them
// through a *pqwriter.Writer. Exactly one producer goroutine may call
// TryRecord and exactly one drainer goroutine (spawned by Start) serves
// it; Worker itself is the only synchronization boundary between them
// (spec.md §5).
type Worker struct {
	writer *pqwriter.Writer
	layout *accumulate.Layout
	acc    *accumulate.Accumulator
	ring   *ring.Ring[record]
	cfg    config

	state atomic.Int32
	wake  chan struct{}
	stop  chan struct{}
	done  chan struct{}

	dropped atomic.Uint64

	errMu sync.Mutex
	err   error
}

// New constructs a Worker writing through w, using s to derive the
// fixed-record layout accumulate.NewLayout expects.
func New(w *pqwriter.Writer, s *schema.Schema, rowGroupRows int, opts ...Option) (*Worker, error) {
	if rowGroupRows <= 0 {
		return nil, fmt.Errorf("sink: row_group_rows must be positive, got %d", rowGroupRows)
	}
	layout, err := accumulate.NewLayout(s)
	if err != nil {
		return nil, fmt.Errorf("sink: %w", err)
	}

	cfg := config{
		queueCapacity:   defaultQueueCapacity,
		maxPayloadBytes: defaultMaxPayloadBytes,
		idleTimeout:     defaultIdleTimeout,
		drainBatch:      256,
	}
	cfg.rowGroupRows = rowGroupRows
	for _, opt := range opts {
		opt(&cfg)
	}

	r := ring.New[record](cfg.queueCapacity)
	r.Init(func(i int, slot *record) {
		slot.buf = make([]byte, cfg.maxPayloadBytes)
	})

	wk := &Worker{
		writer: w,
		layout: layout,
		acc:    accumulate.New(layout),
		ring:   r,
		cfg:    cfg,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	return wk, nil
}

// Start spawns the drainer goroutine and transitions to Running.
func (wk *Worker) Start() error {
	if !wk.state.CompareAndSwap(int32(Created), int32(Running)) {
		return ErrAlreadyStarted
	}
	go wk.run()
	return nil
}

// TryRecord copies payload into the ring for the drainer to pick up.
// Never blocks, never allocates, never takes a lock (spec.md §4.9); a
// full ring or an oversized/empty payload is counted as a drop and
// returns false.
func (wk *Worker) TryRecord(payload []byte) bool {
	if len(payload) == 0 || len(payload) > wk.cfg.maxPayloadBytes {
		wk.dropped.Add(1)
		return false
	}

	ok := wk.ring.TryPushInPlace(func(slot *record) bool {
		slot.n = copy(slot.buf, payload)
		return true
	})
	if !ok {
		wk.dropped.Add(1)
		return false
	}

	select {
	case wk.wake <- struct{}{}:
	default:
	}
	return true
}

// DroppedCount returns the monotonic count of records dropped since
// construction.
func (wk *Worker) DroppedCount() uint64 { return wk.dropped.Load() }

// State returns the worker's current lifecycle state.
func (wk *Worker) State() State { return State(wk.state.Load()) }

// Shutdown signals the drainer to stop, waits for it to join, and
// returns the first error any writer call encountered, if any (spec.md
// §4.9). Shutdown is idempotent.
func (wk *Worker) Shutdown() error {
	if wk.state.CompareAndSwap(int32(Running), int32(Stopping)) {
		close(wk.stop)
	}
	<-wk.done
	wk.state.Store(int32(Stopped))

	wk.errMu.Lock()
	defer wk.errMu.Unlock()
	return wk.err
}

func (wk *Worker) recordError(err error) {
	wk.errMu.Lock()
	defer wk.errMu.Unlock()
	if wk.err == nil {
		wk.err = err
	}
}

func (wk *Worker) hasError() bool {
	wk.errMu.Lock()
	defer wk.errMu.Unlock()
	return wk.err != nil
}

func (wk *Worker) run() {
	defer close(wk.done)

	buf := make([]record, wk.cfg.drainBatch)
	idle := time.NewTimer(wk.cfg.idleTimeout)
	defer idle.Stop()

	for {
		n := wk.ring.Drain(buf, len(buf))
		for i := 0; i < n; i++ {
			wk.appendOrDiscard(buf[i].buf[:buf[i].n])
		}
		if n > 0 {
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(wk.cfg.idleTimeout)
			continue
		}

		select {
		case <-wk.stop:
			wk.flushFinal()
			return
		case <-wk.wake:
			continue
		case <-idle.C:
			wk.flushPartial()
			idle.Reset(wk.cfg.idleTimeout)
		}
	}
}

func (wk *Worker) appendOrDiscard(payload []byte) {
	if wk.hasError() {
		return
	}
	if err := wk.acc.Append(payload); err != nil {
		wk.recordError(fmt.Errorf("sink: %w", err))
		return
	}
	if wk.acc.RowCount() >= wk.cfg.rowGroupRows {
		wk.flushRowGroup(wk.cfg.rowGroupRows)
	}
}

// flushRowGroup writes exactly n accumulated rows as one row group. Used
// for full-size flushes; flushPartial/flushFinal pass the accumulator's
// entire residual row count instead.
func (wk *Worker) flushRowGroup(n int) {
	if n == 0 || wk.hasError() {
		wk.acc.Reset()
		return
	}
	columns, levels := buildColumnData(wk.layout, wk.acc)
	if err := wk.writer.WriteRowGroup(columns, levels); err != nil {
		wk.recordError(fmt.Errorf("sink: %w", err))
	}
	wk.acc.Reset()
}

// flushPartial emits any residual rows after the idle timeout, per
// spec.md §4.9.
func (wk *Worker) flushPartial() {
	if wk.acc.RowCount() == 0 {
		return
	}
	wk.flushRowGroup(wk.acc.RowCount())
}

// flushFinal drains any remaining ring contents, flushes residual rows,
// and closes the writer, guaranteeing no record accepted before Shutdown
// is lost (spec.md §4.9/§5).
func (wk *Worker) flushFinal() {
	buf := make([]record, wk.cfg.drainBatch)
	for {
		n := wk.ring.Drain(buf, len(buf))
		if n == 0 {
			break
		}
		for i := 0; i < n; i++ {
			wk.appendOrDiscard(buf[i].buf[:buf[i].n])
		}
	}
	if wk.acc.RowCount() > 0 {
		wk.flushRowGroup(wk.acc.RowCount())
	}
	if err := wk.writer.Close(); err != nil {
		wk.recordError(fmt.Errorf("sink: %w", err))
	}
}
