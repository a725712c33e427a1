// Package ring implements the lock-free single-producer/single-consumer
// ring buffer spec.md §4.7 describes: wait-free TryPush/TryPop/Drain over
// a fixed power-of-two capacity, with head and tail counters isolated on
// their own cache lines to avoid false sharing between the producer and
// consumer threads.
package ring

import "sync/atomic"

// cacheLinePad is sized to avoid false sharing on the common 64-byte
// cache line; the exact value only needs to be "large enough", not
// architecture-exact.
const cacheLinePad = 64

// Ring is a fixed-capacity SPSC ring buffer of T. The zero value is not
// usable; construct with New. A Ring must be used by exactly one producer
// goroutine (TryPush) and exactly one consumer goroutine (TryPop/Drain) at
// a time, per spec.md §4.7/§5.
type Ring[T any] struct {
	head atomic.Uint64
	_    [cacheLinePad - 8]byte

	tail atomic.Uint64
	_    [cacheLinePad - 8]byte

	mask uint64
	buf  []T
}

// New constructs a Ring with the smallest power-of-two capacity >= size
// (minimum 2). Storage is allocated once here and never grows, per
// spec.md §3's "Ring buffer storage is allocated once at sink construction
// and freed at teardown."
func New[T any](size int) *Ring[T] {
	capacity := nextPowerOfTwo(size)
	return &Ring[T]{
		mask: uint64(capacity - 1),
		buf:  make([]T, capacity),
	}
}

func nextPowerOfTwo(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Cap returns the ring's fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// TryPush writes item to the next slot and returns true, or returns false
// without writing if the ring is full. Wait-free; called only by the
// producer.
func (r *Ring[T]) TryPush(item T) bool {
	h := r.head.Load()
	t := r.tail.Load()
	if h-t >= uint64(len(r.buf)) {
		return false
	}
	r.buf[h&r.mask] = item
	r.head.Store(h + 1)
	return true
}

// TryPushInPlace offers write a pointer to the next slot's existing,
// preallocated storage instead of assigning a caller-constructed T, so a
// producer can fill a slot without allocating a new T each call. write
// reports whether the slot was actually filled (e.g. a producer may
// reject on its own validation); TryPushInPlace only advances head when
// write returns true. Wait-free; called only by the producer.
func (r *Ring[T]) TryPushInPlace(write func(slot *T) bool) bool {
	h := r.head.Load()
	t := r.tail.Load()
	if h-t >= uint64(len(r.buf)) {
		return false
	}
	if !write(&r.buf[h&r.mask]) {
		return false
	}
	r.head.Store(h + 1)
	return true
}

// Init lets the caller initialize every slot's storage once, before any
// TryPush/TryPop call, so TryPushInPlace callers (e.g. a record type
// holding a preallocated []byte) never need to allocate per push. Calling
// Init concurrently with Push/Pop is undefined.
func (r *Ring[T]) Init(fn func(i int, slot *T)) {
	for i := range r.buf {
		fn(i, &r.buf[i])
	}
}

// TryPop reads and removes the oldest item, returning ok=false if the ring
// is empty. Wait-free; called only by the consumer.
func (r *Ring[T]) TryPop() (item T, ok bool) {
	t := r.tail.Load()
	h := r.head.Load()
	if t == h {
		return item, false
	}
	item = r.buf[t&r.mask]
	r.tail.Store(t + 1)
	return item, true
}

// Drain reads up to len(out) items (or max, whichever is smaller) into out
// in a single pass, with one final release store of the new tail
// (spec.md §4.7), and returns the number of items read.
func (r *Ring[T]) Drain(out []T, max int) int {
	if max < len(out) {
		out = out[:max]
	}
	t := r.tail.Load()
	h := r.head.Load()
	avail := int(h - t)
	n := len(out)
	if avail < n {
		n = avail
	}
	for i := 0; i < n; i++ {
		out[i] = r.buf[(t+uint64(i))&r.mask]
	}
	if n > 0 {
		r.tail.Store(t + uint64(n))
	}
	return n
}

// Len returns the number of unread items. Observational only: the result
// may be stale by the time the caller acts on it.
func (r *Ring[T]) Len() int {
	h := r.head.Load()
	t := r.tail.Load()
	return int(h - t)
}
