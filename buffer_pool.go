package pqwriter

import "sync"

// scratchBuffer is a reusable []byte the page builder and compressors grow
// into; callers reset it to length 0 before reuse instead of reallocating
// (spec.md §9: "implementations SHOULD reuse scratch buffers across pages
// and row groups").
type scratchBuffer struct {
	data []byte
}

func (b *scratchBuffer) reset() []byte {
	b.data = b.data[:0]
	return b.data
}

// scratchPool hands out scratchBuffer values backed by sync.Pool, the same
// pooling strategy the teacher's BufferPool type uses for page buffers,
// scaled down to this module's sequential, write-only access pattern (no
// io.ReadWriteSeeker or on-disk spill pool: row groups are always encoded
// fully into memory before being handed to the sink, per spec.md §4.6).
type scratchPool struct {
	pool sync.Pool
}

func newScratchPool() *scratchPool {
	return &scratchPool{
		pool: sync.Pool{New: func() any { return new(scratchBuffer) }},
	}
}

func (p *scratchPool) get() *scratchBuffer {
	b := p.pool.Get().(*scratchBuffer)
	b.reset()
	return b
}

func (p *scratchPool) put(b *scratchBuffer) {
	p.pool.Put(b)
}
