package buffer

import (
	"github.com/google/uuid"
)

// Key identifies one port-bound block buffer: the owning node plus the
// port name. Output and input buffers live in separate tables, so the
// same (node, port) pair never collides across directions.
type Key struct {
	Node uuid.UUID
	Port string
}

// Table owns reusable audio block buffers keyed by node and port.
// Buffers are allocated on first acquisition and reused for every
// following block, so a table that has seen the full topology once
// stops allocating entirely. Dropping a node releases its buffers.
//
// Table is not safe for concurrent use; the engine acquires buffers
// only from the audio path while holding its locks.
type Table struct {
	blockSize int
	bufs      map[Key][]float64
}

// NewTable returns a table handing out buffers of blockSize samples.
func NewTable(blockSize int) *Table {
	if blockSize < 1 {
		blockSize = 1
	}
	return &Table{
		blockSize: blockSize,
		bufs:      make(map[Key][]float64),
	}
}

// BlockSize returns the sample count of buffers handed out.
func (t *Table) BlockSize() int {
	return t.blockSize
}

// Acquire returns the zeroed buffer for the given node and port,
// allocating it on first use and reusing it afterwards.
func (t *Table) Acquire(node uuid.UUID, port string) []float64 {
	key := Key{Node: node, Port: port}
	buf, ok := t.bufs[key]
	if !ok || cap(buf) < t.blockSize {
		buf = make([]float64, t.blockSize)
		t.bufs[key] = buf
		return buf
	}
	buf = buf[:t.blockSize]
	for i := range buf {
		buf[i] = 0
	}
	t.bufs[key] = buf
	return buf
}

// Peek returns the buffer for the given node and port as written by the
// last Acquire, without zeroing. The second result reports whether the
// buffer exists.
func (t *Table) Peek(node uuid.UUID, port string) ([]float64, bool) {
	buf, ok := t.bufs[Key{Node: node, Port: port}]
	return buf, ok
}

// DropNode releases every buffer owned by the given node.
func (t *Table) DropNode(node uuid.UUID) {
	for key := range t.bufs {
		if key.Node == node {
			delete(t.bufs, key)
		}
	}
}

// SetBlockSize changes the block size and discards all buffers. The
// next block rebuilds them at the new length.
func (t *Table) SetBlockSize(blockSize int) {
	if blockSize < 1 {
		blockSize = 1
	}
	t.blockSize = blockSize
	t.bufs = make(map[Key][]float64)
}

// Reset discards all buffers while keeping the block size.
func (t *Table) Reset() {
	t.bufs = make(map[Key][]float64)
}

// Len returns the number of live buffers.
func (t *Table) Len() int {
	return len(t.bufs)
}
