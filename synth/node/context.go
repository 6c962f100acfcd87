package node

// Context carries everything a node needs to process one block: its
// resolved input buffers, its pre-allocated output buffers, and the
// stream parameters.
type Context struct {
	In         InputBuffers
	Out        OutputBuffers
	SampleRate float64
	BlockSize  int

	// Timestamp is the index of the first sample of this block since
	// the stream started.
	Timestamp uint64

	// BPM is the stream tempo, used by clocked nodes (sequencer,
	// clock divider) when no external clock is patched.
	BPM float64
}

// NewContext returns a context with empty buffer tables.
func NewContext(sampleRate float64, blockSize int) *Context {
	return &Context{
		In:         InputBuffers{bufs: make(map[string][]float64)},
		Out:        OutputBuffers{bufs: make(map[string][]float64)},
		SampleRate: sampleRate,
		BlockSize:  blockSize,
		BPM:        120,
	}
}

// InputBuffers holds the read-only per-port input slices for one block.
// Fan-in is already summed and unconnected ports are absent; readers
// treat absent buffers and short slices as zero.
type InputBuffers struct {
	bufs map[string][]float64
}

// Bind attaches buf as the input for port. A nil buf removes the
// binding.
func (b *InputBuffers) Bind(port string, buf []float64) {
	if b.bufs == nil {
		b.bufs = make(map[string][]float64)
	}
	if buf == nil {
		delete(b.bufs, port)
		return
	}
	b.bufs[port] = buf
}

// Clear removes every binding, keeping the table for reuse.
func (b *InputBuffers) Clear() {
	for port := range b.bufs {
		delete(b.bufs, port)
	}
}

// Buffer returns the bound slice for port, or nil when unconnected.
// Callers must not write through the returned slice.
func (b *InputBuffers) Buffer(port string) []float64 {
	return b.bufs[port]
}

// Connected reports whether port has a bound buffer.
func (b *InputBuffers) Connected(port string) bool {
	_, ok := b.bufs[port]
	return ok
}

// Sample returns the i-th sample of port, reading zero for unconnected
// ports and for indices past the end of a short buffer.
func (b *InputBuffers) Sample(port string, i int) float64 {
	buf := b.bufs[port]
	if i < 0 || i >= len(buf) {
		return 0
	}
	return buf[i]
}

// CVValue reads the first sample of port as a per-block scalar, the
// convention for nodes that only need one control value per block.
func (b *InputBuffers) CVValue(port string) float64 {
	buf := b.bufs[port]
	if len(buf) == 0 {
		return 0
	}
	return buf[0]
}

// OutputBuffers holds the block-sized output slices a node fills in
// place.
type OutputBuffers struct {
	bufs map[string][]float64
}

// Bind attaches a pre-allocated slice as the output buffer for port.
func (b *OutputBuffers) Bind(port string, buf []float64) {
	if b.bufs == nil {
		b.bufs = make(map[string][]float64)
	}
	b.bufs[port] = buf
}

// Clear removes every binding, keeping the table for reuse.
func (b *OutputBuffers) Clear() {
	for port := range b.bufs {
		delete(b.bufs, port)
	}
}

// Buffer returns the writable slice for port, or nil when the port was
// not allocated.
func (b *OutputBuffers) Buffer(port string) []float64 {
	return b.bufs[port]
}

// Fill sets every sample of port to value.
func (b *OutputBuffers) Fill(port string, value float64) {
	buf := b.bufs[port]
	for i := range buf {
		buf[i] = value
	}
}

// Zero clears the named port buffer.
func (b *OutputBuffers) Zero(port string) {
	b.Fill(port, 0)
}
