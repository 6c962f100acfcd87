package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

// rampRenderer emits an incrementing counter so block boundaries are
// visible in the byte stream.
type rampRenderer struct {
	next float32
}

func (r *rampRenderer) RenderBlock(dst []float32) {
	for i := range dst {
		dst[i] = r.next
		r.next++
	}
}

func (r *rampRenderer) SampleRate() float64 { return 48000 }
func (r *rampRenderer) BlockSize() int      { return 8 }

func decodeSamples(t *testing.T, p []byte) []float32 {
	t.Helper()
	if len(p)%4 != 0 {
		t.Fatalf("byte count %d is not sample aligned", len(p))
	}
	out := make([]float32, len(p)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[4*i:]))
	}
	return out
}

func TestBlockReaderStreamsWholeBlocks(t *testing.T) {
	b := newBlockReader(&rampRenderer{})

	p := make([]byte, 8*4)
	n, err := b.Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != len(p) {
		t.Fatalf("Read returned %d bytes, want %d", n, len(p))
	}

	for i, v := range decodeSamples(t, p) {
		if v != float32(i) {
			t.Fatalf("sample %d = %v, want %v", i, v, float32(i))
		}
	}
}

func TestBlockReaderSpansBlockBoundary(t *testing.T) {
	b := newBlockReader(&rampRenderer{})

	// 12 samples cross the 8-sample block boundary; the counter must
	// not skip or repeat.
	p := make([]byte, 12*4)
	if _, err := b.Read(p); err != nil {
		t.Fatalf("Read: %v", err)
	}
	for i, v := range decodeSamples(t, p) {
		if v != float32(i) {
			t.Fatalf("sample %d = %v, want %v", i, v, float32(i))
		}
	}

	// The next read resumes mid-block.
	p = make([]byte, 4*4)
	if _, err := b.Read(p); err != nil {
		t.Fatalf("Read: %v", err)
	}
	for i, v := range decodeSamples(t, p) {
		if v != float32(12+i) {
			t.Fatalf("resumed sample %d = %v, want %v", i, v, float32(12+i))
		}
	}
}

func TestBlockReaderPartialSampleRequest(t *testing.T) {
	b := newBlockReader(&rampRenderer{})

	// A request shorter than one sample transfers nothing.
	p := make([]byte, 3)
	n, err := b.Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 0 {
		t.Fatalf("Read returned %d bytes for a 3-byte buffer, want 0", n)
	}
}
