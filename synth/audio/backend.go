// Package audio connects a block renderer to a platform playback
// backend. The default backend is oto; build with the portaudio tag to
// use PortAudio instead, or with the headless tag for a silent clock
// that keeps rendering without a sound device.
package audio

import (
	"encoding/binary"
	"log/slog"
	"math"
)

// Renderer produces successive blocks of mono float32 samples. The
// engine satisfies this interface.
type Renderer interface {
	RenderBlock(dst []float32)
	SampleRate() float64
	BlockSize() int
}

// Output drives a Renderer from a platform audio stream.
type Output interface {
	Start() error
	Stop() error
	Close() error
}

// Open returns the playback output selected at build time.
func Open(r Renderer, log *slog.Logger) (Output, error) {
	if log == nil {
		log = slog.Default()
	}
	return newOutput(r, log)
}

// blockReader adapts a Renderer to io.Reader, streaming rendered
// blocks as little-endian float32 bytes. Byte-oriented backends pull
// from this; the block boundary is preserved across short reads.
type blockReader struct {
	renderer Renderer
	block    []float32
	pos      int
}

func newBlockReader(r Renderer) *blockReader {
	block := make([]float32, r.BlockSize())
	return &blockReader{
		renderer: r,
		block:    block,
		// Start exhausted so the first Read renders a fresh block.
		pos: len(block),
	}
}

// Read fills p with as many whole samples as fit. It never returns an
// error; the stream is endless.
func (b *blockReader) Read(p []byte) (int, error) {
	n := 0
	for n+4 <= len(p) {
		if b.pos >= len(b.block) {
			b.renderer.RenderBlock(b.block)
			b.pos = 0
		}
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(b.block[b.pos]))
		b.pos++
		n += 4
	}
	return n, nil
}
