package engine

import "math"

// fallbackTone is the audible placeholder the audio path emits when it
// cannot take the engine locks without blocking. A quiet steady sine is
// deliberately recognizable: silence would hide the contention, noise
// would be alarming. Phase carries over between consecutive fallback
// blocks so sustained contention sounds as one continuous tone.
type fallbackTone struct {
	frequency float64
	amplitude float64
	phase     float64
}

func (f *fallbackTone) render(dst []float32, sampleRate float64) {
	inc := 2 * math.Pi * f.frequency / sampleRate
	for i := range dst {
		dst[i] = float32(math.Sin(f.phase) * f.amplitude)
		f.phase += inc
		if f.phase >= 2*math.Pi {
			f.phase -= 2 * math.Pi
		}
	}
}
