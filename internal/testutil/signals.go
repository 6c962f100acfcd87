// Package testutil provides deterministic test signals and tolerance
// helpers shared by the synth package tests.
package testutil

import (
	"math"
	"math/rand"
)

// Sine generates a deterministic sine wave starting at phase zero.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// Noise generates seeded white noise for reproducible runs.
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Ramp generates a linear ramp from 0 toward 1, exclusive of the end.
func Ramp(length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = float64(i) / float64(length)
	}
	return out
}

// Gate generates a signal holding level over [start, start+width) and
// zero elsewhere.
func Gate(length, start, width int, level float64) []float64 {
	out := make([]float64, length)
	for i := start; i < start+width && i < length; i++ {
		if i >= 0 {
			out[i] = level
		}
	}
	return out
}

// ClockPulses generates single-sample pulses of the given level every
// period samples, starting at sample zero. A period below one yields
// silence.
func ClockPulses(length, period int, level float64) []float64 {
	out := make([]float64, length)
	if period < 1 {
		return out
	}
	for i := 0; i < length; i += period {
		out[i] = level
	}
	return out
}
