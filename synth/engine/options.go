package engine

import "log/slog"

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithSampleRate sets the stream sample rate in Hz. Values below 1 are
// ignored.
func WithSampleRate(rate float64) Option {
	return func(e *Engine) {
		if rate >= 1 {
			e.sampleRate = rate
		}
	}
}

// WithBlockSize sets the number of samples rendered per block. Values
// below 1 are ignored.
func WithBlockSize(size int) Option {
	return func(e *Engine) {
		if size >= 1 {
			e.blockSize = size
		}
	}
}

// WithBPM sets the initial stream tempo used by clocked nodes.
func WithBPM(bpm float64) Option {
	return func(e *Engine) {
		if bpm > 0 {
			e.bpm = bpm
		}
	}
}

// WithLogger sets the structured logger for processing diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithFallbackTone overrides the tone emitted when the audio path loses
// the lock race against a control mutation. frequency is in Hz,
// amplitude in [0, 1].
func WithFallbackTone(frequency, amplitude float64) Option {
	return func(e *Engine) {
		if frequency > 0 {
			e.fallback.frequency = frequency
		}
		if amplitude >= 0 && amplitude <= 1 {
			e.fallback.amplitude = amplitude
		}
	}
}
