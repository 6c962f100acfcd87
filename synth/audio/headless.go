//go:build headless

package audio

import (
	"log/slog"
	"sync"
	"time"
)

// headlessOutput discards the rendered audio but keeps pulling blocks
// at real-time pace, so clocked nodes and meters behave as they would
// with a sound device.
type headlessOutput struct {
	renderer Renderer
	log      *slog.Logger

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

func newOutput(r Renderer, log *slog.Logger) (Output, error) {
	log.Info("audio output ready",
		"backend", "headless",
		"sample_rate", int(r.SampleRate()),
		"block_size", r.BlockSize())
	return &headlessOutput{renderer: r, log: log}, nil
}

func (h *headlessOutput) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return nil
	}

	interval := time.Duration(float64(h.renderer.BlockSize()) / h.renderer.SampleRate() * float64(time.Second))
	if interval <= 0 {
		interval = time.Millisecond
	}

	h.stop = make(chan struct{})
	h.done = make(chan struct{})
	h.running = true

	go func(stop, done chan struct{}) {
		defer close(done)
		block := make([]float32, h.renderer.BlockSize())
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				h.renderer.RenderBlock(block)
			}
		}
	}(h.stop, h.done)
	return nil
}

func (h *headlessOutput) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return nil
	}
	close(h.stop)
	<-h.done
	h.running = false
	return nil
}

func (h *headlessOutput) Close() error {
	return h.Stop()
}
