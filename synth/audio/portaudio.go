//go:build portaudio

package audio

import (
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

// paOutput plays the rendered stream through PortAudio using a
// callback stream sized to the renderer's block.
type paOutput struct {
	stream *portaudio.Stream
	log    *slog.Logger
}

func newOutput(r Renderer, log *slog.Logger) (Output, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize portaudio: %w", err)
	}

	p := &paOutput{log: log}
	stream, err := portaudio.OpenDefaultStream(
		0, 1,
		r.SampleRate(), r.BlockSize(),
		func(out []float32) { r.RenderBlock(out) },
	)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("audio: open portaudio stream: %w", err)
	}
	p.stream = stream

	log.Info("audio output ready",
		"backend", "portaudio",
		"sample_rate", int(r.SampleRate()),
		"block_size", r.BlockSize())
	return p, nil
}

func (p *paOutput) Start() error {
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("audio: start portaudio stream: %w", err)
	}
	return nil
}

func (p *paOutput) Stop() error {
	if err := p.stream.Stop(); err != nil {
		return fmt.Errorf("audio: stop portaudio stream: %w", err)
	}
	return nil
}

func (p *paOutput) Close() error {
	err := p.stream.Close()
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	if err != nil {
		return fmt.Errorf("audio: close portaudio stream: %w", err)
	}
	return nil
}
