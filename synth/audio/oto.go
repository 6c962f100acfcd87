//go:build !headless && !portaudio

package audio

import (
	"fmt"
	"log/slog"

	"github.com/ebitengine/oto/v3"
)

// otoOutput plays the rendered stream through oto. The player pulls
// bytes from a blockReader on its own goroutine.
type otoOutput struct {
	ctx    *oto.Context
	player *oto.Player
	log    *slog.Logger
}

func newOutput(r Renderer, log *slog.Logger) (Output, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   int(r.SampleRate()),
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("audio: open oto context: %w", err)
	}
	<-ready

	o := &otoOutput{
		ctx: ctx,
		log: log,
	}
	o.player = ctx.NewPlayer(newBlockReader(r))

	log.Info("audio output ready",
		"backend", "oto",
		"sample_rate", int(r.SampleRate()),
		"block_size", r.BlockSize())
	return o, nil
}

func (o *otoOutput) Start() error {
	o.player.Play()
	return nil
}

func (o *otoOutput) Stop() error {
	o.player.Pause()
	return nil
}

func (o *otoOutput) Close() error {
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("audio: close oto player: %w", err)
	}
	return nil
}
