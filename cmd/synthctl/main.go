// Command synthctl is the command line front end of the synthesizer:
// it lists node types, validates and plays patch files, and runs a
// built-in demo patch.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-synth/synth/audio"
	"github.com/cwbudde/algo-synth/synth/engine"
	"github.com/cwbudde/algo-synth/synth/graph"
	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/nodes"
	"github.com/cwbudde/algo-synth/synth/patch"
	"github.com/cwbudde/algo-synth/synth/plugin"
)

var (
	flagSampleRate float64
	flagBlockSize  int
	flagPlugins    string
	flagVerbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "synthctl",
		Short:         "Modular synthesizer control tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Float64Var(&flagSampleRate, "sample-rate", 48000, "stream sample rate in Hz")
	root.PersistentFlags().IntVar(&flagBlockSize, "block-size", 256, "samples per processing block")
	root.PersistentFlags().StringVar(&flagPlugins, "plugins", "", "directory of Lua plugin packs")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(typesCmd(), checkCmd(), playCmd(), demoCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "synthctl:", err)
		os.Exit(1)
	}
}

func logger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildRegistry assembles built-ins plus any plugin node types.
func buildRegistry(log *slog.Logger) (*node.Registry, error) {
	reg := node.NewRegistry()
	nodes.RegisterBuiltins(reg)
	if flagPlugins != "" {
		if err := plugin.LoadAndRegister(reg, log, flagPlugins); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func buildEngine(log *slog.Logger) (*engine.Engine, error) {
	reg, err := buildRegistry(log)
	if err != nil {
		return nil, err
	}
	eng := engine.New(reg,
		engine.WithSampleRate(flagSampleRate),
		engine.WithBlockSize(flagBlockSize),
		engine.WithLogger(log),
	)
	return eng, nil
}

func typesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List available node types",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := buildRegistry(logger())
			if err != nil {
				return err
			}
			for _, t := range reg.Types() {
				n, err := reg.Create(t, t, flagSampleRate)
				if err != nil {
					return err
				}
				fmt.Printf("%-20s %-12s %s\n", t, n.Info().Category, n.Info().Description)
			}
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <patch.json>",
		Short: "Validate a patch file without playing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(logger())
			if err != nil {
				return err
			}
			if err := patch.LoadFile(eng, args[0]); err != nil {
				return fmt.Errorf("patch %s: %w", args[0], err)
			}
			fmt.Printf("%s: ok (%d nodes, %d connections)\n",
				args[0], len(eng.Nodes()), len(eng.Connections()))
			return nil
		},
	}
}

func playCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <patch.json>",
		Short: "Play a patch until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()
			eng, err := buildEngine(log)
			if err != nil {
				return err
			}
			if err := patch.LoadFile(eng, args[0]); err != nil {
				return fmt.Errorf("patch %s: %w", args[0], err)
			}
			return run(eng, log)
		},
	}
}

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Play a built-in 440 Hz patch",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()
			eng, err := buildEngine(log)
			if err != nil {
				return err
			}
			if err := buildDemoPatch(eng); err != nil {
				return err
			}
			return run(eng, log)
		},
	}
}

// buildDemoPatch wires an oscillator straight into an output node.
func buildDemoPatch(eng *engine.Engine) error {
	osc, err := eng.CreateNode("oscillator", "demo_osc")
	if err != nil {
		return err
	}
	out, err := eng.CreateNode("output", "demo_out")
	if err != nil {
		return err
	}
	if err := eng.SetParameter(osc, "frequency", 440); err != nil {
		return err
	}
	if err := eng.SetParameter(osc, "amplitude", 0.3); err != nil {
		return err
	}
	return eng.Connect(graph.Connection{
		SourceNode: osc,
		SourcePort: "audio_out",
		TargetNode: out,
		TargetPort: "audio_in_l",
	})
}

// run starts the audio stream and blocks until SIGINT or SIGTERM.
func run(eng *engine.Engine, log *slog.Logger) error {
	out, err := audio.Open(eng, log)
	if err != nil {
		return err
	}
	defer out.Close()

	eng.Start()
	if err := out.Start(); err != nil {
		return err
	}
	log.Info("playing", "sample_rate", eng.SampleRate(), "block_size", eng.BlockSize())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("stopping")
	if err := out.Stop(); err != nil {
		return err
	}
	eng.Stop()
	return nil
}
