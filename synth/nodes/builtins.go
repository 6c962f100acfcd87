package nodes

import "github.com/cwbudde/algo-synth/synth/node"

// RegisterBuiltins adds every built-in node type to reg.
func RegisterBuiltins(reg *node.Registry) {
	reg.MustRegister("oscillator", NewOscillator)
	reg.MustRegister("noise", NewNoise)
	reg.MustRegister("lfo", NewLFO)
	reg.MustRegister("adsr", NewADSR)
	reg.MustRegister("vcf", NewVCF)
	reg.MustRegister("vca", NewVCA)
	reg.MustRegister("mixer", NewMixer)
	reg.MustRegister("delay", NewDelay)
	reg.MustRegister("compressor", NewCompressor)
	reg.MustRegister("ring_modulator", NewRingModulator)
	reg.MustRegister("waveshaper", NewWaveshaper)
	reg.MustRegister("attenuverter", NewAttenuverter)
	reg.MustRegister("multiple", NewMultiple)
	reg.MustRegister("sample_hold", NewSampleHold)
	reg.MustRegister("quantizer", NewQuantizer)
	reg.MustRegister("clock_divider", NewClockDivider)
	reg.MustRegister("sequencer", NewSequencer)
	reg.MustRegister("spectrum_analyzer", NewSpectrumAnalyzer)
	reg.MustRegister("output", NewOutput)
}
