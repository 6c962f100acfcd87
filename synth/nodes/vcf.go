package nodes

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/moog"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// Filter type indices.
const (
	filterLowpass = iota
	filterHighpass
	filterBandpass
)

// VCF is a voltage controlled filter built on a nonlinear Moog ladder.
// The ladder itself is lowpass; highpass is derived by subtracting the
// lowpass from the dry signal, bandpass by differencing two ladders an
// octave apart below the cutoff.
type VCF struct {
	*param.Set
	info node.Info

	cutoff     float64
	resonance  float64
	filterType float64
	active     float64

	cutoffMod    param.Modulated
	resonanceMod param.Modulated

	ladder  *moog.Filter
	ladder2 *moog.Filter

	appliedCutoff    float64
	appliedResonance float64
	sampleRate       float64
}

// NewVCF builds a filter node.
func NewVCF(name string, sampleRate float64) (node.Node, error) {
	ladder, err := moog.New(sampleRate, moog.WithCutoffHz(1000))
	if err != nil {
		return nil, fmt.Errorf("vcf ladder: %w", err)
	}
	ladder2, err := moog.New(sampleRate, moog.WithCutoffHz(1000))
	if err != nil {
		return nil, fmt.Errorf("vcf ladder: %w", err)
	}

	f := &VCF{
		Set:        param.NewSet(),
		ladder:     ladder,
		ladder2:    ladder2,
		sampleRate: sampleRate,
	}

	f.info = node.NewInfo(name, "vcf", node.CategoryProcessor)
	f.info.Description = "Voltage controlled Moog ladder filter"
	f.info.Inputs = []node.Port{
		node.AudioIn("audio_in", "signal input"),
		node.CV("cutoff_cv", "1V/oct cutoff control"),
		node.CV("resonance_cv", "resonance modulation"),
		node.CV("type_cv", "filter type selection").AsOptional(),
	}
	f.info.Outputs = []node.Port{
		node.AudioOut("audio_out", "filtered signal"),
	}

	cutoffSpec := param.New("cutoff_frequency", 20, 20000, 1000).WithUnit("Hz")
	resonanceSpec := param.New("resonance", 0.1, 10, 1)

	f.Bind(cutoffSpec, &f.cutoff)
	f.Bind(resonanceSpec, &f.resonance)
	f.Bind(param.New("filter_type", 0, 2, 0), &f.filterType)
	f.Bind(node.ActiveParam, &f.active)

	f.cutoffMod = param.NewModulated(cutoffSpec, 1).WithCurve(param.CurveExponential)
	f.resonanceMod = param.NewModulated(resonanceSpec, 0.5)
	return f, nil
}

// Info implements node.Node.
func (f *VCF) Info() node.Info { return f.info }

// Reset clears the ladder state.
func (f *VCF) Reset() {
	f.ladder.Reset()
	f.ladder2.Reset()
}

// Process filters one block. Inactive passes the dry signal through.
func (f *VCF) Process(ctx *node.Context) error {
	out := ctx.Out.Buffer("audio_out")
	if out == nil {
		return &node.OutputBufferError{Port: "audio_out"}
	}
	in := ctx.In.Buffer("audio_in")

	if f.active <= 0.5 {
		for i := range out {
			out[i] = ctx.In.Sample("audio_in", i)
		}
		return nil
	}
	if in == nil {
		ctx.Out.Zero("audio_out")
		return nil
	}

	cutoff := f.cutoffMod.Modulate(f.cutoff, ctx.In.CVValue("cutoff_cv"))
	resonance := f.resonanceMod.Modulate(f.resonance, ctx.In.CVValue("resonance_cv"))
	if cv := ctx.In.CVValue("type_cv"); cv != 0 {
		f.filterType = clampf(cv*3, 0, 2)
	}

	if err := f.retune(cutoff, resonance); err != nil {
		return fmt.Errorf("vcf retune: %w", err)
	}

	switch int(f.filterType) {
	case filterHighpass:
		f.ladder.ProcessTo(out, in)
		for i := range out {
			out[i] = in[i] - out[i]
		}
	case filterBandpass:
		f.ladder.ProcessTo(out, in)
		for i := range out {
			out[i] -= f.ladder2.ProcessSample(in[i])
		}
	default:
		f.ladder.ProcessTo(out, in)
	}
	return nil
}

// retune pushes cutoff and resonance into the ladders, skipping the
// coefficient rebuild when nothing moved.
func (f *VCF) retune(cutoff, resonance float64) error {
	if cutoff == f.appliedCutoff && resonance == f.appliedResonance {
		return nil
	}
	f.appliedCutoff = cutoff
	f.appliedResonance = resonance

	// The ladder accepts resonance in [0, 4]; the panel range is the
	// original 0.1..10 Q scale.
	ladderRes := (resonance - 0.1) / 9.9 * 4
	ladderRes = clampf(ladderRes, 0, 4)

	lower := math.Max(cutoff/2, 20)

	if err := f.ladder.SetCutoffHz(cutoff); err != nil {
		return err
	}
	if err := f.ladder.SetResonance(ladderRes); err != nil {
		return err
	}
	if err := f.ladder2.SetCutoffHz(lower); err != nil {
		return err
	}
	return f.ladder2.SetResonance(ladderRes)
}
