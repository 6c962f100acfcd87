package nodes

import (
	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// RingModulator multiplies a carrier by a modulator with independent
// input gains, a dry/ring mix, and an optional DC blocker on the
// product.
type RingModulator struct {
	*param.Set
	info node.Info

	mix      float64
	carrier  float64
	mod      float64
	dcFilter float64
	active   float64

	mixMod     param.Modulated
	carrierMod param.Modulated
	modMod     param.Modulated

	dcPrevIn  float64
	dcPrevOut float64
}

// NewRingModulator builds a ring modulator node.
func NewRingModulator(name string, _ float64) (node.Node, error) {
	r := &RingModulator{Set: param.NewSet()}

	r.info = node.NewInfo(name, "ring_modulator", node.CategoryProcessor)
	r.info.Description = "Carrier/modulator ring modulation"
	r.info.Inputs = []node.Port{
		node.AudioIn("carrier_in", "carrier signal"),
		node.AudioIn("modulator_in", "modulator signal"),
		node.CV("mix_cv", "dry/ring mix modulation").AsOptional(),
		node.CV("carrier_gain_cv", "carrier gain modulation").AsOptional(),
		node.CV("modulator_gain_cv", "modulator gain modulation").AsOptional(),
	}
	r.info.Outputs = []node.Port{
		node.AudioOut("audio_out", "ring modulated signal"),
		node.AudioOut("modulator_out", "modulator passthrough"),
	}

	mixSpec := param.New("mix", 0, 1, 1)
	carrierSpec := param.New("carrier_gain", 0, 2, 1)
	modSpec := param.New("modulator_gain", 0, 2, 1)

	r.Bind(mixSpec, &r.mix)
	r.Bind(carrierSpec, &r.carrier)
	r.Bind(modSpec, &r.mod)
	r.Bind(param.New("dc_filter", 0, 1, 0.1), &r.dcFilter)
	r.Bind(node.ActiveParam, &r.active)

	r.mixMod = param.NewModulated(mixSpec, 0.5)
	r.carrierMod = param.NewModulated(carrierSpec, 0.5)
	r.modMod = param.NewModulated(modSpec, 0.5)
	return r, nil
}

// Info implements node.Node.
func (r *RingModulator) Info() node.Info { return r.info }

// Reset clears the DC blocker state.
func (r *RingModulator) Reset() {
	r.dcPrevIn = 0
	r.dcPrevOut = 0
}

// Process renders one block. Inactive passes the carrier through.
func (r *RingModulator) Process(ctx *node.Context) error {
	out := ctx.Out.Buffer("audio_out")
	if out == nil {
		return &node.OutputBufferError{Port: "audio_out"}
	}
	modOut := ctx.Out.Buffer("modulator_out")

	if r.active <= 0.5 {
		for i := range out {
			out[i] = ctx.In.Sample("carrier_in", i)
		}
		ctx.Out.Zero("modulator_out")
		return nil
	}

	mix := r.mixMod.Modulate(r.mix, ctx.In.CVValue("mix_cv"))
	carrierGain := r.carrierMod.Modulate(r.carrier, ctx.In.CVValue("carrier_gain_cv"))
	modGain := r.modMod.Modulate(r.mod, ctx.In.CVValue("modulator_gain_cv"))

	// One-pole DC blocker; pole tightens as dc_filter rises.
	blockerR := 1 - 0.05*r.dcFilter

	for i := range out {
		carrier := ctx.In.Sample("carrier_in", i) * carrierGain
		modulator := ctx.In.Sample("modulator_in", i) * modGain
		ring := carrier * modulator

		if r.dcFilter > 0 {
			blocked := ring - r.dcPrevIn + blockerR*r.dcPrevOut
			r.dcPrevIn = ring
			r.dcPrevOut = blocked
			ring = blocked
		}

		out[i] = carrier*(1-mix) + ring*mix
		if modOut != nil {
			modOut[i] = modulator
		}
	}
	return nil
}
