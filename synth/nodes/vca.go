package nodes

import (
	"math"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// VCA is a voltage controlled amplifier with linear or exponential CV
// response and tanh soft clipping above unity.
type VCA struct {
	*param.Set
	info node.Info

	gain          float64
	cvSensitivity float64
	response      float64
	active        float64

	gainMod param.Modulated
	sensMod param.Modulated
}

// NewVCA builds an amplifier node.
func NewVCA(name string, _ float64) (node.Node, error) {
	v := &VCA{Set: param.NewSet()}

	v.info = node.NewInfo(name, "vca", node.CategoryProcessor)
	v.info.Description = "Voltage controlled amplifier"
	v.info.Inputs = []node.Port{
		node.AudioIn("audio_in", "signal input"),
		node.CV("gain_cv", "gain control voltage"),
		node.CV("cv_cv", "CV sensitivity modulation").AsOptional(),
		node.CV("response_cv", "response curve selection").AsOptional(),
	}
	v.info.Outputs = []node.Port{
		node.AudioOut("audio_out", "amplified signal"),
		node.CV("gain_cv_out", "applied gain level"),
	}

	gainSpec := param.New("gain", 0, 2, 1)
	sensSpec := param.New("cv_sensitivity", 0, 2, 1)

	v.Bind(gainSpec, &v.gain)
	v.Bind(sensSpec, &v.cvSensitivity)
	v.Bind(param.New("response", 0, 1, 0), &v.response)
	v.Bind(node.ActiveParam, &v.active)

	v.gainMod = param.NewModulated(gainSpec, 1)
	v.sensMod = param.NewModulated(sensSpec, 0.5)
	return v, nil
}

// Info implements node.Node.
func (v *VCA) Info() node.Info { return v.info }

// Reset is a no-op; the VCA is stateless.
func (v *VCA) Reset() {}

// Process amplifies one block.
func (v *VCA) Process(ctx *node.Context) error {
	out := ctx.Out.Buffer("audio_out")
	if out == nil {
		return &node.OutputBufferError{Port: "audio_out"}
	}

	if v.active <= 0.5 || !ctx.In.Connected("audio_in") {
		ctx.Out.Zero("audio_out")
		ctx.Out.Zero("gain_cv_out")
		return nil
	}

	gainCV := ctx.In.CVValue("gain_cv")
	gain := v.gainMod.Modulate(v.gain, gainCV)
	sensitivity := v.sensMod.Modulate(v.cvSensitivity, ctx.In.CVValue("cv_cv"))

	response := v.response
	if cv := ctx.In.CVValue("response_cv"); cv != 0 {
		response = clampf(cv, 0, 1)
	}

	cvGain := v.cvGain(gainCV, sensitivity, response > 0.5)

	for i := range out {
		amplified := ctx.In.Sample("audio_in", i) * gain * cvGain
		if math.Abs(amplified) > 1 {
			amplified = math.Copysign(math.Tanh(math.Abs(amplified)), amplified)
		}
		out[i] = amplified
	}

	ctx.Out.Fill("gain_cv_out", clampf(gain*cvGain, 0, 10))
	return nil
}

// cvGain maps a 0..10V control voltage to a gain factor. Linear spans
// 0..2x across the range; exponential reaches unity at 5V and 4x at
// 10V.
func (v *VCA) cvGain(cv, sensitivity float64, exponential bool) float64 {
	if cv == 0 {
		return 1
	}
	normalized := clampf(cv, 0, 10) / 10 * sensitivity
	if !exponential {
		return normalized * 2
	}
	if normalized <= 0.5 {
		return normalized * 2
	}
	return (normalized-0.5)*6 + 1
}
