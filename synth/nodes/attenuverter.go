package nodes

import (
	"math"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// Attenuverter scales a signal by a bipolar attenuation factor and
// adds a DC offset. Negative attenuation inverts. The inverted_out tap
// carries the negated result, scaled_out the result before offset.
type Attenuverter struct {
	*param.Set
	info node.Info

	attenuation float64
	offset      float64
	scale       float64
	response    float64
	active      float64

	attenuationMod param.Modulated
	offsetMod      param.Modulated
}

// NewAttenuverter builds an attenuverter node.
func NewAttenuverter(name string, _ float64) (node.Node, error) {
	a := &Attenuverter{Set: param.NewSet()}

	a.info = node.NewInfo(name, "attenuverter", node.CategoryUtility)
	a.info.Description = "Bipolar attenuation with offset"
	a.info.Inputs = []node.Port{
		node.AudioIn("signal_in", "signal input"),
		node.CV("attenuation_cv", "attenuation modulation").AsOptional(),
		node.CV("offset_cv", "offset modulation").AsOptional(),
	}
	a.info.Outputs = []node.Port{
		node.AudioOut("signal_out", "attenuverted signal"),
		node.AudioOut("inverted_out", "negated signal"),
		node.AudioOut("scaled_out", "signal before offset"),
	}

	attenuationSpec := param.New("attenuation", -2, 2, 1)
	offsetSpec := param.New("offset", -10, 10, 0)

	a.Bind(attenuationSpec, &a.attenuation)
	a.Bind(offsetSpec, &a.offset)
	a.Bind(param.New("scale", 0, 2, 1), &a.scale)
	a.Bind(param.New("response_curve", 0, 1, 0), &a.response)
	a.Bind(node.ActiveParam, &a.active)

	a.attenuationMod = param.NewModulated(attenuationSpec, 0.5)
	a.offsetMod = param.NewModulated(offsetSpec, 0.5)
	return a, nil
}

// Info implements node.Node.
func (a *Attenuverter) Info() node.Info { return a.info }

// Reset is a no-op; the attenuverter is stateless.
func (a *Attenuverter) Reset() {}

// Process renders one block. Inactive passes the signal through.
func (a *Attenuverter) Process(ctx *node.Context) error {
	out := ctx.Out.Buffer("signal_out")
	if out == nil {
		return &node.OutputBufferError{Port: "signal_out"}
	}
	inverted := ctx.Out.Buffer("inverted_out")
	scaled := ctx.Out.Buffer("scaled_out")

	if a.active <= 0.5 {
		for i := range out {
			out[i] = ctx.In.Sample("signal_in", i)
		}
		ctx.Out.Zero("inverted_out")
		ctx.Out.Zero("scaled_out")
		return nil
	}

	attenuation := a.attenuationMod.Modulate(a.attenuation, ctx.In.CVValue("attenuation_cv"))
	offset := a.offsetMod.Modulate(a.offset, ctx.In.CVValue("offset_cv"))

	// Response shapes the attenuation magnitude: 0 is linear, 1 bends
	// toward a squared (audio taper) response.
	magnitude := math.Abs(attenuation)
	shaped := magnitude*(1-a.response) + magnitude*magnitude/2*a.response
	factor := math.Copysign(shaped, attenuation) * a.scale

	for i := range out {
		value := ctx.In.Sample("signal_in", i) * factor
		out[i] = value + offset
		if inverted != nil {
			inverted[i] = -(value + offset)
		}
		if scaled != nil {
			scaled[i] = value
		}
	}
	return nil
}
