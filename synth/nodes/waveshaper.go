package nodes

import (
	"math"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// Waveshaper shape type indices.
const (
	shapeTanh = iota
	shapeArcTan
	shapeSine
	shapeCubic
	shapeHardClip
	shapeSoftClip
	shapeTube
	shapeAsymmetric
)

// Waveshaper applies one of eight nonlinear transfer curves with
// drive, bias, tone filtering, and output gain compensation.
type Waveshaper struct {
	*param.Set
	info node.Info

	drive       float64
	shapeType   float64
	shapeAmount float64
	bias        float64
	outputGain  float64
	tone        float64
	active      float64

	driveMod  param.Modulated
	amountMod param.Modulated
	biasMod   param.Modulated
	gainMod   param.Modulated

	filterState float64
}

// NewWaveshaper builds a waveshaper node.
func NewWaveshaper(name string, _ float64) (node.Node, error) {
	w := &Waveshaper{Set: param.NewSet()}

	w.info = node.NewInfo(name, "waveshaper", node.CategoryProcessor)
	w.info.Description = "Multi-curve waveshaping distortion"
	w.info.Inputs = []node.Port{
		node.AudioIn("audio_in", "signal input"),
		node.CV("drive_cv", "drive modulation").AsOptional(),
		node.CV("shape_amount_cv", "shaping intensity modulation").AsOptional(),
		node.CV("bias_cv", "bias modulation").AsOptional(),
		node.CV("output_gain_cv", "output gain modulation").AsOptional(),
		node.CV("shape_type_cv", "curve selection").AsOptional(),
	}
	w.info.Outputs = []node.Port{
		node.AudioOut("audio_out", "shaped signal"),
	}

	driveSpec := param.New("drive", 0.1, 10, 1)
	amountSpec := param.New("shape_amount", 0, 1, 0.5)
	biasSpec := param.New("bias", -1, 1, 0)
	gainSpec := param.New("output_gain", 0.1, 2, 1)

	w.Bind(driveSpec, &w.drive)
	w.Bind(param.New("shape_type", 0, 7, 0), &w.shapeType)
	w.Bind(amountSpec, &w.shapeAmount)
	w.Bind(biasSpec, &w.bias)
	w.Bind(gainSpec, &w.outputGain)
	w.Bind(param.New("tone", 0, 1, 0.5), &w.tone)
	w.Bind(node.ActiveParam, &w.active)

	w.driveMod = param.NewModulated(driveSpec, 0.5)
	w.amountMod = param.NewModulated(amountSpec, 0.5)
	w.biasMod = param.NewModulated(biasSpec, 0.5)
	w.gainMod = param.NewModulated(gainSpec, 0.5)
	return w, nil
}

// Info implements node.Node.
func (w *Waveshaper) Info() node.Info { return w.info }

// Reset clears the tone filter state.
func (w *Waveshaper) Reset() { w.filterState = 0 }

// Process shapes one block. Inactive passes the dry signal through.
func (w *Waveshaper) Process(ctx *node.Context) error {
	out := ctx.Out.Buffer("audio_out")
	if out == nil {
		return &node.OutputBufferError{Port: "audio_out"}
	}

	if w.active <= 0.5 {
		for i := range out {
			out[i] = ctx.In.Sample("audio_in", i)
		}
		return nil
	}

	drive := w.driveMod.Modulate(w.drive, ctx.In.CVValue("drive_cv"))
	amount := w.amountMod.Modulate(w.shapeAmount, ctx.In.CVValue("shape_amount_cv"))
	bias := w.biasMod.Modulate(w.bias, ctx.In.CVValue("bias_cv"))
	gain := w.gainMod.Modulate(w.outputGain, ctx.In.CVValue("output_gain_cv"))
	if cv := ctx.In.CVValue("shape_type_cv"); cv != 0 {
		w.shapeType = clampf(cv*8, 0, 7)
	}
	shapeType := int(w.shapeType)

	for i := range out {
		driven := ctx.In.Sample("audio_in", i) * drive
		shaped := shapeSampleCurve(shapeType, driven, amount, bias)
		toned := w.toneFilter(shaped)
		out[i] = clampf(toned*gain, -1, 1)
	}
	return nil
}

// shapeSampleCurve applies one transfer curve to a driven sample. Bias
// shifts the operating point; every curve except the asymmetric one
// removes the bias offset afterwards.
func shapeSampleCurve(shapeType int, input, amount, bias float64) float64 {
	x := input + bias

	var shaped float64
	switch shapeType {
	case shapeArcTan:
		shaped = math.Atan(x*(1+amount*3)) * (2 / math.Pi)
	case shapeSine:
		driven := x * (1 + amount*2)
		if math.Abs(driven) > 1 {
			shaped = math.Copysign(1, driven)
		} else {
			shaped = driven + amount*math.Sin(driven*math.Pi)*0.3
		}
	case shapeCubic:
		c := clampf(x, -1, 1)
		cubic := c - c*c*c/3
		shaped = x + amount*(cubic-x)
	case shapeHardClip:
		threshold := 1 - amount*0.8
		shaped = clampf(x, -threshold, threshold)
	case shapeSoftClip:
		threshold := 1 - amount*0.6
		if math.Abs(x) <= threshold {
			shaped = x
		} else {
			overshoot := math.Abs(x) - threshold
			shaped = math.Copysign(threshold+overshoot/(1+overshoot), x)
		}
	case shapeTube:
		driven := x * (1 + amount*2)
		shaped = driven/(1+math.Pow(math.Abs(driven), 0.7)) + amount*driven*driven*0.1
	case shapeAsymmetric:
		if x >= 0 {
			return math.Pow(x, 1+amount*2)
		}
		return -math.Pow(-x, 1+amount*0.5)
	default:
		shaped = math.Tanh(x * (1 + amount*4))
	}

	return shaped - bias
}

// toneFilter blends a one-pole lowpass against the dry shaped signal;
// 0 is dark, 0.5 neutral, 1 adds a brightness boost.
func (w *Waveshaper) toneFilter(input float64) float64 {
	cutoff := 0.1 + w.tone*0.8
	w.filterState += (input - w.filterState) * cutoff

	mix := w.tone * 2
	if mix <= 1 {
		return w.filterState*(1-mix) + input*mix
	}
	return input + (input-w.filterState)*(mix-1)*0.3
}
