package nodes

import (
	"math"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// Waveform indices shared by the oscillator and the LFO.
const (
	waveSine = iota
	waveTriangle
	waveSawtooth
	wavePulse
)

// waveSample evaluates one waveform at the given phase (radians).
// Pulse width only affects the pulse shape.
func waveSample(waveform int, phase, pulseWidth float64) float64 {
	switch waveform {
	case waveTriangle:
		normalized := phase / (2 * math.Pi)
		if normalized < 0.5 {
			return 4*normalized - 1
		}
		return 3 - 4*normalized
	case waveSawtooth:
		return 2*(phase/(2*math.Pi)) - 1
	case wavePulse:
		if phase/(2*math.Pi) < pulseWidth {
			return 1
		}
		return -1
	default:
		return math.Sin(phase)
	}
}

// Oscillator is a multi-waveform voltage controlled oscillator with
// exponential 1V/oct frequency modulation.
type Oscillator struct {
	*param.Set
	info node.Info

	frequency  float64
	amplitude  float64
	waveform   float64
	pulseWidth float64
	active     float64

	freqMod param.Modulated
	ampMod  param.Modulated
	pwMod   param.Modulated

	phase      float64
	sampleRate float64
}

// NewOscillator builds an oscillator node.
func NewOscillator(name string, sampleRate float64) (node.Node, error) {
	o := &Oscillator{Set: param.NewSet(), sampleRate: sampleRate}

	o.info = node.NewInfo(name, "oscillator", node.CategoryGenerator)
	o.info.Description = "Multi-waveform voltage controlled oscillator with CV modulation"
	o.info.Inputs = []node.Port{
		node.CV("frequency_cv", "1V/oct frequency control"),
		node.CV("amplitude_cv", "amplitude modulation"),
		node.CV("waveform_cv", "waveform selection").AsOptional(),
		node.CV("pulse_width_cv", "pulse width modulation").AsOptional(),
	}
	o.info.Outputs = []node.Port{
		node.AudioOut("audio_out", "audio output signal"),
	}

	freqSpec := param.New("frequency", 20, 20000, 440).WithUnit("Hz")
	ampSpec := param.New("amplitude", 0, 1, 0.5)
	pwSpec := param.New("pulse_width", 0.1, 0.9, 0.5)

	o.Bind(freqSpec, &o.frequency)
	o.Bind(ampSpec, &o.amplitude)
	o.Bind(param.New("waveform", 0, 3, 0), &o.waveform)
	o.Bind(pwSpec, &o.pulseWidth)
	o.Bind(node.ActiveParam, &o.active)

	o.freqMod = param.NewModulated(freqSpec, 1).WithCurve(param.CurveExponential)
	o.ampMod = param.NewModulated(ampSpec, 0.5)
	o.pwMod = param.NewModulated(pwSpec, 0.4)

	return o, nil
}

// Info implements node.Node.
func (o *Oscillator) Info() node.Info { return o.info }

// Reset clears the oscillator phase.
func (o *Oscillator) Reset() { o.phase = 0 }

// Process renders one block of the selected waveform.
func (o *Oscillator) Process(ctx *node.Context) error {
	if o.active <= 0.5 {
		ctx.Out.Zero("audio_out")
		return nil
	}

	frequency := o.freqMod.Modulate(o.frequency, ctx.In.CVValue("frequency_cv"))
	amplitude := o.ampMod.Modulate(o.amplitude, ctx.In.CVValue("amplitude_cv"))
	pulseWidth := o.pwMod.Modulate(o.pulseWidth, ctx.In.CVValue("pulse_width_cv"))

	if cv := ctx.In.CVValue("waveform_cv"); cv != 0 {
		o.waveform = math.Min(math.Max(cv*4, 0), 3)
	}
	waveform := int(o.waveform)

	out := ctx.Out.Buffer("audio_out")
	if out == nil {
		return &node.OutputBufferError{Port: "audio_out"}
	}

	inc := 2 * math.Pi * frequency / o.sampleRate
	for i := range out {
		phase := o.phase + inc*float64(i)
		phase = math.Mod(phase, 2*math.Pi)
		out[i] = waveSample(waveform, phase, pulseWidth) * amplitude
	}

	o.phase += inc * float64(len(out))
	o.phase = math.Mod(o.phase, 2*math.Pi)
	return nil
}
