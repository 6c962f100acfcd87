package nodes

import (
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// LFO is a low-frequency oscillator producing bipolar or unipolar CV.
// Waveform 4 is sample-and-hold random, updated once per cycle. A
// rising edge on sync_in restarts the cycle; end_of_cycle pulses high
// for the first sample after each wrap.
type LFO struct {
	*param.Set
	info node.Info

	frequency   float64
	amplitude   float64
	waveform    float64
	phaseOffset float64
	pulseWidth  float64
	bipolar     float64
	active      float64

	freqMod param.Modulated
	ampMod  param.Modulated

	phase       float64
	randomValue float64
	syncWasHigh bool
	rng         *rand.Rand
	sampleRate  float64
}

// NewLFO builds an LFO node.
func NewLFO(name string, sampleRate float64) (node.Node, error) {
	l := &LFO{
		Set:         param.NewSet(),
		sampleRate:  sampleRate,
		randomValue: 0.5,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}

	l.info = node.NewInfo(name, "lfo", node.CategoryController)
	l.info.Description = "Low frequency oscillator for CV modulation"
	l.info.Inputs = []node.Port{
		node.CV("frequency_cv", "rate modulation"),
		node.CV("amplitude_cv", "depth modulation"),
		node.CV("phase_offset_cv", "phase offset modulation").AsOptional(),
		node.CV("sync_in", "cycle restart trigger").AsOptional(),
		node.CV("waveform_cv", "waveform selection").AsOptional(),
	}
	l.info.Outputs = []node.Port{
		node.CV("cv_out", "modulation output"),
		node.CV("inverted_out", "inverted modulation output"),
		node.CV("end_of_cycle", "pulse at each cycle wrap"),
	}

	freqSpec := param.New("frequency", 0.01, 20, 1).WithUnit("Hz")
	ampSpec := param.New("amplitude", 0, 1, 1)

	l.Bind(freqSpec, &l.frequency)
	l.Bind(ampSpec, &l.amplitude)
	l.Bind(param.New("waveform", 0, 4, 0), &l.waveform)
	l.Bind(param.New("phase_offset", 0, 1, 0), &l.phaseOffset)
	l.Bind(param.New("pulse_width", 0.1, 0.9, 0.5), &l.pulseWidth)
	l.Bind(param.New("bipolar", 0, 1, 1), &l.bipolar)
	l.Bind(node.ActiveParam, &l.active)

	l.freqMod = param.NewModulated(freqSpec, 1).WithCurve(param.CurveExponential)
	l.ampMod = param.NewModulated(ampSpec, 0.5)
	return l, nil
}

// Info implements node.Node.
func (l *LFO) Info() node.Info { return l.info }

// Reset restarts the cycle.
func (l *LFO) Reset() {
	l.phase = 0
	l.randomValue = 0.5
	l.syncWasHigh = false
}

// Process renders one block of CV.
func (l *LFO) Process(ctx *node.Context) error {
	if l.active <= 0.5 {
		ctx.Out.Zero("cv_out")
		ctx.Out.Zero("inverted_out")
		ctx.Out.Zero("end_of_cycle")
		return nil
	}

	frequency := l.freqMod.Modulate(l.frequency, ctx.In.CVValue("frequency_cv"))
	amplitude := l.ampMod.Modulate(l.amplitude, ctx.In.CVValue("amplitude_cv"))
	offset := clampf(l.phaseOffset+ctx.In.CVValue("phase_offset_cv"), 0, 1)
	if cv := ctx.In.CVValue("waveform_cv"); cv != 0 {
		l.waveform = clampf(cv, 0, 4)
	}
	waveform := int(l.waveform)

	out := ctx.Out.Buffer("cv_out")
	inverted := ctx.Out.Buffer("inverted_out")
	eoc := ctx.Out.Buffer("end_of_cycle")
	if out == nil {
		return &node.OutputBufferError{Port: "cv_out"}
	}

	inc := frequency / l.sampleRate
	for i := range out {
		if sync := ctx.In.Sample("sync_in", i); sync > 0.5 {
			if !l.syncWasHigh {
				l.phase = 0
				l.randomValue = l.rng.Float64()*2 - 1
			}
			l.syncWasHigh = true
		} else {
			l.syncWasHigh = false
		}

		wrapped := false
		l.phase += inc
		if l.phase >= 1 {
			l.phase -= math.Floor(l.phase)
			wrapped = true
			l.randomValue = l.rng.Float64()*2 - 1
		}

		value := l.shape(waveform, math.Mod(l.phase+offset, 1))
		if l.bipolar <= 0.5 {
			value = (value + 1) / 2
		}
		value *= amplitude

		out[i] = value
		if inverted != nil {
			inverted[i] = -value
		}
		if eoc != nil {
			if wrapped {
				eoc[i] = 1
			} else {
				eoc[i] = 0
			}
		}
	}
	return nil
}

// shape evaluates the waveform at a normalized phase in [0, 1),
// returning a bipolar value.
func (l *LFO) shape(waveform int, phase float64) float64 {
	switch waveform {
	case 4:
		return l.randomValue
	case wavePulse:
		if phase < l.pulseWidth {
			return 1
		}
		return -1
	default:
		return waveSample(waveform, phase*2*math.Pi, l.pulseWidth)
	}
}
