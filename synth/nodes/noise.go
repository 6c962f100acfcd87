package nodes

import (
	"math/rand/v2"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// Noise type indices.
const (
	noiseWhite = iota
	noisePink
	noiseBrown
	noiseBlue
)

// Noise generates white, pink, brown, or blue noise. Pink noise uses
// Paul Kellet's seven-pole approximation; brown integrates white noise
// with clamping; blue differentiates it.
type Noise struct {
	*param.Set
	info node.Info

	noiseType float64
	amplitude float64
	active    float64

	ampMod param.Modulated

	rng        *rand.Rand
	pinkState  [7]float64
	brownState float64
	blueState  float64
}

// NewNoise builds a noise generator node.
func NewNoise(name string, _ float64) (node.Node, error) {
	n := &Noise{
		Set: param.NewSet(),
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}

	n.info = node.NewInfo(name, "noise", node.CategoryGenerator)
	n.info.Description = "Multi-color noise generator"
	n.info.Inputs = []node.Port{
		node.CV("amplitude_cv", "amplitude modulation"),
		node.CV("type_cv", "noise color selection").AsOptional(),
	}
	n.info.Outputs = []node.Port{
		node.AudioOut("audio_out", "noise output"),
	}

	ampSpec := param.New("amplitude", 0, 1, 0.5)
	n.Bind(param.New("noise_type", 0, 3, 0), &n.noiseType)
	n.Bind(ampSpec, &n.amplitude)
	n.Bind(node.ActiveParam, &n.active)

	n.ampMod = param.NewModulated(ampSpec, 0.5)
	return n, nil
}

// Info implements node.Node.
func (n *Noise) Info() node.Info { return n.info }

// Reset clears the color filter state. The random stream continues.
func (n *Noise) Reset() {
	n.pinkState = [7]float64{}
	n.brownState = 0
	n.blueState = 0
}

// Process fills audio_out with one block of noise.
func (n *Noise) Process(ctx *node.Context) error {
	if n.active <= 0.5 {
		ctx.Out.Zero("audio_out")
		return nil
	}

	amplitude := n.ampMod.Modulate(n.amplitude, ctx.In.CVValue("amplitude_cv"))
	if cv := ctx.In.CVValue("type_cv"); cv != 0 {
		n.noiseType = clampf(cv*4, 0, 3)
	}
	noiseType := int(n.noiseType)

	out := ctx.Out.Buffer("audio_out")
	if out == nil {
		return &node.OutputBufferError{Port: "audio_out"}
	}
	for i := range out {
		out[i] = n.sample(noiseType) * amplitude
	}
	return nil
}

func (n *Noise) sample(noiseType int) float64 {
	white := n.rng.Float64()*2 - 1
	switch noiseType {
	case noisePink:
		s := &n.pinkState
		s[0] = 0.99886*s[0] + white*0.0555179
		s[1] = 0.99332*s[1] + white*0.0750759
		s[2] = 0.96900*s[2] + white*0.1538520
		s[3] = 0.86650*s[3] + white*0.3104856
		s[4] = 0.55000*s[4] + white*0.5329522
		s[5] = -0.7616*s[5] - white*0.0168980
		pink := s[0] + s[1] + s[2] + s[3] + s[4] + s[5] + s[6] + white*0.5362
		s[6] = white * 0.115926
		return pink * 0.5
	case noiseBrown:
		n.brownState = clampf(n.brownState+white*0.1, -1, 1)
		return n.brownState
	case noiseBlue:
		blue := white - n.blueState*0.8
		n.blueState = white
		return blue * 0.8
	default:
		return white
	}
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
