package nodes

import (
	"fmt"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

const mixerChannels = 4

// Mixer sums four input channels with per-channel gain into one mix
// bus under a CV-controllable master gain.
type Mixer struct {
	*param.Set
	info node.Info

	gains      [mixerChannels]float64
	masterGain float64
	active     float64

	masterMod param.Modulated
	ports     [mixerChannels]string
}

// NewMixer builds a mixer node.
func NewMixer(name string, _ float64) (node.Node, error) {
	m := &Mixer{Set: param.NewSet()}

	m.info = node.NewInfo(name, "mixer", node.CategoryMixing)
	m.info.Description = "Four-channel summing mixer"
	for i := 1; i <= mixerChannels; i++ {
		m.ports[i-1] = fmt.Sprintf("in_%d", i)
		m.info.Inputs = append(m.info.Inputs,
			node.AudioIn(m.ports[i-1], fmt.Sprintf("channel %d", i)).AsOptional())
	}
	m.info.Inputs = append(m.info.Inputs,
		node.CV("master_gain_cv", "master gain modulation").AsOptional())
	m.info.Outputs = []node.Port{
		node.AudioOut("mix_out", "summed output"),
	}

	for i := range m.gains {
		m.Bind(param.New(fmt.Sprintf("gain_%d", i+1), 0, 2, 1), &m.gains[i])
	}
	masterSpec := param.New("master_gain", 0, 2, 1)
	m.Bind(masterSpec, &m.masterGain)
	m.Bind(node.ActiveParam, &m.active)

	m.masterMod = param.NewModulated(masterSpec, 0.5)
	return m, nil
}

// Info implements node.Node.
func (m *Mixer) Info() node.Info { return m.info }

// Reset is a no-op; the mixer is stateless.
func (m *Mixer) Reset() {}

// Process sums one block.
func (m *Mixer) Process(ctx *node.Context) error {
	out := ctx.Out.Buffer("mix_out")
	if out == nil {
		return &node.OutputBufferError{Port: "mix_out"}
	}

	if m.active <= 0.5 {
		ctx.Out.Zero("mix_out")
		return nil
	}

	master := m.masterMod.Modulate(m.masterGain, ctx.In.CVValue("master_gain_cv"))

	for ch := 0; ch < mixerChannels; ch++ {
		port := m.ports[ch]
		if !ctx.In.Connected(port) {
			continue
		}
		gain := m.gains[ch]
		for i := range out {
			out[i] += ctx.In.Sample(port, i) * gain
		}
	}

	for i := range out {
		out[i] *= master
	}
	return nil
}
