package nodes

import (
	"fmt"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

const multipleOutputs = 4

// Multiple is a buffered signal splitter: one input copied to four
// outputs with a shared gain, optionally inverting every second
// output.
type Multiple struct {
	*param.Set
	info node.Info

	gain            float64
	invertAlternate float64
	active          float64
}

// NewMultiple builds a signal splitter node.
func NewMultiple(name string, _ float64) (node.Node, error) {
	m := &Multiple{Set: param.NewSet()}

	m.info = node.NewInfo(name, "multiple", node.CategoryUtility)
	m.info.Description = "Buffered four-way signal splitter"
	m.info.Inputs = []node.Port{
		node.AudioIn("signal_in", "signal input"),
	}
	for i := 1; i <= multipleOutputs; i++ {
		m.info.Outputs = append(m.info.Outputs,
			node.AudioOut(fmt.Sprintf("out_%d", i), fmt.Sprintf("copy %d", i)))
	}

	m.Bind(param.New("gain", 0, 2, 1), &m.gain)
	m.Bind(param.New("invert_alternate", 0, 1, 0), &m.invertAlternate)
	m.Bind(node.ActiveParam, &m.active)
	return m, nil
}

// Info implements node.Node.
func (m *Multiple) Info() node.Info { return m.info }

// Reset is a no-op; the multiple is stateless.
func (m *Multiple) Reset() {}

// Process copies the input to every output.
func (m *Multiple) Process(ctx *node.Context) error {
	if m.active <= 0.5 {
		for _, port := range m.info.Outputs {
			ctx.Out.Zero(port.Name)
		}
		return nil
	}

	gain := m.gain
	invert := m.invertAlternate > 0.5

	for idx, port := range m.info.Outputs {
		out := ctx.Out.Buffer(port.Name)
		if out == nil {
			return &node.OutputBufferError{Port: port.Name}
		}
		factor := gain
		if invert && idx%2 == 1 {
			factor = -gain
		}
		for i := range out {
			out[i] = ctx.In.Sample("signal_in", i) * factor
		}
	}
	return nil
}
