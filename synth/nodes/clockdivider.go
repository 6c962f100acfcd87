package nodes

import (
	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

var dividerRatios = [6]int{1, 2, 4, 8, 16, 32}

// ClockDivider counts rising edges on clock_in and emits divided
// clocks on div_1 through div_32. A rising edge on reset_in restarts
// the count so every division realigns to the next clock edge.
type ClockDivider struct {
	*param.Set
	info node.Info

	threshold  float64
	gateLength float64
	active     float64

	thresholdMod param.Modulated

	count        int
	clockWasHigh bool
	resetWasHigh bool
	gateRemain   [6]int
	clockRemain  int
	sampleRate   float64
}

// NewClockDivider builds a clock divider node.
func NewClockDivider(name string, sampleRate float64) (node.Node, error) {
	c := &ClockDivider{Set: param.NewSet(), sampleRate: sampleRate}

	c.info = node.NewInfo(name, "clock_divider", node.CategoryUtility)
	c.info.Description = "Binary clock divider with reset"
	c.info.Inputs = []node.Port{
		node.CV("clock_in", "clock signal"),
		node.CV("reset_in", "count reset").AsOptional(),
		node.CV("threshold_cv", "trigger threshold modulation").AsOptional(),
	}
	c.info.Outputs = []node.Port{
		node.CV("clock_out", "clock passthrough"),
		node.CV("div_1", "every pulse"),
		node.CV("div_2", "every 2nd pulse"),
		node.CV("div_4", "every 4th pulse"),
		node.CV("div_8", "every 8th pulse"),
		node.CV("div_16", "every 16th pulse"),
		node.CV("div_32", "every 32nd pulse"),
	}

	thresholdSpec := param.New("trigger_threshold", 0.1, 5, 1)
	c.Bind(thresholdSpec, &c.threshold)
	c.Bind(param.New("gate_length", 0.001, 1, 0.05).WithUnit("s"), &c.gateLength)
	c.Bind(node.ActiveParam, &c.active)

	c.thresholdMod = param.NewModulated(thresholdSpec, 0.5)
	return c, nil
}

// Info implements node.Node.
func (c *ClockDivider) Info() node.Info { return c.info }

// Reset restarts the division count.
func (c *ClockDivider) Reset() {
	c.count = 0
	c.clockWasHigh = false
	c.resetWasHigh = false
	c.gateRemain = [6]int{}
	c.clockRemain = 0
}

// Process renders one block of divided clocks.
func (c *ClockDivider) Process(ctx *node.Context) error {
	clockOut := ctx.Out.Buffer("clock_out")
	if clockOut == nil {
		return &node.OutputBufferError{Port: "clock_out"}
	}
	var divs [6][]float64
	divs[0] = ctx.Out.Buffer("div_1")
	divs[1] = ctx.Out.Buffer("div_2")
	divs[2] = ctx.Out.Buffer("div_4")
	divs[3] = ctx.Out.Buffer("div_8")
	divs[4] = ctx.Out.Buffer("div_16")
	divs[5] = ctx.Out.Buffer("div_32")

	if c.active <= 0.5 {
		for _, port := range c.info.Outputs {
			ctx.Out.Zero(port.Name)
		}
		return nil
	}

	threshold := c.thresholdMod.Modulate(c.threshold, ctx.In.CVValue("threshold_cv"))
	gateSamples := int(c.gateLength * c.sampleRate)
	if gateSamples < 1 {
		gateSamples = 1
	}

	for i := range clockOut {
		if reset := ctx.In.Sample("reset_in", i); reset >= threshold {
			if !c.resetWasHigh {
				c.count = 0
			}
			c.resetWasHigh = true
		} else {
			c.resetWasHigh = false
		}

		clock := ctx.In.Sample("clock_in", i)
		high := clock >= threshold
		if high && !c.clockWasHigh {
			c.count++
			c.clockRemain = gateSamples
			for d, ratio := range dividerRatios {
				if c.count%ratio == 0 {
					c.gateRemain[d] = gateSamples
				}
			}
		}
		c.clockWasHigh = high

		if c.clockRemain > 0 {
			clockOut[i] = 1
			c.clockRemain--
		} else {
			clockOut[i] = 0
		}
		for d := range divs {
			if divs[d] == nil {
				continue
			}
			if c.gateRemain[d] > 0 {
				divs[d][i] = 1
				c.gateRemain[d]--
			} else {
				divs[d][i] = 0
			}
		}
	}
	return nil
}
