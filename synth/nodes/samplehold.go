package nodes

import (
	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// SampleHold freezes its input on each rising trigger edge. Track mode
// follows the input while the trigger is high instead. Slew limits how
// fast the held value may move between captures.
type SampleHold struct {
	*param.Set
	info node.Info

	threshold     float64
	manualTrigger float64
	slewRate      float64
	trackMode     float64
	active        float64

	thresholdMod param.Modulated

	held           float64
	output         float64
	triggerWasHigh bool
	manualWasHigh  bool
}

// NewSampleHold builds a sample and hold node.
func NewSampleHold(name string, _ float64) (node.Node, error) {
	s := &SampleHold{Set: param.NewSet()}

	s.info = node.NewInfo(name, "sample_hold", node.CategoryUtility)
	s.info.Description = "Trigger-driven sample and hold"
	s.info.Inputs = []node.Port{
		node.AudioIn("signal_in", "signal to sample"),
		node.CV("trigger_in", "capture trigger"),
		node.CV("threshold_cv", "trigger threshold modulation").AsOptional(),
	}
	s.info.Outputs = []node.Port{
		node.AudioOut("signal_out", "held signal"),
		node.CV("trigger_out", "trigger passthrough"),
		node.CV("gate_out", "high while trigger held"),
	}

	thresholdSpec := param.New("trigger_threshold", 0.1, 5, 1)
	s.Bind(thresholdSpec, &s.threshold)
	s.Bind(param.New("manual_trigger", 0, 1, 0), &s.manualTrigger)
	s.Bind(param.New("slew_rate", 0, 1, 0), &s.slewRate)
	s.Bind(param.New("track_mode", 0, 1, 0), &s.trackMode)
	s.Bind(node.ActiveParam, &s.active)

	s.thresholdMod = param.NewModulated(thresholdSpec, 0.5)
	return s, nil
}

// Info implements node.Node.
func (s *SampleHold) Info() node.Info { return s.info }

// Reset clears the held value.
func (s *SampleHold) Reset() {
	s.held = 0
	s.output = 0
	s.triggerWasHigh = false
	s.manualWasHigh = false
}

// Process renders one block.
func (s *SampleHold) Process(ctx *node.Context) error {
	out := ctx.Out.Buffer("signal_out")
	if out == nil {
		return &node.OutputBufferError{Port: "signal_out"}
	}
	triggerOut := ctx.Out.Buffer("trigger_out")
	gateOut := ctx.Out.Buffer("gate_out")

	if s.active <= 0.5 {
		ctx.Out.Zero("signal_out")
		ctx.Out.Zero("trigger_out")
		ctx.Out.Zero("gate_out")
		return nil
	}

	threshold := s.thresholdMod.Modulate(s.threshold, ctx.In.CVValue("threshold_cv"))
	track := s.trackMode > 0.5

	// Manual trigger param acts as one edge per flag raise.
	manualHigh := s.manualTrigger > 0.5
	manualEdge := manualHigh && !s.manualWasHigh
	s.manualWasHigh = manualHigh

	// Per-sample slew step; slew_rate 0 disables limiting.
	maxStep := 1.0
	if s.slewRate > 0 {
		maxStep = (1 - s.slewRate) * 0.5
	}

	for i := range out {
		trigger := ctx.In.Sample("trigger_in", i)
		high := trigger >= threshold
		rising := high && !s.triggerWasHigh
		s.triggerWasHigh = high

		if rising || (i == 0 && manualEdge) || (track && high) {
			s.held = ctx.In.Sample("signal_in", i)
		}

		if s.slewRate > 0 {
			diff := s.held - s.output
			if diff > maxStep {
				diff = maxStep
			} else if diff < -maxStep {
				diff = -maxStep
			}
			s.output += diff
		} else {
			s.output = s.held
		}

		out[i] = s.output
		if triggerOut != nil {
			triggerOut[i] = trigger
		}
		if gateOut != nil {
			if high {
				gateOut[i] = 1
			} else {
				gateOut[i] = 0
			}
		}
	}
	return nil
}
