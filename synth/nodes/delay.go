package nodes

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/effects"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// Delay is a feedback delay line. The wet path is rendered at full mix
// and blended against the dry signal here, so the wet_out tap carries
// the undiluted delayed signal.
type Delay struct {
	*param.Set
	info node.Info

	delayTime float64
	feedback  float64
	mix       float64
	active    float64

	timeMod     param.Modulated
	feedbackMod param.Modulated
	mixMod      param.Modulated

	line        *effects.Delay
	appliedTime float64
	appliedFB   float64
}

// NewDelay builds a delay node.
func NewDelay(name string, sampleRate float64) (node.Node, error) {
	line, err := effects.NewDelay(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("delay line: %w", err)
	}
	if err := line.SetMix(1); err != nil {
		return nil, fmt.Errorf("delay line: %w", err)
	}

	d := &Delay{Set: param.NewSet(), line: line}

	d.info = node.NewInfo(name, "delay", node.CategoryProcessor)
	d.info.Description = "Feedback delay with dry/wet mix"
	d.info.Inputs = []node.Port{
		node.AudioIn("audio_in", "signal input"),
		node.CV("delay_time_cv", "delay time modulation").AsOptional(),
		node.CV("feedback_cv", "feedback modulation").AsOptional(),
		node.CV("mix_cv", "dry/wet modulation").AsOptional(),
	}
	d.info.Outputs = []node.Port{
		node.AudioOut("audio_out", "mixed output"),
		node.AudioOut("wet_out", "delayed signal only"),
	}

	timeSpec := param.New("delay_time", 1, 2000, 250).WithUnit("ms")
	feedbackSpec := param.New("feedback", 0, 0.95, 0.3)
	mixSpec := param.New("mix", 0, 1, 0.5)

	d.Bind(timeSpec, &d.delayTime)
	d.Bind(feedbackSpec, &d.feedback)
	d.Bind(mixSpec, &d.mix)
	d.Bind(node.ActiveParam, &d.active)

	d.timeMod = param.NewModulated(timeSpec, 0.5)
	d.feedbackMod = param.NewModulated(feedbackSpec, 0.5)
	d.mixMod = param.NewModulated(mixSpec, 0.5)
	return d, nil
}

// Info implements node.Node.
func (d *Delay) Info() node.Info { return d.info }

// Reset clears the delay buffer.
func (d *Delay) Reset() { d.line.Reset() }

// Process renders one block. Inactive passes the dry signal through.
func (d *Delay) Process(ctx *node.Context) error {
	out := ctx.Out.Buffer("audio_out")
	if out == nil {
		return &node.OutputBufferError{Port: "audio_out"}
	}
	wet := ctx.Out.Buffer("wet_out")

	if d.active <= 0.5 {
		for i := range out {
			out[i] = ctx.In.Sample("audio_in", i)
		}
		ctx.Out.Zero("wet_out")
		return nil
	}

	delayMS := d.timeMod.Modulate(d.delayTime, ctx.In.CVValue("delay_time_cv"))
	feedback := d.feedbackMod.Modulate(d.feedback, ctx.In.CVValue("feedback_cv"))
	mix := d.mixMod.Modulate(d.mix, ctx.In.CVValue("mix_cv"))

	if err := d.reconfigure(delayMS, feedback); err != nil {
		return fmt.Errorf("delay: %w", err)
	}

	for i := range out {
		dry := ctx.In.Sample("audio_in", i)
		delayed := d.line.ProcessSample(dry)
		out[i] = dry*(1-mix) + delayed*mix
		if wet != nil {
			wet[i] = delayed
		}
	}
	return nil
}

func (d *Delay) reconfigure(delayMS, feedback float64) error {
	if delayMS != d.appliedTime {
		if err := d.line.SetTime(delayMS / 1000); err != nil {
			return err
		}
		d.appliedTime = delayMS
	}
	if feedback != d.appliedFB {
		if err := d.line.SetFeedback(feedback); err != nil {
			return err
		}
		d.appliedFB = feedback
	}
	return nil
}
