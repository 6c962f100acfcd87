package nodes

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/effects/dynamics"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// Output is the terminal node of a patch. It sums its left and right
// inputs to the mono mix bus under a CV-controllable master volume,
// runs a brickwall limiter ahead of the bus, and reports per-channel
// peak and RMS levels as CV.
//
// The engine collects the mix output of every output node into the
// master block, so several output nodes may coexist in one patch.
type Output struct {
	*param.Set
	info node.Info

	masterVolume float64
	mute         float64
	limThreshold float64
	limRelease   float64
	active       float64

	volumeMod param.Modulated

	limiter *dynamics.Limiter

	appliedThreshold float64
	appliedRelease   float64

	peakL, peakR float64
	rmsL, rmsR   float64
}

// NewOutput builds an output node.
func NewOutput(name string, sampleRate float64) (node.Node, error) {
	limiter, err := dynamics.NewLimiter(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("output limiter: %w", err)
	}

	o := &Output{
		Set:     param.NewSet(),
		limiter: limiter,

		appliedThreshold: math.NaN(),
		appliedRelease:   math.NaN(),
	}

	o.info = node.NewInfo(name, "output", node.CategoryOutput)
	o.info.Description = "Master output with limiter and level metering"
	o.info.Inputs = []node.Port{
		node.AudioIn("audio_in_l", "left channel"),
		node.AudioIn("audio_in_r", "right channel").AsOptional(),
		node.CV("master_volume_cv", "volume modulation").AsOptional(),
	}
	o.info.Outputs = []node.Port{
		node.AudioOut("mix", "contribution to the master bus"),
		node.CV("peak_level_l_cv", "left peak level"),
		node.CV("peak_level_r_cv", "right peak level"),
		node.CV("rms_level_l_cv", "left RMS level"),
		node.CV("rms_level_r_cv", "right RMS level"),
	}

	volumeSpec := param.New("master_volume", 0, 2, 0.7)
	o.Bind(volumeSpec, &o.masterVolume)
	o.Bind(param.New("mute", 0, 1, 0), &o.mute)
	o.Bind(param.New("limiter_threshold", 0.5, 1, 0.9), &o.limThreshold)
	o.Bind(param.New("limiter_release", 0.001, 1, 0.05).WithUnit("s"), &o.limRelease)
	o.Bind(node.ActiveParam, &o.active)

	o.volumeMod = param.NewModulated(volumeSpec, 0.5)
	return o, nil
}

// Info implements node.Node.
func (o *Output) Info() node.Info { return o.info }

// Reset clears the limiter and the level meters.
func (o *Output) Reset() {
	o.limiter.Reset()
	o.peakL, o.peakR = 0, 0
	o.rmsL, o.rmsR = 0, 0
}

// Process mixes one block onto the bus.
func (o *Output) Process(ctx *node.Context) error {
	mix := ctx.Out.Buffer("mix")
	if mix == nil {
		return &node.OutputBufferError{Port: "mix"}
	}

	if o.active <= 0.5 || o.mute > 0.5 {
		for _, port := range o.info.Outputs {
			ctx.Out.Zero(port.Name)
		}
		return nil
	}

	volume := o.volumeMod.Modulate(o.masterVolume, ctx.In.CVValue("master_volume_cv"))
	if err := o.reconfigure(); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	stereo := ctx.In.Connected("audio_in_r")

	var sumSqL, sumSqR float64
	peakL, peakR := 0.0, 0.0

	for i := range mix {
		l := ctx.In.Sample("audio_in_l", i)
		r := l
		if stereo {
			r = ctx.In.Sample("audio_in_r", i)
		}

		if a := math.Abs(l); a > peakL {
			peakL = a
		}
		if a := math.Abs(r); a > peakR {
			peakR = a
		}
		sumSqL += l * l
		sumSqR += r * r

		mono := (l + r) * 0.5 * volume
		mix[i] = o.limiter.ProcessSample(mono)
	}

	n := float64(len(mix))
	o.peakL, o.peakR = peakL, peakR
	o.rmsL = math.Sqrt(sumSqL / n)
	o.rmsR = math.Sqrt(sumSqR / n)

	ctx.Out.Fill("peak_level_l_cv", o.peakL)
	ctx.Out.Fill("peak_level_r_cv", o.peakR)
	ctx.Out.Fill("rms_level_l_cv", o.rmsL)
	ctx.Out.Fill("rms_level_r_cv", o.rmsR)
	return nil
}

// PeakLevels reports the most recent per-channel peak levels.
func (o *Output) PeakLevels() (left, right float64) { return o.peakL, o.peakR }

// RMSLevels reports the most recent per-channel RMS levels.
func (o *Output) RMSLevels() (left, right float64) { return o.rmsL, o.rmsR }

func (o *Output) reconfigure() error {
	if o.limThreshold != o.appliedThreshold {
		// The panel threshold is linear amplitude; the limiter wants dB.
		if err := o.limiter.SetThreshold(20 * math.Log10(o.limThreshold)); err != nil {
			return err
		}
		o.appliedThreshold = o.limThreshold
	}
	if o.limRelease != o.appliedRelease {
		if err := o.limiter.SetRelease(o.limRelease * 1000); err != nil {
			return err
		}
		o.appliedRelease = o.limRelease
	}
	return nil
}
