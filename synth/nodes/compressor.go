package nodes

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/effects/dynamics"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// Compressor is a soft-knee dynamics compressor with an optional
// brickwall limiter stage. The gain_reduction_cv output reports the
// current reduction in dB as a positive per-block value.
type Compressor struct {
	*param.Set
	info node.Info

	threshold     float64
	ratio         float64
	attack        float64
	release       float64
	knee          float64
	makeupGain    float64
	limiterMode   float64
	limiterThresh float64
	active        float64

	thresholdMod param.Modulated
	ratioMod     param.Modulated
	attackMod    param.Modulated
	releaseMod   param.Modulated
	makeupMod    param.Modulated

	comp    *dynamics.Compressor
	limiter *dynamics.Limiter

	appliedThreshold float64
	appliedRatio     float64
	appliedAttack    float64
	appliedRelease   float64
	appliedKnee      float64
	appliedMakeup    float64
}

// NewCompressor builds a compressor node.
func NewCompressor(name string, sampleRate float64) (node.Node, error) {
	comp, err := dynamics.NewCompressor(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("compressor core: %w", err)
	}
	limiter, err := dynamics.NewLimiter(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("compressor limiter: %w", err)
	}

	c := &Compressor{
		Set:     param.NewSet(),
		comp:    comp,
		limiter: limiter,

		appliedThreshold: math.NaN(),
		appliedRatio:     math.NaN(),
		appliedAttack:    math.NaN(),
		appliedRelease:   math.NaN(),
		appliedKnee:      math.NaN(),
		appliedMakeup:    math.NaN(),
	}

	c.info = node.NewInfo(name, "compressor", node.CategoryProcessor)
	c.info.Description = "Soft-knee compressor with optional limiter"
	c.info.Inputs = []node.Port{
		node.AudioIn("audio_in", "signal input"),
		node.CV("threshold_cv", "threshold modulation").AsOptional(),
		node.CV("ratio_cv", "ratio modulation").AsOptional(),
		node.CV("attack_cv", "attack modulation").AsOptional(),
		node.CV("release_cv", "release modulation").AsOptional(),
		node.CV("makeup_gain_cv", "makeup gain modulation").AsOptional(),
	}
	c.info.Outputs = []node.Port{
		node.AudioOut("audio_out", "compressed signal"),
		node.CV("gain_reduction_cv", "gain reduction in dB"),
	}

	thresholdSpec := param.New("threshold", -60, 0, -20).WithUnit("dB")
	ratioSpec := param.New("ratio", 1, 20, 4)
	attackSpec := param.New("attack", 0.0001, 1, 0.003).WithUnit("s")
	releaseSpec := param.New("release", 0.001, 10, 0.1).WithUnit("s")
	makeupSpec := param.New("makeup_gain", -20, 20, 0).WithUnit("dB")

	c.Bind(thresholdSpec, &c.threshold)
	c.Bind(ratioSpec, &c.ratio)
	c.Bind(attackSpec, &c.attack)
	c.Bind(releaseSpec, &c.release)
	c.Bind(param.New("knee", 0, 10, 2).WithUnit("dB"), &c.knee)
	c.Bind(makeupSpec, &c.makeupGain)
	c.Bind(param.New("limiter_mode", 0, 1, 0), &c.limiterMode)
	c.Bind(param.New("limiter_threshold", -20, 0, -0.1).WithUnit("dB"), &c.limiterThresh)
	c.Bind(node.ActiveParam, &c.active)

	c.thresholdMod = param.NewModulated(thresholdSpec, 0.5)
	c.ratioMod = param.NewModulated(ratioSpec, 0.5)
	c.attackMod = param.NewModulated(attackSpec, 0.5)
	c.releaseMod = param.NewModulated(releaseSpec, 0.5)
	c.makeupMod = param.NewModulated(makeupSpec, 0.5)
	return c, nil
}

// Info implements node.Node.
func (c *Compressor) Info() node.Info { return c.info }

// Reset clears the detector and limiter state.
func (c *Compressor) Reset() {
	c.comp.Reset()
	c.limiter.Reset()
}

// Process compresses one block. Inactive passes the dry signal
// through.
func (c *Compressor) Process(ctx *node.Context) error {
	out := ctx.Out.Buffer("audio_out")
	if out == nil {
		return &node.OutputBufferError{Port: "audio_out"}
	}

	if c.active <= 0.5 {
		for i := range out {
			out[i] = ctx.In.Sample("audio_in", i)
		}
		ctx.Out.Zero("gain_reduction_cv")
		return nil
	}

	threshold := c.thresholdMod.Modulate(c.threshold, ctx.In.CVValue("threshold_cv"))
	ratio := c.ratioMod.Modulate(c.ratio, ctx.In.CVValue("ratio_cv"))
	attack := c.attackMod.Modulate(c.attack, ctx.In.CVValue("attack_cv"))
	release := c.releaseMod.Modulate(c.release, ctx.In.CVValue("release_cv"))
	makeup := c.makeupMod.Modulate(c.makeupGain, ctx.In.CVValue("makeup_gain_cv"))

	if err := c.reconfigure(threshold, ratio, attack, release, makeup); err != nil {
		return fmt.Errorf("compressor: %w", err)
	}

	c.comp.ResetMetrics()
	limiting := c.limiterMode > 0.5
	for i := range out {
		sample := c.comp.ProcessSample(ctx.In.Sample("audio_in", i))
		if limiting {
			sample = c.limiter.ProcessSample(sample)
		}
		out[i] = sample
	}

	reduction := c.comp.GetMetrics().GainReduction
	if reduction <= 0 {
		reduction = 1
	}
	ctx.Out.Fill("gain_reduction_cv", math.Max(-20*math.Log10(reduction), 0))
	return nil
}

func (c *Compressor) reconfigure(threshold, ratio, attack, release, makeup float64) error {
	if threshold != c.appliedThreshold {
		if err := c.comp.SetThreshold(threshold); err != nil {
			return err
		}
		if err := c.limiter.SetThreshold(c.limiterThresh); err != nil {
			return err
		}
		c.appliedThreshold = threshold
	}
	if ratio != c.appliedRatio {
		if err := c.comp.SetRatio(ratio); err != nil {
			return err
		}
		c.appliedRatio = ratio
	}
	if attack != c.appliedAttack {
		if err := c.comp.SetAttack(clampf(attack*1000, 0.1, 1000)); err != nil {
			return err
		}
		c.appliedAttack = attack
	}
	if release != c.appliedRelease {
		if err := c.comp.SetRelease(clampf(release*1000, 1, 5000)); err != nil {
			return err
		}
		c.appliedRelease = release
	}
	if c.knee != c.appliedKnee {
		if err := c.comp.SetKnee(c.knee); err != nil {
			return err
		}
		c.appliedKnee = c.knee
	}
	if makeup != c.appliedMakeup {
		if err := c.comp.SetMakeupGain(makeup); err != nil {
			return err
		}
		c.appliedMakeup = makeup
	}
	return nil
}
