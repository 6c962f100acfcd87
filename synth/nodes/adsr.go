package nodes

import (
	"math"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

type envelopeStage int

const (
	stageIdle envelopeStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

// ADSR is a gate-driven attack/decay/sustain/release envelope with a
// shapeable curve and velocity sensitivity. The gate is evaluated per
// sample, so sub-block gate timing is preserved.
type ADSR struct {
	*param.Set
	info node.Info

	attack       float64
	decay        float64
	sustain      float64
	release      float64
	curve        float64
	velSensitive float64
	active       float64

	attackMod  param.Modulated
	decayMod   param.Modulated
	sustainMod param.Modulated
	releaseMod param.Modulated

	stage             envelopeStage
	progress          float64
	level             float64
	releaseStartLevel float64
	velocity          float64
	gateWasHigh       bool
	sampleRate        float64
}

// NewADSR builds an envelope generator node.
func NewADSR(name string, sampleRate float64) (node.Node, error) {
	a := &ADSR{Set: param.NewSet(), sampleRate: sampleRate, velocity: 1}

	a.info = node.NewInfo(name, "adsr", node.CategoryController)
	a.info.Description = "Gate-driven ADSR envelope generator"
	a.info.Inputs = []node.Port{
		node.CV("gate_in", "gate signal"),
		node.CV("velocity_in", "per-note velocity").AsOptional(),
		node.CV("attack_cv", "attack time modulation").AsOptional(),
		node.CV("decay_cv", "decay time modulation").AsOptional(),
		node.CV("sustain_cv", "sustain level modulation").AsOptional(),
		node.CV("release_cv", "release time modulation").AsOptional(),
	}
	a.info.Outputs = []node.Port{
		node.CV("cv_out", "envelope output"),
		node.CV("gate_out", "gate passthrough"),
		node.CV("end_of_cycle", "pulse when release completes"),
	}

	attackSpec := param.New("attack", 0.001, 10, 0.1).WithUnit("s")
	decaySpec := param.New("decay", 0.001, 10, 0.3).WithUnit("s")
	sustainSpec := param.New("sustain", 0, 1, 0.7)
	releaseSpec := param.New("release", 0.001, 10, 0.5).WithUnit("s")

	a.Bind(attackSpec, &a.attack)
	a.Bind(decaySpec, &a.decay)
	a.Bind(sustainSpec, &a.sustain)
	a.Bind(releaseSpec, &a.release)
	a.Bind(param.New("curve", 0, 1, 0.5), &a.curve)
	a.Bind(param.New("velocity_sensitivity", 0, 1, 1), &a.velSensitive)
	a.Bind(node.ActiveParam, &a.active)

	a.attackMod = param.NewModulated(attackSpec, 0.5)
	a.decayMod = param.NewModulated(decaySpec, 0.5)
	a.sustainMod = param.NewModulated(sustainSpec, 0.5)
	a.releaseMod = param.NewModulated(releaseSpec, 0.5)
	return a, nil
}

// Info implements node.Node.
func (a *ADSR) Info() node.Info { return a.info }

// Reset returns the envelope to idle.
func (a *ADSR) Reset() {
	a.stage = stageIdle
	a.progress = 0
	a.level = 0
	a.releaseStartLevel = 0
	a.gateWasHigh = false
}

// Process renders one block of envelope CV.
func (a *ADSR) Process(ctx *node.Context) error {
	out := ctx.Out.Buffer("cv_out")
	if out == nil {
		return &node.OutputBufferError{Port: "cv_out"}
	}
	gateOut := ctx.Out.Buffer("gate_out")
	eoc := ctx.Out.Buffer("end_of_cycle")

	if a.active <= 0.5 {
		ctx.Out.Zero("cv_out")
		ctx.Out.Zero("gate_out")
		ctx.Out.Zero("end_of_cycle")
		return nil
	}

	attack := a.attackMod.Modulate(a.attack, ctx.In.CVValue("attack_cv"))
	decay := a.decayMod.Modulate(a.decay, ctx.In.CVValue("decay_cv"))
	sustain := a.sustainMod.Modulate(a.sustain, ctx.In.CVValue("sustain_cv"))
	release := a.releaseMod.Modulate(a.release, ctx.In.CVValue("release_cv"))

	velocity := 1.0
	if ctx.In.Connected("velocity_in") {
		velocity = clampf(ctx.In.CVValue("velocity_in"), 0, 1)
	}

	for i := range out {
		gateHigh := ctx.In.Sample("gate_in", i) > 0.5
		a.advanceGate(gateHigh, velocity)
		level, ended := a.step(attack, decay, sustain, release)

		out[i] = level
		if gateOut != nil {
			if gateHigh {
				gateOut[i] = 1
			} else {
				gateOut[i] = 0
			}
		}
		if eoc != nil {
			if ended {
				eoc[i] = 1
			} else {
				eoc[i] = 0
			}
		}
	}
	return nil
}

func (a *ADSR) advanceGate(gateHigh bool, velocity float64) {
	rising := gateHigh && !a.gateWasHigh
	falling := !gateHigh && a.gateWasHigh
	a.gateWasHigh = gateHigh

	if rising {
		a.velocity = velocity
	}

	switch a.stage {
	case stageIdle:
		if rising {
			a.stage = stageAttack
			a.progress = 0
		}
	case stageAttack:
		if falling {
			a.enterRelease()
		} else if a.progress >= 1 {
			a.stage = stageDecay
			a.progress = 0
		}
	case stageDecay:
		if falling {
			a.enterRelease()
		} else if a.progress >= 1 {
			a.stage = stageSustain
			a.progress = 0
		}
	case stageSustain:
		if falling {
			a.enterRelease()
		}
	case stageRelease:
		if rising {
			a.stage = stageAttack
			a.progress = 0
		} else if a.progress >= 1 {
			a.stage = stageIdle
			a.progress = 0
			a.level = 0
		}
	}
}

func (a *ADSR) enterRelease() {
	a.stage = stageRelease
	a.progress = 0
	a.releaseStartLevel = a.level
}

// step computes the level for one sample and advances the stage
// progress. The second result pulses true as release completes.
func (a *ADSR) step(attack, decay, sustain, release float64) (float64, bool) {
	peak := a.velocity * (1 - a.velSensitive + a.velSensitive*a.velocity)
	ended := false

	switch a.stage {
	case stageAttack:
		a.level = a.applyCurve(a.progress) * peak
		a.progress += 1 / math.Max(attack*a.sampleRate, 1)
	case stageDecay:
		sustainLevel := sustain * peak
		a.level = peak - (peak-sustainLevel)*a.applyCurve(a.progress)
		a.progress += 1 / math.Max(decay*a.sampleRate, 1)
	case stageSustain:
		a.level = sustain * peak
	case stageRelease:
		a.level = a.releaseStartLevel * (1 - a.applyCurve(a.progress))
		a.progress += 1 / math.Max(release*a.sampleRate, 1)
		if a.progress >= 1 {
			ended = true
		}
	default:
		a.level = 0
	}

	return clampf(a.level, 0, 1), ended
}

// applyCurve shapes linear stage progress: below 0.5 bends exponential
// (fast start), above 0.5 bends logarithmic (slow start), 0.5 is
// linear.
func (a *ADSR) applyCurve(progress float64) float64 {
	switch {
	case a.curve < 0.5:
		factor := 1 + (0.5-a.curve)*2*4
		return clampf(math.Pow(progress, factor), 0, 1)
	case a.curve > 0.5:
		factor := 1 + (a.curve-0.5)*2*4
		return clampf(1-math.Pow(1-progress, factor), 0, 1)
	default:
		return progress
	}
}
