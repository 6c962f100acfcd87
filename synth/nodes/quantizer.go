package nodes

import (
	"math"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// scaleMasks marks which of the 12 semitones each scale admits.
var scaleMasks = [7][12]bool{
	{true, true, true, true, true, true, true, true, true, true, true, true},      // chromatic
	{true, false, true, false, true, true, false, true, false, true, false, true}, // major
	{true, false, true, true, false, true, false, true, true, false, true, false}, // minor
	{true, false, true, false, true, false, false, true, false, true, false, false}, // pentatonic
	{true, false, false, true, false, true, true, true, false, false, true, false},  // blues
	{true, false, true, true, false, true, false, true, false, true, true, false},   // dorian
	{true, false, true, false, true, true, false, true, false, true, true, false},   // mixolydian
}

// Quantizer snaps a 1V/oct pitch CV to the nearest note of a scale.
// trigger_out pulses for one sample whenever the quantized note
// changes; gate_out stays high while the input is connected.
// Hysteresis widens the switchover point between adjacent notes to
// stop flutter on slowly moving inputs.
type Quantizer struct {
	*param.Set
	info node.Info

	scale      float64
	rootNote   float64
	transpose  float64
	slewRate   float64
	hysteresis float64
	active     float64

	rootMod      param.Modulated
	transposeMod param.Modulated

	lastNote   float64
	output     float64
	haveOutput bool
}

// NewQuantizer builds a pitch quantizer node.
func NewQuantizer(name string, _ float64) (node.Node, error) {
	q := &Quantizer{Set: param.NewSet()}

	q.info = node.NewInfo(name, "quantizer", node.CategoryUtility)
	q.info.Description = "1V/oct pitch quantizer"
	q.info.Inputs = []node.Port{
		node.CV("cv_in", "pitch CV to quantize"),
		node.CV("root_note_cv", "root note modulation").AsOptional(),
		node.CV("transpose_cv", "transpose modulation").AsOptional(),
		node.CV("scale_cv", "scale selection").AsOptional(),
	}
	q.info.Outputs = []node.Port{
		node.CV("cv_out", "quantized pitch CV"),
		node.CV("trigger_out", "pulse on note change"),
		node.CV("gate_out", "high while input connected"),
	}

	rootSpec := param.New("root_note", -5, 5, 0)
	transposeSpec := param.New("transpose", -24, 24, 0)

	q.Bind(param.New("scale", 0, 6, 0), &q.scale)
	q.Bind(rootSpec, &q.rootNote)
	q.Bind(transposeSpec, &q.transpose)
	q.Bind(param.New("slew_rate", 0, 1, 0), &q.slewRate)
	q.Bind(param.New("hysteresis", 0, 1, 0.1), &q.hysteresis)
	q.Bind(node.ActiveParam, &q.active)

	q.rootMod = param.NewModulated(rootSpec, 0.5)
	q.transposeMod = param.NewModulated(transposeSpec, 0.5)
	return q, nil
}

// Info implements node.Node.
func (q *Quantizer) Info() node.Info { return q.info }

// Reset clears the note memory.
func (q *Quantizer) Reset() {
	q.lastNote = 0
	q.output = 0
	q.haveOutput = false
}

// Process quantizes one block.
func (q *Quantizer) Process(ctx *node.Context) error {
	out := ctx.Out.Buffer("cv_out")
	if out == nil {
		return &node.OutputBufferError{Port: "cv_out"}
	}
	triggerOut := ctx.Out.Buffer("trigger_out")
	gateOut := ctx.Out.Buffer("gate_out")

	if q.active <= 0.5 {
		ctx.Out.Zero("cv_out")
		ctx.Out.Zero("trigger_out")
		ctx.Out.Zero("gate_out")
		return nil
	}

	root := q.rootMod.Modulate(q.rootNote, ctx.In.CVValue("root_note_cv"))
	transpose := q.transposeMod.Modulate(q.transpose, ctx.In.CVValue("transpose_cv"))
	if cv := ctx.In.CVValue("scale_cv"); cv != 0 {
		q.scale = clampf(cv*7, 0, 6)
	}
	mask := &scaleMasks[int(q.scale)]
	connected := ctx.In.Connected("cv_in")

	for i := range out {
		pitch := ctx.In.Sample("cv_in", i)
		note := q.quantize(pitch, root, transpose/12, mask)

		changed := false
		if !q.haveOutput || note != q.lastNote {
			// Hysteresis: require the new note to clear the old one by
			// a fraction of a semitone before switching.
			if !q.haveOutput || math.Abs(note-q.lastNote) > q.hysteresis/12 {
				q.lastNote = note
				q.haveOutput = true
				changed = true
			}
		}

		if q.slewRate > 0 {
			step := (1 - q.slewRate) * 0.1
			diff := q.lastNote - q.output
			if diff > step {
				diff = step
			} else if diff < -step {
				diff = -step
			}
			q.output += diff
		} else {
			q.output = q.lastNote
		}

		out[i] = q.output
		if triggerOut != nil {
			if changed {
				triggerOut[i] = 1
			} else {
				triggerOut[i] = 0
			}
		}
		if gateOut != nil {
			if connected {
				gateOut[i] = 1
			} else {
				gateOut[i] = 0
			}
		}
	}
	return nil
}

// quantize snaps a pitch voltage to the nearest admitted semitone.
// All values are in 1V/oct, so a semitone is 1/12 V.
func (q *Quantizer) quantize(pitch, root, transposeVolts float64, mask *[12]bool) float64 {
	relative := (pitch - root + transposeVolts) * 12
	nearest := math.Round(relative)

	// Search outward for the closest admitted semitone.
	for offset := 0.0; offset <= 11; offset++ {
		for _, candidate := range [2]float64{nearest - offset, nearest + offset} {
			idx := int(math.Mod(math.Mod(candidate, 12)+12, 12))
			if mask[idx] {
				return root + candidate/12
			}
		}
	}
	return root + nearest/12
}
