package nodes

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

const (
	sequencerSteps   = 16
	sequencerTrigger = 2.5
)

// Playback orders for the sequencer.
const (
	seqModeForward = iota
	seqModeBackward
	seqModePingPong
	seqModeRandom
)

// sequenceStep holds one step of the pattern. Note is a frequency in
// Hz; zero marks a rest.
type sequenceStep struct {
	note     float64
	gate     bool
	velocity float64
}

// Sequencer is a 16-step pattern sequencer with forward, backward,
// ping-pong and random playback, swing, and a 1V/oct note CV output
// referenced to C4. It steps from its internal BPM clock unless
// clock_in is connected, in which case each rising edge advances one
// step.
//
// Step data is addressed through virtual parameters step_<n>_note,
// step_<n>_gate and step_<n>_velocity for n in 0..15. The running
// parameter starts and stops playback.
type Sequencer struct {
	*param.Set
	info node.Info

	bpm       float64
	stepCount float64
	mode      float64
	division  float64
	swing     float64
	gateLen   float64
	transpose float64
	active    float64

	bpmMod       param.Modulated
	transposeMod param.Modulated

	steps [sequencerSteps]sequenceStep

	currentStep    int
	sampleCounter  int
	samplesPerStep int
	running        bool
	direction      int
	randomSeed     uint32
	gateRemain     int

	clockWasHigh   bool
	resetWasHigh   bool
	runStopWasHigh bool

	sampleRate float64
}

// NewSequencer builds a sequencer node seeded with a C major scale
// across the first eight steps.
func NewSequencer(name string, sampleRate float64) (node.Node, error) {
	s := &Sequencer{
		Set:        param.NewSet(),
		direction:  1,
		randomSeed: 12345,
		sampleRate: sampleRate,
	}

	s.info = node.NewInfo(name, "sequencer", node.CategoryController)
	s.info.Description = "16-step sequencer with swing and multiple playback modes"
	s.info.Inputs = []node.Port{
		node.CV("clock_in", "external clock").AsOptional(),
		node.CV("reset_in", "reset to step 0").AsOptional(),
		node.CV("run_stop_in", "run/stop toggle").AsOptional(),
		node.CV("bpm_cv", "tempo modulation").AsOptional(),
		node.CV("transpose_cv", "transpose modulation").AsOptional(),
	}
	s.info.Outputs = []node.Port{
		node.CV("note_cv", "1V/oct note CV"),
		node.CV("gate_out", "step gate"),
		node.CV("velocity_cv", "step velocity, 0 to 10V"),
		node.CV("trigger_out", "pulse on each step"),
		node.CV("end_of_sequence", "pulse when the pattern wraps"),
	}

	bpmSpec := param.New("bpm", 60, 200, 120)
	transposeSpec := param.New("transpose", -24, 24, 0).WithUnit("st")

	s.Bind(bpmSpec, &s.bpm)
	s.Bind(param.New("step_count", 1, 16, 8), &s.stepCount)
	s.Bind(param.New("mode", 0, 3, 0), &s.mode)
	s.Bind(param.New("clock_division", 0.5, 4, 1), &s.division)
	s.Bind(param.New("swing", 0, 1, 0), &s.swing)
	s.Bind(param.New("gate_length", 0.1, 1, 0.5), &s.gateLen)
	s.Bind(transposeSpec, &s.transpose)
	s.Bind(node.ActiveParam, &s.active)

	s.bpmMod = param.NewModulated(bpmSpec, 0.8)
	s.transposeMod = param.NewModulated(transposeSpec, 0.8)

	// C major, C4 to C5, on the first eight steps.
	scale := [8]float64{261.63, 293.66, 329.63, 349.23, 392.00, 440.00, 493.88, 523.25}
	for i := range s.steps {
		s.steps[i] = sequenceStep{
			note:     scale[i%len(scale)],
			gate:     i < 8,
			velocity: 0.8,
		}
	}

	s.updateTiming(120)
	return s, nil
}

// Info implements node.Node.
func (s *Sequencer) Info() node.Info { return s.info }

// Reset rewinds the pattern without touching step data.
func (s *Sequencer) Reset() {
	s.currentStep = 0
	s.sampleCounter = 0
	s.direction = 1
	s.gateRemain = 0
	s.clockWasHigh = false
	s.resetWasHigh = false
	s.runStopWasHigh = false
}

// SetParameter handles the virtual step and transport parameters
// before delegating to the bound parameter set.
func (s *Sequencer) SetParameter(name string, value float64) error {
	if idx, field, err := parseStepParameter(name); err == nil {
		s.setStep(idx, field, value)
		return nil
	}
	switch name {
	case "running":
		if value > 0.5 {
			s.start()
		} else {
			s.stop()
		}
		return nil
	case "reset":
		if value > 0.5 {
			s.Reset()
		}
		return nil
	}
	return s.Set.SetParameter(name, value)
}

// Parameter reports virtual step and transport parameters alongside
// the bound ones.
func (s *Sequencer) Parameter(name string) (float64, error) {
	if idx, field, err := parseStepParameter(name); err == nil {
		return s.stepValue(idx, field), nil
	}
	switch name {
	case "running":
		if s.running {
			return 1, nil
		}
		return 0, nil
	case "current_step":
		return float64(s.currentStep), nil
	}
	return s.Set.Parameter(name)
}

func (s *Sequencer) setStep(idx int, field string, value float64) {
	switch field {
	case "note":
		s.steps[idx].note = clampf(value, 20, 20000)
	case "gate":
		s.steps[idx].gate = value > 0.5
	case "velocity":
		s.steps[idx].velocity = clampf(value, 0, 1)
	}
}

func (s *Sequencer) stepValue(idx int, field string) float64 {
	switch field {
	case "note":
		return s.steps[idx].note
	case "gate":
		if s.steps[idx].gate {
			return 1
		}
		return 0
	default:
		return s.steps[idx].velocity
	}
}

// parseStepParameter splits step_<n>_<field> into its parts.
func parseStepParameter(name string) (int, string, error) {
	parts := strings.SplitN(name, "_", 3)
	if len(parts) != 3 {
		return 0, "", &param.NotFoundError{Name: name}
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 0 || idx >= sequencerSteps {
		return 0, "", &param.NotFoundError{Name: name}
	}
	switch parts[2] {
	case "note", "gate", "velocity":
		return idx, parts[2], nil
	}
	return 0, "", &param.NotFoundError{Name: name}
}

func (s *Sequencer) start() {
	s.running = true
	s.sampleCounter = 0
	s.gateRemain = int(float64(s.stepLength(s.currentStep)) * s.gateLen)
}

func (s *Sequencer) stop() {
	s.running = false
	s.gateRemain = 0
}

func (s *Sequencer) updateTiming(bpm float64) {
	samplesPerBeat := (60 / bpm) * s.sampleRate
	s.samplesPerStep = int(samplesPerBeat / (4 * s.division))
	if s.samplesPerStep < 1 {
		s.samplesPerStep = 1
	}
}

// stepLength applies swing: odd steps stretch by up to 50%, even steps
// shrink to compensate.
func (s *Sequencer) stepLength(step int) int {
	if s.swing == 0 {
		return s.samplesPerStep
	}
	if step%2 == 1 {
		return int(float64(s.samplesPerStep) * (1 + s.swing*0.5))
	}
	return int(float64(s.samplesPerStep) * (1 - s.swing*0.3))
}

// nextStep picks the following step index per the playback mode.
func (s *Sequencer) nextStep() int {
	count := int(s.stepCount)
	if count < 1 {
		count = 1
	}
	switch int(s.mode) {
	case seqModeBackward:
		if s.currentStep == 0 {
			return count - 1
		}
		return s.currentStep - 1
	case seqModePingPong:
		next := s.currentStep + s.direction
		if next >= count {
			s.direction = -1
			if count >= 2 {
				return count - 2
			}
			return 0
		}
		if s.currentStep == 0 && s.direction == -1 {
			s.direction = 1
			if count > 1 {
				return 1
			}
			return 0
		}
		return next
	case seqModeRandom:
		s.randomSeed = s.randomSeed*1103515245 + 12345
		return int(s.randomSeed/65536) % count
	default:
		return (s.currentStep + 1) % count
	}
}

// advance moves to the next step and rearms the gate. It reports
// whether the pattern just wrapped in forward mode.
func (s *Sequencer) advance() bool {
	wrapped := int(s.mode) == seqModeForward && s.currentStep == int(s.stepCount)-1
	s.currentStep = s.nextStep()
	s.sampleCounter = 0
	s.gateRemain = int(float64(s.stepLength(s.currentStep)) * s.gateLen)
	return wrapped
}

// freqToCV converts a frequency to a 1V/oct voltage with C4 at 0V.
func freqToCV(freq, transposeSemitones float64) float64 {
	if freq <= 0 {
		return 0
	}
	const c4 = 261.63
	return math.Log2(freq/c4) + transposeSemitones/12
}

// Process renders one block of sequencer outputs.
func (s *Sequencer) Process(ctx *node.Context) error {
	noteOut := ctx.Out.Buffer("note_cv")
	if noteOut == nil {
		return &node.OutputBufferError{Port: "note_cv"}
	}
	gateOut := ctx.Out.Buffer("gate_out")
	velocityOut := ctx.Out.Buffer("velocity_cv")
	triggerOut := ctx.Out.Buffer("trigger_out")
	eosOut := ctx.Out.Buffer("end_of_sequence")

	if s.active <= 0.5 {
		for _, port := range s.info.Outputs {
			ctx.Out.Zero(port.Name)
		}
		return nil
	}

	bpm := s.bpmMod.Modulate(s.bpm, ctx.In.CVValue("bpm_cv"))
	transpose := s.transposeMod.Modulate(s.transpose, ctx.In.CVValue("transpose_cv"))
	s.updateTiming(bpm)

	externalClock := ctx.In.Connected("clock_in")

	for i := range noteOut {
		triggered := false
		wrapped := false

		if reset := ctx.In.Sample("reset_in", i); reset > sequencerTrigger {
			if !s.resetWasHigh {
				s.Reset()
			}
			s.resetWasHigh = true
		} else {
			s.resetWasHigh = false
		}

		if runStop := ctx.In.Sample("run_stop_in", i); runStop > sequencerTrigger {
			if !s.runStopWasHigh {
				if s.running {
					s.stop()
				} else {
					s.start()
				}
			}
			s.runStopWasHigh = true
		} else {
			s.runStopWasHigh = false
		}

		if externalClock {
			clock := ctx.In.Sample("clock_in", i)
			high := clock > sequencerTrigger
			if high && !s.clockWasHigh && s.running {
				triggered = true
				wrapped = s.advance()
			}
			s.clockWasHigh = high
		} else if s.running {
			s.sampleCounter++
			if s.sampleCounter >= s.stepLength(s.currentStep) {
				triggered = true
				wrapped = s.advance()
			}
		}

		step := s.steps[s.currentStep]

		if s.running && step.gate && step.note > 0 {
			noteOut[i] = freqToCV(step.note, transpose)
		} else {
			noteOut[i] = 0
		}

		gate := 0.0
		if s.running && step.gate && s.gateRemain > 0 {
			s.gateRemain--
			gate = 5
		}
		if gateOut != nil {
			gateOut[i] = gate
		}
		if velocityOut != nil {
			if s.running && step.gate {
				velocityOut[i] = step.velocity * 10
			} else {
				velocityOut[i] = 0
			}
		}
		if triggerOut != nil {
			if triggered {
				triggerOut[i] = 5
			} else {
				triggerOut[i] = 0
			}
		}
		if eosOut != nil {
			if wrapped {
				eosOut[i] = 5
			} else {
				eosOut[i] = 0
			}
		}
	}
	return nil
}

// SetStep overwrites one pattern step.
func (s *Sequencer) SetStep(index int, note float64, gate bool, velocity float64) error {
	if index < 0 || index >= sequencerSteps {
		return fmt.Errorf("sequencer: step %d out of range", index)
	}
	s.steps[index] = sequenceStep{
		note:     clampf(note, 20, 20000),
		gate:     gate,
		velocity: clampf(velocity, 0, 1),
	}
	return nil
}
