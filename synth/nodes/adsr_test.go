package nodes

import (
	"testing"
)

// runEnvelope processes blocks with a constant gate level and returns
// the final cv_out buffer.
func runEnvelope(t *testing.T, a *ADSR, gate float64, blocks int) []float64 {
	t.Helper()
	ctx := newTestContext(t, a)
	ctx.In.Bind("gate_in", constBuf(gate))
	for i := 0; i < blocks; i++ {
		process(t, a, ctx)
	}
	return ctx.Out.Buffer("cv_out")
}

func newEnvelope(t *testing.T) *ADSR {
	t.Helper()
	n, err := NewADSR("env", testSampleRate)
	if err != nil {
		t.Fatalf("NewADSR: %v", err)
	}
	return n.(*ADSR)
}

func TestADSRIdleUntilGate(t *testing.T) {
	a := newEnvelope(t)
	out := runEnvelope(t, a, 0, 4)
	if !allZero(out) {
		t.Fatal("envelope left idle without a gate")
	}
}

func TestADSRAttackRises(t *testing.T) {
	a := newEnvelope(t)
	setParam(t, a, "attack", 0.1)
	setParam(t, a, "curve", 0.5)

	out := runEnvelope(t, a, 1, 1)
	for i := 1; i < len(out); i++ {
		if out[i] < out[i-1] {
			t.Fatalf("attack not monotonic at sample %d: %v < %v", i, out[i], out[i-1])
		}
	}
	if out[len(out)-1] <= 0 {
		t.Fatal("attack produced no level")
	}
}

func TestADSRReachesSustain(t *testing.T) {
	a := newEnvelope(t)
	setParam(t, a, "attack", 0.001)
	setParam(t, a, "decay", 0.001)
	setParam(t, a, "sustain", 0.6)

	// Attack and decay at 1 ms each complete well within a few blocks.
	out := runEnvelope(t, a, 1, 4)
	last := out[len(out)-1]
	if diff := last - 0.6; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("sustain level = %v, want 0.6", last)
	}
}

func TestADSRReleaseDecaysToZeroWithEOC(t *testing.T) {
	a := newEnvelope(t)
	setParam(t, a, "attack", 0.001)
	setParam(t, a, "decay", 0.001)
	setParam(t, a, "sustain", 0.6)
	setParam(t, a, "release", 0.001)

	ctx := newTestContext(t, a)
	ctx.In.Bind("gate_in", constBuf(1))
	for i := 0; i < 4; i++ {
		process(t, a, ctx)
	}

	// Drop the gate and look for the end-of-cycle pulse.
	ctx.In.Bind("gate_in", constBuf(0))
	sawEOC := false
	for i := 0; i < 4 && !sawEOC; i++ {
		process(t, a, ctx)
		for _, v := range ctx.Out.Buffer("end_of_cycle") {
			if v > 0.5 {
				sawEOC = true
				break
			}
		}
	}
	if !sawEOC {
		t.Fatal("no end_of_cycle pulse after release")
	}

	process(t, a, ctx)
	if !allZero(ctx.Out.Buffer("cv_out")) {
		t.Fatal("envelope did not settle at zero after release")
	}
}

func TestADSRVelocityScalesPeak(t *testing.T) {
	a := newEnvelope(t)
	setParam(t, a, "attack", 0.001)
	setParam(t, a, "decay", 10)
	setParam(t, a, "sustain", 1)

	ctx := newTestContext(t, a)
	ctx.In.Bind("gate_in", constBuf(1))
	ctx.In.Bind("velocity_in", constBuf(0.5))
	for i := 0; i < 2; i++ {
		process(t, a, ctx)
	}

	// Full sensitivity maps velocity 0.5 to a peak of 0.25.
	peak := maxAbs(ctx.Out.Buffer("cv_out"))
	if peak > 0.25+1e-6 {
		t.Fatalf("peak %v exceeds velocity-scaled maximum 0.25", peak)
	}
	if peak < 0.2 {
		t.Fatalf("peak %v suspiciously low for velocity 0.5", peak)
	}
}

func TestADSRRetriggerDuringRelease(t *testing.T) {
	a := newEnvelope(t)
	setParam(t, a, "release", 10)

	ctx := newTestContext(t, a)
	ctx.In.Bind("gate_in", constBuf(1))
	process(t, a, ctx)
	ctx.In.Bind("gate_in", constBuf(0))
	process(t, a, ctx)

	// A fresh gate during release restarts the attack.
	ctx.In.Bind("gate_in", constBuf(1))
	process(t, a, ctx)
	out := ctx.Out.Buffer("cv_out")
	if out[len(out)-1] <= 0 {
		t.Fatal("retrigger during release produced no level")
	}
	if a.stage == stageRelease || a.stage == stageIdle {
		t.Fatalf("stage = %v after retrigger", a.stage)
	}
}
