package nodes

import (
	"math"
	"testing"
)

func TestOscillatorSineMatchesReference(t *testing.T) {
	n, err := NewOscillator("osc", testSampleRate)
	if err != nil {
		t.Fatalf("NewOscillator: %v", err)
	}
	setParam(t, n, "frequency", 440)
	setParam(t, n, "amplitude", 1)

	ctx := newTestContext(t, n)
	process(t, n, ctx)

	out := ctx.Out.Buffer("audio_out")
	inc := 2 * math.Pi * 440 / testSampleRate
	for i := 0; i < 16; i++ {
		want := math.Sin(inc * float64(i))
		if math.Abs(out[i]-want) > 1e-9 {
			t.Fatalf("sample %d = %v, want %v", i, out[i], want)
		}
	}
}

func TestOscillatorPhaseContinuousAcrossBlocks(t *testing.T) {
	n, err := NewOscillator("osc", testSampleRate)
	if err != nil {
		t.Fatalf("NewOscillator: %v", err)
	}
	setParam(t, n, "amplitude", 1)

	ctx := newTestContext(t, n)
	process(t, n, ctx)
	process(t, n, ctx)

	out := ctx.Out.Buffer("audio_out")
	inc := 2 * math.Pi * 440 / testSampleRate
	want := math.Sin(math.Mod(inc*float64(testBlockSize), 2*math.Pi))
	if math.Abs(out[0]-want) > 1e-9 {
		t.Fatalf("second block starts at %v, want %v", out[0], want)
	}
}

func TestOscillatorWaveformShapes(t *testing.T) {
	tests := []struct {
		name     string
		waveform float64
		// Probe values at phase 0 and phase pi (normalized 0.5).
		atZero float64
		atHalf float64
	}{
		{"triangle", waveTriangle, -1, 1},
		{"sawtooth", waveSawtooth, -1, 0},
		{"pulse", wavePulse, 1, -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := waveSample(int(tc.waveform), 0, 0.5); math.Abs(got-tc.atZero) > 1e-9 {
				t.Errorf("phase 0: got %v, want %v", got, tc.atZero)
			}
			if got := waveSample(int(tc.waveform), math.Pi, 0.5); math.Abs(got-tc.atHalf) > 1e-9 {
				t.Errorf("phase pi: got %v, want %v", got, tc.atHalf)
			}
		})
	}
}

func TestOscillatorFrequencyCVIsExponential(t *testing.T) {
	// +1V on an exponential 1V/oct input doubles the frequency, so the
	// rendered waveform should complete twice as many cycles.
	countCycles := func(cv float64) int {
		n, err := NewOscillator("osc", testSampleRate)
		if err != nil {
			t.Fatalf("NewOscillator: %v", err)
		}
		setParam(t, n, "frequency", 100)
		setParam(t, n, "amplitude", 1)

		c := newTestContext(t, n)
		if cv != 0 {
			c.In.Bind("frequency_cv", constBuf(cv))
		}

		crossings := 0
		prev := 0.0
		for block := 0; block < 40; block++ {
			process(t, n, c)
			out := c.Out.Buffer("audio_out")
			for _, v := range out {
				if prev < 0 && v >= 0 {
					crossings++
				}
				prev = v
			}
		}
		return crossings
	}

	base := countCycles(0)
	doubled := countCycles(1)
	if doubled < base*2-2 || doubled > base*2+2 {
		t.Fatalf("cycles at +1V = %d, want about %d", doubled, base*2)
	}
}

func TestOscillatorAmplitudeBounds(t *testing.T) {
	n, err := NewOscillator("osc", testSampleRate)
	if err != nil {
		t.Fatalf("NewOscillator: %v", err)
	}
	setParam(t, n, "amplitude", 0.25)

	ctx := newTestContext(t, n)
	process(t, n, ctx)

	if peak := maxAbs(ctx.Out.Buffer("audio_out")); peak > 0.25+1e-9 {
		t.Fatalf("peak %v exceeds amplitude 0.25", peak)
	}
}
