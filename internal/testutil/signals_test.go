package testutil

import (
	"math"
	"testing"
)

func TestSine(t *testing.T) {
	s := Sine(1000, 48000, 1.0, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}
	// First sample of a sine at phase 0 should be 0.
	if math.Abs(s[0]) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	for i, v := range s {
		if v < -1 || v > 1 {
			t.Fatalf("s[%d] = %v out of range", i, v)
		}
	}
}

func TestNoiseReproducible(t *testing.T) {
	a := Noise(42, 1.0, 64)
	b := Noise(42, 1.0, 64)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("noise not deterministic at index %d", i)
		}
	}

	c := Noise(43, 1.0, 64)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestImpulse(t *testing.T) {
	imp := Impulse(8, 3)
	for i, v := range imp {
		if i == 3 {
			if v != 1 {
				t.Fatalf("imp[3] = %v, want 1", v)
			}
		} else if v != 0 {
			t.Fatalf("imp[%d] = %v, want 0", i, v)
		}
	}

	for i, v := range Impulse(4, 10) {
		if v != 0 {
			t.Fatalf("imp[%d] = %v, want all zeros for out-of-bounds pos", i, v)
		}
	}
}

func TestDCAndRamp(t *testing.T) {
	for i, v := range DC(0.5, 4) {
		if v != 0.5 {
			t.Fatalf("DC[%d] = %v, want 0.5", i, v)
		}
	}

	r := Ramp(4)
	want := []float64{0, 0.25, 0.5, 0.75}
	RequireSliceNearlyEqual(t, r, want, 1e-15)
}

func TestGate(t *testing.T) {
	g := Gate(8, 2, 3, 5)
	want := []float64{0, 0, 5, 5, 5, 0, 0, 0}
	RequireSliceNearlyEqual(t, g, want, 0)

	// A gate running past the end is truncated.
	g = Gate(4, 3, 10, 1)
	want = []float64{0, 0, 0, 1}
	RequireSliceNearlyEqual(t, g, want, 0)
}

func TestClockPulses(t *testing.T) {
	c := ClockPulses(10, 4, 5)
	want := []float64{5, 0, 0, 0, 5, 0, 0, 0, 5, 0}
	RequireSliceNearlyEqual(t, c, want, 0)

	if edges := CountRisingEdges(c, 2.5); edges != 3 {
		t.Fatalf("CountRisingEdges = %d, want 3", edges)
	}

	for _, period := range []int{0, -4} {
		for i, v := range ClockPulses(8, period, 5) {
			if v != 0 {
				t.Fatalf("ClockPulses(8, %d, 5)[%d] = %v, want silence", period, i, v)
			}
		}
	}
}
