package param

import (
	"math"
	"testing"
)

func TestModulateLinear(t *testing.T) {
	m := NewModulated(New("test", 0, 100, 50), 0.5)

	if got := m.Modulate(50, 0); got != 50 {
		t.Fatalf("zero CV moved value: %v", got)
	}
	if got := m.Modulate(50, 0.5); got <= 50 {
		t.Fatalf("positive CV did not raise value: %v", got)
	}
	if got := m.Modulate(50, -0.5); got >= 50 {
		t.Fatalf("negative CV did not lower value: %v", got)
	}
	// 0.5 CV at depth 0.5 over a range of 100 adds 25.
	if got := m.Modulate(50, 0.5); got != 75 {
		t.Fatalf("Modulate(50, 0.5) = %v, want 75", got)
	}
}

func TestModulateAlwaysInRange(t *testing.T) {
	curves := []Curve{CurveLinear, CurveExponential, CurveLogarithmic}
	cvs := []float64{0, 0.1, -0.1, 1, -1, 10, -10, 1e6, -1e6, 1e300, -1e300}
	depths := []float64{0, 0.25, 0.5, 1}
	bases := []float64{20, 440, 20000}

	spec := New("frequency", 20, 20000, 440)
	for _, curve := range curves {
		for _, depth := range depths {
			m := NewModulated(spec, depth).WithCurve(curve)
			for _, base := range bases {
				for _, cv := range cvs {
					got := m.Modulate(base, cv)
					if math.IsNaN(got) || got < spec.Min || got > spec.Max {
						t.Fatalf("%v curve, depth %v: Modulate(%v, %v) = %v escaped [%v, %v]",
							curve, depth, base, cv, got, spec.Min, spec.Max)
					}
				}
			}
		}
	}
}

func TestModulateZeroDepthIsIdentity(t *testing.T) {
	m := NewModulated(New("cutoff", 20, 20000, 1000), 0)

	for _, cv := range []float64{-5, -1, 0, 1, 5} {
		if got := m.Modulate(1000, cv); got != 1000 {
			t.Fatalf("depth 0, cv %v: got %v, want 1000", cv, got)
		}
	}
}

func TestModulateExponentialCurve(t *testing.T) {
	m := NewModulated(New("frequency", 20, 20000, 440), 1).WithCurve(CurveExponential)

	up := m.Modulate(440, 0.001)
	down := m.Modulate(440, -0.001)
	if up <= 440 {
		t.Fatalf("small positive CV should raise frequency: %v", up)
	}
	if down >= 440 {
		t.Fatalf("small negative CV should lower frequency: %v", down)
	}

	// Large positive CV saturates at the top of the range.
	if got := m.Modulate(440, 10); got != 20000 {
		t.Fatalf("saturated modulation = %v, want 20000", got)
	}
}

func TestModulateLogarithmicGuard(t *testing.T) {
	m := NewModulated(New("level", 0, 1, 0.5), 1).WithCurve(CurveLogarithmic)

	// A CV driving the log argument non-positive must pin to Min, not NaN.
	got := m.Modulate(0.5, -100)
	if math.IsNaN(got) {
		t.Fatal("logarithmic curve produced NaN")
	}
	if got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestNewModulatedClampsDepth(t *testing.T) {
	if m := NewModulated(New("x", 0, 1, 0), 2); m.Depth != 1 {
		t.Fatalf("depth = %v, want 1", m.Depth)
	}
	if m := NewModulated(New("x", 0, 1, 0), -1); m.Depth != 0 {
		t.Fatalf("depth = %v, want 0", m.Depth)
	}
	if m := NewModulated(New("x", 0, 1, 0), math.NaN()); m.Depth != 0 {
		t.Fatalf("NaN depth = %v, want 0", m.Depth)
	}
}

func TestCurveString(t *testing.T) {
	tests := []struct {
		curve Curve
		want  string
	}{
		{CurveLinear, "linear"},
		{CurveExponential, "exponential"},
		{CurveLogarithmic, "logarithmic"},
		{Curve(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.curve.String(); got != tt.want {
			t.Fatalf("%d.String() = %q, want %q", tt.curve, got, tt.want)
		}
	}
}
