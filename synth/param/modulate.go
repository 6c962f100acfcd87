package param

import "math"

// Curve selects the mapping used when a CV signal perturbs a base value.
type Curve int

const (
	CurveLinear Curve = iota
	CurveExponential
	CurveLogarithmic
)

// String returns the curve name.
func (c Curve) String() string {
	switch c {
	case CurveLinear:
		return "linear"
	case CurveExponential:
		return "exponential"
	case CurveLogarithmic:
		return "logarithmic"
	default:
		return "unknown"
	}
}

// Modulated wraps a Spec with a CV modulation depth and response curve.
// Depth is the fraction of the full range a unit CV sample sweeps.
type Modulated struct {
	Spec  Spec
	Depth float64
	Curve Curve
}

// NewModulated returns a linear-curve modulated parameter.
// Depth is clamped into [0, 1].
func NewModulated(spec Spec, depth float64) Modulated {
	if math.IsNaN(depth) || depth < 0 {
		depth = 0
	}
	if depth > 1 {
		depth = 1
	}
	return Modulated{Spec: spec, Depth: depth, Curve: CurveLinear}
}

// WithCurve returns a copy with the given response curve.
func (m Modulated) WithCurve(curve Curve) Modulated {
	m.Curve = curve
	return m
}

// Modulate blends base with a CV sample under the configured curve.
// The result is always inside [Spec.Min, Spec.Max], for any finite CV
// input and any depth, so modulation can never push a control outside
// its legal range.
func (m Modulated) Modulate(base, cv float64) float64 {
	spanned := m.Spec.Max - m.Spec.Min
	if spanned <= 0 {
		return m.Spec.Min
	}

	mod := cv * m.Depth * spanned

	var out float64
	switch m.Curve {
	case CurveExponential:
		normalized := (base - m.Spec.Min) / spanned
		out = m.Spec.Min + normalized*math.Pow(2, mod)*spanned
	case CurveLogarithmic:
		arg := mod + 1
		if arg <= 0 {
			return m.Spec.Min
		}
		normalized := (base - m.Spec.Min) / spanned
		out = m.Spec.Min + normalized*math.Log(arg)*spanned
	default:
		out = base + mod
	}

	return m.Spec.Clamp(out)
}
