package param

import (
	"fmt"
	"math"
	"sort"
)

// Spec describes one named, bounded control value.
type Spec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
	Unit    string
}

// New returns a Spec with an empty unit label.
func New(name string, min, max, def float64) Spec {
	return Spec{Name: name, Min: min, Max: max, Default: def}
}

// WithUnit returns a copy of the spec with the given unit label.
func (s Spec) WithUnit(unit string) Spec {
	s.Unit = unit
	return s
}

// Clamp forces v into [Min, Max]. NaN maps to Min.
func (s Spec) Clamp(v float64) float64 {
	if math.IsNaN(v) || v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}
	return v
}

// Validate clamps v into [Min, Max]. The clamped value is always
// returned; if clamping changed the value, an *OutOfRangeError is
// returned alongside it so callers can choose to accept the clamp or
// reject the mutation.
func (s Spec) Validate(v float64) (float64, error) {
	clamped := s.Clamp(v)
	if clamped != v {
		return clamped, &OutOfRangeError{
			Name:    s.Name,
			Value:   v,
			Clamped: clamped,
			Min:     s.Min,
			Max:     s.Max,
		}
	}
	return clamped, nil
}

// FormatValue renders v for display, appending the unit when present.
func (s Spec) FormatValue(v float64) string {
	if s.Unit == "" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, s.Unit)
}

// Set is a bind-by-pointer parameter table. Node implementations
// register each parameter once with the address of its backing field
// and get a uniform get/set/enumerate surface in return, so callers
// never need to know concrete node types.
type Set struct {
	specs   []Spec
	targets map[string]*float64
}

// NewSet returns an empty parameter set.
func NewSet() *Set {
	return &Set{targets: make(map[string]*float64)}
}

// Bind registers spec and points it at target, initializing *target to
// the spec default. Binding the same name twice panics; parameter
// tables are wired once in a node factory.
func (ps *Set) Bind(spec Spec, target *float64) {
	if target == nil {
		panic("param: bind " + spec.Name + ": nil target")
	}
	if _, dup := ps.targets[spec.Name]; dup {
		panic("param: duplicate parameter " + spec.Name)
	}
	ps.specs = append(ps.specs, spec)
	ps.targets[spec.Name] = target
	*target = spec.Default
}

// SetParameter validates value against the bound spec and stores it.
// Out-of-range values are rejected, not silently clamped.
func (ps *Set) SetParameter(name string, value float64) error {
	target, ok := ps.targets[name]
	if !ok {
		return &NotFoundError{Name: name}
	}
	spec, _ := ps.spec(name)
	validated, err := spec.Validate(value)
	if err != nil {
		return err
	}
	*target = validated
	return nil
}

// Parameter returns the current value of the named parameter.
func (ps *Set) Parameter(name string) (float64, error) {
	target, ok := ps.targets[name]
	if !ok {
		return 0, &NotFoundError{Name: name}
	}
	return *target, nil
}

// Parameters returns a snapshot of every bound parameter value.
func (ps *Set) Parameters() map[string]float64 {
	out := make(map[string]float64, len(ps.targets))
	for name, target := range ps.targets {
		out[name] = *target
	}
	return out
}

// ParameterSpecs returns the bound specs sorted by name.
func (ps *Set) ParameterSpecs() []Spec {
	out := make([]Spec, len(ps.specs))
	copy(out, ps.specs)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Has reports whether the named parameter is bound.
func (ps *Set) Has(name string) bool {
	_, ok := ps.targets[name]
	return ok
}

func (ps *Set) spec(name string) (Spec, bool) {
	for _, s := range ps.specs {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}
