package param

import "fmt"

// NotFoundError reports a lookup of an unbound parameter name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("parameter %q not found", e.Name)
}

// OutOfRangeError reports a value outside [Min, Max]. Clamped carries
// the nearest legal value so callers that prefer clamping over
// rejection can still proceed.
type OutOfRangeError struct {
	Name    string
	Value   float64
	Clamped float64
	Min     float64
	Max     float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("parameter %q value %g out of range [%g, %g]", e.Name, e.Value, e.Min, e.Max)
}
