package node

import (
	"github.com/google/uuid"

	"github.com/cwbudde/algo-synth/synth/param"
)

// PortType distinguishes audible signal ports from control-voltage
// ports. The distinction is advisory for routing and UI; samples are
// plain float64 either way.
type PortType int

const (
	PortAudio PortType = iota
	PortCV
)

// String returns the port type name.
func (t PortType) String() string {
	switch t {
	case PortAudio:
		return "audio"
	case PortCV:
		return "cv"
	default:
		return "unknown"
	}
}

// Port declares one named connection point on a node. Ports are
// immutable once declared by a node factory.
type Port struct {
	Name        string
	Type        PortType
	Optional    bool
	Description string
}

// AudioIn declares a required audio input port.
func AudioIn(name, description string) Port {
	return Port{Name: name, Type: PortAudio, Description: description}
}

// AudioOut declares an audio output port.
func AudioOut(name, description string) Port {
	return Port{Name: name, Type: PortAudio, Description: description}
}

// CV declares a control-voltage port.
func CV(name, description string) Port {
	return Port{Name: name, Type: PortCV, Description: description}
}

// AsOptional returns a copy of the port marked optional. Unconnected
// optional ports read as all-zero buffers.
func (p Port) AsOptional() Port {
	p.Optional = true
	return p
}

// Category groups node types for browsing and engine routing. Nodes in
// CategoryOutput are terminal sinks whose "mix" buffer the engine
// accumulates into the device output.
type Category int

const (
	CategoryGenerator Category = iota
	CategoryProcessor
	CategoryController
	CategoryUtility
	CategoryMixing
	CategoryAnalyzer
	CategoryOutput
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryGenerator:
		return "generator"
	case CategoryProcessor:
		return "processor"
	case CategoryController:
		return "controller"
	case CategoryUtility:
		return "utility"
	case CategoryMixing:
		return "mixing"
	case CategoryAnalyzer:
		return "analyzer"
	case CategoryOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Info is the static description of a node instance: identity, declared
// ports, latency and bypass capability.
type Info struct {
	ID             uuid.UUID
	Name           string
	Type           string
	Category       Category
	Description    string
	Inputs         []Port
	Outputs        []Port
	Latency        int
	SupportsBypass bool
}

// NewInfo returns an Info with a fresh id.
func NewInfo(name, nodeType string, category Category) Info {
	return Info{
		ID:       uuid.New(),
		Name:     name,
		Type:     nodeType,
		Category: category,
	}
}

// Input returns the declared input port with the given name.
func (info Info) Input(name string) (Port, bool) {
	for _, p := range info.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// Output returns the declared output port with the given name.
func (info Info) Output(name string) (Port, bool) {
	for _, p := range info.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// Node is the contract every signal-processing unit implements.
//
// Process reads its resolved input buffers and fills its pre-allocated
// output buffers for one block. Implementations must tolerate input
// slices shorter than the block (missing trailing samples read as
// zero), write only within their output slices, and keep per-call work
// bounded by the block size. A node whose "active" parameter is off
// must emit silence or pass its primary input through, per its
// documented contract, and must not advance internal state.
//
// Reset clears internal DSP state (phase, filter history, envelope
// stage) without touching parameter values.
type Node interface {
	Info() Info
	Process(ctx *Context) error
	Reset()

	// Uniform parameter surface, typically provided by embedding
	// *param.Set.
	SetParameter(name string, value float64) error
	Parameter(name string) (float64, error)
	Parameters() map[string]float64
	ParameterSpecs() []param.Spec
}

// ActiveParam is the conventional activity flag carried by every
// built-in node.
var ActiveParam = param.New("active", 0, 1, 1)

// IsActive reads the conventional "active" parameter from a node,
// defaulting to active when the node does not expose one.
func IsActive(n Node) bool {
	v, err := n.Parameter("active")
	if err != nil {
		return true
	}
	return v > 0.5
}
