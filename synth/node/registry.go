package node

import (
	"errors"
	"fmt"
	"sort"
)

// Factory builds one live node instance with the given display name at
// the given sample rate.
type Factory func(name string, sampleRate float64) (Node, error)

// Registry maps node type names to their factories. It is an explicit
// dependency: construct one, register the types you want available
// (built-ins, plugin-provided, test doubles), and hand it to the
// engine. There is no ambient global registry.
type Registry struct {
	factories map[string]Factory
}

var errDuplicateType = errors.New("duplicate node type")

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given node type.
func (r *Registry) Register(nodeType string, factory Factory) error {
	if nodeType == "" {
		return errors.New("empty node type")
	}
	if factory == nil {
		return errors.New("nil factory")
	}
	if _, exists := r.factories[nodeType]; exists {
		return fmt.Errorf("%w: %s", errDuplicateType, nodeType)
	}
	r.factories[nodeType] = factory
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(nodeType string, factory Factory) {
	err := r.Register(nodeType, factory)
	if err != nil {
		panic("node registry: " + err.Error())
	}
}

// Lookup returns the factory for the given node type, or nil.
func (r *Registry) Lookup(nodeType string) Factory {
	return r.factories[nodeType]
}

// Create builds a live instance of nodeType. Unknown types yield an
// *UnknownTypeError.
func (r *Registry) Create(nodeType, name string, sampleRate float64) (Node, error) {
	factory := r.factories[nodeType]
	if factory == nil {
		return nil, &UnknownTypeError{Type: nodeType}
	}
	n, err := factory(name, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("create %s node %q: %w", nodeType, name, err)
	}
	return n, nil
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
