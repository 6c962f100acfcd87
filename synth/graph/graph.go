package graph

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// Descriptor is the graph's topology-side record of one node: identity,
// declared ports, and a parameter snapshot for persistence and
// introspection. The matching live processing instance is owned by the
// engine and correlated by id.
type Descriptor struct {
	ID      uuid.UUID
	Name    string
	Type    string
	Params  map[string]float64
	Specs   []param.Spec
	Inputs  []node.Port
	Outputs []node.Port
}

// DescribeNode builds a Descriptor from a live node instance.
func DescribeNode(n node.Node) *Descriptor {
	info := n.Info()
	return &Descriptor{
		ID:      info.ID,
		Name:    info.Name,
		Type:    info.Type,
		Params:  n.Parameters(),
		Specs:   n.ParameterSpecs(),
		Inputs:  append([]node.Port(nil), info.Inputs...),
		Outputs: append([]node.Port(nil), info.Outputs...),
	}
}

func (d *Descriptor) clone() *Descriptor {
	params := make(map[string]float64, len(d.Params))
	for k, v := range d.Params {
		params[k] = v
	}
	return &Descriptor{
		ID:      d.ID,
		Name:    d.Name,
		Type:    d.Type,
		Params:  params,
		Specs:   append([]param.Spec(nil), d.Specs...),
		Inputs:  append([]node.Port(nil), d.Inputs...),
		Outputs: append([]node.Port(nil), d.Outputs...),
	}
}

func (d *Descriptor) spec(name string) (param.Spec, bool) {
	for _, s := range d.Specs {
		if s.Name == name {
			return s, true
		}
	}
	return param.Spec{}, false
}

// Connection is a directed edge from one node's output port to another
// node's input port. Multiple connections may target the same input
// (summed at routing time) or originate from the same output (fan-out).
type Connection struct {
	SourceNode uuid.UUID
	SourcePort string
	TargetNode uuid.UUID
	TargetPort string
}

// Graph owns node descriptors, connections, and the processing order.
// It holds no DSP state. All mutations validate synchronously and are
// rejected atomically: a failed call leaves nodes, connections and
// order exactly as they were.
//
// Graph is not safe for concurrent use; the engine serializes access
// behind its topology lock.
type Graph struct {
	nodes       map[uuid.UUID]*Descriptor
	insertion   []uuid.UUID
	connections []Connection
	order       []uuid.UUID
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[uuid.UUID]*Descriptor)}
}

// AddNode inserts desc into the graph. Adding a node cannot create a
// cycle, so the processing order is extended in place.
func (g *Graph) AddNode(desc *Descriptor) error {
	if desc == nil {
		return errors.New("graph: nil descriptor")
	}
	if _, exists := g.nodes[desc.ID]; exists {
		return fmt.Errorf("graph: duplicate node id %s", desc.ID)
	}
	g.nodes[desc.ID] = desc.clone()
	g.insertion = append(g.insertion, desc.ID)
	g.order = append(g.order, desc.ID)
	return nil
}

// RemoveNode deletes the descriptor and every connection referencing it
// as source or target, then recomputes the processing order.
func (g *Graph) RemoveNode(id uuid.UUID) error {
	if _, exists := g.nodes[id]; !exists {
		return &NodeNotFoundError{ID: id}
	}

	delete(g.nodes, id)
	g.insertion = removeID(g.insertion, id)

	kept := g.connections[:0]
	for _, c := range g.connections {
		if c.SourceNode != id && c.TargetNode != id {
			kept = append(kept, c)
		}
	}
	g.connections = kept

	// Removing edges cannot introduce a cycle.
	order, err := sortTopological(g.insertion, g.connections)
	if err != nil {
		return err
	}
	g.order = order
	return nil
}

// Connect adds conn after validating both endpoints and proving the
// result stays acyclic. On any failure the graph is unchanged and the
// previous processing order is preserved.
func (g *Graph) Connect(conn Connection) error {
	source, exists := g.nodes[conn.SourceNode]
	if !exists {
		return &NodeNotFoundError{ID: conn.SourceNode}
	}
	target, exists := g.nodes[conn.TargetNode]
	if !exists {
		return &NodeNotFoundError{ID: conn.TargetNode}
	}
	if conn.SourceNode == conn.TargetNode {
		return &ConnectionError{Conn: conn, Reason: "cannot connect node to itself"}
	}

	sourcePort, ok := findPort(source.Outputs, conn.SourcePort)
	if !ok {
		return &PortNotFoundError{Node: conn.SourceNode, Port: conn.SourcePort}
	}
	targetPort, ok := findPort(target.Inputs, conn.TargetPort)
	if !ok {
		return &PortNotFoundError{Node: conn.TargetNode, Port: conn.TargetPort}
	}
	if sourcePort.Type != targetPort.Type {
		return &ConnectionError{
			Conn:   conn,
			Reason: "port types do not match (" + sourcePort.Type.String() + " -> " + targetPort.Type.String() + ")",
		}
	}

	for _, existing := range g.connections {
		if existing == conn {
			return &ConnectionError{Conn: conn, Reason: "connection already exists"}
		}
	}

	candidate := append(append([]Connection(nil), g.connections...), conn)
	order, err := sortTopological(g.insertion, candidate)
	if err != nil {
		return err
	}

	g.connections = candidate
	g.order = order
	return nil
}

// Disconnect removes the connection matching the full 4-tuple, then
// recomputes the processing order.
func (g *Graph) Disconnect(conn Connection) error {
	for i, existing := range g.connections {
		if existing != conn {
			continue
		}
		g.connections = append(g.connections[:i], g.connections[i+1:]...)
		order, err := sortTopological(g.insertion, g.connections)
		if err != nil {
			return err
		}
		g.order = order
		return nil
	}
	return &ConnectionNotFoundError{Conn: conn}
}

// SetParam updates one value in a node's parameter snapshot. Unknown
// parameters and out-of-range values are rejected without mutation.
func (g *Graph) SetParam(id uuid.UUID, name string, value float64) error {
	desc, exists := g.nodes[id]
	if !exists {
		return &NodeNotFoundError{ID: id}
	}
	spec, ok := desc.spec(name)
	if !ok {
		if _, known := desc.Params[name]; !known {
			return &param.NotFoundError{Name: name}
		}
		// Parameter known but spec-less (plugin snapshot); store as-is.
		desc.Params[name] = value
		return nil
	}
	validated, err := spec.Validate(value)
	if err != nil {
		return err
	}
	desc.Params[name] = validated
	return nil
}

// Rename updates a node's display name.
func (g *Graph) Rename(id uuid.UUID, name string) error {
	desc, exists := g.nodes[id]
	if !exists {
		return &NodeNotFoundError{ID: id}
	}
	desc.Name = name
	return nil
}

// Node returns a copy of the descriptor for id.
func (g *Graph) Node(id uuid.UUID) (*Descriptor, bool) {
	desc, exists := g.nodes[id]
	if !exists {
		return nil, false
	}
	return desc.clone(), true
}

// FindByName returns the id of the first node with the given display
// name, in insertion order.
func (g *Graph) FindByName(name string) (uuid.UUID, bool) {
	for _, id := range g.insertion {
		if g.nodes[id].Name == name {
			return id, true
		}
	}
	return uuid.Nil, false
}

// Nodes returns descriptor copies in insertion order.
func (g *Graph) Nodes() []*Descriptor {
	out := make([]*Descriptor, 0, len(g.insertion))
	for _, id := range g.insertion {
		out = append(out, g.nodes[id].clone())
	}
	return out
}

// Connections returns a copy of the connection list.
func (g *Graph) Connections() []Connection {
	return append([]Connection(nil), g.connections...)
}

// Order returns a copy of the current processing order.
func (g *Graph) Order() []uuid.UUID {
	return append([]uuid.UUID(nil), g.order...)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Clear removes every node and connection.
func (g *Graph) Clear() {
	g.nodes = make(map[uuid.UUID]*Descriptor)
	g.insertion = nil
	g.connections = nil
	g.order = nil
}

func findPort(ports []node.Port, name string) (node.Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return node.Port{}, false
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
