package patch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-synth/synth/engine"
	"github.com/cwbudde/algo-synth/synth/graph"
	"github.com/cwbudde/algo-synth/synth/param"
)

// Node is the persisted form of one graph node.
type Node struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Type       string             `json:"type"`
	Parameters map[string]float64 `json:"parameters"`
}

// Connection is the persisted form of one edge.
type Connection struct {
	SourceNode string `json:"source_node"`
	SourcePort string `json:"source_port"`
	TargetNode string `json:"target_node"`
	TargetPort string `json:"target_port"`
}

// Patch is a complete serialized graph: nodes with their parameter
// snapshots plus the connection list. Node ids are only meaningful
// within one file; applying a patch mints fresh instance ids.
type Patch struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
}

// Snapshot captures the engine's current graph as a Patch.
func Snapshot(e *engine.Engine) *Patch {
	p := &Patch{}
	for _, desc := range e.Nodes() {
		p.Nodes = append(p.Nodes, Node{
			ID:         desc.ID.String(),
			Name:       desc.Name,
			Type:       desc.Type,
			Parameters: desc.Params,
		})
	}
	for _, conn := range e.Connections() {
		p.Connections = append(p.Connections, Connection{
			SourceNode: conn.SourceNode.String(),
			SourcePort: conn.SourcePort,
			TargetNode: conn.TargetNode.String(),
			TargetPort: conn.TargetPort,
		})
	}
	return p
}

// Write serializes the patch as indented JSON.
func (p *Patch) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// Read parses a patch from JSON.
func Read(r io.Reader) (*Patch, error) {
	var p Patch
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("patch: decode: %w", err)
	}
	return &p, nil
}

// SaveFile writes the engine's current graph to path.
func SaveFile(e *engine.Engine, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("patch: %w", err)
	}
	defer f.Close()
	if err := Snapshot(e).Write(f); err != nil {
		return err
	}
	return f.Close()
}

// LoadFile reads a patch from path and applies it to the engine.
func LoadFile(e *engine.Engine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("patch: %w", err)
	}
	defer f.Close()
	p, err := Read(f)
	if err != nil {
		return err
	}
	return Apply(e, p)
}

// Apply replaces the engine's graph with the patch: rendering is
// stopped, the graph cleared, nodes rebuilt with fresh ids, saved
// parameters reapplied, connections restored, and rendering resumed if
// it was running. Parameters the current node build no longer knows are
// skipped so newer builds still load older files.
//
// On failure the engine is left cleared and stopped; a half-applied
// patch never renders.
func Apply(e *engine.Engine, p *Patch) error {
	wasRunning := e.Running()
	e.Stop()
	e.Clear()

	ids := make(map[string]uuid.UUID, len(p.Nodes))
	for _, saved := range p.Nodes {
		id, err := e.CreateNode(saved.Type, saved.Name)
		if err != nil {
			return fmt.Errorf("patch: node %q: %w", saved.Name, err)
		}
		ids[saved.ID] = id
		for name, value := range saved.Parameters {
			if err := e.SetParameter(id, name, value); err != nil {
				// Unknown or since-renamed parameters in an older file
				// are skipped; anything else, such as an out-of-range
				// value, means the file does not describe the graph it
				// claims to and the load fails.
				var notFound *param.NotFoundError
				if errors.As(err, &notFound) {
					continue
				}
				return fmt.Errorf("patch: node %q parameter %q: %w", saved.Name, name, err)
			}
		}
	}

	for _, saved := range p.Connections {
		source, ok := ids[saved.SourceNode]
		if !ok {
			return fmt.Errorf("patch: connection references unknown node %s", saved.SourceNode)
		}
		target, ok := ids[saved.TargetNode]
		if !ok {
			return fmt.Errorf("patch: connection references unknown node %s", saved.TargetNode)
		}
		conn := graph.Connection{
			SourceNode: source,
			SourcePort: saved.SourcePort,
			TargetNode: target,
			TargetPort: saved.TargetPort,
		}
		if err := e.Connect(conn); err != nil {
			return fmt.Errorf("patch: connect %s.%s -> %s.%s: %w",
				saved.SourceNode, saved.SourcePort, saved.TargetNode, saved.TargetPort, err)
		}
	}

	if wasRunning {
		e.Start()
	}
	return nil
}
