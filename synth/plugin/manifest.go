package plugin

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-synth/synth/node"
)

// ManifestFile is the expected manifest name inside a plugin directory.
const ManifestFile = "manifest.yaml"

// Manifest describes one plugin directory: identity plus the node
// types it contributes.
type Manifest struct {
	Name    string     `yaml:"name"`
	Version string     `yaml:"version"`
	Author  string     `yaml:"author,omitempty"`
	Nodes   []NodeSpec `yaml:"nodes"`
}

// NodeSpec declares one scripted node type.
type NodeSpec struct {
	Type        string      `yaml:"type"`
	Description string      `yaml:"description,omitempty"`
	Category    string      `yaml:"category,omitempty"`
	Script      string      `yaml:"script"`
	Inputs      []PortSpec  `yaml:"inputs,omitempty"`
	Outputs     []PortSpec  `yaml:"outputs"`
	Params      []ParamSpec `yaml:"params,omitempty"`
}

// PortSpec declares one port of a scripted node.
type PortSpec struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Optional    bool   `yaml:"optional,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// ParamSpec declares one parameter of a scripted node.
type ParamSpec struct {
	Name    string  `yaml:"name"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Default float64 `yaml:"default"`
	Unit    string  `yaml:"unit,omitempty"`
}

// ReadManifest parses and validates the manifest in dir.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("plugin: parse %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("plugin: invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.Name == "" {
		return fmt.Errorf("missing plugin name")
	}
	if len(m.Nodes) == 0 {
		return fmt.Errorf("plugin %q declares no nodes", m.Name)
	}
	for _, n := range m.Nodes {
		if n.Type == "" {
			return fmt.Errorf("plugin %q: node with empty type", m.Name)
		}
		if n.Script == "" {
			return fmt.Errorf("node %q: missing script", n.Type)
		}
		if len(n.Outputs) == 0 {
			return fmt.Errorf("node %q: no outputs", n.Type)
		}
		for _, p := range append(append([]PortSpec{}, n.Inputs...), n.Outputs...) {
			if p.Name == "" {
				return fmt.Errorf("node %q: port with empty name", n.Type)
			}
			if _, err := portType(p.Type); err != nil {
				return fmt.Errorf("node %q port %q: %w", n.Type, p.Name, err)
			}
		}
		for _, p := range n.Params {
			if p.Name == "" {
				return fmt.Errorf("node %q: parameter with empty name", n.Type)
			}
			if p.Min > p.Max {
				return fmt.Errorf("node %q parameter %q: min %v above max %v",
					n.Type, p.Name, p.Min, p.Max)
			}
		}
	}
	return nil
}

func portType(s string) (node.PortType, error) {
	switch s {
	case "audio", "":
		return node.PortAudio, nil
	case "cv":
		return node.PortCV, nil
	}
	return 0, fmt.Errorf("unknown port type %q", s)
}

func category(s string) node.Category {
	switch s {
	case "generator":
		return node.CategoryGenerator
	case "controller":
		return node.CategoryController
	case "utility":
		return node.CategoryUtility
	case "mixing":
		return node.CategoryMixing
	case "analyzer":
		return node.CategoryAnalyzer
	case "output":
		return node.CategoryOutput
	default:
		return node.CategoryProcessor
	}
}

// ports converts the declared specs into node ports.
func ports(specs []PortSpec, input bool) []node.Port {
	out := make([]node.Port, 0, len(specs))
	for _, s := range specs {
		pt, _ := portType(s.Type)
		p := node.Port{Name: s.Name, Type: pt, Description: s.Description}
		if input && s.Optional {
			p = p.AsOptional()
		}
		out = append(out, p)
	}
	return out
}
