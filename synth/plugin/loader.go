package plugin

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-synth/synth/node"
)

// Plugin is one loaded plugin directory.
type Plugin struct {
	Manifest *Manifest
	Dir      string
}

// LoadDir reads every plugin under dir. A directory without a manifest
// is skipped; a directory with a broken manifest is an error.
func LoadDir(dir string) ([]*Plugin, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("plugin: scan %s: %w", dir, err)
	}

	var plugins []*Plugin
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(sub, ManifestFile)); err != nil {
			continue
		}
		m, err := ReadManifest(sub)
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, &Plugin{Manifest: m, Dir: sub})
	}
	return plugins, nil
}

// Register adds every node type of the given plugins to reg. Each
// created instance gets a fresh Lua state loaded from the plugin's
// script file.
func Register(reg *node.Registry, log *slog.Logger, plugins ...*Plugin) error {
	if log == nil {
		log = slog.Default()
	}
	for _, p := range plugins {
		for _, spec := range p.Manifest.Nodes {
			spec := spec
			scriptPath := filepath.Join(p.Dir, spec.Script)
			if _, err := os.Stat(scriptPath); err != nil {
				return fmt.Errorf("plugin %s: script %s: %w", p.Manifest.Name, spec.Script, err)
			}

			err := reg.Register(spec.Type, func(name string, sampleRate float64) (node.Node, error) {
				return newLuaNode(name, sampleRate, spec, scriptPath)
			})
			if err != nil {
				return fmt.Errorf("plugin %s: %w", p.Manifest.Name, err)
			}
			log.Info("registered plugin node",
				"plugin", p.Manifest.Name,
				"version", p.Manifest.Version,
				"type", spec.Type)
		}
	}
	return nil
}

// LoadAndRegister is the convenience path used by the CLI: scan dir,
// then register everything found.
func LoadAndRegister(reg *node.Registry, log *slog.Logger, dir string) error {
	plugins, err := LoadDir(dir)
	if err != nil {
		return err
	}
	return Register(reg, log, plugins...)
}
