package plugin

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-synth/synth/node"
)

const gainManifest = `
name: testpack
version: "1.0"
nodes:
  - type: lua_gain
    description: scripted gain
    category: processor
    script: gain.lua
    inputs:
      - name: audio_in
        type: audio
    outputs:
      - name: audio_out
        type: audio
    params:
      - name: gain
        min: 0
        max: 4
        default: 2
`

const gainScript = `
function process(inputs, outputs, params, block_size, sample_rate)
  local input = inputs["audio_in"]
  local output = outputs["audio_out"]
  for i = 1, block_size do
    local v = 0
    if input ~= nil then
      v = input[i] or 0
    end
    output[i] = v * params["gain"]
  end
end

function reset()
end
`

func writePlugin(t *testing.T, root, name, manifest, script, scriptName string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if script != "" {
		if err := os.WriteFile(filepath.Join(dir, scriptName), []byte(script), 0o644); err != nil {
			t.Fatalf("write script: %v", err)
		}
	}
	return dir
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadDirFindsManifests(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "gainpack", gainManifest, gainScript, "gain.lua")

	// Directories without a manifest are skipped silently.
	if err := os.MkdirAll(filepath.Join(root, "not_a_plugin"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	plugins, err := LoadDir(root)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(plugins) != 1 {
		t.Fatalf("LoadDir found %d plugins, want 1", len(plugins))
	}
	if plugins[0].Manifest.Name != "testpack" {
		t.Errorf("plugin name = %q, want testpack", plugins[0].Manifest.Name)
	}
}

func TestLuaNodeProcessesBlock(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "gainpack", gainManifest, gainScript, "gain.lua")

	reg := node.NewRegistry()
	if err := LoadAndRegister(reg, discardLogger(), root); err != nil {
		t.Fatalf("LoadAndRegister: %v", err)
	}

	n, err := reg.Create("lua_gain", "g1", 48000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const blockSize = 64
	ctx := node.NewContext(48000, blockSize)
	in := make([]float64, blockSize)
	for i := range in {
		in[i] = 0.25
	}
	ctx.In.Bind("audio_in", in)
	ctx.Out.Bind("audio_out", make([]float64, blockSize))

	if err := n.Process(ctx); err != nil {
		t.Fatalf("Process: %v", err)
	}

	out := ctx.Out.Buffer("audio_out")
	for i, v := range out {
		if v != 0.5 {
			t.Fatalf("out[%d] = %v, want 0.5 (gain 2)", i, v)
		}
	}

	// Parameter changes flow into the script on the next block.
	if err := n.SetParameter("gain", 4); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	if err := n.Process(ctx); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out[0] != 1 {
		t.Fatalf("out[0] after gain 4 = %v, want 1", out[0])
	}
}

func TestLuaNodeInactiveIsSilent(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "gainpack", gainManifest, gainScript, "gain.lua")

	reg := node.NewRegistry()
	if err := LoadAndRegister(reg, discardLogger(), root); err != nil {
		t.Fatalf("LoadAndRegister: %v", err)
	}
	n, err := reg.Create("lua_gain", "g1", 48000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := n.SetParameter("active", 0); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}

	ctx := node.NewContext(48000, 16)
	ctx.In.Bind("audio_in", []float64{1, 1, 1, 1})
	out := []float64{9, 9, 9, 9}
	ctx.Out.Bind("audio_out", out)

	if err := n.Process(ctx); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("inactive out[%d] = %v, want 0", i, v)
		}
	}
}

func TestLuaNodeScriptErrorSurfaces(t *testing.T) {
	root := t.TempDir()
	manifest := strings.Replace(gainManifest, "gain.lua", "broken.lua", 1)
	script := `
function process(inputs, outputs, params, block_size, sample_rate)
  error("deliberate failure")
end
`
	writePlugin(t, root, "brokenpack", manifest, script, "broken.lua")

	reg := node.NewRegistry()
	if err := LoadAndRegister(reg, discardLogger(), root); err != nil {
		t.Fatalf("LoadAndRegister: %v", err)
	}
	n, err := reg.Create("lua_gain", "g1", 48000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx := node.NewContext(48000, 16)
	ctx.Out.Bind("audio_out", make([]float64, 16))
	if err := n.Process(ctx); err == nil {
		t.Fatal("script error did not surface from Process")
	}
}

func TestReadManifestRejectsBadManifests(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"missing name", "version: \"1\"\nnodes:\n  - type: x\n    script: s.lua\n    outputs:\n      - name: out\n"},
		{"no nodes", "name: p\nversion: \"1\"\n"},
		{"no script", "name: p\nnodes:\n  - type: x\n    outputs:\n      - name: out\n"},
		{"no outputs", "name: p\nnodes:\n  - type: x\n    script: s.lua\n"},
		{"bad port type", "name: p\nnodes:\n  - type: x\n    script: s.lua\n    outputs:\n      - name: out\n        type: midi\n"},
		{"inverted range", "name: p\nnodes:\n  - type: x\n    script: s.lua\n    outputs:\n      - name: out\n    params:\n      - name: g\n        min: 2\n        max: 1\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			writePlugin(t, root, "bad", tc.manifest, "", "")
			if _, err := ReadManifest(filepath.Join(root, "bad")); err == nil {
				t.Fatal("bad manifest accepted")
			}
		})
	}
}

func TestRegisterRejectsMissingScript(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "gainpack", gainManifest, "", "")

	reg := node.NewRegistry()
	if err := LoadAndRegister(reg, discardLogger(), root); err == nil {
		t.Fatal("missing script accepted at registration")
	}
}
