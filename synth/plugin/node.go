package plugin

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// LuaNode runs a scripted process function for each block. Every
// instance owns a private Lua state, so plugin instances never share
// interpreter state.
//
// The script must define
//
//	function process(inputs, outputs, params, block_size, sample_rate)
//
// where inputs and outputs map port names to 1-indexed sample tables
// and params maps parameter names to their current values. Optional
// unconnected inputs are absent from the inputs table. A script may
// also define reset(), called when the node is reset.
type LuaNode struct {
	*param.Set
	info node.Info

	state   *lua.LState
	process lua.LValue
	reset   lua.LValue

	values     []float64
	paramNames []string
	sampleRate float64
}

func newLuaNode(name string, sampleRate float64, spec NodeSpec, scriptPath string) (node.Node, error) {
	state := lua.NewState()
	if err := state.DoFile(scriptPath); err != nil {
		state.Close()
		return nil, fmt.Errorf("plugin: load script %s: %w", scriptPath, err)
	}

	processFn := state.GetGlobal("process")
	if processFn.Type() != lua.LTFunction {
		state.Close()
		return nil, fmt.Errorf("plugin: script %s defines no process function", scriptPath)
	}

	n := &LuaNode{
		Set:        param.NewSet(),
		state:      state,
		process:    processFn,
		reset:      state.GetGlobal("reset"),
		sampleRate: sampleRate,
	}

	n.info = node.NewInfo(name, spec.Type, category(spec.Category))
	n.info.Description = spec.Description
	n.info.Inputs = ports(spec.Inputs, true)
	n.info.Outputs = ports(spec.Outputs, false)

	n.values = make([]float64, len(spec.Params)+1)
	n.paramNames = make([]string, 0, len(spec.Params))
	for i, p := range spec.Params {
		n.Bind(param.New(p.Name, p.Min, p.Max, p.Default).WithUnit(p.Unit), &n.values[i])
		n.paramNames = append(n.paramNames, p.Name)
	}
	n.Bind(node.ActiveParam, &n.values[len(spec.Params)])

	return n, nil
}

// Info implements node.Node.
func (n *LuaNode) Info() node.Info { return n.info }

// Reset calls the script's reset function when one is defined.
func (n *LuaNode) Reset() {
	if n.reset == nil || n.reset.Type() != lua.LTFunction {
		return
	}
	_ = n.state.CallByParam(lua.P{Fn: n.reset, NRet: 0, Protect: true})
}

// Close releases the Lua state. The engine does not call this on the
// audio path; it is for hosts that tear nodes down explicitly.
func (n *LuaNode) Close() {
	n.state.Close()
}

// Process marshals the block into Lua, runs the script, and copies the
// produced output tables back.
func (n *LuaNode) Process(ctx *node.Context) error {
	if n.values[len(n.values)-1] <= 0.5 {
		for _, port := range n.info.Outputs {
			ctx.Out.Zero(port.Name)
		}
		return nil
	}

	L := n.state

	inputs := L.NewTable()
	for _, port := range n.info.Inputs {
		buf := ctx.In.Buffer(port.Name)
		if buf == nil {
			continue
		}
		tbl := L.NewTable()
		for i, v := range buf {
			tbl.RawSetInt(i+1, lua.LNumber(v))
		}
		inputs.RawSetString(port.Name, tbl)
	}

	outputs := L.NewTable()
	for _, port := range n.info.Outputs {
		if ctx.Out.Buffer(port.Name) != nil {
			outputs.RawSetString(port.Name, L.NewTable())
		}
	}

	params := L.NewTable()
	for i, name := range n.paramNames {
		params.RawSetString(name, lua.LNumber(n.values[i]))
	}

	err := L.CallByParam(
		lua.P{Fn: n.process, NRet: 0, Protect: true},
		inputs, outputs, params,
		lua.LNumber(ctx.BlockSize), lua.LNumber(ctx.SampleRate),
	)
	if err != nil {
		return fmt.Errorf("plugin %s: process: %w", n.info.Type, err)
	}

	for _, port := range n.info.Outputs {
		buf := ctx.Out.Buffer(port.Name)
		if buf == nil {
			continue
		}
		tbl, ok := outputs.RawGetString(port.Name).(*lua.LTable)
		if !ok {
			continue
		}
		for i := range buf {
			if v, ok := tbl.RawGetInt(i + 1).(lua.LNumber); ok {
				buf[i] = float64(v)
			} else {
				buf[i] = 0
			}
		}
	}
	return nil
}
