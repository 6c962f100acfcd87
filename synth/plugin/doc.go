// Package plugin loads Lua-scripted node types from plugin
// directories. A plugin is a directory with a manifest.yaml declaring
// its node types (ports, parameters, script file) and one Lua script
// per type implementing the per-block process function. Loaded types
// register through the same node registry as the built-ins, so the
// engine treats scripted nodes like any other.
package plugin
