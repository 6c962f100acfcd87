// Package node defines the processing contract every signal unit in
// the graph implements: declared ports, per-block Process over typed
// input/output buffers, lifecycle hooks, and a uniform parameter
// surface built on package param.
//
// The Registry maps type names to factories so the graph and engine
// depend only on the contract, never on concrete node types; plugin
// systems extend the synthesizer by registering additional factories.
package node
