// Package nodes implements the built-in node library: generators,
// processors, controllers, utilities, analyzers, and the terminal
// output sink. RegisterBuiltins wires every type into a registry.
//
// All nodes follow the same conventions: parameters are bound through
// param.Set, CV inputs are read as first-sample scalars unless the node
// documents per-sample handling, an inactive node emits silence (or
// passes its primary signal through where noted) without advancing
// internal state, and Reset clears DSP state but not parameter values.
package nodes
