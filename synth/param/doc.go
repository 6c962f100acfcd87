// Package param models named, bounded, CV-modulatable control values.
//
// A Spec declares a parameter's range and default. Validate clamps a
// candidate value and reports when clamping changed it, leaving the
// accept-or-reject decision to the caller. Modulated blends a base
// value with a control-voltage sample under a linear, exponential or
// logarithmic response curve; its output is always confined to the
// spec's range regardless of modulation depth or CV extremes.
//
// Set gives node implementations a uniform parameter surface: each
// node binds its parameter fields once and callers interact purely
// through names, without knowing concrete node types.
package param
