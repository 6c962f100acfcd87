// Package patch serializes a complete node graph to JSON and rebuilds
// it into a running engine. Files carry node types, display names,
// parameter snapshots, and connections; live ids are minted fresh on
// every load.
package patch
