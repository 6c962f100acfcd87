// Package buffer provides reusable per-port audio block buffers for
// the processing loop. A Table hands out zeroed blocks keyed by node
// and port and reuses their backing arrays across blocks, keeping the
// steady-state audio path free of allocations.
package buffer
