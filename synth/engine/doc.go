// Package engine connects the topology graph to live node instances
// and renders audio block by block.
//
// The control plane (create, remove, connect, set parameter) and the
// audio path share state through two mutexes. Control calls lock and
// may block; the audio path only try-locks and substitutes a quiet
// fallback tone for any block it cannot render without waiting. The
// steady-state render loop performs no allocations: buffers, the
// processing order, and the connection list are all cached and reused.
package engine
