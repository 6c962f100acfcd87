package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-synth/synth/buffer"
	"github.com/cwbudde/algo-synth/synth/graph"
	"github.com/cwbudde/algo-synth/synth/node"
)

// Engine owns the node graph, the live processing instances, and the
// block rendering loop that connects them.
//
// Two mutexes split the state: topoMu guards the graph and the cached
// processing schedule, instMu guards the instance table. Control-plane
// calls take both with a plain Lock in that order and may block. The
// audio path takes both with TryLock; if either is contended it emits
// one fallback block instead of waiting, so a control mutation can
// never stall the render deadline.
type Engine struct {
	topoMu sync.Mutex
	instMu sync.Mutex

	graph     *graph.Graph
	registry  *node.Registry
	instances map[uuid.UUID]node.Node

	// Audio-path schedule, rebuilt under topoMu after every mutation so
	// RenderBlock never calls the graph's copying accessors.
	order []uuid.UUID
	conns []graph.Connection

	outBufs *buffer.Table
	inBufs  *buffer.Table
	ctx     *node.Context

	sampleRate float64
	blockSize  int
	bpm        float64
	log        *slog.Logger

	timestamp uint64
	running   atomic.Bool
	fallback  fallbackTone
}

// New creates an engine drawing node types from registry.
func New(registry *node.Registry, opts ...Option) *Engine {
	e := &Engine{
		graph:      graph.New(),
		registry:   registry,
		instances:  make(map[uuid.UUID]node.Node),
		sampleRate: 48000,
		blockSize:  256,
		bpm:        120,
		log:        slog.Default(),
		fallback:   fallbackTone{frequency: 440, amplitude: 0.05},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.outBufs = buffer.NewTable(e.blockSize)
	e.inBufs = buffer.NewTable(e.blockSize)
	e.ctx = node.NewContext(e.sampleRate, e.blockSize)
	e.ctx.BPM = e.bpm
	return e
}

// SampleRate returns the stream sample rate in Hz.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// BlockSize returns the number of samples per rendered block.
func (e *Engine) BlockSize() int { return e.blockSize }

// Start enables rendering. Before Start, and after Stop, RenderBlock
// emits silence.
func (e *Engine) Start() { e.running.Store(true) }

// Stop disables rendering.
func (e *Engine) Stop() { e.running.Store(false) }

// Running reports whether the engine is rendering.
func (e *Engine) Running() bool { return e.running.Load() }

// SetBPM updates the stream tempo used by clocked nodes.
func (e *Engine) SetBPM(bpm float64) {
	if bpm <= 0 {
		return
	}
	e.topoMu.Lock()
	e.instMu.Lock()
	defer e.instMu.Unlock()
	defer e.topoMu.Unlock()
	e.bpm = bpm
	e.ctx.BPM = bpm
}

// CreateNode instantiates a node of the given type and adds it to the
// graph. The returned id addresses the node in every other call.
func (e *Engine) CreateNode(nodeType, name string) (uuid.UUID, error) {
	inst, err := e.registry.Create(nodeType, name, e.sampleRate)
	if err != nil {
		return uuid.Nil, err
	}

	e.topoMu.Lock()
	e.instMu.Lock()
	defer e.instMu.Unlock()
	defer e.topoMu.Unlock()

	desc := graph.DescribeNode(inst)
	if err := e.graph.AddNode(desc); err != nil {
		return uuid.Nil, err
	}
	e.instances[desc.ID] = inst
	e.refreshSchedule()
	return desc.ID, nil
}

// RemoveNode deletes the node, its connections, and its live instance.
func (e *Engine) RemoveNode(id uuid.UUID) error {
	e.topoMu.Lock()
	e.instMu.Lock()
	defer e.instMu.Unlock()
	defer e.topoMu.Unlock()

	if err := e.graph.RemoveNode(id); err != nil {
		return err
	}
	delete(e.instances, id)
	e.outBufs.DropNode(id)
	e.inBufs.DropNode(id)
	e.refreshSchedule()
	return nil
}

// Connect adds a connection after graph validation. A rejected
// connection, including one that would create a cycle, leaves the
// running schedule untouched.
func (e *Engine) Connect(conn graph.Connection) error {
	e.topoMu.Lock()
	defer e.topoMu.Unlock()

	if err := e.graph.Connect(conn); err != nil {
		return err
	}
	e.refreshSchedule()
	return nil
}

// Disconnect removes the exact connection.
func (e *Engine) Disconnect(conn graph.Connection) error {
	e.topoMu.Lock()
	defer e.topoMu.Unlock()

	if err := e.graph.Disconnect(conn); err != nil {
		return err
	}
	e.refreshSchedule()
	return nil
}

// SetParameter validates and applies a parameter change to the live
// instance and mirrors it into the graph's persistence snapshot.
func (e *Engine) SetParameter(id uuid.UUID, name string, value float64) error {
	e.topoMu.Lock()
	e.instMu.Lock()
	defer e.instMu.Unlock()
	defer e.topoMu.Unlock()

	inst, ok := e.instances[id]
	if !ok {
		return &graph.NodeNotFoundError{ID: id}
	}
	if err := inst.SetParameter(name, value); err != nil {
		return fmt.Errorf("node %s: %w", id, err)
	}
	return e.graph.SetParam(id, name, value)
}

// Parameter reads a parameter from the live instance.
func (e *Engine) Parameter(id uuid.UUID, name string) (float64, error) {
	e.instMu.Lock()
	defer e.instMu.Unlock()

	inst, ok := e.instances[id]
	if !ok {
		return 0, &graph.NodeNotFoundError{ID: id}
	}
	return inst.Parameter(name)
}

// Rename updates a node's display name in the graph snapshot.
func (e *Engine) Rename(id uuid.UUID, name string) error {
	e.topoMu.Lock()
	defer e.topoMu.Unlock()
	return e.graph.Rename(id, name)
}

// Node returns a descriptor copy for id.
func (e *Engine) Node(id uuid.UUID) (*graph.Descriptor, bool) {
	e.topoMu.Lock()
	defer e.topoMu.Unlock()
	return e.graph.Node(id)
}

// FindByName returns the id of the first node with the given display
// name, in creation order.
func (e *Engine) FindByName(name string) (uuid.UUID, bool) {
	e.topoMu.Lock()
	defer e.topoMu.Unlock()
	return e.graph.FindByName(name)
}

// Nodes returns descriptor copies in creation order.
func (e *Engine) Nodes() []*graph.Descriptor {
	e.topoMu.Lock()
	defer e.topoMu.Unlock()
	return e.graph.Nodes()
}

// Connections returns a copy of the connection list.
func (e *Engine) Connections() []graph.Connection {
	e.topoMu.Lock()
	defer e.topoMu.Unlock()
	return e.graph.Connections()
}

// Order returns a copy of the current processing order.
func (e *Engine) Order() []uuid.UUID {
	e.topoMu.Lock()
	defer e.topoMu.Unlock()
	return e.graph.Order()
}

// ResetNode clears the DSP state of a single node. Parameter values
// are untouched.
func (e *Engine) ResetNode(id uuid.UUID) error {
	e.instMu.Lock()
	defer e.instMu.Unlock()

	inst, ok := e.instances[id]
	if !ok {
		return &graph.NodeNotFoundError{ID: id}
	}
	inst.Reset()
	return nil
}

// Reset clears the DSP state of every node and rewinds the stream
// clock. Parameter values are untouched.
func (e *Engine) Reset() {
	e.topoMu.Lock()
	e.instMu.Lock()
	defer e.instMu.Unlock()
	defer e.topoMu.Unlock()

	for _, inst := range e.instances {
		inst.Reset()
	}
	e.timestamp = 0
}

// Clear removes every node and connection.
func (e *Engine) Clear() {
	e.topoMu.Lock()
	e.instMu.Lock()
	defer e.instMu.Unlock()
	defer e.topoMu.Unlock()

	e.graph.Clear()
	e.instances = make(map[uuid.UUID]node.Node)
	e.outBufs.Reset()
	e.inBufs.Reset()
	e.timestamp = 0
	e.refreshSchedule()
}

// refreshSchedule recaches the order and connection slices the audio
// path iterates. Callers hold topoMu.
func (e *Engine) refreshSchedule() {
	e.order = e.graph.Order()
	e.conns = e.graph.Connections()
}
