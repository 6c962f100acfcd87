package engine

import (
	"github.com/google/uuid"

	"github.com/cwbudde/algo-synth/synth/buffer"
	"github.com/cwbudde/algo-synth/synth/node"
)

// RenderBlock fills dst with the next block of mono samples. It never
// blocks: when a control-plane call holds either engine lock, the block
// is filled with the fallback tone instead. A stopped engine renders
// silence.
//
// dst is expected to be BlockSize samples long; shorter or longer
// slices are rendered anyway, clipped to the block.
func (e *Engine) RenderBlock(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
	if !e.running.Load() {
		return
	}

	if !e.topoMu.TryLock() {
		e.fallback.render(dst, e.sampleRate)
		return
	}
	if !e.instMu.TryLock() {
		e.topoMu.Unlock()
		e.fallback.render(dst, e.sampleRate)
		return
	}
	defer e.topoMu.Unlock()
	defer e.instMu.Unlock()

	e.processBlock(dst)
}

// processBlock walks the cached topological order once, routing each
// node's resolved inputs, invoking Process, and accumulating output
// node mixes into dst. Callers hold both locks.
func (e *Engine) processBlock(dst []float32) {
	ctx := e.ctx
	ctx.Timestamp = e.timestamp

	for _, id := range e.order {
		inst, ok := e.instances[id]
		if !ok {
			continue
		}
		info := inst.Info()

		ctx.In.Clear()
		e.routeInputs(id, ctx)

		ctx.Out.Clear()
		for _, port := range info.Outputs {
			ctx.Out.Bind(port.Name, e.outBufs.Acquire(id, port.Name))
		}

		if err := inst.Process(ctx); err != nil {
			// One failing node must not silence the rest of the patch.
			// Its outputs stay zeroed for this block.
			e.log.Error("node process failed",
				"node", info.Name,
				"type", info.Type,
				"error", err)
			for _, port := range info.Outputs {
				ctx.Out.Zero(port.Name)
			}
		}

		if info.Category == node.CategoryOutput {
			e.accumulate(dst, ctx.Out.Buffer("mix"))
		}
	}

	e.timestamp += uint64(e.blockSize)
}

// routeInputs binds the summed upstream buffers for every connected
// input of the given node. Fan-in accumulates; unconnected ports stay
// unbound and read as zero.
func (e *Engine) routeInputs(id uuid.UUID, ctx *node.Context) {
	for _, conn := range e.conns {
		if conn.TargetNode != id {
			continue
		}
		src, ok := e.outBufs.Peek(conn.SourceNode, conn.SourcePort)
		if !ok {
			continue
		}
		if !ctx.In.Connected(conn.TargetPort) {
			ctx.In.Bind(conn.TargetPort, e.inBufs.Acquire(id, conn.TargetPort))
		}
		buffer.SumInto(ctx.In.Buffer(conn.TargetPort), src)
	}
}

func (e *Engine) accumulate(dst []float32, mix []float64) {
	n := len(dst)
	if len(mix) < n {
		n = len(mix)
	}
	for i := 0; i < n; i++ {
		dst[i] += float32(mix[i])
	}
}
