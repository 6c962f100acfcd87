package engine

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-synth/synth/graph"
	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// constNode emits its "level" parameter on every sample of audio_out.
type constNode struct {
	*param.Set
	info  node.Info
	level float64
}

func newConstNode(name string, _ float64) (node.Node, error) {
	n := &constNode{Set: param.NewSet()}
	n.info = node.NewInfo(name, "const", node.CategoryGenerator)
	n.info.Outputs = []node.Port{node.AudioOut("audio_out", "constant level")}
	n.Bind(param.New("level", -1, 1, 0.5), &n.level)
	return n, nil
}

func (n *constNode) Info() node.Info { return n.info }
func (n *constNode) Reset()          {}

func (n *constNode) Process(ctx *node.Context) error {
	ctx.Out.Fill("audio_out", n.level)
	return nil
}

// gainNode scales audio_in by its "gain" parameter.
type gainNode struct {
	*param.Set
	info node.Info
	gain float64
}

func newGainNode(name string, _ float64) (node.Node, error) {
	n := &gainNode{Set: param.NewSet()}
	n.info = node.NewInfo(name, "gain", node.CategoryProcessor)
	n.info.Inputs = []node.Port{node.AudioIn("audio_in", "signal input")}
	n.info.Outputs = []node.Port{node.AudioOut("audio_out", "scaled signal")}
	n.Bind(param.New("gain", 0, 4, 1), &n.gain)
	return n, nil
}

func (n *gainNode) Info() node.Info { return n.info }
func (n *gainNode) Reset()          {}

func (n *gainNode) Process(ctx *node.Context) error {
	out := ctx.Out.Buffer("audio_out")
	for i := range out {
		out[i] = ctx.In.Sample("audio_in", i) * n.gain
	}
	return nil
}

// sinkNode copies audio_in to its terminal mix buffer.
type sinkNode struct {
	*param.Set
	info node.Info
}

func newSinkNode(name string, _ float64) (node.Node, error) {
	n := &sinkNode{Set: param.NewSet()}
	n.info = node.NewInfo(name, "sink", node.CategoryOutput)
	n.info.Inputs = []node.Port{node.AudioIn("audio_in", "signal input")}
	n.info.Outputs = []node.Port{node.AudioOut("mix", "terminal mix")}
	return n, nil
}

func (n *sinkNode) Info() node.Info { return n.info }
func (n *sinkNode) Reset()          {}

func (n *sinkNode) Process(ctx *node.Context) error {
	out := ctx.Out.Buffer("mix")
	for i := range out {
		out[i] = ctx.In.Sample("audio_in", i)
	}
	return nil
}

// faultyNode always fails.
type faultyNode struct {
	*param.Set
	info node.Info
}

var errBroken = errors.New("broken")

func newFaultyNode(name string, _ float64) (node.Node, error) {
	n := &faultyNode{Set: param.NewSet()}
	n.info = node.NewInfo(name, "faulty", node.CategoryOutput)
	n.info.Outputs = []node.Port{node.AudioOut("mix", "never written")}
	return n, nil
}

func (n *faultyNode) Info() node.Info { return n.info }
func (n *faultyNode) Reset()          {}

func (n *faultyNode) Process(ctx *node.Context) error {
	ctx.Out.Fill("mix", 1)
	return errBroken
}

func testRegistry(t *testing.T) *node.Registry {
	t.Helper()
	reg := node.NewRegistry()
	reg.MustRegister("const", newConstNode)
	reg.MustRegister("gain", newGainNode)
	reg.MustRegister("sink", newSinkNode)
	reg.MustRegister("faulty", newFaultyNode)
	return reg
}

func TestRenderBlockStoppedIsSilent(t *testing.T) {
	e := New(testRegistry(t), WithBlockSize(32))
	dst := make([]float32, 32)
	for i := range dst {
		dst[i] = 7
	}

	e.RenderBlock(dst)

	for i, s := range dst {
		if s != 0 {
			t.Fatalf("dst[%d] = %v, want silence", i, s)
		}
	}
}

func TestRenderBlockChain(t *testing.T) {
	e := New(testRegistry(t), WithBlockSize(16))

	src, err := e.CreateNode("const", "src")
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	amp, err := e.CreateNode("gain", "amp")
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	out, err := e.CreateNode("sink", "out")
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}

	conns := []graph.Connection{
		{SourceNode: src, SourcePort: "audio_out", TargetNode: amp, TargetPort: "audio_in"},
		{SourceNode: amp, SourcePort: "audio_out", TargetNode: out, TargetPort: "audio_in"},
	}
	for _, conn := range conns {
		if err := e.Connect(conn); err != nil {
			t.Fatalf("Connect: %v", err)
		}
	}
	if err := e.SetParameter(amp, "gain", 2); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}

	e.Start()
	dst := make([]float32, 16)
	e.RenderBlock(dst)

	for i, s := range dst {
		if math.Abs(float64(s)-1.0) > 1e-6 {
			t.Fatalf("dst[%d] = %v, want 1.0", i, s)
		}
	}
}

func TestRenderBlockFanInSums(t *testing.T) {
	e := New(testRegistry(t), WithBlockSize(8))

	a, _ := e.CreateNode("const", "a")
	b, _ := e.CreateNode("const", "b")
	out, _ := e.CreateNode("sink", "out")

	for _, src := range []uuid.UUID{a, b} {
		conn := graph.Connection{SourceNode: src, SourcePort: "audio_out", TargetNode: out, TargetPort: "audio_in"}
		if err := e.Connect(conn); err != nil {
			t.Fatalf("Connect: %v", err)
		}
	}
	if err := e.SetParameter(a, "level", 0.25); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	if err := e.SetParameter(b, "level", 0.5); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}

	e.Start()
	dst := make([]float32, 8)
	e.RenderBlock(dst)

	for i, s := range dst {
		if math.Abs(float64(s)-0.75) > 1e-6 {
			t.Fatalf("dst[%d] = %v, want 0.75", i, s)
		}
	}
}

func TestRenderBlockFanOut(t *testing.T) {
	e := New(testRegistry(t), WithBlockSize(8))

	src, _ := e.CreateNode("const", "src")
	out1, _ := e.CreateNode("sink", "out1")
	out2, _ := e.CreateNode("sink", "out2")

	for _, sink := range []uuid.UUID{out1, out2} {
		conn := graph.Connection{SourceNode: src, SourcePort: "audio_out", TargetNode: sink, TargetPort: "audio_in"}
		if err := e.Connect(conn); err != nil {
			t.Fatalf("Connect: %v", err)
		}
	}

	e.Start()
	dst := make([]float32, 8)
	e.RenderBlock(dst)

	// Both terminal sinks receive the same 0.5 block and the master mix
	// sums them.
	for i, s := range dst {
		if math.Abs(float64(s)-1.0) > 1e-6 {
			t.Fatalf("dst[%d] = %v, want 1.0", i, s)
		}
	}
}

func TestRenderBlockNodeFailureIsolated(t *testing.T) {
	e := New(testRegistry(t), WithBlockSize(8),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	src, _ := e.CreateNode("const", "src")
	out, _ := e.CreateNode("sink", "out")
	if _, err := e.CreateNode("faulty", "bad"); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}

	conn := graph.Connection{SourceNode: src, SourcePort: "audio_out", TargetNode: out, TargetPort: "audio_in"}
	if err := e.Connect(conn); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	e.Start()
	dst := make([]float32, 8)
	e.RenderBlock(dst)

	// The faulty output node's buffer is zeroed after its error, so
	// only the healthy chain reaches the master mix.
	for i, s := range dst {
		if math.Abs(float64(s)-0.5) > 1e-6 {
			t.Fatalf("dst[%d] = %v, want 0.5", i, s)
		}
	}
}

func TestRenderBlockFallbackUnderContention(t *testing.T) {
	e := New(testRegistry(t), WithBlockSize(64))
	e.Start()

	// Hold the topology lock the way a control mutation would.
	e.topoMu.Lock()
	done := make(chan struct{})
	go func() {
		defer close(done)
		dst := make([]float32, 64)
		e.RenderBlock(dst)

		// The block must be the fallback tone, not silence and not a
		// hang. The tone starts at sin(0)=0 but cannot stay at zero.
		var nonZero bool
		for _, s := range dst {
			if s != 0 {
				nonZero = true
				break
			}
		}
		if !nonZero {
			panic("fallback block is silent")
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		e.topoMu.Unlock()
		t.Fatal("RenderBlock blocked on a held control lock")
	}
	e.topoMu.Unlock()
}

func TestRenderBlockFallbackPhaseContinuity(t *testing.T) {
	e := New(testRegistry(t), WithBlockSize(32))
	e.Start()

	e.instMu.Lock()
	first := make([]float32, 32)
	second := make([]float32, 32)
	e.RenderBlock(first)
	e.RenderBlock(second)
	e.instMu.Unlock()

	// Consecutive fallback blocks continue one sine; the second block
	// must pick up where the first left off rather than restart at 0.
	rate := e.SampleRate()
	inc := 2 * math.Pi * 440 / rate
	want := float32(math.Sin(float64(32)*inc) * 0.05)
	if math.Abs(float64(second[0]-want)) > 1e-5 {
		t.Fatalf("second[0] = %v, want %v (continued phase)", second[0], want)
	}
}

func TestRemoveNodeDropsFromMix(t *testing.T) {
	e := New(testRegistry(t), WithBlockSize(8))

	src, _ := e.CreateNode("const", "src")
	out, _ := e.CreateNode("sink", "out")
	conn := graph.Connection{SourceNode: src, SourcePort: "audio_out", TargetNode: out, TargetPort: "audio_in"}
	if err := e.Connect(conn); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	e.Start()
	dst := make([]float32, 8)
	e.RenderBlock(dst)
	if dst[0] == 0 {
		t.Fatal("expected signal before removal")
	}

	if err := e.RemoveNode(src); err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}
	e.RenderBlock(dst)
	for i, s := range dst {
		if s != 0 {
			t.Fatalf("dst[%d] = %v after source removal, want 0", i, s)
		}
	}
}

func TestSetParameterUnknownNode(t *testing.T) {
	e := New(testRegistry(t))

	var nf *graph.NodeNotFoundError
	if err := e.SetParameter(uuid.New(), "gain", 1); !errors.As(err, &nf) {
		t.Fatalf("expected *graph.NodeNotFoundError, got %v", err)
	}
}

func TestSetParameterOutOfRangeRejected(t *testing.T) {
	e := New(testRegistry(t))
	amp, _ := e.CreateNode("gain", "amp")

	if err := e.SetParameter(amp, "gain", 99); err == nil {
		t.Fatal("expected out-of-range rejection")
	}
	got, err := e.Parameter(amp, "gain")
	if err != nil {
		t.Fatalf("Parameter: %v", err)
	}
	if got != 1 {
		t.Fatalf("gain = %v after rejected set, want default 1", got)
	}
}

func TestCycleRejectionKeepsEngineRendering(t *testing.T) {
	e := New(testRegistry(t), WithBlockSize(8))

	src, _ := e.CreateNode("const", "src")
	amp, _ := e.CreateNode("gain", "amp")
	out, _ := e.CreateNode("sink", "out")

	conns := []graph.Connection{
		{SourceNode: src, SourcePort: "audio_out", TargetNode: amp, TargetPort: "audio_in"},
		{SourceNode: amp, SourcePort: "audio_out", TargetNode: out, TargetPort: "audio_in"},
	}
	for _, conn := range conns {
		if err := e.Connect(conn); err != nil {
			t.Fatalf("Connect: %v", err)
		}
	}

	back := graph.Connection{SourceNode: amp, SourcePort: "audio_out", TargetNode: amp, TargetPort: "audio_in"}
	if err := e.Connect(back); err == nil {
		t.Fatal("expected self-connection rejection")
	}

	e.Start()
	dst := make([]float32, 8)
	e.RenderBlock(dst)
	if math.Abs(float64(dst[0])-0.5) > 1e-6 {
		t.Fatalf("dst[0] = %v, want 0.5 (prior schedule intact)", dst[0])
	}
}
