package synth_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/synth"
	"pipelined.dev/synth/log"
	"pipelined.dev/synth/mock"
	"pipelined.dev/synth/signal"
	"pipelined.dev/synth/topology"
)

var testProps = synth.SignalProperties{SampleRate: 44100, Channels: 1, ChunkSize: 8}

func testEngine(t *testing.T) *synth.Engine {
	t.Helper()
	e, err := synth.New(
		synth.WithLogger(log.Silent()),
		synth.WithSignalProperties(testProps),
	)
	require.NoError(t, err)
	return e
}

func TestChainRendersOneChunk(t *testing.T) {
	defer goleak.VerifyNone(t)
	e := testEngine(t)
	defer e.Close()

	source := &mock.Processor{IsStatic: true, Value: 0.5}
	consumer := &mock.Processor{}
	require.NoError(t, e.AddProcessor("source", source))
	require.NoError(t, e.AddProcessor("consumer", consumer))
	in := topology.InputID{Proc: "consumer", Name: "in"}
	require.NoError(t, e.AddInput(in, topology.Synchronous))
	require.NoError(t, e.Connect(in, "source"))

	buf := signal.Empty(1, 8)
	assert.Equal(t, synth.Playing, e.RenderChunk(buf))
	assert.Equal(t, 0.5, buf[0][0])

	shared, ok := e.Shared("source")
	require.True(t, ok)
	assert.Equal(t, 1, shared.Node().Timing().Elapsed())
	root, ok := e.Root("consumer")
	require.True(t, ok)
	assert.Equal(t, 1, root.Timing().Elapsed())
}

func TestRemoveAttachedProcessorRejected(t *testing.T) {
	e := testEngine(t)
	defer e.Close()

	require.NoError(t, e.AddProcessor("source", &mock.Processor{IsStatic: true}))
	require.NoError(t, e.AddProcessor("consumer", &mock.Processor{}))
	in := topology.InputID{Proc: "consumer", Name: "in"}
	require.NoError(t, e.AddInput(in, topology.Synchronous))
	require.NoError(t, e.Connect(in, "source"))
	before := e.Snapshot()

	err := e.RemoveProcessor("source")
	assert.True(t, errors.Is(err, topology.ErrProcessorAttached))
	assert.Equal(t, before, e.Snapshot())

	// shared node still has its consumer
	shared, _ := e.Shared("source")
	assert.Len(t, shared.Consumers(), 1)
}

func TestDirectForkSharesOneInstance(t *testing.T) {
	e := testEngine(t)
	defer e.Close()

	source := &mock.Processor{IsStatic: true, Value: 1}
	require.NoError(t, e.AddProcessor("source", source))
	for _, id := range []topology.ProcID{"left", "right"} {
		require.NoError(t, e.AddProcessor(id, &mock.Processor{}))
		in := topology.InputID{Proc: id, Name: "in"}
		require.NoError(t, e.AddInput(in, topology.Synchronous))
		require.NoError(t, e.Connect(in, "source"))
	}

	buf := signal.Empty(1, 8)
	e.RenderChunk(buf)
	e.RenderChunk(buf)

	// one shared instance, refreshed once per turn regardless of the
	// number of consumers
	require.Len(t, source.Instances, 1)
	assert.Equal(t, 2, source.Instances[0].Chunks)
	// both entry points see the same cached chunk
	assert.Equal(t, 2.0, buf[0][0])
}

func TestIndirectForkRejected(t *testing.T) {
	e := testEngine(t)
	defer e.Close()

	require.NoError(t, e.AddProcessor("source", &mock.Processor{IsStatic: true}))
	require.NoError(t, e.AddProcessor("mid", &mock.Processor{}))
	require.NoError(t, e.AddProcessor("left", &mock.Processor{}))
	require.NoError(t, e.AddProcessor("right", &mock.Processor{}))
	midIn := topology.InputID{Proc: "mid", Name: "in"}
	require.NoError(t, e.AddInput(midIn, topology.Synchronous))
	require.NoError(t, e.Connect(midIn, "source"))
	leftIn := topology.InputID{Proc: "left", Name: "in"}
	require.NoError(t, e.AddInput(leftIn, topology.Synchronous))
	require.NoError(t, e.Connect(leftIn, "mid"))
	rightIn := topology.InputID{Proc: "right", Name: "in"}
	require.NoError(t, e.AddInput(rightIn, topology.Synchronous))

	err := e.Connect(rightIn, "mid")
	assert.Equal(t, topology.StaticNotOneStateError{Proc: "source"}, err)
	// rejected edit leaves the graph playable
	buf := signal.Empty(1, 8)
	assert.Equal(t, synth.Playing, e.RenderChunk(buf))
}

func TestBranchesDriveIndependentInstances(t *testing.T) {
	e := testEngine(t)
	defer e.Close()

	voice := &mock.Processor{Value: 0.25}
	require.NoError(t, e.AddProcessor("voice", voice))
	require.NoError(t, e.AddProcessor("mix", &mock.Processor{}))
	in := topology.InputID{Proc: "mix", Name: "voices"}
	require.NoError(t, e.AddInput(in, topology.Synchronous))
	require.NoError(t, e.AddBranch(in))
	require.NoError(t, e.Connect(in, "voice"))

	assert.Len(t, e.LiveEdges(in), 2)
	buf := signal.Empty(1, 8)
	e.RenderChunk(buf)
	// each branch compiled its own voice instance
	assert.GreaterOrEqual(t, len(voice.Instances), 2)
	assert.Equal(t, 0.5, buf[0][0])
}

func TestDisconnectReclaimsSubtree(t *testing.T) {
	defer goleak.VerifyNone(t)
	e := testEngine(t)

	inner := &mock.Processor{}
	require.NoError(t, e.AddProcessor("inner", inner))
	require.NoError(t, e.AddProcessor("outer", &mock.Processor{}))
	in := topology.InputID{Proc: "outer", Name: "in"}
	require.NoError(t, e.AddInput(in, topology.Synchronous))
	require.NoError(t, e.Connect(in, "inner")) // root instance retired, edge instance compiled
	require.NoError(t, e.Disconnect(in))       // edge instance retired, root instance compiled

	_, isRoot := e.Root("inner")
	assert.True(t, isRoot)

	e.Close()
	// all three compiled instances went through the reclaimer
	assert.Equal(t, 3, inner.Compiled)
	assert.Equal(t, 3, inner.Drops)
}

func TestReleaseForcedWithinOneChunk(t *testing.T) {
	e := testEngine(t)
	defer e.Close()

	stubborn := &mock.Processor{Value: 1}
	require.NoError(t, e.AddProcessor("stubborn", stubborn))
	require.NoError(t, e.AddProcessor("outer", &mock.Processor{}))
	in := topology.InputID{Proc: "outer", Name: "in"}
	require.NoError(t, e.AddInput(in, topology.Synchronous))
	require.NoError(t, e.Connect(in, "stubborn"))

	buf := signal.Empty(1, 8)
	e.RenderChunk(buf)
	assert.Equal(t, 1.0, buf[0][0])

	require.NoError(t, e.Release(in, 0))
	e.RenderChunk(buf) // release pending: last chance to honor it
	e.RenderChunk(buf) // forced done, silence from here on
	assert.Equal(t, 0.0, buf[0][0])
	edge := e.LiveEdges(in)[0]
	assert.True(t, edge.Timing().Done())
	assert.False(t, edge.Timing().Released())
}

func TestReleaseHonored(t *testing.T) {
	e := testEngine(t)
	defer e.Close()

	polite := &mock.Processor{Value: 1, HonorReleases: true}
	require.NoError(t, e.AddProcessor("polite", polite))
	require.NoError(t, e.AddProcessor("outer", &mock.Processor{}))
	in := topology.InputID{Proc: "outer", Name: "in"}
	require.NoError(t, e.AddInput(in, topology.Synchronous))
	require.NoError(t, e.Connect(in, "polite"))

	buf := signal.Empty(1, 8)
	require.NoError(t, e.Release(in, 4))
	e.RenderChunk(buf)

	edge := e.LiveEdges(in)[0]
	assert.True(t, edge.Timing().Released())
	assert.True(t, edge.Timing().Done())
	// samples before the release offset made it out
	assert.Equal(t, 1.0, buf[0][3])
	assert.Equal(t, 0.0, buf[0][4])
}

func TestStartOver(t *testing.T) {
	e := testEngine(t)
	defer e.Close()

	oneShot := &mock.Processor{Value: 1, Limit: 1}
	require.NoError(t, e.AddProcessor("oneshot", oneShot))

	buf := signal.Empty(1, 8)
	assert.Equal(t, synth.Done, e.RenderChunk(buf))
	assert.Equal(t, synth.Done, e.RenderChunk(buf))

	e.StartOver()
	root, _ := e.Root("oneshot")
	assert.Equal(t, 0, root.Timing().Elapsed())
	assert.Equal(t, synth.Done, e.RenderChunk(buf))
	assert.Equal(t, 1.0, buf[0][0])
	assert.Equal(t, 1, oneShot.Instances[0].Resets)
}

func TestStartOverSharedFork(t *testing.T) {
	e := testEngine(t)
	defer e.Close()

	// the source emits its chunk index, so a voice replaying a stale
	// cached chunk would show up in the mix
	source := &mock.Processor{
		IsStatic: true,
		Script:   func(chunk int) float64 { return float64(chunk + 1) },
	}
	require.NoError(t, e.AddProcessor("source", source))
	for _, id := range []topology.ProcID{"left", "right"} {
		require.NoError(t, e.AddProcessor(id, &mock.Processor{}))
		in := topology.InputID{Proc: id, Name: "in"}
		require.NoError(t, e.AddInput(in, topology.Synchronous))
		require.NoError(t, e.Connect(in, "source"))
	}

	buf := signal.Empty(1, 8)
	e.RenderChunk(buf)
	assert.Equal(t, 2.0, buf[0][0])
	e.RenderChunk(buf)
	assert.Equal(t, 4.0, buf[0][0])

	e.StartOver()

	// both voices replay from the first chunk on one shared timeline
	e.RenderChunk(buf)
	assert.Equal(t, 2.0, buf[0][0])
	e.RenderChunk(buf)
	assert.Equal(t, 4.0, buf[0][0])
	// the wrapped instance rewound once and refreshed once per turn
	assert.Equal(t, 1, source.Instances[0].Resets)
	assert.Equal(t, 2, source.Instances[0].Chunks)
}

func TestRenderChunkDoesNotAllocate(t *testing.T) {
	e := testEngine(t)
	defer e.Close()

	require.NoError(t, e.AddProcessor("source", &mock.Processor{IsStatic: true, Value: 0.5}))
	require.NoError(t, e.AddProcessor("consumer", &mock.Processor{}))
	in := topology.InputID{Proc: "consumer", Name: "in"}
	require.NoError(t, e.AddInput(in, topology.Synchronous))
	require.NoError(t, e.Connect(in, "source"))

	buf := signal.Empty(1, 8)
	e.RenderChunk(buf)
	assert.Zero(t, testing.AllocsPerRun(10, func() {
		e.RenderChunk(buf)
	}))
}

func TestCompileErrorRollsBack(t *testing.T) {
	e := testEngine(t)
	defer e.Close()

	before := e.Snapshot()
	broken := &mock.Processor{ErrorOnCompile: errors.New("resource missing")}
	err := e.AddProcessor("broken", broken)
	assert.Error(t, err)
	assert.Equal(t, before, e.Snapshot())
	_, ok := e.Root("broken")
	assert.False(t, ok)
}

func TestInputEditsRecompileOwner(t *testing.T) {
	e := testEngine(t)
	defer e.Close()

	owner := &mock.Processor{}
	require.NoError(t, e.AddProcessor("owner", owner))
	assert.Equal(t, 1, owner.Compiled)

	in := topology.InputID{Proc: "owner", Name: "in"}
	require.NoError(t, e.AddInput(in, topology.Synchronous))
	assert.Equal(t, 2, owner.Compiled)
	assert.Len(t, e.LiveEdges(in), 1)

	require.NoError(t, e.AddBranch(in))
	assert.Len(t, e.LiveEdges(in), 2)

	require.NoError(t, e.RemoveBranch(in))
	assert.Len(t, e.LiveEdges(in), 1)

	require.NoError(t, e.RemoveInput(in))
	assert.Empty(t, e.LiveEdges(in))
}

func TestEmptyGraphIsDone(t *testing.T) {
	e := testEngine(t)
	defer e.Close()

	buf := signal.Float64{{1, 1, 1, 1, 1, 1, 1, 1}}
	assert.Equal(t, synth.Done, e.RenderChunk(buf))
	assert.Equal(t, signal.Float64{{0, 0, 0, 0, 0, 0, 0, 0}}, buf)
}

func TestNewProcID(t *testing.T) {
	seen := make(map[topology.ProcID]struct{})
	for i := 0; i < 100; i++ {
		id := synth.NewProcID()
		assert.NotEmpty(t, id)
		_, ok := seen[id]
		assert.False(t, ok)
		seen[id] = struct{}{}
	}
}
