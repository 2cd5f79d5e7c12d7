package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/synth/internal/debug"
	"pipelined.dev/synth/signal"
	"pipelined.dev/synth/topology"
)

// stub renders a constant value and reports a scripted status.
type stub struct {
	value  float64
	status Status
	honor  bool
	chunks int
	resets int
}

func (s *stub) ProcessAudio(dst signal.Float64, ctx *Context) Status {
	for c := range dst {
		for i := range dst[c] {
			dst[c][i] = s.value
		}
	}
	s.chunks++
	if _, ok := ctx.PendingRelease(); ok && s.honor {
		ctx.HonorRelease()
		return Done
	}
	return s.status
}

func (s *stub) StartOver() {
	s.resets++
}

func stubNode(id topology.ProcID, static bool, st *stub) *Node {
	return &Node{id: id, static: static, inst: st}
}

func sharedWithEdges(st *stub) (*SharedNode, *Edge, *Edge) {
	sh := newSharedNode(stubNode("s", true, st), 1, 4)
	e1 := newEdge(topology.InputID{Proc: "a", Name: "in"}, 0)
	e1.swap(linkShared, nil, sh)
	e2 := newEdge(topology.InputID{Proc: "b", Name: "in"}, 0)
	e2.swap(linkShared, nil, sh)
	return sh, e1, e2
}

func TestSharedTurn(t *testing.T) {
	st := &stub{value: 1}
	sh, e1, e2 := sharedWithEdges(st)
	buf := signal.Empty(1, 4)
	ctx := NewContext()

	// first caller of the turn pays the cost
	assert.Equal(t, Playing, sh.processAudio(buf, e1, ctx))
	assert.Equal(t, 1, st.chunks)
	assert.Equal(t, signal.Float64{{1, 1, 1, 1}}, buf)
	assert.True(t, sh.consumers[0].consumed)
	assert.False(t, sh.consumers[1].consumed)

	// second caller drains the cache
	buf.Silence()
	assert.Equal(t, Playing, sh.processAudio(buf, e2, ctx))
	assert.Equal(t, 1, st.chunks)
	assert.Equal(t, signal.Float64{{1, 1, 1, 1}}, buf)
	assert.True(t, sh.consumers[1].consumed)

	// group drained: next turn refreshes
	sh.processAudio(buf, e1, ctx)
	assert.Equal(t, 2, st.chunks)
}

func TestSharedDoubleConsume(t *testing.T) {
	was := debug.Enabled()
	defer debug.SetEnabled(was)
	debug.SetEnabled(true)

	st := &stub{}
	sh, e1, _ := sharedWithEdges(st)
	buf := signal.Empty(1, 4)
	ctx := NewContext()

	sh.processAudio(buf, e1, ctx)
	assert.Panics(t, func() {
		sh.processAudio(buf, e1, ctx)
	})
}

func TestSharedStartOver(t *testing.T) {
	st := &stub{}
	sh, e1, e2 := sharedWithEdges(st)
	buf := signal.Empty(1, 4)
	ctx := NewContext()

	sh.processAudio(buf, e1, ctx)
	sh.StartOver()
	assert.Equal(t, 1, st.resets)
	assert.Equal(t, 0, sh.node.timing.Elapsed())
	for _, c := range sh.consumers {
		assert.True(t, c.consumed)
	}

	// the cache is invalid after reset: any consumer forces a fresh turn
	sh.processAudio(buf, e2, ctx)
	assert.Equal(t, 2, st.chunks)
}

func TestSharedEntryPoint(t *testing.T) {
	st := &stub{}
	sh := newSharedNode(stubNode("s", true, st), 1, 4)
	assert.True(t, sh.IsEntryPoint())

	e := newEdge(topology.InputID{Proc: "a", Name: "in"}, 0)
	e.swap(linkShared, nil, sh)
	assert.False(t, sh.IsEntryPoint())
	assert.Equal(t, []*Edge{e}, sh.Consumers())

	// closing the edge is the finalizer discipline: registration never
	// outlives the edge
	e.Close()
	assert.True(t, sh.IsEntryPoint())
	assert.Empty(t, sh.Consumers())

	// closing twice is fine
	e.Close()
	assert.True(t, sh.IsEntryPoint())

	// with no consumers every pull refreshes
	buf := signal.Empty(1, 4)
	ctx := NewContext()
	sh.processAudio(buf, nil, ctx)
	sh.processAudio(buf, nil, ctx)
	assert.Equal(t, 2, st.chunks)
}

func TestStaticNeverDone(t *testing.T) {
	st := &stub{status: Done}
	n := stubNode("s", true, st)
	buf := signal.Empty(1, 4)
	assert.Equal(t, Playing, n.ProcessAudio(buf, NewContext()))
	assert.Equal(t, 1, n.Timing().Elapsed())

	dyn := stubNode("d", false, &stub{status: Done})
	assert.Equal(t, Done, dyn.ProcessAudio(buf, NewContext()))
}
