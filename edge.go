package synth

import (
	"pipelined.dev/synth/signal"
	"pipelined.dev/synth/topology"
)

// linkKind discriminates the link a consumer edge holds.
type linkKind int

const (
	linkEmpty linkKind = iota
	linkUnique
	linkShared
)

// Edge is one consumer edge: a single branch of a sound input holding a
// link to the node it pulls. An unconnected edge holds the empty link
// and produces silence.
type Edge struct {
	input  topology.InputID
	branch int
	timing InputTiming

	kind   linkKind
	unique *Node
	shared *SharedNode
}

func newEdge(input topology.InputID, branch int) *Edge {
	return &Edge{input: input, branch: branch}
}

// Input returns the sound input this edge belongs to.
func (e *Edge) Input() topology.InputID {
	return e.input
}

// Branch returns the branch slot this edge occupies.
func (e *Edge) Branch() int {
	return e.branch
}

// Timing returns the edge's stop-protocol state.
func (e *Edge) Timing() *InputTiming {
	return &e.timing
}

// Step renders one chunk through the edge:
//
//  1. an implicit start-over runs first if one was requested;
//  2. a finished edge keeps producing silence;
//  3. otherwise the pull is dispatched to the held link under a context
//     frame identifying this edge;
//  4. a release that was pending before the pull and was not honored by
//     the producer forces completion, which bounds shutdown latency to
//     one chunk.
func (e *Edge) Step(dst signal.Float64, ctx *Context) Status {
	if e.timing.needsReset {
		e.resetLink()
		e.timing.reset()
	}
	if e.timing.done {
		dst.Silence()
		return Done
	}
	releasing := e.timing.releasePending
	ctx.push(Frame{Input: e.input, Branch: e.branch, timing: &e.timing})
	status := e.processLink(dst, ctx)
	ctx.pop()
	if status == Done {
		e.timing.done = true
	}
	if releasing && !e.timing.released {
		e.timing.done = true
		return Done
	}
	return status
}

func (e *Edge) processLink(dst signal.Float64, ctx *Context) Status {
	switch e.kind {
	case linkUnique:
		return e.unique.ProcessAudio(dst, ctx)
	case linkShared:
		return e.shared.processAudio(dst, e, ctx)
	default:
		dst.Silence()
		return Done
	}
}

// resetLink rewinds the held producer. A unique link is owned by this
// edge alone, so the edge rewinds it in place. A shared link is owned by
// the whole consumer group: the engine rewinds it once for everyone, and
// a per-edge rewind here would refresh the cache mid-turn and desync the
// group. The edge only resets its own timing for shared links.
func (e *Edge) resetLink() {
	if e.kind == linkUnique {
		e.unique.StartOver()
	}
}

// swap replaces the held link. This is the single place where shared
// registration changes: the outgoing shared link is deregistered before
// the incoming one is registered. An orphaned unique node is returned
// for reclamation.
func (e *Edge) swap(kind linkKind, unique *Node, shared *SharedNode) *Node {
	var orphan *Node
	switch e.kind {
	case linkShared:
		e.shared.deregister(e)
	case linkUnique:
		orphan = e.unique
	}
	e.kind, e.unique, e.shared = kind, unique, shared
	if kind == linkShared {
		shared.register(e)
	}
	return orphan
}

// Close swaps the link to empty. It must run on every teardown path of
// the edge so no shared registration outlives it. Closing a closed edge
// is a no-op.
func (e *Edge) Close() *Node {
	if e.kind == linkEmpty {
		return nil
	}
	return e.swap(linkEmpty, nil, nil)
}
