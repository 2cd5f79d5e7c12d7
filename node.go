package synth

import (
	"pipelined.dev/synth/signal"
	"pipelined.dev/synth/topology"
)

// Node is the executable counterpart of one live processor instance: the
// processor id, a fresh timing and the compiled instance with its own
// consumer edges.
type Node struct {
	id     topology.ProcID
	static bool
	timing Timing
	inst   Instance
	inputs []*Edge
}

// ID returns the processor id the node was compiled from.
func (n *Node) ID() topology.ProcID {
	return n.id
}

// Timing returns the node's progress counter.
func (n *Node) Timing() *Timing {
	return &n.timing
}

// Inputs returns the consumer edges owned by this instance.
func (n *Node) Inputs() []*Edge {
	return n.inputs
}

// ProcessAudio renders one chunk and advances the timing. Static nodes
// never report completion.
func (n *Node) ProcessAudio(dst signal.Float64, ctx *Context) Status {
	status := n.inst.ProcessAudio(dst, ctx)
	n.timing.Advance()
	if n.static {
		return Playing
	}
	return status
}

// StartOver rewinds the instance, zeroes the timing and flags every
// owned edge for an implicit reset on its next step.
func (n *Node) StartOver() {
	n.inst.StartOver()
	n.timing.StartOver()
	for _, e := range n.inputs {
		e.timing.RequestReset()
	}
}

// Drop destroys the node off the render thread. Owned edges are closed
// once more in case a teardown path missed them; by the time a node
// reaches the reclaimer the engine has already detached it, so this is
// normally a no-op.
func (n *Node) Drop() {
	for _, e := range n.inputs {
		if orphan := e.Close(); orphan != nil {
			orphan.Drop()
		}
	}
	if d, ok := n.inst.(Droppable); ok {
		d.Drop()
	}
}
