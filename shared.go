package synth

import (
	"sync"

	"pipelined.dev/synth/internal/debug"
	"pipelined.dev/synth/signal"
)

type (
	// SharedNode makes one node safely reachable from multiple consumer
	// edges. The wrapped processor runs once per turn: the first caller
	// after the group has drained refreshes the cached chunk, everyone
	// else copies it. The lock guards the check-refresh-copy sequence
	// only, to bound worst-case hold time on the render path.
	SharedNode struct {
		mu        sync.Mutex
		node      *Node
		cache     signal.Float64
		status    Status
		consumers []sharedConsumer
	}

	// sharedConsumer pairs a registered edge with its per-turn consumed
	// flag.
	sharedConsumer struct {
		edge     *Edge
		consumed bool
	}
)

func newSharedNode(n *Node, channels, chunkSize int) *SharedNode {
	return &SharedNode{
		node:  n,
		cache: signal.Empty(channels, chunkSize),
	}
}

// Node returns the wrapped node.
func (s *SharedNode) Node() *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.node
}

// IsEntryPoint reports whether no consumer edge holds a link to this
// node. Entry points are pulled directly by the scheduler.
func (s *SharedNode) IsEntryPoint() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.consumers) == 0
}

// Consumers returns the currently registered consumer edges.
func (s *SharedNode) Consumers() []*Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	edges := make([]*Edge, 0, len(s.consumers))
	for _, c := range s.consumers {
		edges = append(edges, c.edge)
	}
	return edges
}

// processAudio implements the caching protocol. caller is nil when the
// scheduler pulls the node as an entry point.
func (s *SharedNode) processAudio(dst signal.Float64, caller *Edge, ctx *Context) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allConsumed() {
		s.status = s.node.ProcessAudio(s.cache, ctx)
		for i := range s.consumers {
			s.consumers[i].consumed = false
		}
	}
	s.cache.CopyTo(dst)
	if caller != nil {
		i := s.consumerIndex(caller)
		debug.Assert(i >= 0, "caller is not a registered consumer", caller)
		if i >= 0 {
			debug.Assert(!s.consumers[i].consumed, "consumer pulled twice before the group drained", caller)
			s.consumers[i].consumed = true
		}
	}
	return s.status
}

// StartOver rewinds the wrapped node and marks every consumer consumed:
// the cache is invalid after a reset, so the next pull from any consumer
// refreshes it. The engine calls this once per graph rewind on behalf of
// the whole consumer group; consumer edges never rewind a shared node
// themselves.
func (s *SharedNode) StartOver() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.node.StartOver()
	for i := range s.consumers {
		s.consumers[i].consumed = true
	}
}

// replace swaps in a freshly compiled node, invalidating the cache, and
// returns the previous one for reclamation.
func (s *SharedNode) replace(n *Node) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.node
	s.node = n
	s.status = Playing
	for i := range s.consumers {
		s.consumers[i].consumed = true
	}
	return old
}

// register adds a consumer edge. The new consumer starts consumed so it
// cannot drain a chunk produced before it existed.
func (s *SharedNode) register(e *Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	debug.Assert(s.consumerIndex(e) < 0, "consumer registered twice", e)
	s.consumers = append(s.consumers, sharedConsumer{edge: e, consumed: true})
}

func (s *SharedNode) deregister(e *Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.consumerIndex(e)
	debug.Assert(i >= 0, "deregistering unknown consumer", e)
	if i >= 0 {
		s.consumers = append(s.consumers[:i], s.consumers[i+1:]...)
	}
}

func (s *SharedNode) consumerIndex(e *Edge) int {
	for i := range s.consumers {
		if s.consumers[i].edge == e {
			return i
		}
	}
	return -1
}

func (s *SharedNode) allConsumed() bool {
	for i := range s.consumers {
		if !s.consumers[i].consumed {
			return false
		}
	}
	return true
}
