package synth

import (
	"fmt"

	"pipelined.dev/synth/internal/debug"
	"pipelined.dev/synth/topology"
)

// compileNode compiles the processor against its current inputs: one
// consumer edge per branch of each owned input, linked to its target,
// then the definition's own compile step.
func (e *Engine) compileNode(id topology.ProcID) (*Node, error) {
	def := e.defs[id]
	var edges []*Edge
	unwind := func() {
		for _, edge := range edges {
			e.removeLiveEdge(edge)
			e.detachReclaim(edge.Close())
		}
	}
	for _, inID := range e.topo.Inputs(id) {
		in, _ := e.topo.Input(inID)
		for b := 0; b < in.Branches; b++ {
			edge := newEdge(inID, b)
			if err := e.link(edge, in.Target); err != nil {
				unwind()
				return nil, err
			}
			e.edges[inID] = append(e.edges[inID], edge)
			edges = append(edges, edge)
		}
	}
	inst, err := def.Compile(edges, e.props, e.compiler)
	if err != nil {
		unwind()
		return nil, fmt.Errorf("compile %q: %w", id, err)
	}
	return &Node{id: id, static: def.Static(), inst: inst, inputs: edges}, nil
}

// link points the edge at target: the empty link for no target, the
// singleton shared node for a static target, a freshly compiled instance
// for a dynamic one. The replaced link is reclaimed.
func (e *Engine) link(edge *Edge, target topology.ProcID) error {
	if target == "" {
		e.detachReclaim(edge.Close())
		return nil
	}
	if sh, ok := e.shared[target]; ok {
		e.detachReclaim(edge.swap(linkShared, nil, sh))
		return nil
	}
	n, err := e.compileNode(target)
	if err != nil {
		return err
	}
	e.detachReclaim(edge.swap(linkUnique, n, nil))
	return nil
}

// rebuild recompiles every live instance of the processor after its
// input set changed: the shared node's wrapped instance, the entry-point
// instance and, for dynamic processors, the instance behind each live
// consumer edge.
func (e *Engine) rebuild(id topology.ProcID) error {
	if sh, ok := e.shared[id]; ok {
		n, err := e.compileNode(id)
		if err != nil {
			return err
		}
		e.detachReclaim(sh.replace(n))
		return nil
	}
	if old, ok := e.roots[id]; ok {
		n, err := e.compileNode(id)
		if err != nil {
			return err
		}
		e.roots[id] = n
		delete(e.rootDone, id)
		e.detachReclaim(old)
	}
	for _, in := range e.topo.Consumers(id) {
		for _, edge := range e.edges[in] {
			if err := e.link(edge, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// relinkInput points every live edge of the input at its current target.
func (e *Engine) relinkInput(id topology.InputID) error {
	in, ok := e.topo.Input(id)
	if !ok {
		return fmt.Errorf("%w: %v", topology.ErrInputNotFound, id)
	}
	for _, edge := range e.edges[id] {
		if err := e.link(edge, in.Target); err != nil {
			return err
		}
	}
	return nil
}

// syncRoots aligns entry-point instances of dynamic processors with the
// topology: a dynamic processor has a root instance exactly when nothing
// consumes it.
func (e *Engine) syncRoots() error {
	for _, id := range e.topo.Processors() {
		p, _ := e.topo.Proc(id)
		if p.Kind == topology.Static {
			continue
		}
		_, isRoot := e.roots[id]
		switch consumed := len(e.topo.Consumers(id)) > 0; {
		case consumed && isRoot:
			n := e.roots[id]
			delete(e.roots, id)
			delete(e.rootDone, id)
			e.detachReclaim(n)
		case !consumed && !isRoot:
			n, err := e.compileNode(id)
			if err != nil {
				return err
			}
			e.roots[id] = n
		}
	}
	return nil
}

// detachReclaim detaches the node from control-path bookkeeping and
// hands it to the reclaimer. Safe to call with nil.
func (e *Engine) detachReclaim(n *Node) {
	if n == nil {
		return
	}
	e.detach(n)
	e.reclaimer.Reclaim(n)
}

// detach runs the control-path half of a node removal: live-edge maps
// and shared registrations. Orphaned subtrees are reclaimed one node at
// a time; destruction itself happens in the reclaimer.
func (e *Engine) detach(n *Node) {
	for _, edge := range n.inputs {
		e.removeLiveEdge(edge)
		if orphan := edge.Close(); orphan != nil {
			e.detach(orphan)
			e.reclaimer.Reclaim(orphan)
		}
	}
}

func (e *Engine) removeLiveEdge(edge *Edge) {
	list := e.edges[edge.input]
	for i := range list {
		if list[i] == edge {
			e.edges[edge.input] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(e.edges[edge.input]) == 0 {
		delete(e.edges, edge.input)
	}
}

// mustEdit runs compensating edits which restore a shape that was live
// moments ago. They cannot legally fail; a failure means the engine and
// topology disagree.
func (e *Engine) mustEdit(err error) {
	if err == nil {
		return
	}
	debug.Assert(false, "compensating edit failed", err)
	e.logger.Infof("compensating edit failed: %v", err)
}
