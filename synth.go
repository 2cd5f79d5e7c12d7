package synth

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"pipelined.dev/synth/expr"
	"pipelined.dev/synth/log"
	"pipelined.dev/synth/signal"
	"pipelined.dev/synth/topology"
)

const (
	defaultSampleRate    = 44100
	defaultChannels      = 2
	defaultChunkSize     = 512
	defaultReclaimBuffer = 64
)

// Engine owns a topology and its compiled mirror. Every structural edit
// first goes through the topology's transactional protocol and is then
// applied as an equivalent change to the compiled graph, so the render
// path only ever sees a graph matching a valid topology.
//
// Edits and rendering must be serialized by the caller: the engine is a
// single-threaded control surface over a single-threaded render loop.
type Engine struct {
	topo     *topology.Topology
	defs     map[topology.ProcID]Definition
	props    SignalProperties
	compiler expr.Compiler

	shared   map[topology.ProcID]*SharedNode
	roots    map[topology.ProcID]*Node
	rootDone map[topology.ProcID]bool
	edges    map[topology.InputID][]*Edge
	order    []topology.ProcID // render walk order, maintained on the control path

	ctx     *Context
	scratch signal.Float64

	reclaimer     *Reclaimer
	reclaimBuffer int
	logger        *logrus.Logger
}

// Option provides a way to set functional parameters to the engine.
type Option func(*Engine) error

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithSignalProperties sets sample rate, channels and chunk size.
func WithSignalProperties(props SignalProperties) Option {
	return func(e *Engine) error {
		if props.SampleRate <= 0 || props.Channels <= 0 || props.ChunkSize <= 0 {
			return fmt.Errorf("invalid signal properties: %+v", props)
		}
		e.props = props
		return nil
	}
}

// WithExprCompiler sets the expression compiler handed to definitions.
func WithExprCompiler(c expr.Compiler) Option {
	return func(e *Engine) error {
		e.compiler = c
		return nil
	}
}

// WithReclaimBuffer sets the reclaimer channel buffer.
func WithReclaimBuffer(buffer int) Option {
	return func(e *Engine) error {
		if buffer < 0 {
			return fmt.Errorf("negative reclaim buffer: %d", buffer)
		}
		e.reclaimBuffer = buffer
		return nil
	}
}

// New creates an engine and starts its reclaimer.
func New(options ...Option) (*Engine, error) {
	e := &Engine{
		topo: topology.New(),
		defs: make(map[topology.ProcID]Definition),
		props: SignalProperties{
			SampleRate: defaultSampleRate,
			Channels:   defaultChannels,
			ChunkSize:  defaultChunkSize,
		},
		shared:        make(map[topology.ProcID]*SharedNode),
		roots:         make(map[topology.ProcID]*Node),
		rootDone:      make(map[topology.ProcID]bool),
		edges:         make(map[topology.InputID][]*Edge),
		reclaimBuffer: defaultReclaimBuffer,
		logger:        log.Default(),
	}
	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}
	e.ctx = NewContext()
	e.scratch = signal.Empty(e.props.Channels, e.props.ChunkSize)
	e.reclaimer = NewReclaimer(e.reclaimBuffer, e.logger)
	return e, nil
}

// NewProcID returns a generated processor id.
func NewProcID() topology.ProcID {
	return topology.ProcID(xid.New().String())
}

// Properties returns the engine's signal properties.
func (e *Engine) Properties() SignalProperties {
	return e.props
}

// Snapshot captures the current topology.
func (e *Engine) Snapshot() topology.Snapshot {
	return e.topo.Snapshot()
}

// Shared returns the shared node of a static processor.
func (e *Engine) Shared(id topology.ProcID) (*SharedNode, bool) {
	sh, ok := e.shared[id]
	return sh, ok
}

// Root returns the entry-point instance of a dynamic processor without
// consumers.
func (e *Engine) Root(id topology.ProcID) (*Node, bool) {
	n, ok := e.roots[id]
	return n, ok
}

// LiveEdges returns the live consumer edges of an input, one per branch
// per instance of the input's owner.
func (e *Engine) LiveEdges(id topology.InputID) []*Edge {
	return append([]*Edge(nil), e.edges[id]...)
}

// Close tears the whole graph down through the reclaimer and stops it.
func (e *Engine) Close() {
	for id, n := range e.roots {
		delete(e.roots, id)
		delete(e.rootDone, id)
		e.detachReclaim(n)
	}
	for id, sh := range e.shared {
		delete(e.shared, id)
		e.detachReclaim(sh.replace(nil))
	}
	e.reclaimer.Close()
}

// AddProcessor adds a processor and makes it live: static processors get
// their singleton shared node, dynamic ones an entry-point instance.
func (e *Engine) AddProcessor(id topology.ProcID, def Definition) error {
	kind := topology.Dynamic
	if def.Static() {
		kind = topology.Static
	}
	if err := e.topo.AddProcessor(id, kind); err != nil {
		return err
	}
	e.defs[id] = def
	n, err := e.compileNode(id)
	if err != nil {
		delete(e.defs, id)
		e.mustEdit(e.topo.RemoveProcessor(id))
		return err
	}
	if def.Static() {
		e.shared[id] = newSharedNode(n, e.props.Channels, e.props.ChunkSize)
	} else {
		e.roots[id] = n
	}
	e.order = append(e.order, id)
	e.ctx.ensureDepth(len(e.order))
	e.logger.Debugf("added %s processor %q", kind, id)
	return nil
}

// RemoveProcessor removes a fully detached processor and reclaims its
// live instance.
func (e *Engine) RemoveProcessor(id topology.ProcID) error {
	if err := e.topo.RemoveProcessor(id); err != nil {
		return err
	}
	delete(e.defs, id)
	if sh, ok := e.shared[id]; ok {
		delete(e.shared, id)
		e.detachReclaim(sh.replace(nil))
	}
	if n, ok := e.roots[id]; ok {
		delete(e.roots, id)
		delete(e.rootDone, id)
		e.detachReclaim(n)
	}
	for i, pid := range e.order {
		if pid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.logger.Debugf("removed processor %q", id)
	return nil
}

// AddInput adds an unconnected input with one branch slot and recompiles
// the owner's live instances.
func (e *Engine) AddInput(id topology.InputID, sync topology.Synchronicity) error {
	if err := e.topo.AddInput(id, sync); err != nil {
		return err
	}
	if err := e.rebuild(id.Proc); err != nil {
		e.mustEdit(e.topo.RemoveInput(id))
		e.mustEdit(e.rebuild(id.Proc))
		return err
	}
	return nil
}

// RemoveInput removes a disconnected input and recompiles the owner's
// live instances.
func (e *Engine) RemoveInput(id topology.InputID) error {
	in, _ := e.topo.Input(id)
	if err := e.topo.RemoveInput(id); err != nil {
		return err
	}
	if err := e.rebuild(id.Proc); err != nil {
		e.mustEdit(e.topo.AddInput(id, in.Sync))
		for b := 1; b < in.Branches; b++ {
			e.mustEdit(e.topo.AddBranch(id))
		}
		if in.Branches == 0 {
			e.mustEdit(e.topo.RemoveBranch(id))
		}
		e.mustEdit(e.rebuild(id.Proc))
		return err
	}
	return nil
}

// AddBranch adds a branch slot to an input and recompiles the owner's
// live instances.
func (e *Engine) AddBranch(id topology.InputID) error {
	if err := e.topo.AddBranch(id); err != nil {
		return err
	}
	if err := e.rebuild(id.Proc); err != nil {
		e.mustEdit(e.topo.RemoveBranch(id))
		e.mustEdit(e.rebuild(id.Proc))
		return err
	}
	return nil
}

// RemoveBranch removes a branch slot from an input and recompiles the
// owner's live instances.
func (e *Engine) RemoveBranch(id topology.InputID) error {
	if err := e.topo.RemoveBranch(id); err != nil {
		return err
	}
	if err := e.rebuild(id.Proc); err != nil {
		e.mustEdit(e.topo.AddBranch(id))
		e.mustEdit(e.rebuild(id.Proc))
		return err
	}
	return nil
}

// Connect targets an input at a processor and relinks every live edge of
// the input.
func (e *Engine) Connect(id topology.InputID, target topology.ProcID) error {
	if err := e.topo.Connect(id, target); err != nil {
		return err
	}
	if err := e.relinkInput(id); err != nil {
		e.mustEdit(e.topo.Disconnect(id))
		e.mustEdit(e.relinkInput(id))
		return err
	}
	// the target may have just lost its entry-point role; no compile
	// happens on this path
	e.mustEdit(e.syncRoots())
	e.logger.Debugf("connected %v to %q", id, target)
	return nil
}

// Disconnect clears an input's target; its live edges go silent.
func (e *Engine) Disconnect(id topology.InputID) error {
	in, _ := e.topo.Input(id)
	if err := e.topo.Disconnect(id); err != nil {
		return err
	}
	target := in.Target
	for _, edge := range e.edges[id] {
		e.detachReclaim(edge.Close())
	}
	if err := e.syncRoots(); err != nil {
		e.mustEdit(e.topo.Connect(id, target))
		e.mustEdit(e.relinkInput(id))
		return err
	}
	e.logger.Debugf("disconnected %v", id)
	return nil
}

// Release requests a cooperative stop on every live edge of the input at
// the given sample offset of the next chunk.
func (e *Engine) Release(id topology.InputID, offset int) error {
	if _, ok := e.topo.Input(id); !ok {
		return fmt.Errorf("%w: %v", topology.ErrInputNotFound, id)
	}
	for _, edge := range e.edges[id] {
		edge.timing.Release(offset)
	}
	return nil
}

// StartOver rewinds the whole graph.
func (e *Engine) StartOver() {
	for _, sh := range e.shared {
		sh.StartOver()
	}
	for id, n := range e.roots {
		n.StartOver()
		delete(e.rootDone, id)
	}
}

// RenderChunk pulls one chunk from every entry point and mixes the
// results into dst. It is the only operation allowed on the render
// thread; signal buffers are preallocated and reused between chunks.
func (e *Engine) RenderChunk(dst signal.Float64) Status {
	dst.Silence()
	status := Done
	for _, id := range e.order {
		if sh, ok := e.shared[id]; ok && sh.IsEntryPoint() {
			sh.processAudio(e.scratch, nil, e.ctx)
			e.scratch.MixTo(dst)
			status = Playing
		}
		if n, ok := e.roots[id]; ok {
			if e.rootDone[id] {
				continue
			}
			st := n.ProcessAudio(e.scratch, e.ctx)
			e.scratch.MixTo(dst)
			if st == Done {
				e.rootDone[id] = true
			} else {
				status = Playing
			}
		}
	}
	return status
}
