package synth

import "pipelined.dev/synth/topology"

type (
	// Frame identifies the consumer edge a pull currently runs under:
	// the input's location and its branch.
	Frame struct {
		Input  topology.InputID
		Branch int

		timing *InputTiming
	}

	// Context is the render-path context. It carries a stack of frames,
	// one pushed per consumer edge on the pull path, so a processor can
	// see which edge is pulling it and whether that edge has a pending
	// release. The stack is preallocated and reused across chunks.
	Context struct {
		frames []Frame
	}
)

// NewContext returns a context with preallocated frame stack.
func NewContext() *Context {
	return &Context{frames: make([]Frame, 0, 64)}
}

// ensureDepth grows the frame stack for pull paths of up to n edges.
// The engine calls it whenever a processor is added: a pull path visits
// each processor at most once, so the processor count bounds the depth
// and push never allocates on the render thread.
func (c *Context) ensureDepth(n int) {
	if cap(c.frames) < n {
		c.frames = append(make([]Frame, 0, n), c.frames...)
	}
}

func (c *Context) push(f Frame) {
	c.frames = append(c.frames, f)
}

func (c *Context) pop() {
	c.frames = c.frames[:len(c.frames)-1]
}

// Frame returns the innermost frame of the pull path. ok is false at
// the top level, where entry points are pulled without a consumer edge.
func (c *Context) Frame() (f Frame, ok bool) {
	if len(c.frames) == 0 {
		return Frame{}, false
	}
	return c.frames[len(c.frames)-1], true
}

// Depth returns the number of consumer edges on the pull path.
func (c *Context) Depth() int {
	return len(c.frames)
}

// PendingRelease returns the sample offset of an unhonored release
// request on the innermost edge.
func (c *Context) PendingRelease() (offset int, ok bool) {
	f, ok := c.Frame()
	if !ok || !f.timing.releasePending || f.timing.released {
		return 0, false
	}
	return f.timing.releaseAt, true
}

// HonorRelease marks the innermost edge's release request as honored.
// A processor calls it when it has cooperatively stopped within the
// current chunk.
func (c *Context) HonorRelease() {
	if f, ok := c.Frame(); ok {
		f.timing.released = true
	}
}
