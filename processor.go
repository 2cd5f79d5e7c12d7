package synth

import (
	"pipelined.dev/synth/expr"
	"pipelined.dev/synth/signal"
)

type (
	// Definition is the contract a concrete processor kind satisfies.
	// Definitions are registered with the engine; the engine compiles
	// them into instances whenever the processor becomes live or its
	// input set changes.
	Definition interface {
		// Static reports whether the processor represents a persistent
		// external resource. A static processor has exactly one live
		// instance and never reports completion.
		Static() bool
		// Compile produces an instance for the current set of consumer
		// edges. The instance owns the edges and pulls them inside
		// ProcessAudio. The expression compiler turns the definition's
		// expression graphs into per-sample functions.
		Compile(inputs []*Edge, props SignalProperties, compiler expr.Compiler) (Instance, error)
	}

	// Instance is one live, compiled processor instance.
	Instance interface {
		// ProcessAudio renders one chunk. It must write every sample of
		// dst: the destination is reused between pulls and is not
		// cleared by the caller.
		ProcessAudio(dst signal.Float64, ctx *Context) Status
		// StartOver rewinds the instance to its initial state.
		StartOver()
	}

	// SignalProperties describe the chunks an instance renders.
	SignalProperties struct {
		SampleRate int
		Channels   int
		ChunkSize  int
	}

	// Droppable is anything the reclaimer can destroy. Destruction may
	// be arbitrarily expensive, which is why it happens off the render
	// thread.
	Droppable interface {
		Drop()
	}
)
