// Package mock provides scripted processor definitions used to test the
// graph runtime. A mock instance mixes its inputs, adds a constant (or
// expression-produced) value to every sample and completes on demand.
package mock

import (
	"pipelined.dev/synth"
	"pipelined.dev/synth/expr"
	"pipelined.dev/synth/signal"
)

type (
	// Processor is a scripted definition. Zero value is a dynamic
	// processor that never completes and renders silence.
	Processor struct {
		IsStatic       bool
		Value          float64                 // added to every sample
		Script         func(chunk int) float64 // per-chunk value, overrides Value and Expr
		Limit          int                     // chunks until Done; 0 means never
		HonorReleases  bool                    // cooperatively stop on pending release
		Expr           expr.Graph              // overrides Value through the compiler
		ErrorOnCompile error

		// Counters for assertions.
		Compiled  int
		Drops     int
		Instances []*Instance
	}

	// Instance is one compiled mock instance.
	Instance struct {
		def     *Processor
		inputs  []*synth.Edge
		value   expr.Func
		scratch signal.Float64

		Chunks int // rendered since last start-over
		Resets int
	}
)

// Static implements synth.Definition.
func (p *Processor) Static() bool {
	return p.IsStatic
}

// Compile implements synth.Definition.
func (p *Processor) Compile(inputs []*synth.Edge, props synth.SignalProperties, compiler expr.Compiler) (synth.Instance, error) {
	p.Compiled++
	if p.ErrorOnCompile != nil {
		return nil, p.ErrorOnCompile
	}
	value := expr.Func(func([]float64) float64 { return p.Value })
	if compiler != nil && p.Expr != nil {
		fn, err := compiler.Compile(p.Expr, 0)
		if err != nil {
			return nil, err
		}
		value = fn
	}
	instance := &Instance{
		def:     p,
		inputs:  inputs,
		value:   value,
		scratch: signal.Empty(props.Channels, props.ChunkSize),
	}
	p.Instances = append(p.Instances, instance)
	return instance, nil
}

// ProcessAudio mixes all inputs, adds the scripted value and reports
// completion per the definition's script.
func (i *Instance) ProcessAudio(dst signal.Float64, ctx *synth.Context) synth.Status {
	dst.Silence()
	inputsDone := len(i.inputs) > 0
	for _, edge := range i.inputs {
		if edge.Step(i.scratch, ctx) != synth.Done {
			inputsDone = false
		}
		i.scratch.MixTo(dst)
	}
	v := i.value(nil)
	if i.def.Script != nil {
		v = i.def.Script(i.Chunks)
	}
	for c := range dst {
		for s := range dst[c] {
			dst[c][s] += v
		}
	}
	i.Chunks++
	if offset, ok := ctx.PendingRelease(); ok && i.def.HonorReleases {
		for c := range dst {
			for s := offset; s < len(dst[c]); s++ {
				dst[c][s] = 0
			}
		}
		ctx.HonorRelease()
		return synth.Done
	}
	if i.def.Limit > 0 && i.Chunks >= i.def.Limit {
		return synth.Done
	}
	if inputsDone {
		return synth.Done
	}
	return synth.Playing
}

// StartOver implements synth.Instance.
func (i *Instance) StartOver() {
	i.Chunks = 0
	i.Resets++
}

// Drop implements synth.Droppable. Counters are safe to read after the
// engine's reclaimer is closed.
func (i *Instance) Drop() {
	i.def.Drops++
}
