package main

import (
	"math"

	"pipelined.dev/synth"
	"pipelined.dev/synth/expr"
	"pipelined.dev/synth/signal"
)

// sine is a minimal processor for the demo: a sine generator that mixes
// its inputs on top of its own tone. Concrete processors normally live
// outside the engine module; this one exists so the demo has sound.
type sine struct {
	static bool
	freq   float64
	gain   float64
}

func (s *sine) Static() bool {
	return s.static
}

func (s *sine) Compile(inputs []*synth.Edge, props synth.SignalProperties, _ expr.Compiler) (synth.Instance, error) {
	return &sineInstance{
		def:     s,
		inputs:  inputs,
		step:    2 * math.Pi * s.freq / float64(props.SampleRate),
		scratch: signal.Empty(props.Channels, props.ChunkSize),
	}, nil
}

type sineInstance struct {
	def     *sine
	inputs  []*synth.Edge
	step    float64
	phase   float64
	scratch signal.Float64
}

func (i *sineInstance) ProcessAudio(dst signal.Float64, ctx *synth.Context) synth.Status {
	dst.Silence()
	for _, edge := range i.inputs {
		edge.Step(i.scratch, ctx)
		i.scratch.MixTo(dst)
	}
	phase := i.phase
	for s := 0; s < dst.Size(); s++ {
		sample := math.Sin(phase) * i.def.gain
		for c := range dst {
			dst[c][s] += sample
		}
		phase += i.step
	}
	i.phase = math.Mod(phase, 2*math.Pi)
	return synth.Playing
}

func (i *sineInstance) StartOver() {
	i.phase = 0
}
