// Command synth renders a small demo patch to a wav file: a shared
// drone pulled by two detuned voices. It doubles as an example of
// driving the engine: build the topology through the edit protocol,
// then pull chunks on a single render loop.
package main

import (
	"flag"
	"fmt"
	"os"

	"pipelined.dev/synth"
	"pipelined.dev/synth/log"
	"pipelined.dev/synth/signal"
	"pipelined.dev/synth/stash"
	"pipelined.dev/synth/topology"
	"pipelined.dev/synth/wav"
)

func main() {
	var (
		out     = flag.String("o", "synth.wav", "output wav file")
		seconds = flag.Float64("seconds", 2, "duration to render")
		rate    = flag.Int("rate", 44100, "sample rate")
		chunk   = flag.Int("chunk", 512, "chunk size in samples")
		patch   = flag.String("patch", "", "write the topology as yaml to this file")
	)
	flag.Parse()

	if err := run(*out, *patch, *seconds, *rate, *chunk); err != nil {
		fmt.Fprintf(os.Stderr, "synth: %v\n", err)
		os.Exit(1)
	}
}

func run(out, patch string, seconds float64, rate, chunk int) error {
	props := synth.SignalProperties{SampleRate: rate, Channels: 2, ChunkSize: chunk}
	engine, err := synth.New(
		synth.WithLogger(log.Default()),
		synth.WithSignalProperties(props),
	)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := buildPatch(engine); err != nil {
		return err
	}
	if patch != "" {
		if err := writePatch(engine, patch); err != nil {
			return err
		}
	}

	drain, err := wav.NewDrain(out, props, 16)
	if err != nil {
		return err
	}
	buf := signal.Empty(props.Channels, props.ChunkSize)
	chunks := int(seconds * float64(rate) / float64(chunk))
	for i := 0; i < chunks; i++ {
		engine.RenderChunk(buf)
		if err := drain.Write(buf); err != nil {
			drain.Flush()
			return err
		}
	}
	return drain.Flush()
}

// buildPatch wires a shared static drone into two detuned voices. Both
// voices consume the same drone directly, so it is computed once per
// chunk and served from the shared node's cache.
func buildPatch(engine *synth.Engine) error {
	if err := engine.AddProcessor("drone", &sine{static: true, freq: 110, gain: 0.2}); err != nil {
		return err
	}
	for id, freq := range map[topology.ProcID]float64{"low": 220, "high": 221.5} {
		if err := engine.AddProcessor(id, &sine{freq: freq, gain: 0.15}); err != nil {
			return err
		}
		in := topology.InputID{Proc: id, Name: "drone"}
		if err := engine.AddInput(in, topology.Synchronous); err != nil {
			return err
		}
		if err := engine.Connect(in, "drone"); err != nil {
			return err
		}
	}
	return nil
}

func writePatch(engine *synth.Engine, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return stash.YAML{}.Stash(file, engine.Snapshot())
}
