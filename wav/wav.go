// Package wav drains rendered chunks into a wav file.
package wav

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/synth"
	"pipelined.dev/synth/signal"
)

// Drain accumulates chunks and encodes them into a wav file. It is a
// consumer of the engine's output, not part of the graph: the render
// loop calls Write once per rendered chunk and Flush when done.
type Drain struct {
	file     *os.File
	encoder  *wav.Encoder
	bitDepth int
	ints     audio.IntBuffer
}

// NewDrain creates a wav file for the engine's signal properties.
func NewDrain(path string, props synth.SignalProperties, bitDepth int) (*Drain, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav file: %w", err)
	}
	return &Drain{
		file:     file,
		encoder:  wav.NewEncoder(file, props.SampleRate, bitDepth, props.Channels, 1),
		bitDepth: bitDepth,
		ints: audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: props.Channels,
				SampleRate:  props.SampleRate,
			},
			SourceBitDepth: bitDepth,
			Data:           make([]int, props.Channels*props.ChunkSize),
		},
	}, nil
}

// Write encodes one chunk.
func (d *Drain) Write(chunk signal.Float64) error {
	multiplier := float64(int(1)<<(d.bitDepth-1) - 1)
	numChannels := chunk.NumChannels()
	for i := 0; i < chunk.Size(); i++ {
		for c := 0; c < numChannels; c++ {
			d.ints.Data[i*numChannels+c] = int(chunk[c][i] * multiplier)
		}
	}
	if err := d.encoder.Write(&d.ints); err != nil {
		return fmt.Errorf("encode chunk: %w", err)
	}
	return nil
}

// Flush finalizes the wav header and closes the file.
func (d *Drain) Flush() error {
	if err := d.encoder.Close(); err != nil {
		d.file.Close()
		return fmt.Errorf("finalize wav file: %w", err)
	}
	return d.file.Close()
}
