package signal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/synth/signal"
)

func TestEmpty(t *testing.T) {
	buf := signal.Empty(2, 8)
	assert.Equal(t, 2, buf.NumChannels())
	assert.Equal(t, 8, buf.Size())
	var zero signal.Float64
	assert.Equal(t, 0, zero.NumChannels())
	assert.Equal(t, 0, zero.Size())
}

func TestSilenceCopyMix(t *testing.T) {
	src := signal.Float64{{1, 2}, {3, 4}}
	dst := signal.Empty(2, 2)

	src.CopyTo(dst)
	assert.Equal(t, signal.Float64{{1, 2}, {3, 4}}, dst)

	src.MixTo(dst)
	assert.Equal(t, signal.Float64{{2, 4}, {6, 8}}, dst)

	dst.Silence()
	assert.Equal(t, signal.Float64{{0, 0}, {0, 0}}, dst)
	// source untouched
	assert.Equal(t, signal.Float64{{1, 2}, {3, 4}}, src)
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, time.Second, signal.DurationOf(44100, 44100))
	assert.Equal(t, 500*time.Millisecond, signal.DurationOf(44100, 22050))
}
