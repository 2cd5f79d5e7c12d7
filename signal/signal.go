// Package signal provides buffers for non-interleaved float64 audio
// chunks and the operations the render path needs: silence, copy and mix.
// All operations work in place, so a render loop that reuses its buffers
// never allocates.
package signal

import "time"

// Float64 is a non-interleaved float64 signal: one slice per channel.
type Float64 [][]float64

// Empty returns a zeroed buffer of specified dimensions.
func Empty(numChannels, size int) Float64 {
	result := make([][]float64, numChannels)
	for i := range result {
		result[i] = make([]float64, size)
	}
	return result
}

// NumChannels returns number of channels in this buffer.
func (floats Float64) NumChannels() int {
	return len(floats)
}

// Size returns number of samples per channel.
func (floats Float64) Size() int {
	if floats.NumChannels() == 0 {
		return 0
	}
	return len(floats[0])
}

// Silence zeroes the buffer in place.
func (floats Float64) Silence() {
	for i := range floats {
		for j := range floats[i] {
			floats[i][j] = 0
		}
	}
}

// CopyTo copies the buffer into destination. Destination must have the
// same dimensions.
func (floats Float64) CopyTo(dst Float64) {
	for i := range floats {
		copy(dst[i], floats[i])
	}
}

// MixTo sums the buffer into destination sample by sample.
func (floats Float64) MixTo(dst Float64) {
	for i := range floats {
		for j := range floats[i] {
			dst[i][j] += floats[i][j]
		}
	}
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}
