package synth

type (
	// Timing tracks progress of one processor instance. The counter
	// advances by exactly one per rendered chunk and goes back to zero
	// only on an explicit start-over.
	Timing struct {
		elapsed int
	}

	// InputTiming drives the graceful-stop protocol of one consumer
	// edge.
	InputTiming struct {
		needsReset     bool
		done           bool
		releasePending bool
		releaseAt      int
		released       bool
	}
)

// Advance counts one rendered chunk.
func (t *Timing) Advance() {
	t.elapsed++
}

// Elapsed returns the number of chunks rendered since the last
// start-over.
func (t *Timing) Elapsed() int {
	return t.elapsed
}

// StartOver resets the counter.
func (t *Timing) StartOver() {
	t.elapsed = 0
}

// RequestReset asks the edge to start over before its next step.
func (t *InputTiming) RequestReset() {
	t.needsReset = true
}

// Release requests a cooperative stop at the given sample offset of the
// next chunk. The edge checks the request once per chunk and forces
// completion if the producer does not honor it, so shutdown takes at
// most one extra chunk.
func (t *InputTiming) Release(offset int) {
	t.releasePending = true
	t.releaseAt = offset
}

// Done reports whether the edge reached its terminal state.
func (t *InputTiming) Done() bool {
	return t.done
}

// Released reports whether a pending release was honored.
func (t *InputTiming) Released() bool {
	return t.released
}

// reset clears all state for an edge-level start-over.
func (t *InputTiming) reset() {
	*t = InputTiming{}
}
