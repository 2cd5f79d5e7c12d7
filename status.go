package synth

// Status reports playback state of a node or a consumer edge. There is
// no error state: rendering never fails, it keeps producing chunks or
// completes.
type Status int

const (
	// Playing means the producer will have more chunks.
	Playing Status = iota
	// Done is terminal: every further pull produces silence.
	Done
)

func (s Status) String() string {
	if s == Done {
		return "done"
	}
	return "playing"
}
