// Package stash persists topologies outside the engine. The engine does
// not prescribe a wire format: Stasher is the boundary and the YAML
// implementation here is a readable reference format, not a
// compatibility promise.
package stash

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v2"

	"pipelined.dev/synth/topology"
)

// Stasher writes and reads topology snapshots.
type Stasher interface {
	Stash(w io.Writer, s topology.Snapshot) error
	Unstash(r io.Reader) (topology.Snapshot, error)
}

// YAML stashes snapshots as YAML documents.
type YAML struct{}

// Stash implements Stasher.
func (YAML) Stash(w io.Writer, s topology.Snapshot) error {
	out, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("stash topology: %w", err)
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("stash topology: %w", err)
	}
	return nil
}

// Unstash implements Stasher.
func (YAML) Unstash(r io.Reader) (topology.Snapshot, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return topology.Snapshot{}, fmt.Errorf("unstash topology: %w", err)
	}
	var s topology.Snapshot
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return topology.Snapshot{}, fmt.Errorf("unstash topology: %w", err)
	}
	return s, nil
}
