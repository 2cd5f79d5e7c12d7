package stash_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/synth/stash"
	"pipelined.dev/synth/topology"
)

func TestRoundTrip(t *testing.T) {
	to := topology.New()
	require.NoError(t, to.Batch(func(to *topology.Topology) error {
		if err := to.AddProcessor("sampler", topology.Static); err != nil {
			return err
		}
		if err := to.AddProcessor("mix", topology.Dynamic); err != nil {
			return err
		}
		in := topology.InputID{Proc: "mix", Name: "in"}
		if err := to.AddInput(in, topology.Synchronous); err != nil {
			return err
		}
		return to.Connect(in, "sampler")
	}))

	var buf bytes.Buffer
	var stasher stash.Stasher = stash.YAML{}
	require.NoError(t, stasher.Stash(&buf, to.Snapshot()))
	assert.Contains(t, buf.String(), "sampler")

	s, err := stasher.Unstash(&buf)
	require.NoError(t, err)
	restored, err := topology.Restore(s)
	require.NoError(t, err)
	assert.Equal(t, to.Snapshot(), restored.Snapshot())
}

func TestUnstashRejectsGarbage(t *testing.T) {
	_, err := stash.YAML{}.Unstash(strings.NewReader("{not yaml: ["))
	assert.Error(t, err)
}

func TestUnstashedGraphStillValidated(t *testing.T) {
	doc := `
processors:
  - id: a
    kind: dynamic
    inputs:
      - name: in
        target: a
        sync: synchronous
        branches: 1
`
	s, err := stash.YAML{}.Unstash(strings.NewReader(doc))
	require.NoError(t, err)
	_, err = topology.Restore(s)
	assert.Equal(t, topology.CircularDependencyError{Proc: "a"}, err)
}
