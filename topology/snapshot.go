package topology

import "fmt"

type (
	// Snapshot is a declarative capture of a topology, shaped for
	// stashing. It is replayed through the edit protocol on restore, so
	// a snapshot of an invalid graph cannot be produced by Restore.
	Snapshot struct {
		Processors []ProcessorSnapshot `yaml:"processors"`
	}

	// ProcessorSnapshot captures one processor and its inputs.
	ProcessorSnapshot struct {
		ID     string          `yaml:"id"`
		Kind   string          `yaml:"kind"`
		Inputs []InputSnapshot `yaml:"inputs,omitempty"`
	}

	// InputSnapshot captures one sound input.
	InputSnapshot struct {
		Name     string `yaml:"name"`
		Target   string `yaml:"target,omitempty"`
		Sync     string `yaml:"sync"`
		Branches int    `yaml:"branches"`
	}
)

// Snapshot captures the topology.
func (t *Topology) Snapshot() Snapshot {
	var s Snapshot
	for _, id := range t.order {
		p := t.procs[id]
		ps := ProcessorSnapshot{ID: string(id), Kind: p.Kind.String()}
		for _, name := range p.inputs {
			in := t.inputs[InputID{Proc: id, Name: name}]
			ps.Inputs = append(ps.Inputs, InputSnapshot{
				Name:     name,
				Target:   string(in.Target),
				Sync:     in.Sync.String(),
				Branches: in.Branches,
			})
		}
		s.Processors = append(s.Processors, ps)
	}
	return s
}

// Restore builds a topology from a snapshot by replaying it through the
// edit protocol in a single batch.
func Restore(s Snapshot) (*Topology, error) {
	t := New()
	err := t.Batch(func(t *Topology) error {
		for _, ps := range s.Processors {
			kind, err := parseKind(ps.Kind)
			if err != nil {
				return err
			}
			if err := t.AddProcessor(ProcID(ps.ID), kind); err != nil {
				return err
			}
			for _, is := range ps.Inputs {
				sync, err := parseSync(is.Sync)
				if err != nil {
					return err
				}
				id := InputID{Proc: ProcID(ps.ID), Name: is.Name}
				if err := t.AddInput(id, sync); err != nil {
					return err
				}
				for b := 1; b < is.Branches; b++ {
					if err := t.AddBranch(id); err != nil {
						return err
					}
				}
				if is.Branches == 0 {
					if err := t.RemoveBranch(id); err != nil {
						return err
					}
				}
			}
		}
		// connections go last: targets may be declared after consumers
		for _, ps := range s.Processors {
			for _, is := range ps.Inputs {
				if is.Target == "" {
					continue
				}
				id := InputID{Proc: ProcID(ps.ID), Name: is.Name}
				if err := t.Connect(id, ProcID(is.Target)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "static":
		return Static, nil
	case "dynamic":
		return Dynamic, nil
	}
	return 0, fmt.Errorf("unknown processor kind %q", s)
}

func parseSync(s string) (Synchronicity, error) {
	switch s {
	case "synchronous":
		return Synchronous, nil
	case "non-synchronous":
		return NonSynchronous, nil
	}
	return 0, fmt.Errorf("unknown synchronicity %q", s)
}
