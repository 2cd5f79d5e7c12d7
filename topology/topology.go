// Package topology provides the declarative model of a synthesis graph:
// processors, their sound inputs and connections. The model is edited
// through a transactional protocol: every operation checks its
// preconditions, applies, re-validates the whole graph and rolls back if
// validation fails. Observers therefore only ever see valid topologies.
package topology

type (
	// ProcID identifies a processor.
	ProcID string

	// InputID identifies a sound input by its owning processor and the
	// input's local name.
	InputID struct {
		Proc ProcID
		Name string
	}

	// Kind tags a processor as static or dynamic.
	Kind int

	// Synchronicity of a sound input.
	Synchronicity int

	// Processor is a processor record.
	Processor struct {
		ID     ProcID
		Kind   Kind
		inputs []string // local input names, in creation order
	}

	// Input is a sound input record. Target is empty when the input is
	// not connected. Branches is the number of concurrent voices the
	// input drives; zero means all branch slots were removed.
	Input struct {
		ID       InputID
		Target   ProcID
		Sync     Synchronicity
		Branches int
	}

	// Topology is a mutable graph of processors and inputs.
	Topology struct {
		procs    map[ProcID]*Processor
		inputs   map[InputID]*Input
		order    []ProcID
		batching bool
	}
)

const (
	// Static processors represent persistent external resources: exactly
	// one logical instance may exist and it never reports completion.
	Static Kind = iota
	// Dynamic processors are ephemeral computations with any number of
	// independently-timed instances.
	Dynamic
)

const (
	// Synchronous inputs advance on the single shared timeline.
	Synchronous Synchronicity = iota
	// NonSynchronous inputs advance on their own timeline.
	NonSynchronous
)

func (k Kind) String() string {
	if k == Static {
		return "static"
	}
	return "dynamic"
}

func (s Synchronicity) String() string {
	if s == Synchronous {
		return "synchronous"
	}
	return "non-synchronous"
}

// New returns an empty topology.
func New() *Topology {
	return &Topology{
		procs:  make(map[ProcID]*Processor),
		inputs: make(map[InputID]*Input),
	}
}

// Proc returns a copy of the processor record.
func (t *Topology) Proc(id ProcID) (Processor, bool) {
	p, ok := t.procs[id]
	if !ok {
		return Processor{}, false
	}
	return *p, true
}

// Input returns a copy of the input record.
func (t *Topology) Input(id InputID) (Input, bool) {
	in, ok := t.inputs[id]
	if !ok {
		return Input{}, false
	}
	return *in, true
}

// Processors returns all processor ids in creation order.
func (t *Topology) Processors() []ProcID {
	return append([]ProcID(nil), t.order...)
}

// Inputs returns ids of inputs owned by the processor, in creation order.
func (t *Topology) Inputs(id ProcID) []InputID {
	p, ok := t.procs[id]
	if !ok {
		return nil
	}
	result := make([]InputID, 0, len(p.inputs))
	for _, name := range p.inputs {
		result = append(result, InputID{Proc: id, Name: name})
	}
	return result
}

// Consumers returns ids of inputs targeting the processor, in creation
// order of their owners.
func (t *Topology) Consumers(id ProcID) []InputID {
	var result []InputID
	for _, owner := range t.order {
		for _, in := range t.Inputs(owner) {
			if t.inputs[in].Target == id {
				result = append(result, in)
			}
		}
	}
	return result
}

func (t *Topology) clone() *Topology {
	procs := make(map[ProcID]*Processor, len(t.procs))
	for id, p := range t.procs {
		cp := *p
		cp.inputs = append([]string(nil), p.inputs...)
		procs[id] = &cp
	}
	inputs := make(map[InputID]*Input, len(t.inputs))
	for id, in := range t.inputs {
		cp := *in
		inputs[id] = &cp
	}
	return &Topology{
		procs:  procs,
		inputs: inputs,
		order:  append([]ProcID(nil), t.order...),
	}
}

func (t *Topology) restore(backup *Topology) {
	t.procs = backup.procs
	t.inputs = backup.inputs
	t.order = backup.order
}
