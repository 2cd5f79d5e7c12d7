package topology

// Validate checks the whole topology: the graph must be acyclic and
// every static processor must be driven by exactly one synchronous
// timeline. It is pure: the topology is never modified.
//
// Cycles are reported first since the multiplicity walk below recurses
// through targets and needs an acyclic graph to terminate.
func (t *Topology) Validate() error {
	if err := t.checkCycles(); err != nil {
		return err
	}
	return t.checkStatics()
}

func (t *Topology) checkCycles() error {
	for _, id := range t.order {
		if t.dependsOn(id, id, make(map[ProcID]bool)) {
			return CircularDependencyError{Proc: id}
		}
	}
	return nil
}

// dependsOn reports whether processor from reaches processor on through
// its inputs' targets.
func (t *Topology) dependsOn(on, from ProcID, visited map[ProcID]bool) bool {
	for _, name := range t.procs[from].inputs {
		target := t.inputs[InputID{Proc: from, Name: name}].Target
		if target == "" || visited[target] {
			continue
		}
		if target == on {
			return true
		}
		visited[target] = true
		if t.dependsOn(on, target, visited) {
			return true
		}
	}
	return false
}

func (t *Topology) checkStatics() error {
	instances := make(map[ProcID]int)
	synchronous := make(map[ProcID]bool)
	for _, id := range t.order {
		if t.procs[id].Kind != Static {
			continue
		}
		// Direct consumer edges of a static processor are coalesced by
		// the shared node, so their count does not matter. Each edge on
		// its own must arrive with exactly one effective instance and on
		// the shared synchronous timeline.
		for _, in := range t.Consumers(id) {
			input := t.inputs[in]
			if t.instances(in.Proc, instances)*input.Branches != 1 {
				return StaticNotOneStateError{Proc: id}
			}
		}
		for _, in := range t.Consumers(id) {
			input := t.inputs[in]
			if input.Sync != Synchronous || !t.synchronous(in.Proc, synchronous) {
				return StaticNotSynchronousError{Proc: id}
			}
		}
	}
	return nil
}

// instances computes how many independently-timed instances of the
// processor the compiled graph will hold. A static processor always has
// one shared instance. A dynamic processor without consumers is a single
// entry-point instance; otherwise each consumer edge instantiates it
// once per effective instance of the edge's owner, times the edge's
// branch count.
func (t *Topology) instances(id ProcID, memo map[ProcID]int) int {
	if n, ok := memo[id]; ok {
		return n
	}
	if t.procs[id].Kind == Static {
		memo[id] = 1
		return 1
	}
	consumers := t.Consumers(id)
	if len(consumers) == 0 {
		memo[id] = 1
		return 1
	}
	n := 0
	for _, in := range consumers {
		n += t.instances(in.Proc, memo) * t.inputs[in].Branches
	}
	memo[id] = n
	return n
}

// synchronous reports whether every path reaching the processor runs on
// the shared synchronous timeline. Entry points do.
func (t *Topology) synchronous(id ProcID, memo map[ProcID]bool) bool {
	if s, ok := memo[id]; ok {
		return s
	}
	memo[id] = true // cycles are ruled out before this walk
	for _, in := range t.Consumers(id) {
		if t.inputs[in].Sync != Synchronous || !t.synchronous(in.Proc, memo) {
			memo[id] = false
			return false
		}
	}
	return memo[id]
}
