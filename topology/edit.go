package topology

import "fmt"

// commit runs a single mutation with transaction semantics: validation
// failure restores the pre-edit state. Inside a batch the mutation is
// applied directly and validation is deferred to the end of the batch.
func (t *Topology) commit(apply func() error) error {
	if t.batching {
		return apply()
	}
	backup := t.clone()
	if err := apply(); err != nil {
		t.restore(backup)
		return err
	}
	if err := t.Validate(); err != nil {
		t.restore(backup)
		return err
	}
	return nil
}

// Batch performs multiple primitive edits and validates once at the end.
// Any error from fn, or a failed validation, rolls the whole batch back.
func (t *Topology) Batch(fn func(*Topology) error) error {
	if t.batching {
		return fn(t)
	}
	backup := t.clone()
	t.batching = true
	err := fn(t)
	t.batching = false
	if err == nil {
		err = t.Validate()
	}
	if err != nil {
		t.restore(backup)
		return err
	}
	return nil
}

// AddProcessor adds a new processor record.
func (t *Topology) AddProcessor(id ProcID, kind Kind) error {
	return t.commit(func() error {
		if _, ok := t.procs[id]; ok {
			return fmt.Errorf("%w: %q", ErrProcessorExists, id)
		}
		t.procs[id] = &Processor{ID: id, Kind: kind}
		t.order = append(t.order, id)
		return nil
	})
}

// RemoveProcessor removes a processor. The processor must be fully
// detached: own no inputs and not be targeted by any input.
func (t *Topology) RemoveProcessor(id ProcID) error {
	return t.commit(func() error {
		p, ok := t.procs[id]
		if !ok {
			return fmt.Errorf("%w: %q", ErrProcessorNotFound, id)
		}
		if len(p.inputs) > 0 {
			return fmt.Errorf("%w: %q still owns inputs", ErrProcessorAttached, id)
		}
		for _, in := range t.inputs {
			if in.Target == id {
				return fmt.Errorf("%w: %q is targeted by %v", ErrProcessorAttached, id, in.ID)
			}
		}
		delete(t.procs, id)
		for i, pid := range t.order {
			if pid == id {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
		return nil
	})
}

// AddInput adds a new unconnected input with a single branch slot.
func (t *Topology) AddInput(id InputID, sync Synchronicity) error {
	return t.commit(func() error {
		p, ok := t.procs[id.Proc]
		if !ok {
			return fmt.Errorf("%w: %q", ErrProcessorNotFound, id.Proc)
		}
		if _, ok := t.inputs[id]; ok {
			return fmt.Errorf("%w: %v", ErrInputExists, id)
		}
		t.inputs[id] = &Input{ID: id, Sync: sync, Branches: 1}
		p.inputs = append(p.inputs, id.Name)
		return nil
	})
}

// RemoveInput removes an input. The input must be disconnected first.
func (t *Topology) RemoveInput(id InputID) error {
	return t.commit(func() error {
		in, ok := t.inputs[id]
		if !ok {
			return fmt.Errorf("%w: %v", ErrInputNotFound, id)
		}
		if in.Target != "" {
			return fmt.Errorf("%w: %v targets %q", ErrInputAttached, id, in.Target)
		}
		delete(t.inputs, id)
		p := t.procs[id.Proc]
		for i, name := range p.inputs {
			if name == id.Name {
				p.inputs = append(p.inputs[:i], p.inputs[i+1:]...)
				break
			}
		}
		return nil
	})
}

// AddBranch adds one branch slot to an input.
func (t *Topology) AddBranch(id InputID) error {
	return t.commit(func() error {
		in, ok := t.inputs[id]
		if !ok {
			return fmt.Errorf("%w: %v", ErrInputNotFound, id)
		}
		in.Branches++
		return nil
	})
}

// RemoveBranch removes one branch slot from an input.
func (t *Topology) RemoveBranch(id InputID) error {
	return t.commit(func() error {
		in, ok := t.inputs[id]
		if !ok {
			return fmt.Errorf("%w: %v", ErrInputNotFound, id)
		}
		if in.Branches == 0 {
			return fmt.Errorf("%w: %v", ErrNoBranches, id)
		}
		in.Branches--
		return nil
	})
}

// Connect sets the input's target processor.
func (t *Topology) Connect(id InputID, target ProcID) error {
	return t.commit(func() error {
		in, ok := t.inputs[id]
		if !ok {
			return fmt.Errorf("%w: %v", ErrInputNotFound, id)
		}
		if _, ok := t.procs[target]; !ok {
			return fmt.Errorf("%w: %q", ErrProcessorNotFound, target)
		}
		if in.Target != "" {
			return fmt.Errorf("%w: %v targets %q", ErrInputOccupied, id, in.Target)
		}
		in.Target = target
		return nil
	})
}

// Disconnect clears the input's target.
func (t *Topology) Disconnect(id InputID) error {
	return t.commit(func() error {
		in, ok := t.inputs[id]
		if !ok {
			return fmt.Errorf("%w: %v", ErrInputNotFound, id)
		}
		if in.Target == "" {
			return fmt.Errorf("%w: %v", ErrInputUnoccupied, id)
		}
		in.Target = ""
		return nil
	})
}
