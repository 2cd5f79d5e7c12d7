package topology

import (
	"errors"
	"fmt"
)

// Structural errors returned by edit operations. The topology is
// guaranteed unchanged when any of them is returned.
var (
	// ErrProcessorExists is returned when a processor id is already taken.
	ErrProcessorExists = errors.New("processor already exists")
	// ErrProcessorNotFound is returned when a processor id is unknown.
	ErrProcessorNotFound = errors.New("processor not found")
	// ErrProcessorAttached is returned on removal of a processor that
	// still owns inputs or is still targeted by one.
	ErrProcessorAttached = errors.New("processor not detached")
	// ErrInputExists is returned when an input id is already taken.
	ErrInputExists = errors.New("input already exists")
	// ErrInputNotFound is returned when an input id is unknown.
	ErrInputNotFound = errors.New("input not found")
	// ErrInputOccupied is returned on connection of an occupied input.
	ErrInputOccupied = errors.New("input occupied")
	// ErrInputUnoccupied is returned on disconnection of an unoccupied
	// input.
	ErrInputUnoccupied = errors.New("input unoccupied")
	// ErrInputAttached is returned on removal of a connected input.
	ErrInputAttached = errors.New("input not detached")
	// ErrNoBranches is returned on removal of a branch slot from an
	// input that has none left.
	ErrNoBranches = errors.New("input has no branches")
)

type (
	// CircularDependencyError is returned when a processor depends on
	// itself through its inputs.
	CircularDependencyError struct {
		Proc ProcID
	}

	// StaticNotOneStateError is returned when a static processor is
	// reachable with an effective multiplicity other than one.
	StaticNotOneStateError struct {
		Proc ProcID
	}

	// StaticNotSynchronousError is returned when a static processor is
	// reachable through a non-synchronous timeline.
	StaticNotSynchronousError struct {
		Proc ProcID
	}
)

func (e CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency through processor %q", e.Proc)
}

func (e StaticNotOneStateError) Error() string {
	return fmt.Sprintf("static processor %q is not in exactly one state", e.Proc)
}

func (e StaticNotSynchronousError) Error() string {
	return fmt.Sprintf("static processor %q is reached non-synchronously", e.Proc)
}
