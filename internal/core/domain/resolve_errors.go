package domain

import (
	"fmt"
	"strings"
)

// MissingDependencyError reports a required dependency that is absent from the candidate set.
// It matches ErrMissingDependency with errors.Is.
type MissingDependencyError struct {
	Dependent string
	Missing   string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s: %s requires %s", ErrMissingDependency.Error(), e.Dependent, e.Missing)
}

// Unwrap returns ErrMissingDependency.
func (e *MissingDependencyError) Unwrap() error {
	return ErrMissingDependency
}

// CycleError reports a dependency cycle. Path holds the visiting stack in stack order,
// followed by the node that was re-entered.
// It matches ErrCycleDetected with errors.Is.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return ErrCycleDetected.Error() + ": " + strings.Join(e.Path, " -> ")
}

// Unwrap returns ErrCycleDetected.
func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// Cycle returns only the nodes that form the loop, starting and ending with the re-entered node.
func (e *CycleError) Cycle() []string {
	if len(e.Path) == 0 {
		return nil
	}
	last := e.Path[len(e.Path)-1]
	for i, id := range e.Path[:len(e.Path)-1] {
		if id == last {
			return e.Path[i:]
		}
	}
	return e.Path
}
