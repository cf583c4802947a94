package scenario

import (
	"fmt"
	"strings"

	"github.com/OpenZilia/parsemap-test-harness/framework/matchers"
)

// StepError is the failure that stopped a chain: the step's operation returned an error, or
// the step could not build its input.
type StepError struct {
	Step      string
	Operation string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q (%s) failed: %s", e.Step, e.Operation, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// UnresolvedReferenceError means a step read a reference that no earlier step had resolved.
// This is a mistake in the chain definition.
type UnresolvedReferenceError struct {
	Refs []Ref
}

func (e *UnresolvedReferenceError) Error() string {
	names := make([]string, 0, len(e.Refs))
	for _, r := range e.Refs {
		names = append(names, string(r))
	}
	return fmt.Sprintf("unresolved reference(s): %s", strings.Join(names, ", "))
}

// AssertionMismatch means a step's result did not have the expected shape. It does not stop
// the chain.
type AssertionMismatch struct {
	Step      string
	Operation string
	Mismatch  matchers.Mismatch
}

func (e AssertionMismatch) Error() string {
	return fmt.Sprintf("step %q (%s) returned an unexpected result %s", e.Step, e.Operation, e.Mismatch)
}

// CleanupError means a teardown step failed. It is logged but does not fail the run.
type CleanupError struct {
	Step      string
	Operation string
	Err       error
}

func (e CleanupError) Error() string {
	return fmt.Sprintf("cleanup step %q (%s) failed: %s", e.Step, e.Operation, e.Err)
}

func (e CleanupError) Unwrap() error { return e.Err }
