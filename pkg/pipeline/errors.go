package pipeline

import (
	"fmt"

	"github.com/google/uuid"
)

// InternalError indicates an unexpected invariant violation, such as a
// pipeline being started twice or a concurrent sub-task failing to join.
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("pipeline: internal error: %s", e.Reason)
}

// StepError identifies which step of a pipeline failed. A pipeline run
// surfaces exactly one of these: the first failure aborts the remaining
// steps.
type StepError struct {
	Step string
	ID   uuid.UUID
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("pipeline: step %q (%s): %v", e.Step, e.ID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
