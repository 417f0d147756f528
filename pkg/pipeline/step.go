// Package pipeline implements the typed step chain a helper party's
// computation is expressed as. Steps run strictly in order; each step's
// output type must equal the next step's input type, which the compiler
// enforces at construction through the generic signatures of New and Then.
package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/attributelabs/private-attribution/pkg/comms"
)

// Step is a named unit of computation with a fixed input and output type.
// Its correlation identifier is generated once and stays stable for the
// step's lifetime; any cross-party message the step originates or expects
// is tagged with it. A Step is immutable once constructed and holds no
// shared mutable state; anything needed across invocations travels through
// the helper context.
type Step[In, Out any] interface {
	Name() string
	ID() uuid.UUID
	Compute(ctx context.Context, in In, h comms.Helper) (Out, error)
}

type funcStep[In, Out any] struct {
	name string
	id   uuid.UUID
	fn   func(context.Context, In, comms.Helper) (Out, error)
}

// NewStep builds a Step from a function, with a freshly generated
// correlation identifier.
func NewStep[In, Out any](name string, fn func(context.Context, In, comms.Helper) (Out, error)) Step[In, Out] {
	return NewStepWithID(name, uuid.New(), fn)
}

// NewStepWithID builds a Step with an explicit correlation identifier, for
// exchanges whose identifiers the parties agreed on out of band.
func NewStepWithID[In, Out any](name string, id uuid.UUID, fn func(context.Context, In, comms.Helper) (Out, error)) Step[In, Out] {
	return &funcStep[In, Out]{name: name, id: id, fn: fn}
}

func (s *funcStep[In, Out]) Name() string { return s.name }

func (s *funcStep[In, Out]) ID() uuid.UUID { return s.id }

func (s *funcStep[In, Out]) Compute(ctx context.Context, in In, h comms.Helper) (Out, error) {
	return s.fn(ctx, in, h)
}
