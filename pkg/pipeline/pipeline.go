package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/attributelabs/private-attribution/pkg/comms"
)

// State is a pipeline's position in its lifecycle.
// Completed and Failed are terminal.
type State int

const (
	NotStarted State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Pipeline is an ordered, statically typed chain of steps sharing one
// helper context. Composition is immutable once a pipeline is run; a
// pipeline instance owns its steps exclusively and runs at most once.
type Pipeline[In, Out any] struct {
	helper comms.Helper
	run    func(context.Context, In) (Out, error)
	// log is shared across every pipeline derived from the same chain, so
	// configuring the final pipeline covers all of its steps.
	log *zerolog.Logger

	mu    sync.Mutex
	state State
	err   error
}

// New starts a chain with its first step. The helper context is shared by
// every step for the pipeline's whole lifetime; steps that do not talk to
// peers simply ignore it.
func New[In, Out any](h comms.Helper, s Step[In, Out]) *Pipeline[In, Out] {
	log := zerolog.Nop()
	p := &Pipeline[In, Out]{helper: h, log: &log}
	p.run = stepRunner(p.log, h, s)
	return p
}

// Then extends the chain with another step. The step's input type must
// equal the chain's output type so far; a mismatch does not compile.
// Then must not be called after the pipeline has been run.
func Then[In, Mid, Out any](p *Pipeline[In, Mid], s Step[Mid, Out]) *Pipeline[In, Out] {
	next := &Pipeline[In, Out]{helper: p.helper, log: p.log}
	prev := p.run
	runStep := stepRunner(p.log, p.helper, s)
	next.run = func(ctx context.Context, in In) (Out, error) {
		mid, err := prev(ctx, in)
		if err != nil {
			var zero Out
			return zero, err
		}
		return runStep(ctx, mid)
	}
	return next
}

// WithLogger sets the chain's logger. Call before Run.
func (p *Pipeline[In, Out]) WithLogger(log zerolog.Logger) *Pipeline[In, Out] {
	*p.log = log
	return p
}

// Run executes the steps strictly in declared order: no step begins before
// its predecessor's output is available. The first failing step aborts the
// rest and its error is the run's single terminal error. Run may be called
// once; terminal states are final.
func (p *Pipeline[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	var zero Out
	p.mu.Lock()
	if p.state != NotStarted {
		p.mu.Unlock()
		return zero, &InternalError{Reason: fmt.Sprintf("pipeline already %s", p.state)}
	}
	p.state = Running
	p.mu.Unlock()

	out, err := p.run(ctx, in)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state = Failed
		p.err = err
		return zero, err
	}
	p.state = Completed
	return out, nil
}

// State returns the pipeline's current lifecycle state.
func (p *Pipeline[In, Out]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the terminal error of a failed pipeline, or nil.
func (p *Pipeline[In, Out]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// stepRunner wraps one step's Compute so that its failure is attributed to
// the step by name and correlation identifier. Errors from earlier steps
// pass through a chain unwrapped.
func stepRunner[In, Out any](log *zerolog.Logger, h comms.Helper, s Step[In, Out]) func(context.Context, In) (Out, error) {
	return func(ctx context.Context, in In) (Out, error) {
		log.Debug().Str("step", s.Name()).Str("id", s.ID().String()).Msg("step starting")
		out, err := s.Compute(ctx, in, h)
		if err != nil {
			var zero Out
			log.Warn().Err(err).Str("step", s.Name()).Msg("step failed")
			return zero, &StepError{Step: s.Name(), ID: s.ID(), Err: err}
		}
		return out, nil
	}
}
