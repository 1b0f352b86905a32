package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/tutormesh/core"
)

// Step is a named unit of the supervisor pipeline operating on the shared state.
type Step interface {
	Name() string
	Run(ctx context.Context, state *core.State) error
}

type stepFunc struct {
	name string
	fn   func(ctx context.Context, state *core.State) error
}

func (s stepFunc) Name() string { return s.name }

func (s stepFunc) Run(ctx context.Context, state *core.State) error { return s.fn(ctx, state) }

// NewStep creates a Step from a function.
func NewStep(name string, fn func(ctx context.Context, state *core.State) error) Step {
	return stepFunc{name: name, fn: fn}
}

// runStep executes one step, wraps its error with the step name and reports
// the outcome to observe.
func runStep(ctx context.Context, state *core.State, step Step, observe func(string, time.Duration, error)) error {
	start := time.Now()
	err := step.Run(ctx, state)
	if observe != nil {
		observe(step.Name(), time.Since(start), err)
	}
	if err != nil {
		return fmt.Errorf("supervisor step %s failed: %w", step.Name(), err)
	}
	return nil
}
