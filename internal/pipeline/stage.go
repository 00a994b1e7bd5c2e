// Package pipeline drives an ordered list of stages over a shared item
// registry, once on demand or repeatedly at a target period.
//
// A tick runs every stage in list order while holding the registry write
// lock, so readers only ever see the state left by a completed tick.
// Cancellation and pausing take effect between ticks. A stage that returns
// an error or panics rolls the registry back to the state before that stage
// and fails the run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/opd-ai/go-forceviz/internal/registry"
)

// Tick describes one pass over the stages.
type Tick struct {
	// Index counts ticks from zero.
	Index int64
	// Start is when the tick began.
	Start time.Time
	// Elapsed is the time since the run began.
	Elapsed time.Duration
	// Delta is the time since the previous tick began, zero on the first.
	Delta time.Duration
}

// Stage is one unit of work applied to the registry every tick.
// Run is called with the registry write lock held and must not call
// Registry.Write or Registry.Read itself.
type Stage interface {
	Name() string
	Run(ctx context.Context, reg *registry.Registry, t Tick) error
}

type funcStage struct {
	name string
	fn   func(ctx context.Context, reg *registry.Registry, t Tick) error
}

func (s funcStage) Name() string { return s.name }

func (s funcStage) Run(ctx context.Context, reg *registry.Registry, t Tick) error {
	return s.fn(ctx, reg, t)
}

// StageFunc wraps fn as a named Stage.
func StageFunc(name string, fn func(ctx context.Context, reg *registry.Registry, t Tick) error) Stage {
	return funcStage{name: name, fn: fn}
}

// StageError reports a stage failure. Panics are recovered and reported
// with Panicked set.
type StageError struct {
	Stage    string
	Index    int
	Tick     int64
	Panicked bool
	Err      error
}

func (e *StageError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("stage %q (#%d) panicked on tick %d: %v", e.Stage, e.Index, e.Tick, e.Err)
	}
	return fmt.Sprintf("stage %q (#%d) failed on tick %d: %v", e.Stage, e.Index, e.Tick, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Observer receives pipeline progress. Implementations must be fast and
// must not block; they are called from the run goroutine.
type Observer interface {
	OnTick(t Tick, took time.Duration, err error)
	OnStage(name string, t Tick, took time.Duration, err error)
	OnState(from, to State)
}

// ObserverFuncs adapts optional functions to Observer.
type ObserverFuncs struct {
	Tick  func(t Tick, took time.Duration, err error)
	Stage func(name string, t Tick, took time.Duration, err error)
	State func(from, to State)
}

// OnTick implements Observer.
func (o ObserverFuncs) OnTick(t Tick, took time.Duration, err error) {
	if o.Tick != nil {
		o.Tick(t, took, err)
	}
}

// OnStage implements Observer.
func (o ObserverFuncs) OnStage(name string, t Tick, took time.Duration, err error) {
	if o.Stage != nil {
		o.Stage(name, t, took, err)
	}
}

// OnState implements Observer.
func (o ObserverFuncs) OnState(from, to State) {
	if o.State != nil {
		o.State(from, to)
	}
}
