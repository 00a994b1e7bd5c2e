package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/opd-ai/go-forceviz/internal/registry"
)

// AsFastAsPossible as a Period runs ticks back to back.
const AsFastAsPossible time.Duration = -1

var (
	// ErrAlreadyStarted is returned when adding stages to, or starting, a
	// pipeline that has already been started.
	ErrAlreadyStarted = errors.New("pipeline already started")
	// ErrTerminated is returned when starting a pipeline that has finished.
	ErrTerminated = errors.New("pipeline has terminated")
	// ErrCancelled is returned by Wait when the run was cancelled.
	ErrCancelled = errors.New("pipeline cancelled")
	// ErrNoStages is returned when starting a pipeline with no stages.
	ErrNoStages = errors.New("pipeline has no stages")
	// ErrNotStarted is returned by Wait on an idle pipeline.
	ErrNotStarted = errors.New("pipeline not started")
)

// State is the lifecycle state of a scheduled run.
type State int

// Run states. Completed, Cancelled and Failed are terminal.
const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateCompleted
	StateCancelled
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Options configure the cadence and bound of a scheduled run.
type Options struct {
	// Period is the target time between tick starts. Zero or
	// AsFastAsPossible runs ticks back to back.
	Period time.Duration
	// Iterations stops the run after this many ticks. Zero means unbounded.
	Iterations int64
	// Duration stops the run once this much time has passed. Zero means
	// unbounded.
	Duration time.Duration
	// Observer receives progress callbacks. May be nil.
	Observer Observer
	// Logger receives debug and error logs. May be nil.
	Logger *slog.Logger
}

// Pipeline runs an ordered list of stages against a registry.
type Pipeline struct {
	reg  *registry.Registry
	opts Options
	obs  Observer
	log  *slog.Logger

	mu        sync.Mutex
	stages    []Stage
	state     State
	cancelReq bool
	pauseReq  bool
	wake      chan struct{}
	done      chan struct{}
	err       error

	// tickMu serializes RunNow with scheduled ticks.
	tickMu    sync.Mutex
	ticks     int64
	lastStart time.Time
}

// New creates an idle pipeline over reg.
func New(reg *registry.Registry, opts Options) *Pipeline {
	obs := opts.Observer
	if obs == nil {
		obs = ObserverFuncs{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		reg:  reg,
		opts: opts,
		obs:  obs,
		log:  log,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Add appends a stage. Stages cannot be added once the run has started.
func (p *Pipeline) Add(s Stage) error {
	if s == nil {
		return fmt.Errorf("pipeline: nil stage")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle {
		return ErrAlreadyStarted
	}
	p.stages = append(p.stages, s)
	return nil
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Ticks returns the number of ticks executed, including RunNow passes.
func (p *Pipeline) Ticks() int64 {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()
	return p.ticks
}

// Done is closed when the run reaches a terminal state.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the run ends. It returns nil after completion,
// ErrCancelled after cancellation and a *StageError after a failure. An
// idle pipeline has no run to wait for and returns ErrNotStarted.
func (p *Pipeline) Wait() error {
	p.mu.Lock()
	idle := p.state == StateIdle
	p.mu.Unlock()
	if idle {
		return ErrNotStarted
	}
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Err returns the terminal error, or nil while the run is live.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// RunNow executes one tick synchronously, independent of the schedule.
// If a scheduled run is in progress the pass is serialized with its ticks.
// The registry is rolled back on failure but the run state is unchanged.
func (p *Pipeline) RunNow(ctx context.Context) error {
	if err := p.reg.Claim(p); err != nil {
		return fmt.Errorf("run now: %w", err)
	}
	defer func() {
		p.mu.Lock()
		live := p.state == StateRunning || p.state == StatePaused
		p.mu.Unlock()
		if !live {
			p.reg.Release(p)
		}
	}()
	return p.tick(context.WithoutCancel(ctx), time.Time{})
}

// Start launches the scheduled run in its own goroutine. The pipeline
// claims the registry until the run ends. Cancelling ctx cancels the run at
// the next tick boundary.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	switch {
	case p.state.Terminal():
		p.mu.Unlock()
		return ErrTerminated
	case p.state != StateIdle:
		p.mu.Unlock()
		return ErrAlreadyStarted
	case len(p.stages) == 0:
		p.mu.Unlock()
		return ErrNoStages
	}
	if err := p.reg.Claim(p); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("start pipeline: %w", err)
	}
	from := p.state
	p.state = StateRunning
	p.mu.Unlock()

	p.notifyState(from, StateRunning)
	go p.loop(ctx)
	return nil
}

// Pause holds the run at the next tick boundary.
func (p *Pipeline) Pause() {
	p.mu.Lock()
	if p.state == StateRunning {
		p.pauseReq = true
	}
	p.mu.Unlock()
	p.signal()
}

// Resume continues a paused run.
func (p *Pipeline) Resume() {
	p.mu.Lock()
	p.pauseReq = false
	p.mu.Unlock()
	p.signal()
}

// Cancel ends the run at the next tick boundary. A tick in progress always
// finishes first. Cancelling an idle pipeline moves it straight to
// Cancelled.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	switch {
	case p.state.Terminal():
		p.mu.Unlock()
		return
	case p.state == StateIdle:
		p.mu.Unlock()
		p.finish(StateCancelled, ErrCancelled)
		return
	}
	p.cancelReq = true
	p.mu.Unlock()
	p.signal()
}

func (p *Pipeline) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Pipeline) notifyState(from, to State) {
	p.log.Debug("pipeline state", "from", from.String(), "to", to.String())
	p.obs.OnState(from, to)
}

// finish moves to a terminal state, records err and releases the registry.
func (p *Pipeline) finish(to State, err error) {
	p.mu.Lock()
	if p.state.Terminal() {
		p.mu.Unlock()
		return
	}
	from := p.state
	p.state = to
	p.err = err
	p.mu.Unlock()

	p.reg.Release(p)
	p.notifyState(from, to)
	close(p.done)
}

// boundary decides what happens between ticks. It blocks while paused and
// returns the terminal state to enter, or StateRunning to run another tick.
func (p *Pipeline) boundary(ctx context.Context, runStart time.Time, next int64) State {
	for {
		p.mu.Lock()
		switch {
		case p.cancelReq || ctx.Err() != nil:
			p.mu.Unlock()
			return StateCancelled
		case p.opts.Iterations > 0 && next >= p.opts.Iterations:
			p.mu.Unlock()
			return StateCompleted
		case p.opts.Duration > 0 && time.Since(runStart) >= p.opts.Duration:
			p.mu.Unlock()
			return StateCompleted
		case p.pauseReq:
			changed := p.state != StatePaused
			p.state = StatePaused
			p.mu.Unlock()
			if changed {
				p.notifyState(StateRunning, StatePaused)
			}
			select {
			case <-p.wake:
			case <-ctx.Done():
			}
			continue
		}
		changed := p.state == StatePaused
		p.state = StateRunning
		p.mu.Unlock()
		if changed {
			p.notifyState(StatePaused, StateRunning)
		}
		return StateRunning
	}
}

func (p *Pipeline) loop(ctx context.Context) {
	runStart := time.Now()
	tickCtx := context.WithoutCancel(ctx)

	for i := int64(0); ; i++ {
		if st := p.boundary(ctx, runStart, i); st != StateRunning {
			var err error
			if st == StateCancelled {
				err = ErrCancelled
			}
			p.finish(st, err)
			return
		}

		start := time.Now()
		if err := p.tick(tickCtx, runStart); err != nil {
			p.log.Error("pipeline failed", "error", err)
			p.finish(StateFailed, err)
			return
		}

		// A slow tick is followed immediately by the next one.
		if p.opts.Period <= 0 {
			continue
		}
		wait := time.Until(start.Add(p.opts.Period))
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-p.wake:
		case <-ctx.Done():
		}
		timer.Stop()
	}
}

// tick runs every stage once under the registry write lock. Queued
// mutations are applied first.
func (p *Pipeline) tick(ctx context.Context, runStart time.Time) error {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	p.mu.Lock()
	stages := p.stages
	p.mu.Unlock()

	now := time.Now()
	t := Tick{Index: p.ticks, Start: now}
	if !runStart.IsZero() {
		t.Elapsed = now.Sub(runStart)
	}
	if !p.lastStart.IsZero() {
		t.Delta = now.Sub(p.lastStart)
	}
	p.lastStart = now
	p.ticks++

	err := p.reg.Write(func() error {
		cp := p.reg.Checkpoint()
		if panicked, err := runStage(ctx, applyInput, p.reg, t); err != nil {
			p.reg.Restore(cp)
			return &StageError{Stage: applyInput.Name(), Index: -1, Tick: t.Index, Panicked: panicked, Err: err}
		}
		for i, s := range stages {
			cp := p.reg.Checkpoint()
			began := time.Now()
			panicked, err := runStage(ctx, s, p.reg, t)
			p.obs.OnStage(s.Name(), t, time.Since(began), err)
			if err != nil {
				p.reg.Restore(cp)
				return &StageError{Stage: s.Name(), Index: i, Tick: t.Index, Panicked: panicked, Err: err}
			}
		}
		return nil
	})
	p.obs.OnTick(t, time.Since(now), err)
	return err
}

// applyInput runs the mutations queued since the previous tick.
var applyInput = StageFunc("input", func(_ context.Context, reg *registry.Registry, _ Tick) error {
	reg.ApplyQueued()
	return nil
})

// runStage calls s.Run, recovering a panic as an error.
func runStage(ctx context.Context, s Stage, reg *registry.Registry, t Tick) (panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			if !ok {
				perr = fmt.Errorf("%v", r)
			}
			panicked, err = true, perr
		}
	}()
	return false, s.Run(ctx, reg, t)
}
