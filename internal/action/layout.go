package action

import (
	"context"
	"math"

	"github.com/opd-ai/go-forceviz/internal/force"
	"github.com/opd-ai/go-forceviz/internal/pipeline"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

// Timestep bounds for ForceLayout, in milliseconds.
const (
	DefaultTimestep = 20.0
	MaxTimestep     = 50.0
)

// ForceLayout moves visible nodes by running a force simulation. Visible
// nodes become simulated items and visible edges become springs. Velocities
// persist between ticks; fixed nodes push and pull but never move.
type ForceLayout struct {
	sim *force.Simulator
	// Timestep is the simulated time per step in milliseconds. Zero uses the
	// wall time since the previous tick, capped at MaxTimestep.
	Timestep float64
	// Steps is the number of simulation steps per tick. Values below one
	// run a single step.
	Steps int

	bodies map[*registry.Item]*force.Item
}

// NewForceLayout creates a layout stage driven by sim.
func NewForceLayout(sim *force.Simulator) *ForceLayout {
	return &ForceLayout{
		sim:    sim,
		bodies: make(map[*registry.Item]*force.Item),
	}
}

// Simulator returns the underlying simulator.
func (l *ForceLayout) Simulator() *force.Simulator { return l.sim }

// Name implements pipeline.Stage.
func (*ForceLayout) Name() string { return "force-layout" }

// Run implements pipeline.Stage.
func (l *ForceLayout) Run(_ context.Context, reg *registry.Registry, t pipeline.Tick) error {
	l.sim.Clear()
	seen := make(map[*registry.Item]bool, len(reg.Nodes()))
	for _, n := range reg.Nodes() {
		if !n.Visible() {
			continue
		}
		b, ok := l.bodies[n]
		if !ok {
			b = &force.Item{}
			l.bodies[n] = b
		}
		b.Location = n.Location()
		b.Fixed = n.Fixed()
		b.Force.X, b.Force.Y = 0, 0
		l.sim.AddItem(b)
		seen[n] = true
	}
	for n := range l.bodies {
		if !seen[n] {
			delete(l.bodies, n)
		}
	}
	for _, e := range reg.Edges() {
		if !e.Visible() {
			continue
		}
		a, b := l.bodies[e.Source()], l.bodies[e.Target()]
		if a != nil && b != nil {
			l.sim.AddSpring(a, b, 0, 0)
		}
	}

	step := l.timestep(t)
	steps := max(l.Steps, 1)
	for range steps {
		l.sim.Run(step)
	}

	for n, b := range l.bodies {
		if n.Fixed() {
			continue
		}
		if math.IsNaN(b.Location.X) || math.IsNaN(b.Location.Y) {
			b.Location = n.Location()
			b.Velocity.X, b.Velocity.Y = 0, 0
			continue
		}
		n.SetLocation(b.Location.X, b.Location.Y)
	}
	return nil
}

func (l *ForceLayout) timestep(t pipeline.Tick) float64 {
	if l.Timestep > 0 {
		return l.Timestep
	}
	if t.Delta <= 0 {
		return DefaultTimestep
	}
	return math.Min(float64(t.Delta.Microseconds())/1000, MaxTimestep)
}
