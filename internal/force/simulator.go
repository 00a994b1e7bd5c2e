// Package force is a small physics engine for force-directed layout. Items
// are point masses acted on by a list of forces; an integrator advances
// their velocities and locations by one timestep at a time.
package force

import (
	"math"

	"github.com/opd-ai/go-forceviz/internal/geom"
)

// Defaults for a new simulator.
const (
	DefaultSpeedLimit = 1.0
	DefaultMass       = 1.0
)

// Item is one simulated point mass.
type Item struct {
	Mass     float64
	Location geom.Point
	Velocity geom.Point
	Force    geom.Point
	// Fixed items contribute forces but are never moved.
	Fixed bool
}

// Spring connects two items.
type Spring struct {
	A, B *Item
	// Coeff and Length override the spring force defaults when positive.
	Coeff  float64
	Length float64
}

// Force contributes to the accumulated force of each item.
type Force interface {
	// Init prepares per-step state, such as a spatial index.
	Init(sim *Simulator)
	// Apply adds this force's contribution to every item and spring.
	Apply(sim *Simulator)
}

// Integrator advances the simulation by one timestep.
type Integrator interface {
	Integrate(sim *Simulator, timestep float64)
}

// Simulator owns the items, springs and forces of one layout.
type Simulator struct {
	Forces     []Force
	Integrator Integrator
	SpeedLimit float64

	items   []*Item
	springs []*Spring
}

// NewSimulator creates a simulator with an Euler integrator and no forces.
func NewSimulator(forces ...Force) *Simulator {
	return &Simulator{
		Forces:     forces,
		Integrator: EulerIntegrator{},
		SpeedLimit: DefaultSpeedLimit,
	}
}

// AddItem adds an item. A non-positive mass is replaced by DefaultMass.
func (s *Simulator) AddItem(it *Item) {
	if it.Mass <= 0 {
		it.Mass = DefaultMass
	}
	s.items = append(s.items, it)
}

// AddSpring connects a and b.
func (s *Simulator) AddSpring(a, b *Item, coeff, length float64) *Spring {
	sp := &Spring{A: a, B: b, Coeff: coeff, Length: length}
	s.springs = append(s.springs, sp)
	return sp
}

// Items returns the simulated items.
func (s *Simulator) Items() []*Item { return s.items }

// Springs returns the springs.
func (s *Simulator) Springs() []*Spring { return s.springs }

// Clear removes all items and springs, keeping the forces.
func (s *Simulator) Clear() {
	clear(s.items)
	clear(s.springs)
	s.items = s.items[:0]
	s.springs = s.springs[:0]
}

// Accumulate resets and recomputes the force on every item.
func (s *Simulator) Accumulate() {
	for _, it := range s.items {
		it.Force = geom.Point{}
	}
	for _, f := range s.Forces {
		f.Init(s)
	}
	for _, f := range s.Forces {
		f.Apply(s)
	}
}

// Run accumulates forces and integrates over timestep.
func (s *Simulator) Run(timestep float64) {
	s.Accumulate()
	if s.Integrator != nil {
		s.Integrator.Integrate(s, timestep)
	}
}

// EulerIntegrator is explicit Euler integration with the simulator speed
// limit applied to each velocity.
type EulerIntegrator struct{}

// Integrate implements Integrator.
func (EulerIntegrator) Integrate(sim *Simulator, timestep float64) {
	limit := sim.SpeedLimit
	for _, it := range sim.items {
		if it.Fixed {
			it.Velocity = geom.Point{}
			continue
		}
		coeff := timestep / it.Mass
		it.Velocity = it.Velocity.Add(it.Force.Scale(coeff))
		if limit > 0 {
			if v := math.Hypot(it.Velocity.X, it.Velocity.Y); v > limit {
				it.Velocity = it.Velocity.Scale(limit / v)
			}
		}
		it.Location = it.Location.Add(it.Velocity.Scale(timestep))
	}
}
