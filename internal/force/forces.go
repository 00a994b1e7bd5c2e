package force

import (
	"math"
	"math/rand/v2"

	"github.com/opd-ai/go-forceviz/internal/geom"
)

// SpringForce pulls connected items toward a rest length using Hooke's law.
type SpringForce struct {
	Coeff  float64
	Length float64
}

// NewSpringForce creates a spring force with the default coefficient and
// rest length for springs that do not set their own.
func NewSpringForce(coeff, length float64) *SpringForce {
	return &SpringForce{Coeff: coeff, Length: length}
}

// Init implements Force.
func (*SpringForce) Init(*Simulator) {}

// Apply implements Force.
func (f *SpringForce) Apply(sim *Simulator) {
	for _, sp := range sim.springs {
		coeff, length := sp.Coeff, sp.Length
		if coeff <= 0 {
			coeff = f.Coeff
		}
		if length <= 0 {
			length = f.Length
		}
		d := sp.B.Location.Sub(sp.A.Location)
		r := math.Hypot(d.X, d.Y)
		if r == 0 {
			d = geom.Pt(jitter(), jitter())
			r = math.Hypot(d.X, d.Y)
		}
		k := coeff * (r - length) / r
		sp.A.Force = sp.A.Force.Add(d.Scale(k))
		sp.B.Force = sp.B.Force.Sub(d.Scale(k))
	}
}

// DragForce adds a force proportional to velocity. A negative coefficient
// damps motion.
type DragForce struct {
	Coeff float64
}

// NewDragForce creates a drag force.
func NewDragForce(coeff float64) *DragForce {
	return &DragForce{Coeff: coeff}
}

// Init implements Force.
func (*DragForce) Init(*Simulator) {}

// Apply implements Force.
func (f *DragForce) Apply(sim *Simulator) {
	for _, it := range sim.items {
		it.Force = it.Force.Add(it.Velocity.Scale(f.Coeff))
	}
}

// jitter is a small random offset used to separate coincident items.
func jitter() float64 {
	return (rand.Float64() - 0.5) / 50
}
