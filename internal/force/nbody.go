package force

import (
	"math"

	"github.com/opd-ai/go-forceviz/internal/geom"
)

// NBodyForce is an all-pairs gravitational force approximated with a
// Barnes-Hut quadtree. A negative gravitational constant makes items repel.
type NBodyForce struct {
	GravConst float64
	// Theta is the Barnes-Hut opening ratio: a cell whose width divided by
	// its distance is below Theta is treated as a single body.
	Theta float64
	// MaxDistance ignores bodies farther than this. Zero means unbounded.
	MaxDistance float64

	root *quad
}

// NewNBodyForce creates an n-body force.
func NewNBodyForce(gravConst, theta float64) *NBodyForce {
	return &NBodyForce{GravConst: gravConst, Theta: theta}
}

// maxDepth bounds subdivision when many items share a location. Items that
// reach it share one leaf.
const maxDepth = 24

// quad is one quadtree cell. Leaves hold items, inner cells hold children.
type quad struct {
	bound    geom.Rect
	mass     float64
	com      geom.Point
	items    []*Item
	children *[4]quad
}

func (q *quad) insert(it *Item, depth int) {
	if q.children != nil {
		q.child(it.Location).insert(it, depth+1)
		return
	}
	if len(q.items) == 0 || depth >= maxDepth {
		q.items = append(q.items, it)
		return
	}
	half := q.bound.W / 2
	q.children = &[4]quad{
		{bound: geom.R(q.bound.X, q.bound.Y, half, half)},
		{bound: geom.R(q.bound.X+half, q.bound.Y, half, half)},
		{bound: geom.R(q.bound.X, q.bound.Y+half, half, half)},
		{bound: geom.R(q.bound.X+half, q.bound.Y+half, half, half)},
	}
	resident := q.items
	q.items = nil
	for _, r := range resident {
		q.child(r.Location).insert(r, depth+1)
	}
	q.child(it.Location).insert(it, depth+1)
}

func (q *quad) child(p geom.Point) *quad {
	i := 0
	half := q.bound.W / 2
	if p.X >= q.bound.X+half {
		i |= 1
	}
	if p.Y >= q.bound.Y+half {
		i |= 2
	}
	return &q.children[i]
}

// accumulate computes the mass and centre of mass of every cell.
func (q *quad) accumulate() {
	var mass, cx, cy float64
	if q.children != nil {
		for i := range q.children {
			c := &q.children[i]
			c.accumulate()
			mass += c.mass
			cx += c.mass * c.com.X
			cy += c.mass * c.com.Y
		}
	}
	for _, it := range q.items {
		mass += it.Mass
		cx += it.Mass * it.Location.X
		cy += it.Mass * it.Location.Y
	}
	q.mass = mass
	if mass > 0 {
		q.com = geom.Pt(cx/mass, cy/mass)
	}
}

// Init implements Force. It rebuilds the quadtree from the current item
// locations.
func (f *NBodyForce) Init(sim *Simulator) {
	f.root = nil
	if len(sim.items) == 0 {
		return
	}
	f.root = &quad{bound: bounds(sim.items)}
	for _, it := range sim.items {
		f.root.insert(it, 0)
	}
	f.root.accumulate()
}

// bounds returns a square covering every item.
func bounds(items []*Item) geom.Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, it := range items {
		minX = math.Min(minX, it.Location.X)
		minY = math.Min(minY, it.Location.Y)
		maxX = math.Max(maxX, it.Location.X)
		maxY = math.Max(maxY, it.Location.Y)
	}
	side := math.Max(maxX-minX, maxY-minY) + 1
	return geom.R(minX, minY, side, side)
}

// Apply implements Force.
func (f *NBodyForce) Apply(sim *Simulator) {
	if f.root == nil {
		return
	}
	for _, it := range sim.items {
		f.forceOn(it, f.root)
	}
}

func (f *NBodyForce) forceOn(it *Item, q *quad) {
	if q.mass == 0 {
		return
	}
	if q.children == nil {
		for _, other := range q.items {
			if other != it {
				f.attract(it, other.Location, other.Mass)
			}
		}
		return
	}
	d := q.com.Sub(it.Location)
	r := math.Hypot(d.X, d.Y)
	inside := q.bound.Contains(it.Location)
	if !inside && r > 0 && q.bound.W/r < f.Theta {
		f.attract(it, q.com, q.mass)
		return
	}
	for i := range q.children {
		f.forceOn(it, &q.children[i])
	}
}

// attract adds the pull of a body of the given mass at p to it.
func (f *NBodyForce) attract(it *Item, p geom.Point, mass float64) {
	d := p.Sub(it.Location)
	r := math.Hypot(d.X, d.Y)
	if r == 0 {
		d = geom.Pt(jitter(), jitter())
		r = math.Hypot(d.X, d.Y)
	}
	if f.MaxDistance > 0 && r > f.MaxDistance {
		return
	}
	v := f.GravConst * it.Mass * mass / (r * r * r)
	it.Force = it.Force.Add(d.Scale(v))
}
