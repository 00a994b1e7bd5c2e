// Package geom provides the small set of 2D value types shared by the
// registry, the renderers and the force simulator.
package geom

import "math"

// Point is a location in item space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p multiplied by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
// Width and height are kept in floating point; callers round only when
// they issue pixel draw calls.
type Rect struct {
	X, Y float64
	W, H float64
}

// R is shorthand for Rect{x, y, w, h}.
func R(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Center returns the centre point of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether p lies inside r. The left and top edges are
// inclusive, the right and bottom edges exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Union returns the smallest rectangle containing both r and s.
// An empty rectangle is treated as the identity.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	x0 := math.Min(r.X, s.X)
	y0 := math.Min(r.Y, s.Y)
	x1 := math.Max(r.MaxX(), s.MaxX())
	y1 := math.Max(r.MaxY(), s.MaxY())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Inset grows (d < 0) or shrinks (d > 0) r by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}

// RoundRect is a rectangle with elliptical corners. ArcW and ArcH are the
// full width and height of the corner arcs, as in java.awt-style round
// rectangles; zero arcs describe a plain rectangle.
type RoundRect struct {
	Rect
	ArcW, ArcH float64
}

// Contains reports whether p lies inside the rounded rectangle.
func (rr RoundRect) Contains(p Point) bool {
	if !rr.Rect.Contains(p) {
		return false
	}
	aw := math.Min(rr.ArcW, rr.W) / 2
	ah := math.Min(rr.ArcH, rr.H) / 2
	if aw <= 0 || ah <= 0 {
		return true
	}

	// Outside the corner boxes the point is inside whenever it is inside
	// the bounding rectangle.
	var cx, cy float64
	switch {
	case p.X < rr.X+aw:
		cx = rr.X + aw
	case p.X >= rr.MaxX()-aw:
		cx = rr.MaxX() - aw
	default:
		return true
	}
	switch {
	case p.Y < rr.Y+ah:
		cy = rr.Y + ah
	case p.Y >= rr.MaxY()-ah:
		cy = rr.MaxY() - ah
	default:
		return true
	}
	dx := (p.X - cx) / aw
	dy := (p.Y - cy) / ah
	return dx*dx+dy*dy <= 1
}

// SegmentDistance returns the distance from p to the segment a-b.
func SegmentDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(Point{X: a.X + t*dx, Y: a.Y + t*dy})
}
