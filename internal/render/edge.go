package render

import (
	"math"
	"sync"

	"github.com/opd-ai/go-forceviz/internal/geom"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

// DefaultEdgeWidth is the stroke width of new edge renderers.
const DefaultEdgeWidth = 1.0

// EdgeRenderer draws an edge as a straight line between the locations of
// its source and target nodes, using the edge's stroke color.
type EdgeRenderer struct {
	mu        sync.Mutex
	width     float64
	tolerance float64
	scratch   geom.Rect
}

// NewEdgeRenderer creates an edge renderer with default width.
func NewEdgeRenderer() *EdgeRenderer {
	return &EdgeRenderer{width: DefaultEdgeWidth, tolerance: 2}
}

// SetWidth sets the line width. The width is multiplied by the edge size.
func (er *EdgeRenderer) SetWidth(w float64) {
	er.mu.Lock()
	defer er.mu.Unlock()
	er.width = w
}

// SetHitTolerance sets the minimum distance from the line that still
// counts as a hit.
func (er *EdgeRenderer) SetHitTolerance(d float64) {
	er.mu.Lock()
	defer er.mu.Unlock()
	er.tolerance = d
}

func endpoints(it *registry.Item) (a, b geom.Point, ok bool) {
	src, dst := it.Source(), it.Target()
	if src == nil || dst == nil {
		return a, b, false
	}
	return src.Location(), dst.Location(), true
}

// Render implements Renderer.
func (er *EdgeRenderer) Render(s Surface, it *registry.Item) {
	er.mu.Lock()
	defer er.mu.Unlock()

	a, b, ok := endpoints(it)
	if !ok || it.Color() == nil {
		return
	}
	s.StrokeLine(a, b, it.Color(), er.width*it.Size())
}

// LocatePoint implements Renderer.
func (er *EdgeRenderer) LocatePoint(p geom.Point, it *registry.Item) bool {
	er.mu.Lock()
	defer er.mu.Unlock()

	a, b, ok := endpoints(it)
	if !ok {
		return false
	}
	return geom.SegmentDistance(p, a, b) <= er.reach(it)
}

// reach is how far from the line a point still hits. Bounds use the same
// distance. Called with the lock held.
func (er *EdgeRenderer) reach(it *registry.Item) float64 {
	return math.Max(er.width*it.Size()/2, er.tolerance)
}

// BoundsRef implements Renderer.
func (er *EdgeRenderer) BoundsRef(it *registry.Item) *geom.Rect {
	er.mu.Lock()
	defer er.mu.Unlock()

	a, b, ok := endpoints(it)
	if !ok {
		er.scratch = geom.Rect{}
		return &er.scratch
	}
	half := er.reach(it)
	x0, y0 := math.Min(a.X, b.X), math.Min(a.Y, b.Y)
	x1, y1 := math.Max(a.X, b.X), math.Max(a.Y, b.Y)
	er.scratch = geom.Rect{X: x0 - half, Y: y0 - half, W: x1 - x0 + 2*half, H: y1 - y0 + 2*half}
	return &er.scratch
}
