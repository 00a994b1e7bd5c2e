// Package render draws registry items onto 2D surfaces.
//
// Every item kind is drawn by a Renderer. Renderers compute a bounding
// shape for an item, draw it, and answer hit-tests against that same shape
// so that what is painted and what reacts to the pointer never disagree.
// Surfaces are provided for off-screen rasters (x/image) and for the Ebiten
// window.
package render

import (
	"fmt"
	"sync"

	"github.com/opd-ai/go-forceviz/internal/geom"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

// Renderer draws one kind of item and hit-tests it.
type Renderer interface {
	// Render draws it onto s and refreshes its cached bounding shape.
	Render(s Surface, it *registry.Item)
	// LocatePoint reports whether p lies inside the item's bounding shape.
	LocatePoint(p geom.Point, it *registry.Item) bool
	// BoundsRef returns the item's bounding rectangle. The rectangle is
	// owned by the renderer and is overwritten by the next call on it.
	BoundsRef(it *registry.Item) *geom.Rect
}

// Bounds returns a stable copy of the item's bounding rectangle.
func Bounds(r Renderer, it *registry.Item) geom.Rect {
	return *r.BoundsRef(it)
}

// RenderType selects how a shape is painted.
type RenderType int

const (
	// RenderNone paints no shape; only content is drawn.
	RenderNone RenderType = iota
	// RenderDraw strokes the outline with the item color.
	RenderDraw
	// RenderFill fills the shape with the fill color.
	RenderFill
	// RenderDrawAndFill fills, then strokes on top.
	RenderDrawAndFill
)

// String returns the configuration name of the render type.
func (rt RenderType) String() string {
	switch rt {
	case RenderNone:
		return "none"
	case RenderDraw:
		return "draw"
	case RenderFill:
		return "fill"
	case RenderDrawAndFill:
		return "draw-and-fill"
	default:
		return "unknown"
	}
}

// ParseRenderType parses a render type name.
func ParseRenderType(s string) (RenderType, error) {
	switch s {
	case "none":
		return RenderNone, nil
	case "draw", "stroke":
		return RenderDraw, nil
	case "fill", "":
		return RenderFill, nil
	case "draw-and-fill", "draw_and_fill", "fill-and-draw":
		return RenderDrawAndFill, nil
	default:
		return RenderFill, fmt.Errorf("unknown render type: %s", s)
	}
}

// ShapeFunc computes an item's bounding shape from its current attributes.
type ShapeFunc func(it *registry.Item) geom.RoundRect

// contentFunc draws item content inside an already painted shape.
type contentFunc func(s Surface, it *registry.Item, shape geom.RoundRect)

// ShapeRenderer is the shared base of shape-backed renderers. It dispatches
// the draw mode and caches each item's shape on the item, keyed by the item
// version and the renderer's configuration generation.
//
// A ShapeRenderer is safe for concurrent use. Callers must still hold the
// registry lock for the items they pass in.
type ShapeRenderer struct {
	mu          sync.Mutex
	renderType  RenderType
	strokeWidth float64
	generation  uint64
	scratch     geom.Rect

	shape   ShapeFunc
	content contentFunc
}

// NewShapeRenderer creates a renderer that paints the shape computed by fn.
func NewShapeRenderer(fn ShapeFunc) *ShapeRenderer {
	if fn == nil {
		panic("render: nil shape function")
	}
	return &ShapeRenderer{
		renderType:  RenderDrawAndFill,
		strokeWidth: 1,
		shape:       fn,
	}
}

// RenderType returns the current draw mode.
func (sr *ShapeRenderer) RenderType() RenderType {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.renderType
}

// SetRenderType sets the draw mode. Unknown modes panic.
func (sr *ShapeRenderer) SetRenderType(rt RenderType) {
	if rt < RenderNone || rt > RenderDrawAndFill {
		panic(fmt.Sprintf("render: unknown render type %d", rt))
	}
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.renderType = rt
}

// SetStrokeWidth sets the outline width in pixels.
func (sr *ShapeRenderer) SetStrokeWidth(w float64) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.strokeWidth = w
}

// Invalidate discards every cached shape computed by this renderer.
func (sr *ShapeRenderer) Invalidate() {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.generation++
}

// configure runs fn under the renderer lock and invalidates cached shapes.
func (sr *ShapeRenderer) configure(fn func()) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	fn()
	sr.generation++
}

// cachedShape returns the item's shape, recomputing it when stale.
// Must be called with sr.mu held.
func (sr *ShapeRenderer) cachedShape(it *registry.Item) geom.RoundRect {
	c := it.ShapeCache()
	if c.Owner == sr && c.Stamp == it.Version() && c.Gen == sr.generation {
		return c.Shape
	}
	shape := sr.shape(it)
	c.Owner, c.Stamp, c.Gen, c.Shape = sr, it.Version(), sr.generation, shape
	return shape
}

// Render implements Renderer. Fill is painted before stroke.
func (sr *ShapeRenderer) Render(s Surface, it *registry.Item) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	shape := sr.cachedShape(it)
	fill, stroke := it.FillColor(), it.Color()
	switch sr.renderType {
	case RenderDraw:
		if stroke != nil {
			s.StrokeShape(shape, stroke, sr.strokeWidth)
		}
	case RenderFill:
		if fill != nil {
			s.FillShape(shape, fill)
		}
	case RenderDrawAndFill:
		if fill != nil {
			s.FillShape(shape, fill)
		}
		if stroke != nil {
			s.StrokeShape(shape, stroke, sr.strokeWidth)
		}
	}

	if sr.content != nil {
		sr.content(s, it, shape)
	}
}

// LocatePoint implements Renderer.
func (sr *ShapeRenderer) LocatePoint(p geom.Point, it *registry.Item) bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.cachedShape(it).Contains(p)
}

// BoundsRef implements Renderer.
func (sr *ShapeRenderer) BoundsRef(it *registry.Item) *geom.Rect {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.scratch = sr.cachedShape(it).Rect
	return &sr.scratch
}

// Shape returns a copy of the item's current bounding shape.
func (sr *ShapeRenderer) Shape(it *registry.Item) geom.RoundRect {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.cachedShape(it)
}

// NewCircleRenderer returns a renderer that draws every item as a circle of
// the given radius scaled by the item size, centred on its location.
func NewCircleRenderer(radius float64) *ShapeRenderer {
	return NewShapeRenderer(func(it *registry.Item) geom.RoundRect {
		r := radius * it.Size()
		return geom.RoundRect{
			Rect: geom.R(it.X()-r, it.Y()-r, 2*r, 2*r),
			ArcW: 2 * r,
			ArcH: 2 * r,
		}
	})
}
