// Package registry holds the shared, mutable collection of visual items that
// pipeline stages read and write and that renderers draw.
//
// Items expose a small set of typed fields on the hot path (position, size,
// paints, flags) plus a named string attribute map for renderer specific
// data such as labels and image locations. Item accessors are not
// synchronized; callers go through Registry.Write or Registry.Read.
package registry

import (
	"image/color"
	"maps"

	"github.com/opd-ai/go-forceviz/internal/geom"
)

// Kind tags an item with the renderer family that draws it.
type Kind string

const (
	// KindNode is a graph node.
	KindNode Kind = "node"
	// KindEdge is a graph edge between two nodes.
	KindEdge Kind = "edge"
)

// FontStyle represents font style variations.
type FontStyle int

const (
	// FontStyleRegular is the regular/normal font style.
	FontStyleRegular FontStyle = iota
	// FontStyleBold is the bold font style.
	FontStyleBold
	// FontStyleItalic is the italic font style.
	FontStyleItalic
	// FontStyleBoldItalic is the bold and italic font style.
	FontStyleBoldItalic
)

// String returns the string representation of a FontStyle.
func (fs FontStyle) String() string {
	switch fs {
	case FontStyleRegular:
		return "regular"
	case FontStyleBold:
		return "bold"
	case FontStyleItalic:
		return "italic"
	case FontStyleBoldItalic:
		return "bold-italic"
	default:
		return "unknown"
	}
}

// Font describes a font by family, style and point size.
type Font struct {
	Family string
	Style  FontStyle
	Size   float64
}

// DefaultFont is the font assigned to new items.
var DefaultFont = Font{Family: "SansSerif", Style: FontStyleRegular, Size: 10}

// ShapeCache is the last bounding shape a renderer computed for an item.
// It belongs to the renderer named by Owner; Stamp (the item version) and
// Gen (the renderer's configuration generation) let the owner decide whether
// the shape is still current. The owning renderer serializes access.
type ShapeCache struct {
	Owner any
	Stamp uint64
	Gen   uint64
	Shape geom.RoundRect
}

// Item is a drawable graph element.
type Item struct {
	id   int
	kind Kind

	x, y float64
	size float64
	font Font

	fill   color.Color
	stroke color.Color

	fixed       bool
	highlighted bool
	visible     bool

	source *Item
	target *Item

	attrs   map[string]string
	version uint64

	shape ShapeCache
}

func newItem(id int, kind Kind) *Item {
	return &Item{
		id:     id,
		kind:   kind,
		size:   1,
		font:   DefaultFont,
		attrs:  make(map[string]string),
		stroke: color.Black,
	}
}

// ID returns the registry-unique item id.
func (it *Item) ID() int { return it.id }

// Kind returns the item kind.
func (it *Item) Kind() Kind { return it.kind }

// Version increases on every mutation of the item.
func (it *Item) Version() uint64 { return it.version }

func (it *Item) touch() { it.version++ }

// X returns the horizontal anchor coordinate.
func (it *Item) X() float64 { return it.x }

// Y returns the vertical anchor coordinate.
func (it *Item) Y() float64 { return it.y }

// Location returns the anchor point.
func (it *Item) Location() geom.Point { return geom.Point{X: it.x, Y: it.y} }

// SetLocation moves the anchor point.
func (it *Item) SetLocation(x, y float64) {
	if it.x == x && it.y == y {
		return
	}
	it.x, it.y = x, y
	it.touch()
}

// Size returns the scale factor applied to fonts, images and insets.
func (it *Item) Size() float64 { return it.size }

// SetSize sets the scale factor. Values <= 0 are a wiring bug and panic.
func (it *Item) SetSize(size float64) {
	if size <= 0 {
		panic("registry: item size must be positive")
	}
	if it.size == size {
		return
	}
	it.size = size
	it.touch()
}

// Font returns the base font.
func (it *Item) Font() Font { return it.font }

// SetFont sets the base font.
func (it *Item) SetFont(f Font) {
	if it.font == f {
		return
	}
	it.font = f
	it.touch()
}

// FillColor returns the fill paint, possibly nil.
func (it *Item) FillColor() color.Color { return it.fill }

// SetFillColor sets the fill paint.
func (it *Item) SetFillColor(c color.Color) {
	if it.fill == c {
		return
	}
	it.fill = c
	it.touch()
}

// Color returns the stroke (outline and text) paint, possibly nil.
func (it *Item) Color() color.Color { return it.stroke }

// SetColor sets the stroke paint.
func (it *Item) SetColor(c color.Color) {
	if it.stroke == c {
		return
	}
	it.stroke = c
	it.touch()
}

// Fixed reports whether the item is pinned and excluded from layout forces.
func (it *Item) Fixed() bool { return it.fixed }

// SetFixed pins or releases the item.
func (it *Item) SetFixed(fixed bool) {
	if it.fixed == fixed {
		return
	}
	it.fixed = fixed
	it.touch()
}

// Highlighted reports the highlight flag.
func (it *Item) Highlighted() bool { return it.highlighted }

// SetHighlighted sets the highlight flag.
func (it *Item) SetHighlighted(h bool) {
	if it.highlighted == h {
		return
	}
	it.highlighted = h
	it.touch()
}

// Visible reports whether the filter stages selected the item for drawing.
func (it *Item) Visible() bool { return it.visible }

// SetVisible sets the visibility flag.
func (it *Item) SetVisible(v bool) {
	if it.visible == v {
		return
	}
	it.visible = v
	it.touch()
}

// Source returns the source node of an edge, nil for nodes.
func (it *Item) Source() *Item { return it.source }

// Target returns the target node of an edge, nil for nodes.
func (it *Item) Target() *Item { return it.target }

// Attr returns the named string attribute and whether it is set.
func (it *Item) Attr(name string) (string, bool) {
	v, ok := it.attrs[name]
	return v, ok
}

// SetAttr sets a named string attribute.
func (it *Item) SetAttr(name, value string) {
	if old, ok := it.attrs[name]; ok && old == value {
		return
	}
	it.attrs[name] = value
	it.touch()
}

// DeleteAttr removes a named attribute.
func (it *Item) DeleteAttr(name string) {
	if _, ok := it.attrs[name]; !ok {
		return
	}
	delete(it.attrs, name)
	it.touch()
}

// ShapeCache returns the item's renderer-owned shape cache.
func (it *Item) ShapeCache() *ShapeCache { return &it.shape }

// itemState is a copy of the mutable fields of an item.
type itemState struct {
	item        *Item
	x, y, size  float64
	font        Font
	fill        color.Color
	stroke      color.Color
	fixed       bool
	highlighted bool
	visible     bool
	attrs       map[string]string
}

func (it *Item) save() itemState {
	return itemState{
		item:        it,
		x:           it.x,
		y:           it.y,
		size:        it.size,
		font:        it.font,
		fill:        it.fill,
		stroke:      it.stroke,
		fixed:       it.fixed,
		highlighted: it.highlighted,
		visible:     it.visible,
		attrs:       maps.Clone(it.attrs),
	}
}

func (s itemState) restore() {
	it := s.item
	it.x, it.y, it.size = s.x, s.y, s.size
	it.font = s.font
	it.fill, it.stroke = s.fill, s.stroke
	it.fixed, it.highlighted, it.visible = s.fixed, s.highlighted, s.visible
	it.attrs = maps.Clone(s.attrs)
	it.touch()
}
