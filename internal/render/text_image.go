package render

import (
	"fmt"
	"math"

	"github.com/opd-ai/go-forceviz/internal/geom"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

// Alignment positions a shape relative to its item's anchor point.
type Alignment int

const (
	// AlignCenter centres the shape on the anchor.
	AlignCenter Alignment = iota
	// AlignLeft puts the anchor on the left edge.
	AlignLeft
	// AlignRight puts the anchor on the right edge.
	AlignRight
	// AlignTop puts the anchor on the top edge.
	AlignTop
	// AlignBottom puts the anchor on the bottom edge.
	AlignBottom
)

// String returns the configuration name of the alignment.
func (a Alignment) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignLeft:
		return "left"
	case AlignRight:
		return "right"
	case AlignTop:
		return "top"
	case AlignBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// ParseAlignment parses an alignment name.
func ParseAlignment(s string) (Alignment, error) {
	switch s {
	case "center", "centre", "":
		return AlignCenter, nil
	case "left":
		return AlignLeft, nil
	case "right":
		return AlignRight, nil
	case "top":
		return AlignTop, nil
	case "bottom":
		return AlignBottom, nil
	default:
		return AlignCenter, fmt.Errorf("unknown alignment: %s", s)
	}
}

// Default TextImageRenderer settings.
const (
	DefaultTextAttr         = "label"
	DefaultImageAttr        = "image"
	DefaultHorizontalBorder = 3.0
	DefaultVerticalBorder   = 0.0
	DefaultImageMargin      = 4.0
)

// TextImageRenderer draws an item as a box holding an optional image
// followed by an optional text label. The box grows with the content and
// is positioned by aligning it to the item's anchor point.
type TextImageRenderer struct {
	*ShapeRenderer

	metrics MetricsProvider
	images  *ImageCache

	textAttr  string
	imageAttr string

	hAlign, vAlign   Alignment
	hBorder, vBorder float64
	imageMargin      float64
	arcW, arcH       float64
}

// NewTextImageRenderer creates a renderer that measures text with metrics
// and resolves images through images. images may be nil for text-only use.
func NewTextImageRenderer(metrics MetricsProvider, images *ImageCache) *TextImageRenderer {
	if metrics == nil {
		panic("render: nil metrics provider")
	}
	r := &TextImageRenderer{
		metrics:     metrics,
		images:      images,
		textAttr:    DefaultTextAttr,
		imageAttr:   DefaultImageAttr,
		hAlign:      AlignCenter,
		vAlign:      AlignCenter,
		hBorder:     DefaultHorizontalBorder,
		vBorder:     DefaultVerticalBorder,
		imageMargin: DefaultImageMargin,
	}
	r.ShapeRenderer = NewShapeRenderer(r.computeShape)
	r.ShapeRenderer.content = r.drawContent
	return r
}

// SetTextAttributeName sets the item attribute holding the label.
func (r *TextImageRenderer) SetTextAttributeName(name string) {
	r.configure(func() { r.textAttr = name })
}

// SetImageAttributeName sets the item attribute holding the image location.
func (r *TextImageRenderer) SetImageAttributeName(name string) {
	r.configure(func() { r.imageAttr = name })
}

// SetHorizontalAlignment sets how the box is placed left/right of the
// anchor. Only AlignLeft, AlignRight and AlignCenter are valid.
func (r *TextImageRenderer) SetHorizontalAlignment(a Alignment) {
	if a != AlignLeft && a != AlignRight && a != AlignCenter {
		panic(fmt.Sprintf("render: invalid horizontal alignment %s", a))
	}
	r.configure(func() { r.hAlign = a })
}

// SetVerticalAlignment sets how the box is placed above/below the anchor.
// Only AlignTop, AlignBottom and AlignCenter are valid.
func (r *TextImageRenderer) SetVerticalAlignment(a Alignment) {
	if a != AlignTop && a != AlignBottom && a != AlignCenter {
		panic(fmt.Sprintf("render: invalid vertical alignment %s", a))
	}
	r.configure(func() { r.vAlign = a })
}

// Alignment returns the horizontal and vertical alignment.
func (r *TextImageRenderer) Alignment() (h, v Alignment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hAlign, r.vAlign
}

// SetHorizontalPadding sets the unscaled left and right inset.
func (r *TextImageRenderer) SetHorizontalPadding(px float64) {
	r.configure(func() { r.hBorder = px })
}

// SetVerticalPadding sets the unscaled top and bottom inset.
func (r *TextImageRenderer) SetVerticalPadding(px float64) {
	r.configure(func() { r.vBorder = px })
}

// SetImageMargin sets the unscaled gap between image and text.
func (r *TextImageRenderer) SetImageMargin(px float64) {
	r.configure(func() { r.imageMargin = px })
}

// SetRoundedCorner sets the corner arc width and height. Zero arcs give
// square corners.
func (r *TextImageRenderer) SetRoundedCorner(arcW, arcH float64) {
	r.configure(func() { r.arcW, r.arcH = arcW, arcH })
}

// SetMaxImageDimensions bounds the size of images loaded from now on.
// Non-positive values disable the bound.
func (r *TextImageRenderer) SetMaxImageDimensions(w, h int) {
	r.configure(func() {
		if r.images != nil {
			r.images.SetMaxDimensions(w, h)
		}
	})
}

// minScaledFontSize is the smallest point size a scaled label gets. A
// zero size would select the default font size instead.
const minScaledFontSize = 1

// scaledFont returns f with its point size multiplied by size. Sizes are
// rounded to whole points, so the text grows in steps as size changes.
func scaledFont(f registry.Font, size float64) registry.Font {
	if size == 1 {
		return f
	}
	base := f.Size
	if base <= 0 {
		base = registry.DefaultFont.Size
	}
	f.Size = math.Max(math.Round(size*base), minScaledFontSize)
	return f
}

func (r *TextImageRenderer) text(it *registry.Item) string {
	s, _ := it.Attr(r.textAttr)
	return s
}

func (r *TextImageRenderer) image(it *registry.Item) *ImageResource {
	if r.images == nil {
		return nil
	}
	loc, ok := it.Attr(r.imageAttr)
	if !ok || loc == "" {
		return nil
	}
	return r.images.Get(loc)
}

// computeShape lays out image and text side by side. Called with the
// renderer lock held.
func (r *TextImageRenderer) computeShape(it *registry.Item) geom.RoundRect {
	size := it.Size()

	var iw, ih float64
	if img := r.image(it); img != nil {
		iw = size * float64(img.Width)
		ih = size * float64(img.Height)
	}

	// An empty label still contributes the font height.
	m := r.metrics.MeasureText(scaledFont(it.Font(), size), r.text(it))
	tw, th := m.Width, m.Height

	margin := 0.0
	if tw > 0 && iw > 0 {
		margin = r.imageMargin
	}
	w := tw + iw + size*(2*r.hBorder+margin)
	h := math.Max(th, ih) + size*2*r.vBorder

	corner := alignedCorner(it.Location(), w, h, r.hAlign, r.vAlign)
	return geom.RoundRect{
		Rect: geom.Rect{X: corner.X, Y: corner.Y, W: w, H: h},
		ArcW: r.arcW,
		ArcH: r.arcH,
	}
}

// alignedCorner returns the top-left corner of a w x h box aligned to the
// anchor point p.
func alignedCorner(p geom.Point, w, h float64, hAlign, vAlign Alignment) geom.Point {
	x, y := p.X, p.Y
	switch hAlign {
	case AlignCenter:
		x -= w / 2
	case AlignRight:
		x -= w
	}
	switch vAlign {
	case AlignCenter:
		y -= h / 2
	case AlignBottom:
		y -= h
	}
	return geom.Point{X: x, Y: y}
}

// drawContent paints the image and label inside shape. Called with the
// renderer lock held.
func (r *TextImageRenderer) drawContent(s Surface, it *registry.Item, shape geom.RoundRect) {
	text := r.text(it)
	img := r.image(it)
	if text == "" && img == nil {
		return
	}

	size := it.Size()
	x := shape.X + size*r.hBorder

	if img != nil {
		w := size * float64(img.Width)
		h := size * float64(img.Height)
		y := shape.Y + (shape.H-h)/2

		// Images fade together with a translucent fill.
		alpha := 1.0
		if fill := it.FillColor(); fill != nil && it.Color() != nil {
			if a := paintAlpha(fill); a < 1 {
				alpha = a
			}
		}
		s.DrawImage(img, roundPx(x), roundPx(y), roundPx(w), roundPx(h), alpha)

		x += w
		if text != "" {
			x += size * r.imageMargin
		}
	}

	if text == "" {
		return
	}
	stroke := it.Color()
	if stroke == nil {
		return
	}
	f := scaledFont(it.Font(), size)
	m := r.metrics.MeasureText(f, text)
	baseline := shape.Y + (shape.H-m.Height)/2 + m.Ascent
	s.DrawText(text, f, roundPx(x), roundPx(baseline), stroke)
}
