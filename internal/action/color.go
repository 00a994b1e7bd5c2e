package action

import (
	"context"
	"image/color"

	"github.com/opd-ai/go-forceviz/internal/pipeline"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

// Palette holds the colours assigned by ColorFunction. A nil colour leaves
// that paint unset, which renderers skip.
type Palette struct {
	NodeFill      color.Color
	FixedFill     color.Color
	HighlightFill color.Color
	EdgeFill      color.Color

	NodeStroke      color.Color
	EdgeStroke      color.Color
	HighlightStroke color.Color
}

// DefaultPalette returns the demo colours.
func DefaultPalette() Palette {
	pastelRed := color.RGBA{R: 255, G: 125, B: 125, A: 255}
	pastelOrange := color.RGBA{R: 255, G: 200, B: 125, A: 255}
	return Palette{
		NodeFill:        color.RGBA{R: 220, G: 220, B: 255, A: 255},
		FixedFill:       pastelRed,
		HighlightFill:   pastelOrange,
		EdgeFill:        color.Black,
		NodeStroke:      color.Black,
		EdgeStroke:      color.RGBA{R: 192, G: 192, B: 192, A: 255},
		HighlightStroke: pastelOrange,
	}
}

// Fill returns the fill colour for it.
func (p Palette) Fill(it *registry.Item) color.Color {
	switch {
	case it.Highlighted():
		return p.HighlightFill
	case it.Kind() == registry.KindEdge:
		return p.EdgeFill
	case it.Fixed():
		return p.FixedFill
	default:
		return p.NodeFill
	}
}

// Stroke returns the stroke colour for it.
func (p Palette) Stroke(it *registry.Item) color.Color {
	if it.Kind() == registry.KindEdge {
		if it.Highlighted() {
			return p.HighlightStroke
		}
		return p.EdgeStroke
	}
	return p.NodeStroke
}

// ColorFunction assigns fill and stroke colours from a palette.
type ColorFunction struct {
	Palette Palette
}

// Name implements pipeline.Stage.
func (ColorFunction) Name() string { return "color" }

// Run implements pipeline.Stage.
func (c ColorFunction) Run(_ context.Context, reg *registry.Registry, _ pipeline.Tick) error {
	for _, it := range reg.Items() {
		if !it.Visible() {
			continue
		}
		it.SetFillColor(c.Palette.Fill(it))
		it.SetColor(c.Palette.Stroke(it))
	}
	return nil
}
