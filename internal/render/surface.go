package render

import (
	"image/color"
	"math"

	"github.com/opd-ai/go-forceviz/internal/geom"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

// Surface is a 2D drawing target. Shapes are given in item space as floats;
// images and text are placed at integer pixel positions already rounded by
// the caller.
type Surface interface {
	// FillShape fills a (possibly rounded) rectangle.
	FillShape(shape geom.RoundRect, c color.Color)
	// StrokeShape outlines a (possibly rounded) rectangle.
	StrokeShape(shape geom.RoundRect, c color.Color, width float64)
	// StrokeLine draws a straight line segment.
	StrokeLine(a, b geom.Point, c color.Color, width float64)
	// DrawImage scales img into the w x h box at (x, y) and composites it
	// with the given opacity in [0, 1].
	DrawImage(img *ImageResource, x, y, w, h int, alpha float64)
	// DrawText draws s with its baseline starting at (x, y).
	DrawText(s string, f registry.Font, x, y int, c color.Color)
}

// roundPx rounds a float pixel coordinate half away from zero.
func roundPx(v float64) int {
	return int(math.Round(v))
}

// paintAlpha returns the opacity of c in [0, 1]. A nil paint is opaque.
func paintAlpha(c color.Color) float64 {
	if c == nil {
		return 1
	}
	_, _, _, a := c.RGBA()
	return float64(a) / 0xffff
}
