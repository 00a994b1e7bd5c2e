package render

import (
	"math"

	"github.com/opd-ai/go-forceviz/internal/geom"
)

// cornerSegments is the number of line segments per rounded corner.
const cornerSegments = 6

// outline returns the closed polygon of rr in clockwise order (screen
// coordinates, y down). Rounded corners are flattened into short segments.
func outline(rr geom.RoundRect) []geom.Point {
	aw := math.Min(rr.ArcW, rr.W) / 2
	ah := math.Min(rr.ArcH, rr.H) / 2
	if aw <= 0 || ah <= 0 {
		return []geom.Point{
			{X: rr.X, Y: rr.Y},
			{X: rr.MaxX(), Y: rr.Y},
			{X: rr.MaxX(), Y: rr.MaxY()},
			{X: rr.X, Y: rr.MaxY()},
		}
	}

	pts := make([]geom.Point, 0, 4*(cornerSegments+1))
	corners := [4]struct {
		cx, cy float64
		start  float64
	}{
		{rr.MaxX() - aw, rr.Y + ah, -math.Pi / 2},
		{rr.MaxX() - aw, rr.MaxY() - ah, 0},
		{rr.X + aw, rr.MaxY() - ah, math.Pi / 2},
		{rr.X + aw, rr.Y + ah, math.Pi},
	}
	for _, c := range corners {
		for i := 0; i <= cornerSegments; i++ {
			a := c.start + float64(i)*(math.Pi/2)/cornerSegments
			pts = append(pts, geom.Point{X: c.cx + aw*math.Cos(a), Y: c.cy + ah*math.Sin(a)})
		}
	}
	return pts
}

// ring returns the outer and inner polygons of an outline of the given
// width centred on the edge of rr. The inner polygon is counter-clockwise so
// that filling both yields only the band between them.
func ring(rr geom.RoundRect, width float64) (outer, inner []geom.Point) {
	half := width / 2
	o := geom.RoundRect{Rect: rr.Inset(-half), ArcW: rr.ArcW + width, ArcH: rr.ArcH + width}
	outer = outline(o)

	i := geom.RoundRect{Rect: rr.Inset(half), ArcW: math.Max(0, rr.ArcW-width), ArcH: math.Max(0, rr.ArcH-width)}
	if i.Empty() {
		return outer, nil
	}
	inner = outline(i)
	for l, r := 0, len(inner)-1; l < r; l, r = l+1, r-1 {
		inner[l], inner[r] = inner[r], inner[l]
	}
	return outer, inner
}

// segmentQuad returns the rectangle covering a line from a to b with the
// given width.
func segmentQuad(a, b geom.Point, width float64) []geom.Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return nil
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	return []geom.Point{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	}
}
