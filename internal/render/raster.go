package render

import (
	"image"
	"image/color"
	"io"
	"sync"
	"sync/atomic"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/opd-ai/go-forceviz/internal/geom"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

// RasterSurface draws into an in-memory RGBA image. It is not safe for
// concurrent use.
type RasterSurface struct {
	img   *image.RGBA
	faces *FaceCache
	view  View
	z     *vector.Rasterizer
	stats *RenderStats
}

// NewRasterSurface wraps img. Text is drawn with faces from fonts.
func NewRasterSurface(img *image.RGBA, fonts *FontManager) *RasterSurface {
	b := img.Bounds()
	return &RasterSurface{
		img:   img,
		faces: fonts.NewFaceCache(),
		view:  View{Zoom: 1},
		z:     vector.NewRasterizer(b.Dx(), b.Dy()),
		stats: NewRenderStats(),
	}
}

// Image returns the backing image.
func (s *RasterSurface) Image() *image.RGBA { return s.img }

// Stats returns the draw call counters of this surface.
func (s *RasterSurface) Stats() *RenderStats { return s.stats }

// SetView sets the item-to-screen transform.
func (s *RasterSurface) SetView(v View) { s.view = v }

// Clear fills the whole image with c.
func (s *RasterSurface) Clear(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func (s *RasterSurface) fillPolygons(c color.Color, polys ...[]geom.Point) {
	b := s.img.Bounds()
	s.z.Reset(b.Dx(), b.Dy())
	s.z.DrawOp = draw.Over
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		p := s.view.ToScreen(poly[0])
		s.z.MoveTo(float32(p.X-float64(b.Min.X)), float32(p.Y-float64(b.Min.Y)))
		for _, q := range poly[1:] {
			p = s.view.ToScreen(q)
			s.z.LineTo(float32(p.X-float64(b.Min.X)), float32(p.Y-float64(b.Min.Y)))
		}
		s.z.ClosePath()
	}
	s.z.Draw(s.img, b, image.NewUniform(c), image.Point{})
	s.stats.RecordDrawCall(len(polys))
}

// FillShape implements Surface.
func (s *RasterSurface) FillShape(shape geom.RoundRect, c color.Color) {
	s.fillPolygons(c, outline(shape))
}

// StrokeShape implements Surface.
func (s *RasterSurface) StrokeShape(shape geom.RoundRect, c color.Color, width float64) {
	outer, inner := ring(shape, width)
	s.fillPolygons(c, outer, inner)
}

// StrokeLine implements Surface.
func (s *RasterSurface) StrokeLine(a, b geom.Point, c color.Color, width float64) {
	if q := segmentQuad(a, b, width); q != nil {
		s.fillPolygons(c, q)
	}
}

// DrawImage implements Surface.
func (s *RasterSurface) DrawImage(res *ImageResource, x, y, w, h int, alpha float64) {
	if res == nil || res.Image == nil || w <= 0 || h <= 0 || alpha <= 0 {
		return
	}
	zoom := s.view.zoom()
	p := s.view.ToScreen(geom.Pt(float64(x), float64(y)))
	dr := image.Rect(roundPx(p.X), roundPx(p.Y),
		roundPx(p.X+float64(w)*zoom), roundPx(p.Y+float64(h)*zoom))

	var opts *draw.Options
	var mask image.Image
	if alpha < 1 {
		mask = image.NewUniform(color.Alpha16{A: uint16(alpha * 0xffff)})
		opts = &draw.Options{SrcMask: mask}
	}

	src := res.Image
	if dr.Dx() == src.Bounds().Dx() && dr.Dy() == src.Bounds().Dy() {
		draw.DrawMask(s.img, dr, src, src.Bounds().Min, mask, image.Point{}, draw.Over)
	} else {
		draw.CatmullRom.Scale(s.img, dr, src, src.Bounds(), draw.Over, opts)
	}
	s.stats.RecordImageDraw()
}

// DrawText implements Surface.
func (s *RasterSurface) DrawText(str string, f registry.Font, x, y int, c color.Color) {
	if str == "" || c == nil {
		return
	}
	if zoom := s.view.zoom(); zoom != 1 {
		f.Size *= zoom
	}
	face := s.faces.Face(f)
	if face == nil {
		return
	}
	p := s.view.ToScreen(geom.Pt(float64(x), float64(y)))
	d := font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(roundPx(p.X), roundPx(p.Y)),
	}
	d.DrawString(str)
	s.stats.RecordTextDraw()
}

// RasterCanvas is a double-buffered off-screen canvas. A frame is drawn
// into the back buffer between Begin and Publish; Frame and WritePNG only
// ever see published frames.
type RasterCanvas struct {
	mu         sync.RWMutex
	front      *image.RGBA
	back       *RasterSurface
	background color.Color
	frames     atomic.Int64
}

// NewRasterCanvas creates a w x h canvas. The item origin is centred.
func NewRasterCanvas(w, h int, fonts *FontManager) *RasterCanvas {
	rect := image.Rect(0, 0, w, h)
	c := &RasterCanvas{
		front:      image.NewRGBA(rect),
		back:       NewRasterSurface(image.NewRGBA(rect), fonts),
		background: color.White,
	}
	c.back.SetView(CenteredView(w, h))
	draw.Draw(c.front, rect, image.NewUniform(c.background), image.Point{}, draw.Src)
	return c
}

// SetBackground sets the clear color used by Begin.
func (c *RasterCanvas) SetBackground(col color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.background = col
}

// SetView sets the item-to-screen transform for subsequent frames.
func (c *RasterCanvas) SetView(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.back.SetView(v)
}

// Begin clears the back buffer and returns it for drawing.
func (c *RasterCanvas) Begin() Surface {
	c.mu.RLock()
	bg := c.background
	c.mu.RUnlock()
	c.back.Clear(bg)
	return c.back
}

// Publish makes the back buffer the visible frame.
func (c *RasterCanvas) Publish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.front, c.back.img = c.back.img, c.front
	c.frames.Add(1)
}

// Frames returns the number of published frames.
func (c *RasterCanvas) Frames() int64 {
	return c.frames.Load()
}

// Stats returns the draw counters of the drawing buffer.
func (c *RasterCanvas) Stats() *RenderStats {
	return c.back.Stats()
}

// Frame returns a copy of the latest published frame.
func (c *RasterCanvas) Frame() *image.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone.AsRGBA(c.front)
}

// WritePNG encodes the latest published frame as PNG.
func (c *RasterCanvas) WritePNG(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return imgio.PNGEncoder()(w, c.front)
}
