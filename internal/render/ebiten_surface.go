//go:build !noebiten

package render

import (
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"

	"github.com/opd-ai/go-forceviz/internal/geom"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

var (
	whiteOnce  sync.Once
	whiteImage *ebiten.Image
)

// whiteSubImage is the 1x1 source image for solid triangle fills.
func whiteSubImage() *ebiten.Image {
	whiteOnce.Do(func() {
		whiteImage = ebiten.NewImage(1, 1)
		whiteImage.Fill(color.White)
	})
	return whiteImage
}

// EbitenSurface draws onto an Ebiten image. Textures for image resources
// and text faces are kept between frames, so one EbitenSurface should be
// reused for every frame drawn by the same goroutine.
type EbitenSurface struct {
	dst   *ebiten.Image
	view  View
	faces *FaceCache
	xface map[font.Face]*text.GoXFace
	tex   map[*ImageResource]*ebiten.Image
	stats *RenderStats

	vs []ebiten.Vertex
	is []uint16
}

// NewEbitenSurface creates a surface that measures and draws text with
// faces from fonts.
func NewEbitenSurface(fonts *FontManager) *EbitenSurface {
	return &EbitenSurface{
		view:  View{Zoom: 1},
		faces: fonts.NewFaceCache(),
		xface: make(map[font.Face]*text.GoXFace),
		tex:   make(map[*ImageResource]*ebiten.Image),
		stats: NewRenderStats(),
	}
}

// Begin targets dst with the given view for the next frame.
func (s *EbitenSurface) Begin(dst *ebiten.Image, v View) {
	s.dst = dst
	s.view = v
}

// Stats returns the draw call counters.
func (s *EbitenSurface) Stats() *RenderStats { return s.stats }

func (s *EbitenSurface) fillPolygons(c color.Color, polys ...[]geom.Point) {
	if s.dst == nil {
		return
	}
	var path vector.Path
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		p := s.view.ToScreen(poly[0])
		path.MoveTo(float32(p.X), float32(p.Y))
		for _, q := range poly[1:] {
			p = s.view.ToScreen(q)
			path.LineTo(float32(p.X), float32(p.Y))
		}
		path.Close()
	}

	s.vs, s.is = path.AppendVerticesAndIndicesForFilling(s.vs[:0], s.is[:0])
	r, g, b, a := c.RGBA()
	if a == 0 {
		return
	}
	// Vertex colors are straight alpha.
	cr := float32(r) / float32(a)
	cg := float32(g) / float32(a)
	cb := float32(b) / float32(a)
	ca := float32(a) / 0xffff
	for i := range s.vs {
		s.vs[i].SrcX, s.vs[i].SrcY = 0, 0
		s.vs[i].ColorR, s.vs[i].ColorG, s.vs[i].ColorB, s.vs[i].ColorA = cr, cg, cb, ca
	}
	s.dst.DrawTriangles(s.vs, s.is, whiteSubImage(), &ebiten.DrawTrianglesOptions{
		AntiAlias: true,
		FillRule:  ebiten.FillRuleNonZero,
	})
	s.stats.RecordDrawCall(len(polys))
}

// FillShape implements Surface.
func (s *EbitenSurface) FillShape(shape geom.RoundRect, c color.Color) {
	s.fillPolygons(c, outline(shape))
}

// StrokeShape implements Surface.
func (s *EbitenSurface) StrokeShape(shape geom.RoundRect, c color.Color, width float64) {
	outer, inner := ring(shape, width)
	s.fillPolygons(c, outer, inner)
}

// StrokeLine implements Surface.
func (s *EbitenSurface) StrokeLine(a, b geom.Point, c color.Color, width float64) {
	if q := segmentQuad(a, b, width); q != nil {
		s.fillPolygons(c, q)
	}
}

func (s *EbitenSurface) texture(res *ImageResource) *ebiten.Image {
	if t, ok := s.tex[res]; ok {
		return t
	}
	t := ebiten.NewImageFromImage(res.Image)
	s.tex[res] = t
	return t
}

// DrawImage implements Surface.
func (s *EbitenSurface) DrawImage(res *ImageResource, x, y, w, h int, alpha float64) {
	if s.dst == nil || res == nil || res.Image == nil || w <= 0 || h <= 0 || alpha <= 0 {
		return
	}
	t := s.texture(res)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(w)/float64(res.Width), float64(h)/float64(res.Height))
	op.GeoM.Translate(float64(x), float64(y))
	op.GeoM.Scale(s.view.zoom(), s.view.zoom())
	op.GeoM.Translate(s.view.Pan.X, s.view.Pan.Y)
	op.Filter = ebiten.FilterLinear
	if alpha < 1 {
		op.ColorScale.ScaleAlpha(float32(alpha))
	}
	s.dst.DrawImage(t, op)
	s.stats.RecordImageDraw()
}

// DrawText implements Surface.
func (s *EbitenSurface) DrawText(str string, f registry.Font, x, y int, c color.Color) {
	if s.dst == nil || str == "" || c == nil {
		return
	}
	if zoom := s.view.zoom(); zoom != 1 {
		f.Size *= zoom
	}
	face := s.faces.Face(f)
	if face == nil {
		return
	}
	xf, ok := s.xface[face]
	if !ok {
		xf = text.NewGoXFace(face)
		s.xface[face] = xf
	}

	// text.Draw positions the top of the line; shift up by the ascent so
	// that (x, y) is the baseline.
	p := s.view.ToScreen(geom.Pt(float64(x), float64(y)))
	ascent := fixedToFloat(face.Metrics().Ascent)
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(roundPx(p.X)), float64(roundPx(p.Y))-ascent)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(s.dst, str, xf, op)
	s.stats.RecordTextDraw()
}

// Release frees the cached textures.
func (s *EbitenSurface) Release() {
	for res, t := range s.tex {
		t.Deallocate()
		delete(s.tex, res)
	}
}
