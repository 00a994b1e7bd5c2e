package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/opd-ai/go-forceviz/internal/geom"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

var red = color.RGBA{R: 255, A: 255}

func rgbaAt(t *testing.T, c *RasterCanvas, x, y int) color.RGBA {
	t.Helper()
	return c.Frame().RGBAAt(x, y)
}

func TestRasterCanvasPublish(t *testing.T) {
	c := NewRasterCanvas(100, 100, NewFontManager())
	if got := rgbaAt(t, c, 50, 50); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("fresh canvas pixel = %v, want white", got)
	}

	s := c.Begin()
	s.FillShape(geom.RoundRect{Rect: geom.R(-10, -10, 20, 20)}, red)
	if got := rgbaAt(t, c, 50, 50); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("unpublished frame visible: %v", got)
	}

	c.Publish()
	if got := rgbaAt(t, c, 50, 50); got != red {
		t.Errorf("centre pixel = %v, want red", got)
	}
	if got := rgbaAt(t, c, 5, 5); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("corner pixel = %v, want background", got)
	}
	if c.Frames() != 1 {
		t.Errorf("Frames() = %d", c.Frames())
	}

	// The next frame starts from a cleared buffer.
	c.Begin()
	c.Publish()
	if got := rgbaAt(t, c, 50, 50); got == red {
		t.Errorf("previous frame leaked into the next one")
	}
}

func TestRasterCanvasDrawsRegistry(t *testing.T) {
	fonts := NewFontManager()
	c := NewRasterCanvas(120, 80, fonts)
	c.SetBackground(color.Black)

	reg := registry.New()
	a, b := reg.AddNode("a"), reg.AddNode("b")
	a.SetLocation(-30, 0)
	b.SetLocation(30, 0)
	e, _ := reg.AddEdge(a, b)
	for _, it := range []*registry.Item{a, b, e} {
		it.SetVisible(true)
	}
	e.SetColor(color.White)
	a.SetFillColor(red)
	b.SetFillColor(red)
	a.SetColor(color.White)
	b.SetColor(color.White)

	f := NewFactory(NewTextImageRenderer(fonts, nil), NewEdgeRenderer())
	c.Stats().Reset()
	n := DrawItems(c.Begin(), reg, f.Resolve())
	c.Publish()
	if n != 3 {
		t.Fatalf("DrawItems() = %d", n)
	}

	img := c.Frame()
	if got := img.RGBAAt(60, 40); got.R == 0 && got.G == 0 && got.B == 0 {
		t.Errorf("edge midpoint not drawn: %v", got)
	}
	var reds int
	for y := 0; y < 80; y++ {
		for x := 0; x < 120; x++ {
			if img.RGBAAt(x, y) == red {
				reds++
			}
		}
	}
	if reds == 0 {
		t.Errorf("node fills not drawn")
	}

	drawCalls, texts, images := c.Stats().Stats()
	// One line, then a fill and a stroke per node.
	if drawCalls != 5 || texts != 2 || images != 0 {
		t.Errorf("stats = %d draws, %d texts, %d images", drawCalls, texts, images)
	}
}

func TestRasterSurfaceDrawImage(t *testing.T) {
	images := NewImageCache(FSOpener(testFS(t)), nil)
	res := images.Get("icons/blue.png")
	c := NewRasterCanvas(20, 20, NewFontManager())
	c.SetView(View{Zoom: 1})

	s := c.Begin()
	s.DrawImage(res, 2, 2, 4, 4, 1)
	s.DrawImage(res, 10, 10, 8, 8, 1)
	s.DrawImage(nil, 0, 0, 4, 4, 1)
	s.DrawImage(res, 0, 0, 4, 4, 0)
	c.Publish()

	img := c.Frame()
	blue := color.RGBA{B: 255, A: 255}
	if got := img.RGBAAt(3, 3); got != blue {
		t.Errorf("unscaled image pixel = %v", got)
	}
	if got := img.RGBAAt(14, 14); got.B < 200 {
		t.Errorf("scaled image pixel = %v", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("invisible image drawn: %v", got)
	}
}

func TestRasterCanvasWritePNG(t *testing.T) {
	c := NewRasterCanvas(32, 16, NewFontManager())
	c.Begin().FillShape(geom.RoundRect{Rect: geom.R(-16, -8, 32, 16)}, red)
	c.Publish()

	var buf bytes.Buffer
	if err := c.WritePNG(&buf); err != nil {
		t.Fatalf("WritePNG() error = %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Errorf("decoded size %v", b)
	}
	r, g, _, _ := img.At(16, 8).RGBA()
	if r != 0xffff || g != 0 {
		t.Errorf("decoded pixel is not red")
	}
}
