package render

import (
	"fmt"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/opd-ai/go-forceviz/internal/geom"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

// fakeMetrics measures 0.6 of the point size per character with a line
// height equal to the point size, so "A" at 10pt is 6x10.
type fakeMetrics struct {
	calls atomic.Int64
}

func (m *fakeMetrics) MeasureText(f registry.Font, s string) TextMetrics {
	m.calls.Add(1)
	return TextMetrics{
		Width:  0.6 * f.Size * float64(len(s)),
		Height: f.Size,
		Ascent: 0.8 * f.Size,
	}
}

type drawCall struct {
	op    string
	shape geom.RoundRect
	x, y  int
	w, h  int
	alpha float64
	text  string
	font  registry.Font
	col   color.Color
}

// recordingSurface records every draw call in order.
type recordingSurface struct {
	calls []drawCall
}

func (s *recordingSurface) FillShape(shape geom.RoundRect, c color.Color) {
	s.calls = append(s.calls, drawCall{op: "fill", shape: shape, col: c})
}

func (s *recordingSurface) StrokeShape(shape geom.RoundRect, c color.Color, _ float64) {
	s.calls = append(s.calls, drawCall{op: "stroke", shape: shape, col: c})
}

func (s *recordingSurface) StrokeLine(a, b geom.Point, c color.Color, width float64) {
	s.calls = append(s.calls, drawCall{op: "line", shape: geom.RoundRect{Rect: geom.R(a.X, a.Y, b.X-a.X, b.Y-a.Y)}, alpha: width, col: c})
}

func (s *recordingSurface) DrawImage(_ *ImageResource, x, y, w, h int, alpha float64) {
	s.calls = append(s.calls, drawCall{op: "image", x: x, y: y, w: w, h: h, alpha: alpha})
}

func (s *recordingSurface) DrawText(str string, f registry.Font, x, y int, c color.Color) {
	s.calls = append(s.calls, drawCall{op: "text", x: x, y: y, text: str, font: f, col: c})
}

func (s *recordingSurface) ops() []string {
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.op
	}
	return out
}

func box(x, y, w, h float64) ShapeFunc {
	return func(*registry.Item) geom.RoundRect {
		return geom.RoundRect{Rect: geom.R(x, y, w, h)}
	}
}

func TestShapeRendererRenderTypes(t *testing.T) {
	reg := registry.New()
	it := reg.AddNode("")
	it.SetFillColor(color.White)

	tests := []struct {
		rt     RenderType
		stroke color.Color
		want   string
	}{
		{RenderNone, color.Black, "[]"},
		{RenderDraw, color.Black, "[stroke]"},
		{RenderFill, color.Black, "[fill]"},
		{RenderDrawAndFill, color.Black, "[fill stroke]"},
		{RenderDrawAndFill, nil, "[fill]"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v", tt.rt, tt.stroke != nil), func(t *testing.T) {
			it.SetColor(tt.stroke)
			sr := NewShapeRenderer(box(0, 0, 10, 10))
			sr.SetRenderType(tt.rt)
			s := &recordingSurface{}
			sr.Render(s, it)
			if got := fmt.Sprint(s.ops()); got != tt.want {
				t.Errorf("ops = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestShapeRendererSetRenderTypePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("SetRenderType(42) did not panic")
		}
	}()
	NewShapeRenderer(box(0, 0, 1, 1)).SetRenderType(RenderType(42))
}

func TestParseRenderType(t *testing.T) {
	tests := []struct {
		in      string
		want    RenderType
		wantErr bool
	}{
		{"none", RenderNone, false},
		{"draw", RenderDraw, false},
		{"stroke", RenderDraw, false},
		{"fill", RenderFill, false},
		{"", RenderFill, false},
		{"draw-and-fill", RenderDrawAndFill, false},
		{"sideways", RenderNone, true},
	}
	for _, tt := range tests {
		got, err := ParseRenderType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRenderType(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseRenderType(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr && tt.in != "" && tt.in != "stroke" && got.String() != tt.in {
			t.Errorf("%v.String() = %q", got, got.String())
		}
	}
}

func TestShapeCacheFollowsItemVersion(t *testing.T) {
	reg := registry.New()
	it := reg.AddNode("")
	var computed int
	sr := NewShapeRenderer(func(it *registry.Item) geom.RoundRect {
		computed++
		return geom.RoundRect{Rect: geom.R(it.X(), it.Y(), 1, 1)}
	})

	sr.Shape(it)
	sr.BoundsRef(it)
	sr.LocatePoint(geom.Pt(0, 0), it)
	if computed != 1 {
		t.Fatalf("shape computed %d times for an unchanged item", computed)
	}

	it.SetLocation(5, 5)
	if got := sr.Shape(it); got.X != 5 || computed != 2 {
		t.Errorf("moved item: shape %v after %d computations", got, computed)
	}

	sr.Invalidate()
	sr.Shape(it)
	if computed != 3 {
		t.Errorf("Invalidate did not force recomputation")
	}

	// A second renderer over the same item owns the cache afterwards.
	other := NewShapeRenderer(box(100, 100, 1, 1))
	if got := other.Shape(it); got.X != 100 {
		t.Errorf("other renderer got a stale shape %v", got)
	}
	if sr.Shape(it).X != 5 {
		t.Errorf("original renderer got the other's shape")
	}
}

func TestBoundsRefIsRendererScratch(t *testing.T) {
	reg := registry.New()
	a, b := reg.AddNode(""), reg.AddNode("")
	b.SetLocation(50, 50)
	sr := NewCircleRenderer(5)

	ra := sr.BoundsRef(a)
	first := *ra
	rb := sr.BoundsRef(b)
	if ra != rb {
		t.Errorf("BoundsRef returned distinct pointers")
	}
	if *rb == first {
		t.Errorf("scratch not overwritten by the second call")
	}
	if got := Bounds(sr, a); got != first {
		t.Errorf("Bounds() = %v, want copy %v", got, first)
	}
}

func TestLocatePointMatchesBounds(t *testing.T) {
	reg := registry.New()
	it := reg.AddNode("label")
	it.SetLocation(20, -10)
	a, b := reg.AddNode(""), reg.AddNode("")
	b.SetLocation(100, 0)
	edge, err := reg.AddEdge(a, b)
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]struct {
		r  Renderer
		it *registry.Item
		// near are points that must hit and lie within the bounds.
		near []geom.Point
	}{
		"box":    {r: NewShapeRenderer(func(it *registry.Item) geom.RoundRect { return geom.RoundRect{Rect: geom.R(it.X()-7, it.Y()-3, 14, 6)} }), it: it},
		"text":   {r: NewTextImageRenderer(&fakeMetrics{}, nil), it: it},
		"circle": {r: NewCircleRenderer(6), it: it},
		// A thin edge hits within the tolerance, beyond its half width.
		"edge": {r: NewEdgeRenderer(), it: edge, near: []geom.Point{{X: 50, Y: 1.5}, {X: -1.5, Y: 0}}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := tt.r
			b := *r.BoundsRef(tt.it)
			c := b.Center()
			if !r.LocatePoint(c, tt.it) {
				t.Errorf("centre %v of %v not located", c, b)
			}
			for _, p := range tt.near {
				if !r.LocatePoint(p, tt.it) {
					t.Errorf("point %v not located", p)
				}
				if !b.Contains(p) {
					t.Errorf("located point %v outside bounds %v", p, b)
				}
			}
			outside := []geom.Point{
				{X: b.X - 0.5, Y: c.Y},
				{X: b.MaxX() + 0.5, Y: c.Y},
				{X: c.X, Y: b.Y - 0.5},
				{X: c.X, Y: b.MaxY() + 0.5},
			}
			for _, p := range outside {
				if r.LocatePoint(p, tt.it) {
					t.Errorf("point %v outside %v located", p, b)
				}
			}
		})
	}
}

func TestCircleRendererCorners(t *testing.T) {
	reg := registry.New()
	it := reg.AddNode("")
	sr := NewCircleRenderer(10)
	if sr.LocatePoint(geom.Pt(-9.5, -9.5), it) {
		t.Error("corner of the bounding box counted as inside the circle")
	}
	if !sr.LocatePoint(geom.Pt(-6, -6), it) {
		t.Error("point inside the circle not located")
	}
	it.SetSize(2)
	if b := Bounds(sr, it); b.W != 40 {
		t.Errorf("scaled diameter = %v, want 40", b.W)
	}
}

func TestEdgeRenderer(t *testing.T) {
	reg := registry.New()
	a, b := reg.AddNode(""), reg.AddNode("")
	b.SetLocation(100, 0)
	e, err := reg.AddEdge(a, b)
	if err != nil {
		t.Fatal(err)
	}
	er := NewEdgeRenderer()
	er.SetWidth(2)

	s := &recordingSurface{}
	er.Render(s, e)
	if len(s.calls) != 0 {
		t.Errorf("edge without stroke colour drew %v", s.ops())
	}
	e.SetColor(color.Black)
	e.SetSize(3)
	er.Render(s, e)
	if len(s.calls) != 1 || s.calls[0].alpha != 6 {
		t.Errorf("calls = %+v, want one line of width 6", s.calls)
	}

	if !er.LocatePoint(geom.Pt(50, 1.5), e) {
		t.Error("point near the edge not located")
	}
	if er.LocatePoint(geom.Pt(50, 10), e) {
		t.Error("point far from the edge located")
	}
	if b := *er.BoundsRef(e); b.X != -3 || b.W != 106 || b.H != 6 {
		t.Errorf("BoundsRef() = %v", b)
	}
}

func TestFactory(t *testing.T) {
	node := NewCircleRenderer(1)
	edge := NewEdgeRenderer()
	f := NewFactory(node, edge)
	if f.Renderer(registry.KindNode) != node || f.Renderer(registry.KindEdge) != edge {
		t.Fatal("built-in kinds not mapped")
	}
	if f.Renderer("aggregate") != nil {
		t.Error("unknown kind resolved without a fallback")
	}

	fallback := NewCircleRenderer(2)
	f.SetFallback(fallback)
	if f.Renderer("aggregate") != fallback {
		t.Error("fallback not used")
	}

	rs := f.Resolve()
	rs.Renderer(registry.KindNode)
	f.Register(registry.KindNode, fallback)
	if rs.Renderer(registry.KindNode) != node {
		t.Error("resolved lookup changed within a frame")
	}
	if f.Resolve().Renderer(registry.KindNode) != fallback {
		t.Error("new frame did not see the registration")
	}
	f.Register(registry.KindNode, nil)
	if f.Renderer(registry.KindNode) != fallback {
		t.Error("removed mapping did not fall back")
	}
}

func TestDrawItemsOrderAndHitTest(t *testing.T) {
	reg := registry.New()
	a, b := reg.AddNode("a"), reg.AddNode("b")
	b.SetLocation(4, 0)
	e, _ := reg.AddEdge(a, b)
	hidden := reg.AddNode("hidden")
	for _, it := range []*registry.Item{a, b, e} {
		it.SetVisible(true)
		it.SetColor(color.Black)
	}
	a.SetFillColor(color.White)
	b.SetFillColor(color.White)

	f := NewFactory(NewCircleRenderer(5), NewEdgeRenderer())
	s := &recordingSurface{}
	if n := DrawItems(s, reg, f.Resolve()); n != 3 {
		t.Errorf("DrawItems() = %d, want 3", n)
	}
	if got := fmt.Sprint(s.ops()); got != "[line fill stroke fill stroke]" {
		t.Errorf("ops = %s", got)
	}

	// a and b overlap at x=2; b was drawn last and is on top.
	if got := ItemAt(geom.Pt(2, 0), reg, f.Resolve()); got != b {
		t.Errorf("ItemAt(overlap) = %v, want b", got)
	}
	if got := ItemAt(geom.Pt(-4, 0), reg, f.Resolve()); got != a {
		t.Errorf("ItemAt(a only) = %v, want a", got)
	}
	hidden.SetLocation(100, 100)
	if got := ItemAt(geom.Pt(100, 100), reg, f.Resolve()); got != nil {
		t.Errorf("invisible node was hit")
	}
}
