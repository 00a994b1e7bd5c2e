package render

import (
	"math"
	"testing"

	"github.com/opd-ai/go-forceviz/internal/geom"
)

func TestViewTransforms(t *testing.T) {
	tests := []struct {
		name   string
		view   View
		item   geom.Point
		screen geom.Point
	}{
		{"zero view is identity", View{}, geom.Pt(3, 4), geom.Pt(3, 4)},
		{"centred origin", CenteredView(700, 700), geom.Pt(0, 0), geom.Pt(350, 350)},
		{"zoomed", View{Pan: geom.Pt(10, 20), Zoom: 2}, geom.Pt(5, -5), geom.Pt(20, 10)},
		{"negative zoom treated as one", View{Zoom: -3}, geom.Pt(7, 7), geom.Pt(7, 7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.view.ToScreen(tt.item); got != tt.screen {
				t.Errorf("ToScreen(%v) = %v, want %v", tt.item, got, tt.screen)
			}
			if got := tt.view.ToItem(tt.screen); got != tt.item {
				t.Errorf("ToItem(%v) = %v, want %v", tt.screen, got, tt.item)
			}
		})
	}
}

func TestViewZoomAboutKeepsAnchor(t *testing.T) {
	v := CenteredView(700, 700)
	anchor := geom.Pt(100, 200)
	before := v.ToItem(anchor)

	z := v.ZoomAbout(anchor, 2).ZoomAbout(anchor, 1.5)
	after := z.ToItem(anchor)
	if math.Abs(before.X-after.X) > 1e-9 || math.Abs(before.Y-after.Y) > 1e-9 {
		t.Errorf("anchor moved from %v to %v", before, after)
	}
	if z.Zoom != 3 {
		t.Errorf("Zoom = %v, want 3", z.Zoom)
	}
}

func TestConfigValidate(t *testing.T) {
	def := DefaultConfig()
	if err := def.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
	if def.Width != 700 || def.Height != 700 || def.Title != "Force Simulator Demo" {
		t.Errorf("DefaultConfig() = %+v", def)
	}

	tests := []struct {
		name string
		c    Config
	}{
		{"zero width", Config{Width: 0, Height: 10}},
		{"negative height", Config{Width: 10, Height: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.c.Validate() == nil {
				t.Errorf("Validate() accepted %+v", tt.c)
			}
		})
	}
}
