package render

import (
	"fmt"
	"image/color"

	"github.com/opd-ai/go-forceviz/internal/geom"
)

// View maps item space onto screen pixels: screen = item*Zoom + Pan.
type View struct {
	Pan  geom.Point
	Zoom float64
}

// CenteredView returns a view that puts the item-space origin in the middle
// of a w x h screen.
func CenteredView(w, h int) View {
	return View{Pan: geom.Pt(float64(w)/2, float64(h)/2), Zoom: 1}
}

func (v View) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// ToScreen converts an item-space point to screen pixels.
func (v View) ToScreen(p geom.Point) geom.Point {
	return p.Scale(v.zoom()).Add(v.Pan)
}

// ToItem converts a screen point to item space.
func (v View) ToItem(p geom.Point) geom.Point {
	return p.Sub(v.Pan).Scale(1 / v.zoom())
}

// ZoomAbout scales the view by factor keeping the screen point anchor fixed.
func (v View) ZoomAbout(anchor geom.Point, factor float64) View {
	at := v.ToItem(anchor)
	v.Zoom = v.zoom() * factor
	v.Pan = anchor.Sub(at.Scale(v.Zoom))
	return v
}

// Config holds the window and canvas options.
type Config struct {
	// Width is the window width in pixels.
	Width int
	// Height is the window height in pixels.
	Height int
	// Title is the window title.
	Title string
	// BackgroundColor clears every frame.
	BackgroundColor color.RGBA
	// ShowFPS draws the frame rate in the top-left corner.
	ShowFPS bool
}

// DefaultConfig returns the demo window settings.
func DefaultConfig() Config {
	return Config{
		Width:           700,
		Height:          700,
		Title:           "Force Simulator Demo",
		BackgroundColor: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		ShowFPS:         true,
	}
}

// Validate checks that the window has a positive size.
func (c Config) Validate() error {
	if c.Width <= 0 {
		return fmt.Errorf("width must be positive, got %d", c.Width)
	}
	if c.Height <= 0 {
		return fmt.Errorf("height must be positive, got %d", c.Height)
	}
	return nil
}
