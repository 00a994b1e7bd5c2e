package config

import (
	"image/color"
	"time"

	"github.com/opd-ai/go-forceviz/internal/registry"
	"github.com/opd-ai/go-forceviz/internal/render"
)

// Default values for configuration options.
const (
	// DefaultPeriod is the default time between ticks.
	DefaultPeriod = 20 * time.Millisecond
	// DefaultWidth is the default window width in pixels.
	DefaultWidth = 700
	// DefaultHeight is the default window height in pixels.
	DefaultHeight = 700
	// DefaultTitle is the default window title.
	DefaultTitle = "Force Simulator Demo"
	// DefaultGridSize is the number of rows and columns of the demo grid.
	DefaultGridSize = 15
	// DefaultCornerArc rounds node boxes.
	DefaultCornerArc = 8.0
)

// Default palette.
var (
	DefaultNodeColor       = color.RGBA{R: 220, G: 220, B: 255, A: 255}
	DefaultFixedColor      = color.RGBA{R: 255, G: 125, B: 125, A: 255}
	DefaultHighlightColor  = color.RGBA{R: 255, G: 200, B: 125, A: 255}
	DefaultEdgeColor       = color.RGBA{A: 255}
	DefaultNodeStrokeColor = color.RGBA{A: 255}
	DefaultEdgeStrokeColor = color.RGBA{R: 192, G: 192, B: 192, A: 255}
)

// DefaultConfig returns a Config with the demo defaults.
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			Title:      DefaultTitle,
			Background: color.RGBA{R: 255, G: 255, B: 255, A: 255},
			ShowFPS:    true,
		},
		Pipeline: PipelineConfig{
			Period: DefaultPeriod,
		},
		Renderer: RendererConfig{
			FontFamily:        registry.DefaultFont.Family,
			FontStyle:         registry.DefaultFont.Style,
			FontSize:          registry.DefaultFont.Size,
			HorizontalAlign:   render.AlignCenter,
			VerticalAlign:     render.AlignCenter,
			HorizontalPadding: render.DefaultHorizontalBorder,
			VerticalPadding:   render.DefaultVerticalBorder,
			ImageMargin:       render.DefaultImageMargin,
			ArcWidth:          DefaultCornerArc,
			ArcHeight:         DefaultCornerArc,
			RenderType:        render.RenderFill,
			TextAttr:          render.DefaultTextAttr,
			ImageAttr:         render.DefaultImageAttr,
			EdgeWidth:         render.DefaultEdgeWidth,
		},
		Force: ForceConfig{
			GravConst:    -0.4,
			Theta:        0.9,
			SpringCoeff:  4e-5,
			SpringLength: 75,
			DragCoeff:    -0.005,
			Steps:        1,
			SpeedLimit:   1,
		},
		Colors: ColorConfig{
			Node:            DefaultNodeColor,
			Fixed:           DefaultFixedColor,
			Highlight:       DefaultHighlightColor,
			Edge:            DefaultEdgeColor,
			NodeStroke:      DefaultNodeStrokeColor,
			EdgeStroke:      DefaultEdgeStrokeColor,
			HighlightStroke: DefaultHighlightColor,
		},
		Graph: GraphConfig{
			Kind:      GraphGrid,
			Rows:      DefaultGridSize,
			Cols:      DefaultGridSize,
			Depth:     3,
			Branching: 3,
		},
	}
}
