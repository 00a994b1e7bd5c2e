// Package config provides configuration data structures for go-forceviz.
// Configurations are written either as Lua (a viz.config table) or as TOML;
// both formats share the same section and key names and decode into the
// same Config.
package config

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/opd-ai/go-forceviz/internal/registry"
	"github.com/opd-ai/go-forceviz/internal/render"
)

// Config represents the complete go-forceviz configuration.
type Config struct {
	// Window contains window and canvas settings.
	Window WindowConfig
	// Pipeline contains the scheduling of the visualization pipeline.
	Pipeline PipelineConfig
	// Renderer contains node renderer settings.
	Renderer RendererConfig
	// Force contains the force layout parameters.
	Force ForceConfig
	// Colors contains the palette of the color stage.
	Colors ColorConfig
	// Graph selects the demo graph built at start-up.
	Graph GraphConfig
}

// WindowConfig holds window-related configuration options.
type WindowConfig struct {
	// Width is the window width in pixels.
	Width int
	// Height is the window height in pixels.
	Height int
	// Title is the window title.
	Title string
	// Background clears every frame.
	Background color.RGBA
	// ShowFPS draws the frame rate in the window corner.
	ShowFPS bool
}

// PipelineConfig holds the cadence and bound of the pipeline run.
type PipelineConfig struct {
	// Period is the target time between ticks. A negative period runs
	// ticks back to back.
	Period time.Duration
	// Iterations stops the run after this many ticks. Zero is unbounded.
	Iterations int64
	// Duration stops the run after this much time. Zero is unbounded.
	Duration time.Duration
}

// RendererConfig holds settings of the text and image node renderer.
type RendererConfig struct {
	FontFamily string
	FontStyle  registry.FontStyle
	FontSize   float64

	HorizontalAlign render.Alignment
	VerticalAlign   render.Alignment

	// HorizontalPadding and VerticalPadding are unscaled insets in pixels.
	HorizontalPadding float64
	VerticalPadding   float64
	// ImageMargin is the unscaled gap between image and text.
	ImageMargin float64
	// ArcWidth and ArcHeight round the box corners. Zero is square.
	ArcWidth  float64
	ArcHeight float64

	RenderType render.RenderType

	// TextAttr and ImageAttr name the item attributes holding the label
	// and the image location.
	TextAttr  string
	ImageAttr string
	// ImageDir is the directory relative image locations resolve against.
	ImageDir string
	// MaxImageWidth and MaxImageHeight bound loaded images. Zero disables.
	MaxImageWidth  int
	MaxImageHeight int

	// EdgeWidth is the edge line width in pixels.
	EdgeWidth float64
}

// ForceConfig holds the force simulation parameters.
type ForceConfig struct {
	// GravConst is the n-body constant. Negative values repel.
	GravConst float64
	// Theta is the Barnes-Hut approximation threshold.
	Theta float64
	// MaxDistance ignores n-body pairs further apart. Zero disables.
	MaxDistance float64

	SpringCoeff  float64
	SpringLength float64
	DragCoeff    float64

	// Timestep is the simulated time per step in milliseconds. Zero uses
	// the wall time between ticks.
	Timestep float64
	// Steps is the number of simulation steps per tick.
	Steps int
	// SpeedLimit caps item speed.
	SpeedLimit float64
}

// ColorConfig holds the palette assigned by the color stage.
type ColorConfig struct {
	Node            color.RGBA
	Fixed           color.RGBA
	Highlight       color.RGBA
	Edge            color.RGBA
	NodeStroke      color.RGBA
	EdgeStroke      color.RGBA
	HighlightStroke color.RGBA
}

// GraphKind selects a demo graph builder.
type GraphKind int

const (
	// GraphGrid is a rows x cols lattice.
	GraphGrid GraphKind = iota
	// GraphTree is a balanced tree.
	GraphTree
	// GraphNone starts with an empty registry.
	GraphNone
)

// String returns the string representation of a GraphKind.
func (k GraphKind) String() string {
	switch k {
	case GraphGrid:
		return "grid"
	case GraphTree:
		return "tree"
	case GraphNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseGraphKind parses a graph kind name.
func ParseGraphKind(s string) (GraphKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "grid":
		return GraphGrid, nil
	case "tree":
		return GraphTree, nil
	case "none", "empty":
		return GraphNone, nil
	default:
		return GraphGrid, fmt.Errorf("unknown graph kind: %s", s)
	}
}

// GraphConfig describes the demo graph.
type GraphConfig struct {
	Kind GraphKind
	// Rows and Cols size a grid.
	Rows int
	Cols int
	// Depth and Branching size a tree.
	Depth     int
	Branching int
}

// Font returns the base item font described by the renderer settings.
func (rc RendererConfig) Font() registry.Font {
	return registry.Font{Family: rc.FontFamily, Style: rc.FontStyle, Size: rc.FontSize}
}

// Validate checks the configuration and returns an error listing every
// problem found. Use Validator to also see warnings.
func (c *Config) Validate() error {
	return NewValidator().Validate(c).Error()
}
