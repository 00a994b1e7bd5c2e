package forceviz

import (
	"fmt"
	"image/color"
	"io/fs"
	"log/slog"

	"github.com/opd-ai/go-forceviz/internal/action"
	"github.com/opd-ai/go-forceviz/internal/config"
	"github.com/opd-ai/go-forceviz/internal/force"
	"github.com/opd-ai/go-forceviz/internal/pipeline"
	"github.com/opd-ai/go-forceviz/internal/registry"
	"github.com/opd-ai/go-forceviz/internal/render"
)

// scene holds everything one run simulates and draws.
type scene struct {
	reg     *registry.Registry
	fonts   *render.FontManager
	images  *render.ImageCache
	nodes   *render.TextImageRenderer
	edges   *render.EdgeRenderer
	factory *render.Factory

	sim    *force.Simulator
	nbody  *force.NBodyForce
	spring *force.SpringForce
	drag   *force.DragForce
	layout *action.ForceLayout
	colors *action.ColorFunction

	// canvas and draw are set in headless mode only.
	canvas *render.RasterCanvas
	draw   *action.DrawStage

	pipeline *pipeline.Pipeline
}

// newScene builds the registry, renderers and simulator described by cfg.
// The pipeline is created by attach once the frame target is known.
func newScene(cfg *config.Config, imageFS fs.FS, logger *slog.Logger) (*scene, error) {
	s := &scene{
		reg:   registry.New(),
		fonts: render.NewFontManager(),
	}
	s.fonts.SetLogger(logger)

	opener := render.FileOpener(cfg.Renderer.ImageDir)
	if imageFS != nil {
		opener = render.FSOpener(imageFS)
	}
	s.images = render.NewImageCache(opener, logger)

	s.nodes = render.NewTextImageRenderer(s.fonts, s.images)
	s.edges = render.NewEdgeRenderer()
	s.factory = render.NewFactory(s.nodes, s.edges)

	s.nbody = force.NewNBodyForce(cfg.Force.GravConst, cfg.Force.Theta)
	s.spring = force.NewSpringForce(cfg.Force.SpringCoeff, cfg.Force.SpringLength)
	s.drag = force.NewDragForce(cfg.Force.DragCoeff)
	s.sim = force.NewSimulator(s.nbody, s.spring, s.drag)
	s.layout = action.NewForceLayout(s.sim)
	s.colors = &action.ColorFunction{}

	s.configure(cfg)

	if err := buildGraph(s.reg, cfg.Graph); err != nil {
		return nil, err
	}
	applyFont(s.reg, cfg.Renderer.Font())
	return s, nil
}

// configure applies the tunable settings of cfg. It is used at build time
// and by in-place reloads, which call it inside Registry.Write so that a
// tick never sees half of a change.
func (s *scene) configure(cfg *config.Config) {
	rc := cfg.Renderer
	s.nodes.SetTextAttributeName(rc.TextAttr)
	s.nodes.SetImageAttributeName(rc.ImageAttr)
	s.nodes.SetHorizontalAlignment(rc.HorizontalAlign)
	s.nodes.SetVerticalAlignment(rc.VerticalAlign)
	s.nodes.SetHorizontalPadding(rc.HorizontalPadding)
	s.nodes.SetVerticalPadding(rc.VerticalPadding)
	s.nodes.SetImageMargin(rc.ImageMargin)
	s.nodes.SetRoundedCorner(rc.ArcWidth, rc.ArcHeight)
	s.nodes.SetMaxImageDimensions(rc.MaxImageWidth, rc.MaxImageHeight)
	s.nodes.SetRenderType(rc.RenderType)
	s.edges.SetWidth(rc.EdgeWidth)

	fc := cfg.Force
	s.nbody.GravConst = fc.GravConst
	s.nbody.Theta = fc.Theta
	s.nbody.MaxDistance = fc.MaxDistance
	s.spring.Coeff = fc.SpringCoeff
	s.spring.Length = fc.SpringLength
	s.drag.Coeff = fc.DragCoeff
	s.sim.SpeedLimit = fc.SpeedLimit
	s.layout.Timestep = fc.Timestep
	s.layout.Steps = fc.Steps

	s.colors.Palette = palette(cfg.Colors)

	if s.canvas != nil {
		s.canvas.SetBackground(cfg.Window.Background)
	}
}

// attach creates the pipeline. A nil repainter selects headless mode: every
// tick is drawn into an off-screen canvas of the window size.
func (s *scene) attach(cfg *config.Config, repainter action.Repainter, opts pipeline.Options) error {
	s.pipeline = pipeline.New(s.reg, opts)

	stages := []pipeline.Stage{
		action.NodeFilter{},
		action.EdgeFilter{},
		s.layout,
		s.colors,
	}
	if repainter != nil {
		stages = append(stages, action.RepaintStage{Target: repainter})
	} else {
		s.canvas = render.NewRasterCanvas(cfg.Window.Width, cfg.Window.Height, s.fonts)
		s.canvas.SetBackground(cfg.Window.Background)
		s.draw = action.NewDrawStage(s.canvas, s.factory)
		stages = append(stages, s.draw)
	}
	for _, st := range stages {
		if err := s.pipeline.Add(st); err != nil {
			return err
		}
	}
	return nil
}

// snapshot renders the current registry state into a fresh canvas.
func (s *scene) snapshot(cfg *config.Config) *render.RasterCanvas {
	c := render.NewRasterCanvas(cfg.Window.Width, cfg.Window.Height, s.fonts)
	c.SetBackground(cfg.Window.Background)
	s.reg.Read(func() {
		render.DrawItems(c.Begin(), s.reg, s.factory.Resolve())
	})
	c.Publish()
	return c
}

func buildGraph(reg *registry.Registry, gc config.GraphConfig) error {
	var err error
	switch gc.Kind {
	case config.GraphGrid:
		_, err = registry.Grid(reg, gc.Rows, gc.Cols)
	case config.GraphTree:
		_, err = registry.Tree(reg, gc.Depth, gc.Branching)
	case config.GraphNone:
	default:
		err = fmt.Errorf("unknown graph kind %v", gc.Kind)
	}
	if err != nil {
		return fmt.Errorf("build %s graph: %w", gc.Kind, err)
	}
	return nil
}

func applyFont(reg *registry.Registry, f registry.Font) {
	for _, n := range reg.Nodes() {
		n.SetFont(f)
	}
}

func palette(cc config.ColorConfig) action.Palette {
	return action.Palette{
		NodeFill:        paint(cc.Node),
		FixedFill:       paint(cc.Fixed),
		HighlightFill:   paint(cc.Highlight),
		EdgeFill:        paint(cc.Edge),
		NodeStroke:      paint(cc.NodeStroke),
		EdgeStroke:      paint(cc.EdgeStroke),
		HighlightStroke: paint(cc.HighlightStroke),
	}
}

// paint maps a fully transparent colour to no paint.
func paint(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}
