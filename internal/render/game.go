//go:build !noebiten

package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/opd-ai/go-forceviz/internal/geom"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

// ErrGameTerminated is returned when the game loop is terminated via context cancellation.
var ErrGameTerminated = errors.New("game terminated")

// zoomStep is the scale change per wheel notch.
const zoomStep = 1.1

var fpsFont = registry.Font{Family: "SansSerif", Style: registry.FontStyleRegular, Size: 14}

// pointerInput is one frame of pointer state in screen coordinates.
type pointerInput struct {
	pos          geom.Point
	pressed      bool // primary button held
	justPressed  bool
	justReleased bool
	panPressed   bool // secondary button held
	wheel        float64
}

// Display is the interactive window. It implements ebiten.Game, draws the
// registry under its read lock and turns pointer input into registry
// mutations: hovering a node pins it and highlights its neighbours,
// dragging moves it, dragging the background pans and the wheel zooms.
type Display struct {
	reg     *registry.Registry
	factory *Factory
	surface *EbitenSurface
	metrics *FrameMetrics

	mu      sync.RWMutex
	config  Config
	view    View
	ctx     context.Context
	running bool

	repaints  atomic.Uint64
	drawnGen  uint64
	viewDirty bool
	lastDraw  time.Time

	hover     *registry.Item
	drag      *registry.Item
	panning   bool
	lastPos   geom.Point
}

// NewDisplay creates a display for reg drawn through factory.
func NewDisplay(config Config, reg *registry.Registry, factory *Factory, fonts *FontManager) *Display {
	return &Display{
		reg:       reg,
		factory:   factory,
		surface:   NewEbitenSurface(fonts),
		metrics:   NewFrameMetrics(time.Second),
		config:    config,
		view:      CenteredView(config.Width, config.Height),
		viewDirty: true,
	}
}

// SetContext sets a context for the game loop. When the context is cancelled,
// the game loop will terminate gracefully.
func (d *Display) SetContext(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctx = ctx
}

// Repaint tells the display that a new tick-complete state is ready. It is
// safe to call from any goroutine.
func (d *Display) Repaint() {
	d.repaints.Add(1)
}

// Metrics returns the frame timing of the window.
func (d *Display) Metrics() *FrameMetrics {
	return d.metrics
}

// View returns the current pan and zoom.
func (d *Display) View() View {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.view
}

// SetView replaces the current pan and zoom.
func (d *Display) SetView(v View) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.view = v
	d.viewDirty = true
}

// Config returns the current configuration.
func (d *Display) Config() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// SetConfig updates the configuration in place. Size changes apply on the
// next layout.
func (d *Display) SetConfig(config Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config = config
	d.viewDirty = true
}

// Update implements ebiten.Game.Update.
func (d *Display) Update() error {
	d.mu.RLock()
	ctx := d.ctx
	d.mu.RUnlock()
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ErrGameTerminated
		default:
		}
	}

	x, y := ebiten.CursorPosition()
	_, wy := ebiten.Wheel()
	d.handlePointer(pointerInput{
		pos:          geom.Pt(float64(x), float64(y)),
		pressed:      ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		justPressed:  inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		justReleased: inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft),
		panPressed:   ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight),
		wheel:        wy,
	})
	return nil
}

// mutate applies m at the next pipeline tick, or right away when no run
// owns the registry.
func (d *Display) mutate(m registry.Mutation) {
	if d.reg.Owner() != nil {
		d.reg.Enqueue(m)
		return
	}
	_ = d.reg.Write(func() error {
		m(d.reg)
		return nil
	})
	d.Repaint()
}

func (d *Display) handlePointer(in pointerInput) {
	d.mu.Lock()
	if in.wheel != 0 {
		d.view = d.view.ZoomAbout(in.pos, math.Pow(zoomStep, in.wheel))
		d.viewDirty = true
	}
	if d.panning {
		if in.pressed || in.panPressed {
			d.view.Pan = d.view.Pan.Add(in.pos.Sub(d.lastPos))
			d.viewDirty = true
		} else {
			d.panning = false
		}
	}
	view := d.view
	d.mu.Unlock()
	defer func() { d.lastPos = in.pos }()

	if d.panning {
		return
	}
	p := view.ToItem(in.pos)

	if d.drag != nil {
		it := d.drag
		if in.pressed {
			d.mutate(func(*registry.Registry) { it.SetLocation(p.X, p.Y) })
			return
		}
		// Releasing lets the layout take the node again, even under the
		// pointer. It is pinned next time the pointer enters it.
		d.drag = nil
		d.mutate(func(*registry.Registry) { it.SetFixed(false) })
	}

	var hit *registry.Item
	d.reg.Read(func() {
		hit = ItemAt(p, d.reg, d.factory.Resolve())
	})

	if hit != d.hover {
		if prev := d.hover; prev != nil {
			d.mutate(func(r *registry.Registry) {
				prev.SetFixed(false)
				setNeighborhoodHighlight(r, prev, false)
			})
		}
		if hit != nil {
			d.mutate(func(r *registry.Registry) {
				hit.SetFixed(true)
				setNeighborhoodHighlight(r, hit, true)
			})
		}
		d.hover = hit
	}

	switch {
	case in.justPressed && hit != nil:
		d.drag = hit
	case (in.justPressed && hit == nil) || (in.panPressed && hit == nil):
		d.mu.Lock()
		d.panning = true
		d.mu.Unlock()
	}
}

// setNeighborhoodHighlight flags the edges of n and the nodes at their
// other ends.
func setNeighborhoodHighlight(r *registry.Registry, n *registry.Item, on bool) {
	for _, e := range r.EdgesOf(n) {
		e.SetHighlighted(on)
	}
	for _, m := range r.Neighbors(n) {
		m.SetHighlighted(on)
	}
}

// Draw implements ebiten.Game.Draw. The screen is kept between frames and
// only redrawn after a repaint or a view change.
func (d *Display) Draw(screen *ebiten.Image) {
	gen := d.repaints.Load()
	d.mu.Lock()
	view, cfg, dirty := d.view, d.config, d.viewDirty
	d.viewDirty = false
	d.mu.Unlock()
	if gen == d.drawnGen && !dirty {
		return
	}
	d.drawnGen = gen

	start := time.Now()
	screen.Fill(cfg.BackgroundColor)
	d.surface.Begin(screen, view)
	d.reg.Read(func() {
		DrawItems(d.surface, d.reg, d.factory.Resolve())
	})

	if cfg.ShowFPS {
		d.surface.Begin(screen, View{Zoom: 1})
		d.surface.DrawText(fmt.Sprintf("%.1f fps", d.metrics.FPS()), fpsFont, 5, 15, color.Black)
	}
	if !d.lastDraw.IsZero() {
		d.metrics.RecordFrame(start.Sub(d.lastDraw))
	}
	d.lastDraw = start
}

// Layout implements ebiten.Game.Layout.
// It returns the game's logical screen size.
func (d *Display) Layout(outsideWidth, outsideHeight int) (int, int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config.Width, d.config.Height
}

// Run starts the Ebiten game loop.
// This function blocks until the window is closed.
func (d *Display) Run() error {
	cfg := d.Config()
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetScreenClearedEveryFrame(false)

	d.mu.Lock()
	d.running = true
	d.mu.Unlock()

	err := ebiten.RunGame(d)

	d.mu.Lock()
	d.running = false
	d.mu.Unlock()
	d.surface.Release()

	if errors.Is(err, ErrGameTerminated) {
		return nil
	}
	return err
}

// IsRunning returns whether the game loop is currently running.
func (d *Display) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}
