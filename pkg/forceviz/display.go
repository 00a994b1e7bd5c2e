//go:build !noebiten

package forceviz

import (
	"context"

	"github.com/opd-ai/go-forceviz/internal/config"
	"github.com/opd-ai/go-forceviz/internal/render"
)

// window shows a scene in an Ebiten window.
type window struct {
	display *render.Display
}

func newFrontend(cfg *config.Config, sc *scene) (frontend, error) {
	return &window{
		display: render.NewDisplay(windowConfig(cfg), sc.reg, sc.factory, sc.fonts),
	}, nil
}

func (w *window) Repaint() { w.display.Repaint() }

func (w *window) run(ctx context.Context) error {
	w.display.SetContext(ctx)
	return w.display.Run()
}

// apply updates the logical size, background and FPS overlay. The title
// is only set when the window opens.
func (w *window) apply(cfg *config.Config) {
	w.display.SetConfig(windowConfig(cfg))
}
