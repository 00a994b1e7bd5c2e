package forceviz

import (
	"context"

	"github.com/opd-ai/go-forceviz/internal/config"
	"github.com/opd-ai/go-forceviz/internal/render"
)

// frontend is the interactive surface of a windowed run.
type frontend interface {
	// Repaint asks for the next frame to be redrawn.
	Repaint()
	// run blocks until the window is closed or ctx is done.
	run(ctx context.Context) error
	// apply takes over reloaded window settings.
	apply(cfg *config.Config)
}

func windowConfig(cfg *config.Config) render.Config {
	return render.Config{
		Width:           cfg.Window.Width,
		Height:          cfg.Window.Height,
		Title:           cfg.Window.Title,
		BackgroundColor: cfg.Window.Background,
		ShowFPS:         cfg.Window.ShowFPS,
	}
}
