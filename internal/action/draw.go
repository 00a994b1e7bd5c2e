package action

import (
	"context"
	"sync/atomic"

	"github.com/opd-ai/go-forceviz/internal/pipeline"
	"github.com/opd-ai/go-forceviz/internal/registry"
	"github.com/opd-ai/go-forceviz/internal/render"
)

// Canvas is a frame target. Begin returns a cleared surface for the next
// frame and Publish makes it visible.
type Canvas interface {
	Begin() render.Surface
	Publish()
}

// DrawStage renders the visible items onto a canvas once per tick.
type DrawStage struct {
	canvas  Canvas
	factory *render.Factory
	drawn   atomic.Int64
}

// NewDrawStage creates a draw stage that resolves renderers through
// factory.
func NewDrawStage(canvas Canvas, factory *render.Factory) *DrawStage {
	return &DrawStage{canvas: canvas, factory: factory}
}

// Name implements pipeline.Stage.
func (*DrawStage) Name() string { return "draw" }

// Run implements pipeline.Stage.
func (d *DrawStage) Run(_ context.Context, reg *registry.Registry, _ pipeline.Tick) error {
	s := d.canvas.Begin()
	n := render.DrawItems(s, reg, d.factory.Resolve())
	d.canvas.Publish()
	d.drawn.Store(int64(n))
	return nil
}

// Drawn returns the number of items drawn by the last tick.
func (d *DrawStage) Drawn() int64 {
	return d.drawn.Load()
}

// Repainter is told when a tick-complete state is ready to be shown.
type Repainter interface {
	Repaint()
}

// RepaintStage notifies a Repainter at the end of every tick.
type RepaintStage struct {
	Target Repainter
}

// Name implements pipeline.Stage.
func (RepaintStage) Name() string { return "repaint" }

// Run implements pipeline.Stage.
func (r RepaintStage) Run(context.Context, *registry.Registry, pipeline.Tick) error {
	if r.Target != nil {
		r.Target.Repaint()
	}
	return nil
}
