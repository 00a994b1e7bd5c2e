// Package action holds the concrete pipeline stages of a force-directed
// visualization: visibility filters, the force layout, the colour function
// and the stages that hand a finished tick to the screen.
package action

import (
	"context"

	"github.com/opd-ai/go-forceviz/internal/pipeline"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

// Predicate selects items. A nil Predicate selects everything.
type Predicate func(it *registry.Item) bool

// NodeFilter sets the visibility of every node.
type NodeFilter struct {
	Keep Predicate
}

// Name implements pipeline.Stage.
func (NodeFilter) Name() string { return "node-filter" }

// Run implements pipeline.Stage.
func (f NodeFilter) Run(_ context.Context, reg *registry.Registry, _ pipeline.Tick) error {
	for _, n := range reg.Nodes() {
		n.SetVisible(f.Keep == nil || f.Keep(n))
	}
	return nil
}

// EdgeFilter shows an edge only when both of its endpoints are visible. It
// must run after the node filter.
type EdgeFilter struct {
	Keep Predicate
}

// Name implements pipeline.Stage.
func (EdgeFilter) Name() string { return "edge-filter" }

// Run implements pipeline.Stage.
func (f EdgeFilter) Run(_ context.Context, reg *registry.Registry, _ pipeline.Tick) error {
	for _, e := range reg.Edges() {
		visible := e.Source().Visible() && e.Target().Visible()
		if visible && f.Keep != nil {
			visible = f.Keep(e)
		}
		e.SetVisible(visible)
	}
	return nil
}
