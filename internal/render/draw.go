package render

import (
	"github.com/opd-ai/go-forceviz/internal/geom"
	"github.com/opd-ai/go-forceviz/internal/registry"
)

// DrawItems renders every visible item of reg onto s: edges first, then
// nodes, then items of custom kinds. It returns the number of items drawn.
// The caller holds the registry lock.
func DrawItems(s Surface, reg *registry.Registry, rs *Resolved) int {
	n := 0
	draw := func(it *registry.Item) {
		if !it.Visible() {
			return
		}
		if r := rs.Renderer(it.Kind()); r != nil {
			r.Render(s, it)
			n++
		}
	}
	for _, e := range reg.Edges() {
		draw(e)
	}
	for _, node := range reg.Nodes() {
		draw(node)
	}
	for _, it := range reg.Items() {
		if k := it.Kind(); k != registry.KindNode && k != registry.KindEdge {
			draw(it)
		}
	}
	return n
}

// ItemAt returns the topmost visible node under p (item space), or nil.
// Nodes drawn later sit on top. The caller holds the registry lock.
func ItemAt(p geom.Point, reg *registry.Registry, rs *Resolved) *registry.Item {
	nodes := reg.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		it := nodes[i]
		if !it.Visible() {
			continue
		}
		if r := rs.Renderer(it.Kind()); r != nil && r.LocatePoint(p, it) {
			return it
		}
	}
	return nil
}
