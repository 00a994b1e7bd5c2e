package render

import (
	"sync"

	"github.com/opd-ai/go-forceviz/internal/registry"
)

// Factory maps item kinds to renderers.
type Factory struct {
	mu        sync.RWMutex
	renderers map[registry.Kind]Renderer
	fallback  Renderer
}

// NewFactory creates a factory with the given node and edge renderers.
// Either may be nil.
func NewFactory(node, edge Renderer) *Factory {
	f := &Factory{renderers: make(map[registry.Kind]Renderer)}
	if node != nil {
		f.renderers[registry.KindNode] = node
	}
	if edge != nil {
		f.renderers[registry.KindEdge] = edge
	}
	return f
}

// Register sets the renderer for kind. A nil renderer removes the mapping.
func (f *Factory) Register(kind registry.Kind, r Renderer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r == nil {
		delete(f.renderers, kind)
		return
	}
	f.renderers[kind] = r
}

// SetFallback sets the renderer used for kinds with no mapping.
func (f *Factory) SetFallback(r Renderer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = r
}

// Renderer returns the renderer for kind, or nil if none applies.
func (f *Factory) Renderer(kind registry.Kind) Renderer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if r, ok := f.renderers[kind]; ok {
		return r
	}
	return f.fallback
}

// Resolved is a snapshot of kind to renderer lookups, taken once per frame.
type Resolved struct {
	f     *Factory
	cache map[registry.Kind]Renderer
}

// Resolve returns a per-frame lookup that consults f at most once per kind.
func (f *Factory) Resolve() *Resolved {
	return &Resolved{f: f, cache: make(map[registry.Kind]Renderer, 2)}
}

// Renderer returns the renderer for kind.
func (r *Resolved) Renderer(kind registry.Kind) Renderer {
	if rd, ok := r.cache[kind]; ok {
		return rd
	}
	rd := r.f.Renderer(kind)
	r.cache[kind] = rd
	return rd
}
