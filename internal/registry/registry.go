package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrRegistryBusy is returned by Claim when another owner holds write access.
var ErrRegistryBusy = errors.New("registry is owned by another run")

// Mutation is a change requested from outside the pipeline, typically by an
// input handler. Mutations are queued and applied by the owning run at the
// start of its next tick.
type Mutation func(r *Registry)

// Registry is the shared item collection.
//
// Exactly one owner (a scheduled pipeline run) may claim write access at a
// time. The owner performs its work inside Write, which holds the registry
// lock exclusively; readers use Read and therefore only observe the state
// left by a completed Write.
type Registry struct {
	mu     sync.RWMutex
	items  []*Item
	nodes  []*Item
	edges  []*Item
	byID   map[int]*Item
	nextID int

	ownerMu sync.Mutex
	owner   any

	queueMu sync.Mutex
	queue   []Mutation
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byID: make(map[int]*Item),
	}
}

// Write runs fn with exclusive access to the registry.
func (r *Registry) Write(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

// Read runs fn with shared access to the registry.
func (r *Registry) Read(fn func()) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn()
}

// Claim makes owner the exclusive writer. Claiming twice with the same owner
// is a no-op.
func (r *Registry) Claim(owner any) error {
	if owner == nil {
		return fmt.Errorf("registry: nil owner")
	}
	r.ownerMu.Lock()
	defer r.ownerMu.Unlock()
	if r.owner != nil && r.owner != owner {
		return ErrRegistryBusy
	}
	r.owner = owner
	return nil
}

// Release gives up write ownership. Releasing with a different owner is
// ignored.
func (r *Registry) Release(owner any) {
	r.ownerMu.Lock()
	defer r.ownerMu.Unlock()
	if r.owner == owner {
		r.owner = nil
	}
}

// Owner returns the current owner, or nil.
func (r *Registry) Owner() any {
	r.ownerMu.Lock()
	defer r.ownerMu.Unlock()
	return r.owner
}

// Enqueue schedules m to run at the start of the next tick. It is safe to
// call from any goroutine.
func (r *Registry) Enqueue(m Mutation) {
	if m == nil {
		return
	}
	r.queueMu.Lock()
	r.queue = append(r.queue, m)
	r.queueMu.Unlock()
}

// Pending returns the number of queued mutations.
func (r *Registry) Pending() int {
	r.queueMu.Lock()
	defer r.queueMu.Unlock()
	return len(r.queue)
}

// ApplyQueued runs all queued mutations in FIFO order and returns how many
// ran. Must be called inside Write.
func (r *Registry) ApplyQueued() int {
	r.queueMu.Lock()
	q := r.queue
	r.queue = nil
	r.queueMu.Unlock()

	for _, m := range q {
		m(r)
	}
	return len(q)
}

// AddNode creates a node with the given label attribute ("label").
func (r *Registry) AddNode(label string) *Item {
	it := r.add(KindNode)
	if label != "" {
		it.attrs["label"] = label
	}
	r.nodes = append(r.nodes, it)
	return it
}

// AddEdge creates an edge between two nodes of this registry.
func (r *Registry) AddEdge(source, target *Item) (*Item, error) {
	if source == nil || target == nil {
		return nil, fmt.Errorf("registry: edge endpoints must not be nil")
	}
	if source.kind != KindNode || target.kind != KindNode {
		return nil, fmt.Errorf("registry: edge endpoints must be nodes")
	}
	if r.byID[source.id] != source || r.byID[target.id] != target {
		return nil, fmt.Errorf("registry: edge endpoints belong to another registry")
	}
	it := r.add(KindEdge)
	it.source, it.target = source, target
	it.stroke = nil
	r.edges = append(r.edges, it)
	return it, nil
}

// AddItem creates an item of a custom kind.
func (r *Registry) AddItem(kind Kind) *Item {
	return r.add(kind)
}

func (r *Registry) add(kind Kind) *Item {
	it := newItem(r.nextID, kind)
	r.nextID++
	r.items = append(r.items, it)
	r.byID[it.id] = it
	return it
}

// Item returns the item with the given id, or nil.
func (r *Registry) Item(id int) *Item {
	return r.byID[id]
}

// Items returns all items in insertion order. The slice must not be modified.
func (r *Registry) Items() []*Item { return r.items }

// Nodes returns all node items in insertion order.
func (r *Registry) Nodes() []*Item { return r.nodes }

// Edges returns all edge items in insertion order.
func (r *Registry) Edges() []*Item { return r.edges }

// Len returns the number of items.
func (r *Registry) Len() int { return len(r.items) }

// EdgesOf returns the edges incident to node n.
func (r *Registry) EdgesOf(n *Item) []*Item {
	var out []*Item
	for _, e := range r.edges {
		if e.source == n || e.target == n {
			out = append(out, e)
		}
	}
	return out
}

// Neighbors returns the nodes adjacent to n.
func (r *Registry) Neighbors(n *Item) []*Item {
	var out []*Item
	for _, e := range r.edges {
		switch n {
		case e.source:
			out = append(out, e.target)
		case e.target:
			out = append(out, e.source)
		}
	}
	return out
}

// Clear removes all items.
func (r *Registry) Clear() {
	r.items, r.nodes, r.edges = nil, nil, nil
	r.byID = make(map[int]*Item)
}

// Checkpoint captures the item list and the mutable state of every item so
// a failed stage can be rolled back.
type Checkpoint struct {
	states []itemState
	items  []*Item
	nodes  []*Item
	edges  []*Item
	nextID int
}

// Checkpoint records the current item state. Must be called inside Write.
func (r *Registry) Checkpoint() *Checkpoint {
	cp := &Checkpoint{
		states: make([]itemState, len(r.items)),
		items:  slices.Clone(r.items),
		nodes:  slices.Clone(r.nodes),
		edges:  slices.Clone(r.edges),
		nextID: r.nextID,
	}
	for i, it := range r.items {
		cp.states[i] = it.save()
	}
	return cp
}

// Restore rolls the registry back to cp, dropping items added after it and
// bringing back items removed since. Must be called inside Write.
func (r *Registry) Restore(cp *Checkpoint) {
	if cp == nil {
		return
	}
	r.items = slices.Clone(cp.items)
	r.nodes = slices.Clone(cp.nodes)
	r.edges = slices.Clone(cp.edges)
	r.nextID = cp.nextID
	r.byID = make(map[int]*Item, len(r.items))
	for _, it := range r.items {
		r.byID[it.id] = it
	}
	for _, s := range cp.states {
		s.restore()
	}
}
