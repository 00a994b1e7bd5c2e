package registry

import (
	"fmt"
	"strconv"
)

// DefaultSpacing is the distance between neighbouring nodes placed by the
// graph builders.
const DefaultSpacing = 30.0

// Grid adds a rows x cols lattice of nodes connected to their right and
// lower neighbours, centred on the origin. Nodes are labelled with their
// index. It returns the created nodes in row-major order.
func Grid(r *Registry, rows, cols int) ([]*Item, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", rows, cols)
	}

	nodes := make([]*Item, 0, rows*cols)
	x0 := -float64(cols-1) * DefaultSpacing / 2
	y0 := -float64(rows-1) * DefaultSpacing / 2
	for i := 0; i < rows*cols; i++ {
		n := r.AddNode(strconv.Itoa(i))
		n.SetLocation(x0+float64(i%cols)*DefaultSpacing, y0+float64(i/cols)*DefaultSpacing)
		nodes = append(nodes, n)
	}

	for i := 0; i < rows*cols; i++ {
		row, col := i/cols, i%cols
		if col < cols-1 {
			if _, err := r.AddEdge(nodes[i], nodes[i+1]); err != nil {
				return nil, err
			}
		}
		if row < rows-1 {
			if _, err := r.AddEdge(nodes[i], nodes[i+cols]); err != nil {
				return nil, err
			}
		}
	}
	return nodes, nil
}

// Tree adds a balanced tree with the given depth and branching factor.
// Depth 0 is a single root. Children fan out below their parent.
func Tree(r *Registry, depth, branching int) ([]*Item, error) {
	if depth < 0 || branching <= 0 {
		return nil, fmt.Errorf("invalid tree shape depth=%d branching=%d", depth, branching)
	}

	root := r.AddNode("0")
	nodes := []*Item{root}
	level := []*Item{root}
	for d := 1; d <= depth; d++ {
		next := make([]*Item, 0, len(level)*branching)
		width := float64(len(level)*branching-1) * DefaultSpacing
		for _, parent := range level {
			for b := 0; b < branching; b++ {
				n := r.AddNode(strconv.Itoa(len(nodes)))
				n.SetLocation(-width/2+float64(len(next))*DefaultSpacing, float64(d)*DefaultSpacing*2)
				if _, err := r.AddEdge(parent, n); err != nil {
					return nil, err
				}
				nodes = append(nodes, n)
				next = append(next, n)
			}
		}
		level = next
	}
	return nodes, nil
}
