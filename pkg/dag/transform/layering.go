package transform

import (
	"cmp"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/techtree/pkg/dag"
	"github.com/matzehuels/techtree/pkg/research"
)

// LevelBounds is the inclusive layer span occupied by one tech level.
type LevelBounds struct {
	Level research.TechLevel `json:"level"`
	Min   int                `json:"min"`
	Max   int                `json:"max"`
}

// AssignLayersByDensity places every node one layer past its deepest
// prerequisite; roots land on layer 1.
//
// The traversal is a memoized depth-first post-order: all prerequisites of
// a node are assigned before the node itself. Existing X values are
// overwritten. The graph must be acyclic; a node reached again while it is
// still being visited contributes nothing, so a cycle cannot recurse forever.
func AssignLayersByDensity(g *dag.DAG) {
	layer := make(map[*dag.Node]int, g.NodeCount())
	visiting := make(map[*dag.Node]bool)

	var visit func(n *dag.Node) int
	visit = func(n *dag.Node) int {
		if l, ok := layer[n]; ok {
			return l
		}
		if visiting[n] {
			return 0
		}
		visiting[n] = true
		l := 1
		for _, p := range n.InNodes() {
			l = max(l, visit(p)+1)
		}
		delete(visiting, n)
		layer[n] = l
		return l
	}

	for _, n := range g.Nodes() {
		n.X = visit(n)
	}
}

// AssignLayersByTechLevel assigns layers tech level by tech level, in
// ascending order. Within a level, nodes are visited in a stabilized
// topological order of the edges whose endpoints share that level, and
// each node is placed at the maximum of the level's left bound and one past
// every prerequisite. The next level starts one past the previous level's
// rightmost layer.
//
// Prerequisites must not have a higher level than their dependents, which
// the builder's tech-level repair guarantees. The returned bounds cover the
// levels that occur in g, ascending.
func AssignLayersByTechLevel(g *dag.DAG) ([]LevelBounds, error) {
	groups := make(map[research.TechLevel][]*dag.Node)
	for _, n := range g.Nodes() {
		n.X = 0
		groups[n.Level] = append(groups[n.Level], n)
	}
	levels := make([]research.TechLevel, 0, len(groups))
	for l := range groups {
		levels = append(levels, l)
	}
	slices.Sort(levels)

	bounds := make([]LevelBounds, 0, len(levels))
	left := 1
	for _, level := range levels {
		order, err := levelOrder(groups[level])
		if err != nil {
			return nil, fmt.Errorf("tech level %s: %w", level, err)
		}

		right := left
		for _, n := range order {
			x := left
			for _, p := range n.InNodes() {
				if p.X == 0 {
					return nil, fmt.Errorf("%s precedes its prerequisite %s in tech level order", n.ID, p.ID)
				}
				x = max(x, p.X+1)
			}
			n.X = x
			right = max(right, x)
		}

		bounds = append(bounds, LevelBounds{Level: level, Min: left, Max: right})
		left = right + 1
	}
	return bounds, nil
}

func levelOrder(nodes []*dag.Node) ([]*dag.Node, error) {
	index := make(map[*dag.Node]int64, len(nodes))
	dg := simple.NewDirectedGraph()
	for i, n := range nodes {
		index[n] = int64(i)
		dg.AddNode(simple.Node(i))
	}
	for _, n := range nodes {
		for _, p := range n.InNodes() {
			if pi, ok := index[p]; ok {
				dg.SetEdge(dg.NewEdge(simple.Node(pi), simple.Node(index[n])))
			}
		}
	}

	sorted, err := topo.SortStabilized(dg, func(ns []graph.Node) {
		slices.SortFunc(ns, func(a, b graph.Node) int { return cmp.Compare(a.ID(), b.ID()) })
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, err)
	}

	out := make([]*dag.Node, len(sorted))
	for i, gn := range sorted {
		out[i] = nodes[gn.ID()]
	}
	return out, nil
}
