package transform

import (
	"slices"
	"strings"

	"github.com/matzehuels/techtree/pkg/dag"
)

// CollapseDummies merges dummies of the same layer that share all parents
// (forward pass, left to right) and then those that share all children
// (backward pass, right to left). It returns the number of dummies removed.
//
// Merging keeps the first dummy in row order and redirects the other
// dummy's remaining edges onto it, so the graph stays normalized.
func CollapseDummies(g *dag.DAG) int {
	removed := 0
	layers := g.Layers()
	for _, layer := range layers {
		removed += mergeDummies(g, layer, (*dag.Node).InNodes)
	}
	layers = g.Layers()
	for i := len(layers) - 1; i >= 0; i-- {
		removed += mergeDummies(g, layers[i], (*dag.Node).OutNodes)
	}
	return removed
}

func mergeDummies(g *dag.DAG, layer []*dag.Node, side func(*dag.Node) []*dag.Node) int {
	var dummies []*dag.Node
	for _, n := range layer {
		if n.IsDummy() {
			dummies = append(dummies, n)
		}
	}
	dag.SortByRow(dummies)

	keep := make(map[string]*dag.Node)
	removed := 0
	for _, d := range dummies {
		key := neighbourKey(side(d))
		first, ok := keep[key]
		if !ok {
			keep[key] = d
			continue
		}
		absorb(g, first, d)
		removed++
	}
	return removed
}

func absorb(g *dag.DAG, into, from *dag.Node) {
	for _, e := range slices.Clone(from.InEdges()) {
		if _, ok := g.FindEdge(e.In.ID, into.ID); !ok {
			mustAddEdge(g, e.In.ID, into.ID)
		}
	}
	for _, e := range slices.Clone(from.OutEdges()) {
		if _, ok := g.FindEdge(into.ID, e.Out.ID); !ok {
			mustAddEdge(g, into.ID, e.Out.ID)
		}
	}
	g.RemoveNode(from)
}

func neighbourKey(nodes []*dag.Node) string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	slices.Sort(ids)
	return strings.Join(ids, "\x00")
}
