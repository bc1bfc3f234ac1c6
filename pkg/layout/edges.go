package layout

import (
	"github.com/matzehuels/techtree/pkg/dag"
)

// improveNodePositions shortens edges without adding crossings: first a
// local pass that pulls single neighbours toward each other, then a global
// pass that moves nodes within the span of their neighbourhood.
func improveNodePositions(u *unit, opts Options) (before, after float64) {
	u.reindex()
	before = u.length()

	s := sweeper{maxIterations: opts.MaxIterations, burnout: opts.Burnout, tolerance: opts.Epsilon}
	score := func() float64 { return u.length() }
	s.run(u, score, func(iteration int) { localEdgeSweep(u, iteration, opts.Epsilon) })
	_, after = s.run(u, score, func(int) { globalEdgeSweep(u, opts.Epsilon) })
	return before, after
}

// localEdgeSweep visits layers forward on even iterations, moving each
// node's predecessors, and backward on odd iterations, moving successors.
// A neighbour is tried on every row between its own and the node's; a
// candidate is kept when the neighbour's layer gains no crossings and the
// edge gets shorter by at least eps.
func localEdgeSweep(u *unit, iteration int, eps float64) {
	n := u.layerCount()
	if iteration%2 == 0 {
		for x := 2; x <= n; x++ {
			for _, node := range u.ordered(x) {
				for _, e := range u.in[node] {
					shortenEdge(u, e, e.In, node, eps)
				}
			}
		}
	} else {
		for x := n - 1; x >= 1; x-- {
			for _, node := range u.ordered(x) {
				for _, e := range u.out[node] {
					shortenEdge(u, e, e.Out, node, eps)
				}
			}
		}
	}
}

// shortenEdge moves neighbour along e toward anchor.
func shortenEdge(u *unit, e *dag.Edge, neighbour, anchor *dag.Node, eps float64) {
	x := neighbour.X
	length := e.Length()

	from, to := neighbour.Y(), anchor.Y()
	step := 1
	if to < from {
		step = -1
	}
	for y := from + step; y != to+step; y += step {
		other := u.occupant(neighbour, y)
		before := u.crossingsTouching(x, neighbour, other)
		undo := u.relocate(neighbour, y)
		if u.crossingsTouching(x, neighbour, other) <= before && length-e.Length() >= eps {
			length = e.Length()
			continue
		}
		undo()
	}
}

// globalEdgeSweep tries every node on every row between the extremes of
// itself and its neighbours, keeping a move when the layer gains no
// crossings and the edges of the moved nodes get shorter by at least eps in
// total. Only those edges are recounted.
func globalEdgeSweep(u *unit, eps float64) {
	for x := 2; x <= u.layerCount(); x++ {
		for _, node := range u.ordered(x) {
			lo, hi := node.Y(), node.Y()
			for _, e := range u.edges(node) {
				other := e.In
				if other == node {
					other = e.Out
				}
				lo = min(lo, other.Y())
				hi = max(hi, other.Y())
			}

			for y := lo; y <= hi; y++ {
				if y == node.Y() {
					continue
				}
				other := u.occupant(node, y)
				crossings := u.crossingsTouching(x, node, other)
				length := u.lengthTouching(node, other)
				undo := u.relocate(node, y)
				if u.crossingsTouching(x, node, other) <= crossings && length-u.lengthTouching(node, other) >= eps {
					continue
				}
				undo()
			}
		}
	}
}
