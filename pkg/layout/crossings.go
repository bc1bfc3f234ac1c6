package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/techtree/pkg/dag"
)

// initialOrder puts every layer of u on consecutive rows from 0, ordered by
// the incoming row hint and then the tie-breaker.
func initialOrder(u *unit) {
	for x := 1; x <= u.layerCount(); x++ {
		for i, n := range u.ordered(x) {
			n.SetY(i)
		}
	}
}

// minimizeCrossings reorders the layers of u until neither the barycenter
// nor the greedy sweep reduces the total crossing count.
func minimizeCrossings(u *unit, opts Options) (before, after int) {
	before = u.crossings()
	s := sweeper{maxIterations: opts.MaxIterations, burnout: opts.Burnout, tolerance: 0.5}
	_, best := s.run(u, func() float64 { return float64(u.crossings()) }, func(iteration int) {
		barycenterSweep(u, iteration, opts.Epsilon)
		greedySweep(u, iteration)
	})
	return before, int(best)
}

// barycenterSweep reorders each layer by the mean row of its neighbours on
// the side being swept from. Even iterations sweep forward using
// predecessors, odd iterations sweep backward using successors. A sweep
// that raises the total crossing count is rolled back.
func barycenterSweep(u *unit, iteration int, eps float64) {
	saved := u.positions()
	before := u.crossings()

	n := u.layerCount()
	if iteration%2 == 0 {
		for x := 2; x <= n; x++ {
			barycenterLayer(u, x, u.inNodes, eps)
		}
	} else {
		for x := n - 1; x >= 1; x-- {
			barycenterLayer(u, x, u.outNodes, eps)
		}
	}

	if u.crossings() > before {
		u.restore(saved)
	}
}

type barycenter struct {
	node *dag.Node
	mean float64
}

func barycenterLayer(u *unit, x int, neighbours func(*dag.Node) []*dag.Node, eps float64) {
	layer := u.layer(x)
	if len(layer) == 0 {
		return
	}
	centers := make([]barycenter, len(layer))
	for i, n := range layer {
		centers[i] = barycenter{node: n, mean: meanRow(n, neighbours(n))}
	}
	slices.SortStableFunc(centers, func(a, b barycenter) int {
		if c := cmp.Compare(a.mean, b.mean); c != 0 {
			return c
		}
		return dag.CompareRows(a.node, b.node)
	})

	next := 0
	for start := 0; start < len(centers); {
		end := start + 1
		for end < len(centers) && math.Abs(centers[end].mean-centers[start].mean) < eps {
			end++
		}
		size := end - start
		row := max(next, int(centers[start].mean-float64((size-1)/2)))
		for i := start; i < end; i++ {
			centers[i].node.SetY(row)
			row++
		}
		next = row
		start = end
	}
}

// meanRow is the mean row of nodes, or n's own row when there are none.
func meanRow(n *dag.Node, nodes []*dag.Node) float64 {
	if len(nodes) == 0 {
		return n.Yf
	}
	var sum float64
	for _, m := range nodes {
		sum += m.Yf
	}
	return sum / float64(len(nodes))
}

// greedySweep tries every pair swap within each layer and keeps a swap only
// when it lowers the layer's crossing count. Only the edges of the swapped
// pair are recounted. Layers are visited forward on
// even iterations and backward on odd ones.
func greedySweep(u *unit, iteration int) {
	n := u.layerCount()
	if iteration%2 == 0 {
		for x := 1; x <= n; x++ {
			greedyLayer(u, x)
		}
	} else {
		for x := n; x >= 1; x-- {
			greedyLayer(u, x)
		}
	}
}

func greedyLayer(u *unit, x int) {
	nodes := u.ordered(x)
	if len(nodes) < 2 {
		return
	}
	remaining := u.crossingsAt(x)
	for i := 0; i < len(nodes) && remaining > 0; i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i], nodes[j]
			before := u.crossingsTouching(x, a, b)
			u.swap(a, b)
			if after := u.crossingsTouching(x, a, b); after < before {
				remaining -= before - after
				continue
			}
			u.swap(a, b)
		}
	}
}

// applyGridCoordinates snaps every layer onto unique integer rows, keeping
// the current order and never moving a node up.
func applyGridCoordinates(u *unit) {
	for x := 1; x <= u.layerCount(); x++ {
		next := 0
		for _, n := range u.ordered(x) {
			y := max(next, int(math.Round(n.Yf)))
			n.SetY(y)
			next = y + 1
		}
	}
}
