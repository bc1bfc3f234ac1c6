package transform

import (
	"slices"

	"github.com/matzehuels/techtree/pkg/dag"
)

// TransitiveReduction removes redundant prerequisite edges and returns the
// number removed.
//
// An edge (u, v) is redundant when u reaches v through another direct
// successor w (u→w and w reaches v). For example, if A→B, B→C and A→C all
// exist, A→C is removed because A reaches C via B. Direct edges then carry
// only immediate precedence.
//
// # Algorithm
//
// TransitiveReduction computes full transitive closure using DFS-based
// reachability over node indices, then removes every edge that is implied
// by a sibling edge. Reachability does not change when an implied edge is
// removed, so the removal order is irrelevant.
//
// # Performance
//
// Time complexity is O(V·E) for the closure plus O(E·D) for the check,
// where D is the maximum out-degree. Space is O(V²) for the reachability
// matrix, which is fine for research trees of a few thousand records.
//
// The graph must be acyclic.
func TransitiveReduction(g *dag.DAG) int {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return 0
	}

	nodeIndex := make(map[*dag.Node]int, len(nodes))
	for i, n := range nodes {
		nodeIndex[n] = i
	}
	adjacency := make([][]int, len(nodes))
	for _, e := range g.Edges() {
		src, dst := nodeIndex[e.In], nodeIndex[e.Out]
		adjacency[src] = append(adjacency[src], dst)
	}

	reachability := computeReachability(adjacency)

	removed := 0
	for _, e := range slices.Clone(g.Edges()) {
		src, dst := nodeIndex[e.In], nodeIndex[e.Out]
		for _, intermediate := range adjacency[src] {
			if intermediate != dst && reachability[intermediate][dst] {
				g.RemoveEdge(e)
				removed++
				break
			}
		}
	}
	return removed
}

func computeReachability(adjacency [][]int) [][]bool {
	n := len(adjacency)
	reachable := make([][]bool, n)
	for i := range reachable {
		reachable[i] = make([]bool, n)
	}

	for source := range reachable {
		stack := []int{source}
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if reachable[source][current] {
				continue
			}
			reachable[source][current] = true
			stack = append(stack, adjacency[current]...)
		}
	}
	return reachable
}
