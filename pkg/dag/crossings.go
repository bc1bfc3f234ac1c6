package dag

import (
	"cmp"
	"slices"
)

// CountCrossings counts pairwise crossings among edges that share the same
// pair of adjacent layers, using a Fenwick tree (binary indexed tree) for
// O(E log E) performance.
//
// Two edges (u1,v1) and (u2,v2) cross if and only if:
//
//	row(u1) < row(u2) AND row(v1) > row(v2)
//
// This is equivalent to counting inversions in the sequence of target rows
// when edges are sorted by source row, then target row. Rows may be sparse;
// they are rank-compressed before counting.
//
// Returns 0 for fewer than two edges.
func CountCrossings(edges []*Edge) int {
	if len(edges) < 2 {
		return 0
	}

	type pair struct{ in, out int }
	pairs := make([]pair, len(edges))
	targets := make([]int, len(edges))
	for i, e := range edges {
		pairs[i] = pair{e.In.Y(), e.Out.Y()}
		targets[i] = pairs[i].out
	}
	slices.SortFunc(pairs, func(a, b pair) int {
		if c := cmp.Compare(a.in, b.in); c != 0 {
			return c
		}
		return cmp.Compare(a.out, b.out)
	})

	slices.Sort(targets)
	targets = slices.Compact(targets)

	fenwick := make([]int, len(targets)+1)
	crossings, total := 0, 0
	for _, p := range pairs {
		rank, _ := slices.BinarySearch(targets, p.out)

		// Query: count edges seen so far with target <= p.out
		lessOrEqual := 0
		for q := rank + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		// Crossings = edges seen so far with target > p.out
		crossings += total - lessOrEqual

		total++
		for idx := rank + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}

// TotalLength sums the lengths of edges.
func TotalLength(edges []*Edge) float64 {
	var sum float64
	for _, e := range edges {
		sum += e.Length()
	}
	return sum
}
