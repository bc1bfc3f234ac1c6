package dag

import (
	"cmp"
	"slices"
)

// Compare is the tie-breaker that makes every node ordering total:
// research before dummy, then effective tech level, then owning source,
// then ID.
func Compare(a, b *Node) int {
	if a.Kind != b.Kind {
		return cmp.Compare(a.Kind, b.Kind)
	}
	if c := cmp.Compare(a.Level, b.Level); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Source(), b.Source()); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// CompareRows orders nodes by row position, falling back to [Compare].
func CompareRows(a, b *Node) int {
	if c := cmp.Compare(a.Yf, b.Yf); c != 0 {
		return c
	}
	return Compare(a, b)
}

// SortByRow sorts nodes by row in place.
func SortByRow(nodes []*Node) {
	slices.SortStableFunc(nodes, CompareRows)
}
