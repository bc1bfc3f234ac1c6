package layout

import (
	"github.com/tidwall/btree"

	"github.com/matzehuels/techtree/pkg/dag"
)

// stacker places units below each other layer by layer. bounds[i] is the
// first free row of layer i+1.
type stacker struct {
	bounds []int
}

func newStacker(layerCount, upper int) *stacker {
	s := &stacker{bounds: make([]int, layerCount)}
	for i := range s.bounds {
		s.bounds[i] = upper
	}
	return s
}

// fit shifts u so that in every layer it touches its top row is at or below
// the layer's free row, with the smallest such shift, and then advances the
// free rows past u.
func (s *stacker) fit(u *unit) {
	dy, found := 0, false
	for x := 1; x <= u.layerCount(); x++ {
		top, ok := u.top(x)
		if !ok {
			continue
		}
		if d := s.bounds[x-1] - top; !found || d > dy {
			dy, found = d, true
		}
	}
	if !found {
		return
	}
	u.shift(dy)
	for x := 1; x <= u.layerCount(); x++ {
		if bottom, ok := u.bottom(x); ok {
			s.bounds[x-1] = max(s.bounds[x-1], bottom+1)
		}
	}
}

// removeEmptyRows renumbers the occupied rows consecutively from 1,
// preserving their order. It returns the number of rows removed between
// occupied ones or above the first.
func removeEmptyRows(nodes []*dag.Node) int {
	occupied := btree.NewBTreeG[int](func(a, b int) bool { return a < b })
	for _, n := range nodes {
		occupied.Set(n.Y())
	}
	if occupied.Len() == 0 {
		return 0
	}

	rank := make(map[int]int, occupied.Len())
	last, _ := occupied.Max()
	occupied.Scan(func(row int) bool {
		rank[row] = len(rank) + 1
		return true
	})
	for _, n := range nodes {
		n.SetY(rank[n.Y()])
	}
	return max(last-occupied.Len(), 0)
}
