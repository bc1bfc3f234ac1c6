package transform

import (
	"fmt"
	"slices"

	"github.com/matzehuels/techtree/pkg/dag"
)

// Normalize replaces every edge spanning more than one layer with a chain
// of dummy nodes, one per intermediate layer, and returns the number of
// dummies created.
//
//	Before: A (layer 1) → D (layer 4)
//	After:  A → A~D@2 → A~D@3 → D
//
// Each dummy's Yf is interpolated linearly between the endpoints' Yf, and
// it inherits the source's tech level. Dummy IDs are unique; a numeric
// suffix is appended on collision.
//
// Normalize panics if the graph rejects a generated node or edge, which
// can only happen if g is corrupted.
func Normalize(g *dag.DAG) int {
	gen := newIDGen(g.Nodes())
	created := 0

	for _, e := range slices.Clone(g.Edges()) {
		span := e.Span()
		if span <= 1 {
			continue
		}

		g.RemoveEdge(e)
		cur := e.In
		step := (e.Out.Yf - e.In.Yf) / float64(span)
		for x := e.In.X + 1; x < e.Out.X; x++ {
			d := &dag.Node{
				ID:     gen.next(e.In.ID, e.Out.ID, x),
				Kind:   dag.KindDummy,
				X:      x,
				Yf:     e.In.Yf + step*float64(x-e.In.X),
				Level:  e.In.Level,
				Master: e.In.ID,
				Target: e.Out.ID,
			}
			mustAddNode(g, d)
			mustAddEdge(g, cur.ID, d.ID)
			cur = d
			created++
		}
		mustAddEdge(g, cur.ID, e.Out.ID)
	}
	return created
}

func mustAddNode(g *dag.DAG, n *dag.Node) {
	if err := g.AddNode(n); err != nil {
		panic(err)
	}
}

func mustAddEdge(g *dag.DAG, from, to string) {
	if _, err := g.AddEdge(from, to); err != nil {
		panic(err)
	}
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(nodes []*dag.Node) *idGen {
	m := make(map[string]struct{}, len(nodes)*2)
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(from, to string, layer int) string {
	prefix := fmt.Sprintf("%s~%s@%d", from, to, layer)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
