package layout

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/techtree/pkg/dag"
)

// singletons returns the first-layer research nodes without successors,
// sorted by tech level and then the tie-breaker.
func singletons(g *dag.DAG) []*dag.Node {
	var out []*dag.Node
	for _, n := range g.Nodes() {
		if n.X == 1 && !n.IsDummy() && len(n.OutEdges()) == 0 {
			out = append(out, n)
		}
	}
	slices.SortStableFunc(out, dag.Compare)
	return out
}

// placeSingletons packs nodes into a grid of columns layers wide, starting
// on row upper. Each tech level starts a new row. It returns the first row
// below the grid.
func placeSingletons(nodes []*dag.Node, columns, upper int) int {
	columns = max(columns, 1)
	for start := 0; start < len(nodes); {
		end := start
		for end < len(nodes) && nodes[end].Level == nodes[start].Level {
			end++
		}
		col, row := 0, upper
		for _, n := range nodes[start:end] {
			n.X = col + 1
			n.SetY(row)
			row += (col + 1) / columns
			col = (col + 1) % columns
		}
		if col == 0 {
			upper = row
		} else {
			upper = row + 1
		}
		start = end
	}
	return upper
}

// group is a set of nodes laid out together before connected-component
// splitting. key is the source name of a split-off group, or "" for the
// shared group.
type group struct {
	key   string
	nodes []*dag.Node
}

// splitLargeGroups separates sources with more than opts.LargeGroupThreshold
// research nodes into their own groups. A dummy joins a split group only
// when both ends of the edge it routes belong to that group. Groups are
// returned smallest first.
func splitLargeGroups(g *dag.DAG, nodes []*dag.Node, opts Options) []group {
	if !opts.PlaceModTechSeparately {
		return []group{{nodes: nodes}}
	}

	counts := make(map[string]int)
	for _, n := range nodes {
		if !n.IsDummy() {
			counts[n.Source()]++
		}
	}
	large := func(src string) bool {
		return src != "" && counts[src] > opts.LargeGroupThreshold && !slices.Contains(opts.SharedSources, src)
	}

	groupOf := func(n *dag.Node) string {
		if !n.IsDummy() {
			if large(n.Source()) {
				return n.Source()
			}
			return ""
		}
		master, ok1 := g.Node(n.Master)
		target, ok2 := g.Node(n.Target)
		if !ok1 || !ok2 || master.Source() != target.Source() || !large(master.Source()) {
			return ""
		}
		return master.Source()
	}

	byKey := make(map[string]*group)
	var groups []*group
	for _, n := range nodes {
		key := groupOf(n)
		gr, ok := byKey[key]
		if !ok {
			gr = &group{key: key}
			byKey[key] = gr
			groups = append(groups, gr)
		}
		gr.nodes = append(gr.nodes, n)
	}

	slices.SortStableFunc(groups, func(a, b *group) int {
		if c := cmp.Compare(len(a.nodes), len(b.nodes)); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})
	out := make([]group, len(groups))
	for i, gr := range groups {
		out[i] = *gr
	}
	return out
}

// connectedComponents splits nodes into weakly connected components over
// the edges between them. Each component keeps the input order; components
// are returned smallest first, ties broken by first appearance.
func connectedComponents(nodes []*dag.Node) [][]*dag.Node {
	if len(nodes) == 0 {
		return nil
	}
	index := make(map[*dag.Node]int64, len(nodes))
	ug := simple.NewUndirectedGraph()
	for i, n := range nodes {
		index[n] = int64(i)
		ug.AddNode(simple.Node(i))
	}
	for _, n := range nodes {
		for _, e := range n.OutEdges() {
			to, ok := index[e.Out]
			if !ok || to == index[n] {
				continue
			}
			ug.SetEdge(ug.NewEdge(simple.Node(index[n]), simple.Node(to)))
		}
	}

	var comps [][]int64
	for _, cc := range topo.ConnectedComponents(ug) {
		ids := make([]int64, len(cc))
		for i, gn := range cc {
			ids[i] = gn.ID()
		}
		slices.Sort(ids)
		comps = append(comps, ids)
	}
	slices.SortFunc(comps, func(a, b []int64) int {
		if c := cmp.Compare(len(a), len(b)); c != 0 {
			return c
		}
		return cmp.Compare(a[0], b[0])
	})

	out := make([][]*dag.Node, len(comps))
	for i, ids := range comps {
		out[i] = make([]*dag.Node, len(ids))
		for j, id := range ids {
			out[i][j] = nodes[id]
		}
	}
	return out
}
