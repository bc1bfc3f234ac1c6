package layout

import (
	"slices"

	"github.com/tidwall/btree"

	"github.com/matzehuels/techtree/pkg/dag"
)

// unit is one independently laid-out partition: the layers of the whole
// graph restricted to the unit's nodes, and the edges with both endpoints
// in the unit. Layer index i holds layer i+1.
type unit struct {
	nodes  []*dag.Node
	layers [][]*dag.Node
	member map[*dag.Node]bool

	in, out  map[*dag.Node][]*dag.Edge
	boundary [][]*dag.Edge // boundary[i] holds edges from layer i+1 to i+2

	rows []*btree.BTreeG[slot]
}

type slot struct {
	row  int
	node *dag.Node
}

func slotLess(a, b slot) bool { return a.row < b.row }

func newUnit(nodes []*dag.Node, layerCount int) *unit {
	u := &unit{
		nodes:    nodes,
		layers:   make([][]*dag.Node, layerCount),
		member:   make(map[*dag.Node]bool, len(nodes)),
		in:       make(map[*dag.Node][]*dag.Edge, len(nodes)),
		out:      make(map[*dag.Node][]*dag.Edge, len(nodes)),
		boundary: make([][]*dag.Edge, max(layerCount-1, 0)),
	}
	for _, n := range nodes {
		u.member[n] = true
	}
	for _, n := range nodes {
		u.layers[n.X-1] = append(u.layers[n.X-1], n)
		for _, e := range n.OutEdges() {
			if !u.member[e.Out] {
				continue
			}
			u.out[n] = append(u.out[n], e)
			u.in[e.Out] = append(u.in[e.Out], e)
			u.boundary[n.X-1] = append(u.boundary[n.X-1], e)
		}
	}
	return u
}

// size is the number of nodes in the unit.
func (u *unit) size() int { return len(u.nodes) }

// layerCount is the number of layers, including empty ones.
func (u *unit) layerCount() int { return len(u.layers) }

// layer returns the nodes of layer x (1-based).
func (u *unit) layer(x int) []*dag.Node { return u.layers[x-1] }

// ordered returns a copy of layer x sorted by row.
func (u *unit) ordered(x int) []*dag.Node {
	nodes := slices.Clone(u.layers[x-1])
	dag.SortByRow(nodes)
	return nodes
}

func (u *unit) inNodes(n *dag.Node) []*dag.Node {
	edges := u.in[n]
	out := make([]*dag.Node, len(edges))
	for i, e := range edges {
		out[i] = e.In
	}
	return out
}

func (u *unit) outNodes(n *dag.Node) []*dag.Node {
	edges := u.out[n]
	out := make([]*dag.Node, len(edges))
	for i, e := range edges {
		out[i] = e.Out
	}
	return out
}

// edges returns every in-unit edge incident to n.
func (u *unit) edges(n *dag.Node) []*dag.Edge {
	return append(slices.Clone(u.in[n]), u.out[n]...)
}

// =============================================================================
// Metrics
// =============================================================================

// crossingsAt counts crossings on both boundaries of layer x.
func (u *unit) crossingsAt(x int) int {
	c := 0
	if x >= 2 {
		c += dag.CountCrossings(u.boundary[x-2])
	}
	if x-1 < len(u.boundary) {
		c += dag.CountCrossings(u.boundary[x-1])
	}
	return c
}

func (u *unit) crossings() int {
	c := 0
	for _, b := range u.boundary {
		c += dag.CountCrossings(b)
	}
	return c
}

// crossingsTouching counts the crossings on the boundaries of layer x in
// which at least one edge is incident to a or b. Both must lie on layer x
// (b may be nil). Moving only a and b changes the crossing count of the
// layer by exactly the change in this number.
func (u *unit) crossingsTouching(x int, a, b *dag.Node) int {
	touched := func(e *dag.Edge) bool {
		return e.In == a || e.Out == a || (b != nil && (e.In == b || e.Out == b))
	}
	c := 0
	if x >= 2 {
		c += crossingsWith(u.boundary[x-2], touched)
	}
	if x-1 < len(u.boundary) {
		c += crossingsWith(u.boundary[x-1], touched)
	}
	return c
}

// crossingsWith counts crossing pairs among edges of one boundary where at
// least one edge is touched. Each pair is counted once.
func crossingsWith(edges []*dag.Edge, touched func(*dag.Edge) bool) int {
	c := 0
	for i, e := range edges {
		if !touched(e) {
			continue
		}
		for j, f := range edges {
			if j == i || (j < i && touched(f)) {
				continue
			}
			if crosses(e, f) {
				c++
			}
		}
	}
	return c
}

// crosses reports whether two edges between the same pair of layers have
// inverted endpoint orders.
func crosses(e, f *dag.Edge) bool {
	return (e.In.Y()-f.In.Y())*(e.Out.Y()-f.Out.Y()) < 0
}

// lengthTouching sums the lengths of the edges incident to a or b.
func (u *unit) lengthTouching(a, b *dag.Node) float64 {
	sum := dag.TotalLength(u.in[a]) + dag.TotalLength(u.out[a])
	if b != nil && b != a {
		sum += dag.TotalLength(u.in[b]) + dag.TotalLength(u.out[b])
	}
	return sum
}

// lengthAt sums the lengths of the edges incident to layer x.
func (u *unit) lengthAt(x int) float64 {
	var sum float64
	for _, n := range u.layers[x-1] {
		sum += dag.TotalLength(u.in[n]) + dag.TotalLength(u.out[n])
	}
	return sum
}

func (u *unit) length() float64 {
	var sum float64
	for _, b := range u.boundary {
		sum += dag.TotalLength(b)
	}
	return sum
}

// =============================================================================
// Positions
// =============================================================================

// positions captures every node's row.
func (u *unit) positions() []float64 {
	ys := make([]float64, len(u.nodes))
	for i, n := range u.nodes {
		ys[i] = n.Yf
	}
	return ys
}

// restore resets rows to a capture taken by positions.
func (u *unit) restore(ys []float64) {
	for i, n := range u.nodes {
		n.Yf = ys[i]
	}
	if u.rows != nil {
		u.reindex()
	}
}

// reindex rebuilds the per-layer row index. Rows must be unique per layer.
func (u *unit) reindex() {
	u.rows = make([]*btree.BTreeG[slot], len(u.layers))
	for i, layer := range u.layers {
		t := btree.NewBTreeG[slot](slotLess)
		for _, n := range layer {
			t.Set(slot{row: n.Y(), node: n})
		}
		u.rows[i] = t
	}
}

// nodeAt returns the node on row y of layer x.
func (u *unit) nodeAt(x, y int) (*dag.Node, bool) {
	s, ok := u.rows[x-1].Get(slot{row: y})
	if !ok {
		return nil, false
	}
	return s.node, true
}

// occupant returns the node on row y of n's layer, or nil.
func (u *unit) occupant(n *dag.Node, y int) *dag.Node {
	other, _ := u.nodeAt(n.X, y)
	return other
}

// relocate puts n on row y, swapping with the node already there. The
// returned func undoes the change.
func (u *unit) relocate(n *dag.Node, y int) (undo func()) {
	from := n.Y()
	if from == y {
		return func() {}
	}
	if other, ok := u.nodeAt(n.X, y); ok {
		u.swap(n, other)
		return func() { u.swap(n, other) }
	}
	u.move(n, y)
	return func() { u.move(n, from) }
}

func (u *unit) move(n *dag.Node, y int) {
	t := u.rows[n.X-1]
	t.Delete(slot{row: n.Y()})
	n.SetY(y)
	t.Set(slot{row: y, node: n})
}

func (u *unit) swap(a, b *dag.Node) {
	ya, yb := a.Y(), b.Y()
	a.SetY(yb)
	b.SetY(ya)
	if u.rows != nil {
		t := u.rows[a.X-1]
		t.Set(slot{row: yb, node: a})
		t.Set(slot{row: ya, node: b})
	}
}

// top and bottom return the extreme rows of layer x. ok is false for an
// empty layer.
func (u *unit) top(x int) (y int, ok bool) {
	layer := u.layers[x-1]
	if len(layer) == 0 {
		return 0, false
	}
	y = layer[0].Y()
	for _, n := range layer[1:] {
		y = min(y, n.Y())
	}
	return y, true
}

func (u *unit) bottom(x int) (y int, ok bool) {
	layer := u.layers[x-1]
	if len(layer) == 0 {
		return 0, false
	}
	y = layer[0].Y()
	for _, n := range layer[1:] {
		y = max(y, n.Y())
	}
	return y, true
}

// shift moves every node of the unit by dy rows.
func (u *unit) shift(dy int) {
	if dy == 0 {
		return
	}
	for _, n := range u.nodes {
		n.Yf += float64(dy)
	}
	if u.rows != nil {
		u.reindex()
	}
}
