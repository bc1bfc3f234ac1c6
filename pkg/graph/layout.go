package graph

import (
	"math"
	"slices"
	"time"

	"github.com/tidwall/btree"

	"github.com/matzehuels/techtree/pkg/builder"
	"github.com/matzehuels/techtree/pkg/dag"
	"github.com/matzehuels/techtree/pkg/layout"
	"github.com/matzehuels/techtree/pkg/research"
)

// =============================================================================
// Layout - Published Snapshot
// =============================================================================

// Layout is an immutable snapshot of a finished layout run.
type Layout struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`

	// Width is the number of layers; Height is the last row plus one.
	Width  int `json:"width"`
	Height int `json:"height"`

	Nodes  []Node   `json:"nodes"`
	Edges  []Edge   `json:"edges"`
	Bounds []Bounds `json:"bounds,omitempty"`

	Stats  layout.Stats    `json:"stats"`
	Report *builder.Report `json:"report,omitempty"`

	idx *index
}

// Node is a positioned node.
type Node struct {
	ID       string             `json:"id"`
	Label    string             `json:"label,omitempty"`
	X        int                `json:"x"`
	Y        int                `json:"y"`
	Yf       float64            `json:"yf"`
	Level    research.TechLevel `json:"level"`
	Source   string             `json:"source,omitempty"`
	Finished bool               `json:"finished,omitempty"`

	// Dummy marks a routing waypoint of the long edge Master -> Target.
	Dummy  bool   `json:"dummy,omitempty"`
	Master string `json:"master,omitempty"`
	Target string `json:"target,omitempty"`
}

// Edge connects nodes on adjacent layers.
type Edge struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Length    float64 `json:"length"`
	DrawOrder int     `json:"draw_order"`
}

// Bounds is the inclusive layer span of one tech level.
type Bounds struct {
	Level research.TechLevel `json:"level"`
	Min   int                `json:"min"`
	Max   int                `json:"max"`
}

// FromResult captures a finished layout run. report may be nil.
func FromResult(res *layout.Result, report *builder.Report, runID string) *Layout {
	g := res.Graph
	l := &Layout{
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
		Width:     res.Width,
		Height:    res.Height,
		Nodes:     make([]Node, 0, g.NodeCount()),
		Edges:     make([]Edge, 0, g.EdgeCount()),
		Stats:     res.Stats,
		Report:    report,
	}
	for _, n := range g.Nodes() {
		l.Nodes = append(l.Nodes, fromNode(n))
	}
	for _, e := range g.Edges() {
		l.Edges = append(l.Edges, Edge{
			From:      e.In.ID,
			To:        e.Out.ID,
			Length:    e.Length(),
			DrawOrder: e.DrawOrder,
		})
	}
	slices.SortStableFunc(l.Edges, func(a, b Edge) int { return a.DrawOrder - b.DrawOrder })
	for _, b := range res.Bounds {
		l.Bounds = append(l.Bounds, Bounds{Level: b.Level, Min: b.Min, Max: b.Max})
	}
	l.idx = buildIndex(l)
	return l
}

func fromNode(n *dag.Node) Node {
	out := Node{
		ID:     n.ID,
		X:      n.X,
		Y:      n.Y(),
		Yf:     n.Yf,
		Level:  n.Level,
		Source: n.Source(),
		Dummy:  n.IsDummy(),
		Master: n.Master,
		Target: n.Target,
	}
	if n.Record != nil {
		out.Label = n.Record.DisplayLabel()
		out.Finished = n.Record.Finished
	}
	return out
}

// =============================================================================
// Queries
// =============================================================================

type index struct {
	byID    map[string]int
	parents map[string][]string
	child   map[string][]string
	cells   *btree.BTreeG[cell] // ordered by layer, then row
}

// cell is a grid position and the index of the node on it.
type cell struct {
	x, y int
	node int
}

func cellLess(a, b cell) bool {
	if a.x != b.x {
		return a.x < b.x
	}
	return a.y < b.y
}

func buildIndex(l *Layout) *index {
	idx := &index{
		byID:    make(map[string]int, len(l.Nodes)),
		parents: make(map[string][]string),
		child:   make(map[string][]string),
		cells:   btree.NewBTreeG[cell](cellLess),
	}
	for i, n := range l.Nodes {
		idx.byID[n.ID] = i
		idx.cells.Set(cell{x: n.X, y: n.Y, node: i})
	}
	for _, e := range l.Edges {
		idx.parents[e.To] = append(idx.parents[e.To], e.From)
		idx.child[e.From] = append(idx.child[e.From], e.To)
	}
	return idx
}

func (l *Layout) index() *index {
	if l.idx == nil {
		l.idx = buildIndex(l)
	}
	return l.idx
}

// Node returns the node with the given ID.
func (l *Layout) Node(id string) (Node, bool) {
	i, ok := l.index().byID[id]
	if !ok {
		return Node{}, false
	}
	return l.Nodes[i], true
}

// ResearchNodes returns the non-dummy nodes.
func (l *Layout) ResearchNodes() []Node {
	out := make([]Node, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		if !n.Dummy {
			out = append(out, n)
		}
	}
	return out
}

// NodeAt returns the node at layer x and row y. When a decoded layout
// places two nodes on one cell, the later one wins.
func (l *Layout) NodeAt(x, y int) (Node, bool) {
	c, ok := l.index().cells.Get(cell{x: x, y: y})
	if !ok {
		return Node{}, false
	}
	return l.Nodes[c.node], true
}

// Layer returns the nodes of layer x ordered by row.
func (l *Layout) Layer(x int) []Node {
	var out []Node
	l.index().cells.Ascend(cell{x: x, y: math.MinInt}, func(c cell) bool {
		if c.x != x {
			return false
		}
		out = append(out, l.Nodes[c.node])
		return true
	})
	return out
}

// Ancestors returns the sorted IDs of every research node that id depends
// on, directly or transitively.
func (l *Layout) Ancestors(id string) []string {
	return l.walk(id, l.index().parents)
}

// Descendants returns the sorted IDs of every research node that depends on
// id, directly or transitively.
func (l *Layout) Descendants(id string) []string {
	return l.walk(id, l.index().child)
}

// MissingPrerequisites returns the sorted IDs of the unfinished ancestors of
// id.
func (l *Layout) MissingPrerequisites(id string) []string {
	var out []string
	for _, a := range l.Ancestors(id) {
		if n, ok := l.Node(a); ok && !n.Finished {
			out = append(out, a)
		}
	}
	return out
}

func (l *Layout) walk(id string, next map[string][]string) []string {
	idx := l.index()
	if _, ok := idx.byID[id]; !ok {
		return nil
	}
	seen := map[string]bool{id: true}
	stack := slices.Clone(next[id])
	var out []string
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if !l.Nodes[idx.byID[cur]].Dummy {
			out = append(out, cur)
		}
		stack = append(stack, next[cur]...)
	}
	slices.Sort(out)
	return out
}
