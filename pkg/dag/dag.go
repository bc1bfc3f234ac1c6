package dag

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/techtree/pkg/research"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the source node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the target node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfLoop is returned by [DAG.AddEdge] for an edge from a node to itself.
	ErrSelfLoop = errors.New("edge endpoints must differ")

	// ErrLayerOrder is returned by [DAG.Validate] when an edge does not go
	// strictly forward in layer order.
	ErrLayerOrder = errors.New("edge must point to a later layer")

	// ErrNonAdjacentLayers is returned by [DAG.ValidateNormalized] when an
	// edge spans more than one layer.
	ErrNonAdjacentLayers = errors.New("edges must connect adjacent layers")
)

// NodeKind tags the payload carried by a [Node].
type NodeKind int

const (
	// KindResearch wraps exactly one research record.
	KindResearch NodeKind = iota
	// KindDummy is a routing waypoint on a normalized long edge.
	KindDummy
)

func (k NodeKind) String() string {
	switch k {
	case KindResearch:
		return "research"
	case KindDummy:
		return "dummy"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is a vertex of the layout graph. Shared positional state lives on the
// node; the kind-specific payload is Record for research nodes and
// Master/Target for dummies.
type Node struct {
	ID   string
	Kind NodeKind

	// X is the layer index, 1-based once layering has run.
	X int
	// Yf is the row position. Rows are integral after crossing
	// minimization; Yf carries interpolated values before that.
	Yf float64

	// Level is the effective tech level. It starts as the record's level
	// and may be raised by repair; dummies inherit the level of their
	// chain's source node.
	Level research.TechLevel

	// Record is the wrapped definition. Nil for dummies.
	Record *research.Record

	// Master and Target are the research endpoints of the long edge a
	// dummy routes. Empty for research nodes.
	Master string
	Target string

	in, out []*Edge
}

// Y returns the integer row derived from Yf.
func (n *Node) Y() int { return int(math.Round(n.Yf)) }

// SetY places the node on an integer row.
func (n *Node) SetY(y int) { n.Yf = float64(y) }

// IsDummy reports whether n is a routing waypoint.
func (n *Node) IsDummy() bool { return n.Kind == KindDummy }

// Source returns the owning source of the wrapped record, or "" for dummies.
func (n *Node) Source() string {
	if n.Record == nil {
		return ""
	}
	return n.Record.Source
}

// Label returns a display label.
func (n *Node) Label() string {
	if n.Record != nil {
		return n.Record.DisplayLabel()
	}
	return n.ID
}

// InEdges returns the edges ending at n.
func (n *Node) InEdges() []*Edge { return n.in }

// OutEdges returns the edges starting at n.
func (n *Node) OutEdges() []*Edge { return n.out }

// InNodes returns the source endpoints of InEdges.
func (n *Node) InNodes() []*Node {
	out := make([]*Node, len(n.in))
	for i, e := range n.in {
		out[i] = e.In
	}
	return out
}

// OutNodes returns the target endpoints of OutEdges.
func (n *Node) OutNodes() []*Node {
	out := make([]*Node, len(n.out))
	for i, e := range n.out {
		out[i] = e.Out
	}
	return out
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%d, %g)", n.ID, n.X, n.Yf)
}

// Edge is a directed connection from In to Out.
type Edge struct {
	In  *Node
	Out *Node

	// DrawOrder is a stable rendering key. Layout never reads it.
	DrawOrder int

	seq int
}

// Span is the layer distance covered by the edge.
func (e *Edge) Span() int { return e.Out.X - e.In.X }

// Length is the vertical distance covered by the edge.
func (e *Edge) Length() float64 { return math.Abs(e.Out.Yf - e.In.Yf) }

// IsRouting reports whether either endpoint is a dummy.
func (e *Edge) IsRouting() bool { return e.In.IsDummy() || e.Out.IsDummy() }

func (e *Edge) String() string { return e.In.ID + " -> " + e.Out.ID }

// DAG owns the node and edge collections of one layout run. Nodes keep
// insertion order so every traversal is deterministic.
//
// DAG is not safe for concurrent use.
type DAG struct {
	nodes []*Node
	byID  map[string]*Node
	edges []*Edge
	seq   int
}

// New creates an empty graph.
func New() *DAG {
	return &DAG{byID: make(map[string]*Node)}
}

// AddNode adds n to the graph.
func (d *DAG) AddNode(n *Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, ok := d.byID[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	d.byID[n.ID] = n
	d.nodes = append(d.nodes, n)
	return nil
}

// AddEdge connects the nodes with the given IDs and registers the edge on
// both endpoints.
func (d *DAG) AddEdge(from, to string) (*Edge, error) {
	src, ok := d.byID[from]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSourceNode, from)
	}
	dst, ok := d.byID[to]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTargetNode, to)
	}
	if src == dst {
		return nil, fmt.Errorf("%w: %s", ErrSelfLoop, from)
	}
	return d.connect(src, dst), nil
}

func (d *DAG) connect(src, dst *Node) *Edge {
	e := &Edge{In: src, Out: dst, DrawOrder: d.seq, seq: d.seq}
	d.seq++
	src.out = append(src.out, e)
	dst.in = append(dst.in, e)
	d.edges = append(d.edges, e)
	return e
}

// RemoveEdge detaches e from both endpoints and the edge list.
func (d *DAG) RemoveEdge(e *Edge) {
	e.In.out = slices.DeleteFunc(e.In.out, func(x *Edge) bool { return x == e })
	e.Out.in = slices.DeleteFunc(e.Out.in, func(x *Edge) bool { return x == e })
	d.edges = slices.DeleteFunc(d.edges, func(x *Edge) bool { return x == e })
}

// RemoveNode removes n and every incident edge.
func (d *DAG) RemoveNode(n *Node) {
	for _, e := range slices.Clone(n.in) {
		d.RemoveEdge(e)
	}
	for _, e := range slices.Clone(n.out) {
		d.RemoveEdge(e)
	}
	delete(d.byID, n.ID)
	d.nodes = slices.DeleteFunc(d.nodes, func(x *Node) bool { return x == n })
}

// Nodes returns all nodes in insertion order.
func (d *DAG) Nodes() []*Node { return d.nodes }

// Edges returns all edges in insertion order.
func (d *DAG) Edges() []*Edge { return d.edges }

// NodeCount returns the number of nodes.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Node returns the node with the given ID.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.byID[id]
	return n, ok
}

// NodeFor returns the research node wrapping r, if r produced one.
func (d *DAG) NodeFor(r *research.Record) (*Node, bool) {
	if r == nil {
		return nil, false
	}
	n, ok := d.byID[r.ID]
	if !ok || n.Record != r {
		return nil, false
	}
	return n, true
}

// FindEdge returns the edge from -> to, if any.
func (d *DAG) FindEdge(from, to string) (*Edge, bool) {
	src, ok := d.byID[from]
	if !ok {
		return nil, false
	}
	for _, e := range src.out {
		if e.Out.ID == to {
			return e, true
		}
	}
	return nil, false
}

// Children returns the IDs of the targets of id's outgoing edges.
func (d *DAG) Children(id string) []string {
	n, ok := d.byID[id]
	if !ok {
		return nil
	}
	return nodeIDs(n.OutNodes())
}

// Parents returns the IDs of the sources of id's incoming edges.
func (d *DAG) Parents(id string) []string {
	n, ok := d.byID[id]
	if !ok {
		return nil
	}
	return nodeIDs(n.InNodes())
}

// ResearchNodes returns the nodes of kind [KindResearch].
func (d *DAG) ResearchNodes() []*Node {
	return slices.DeleteFunc(slices.Clone(d.nodes), (*Node).IsDummy)
}

// DummyCount returns the number of dummy nodes.
func (d *DAG) DummyCount() int {
	c := 0
	for _, n := range d.nodes {
		if n.IsDummy() {
			c++
		}
	}
	return c
}

// MaxLayer returns the highest X.
func (d *DAG) MaxLayer() int {
	m := 0
	for _, n := range d.nodes {
		m = max(m, n.X)
	}
	return m
}

// Layers groups nodes by X. Index i holds layer i+1 in insertion order.
func (d *DAG) Layers() [][]*Node {
	layers := make([][]*Node, d.MaxLayer())
	for _, n := range d.nodes {
		if n.X >= 1 {
			layers[n.X-1] = append(layers[n.X-1], n)
		}
	}
	return layers
}

// AssignDrawOrder numbers edges so that research-to-research edges come
// first and routing edges (with a dummy endpoint) after them, each group in
// creation order.
func (d *DAG) AssignDrawOrder() {
	ordered := slices.Clone(d.edges)
	slices.SortStableFunc(ordered, func(a, b *Edge) int {
		if a.IsRouting() != b.IsRouting() {
			if a.IsRouting() {
				return 1
			}
			return -1
		}
		return a.seq - b.seq
	})
	for i, e := range ordered {
		e.DrawOrder = i
	}
}

// Validate checks that every edge points strictly forward in layer order.
func (d *DAG) Validate() error {
	var errs []string
	for _, e := range d.edges {
		if e.In.X >= e.Out.X {
			errs = append(errs, fmt.Sprintf("%s (%d -> %d)", e, e.In.X, e.Out.X))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrLayerOrder, strings.Join(errs, ", "))
	}
	return nil
}

// ValidateNormalized checks that every edge has span 1.
func (d *DAG) ValidateNormalized() error {
	if err := d.Validate(); err != nil {
		return err
	}
	for _, e := range d.edges {
		if e.Span() != 1 {
			return fmt.Errorf("%w: %s spans %d", ErrNonAdjacentLayers, e, e.Span())
		}
	}
	return nil
}

func nodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
