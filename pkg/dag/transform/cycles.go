package transform

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/techtree/pkg/dag"
)

// ErrCycle is returned when the graph contains a directed cycle.
var ErrCycle = errors.New("graph contains a prerequisite cycle")

// CycleError lists the strongly connected components that prevent a
// topological order. Each component is sorted by node ID.
type CycleError struct {
	Components [][]string
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Components))
	for i, c := range e.Components {
		parts[i] = "[" + strings.Join(c, " ") + "]"
	}
	return fmt.Sprintf("%v: %s", ErrCycle, strings.Join(parts, ", "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// DetectCycles returns a *CycleError when g is not acyclic, and nil
// otherwise. It is the guard that keeps layering and tech-level repair from
// looping on inconsistent input.
func DetectCycles(g *dag.DAG) error {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nil
	}

	index := make(map[*dag.Node]int64, len(nodes))
	dg := simple.NewDirectedGraph()
	for i, n := range nodes {
		index[n] = int64(i)
		dg.AddNode(simple.Node(i))
	}
	for _, e := range g.Edges() {
		from, to := index[e.In], index[e.Out]
		if from == to {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(from), simple.Node(to)))
	}

	_, err := topo.Sort(dg)
	if err == nil {
		return nil
	}
	var unorderable topo.Unorderable
	if !errors.As(err, &unorderable) {
		return fmt.Errorf("%w: %v", ErrCycle, err)
	}

	cerr := &CycleError{}
	for _, comp := range unorderable {
		ids := make([]string, len(comp))
		for i, gn := range comp {
			ids[i] = nodes[gn.ID()].ID
		}
		slices.Sort(ids)
		cerr.Components = append(cerr.Components, ids)
	}
	slices.SortFunc(cerr.Components, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	return cerr
}
