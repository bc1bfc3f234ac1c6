package layout

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/techtree/pkg/dag"
	"github.com/matzehuels/techtree/pkg/dag/transform"
	"github.com/matzehuels/techtree/pkg/observability"
)

// Result is the outcome of a layout run. Graph carries the final positions:
// X is the layer, Y the row. Rows start at 1 and have no gaps.
type Result struct {
	Graph *dag.DAG

	Width  int
	Height int

	// Bounds holds the layer span of each tech level present, in
	// tech-level layering mode only.
	Bounds []transform.LevelBounds

	Stats Stats
}

// Stats describes a layout run.
type Stats struct {
	Nodes      int           `json:"nodes"`
	Edges      int           `json:"edges"`
	Dummies    int           `json:"dummies"`
	Collapsed  int           `json:"collapsed"`
	Singletons int           `json:"singletons"`
	Groups     int           `json:"groups"`
	Units      int           `json:"units"`
	Crossings  int           `json:"crossings"`
	EdgeLength float64       `json:"edge_length"`
	EmptyRows  int           `json:"empty_rows"`
	Duration   time.Duration `json:"duration"`
}

// Engine lays out a research graph. An Engine holds no per-run state and may
// be reused, but a single graph must not be laid out concurrently.
type Engine struct {
	opts   Options
	logger *log.Logger
}

// New creates an engine. Zero option values fall back to defaults and a nil
// logger discards output.
func New(opts Options, logger *log.Logger) *Engine {
	opts.setDefaults()
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{opts: opts, logger: logger}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Run assigns layers and rows to every node of g. g must be acyclic and is
// modified in place: long edges are replaced by dummy chains.
func (e *Engine) Run(ctx context.Context, g *dag.DAG) (*Result, error) {
	start := time.Now()
	res := &Result{Graph: g}

	var err error
	e.timed(ctx, observability.PhaseLayering, func() { err = e.assignLayers(g, res) })
	if err != nil {
		return nil, err
	}

	e.timed(ctx, observability.PhaseNormalize, func() {
		res.Stats.Dummies = transform.Normalize(g)
		if e.opts.CollapseDummies {
			res.Stats.Collapsed = transform.CollapseDummies(g)
		}
		g.AssignDrawOrder()
		err = g.ValidateNormalized()
	})
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	e.logger.Debug("normalized edges", "dummies", res.Stats.Dummies, "collapsed", res.Stats.Collapsed)

	layerCount := g.MaxLayer()
	upper := 1
	var units []*unit

	e.timed(ctx, observability.PhasePartition, func() {
		rest := g.Nodes()
		if !e.opts.SeparateByTechLevel {
			single := singletons(g)
			if len(single) > 0 {
				upper = placeSingletons(single, layerCount-1, upper)
				rest = without(rest, single)
			}
			res.Stats.Singletons = len(single)
		}
		groups := splitLargeGroups(g, rest, e.opts)
		res.Stats.Groups = len(groups)
		for _, gr := range groups {
			for _, comp := range connectedComponents(gr.nodes) {
				units = append(units, newUnit(comp, layerCount))
			}
		}
		res.Stats.Units = len(units)
	})
	e.logger.Debug("partitioned graph",
		"singletons", res.Stats.Singletons,
		"groups", res.Stats.Groups,
		"units", res.Stats.Units)

	e.timed(ctx, observability.PhaseCrossings, func() {
		for i, u := range units {
			initialOrder(u)
			before, after := minimizeCrossings(u, e.opts)
			applyGridCoordinates(u)
			if before > 0 {
				e.logger.Debug("minimized crossings", "unit", i, "nodes", u.size(), "crossings", fmt.Sprintf("%d -> %d", before, after))
			}
		}
	})

	e.timed(ctx, observability.PhaseEdges, func() {
		for i, u := range units {
			before, after := improveNodePositions(u, e.opts)
			if before > after {
				e.logger.Debug("shortened edges", "unit", i, "length", fmt.Sprintf("%.1f -> %.1f", before, after))
			}
		}
	})

	e.timed(ctx, observability.PhaseStack, func() {
		s := newStacker(layerCount, upper)
		for _, u := range units {
			s.fit(u)
		}
	})

	e.timed(ctx, observability.PhaseCompact, func() {
		res.Stats.EmptyRows = removeEmptyRows(g.Nodes())
	})

	res.Width, res.Height = size(g)
	res.Stats.Nodes = g.NodeCount()
	res.Stats.Edges = g.EdgeCount()
	res.Stats.Crossings = Crossings(g)
	res.Stats.EdgeLength = dag.TotalLength(g.Edges())
	res.Stats.Duration = time.Since(start)

	e.logger.Info("layout complete",
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"dummies", res.Stats.Dummies,
		"units", res.Stats.Units,
		"crossings", res.Stats.Crossings,
		"size", fmt.Sprintf("%dx%d", res.Width, res.Height),
		"duration", res.Stats.Duration)
	return res, nil
}

func (e *Engine) timed(ctx context.Context, phase string, fn func()) {
	t := time.Now()
	fn()
	observability.Layout().OnPhase(ctx, phase, time.Since(t))
}

func (e *Engine) assignLayers(g *dag.DAG, res *Result) error {
	if e.opts.SeparateByTechLevel {
		bounds, err := transform.AssignLayersByTechLevel(g)
		if err != nil {
			return fmt.Errorf("tech-level layering: %w", err)
		}
		res.Bounds = bounds
		for _, b := range bounds {
			e.logger.Debug("tech level bounds", "level", b.Level, "min", b.Min, "max", b.Max)
		}
	} else {
		transform.AssignLayersByDensity(g)
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("layering: %w", err)
	}
	return nil
}

// Crossings counts crossings over every pair of adjacent layers of g.
func Crossings(g *dag.DAG) int {
	boundary := make(map[int][]*dag.Edge)
	for _, e := range g.Edges() {
		boundary[e.In.X] = append(boundary[e.In.X], e)
	}
	total := 0
	for _, edges := range boundary {
		total += dag.CountCrossings(edges)
	}
	return total
}

// size returns the highest layer and the highest row plus one.
func size(g *dag.DAG) (width, height int) {
	if g.NodeCount() == 0 {
		return 0, 0
	}
	maxY := 0.0
	for _, n := range g.Nodes() {
		width = max(width, n.X)
		maxY = max(maxY, n.Yf)
	}
	return width, int(maxY+0.01) + 1
}

func without(nodes, drop []*dag.Node) []*dag.Node {
	skip := make(map[*dag.Node]bool, len(drop))
	for _, n := range drop {
		skip[n] = true
	}
	out := make([]*dag.Node, 0, len(nodes)-len(drop))
	for _, n := range nodes {
		if !skip[n] {
			out = append(out, n)
		}
	}
	return out
}
