package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/techtree/pkg/graph"
)

// Default spacing between layers and rows, in inches.
const (
	DefaultLayerSpacing = 2.4
	DefaultRowSpacing   = 0.8
)

// Options configures drawing.
type Options struct {
	// LayerSpacing and RowSpacing are distances in inches. Zero means the
	// default.
	LayerSpacing float64
	RowSpacing   float64

	// Detailed adds the tech level and grid position to labels.
	Detailed bool

	// Highlight lists research IDs to emphasise, for instance the missing
	// prerequisites of a goal.
	Highlight []string
}

func (o Options) withDefaults() Options {
	if o.LayerSpacing <= 0 {
		o.LayerSpacing = DefaultLayerSpacing
	}
	if o.RowSpacing <= 0 {
		o.RowSpacing = DefaultRowSpacing
	}
	return o
}

// DOT converts a layout to Graphviz DOT with pinned node positions. Layers
// run left to right and rows top to bottom.
func DOT(l *graph.Layout, opts Options) string {
	opts = opts.withDefaults()
	highlight := make(map[string]bool, len(opts.Highlight))
	for _, id := range opts.Highlight {
		highlight[id] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph techtree {\n")
	buf.WriteString("  graph [bgcolor=\"transparent\", splines=line, outputorder=edgesfirst];\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, width=1.8, height=0.45, fixedsize=true];\n")
	buf.WriteString("  edge [arrowsize=0.6, color=\"#555555\"];\n")
	buf.WriteString("\n")

	for _, n := range l.Nodes {
		x := float64(n.X-1) * opts.LayerSpacing
		y := float64(1-n.Y) * opts.RowSpacing
		attrs := []string{fmt.Sprintf("pos=\"%.2f,%.2f!\"", x, y)}
		if n.Dummy {
			attrs = append(attrs, "shape=point", "width=0.01", "height=0.01", "label=\"\"")
		} else {
			attrs = append(attrs, fmtAttrs(n, opts.Detailed, highlight[n.ID])...)
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	byID := make(map[string]graph.Node, len(l.Nodes))
	for _, n := range l.Nodes {
		byID[n.ID] = n
	}
	for _, e := range l.Edges {
		var attrs []string
		if byID[e.To].Dummy {
			attrs = append(attrs, "arrowhead=none")
		}
		if highlight[e.From] && highlight[e.To] {
			attrs = append(attrs, "color=\"#c0392b\"", "penwidth=2")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(n graph.Node, detailed, highlighted bool) []string {
	label := n.Label
	if label == "" {
		label = n.ID
	}
	if detailed {
		label = fmt.Sprintf("%s\n%s (%d,%d)", label, n.Level, n.X, n.Y)
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case highlighted:
		attrs = append(attrs, "fillcolor=\"#f5b7b1\"", "penwidth=2")
	case n.Finished:
		attrs = append(attrs, "fillcolor=\"#d5f5e3\"")
	}
	return attrs
}
