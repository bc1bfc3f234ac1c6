package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/techtree/pkg/config"
	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/graph"
	"github.com/matzehuels/techtree/pkg/render"
)

const layoutSuffix = ".layout.json"

// renderOpts holds the render command flags.
type renderOpts struct {
	output    string
	format    string
	noCache   bool
	detailed  bool
	highlight []string
	goal      string

	layerSpacing float64
	rowSpacing   float64
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags settingsFlags
		opts  renderOpts
	)

	cmd := &cobra.Command{
		Use:   "render <defs|layout.json>",
		Short: "Draw a research tree as SVG or DOT",
		Long: `Draw a research tree as SVG or DOT.

The input is either a definition source, which is laid out first, or a
*.layout.json file written by 'layout'. Nodes are pinned to their grid
positions; Graphviz only routes the edges.

--goal highlights a research and every unfinished prerequisite on its path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format == "" {
				opts.format = render.FormatFromPath(opts.output)
			}
			if !render.ValidFormat(opts.format) {
				return render.ErrUnsupportedFormat(opts.format)
			}
			s, err := flags.settings(cmd)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], s, opts)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: svg (default), dot, json")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "add tech level and grid position to labels")
	cmd.Flags().StringSliceVar(&opts.highlight, "highlight", nil, "research to highlight (repeatable)")
	cmd.Flags().StringVar(&opts.goal, "goal", "", "highlight a research and its missing prerequisites")
	cmd.Flags().Float64Var(&opts.layerSpacing, "layer-spacing", render.DefaultLayerSpacing, "distance between layers in inches")
	cmd.Flags().Float64Var(&opts.rowSpacing, "row-spacing", render.DefaultRowSpacing, "distance between rows in inches")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, s config.Settings, opts renderOpts) error {
	var (
		l      *graph.Layout
		cached bool
	)
	if strings.HasSuffix(input, layoutSuffix) {
		var err error
		if l, err = graph.ReadLayoutFile(input); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "read layout %s", input)
		}
	} else {
		res, err := c.computeLayout(ctx, input, s, opts.noCache, false)
		if err != nil {
			return err
		}
		l, cached = res.Layout, res.CacheInfo.LayoutHit
	}

	highlight, err := highlightSet(l, opts)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, s, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	data, hit, err := runner.Render(ctx, l, opts.format, render.Options{
		LayerSpacing: opts.layerSpacing,
		RowSpacing:   opts.rowSpacing,
		Detailed:     opts.detailed,
		Highlight:    highlight,
	})
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = renderOutput(input, opts.format)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Rendered %s", strings.ToUpper(opts.format))
	printFile(output)
	fmt.Println(layoutSummary{Nodes: len(l.ResearchNodes()), Crossings: l.Stats.Crossings, Cached: cached || hit})
	if len(highlight) > 0 {
		printDetail("highlighted: %s", strings.Join(highlight, ", "))
	}
	return nil
}

// renderOutput is the default output path: tree.layout.json and tree.toml
// both render to tree.<format>.
func renderOutput(input, format string) string {
	if base, ok := strings.CutSuffix(input, layoutSuffix); ok {
		return base + "." + format
	}
	return defaultOutput(input, "."+format)
}

// highlightSet merges --highlight with the goal and its missing
// prerequisites. Every ID must exist in the layout.
func highlightSet(l *graph.Layout, opts renderOpts) ([]string, error) {
	ids := append([]string(nil), opts.highlight...)
	if opts.goal != "" {
		ids = append(ids, opts.goal)
		ids = append(ids, l.MissingPrerequisites(opts.goal)...)
	}
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if _, ok := l.Node(id); !ok {
			return nil, errors.New(errors.ErrCodeNodeNotFound, "research %q is not in the layout", id)
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
