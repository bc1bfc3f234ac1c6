package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/techtree/pkg/config"
	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/graph"
	"github.com/matzehuels/techtree/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags   settingsFlags
		output  string
		noCache bool
		check   bool
	)

	cmd := &cobra.Command{
		Use:   "layout <defs>",
		Short: "Compute the layout of a research tree",
		Long: `Compute the layout of a research tree.

<defs> is a JSON, TOML or YAML definition file, an http(s) URL of one, or a
MongoDB URI. The result is a layout.json file that 'render' and 'browse'
accept.

Layouts are cached by definition content and layout settings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.settings(cmd)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], s, output, noCache, check)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&check, "check", false, "validate the finished layout and fail on issues")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, s config.Settings, output string, noCache, check bool) error {
	start := time.Now()
	res, err := c.computeLayout(ctx, input, s, noCache, check)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if output == "" {
		output = defaultOutput(input, ".layout.json")
	}
	if err := graph.WriteLayoutFile(res.Layout, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printSummary(res)
	printDetail("took %s", formatDuration(elapsed))
	if check {
		printIssues(res.Issues)
	}
	printNewline()
	printNextStep("Render", "techtree render "+output)

	if len(res.Issues) > 0 {
		return errors.New(errors.ErrCodeInternal, "layout check found %d issue(s)", len(res.Issues))
	}
	return nil
}

// computeLayout loads the definitions and runs the pipeline behind a
// spinner.
func (c *CLI) computeLayout(ctx context.Context, input string, s config.Settings, noCache, check bool) (*pipeline.Result, error) {
	src, release, err := c.openSource(ctx, input, s)
	if err != nil {
		return nil, err
	}
	defer release()

	prog := newProgress(c.Logger)
	records, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Loaded %d records from %s", len(records), src.Name()))

	runner, err := c.newRunner(ctx, s, noCache)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	sp := newSpinner(ctx, os.Stderr, "Computing layout")
	restore := sp.track()
	sp.Start()
	res, err := runner.Execute(ctx, records, pipeline.Options{Settings: s, Check: check, Logger: c.Logger})
	restore()
	if err != nil {
		sp.StopWithError("Layout failed")
		return nil, err
	}
	sp.Stop()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return res, nil
}

// printSummary prints the counts of a pipeline result and what the
// builder left out.
func printSummary(res *pipeline.Result) {
	l := res.Layout
	research := len(l.ResearchNodes())
	fmt.Println(layoutSummary{
		Records:   res.Stats.RecordCount,
		Nodes:     research,
		Dummies:   len(l.Nodes) - research,
		Crossings: l.Stats.Crossings,
		Cached:    res.CacheInfo.LayoutHit,
	})
	if r := l.Report; r != nil {
		if len(r.Cycles) > 0 {
			printWarning("Dropped %d research on prerequisite cycles: %s", len(r.Cycles), strings.Join(r.Cycles, ", "))
		}
		if len(r.Hidden) > 0 {
			printDetail("%d hidden", len(r.Hidden))
		}
		if len(r.Locked) > 0 {
			printDetail("%d locked", len(r.Locked))
		}
	}
}

// defaultOutput derives an output path from the input: the input path with
// ext replacing its extension, or techtree<ext> for remote inputs.
func defaultOutput(input, ext string) string {
	if isURL(input) || isMongoURI(input) {
		return appName + ext
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}
