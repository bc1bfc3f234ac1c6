package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/techtree/pkg/builder"
	"github.com/matzehuels/techtree/pkg/cache"
	"github.com/matzehuels/techtree/pkg/dag"
	"github.com/matzehuels/techtree/pkg/graph"
	"github.com/matzehuels/techtree/pkg/layout"
	"github.com/matzehuels/techtree/pkg/observability"
	"github.com/matzehuels/techtree/pkg/render"
	"github.com/matzehuels/techtree/pkg/research"
)

// Runner executes the pipeline with caching.
//
// The Runner holds no per-run state; several goroutines may share one with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer means the DefaultKeyer and a nil
// cache disables caching. Cache events are reported to the observability
// hooks.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  cache.Instrument(c),
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute builds and lays out records, or returns the cached snapshot for
// identical records and settings. Every call gets a fresh RunID.
func (r *Runner) Execute(ctx context.Context, records []*research.Record, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	logger := opts.Logger.With("run_id", runID)

	defsHash, err := cache.HashJSON(records)
	if err != nil {
		return nil, fmt.Errorf("hash definitions: %w", err)
	}
	result := &Result{DefsHash: defsHash}
	result.Stats.RecordCount = len(records)
	key := r.Keyer.LayoutKey(defsHash, opts.LayoutKeyOpts())

	if !opts.Refresh && !opts.Check {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if cached, err := graph.UnmarshalLayout(data); err == nil {
				cached.RunID = runID
				result.Layout = cached
				result.CacheInfo.LayoutHit = true
				result.Stats.NodeCount = len(cached.Nodes)
				result.Stats.EdgeCount = len(cached.Edges)
				logger.Info("layout cache hit", "nodes", len(cached.Nodes))
				return result, nil
			}
		}
	}

	start := time.Now()
	g, report, err := r.Build(ctx, records, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.BuildTime = time.Since(start)
	logger.Info("built research graph",
		"records", len(records),
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"hidden", len(report.Hidden),
		"locked", len(report.Locked),
		"duration", result.Stats.BuildTime)

	start = time.Now()
	res, err := layout.New(opts.LayoutOptions(), logger).Run(ctx, g)
	if err != nil {
		return nil, err
	}
	result.Stats.LayoutTime = time.Since(start)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	if opts.Check {
		result.Issues = layout.Validate(res)
		for _, issue := range result.Issues {
			logger.Warn("layout issue", "kind", issue.Kind, "nodes", issue.Nodes, "msg", issue.Message)
		}
	}

	result.Layout = graph.FromResult(res, report, runID)
	if data, err := graph.MarshalLayout(result.Layout); err == nil {
		if err := r.Cache.Set(ctx, key, data, opts.Settings.Cache.TTL); err != nil {
			logger.Warn("cache layout", "err", err)
		}
	}
	return result, nil
}

// Build validates records and creates the research graph.
func (r *Runner) Build(ctx context.Context, records []*research.Record, opts Options) (*dag.DAG, *builder.Report, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}
	start := time.Now()
	g, report, err := builder.Build(records, opts.BuilderOptions(), opts.Logger)
	observability.Layout().OnPhase(ctx, observability.PhaseBuild, time.Since(start))
	if err != nil {
		return nil, report, err
	}
	return g, report, nil
}

// Render draws a snapshot, reusing a cached artifact when the snapshot
// geometry and options match.
func (r *Runner) Render(ctx context.Context, l *graph.Layout, format string, opts render.Options) ([]byte, bool, error) {
	if !render.ValidFormat(format) {
		return nil, false, render.ErrUnsupportedFormat(format)
	}
	geometry, err := cache.HashJSON(struct {
		Nodes []graph.Node
		Edges []graph.Edge
	}{l.Nodes, l.Edges})
	if err != nil {
		return nil, false, fmt.Errorf("hash layout: %w", err)
	}
	key := r.Keyer.ArtifactKey(geometry, ArtifactKeyOpts(format, opts))

	// JSON carries the run id, so it is never served from cache.
	if format != render.FormatJSON {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			return data, true, nil
		}
	}

	start := time.Now()
	data, err := render.Render(ctx, l, format, opts)
	if err != nil {
		return nil, false, err
	}
	r.Logger.Debug("rendered layout", "format", format, "bytes", len(data), "duration", time.Since(start))

	if format != render.FormatJSON {
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
	}
	return data, false, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
